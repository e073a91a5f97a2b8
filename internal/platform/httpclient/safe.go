// File: internal/platform/httpclient/safe.go
package httpclient

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// NewSafe returns an HTTP client for outbound calls to public APIs. Requests
// to private, loopback, link-local and metadata addresses are refused at dial
// time, after DNS resolution.
func NewSafe(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(443).
		Build()

	return safeurl.Client(config).Client
}

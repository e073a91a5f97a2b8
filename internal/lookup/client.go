package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"barbershop_backend/internal/common"
)

// maxBodyBytes caps upstream responses. The largest, the municipalities of
// Minas Gerais, is well under this.
const maxBodyBytes = 4 << 20

type upstreamStatusError struct {
	status int
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.status)
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return &upstreamStatusError{status: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// ViaCEPClient talks to viacep.com.br.
type ViaCEPClient struct {
	baseURL string
	client  *http.Client
}

// NewViaCEPClient creates a client for the ViaCEP API rooted at baseURL.
func NewViaCEPClient(baseURL string, client *http.Client) *ViaCEPClient {
	return &ViaCEPClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type viaCEPResponse struct {
	CEP         string          `json:"cep"`
	Logradouro  string          `json:"logradouro"`
	Complemento string          `json:"complemento"`
	Bairro      string          `json:"bairro"`
	Localidade  string          `json:"localidade"`
	UF          string          `json:"uf"`
	IBGE        string          `json:"ibge"`
	Erro        json.RawMessage `json:"erro"`
}

// notFound reports ViaCEP's "erro" flag, which older responses send as the
// string "true" and newer ones as a boolean.
func (r viaCEPResponse) notFound() bool {
	v := strings.Trim(strings.ToLower(string(r.Erro)), `"`)
	return v == "true"
}

// Lookup resolves a CEP in either 00000-000 or 00000000 form.
func (c *ViaCEPClient) Lookup(ctx context.Context, cep string) (*PostalAddress, error) {
	if !common.IsValidCEP(cep) {
		return nil, ErrInvalidCEP
	}
	digits := common.NormalizeCEP(cep)

	var body viaCEPResponse
	if err := getJSON(ctx, c.client, c.baseURL+"/"+digits+"/json/", &body); err != nil {
		if se, ok := err.(*upstreamStatusError); ok && se.status == http.StatusBadRequest {
			return nil, ErrInvalidCEP
		}
		return nil, err
	}
	if body.notFound() {
		return nil, ErrCEPNotFound
	}

	return &PostalAddress{
		CEP:         common.FormatCEP(digits),
		UF:          strings.ToUpper(body.UF),
		Cidade:      body.Localidade,
		Bairro:      body.Bairro,
		Rua:         body.Logradouro,
		Complemento: body.Complemento,
		IBGECode:    body.IBGE,
	}, nil
}

// IBGEClient talks to the IBGE localities API.
type IBGEClient struct {
	baseURL string
	client  *http.Client
}

// NewIBGEClient creates a client for the IBGE localities API rooted at baseURL.
func NewIBGEClient(baseURL string, client *http.Client) *IBGEClient {
	return &IBGEClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// States lists every state ordered by name.
func (c *IBGEClient) States(ctx context.Context) ([]State, error) {
	var states []State
	if err := getJSON(ctx, c.client, c.baseURL+"/estados?orderBy=nome", &states); err != nil {
		return nil, err
	}
	return states, nil
}

// Municipalities lists the municipalities of the state with the given IBGE id.
func (c *IBGEClient) Municipalities(ctx context.Context, stateID int) ([]Municipality, error) {
	var out []Municipality
	url := c.baseURL + "/estados/" + strconv.Itoa(stateID) + "/municipios?orderBy=nome"
	if err := getJSON(ctx, c.client, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

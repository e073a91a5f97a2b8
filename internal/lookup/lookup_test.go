package lookup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"barbershop_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type upstream struct {
	server     *httptest.Server
	viacepHits int32
	ibgeHits   int32
	ibgeBroken atomic.Bool
	viacepDown atomic.Bool
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.viacepHits, 1)
		if u.viacepDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/ws/01001000/"):
			_, _ = w.Write([]byte(`{"cep":"01001-000","logradouro":"Praça da Sé","complemento":"lado ímpar","bairro":"Sé","localidade":"sao paulo","uf":"SP","ibge":"3550308"}`))
		case strings.HasPrefix(r.URL.Path, "/ws/99999999/"):
			_, _ = w.Write([]byte(`{"erro": true}`))
		case strings.HasPrefix(r.URL.Path, "/ws/88888888/"):
			_, _ = w.Write([]byte(`{"erro": "true"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/localidades/estados", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.ibgeHits, 1)
		if u.ibgeBroken.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode([]State{
			{ID: 35, Sigla: "SP", Nome: "São Paulo"},
			{ID: 12, Sigla: "AC", Nome: "Acre"},
		})
	})
	mux.HandleFunc("/localidades/estados/35/municipios", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.ibgeHits, 1)
		_ = json.NewEncoder(w).Encode([]Municipality{
			{ID: 3509502, Nome: "Campinas"},
			{ID: 3550308, Nome: "São Paulo"},
		})
	})
	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) service() *Service {
	client := u.server.Client()
	return NewService(
		NewViaCEPClient(u.server.URL+"/ws", client),
		NewIBGEClient(u.server.URL+"/localidades", client),
		time.Minute, nil, zap.NewNop(),
	)
}

func TestLookupCEP(t *testing.T) {
	u := newUpstream(t)
	svc := u.service()

	addr, err := svc.LookupCEP(context.Background(), "01001-000")
	require.NoError(t, err)
	assert.Equal(t, "01001-000", addr.CEP)
	assert.Equal(t, "SP", addr.UF)
	assert.Equal(t, "São Paulo", addr.Cidade, "city takes the IBGE spelling")
	assert.Equal(t, "Sé", addr.Bairro)
	assert.Equal(t, "Praça da Sé", addr.Rua)
	assert.Equal(t, "3550308", addr.IBGECode)

	_, err = svc.LookupCEP(context.Background(), "01001000")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&u.viacepHits), "second lookup is served from cache")
}

func TestLookupCEPErrors(t *testing.T) {
	u := newUpstream(t)
	svc := u.service()
	ctx := context.Background()

	_, err := svc.LookupCEP(ctx, "123")
	assert.ErrorIs(t, err, ErrInvalidCEP)

	_, err = svc.LookupCEP(ctx, "99999-999")
	assert.ErrorIs(t, err, ErrCEPNotFound)

	_, err = svc.LookupCEP(ctx, "88888888")
	assert.ErrorIs(t, err, ErrCEPNotFound, "string form of the erro flag")

	_, err = svc.LookupCEP(ctx, "12345678")
	assert.ErrorIs(t, err, ErrInvalidCEP, "ViaCEP 400 means malformed")

	u.viacepDown.Store(true)
	_, err = svc.LookupCEP(ctx, "01001-000")
	assert.ErrorIs(t, err, common.ErrBadGateway)
}

func TestLookupCEPSurvivesIBGEFailure(t *testing.T) {
	u := newUpstream(t)
	u.ibgeBroken.Store(true)

	addr, err := u.service().LookupCEP(context.Background(), "01001-000")
	require.NoError(t, err)
	assert.Equal(t, "sao paulo", addr.Cidade)
}

func TestStatesAndMunicipalities(t *testing.T) {
	u := newUpstream(t)
	svc := u.service()
	ctx := context.Background()

	states, err := svc.States(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "Acre", states[0].Nome)

	municipalities, err := svc.Municipalities(ctx, "sp")
	require.NoError(t, err)
	assert.Len(t, municipalities, 2)

	_, err = svc.Municipalities(ctx, "XX")
	assert.ErrorIs(t, err, ErrStateNotFound)

	m, err := svc.FindMunicipality(ctx, "SP", "SAO PAULO")
	require.NoError(t, err)
	assert.Equal(t, 3550308, m.ID)

	_, err = svc.FindMunicipality(ctx, "SP", "Gotham")
	assert.ErrorIs(t, err, common.ErrNotFound)

	hits := atomic.LoadInt32(&u.ibgeHits)
	_, _ = svc.Municipalities(ctx, "SP")
	assert.Equal(t, hits, atomic.LoadInt32(&u.ibgeHits))
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	u := newUpstream(t)
	r := gin.New()
	NewHandler(u.service(), zap.NewNop()).RegisterRoutes(r.Group("/api"))

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := serve("/api/cep/01001-000")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"rua":"Praça da Sé"`)

	assert.Equal(t, http.StatusNotFound, serve("/api/cep/99999999").Code)
	assert.Equal(t, http.StatusBadRequest, serve("/api/cep/abc").Code)

	rec = serve("/api/localidades/estados")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sigla":"SP"`)

	rec = serve("/api/localidades/estados/SP/municipios")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Campinas")
}

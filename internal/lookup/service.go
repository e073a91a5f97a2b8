package lookup

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/platform/metrics"

	"github.com/gosimple/slug"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	sourceViaCEP = "viacep"
	sourceIBGE   = "ibge"

	statesCacheKey = "estados"
)

// Service fronts both upstream APIs with a shared cache.
type Service struct {
	viacep  *ViaCEPClient
	ibge    *IBGEClient
	cache   *cache.Cache
	metrics *metrics.Collector
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewService creates a lookup service caching results for ttl.
func NewService(viacep *ViaCEPClient, ibge *IBGEClient, ttl time.Duration, collector *metrics.Collector, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		viacep:  viacep,
		ibge:    ibge,
		cache:   cache.New(ttl, 2*ttl),
		metrics: collector,
		tracer:  otel.Tracer("barbershop_backend/lookup"),
		logger:  logger.Named("LookupService"),
	}
}

// LookupCEP resolves a CEP. The city name is replaced by the IBGE spelling
// when one matches; a failing IBGE call leaves the ViaCEP answer as is.
func (s *Service) LookupCEP(ctx context.Context, cep string) (*PostalAddress, error) {
	if !common.IsValidCEP(cep) {
		return nil, ErrInvalidCEP
	}
	digits := common.NormalizeCEP(cep)
	key := "cep:" + digits
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.RecordLookup(sourceViaCEP, "hit")
		addr := *cached.(*PostalAddress)
		return &addr, nil
	}

	ctx, span := s.tracer.Start(ctx, "lookup.cep", trace.WithAttributes(attribute.String("lookup.cep", digits)))
	defer span.End()

	addr, err := s.viacep.Lookup(ctx, digits)
	if err != nil {
		return nil, s.upstreamError(span, sourceViaCEP, err)
	}
	s.metrics.RecordLookup(sourceViaCEP, "miss")

	if m, err := s.FindMunicipality(ctx, addr.UF, addr.Cidade); err == nil {
		addr.Cidade = m.Nome
	} else {
		s.logger.Debug("Municipality not reconciled", zap.String("uf", addr.UF), zap.String("cidade", addr.Cidade), zap.Error(err))
	}

	s.cache.SetDefault(key, addr)
	out := *addr
	return &out, nil
}

// States lists every state ordered by name.
func (s *Service) States(ctx context.Context) ([]State, error) {
	if cached, ok := s.cache.Get(statesCacheKey); ok {
		s.metrics.RecordLookup(sourceIBGE, "hit")
		return cached.([]State), nil
	}

	ctx, span := s.tracer.Start(ctx, "lookup.states")
	defer span.End()

	states, err := s.ibge.States(ctx)
	if err != nil {
		return nil, s.upstreamError(span, sourceIBGE, err)
	}
	s.metrics.RecordLookup(sourceIBGE, "miss")

	sort.SliceStable(states, func(i, j int) bool { return states[i].Nome < states[j].Nome })
	s.cache.SetDefault(statesCacheKey, states)
	return states, nil
}

// Municipalities lists the municipalities of the state with the given sigla.
func (s *Service) Municipalities(ctx context.Context, uf string) ([]Municipality, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	if !common.IsValidUF(uf) {
		return nil, ErrStateNotFound
	}
	key := "municipios:" + uf
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.RecordLookup(sourceIBGE, "hit")
		return cached.([]Municipality), nil
	}

	states, err := s.States(ctx)
	if err != nil {
		return nil, err
	}
	stateID := 0
	for _, st := range states {
		if strings.EqualFold(st.Sigla, uf) {
			stateID = st.ID
			break
		}
	}
	if stateID == 0 {
		return nil, ErrStateNotFound
	}

	ctx, span := s.tracer.Start(ctx, "lookup.municipalities", trace.WithAttributes(attribute.String("lookup.uf", uf)))
	defer span.End()

	municipalities, err := s.ibge.Municipalities(ctx, stateID)
	if err != nil {
		return nil, s.upstreamError(span, sourceIBGE, err)
	}
	s.metrics.RecordLookup(sourceIBGE, "miss")

	s.cache.SetDefault(key, municipalities)
	return municipalities, nil
}

// FindMunicipality matches name against the municipalities of uf ignoring
// case, accents and punctuation.
func (s *Service) FindMunicipality(ctx context.Context, uf, name string) (*Municipality, error) {
	municipalities, err := s.Municipalities(ctx, uf)
	if err != nil {
		return nil, err
	}
	want := slug.Make(name)
	for i := range municipalities {
		if slug.Make(municipalities[i].Nome) == want {
			m := municipalities[i]
			return &m, nil
		}
	}
	return nil, common.ErrNotFound.WithDetails("Municipality not found in state " + uf + ".")
}

// upstreamError records the failure and maps transport problems to 502.
// Domain errors such as ErrCEPNotFound pass through.
func (s *Service) upstreamError(span trace.Span, source string, err error) error {
	if apiErr, ok := common.IsAPIError(err); ok {
		s.metrics.RecordLookup(source, "not_found")
		span.SetStatus(codes.Error, apiErr.Code)
		return apiErr
	}

	s.metrics.RecordLookup(source, "error")
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var se *upstreamStatusError
	if errors.As(err, &se) {
		s.logger.Warn("Lookup upstream returned an error status", zap.String("source", source), zap.Int("status", se.status))
	} else {
		s.logger.Warn("Lookup upstream unreachable", zap.String("source", source), zap.Error(err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.ErrServiceUnavailable.WithDetails(source + " timed out.")
	}
	return common.ErrBadGateway.WithDetails(source + " is unavailable.")
}

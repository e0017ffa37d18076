// Package weather – advisory service orchestration.
//
// Service ties the pieces together: cache lookup, outbound pacing, provider
// fetch, advisory derivation, and fallback construction. GetAdvisory never
// returns an error to its caller – every failure mode degrades to a fallback
// advisory with error_details attached, so the contact endpoints stay usable
// when the provider is down or unconfigured.
package weather

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Advisory sources.
const (
	SourceCache = "cache"
	SourceAPI   = "openweather_api"
	SourceError = "api_error"
)

// Advisory is the full response for a city: weather, suggestion, provenance.
type Advisory struct {
	Weather      Weather    `json:"weather"`
	Message      Suggestion `json:"message"`
	Source       string     `json:"source"`
	APIInfo      *APIInfo   `json:"api_info,omitempty"`
	ErrorDetails *APIError  `json:"error_details,omitempty"`
}

// Fetcher is the outbound provider dependency of Service.
type Fetcher interface {
	Fetch(ctx context.Context, city string) (*Observation, error)
	HasKey() bool
}

// Metrics holds the Prometheus instruments for the weather subsystem.
// Construct once per process; Service tolerates a nil Metrics.
type Metrics struct {
	CacheLookups *prometheus.CounterVec
	APIRequests  *prometheus.CounterVec
}

// NewMetrics creates the weather metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contacts",
			Subsystem: "weather",
			Name:      "cache_lookups_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contacts",
			Subsystem: "weather",
			Name:      "api_requests_total",
			Help:      "Outbound OpenWeatherMap requests by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.CacheLookups, m.APIRequests)
	}
	return m
}

// Service answers advisory requests for city names.
type Service struct {
	client  Fetcher
	cache   *Cache
	limiter *Limiter
	log     zerolog.Logger
	metrics *Metrics

	requests atomic.Uint64
}

// NewService wires a Service from its parts. metrics may be nil.
func NewService(client Fetcher, cache *Cache, limiter *Limiter, log zerolog.Logger, metrics *Metrics) *Service {
	return &Service{
		client:  client,
		cache:   cache,
		limiter: limiter,
		log:     log,
		metrics: metrics,
	}
}

// GetAdvisory returns the advisory for city. It consults the cache first,
// then paces and performs a provider fetch. The returned value is always
// usable; failures are reported inside it, never as a Go error.
//
// A fresh fetch runs to completion and is cached even if the inbound request
// goes away, so an aborted caller still warms the cache for the next one.
func (s *Service) GetAdvisory(ctx context.Context, city string) *Advisory {
	s.requests.Add(1)

	if !s.client.HasKey() {
		return s.fallback(city, &APIError{
			Category:    CategoryUnauthorized,
			Description: "Chave da API OpenWeatherMap não configurada",
		})
	}

	key := NormalizeCityKey(city)
	if adv, storedAt, ok := s.cache.Get(key); ok {
		s.countLookup("hit")
		return s.annotateHit(adv, storedAt)
	}
	s.countLookup("miss")

	// The fetch keeps trace/log values but outlives the caller's
	// cancellation; the client's own timeout bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	if err := s.limiter.Acquire(ctx); err != nil {
		return s.fallback(city, &APIError{
			Category:    CategoryNetworkError,
			Description: "Requisição cancelada aguardando o limitador",
		})
	}

	obs, err := s.client.Fetch(fetchCtx, city)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			apiErr = &APIError{Category: CategoryUnknown, Description: err.Error()}
		}
		s.countRequest(apiErr.Category)
		s.log.Warn().
			Str("city", city).
			Str("category", apiErr.Category).
			Int("http_status", apiErr.HTTPStatus).
			Msg("weather fetch failed")
		return s.fallback(city, apiErr)
	}
	s.countRequest("success")

	adv := Advisory{
		Weather: obs.Weather,
		Message: BuildSuggestion(obs.Weather.Temperature, obs.Weather.Condition, obs.Weather.Description),
		Source:  SourceAPI,
		APIInfo: cloneAPIInfo(&obs.APIInfo),
	}
	s.cache.Put(key, adv)

	s.log.Debug().
		Str("city", city).
		Int("temperature", obs.Weather.Temperature).
		Int64("latency_ms", obs.APIInfo.ResponseTimeMS).
		Msg("weather fetched")
	return &adv
}

// Stats reports cache usage plus the total advisory request count.
type Stats struct {
	Cache    CacheStats `json:"cache"`
	Requests uint64     `json:"request_count"`
}

// Stats returns a snapshot of service counters.
func (s *Service) Stats() Stats {
	return Stats{Cache: s.cache.Stats(), Requests: s.requests.Load()}
}

// annotateHit returns a cache-sourced copy of a stored advisory with the
// cache timestamps filled in. The stored value is never mutated.
func (s *Service) annotateHit(adv Advisory, storedAt time.Time) *Advisory {
	out := adv
	out.Source = SourceCache
	info := cloneAPIInfo(adv.APIInfo)
	if info == nil {
		info = &APIInfo{}
	}
	info.CachedAt = storedAt.UTC().Format(time.RFC3339)
	info.CacheExpires = storedAt.Add(s.cache.TTL()).UTC().Format(time.RFC3339)
	out.APIInfo = info
	return &out
}

// fallback builds the degraded advisory used whenever real weather data is
// unavailable. It is never cached.
func (s *Service) fallback(city string, apiErr *APIError) *Advisory {
	return &Advisory{
		Weather: Weather{
			Temperature: 0,
			Condition:   "Erro",
			Description: "Dados indisponíveis",
			City:        city,
		},
		Message: Suggestion{
			Temperature: 0,
			Condition:   "Erro",
			Message:     "Serviço temporariamente indisponível",
			Description: "Dados indisponíveis",
		},
		Source:       SourceError,
		ErrorDetails: apiErr,
	}
}

func (s *Service) countLookup(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (s *Service) countRequest(outcome string) {
	if s.metrics != nil {
		s.metrics.APIRequests.WithLabelValues(outcome).Inc()
	}
}

func cloneAPIInfo(in *APIInfo) *APIInfo {
	if in == nil {
		return nil
	}
	out := *in
	if in.Coordinates != nil {
		coord := *in.Coordinates
		out.Coordinates = &coord
	}
	return &out
}

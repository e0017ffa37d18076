package weather

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher counts calls and returns a canned observation or error.
type fakeFetcher struct {
	calls  int
	hasKey bool
	obs    *Observation
	err    error
}

func (f *fakeFetcher) Fetch(_ context.Context, city string) (*Observation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	obs := *f.obs
	obs.Weather.City = city
	return &obs, nil
}

func (f *fakeFetcher) HasKey() bool { return f.hasKey }

func sunnyObs(temp int) *Observation {
	return &Observation{
		Weather: Weather{Temperature: temp, Condition: "Clear", Description: "céu limpo"},
		APIInfo: APIInfo{ResponseTimeMS: 12, Country: "BR"},
	}
}

func newTestService(f Fetcher, clock clockwork.Clock) *Service {
	return NewService(f,
		NewCache(10*time.Minute, 100, clock),
		NewLimiter(time.Nanosecond), // effectively unpaced in tests
		zerolog.Nop(),
		nil,
	)
}

func TestGetAdvisorySuccessThenCacheHit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := &fakeFetcher{hasKey: true, obs: sunnyObs(25)}
	svc := newTestService(f, clock)

	first := svc.GetAdvisory(context.Background(), "São Paulo")
	require.NotNil(t, first)
	assert.Equal(t, SourceAPI, first.Source)
	assert.Equal(t, "Convide seu contato para fazer alguma atividade ao ar livre", first.Message.Message)
	assert.Nil(t, first.ErrorDetails)
	assert.Equal(t, 1, f.calls)

	// Same city with different accents/case hits the cache.
	second := svc.GetAdvisory(context.Background(), "  SAO PAULO ")
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, 1, f.calls, "cache hit must not fetch")
	require.NotNil(t, second.APIInfo)
	assert.NotEmpty(t, second.APIInfo.CachedAt)
	assert.NotEmpty(t, second.APIInfo.CacheExpires)

	// The cached copy stays pristine: the hit annotation never leaks back.
	third := svc.GetAdvisory(context.Background(), "São Paulo")
	assert.Equal(t, SourceCache, third.Source)

	stats := svc.Stats()
	assert.Equal(t, uint64(3), stats.Requests)
	assert.Equal(t, uint64(2), stats.Cache.Hits)
}

func TestGetAdvisoryExpiredEntryRefetches(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := &fakeFetcher{hasKey: true, obs: sunnyObs(25)}
	svc := newTestService(f, clock)

	svc.GetAdvisory(context.Background(), "Recife")
	clock.Advance(11 * time.Minute)
	adv := svc.GetAdvisory(context.Background(), "Recife")

	assert.Equal(t, SourceAPI, adv.Source)
	assert.Equal(t, 2, f.calls)
}

func TestGetAdvisoryWithoutKeyFallsBack(t *testing.T) {
	f := &fakeFetcher{hasKey: false}
	svc := newTestService(f, clockwork.NewFakeClock())

	adv := svc.GetAdvisory(context.Background(), "Recife")
	require.NotNil(t, adv)
	assert.Equal(t, SourceError, adv.Source)
	assert.Equal(t, "Erro", adv.Weather.Condition)
	assert.Equal(t, "Dados indisponíveis", adv.Weather.Description)
	assert.Equal(t, "Recife", adv.Weather.City)
	assert.Equal(t, "Serviço temporariamente indisponível", adv.Message.Message)
	require.NotNil(t, adv.ErrorDetails)
	assert.Equal(t, CategoryUnauthorized, adv.ErrorDetails.Category)
	assert.Equal(t, 0, f.calls, "no outbound call without a key")
}

func TestGetAdvisoryFetchErrorFallsBackAndIsNotCached(t *testing.T) {
	f := &fakeFetcher{
		hasKey: true,
		err:    &APIError{Category: CategoryNotFound, HTTPStatus: 404, Description: "Cidade não encontrada"},
	}
	svc := newTestService(f, clockwork.NewFakeClock())

	adv := svc.GetAdvisory(context.Background(), "Atlantis")
	assert.Equal(t, SourceError, adv.Source)
	require.NotNil(t, adv.ErrorDetails)
	assert.Equal(t, CategoryNotFound, adv.ErrorDetails.Category)
	assert.Equal(t, 404, adv.ErrorDetails.HTTPStatus)

	// Failures must not poison the cache: the next call tries again.
	svc.GetAdvisory(context.Background(), "Atlantis")
	assert.Equal(t, 2, f.calls)
	assert.Equal(t, 0, svc.Stats().Cache.Entries)
}

func TestGetAdvisoryDerivesSuggestionFromFetchedWeather(t *testing.T) {
	f := &fakeFetcher{hasKey: true, obs: sunnyObs(31)}
	svc := newTestService(f, clockwork.NewFakeClock())

	adv := svc.GetAdvisory(context.Background(), "Rio de Janeiro")
	assert.Equal(t, 31, adv.Message.Temperature)
	assert.Equal(t, "Convide seu contato para ir à praia com esse calor!", adv.Message.Message)
	assert.Equal(t, "🏖️", adv.Message.Icon)
}

func TestLimiterPacesSequentialFetches(t *testing.T) {
	lim := NewLimiter(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, lim.Acquire(ctx))
	require.NoError(t, lim.Acquire(ctx))
	require.NoError(t, lim.Acquire(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond,
		"three acquisitions at 30ms spacing need at least 60ms")
}

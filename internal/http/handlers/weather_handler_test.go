package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contactly/go-contacts-backend/internal/domain"
	"github.com/contactly/go-contacts-backend/internal/weather"
)

type stubAdvisorySvc struct {
	advisory func(ctx context.Context, city string) *weather.Advisory
	stats    func() weather.Stats
}

func (s stubAdvisorySvc) GetAdvisory(ctx context.Context, city string) *weather.Advisory {
	if s.advisory != nil {
		return s.advisory(ctx, city)
	}
	return &weather.Advisory{
		Weather: weather.Weather{Temperature: 22, Condition: "Clear", City: city},
		Message: weather.BuildSuggestion(22, "Clear", "céu limpo"),
		Source:  weather.SourceAPI,
	}
}

func (s stubAdvisorySvc) Stats() weather.Stats {
	if s.stats != nil {
		return s.stats()
	}
	return weather.Stats{}
}

func newWeatherRouter(wsvc AdvisoryService, csvc ContactService) *gin.Engine {
	r := gin.New()
	h := NewWeatherHandlers(wsvc, csvc)
	g := r.Group("", asUser("u1"))
	g.GET("/contacts/:id/suggestion", h.ContactSuggestion)
	g.GET("/weather", h.CityWeather)
	g.GET("/weather/stats", h.WeatherStats)
	return r
}

func TestContactSuggestion(t *testing.T) {
	id := uuid.NewString()
	csvc := stubContactSvc{
		get: func(_ context.Context, userID, contactID string) (*domain.Contact, error) {
			return &domain.Contact{ID: contactID, UserID: userID, Name: "Maria", City: "São Paulo"}, nil
		},
	}

	w := doJSON(t, newWeatherRouter(stubAdvisorySvc{}, csvc), http.MethodGet, "/contacts/"+id+"/suggestion", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	var resp ContactSuggestionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ContactID != id || resp.City != "São Paulo" || resp.Advisory == nil {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Advisory.Message.Message == "" {
		t.Fatal("advisory carries no suggestion")
	}
}

func TestContactSuggestionUnknownContact(t *testing.T) {
	w := doJSON(t, newWeatherRouter(stubAdvisorySvc{}, stubContactSvc{}), http.MethodGet,
		"/contacts/"+uuid.NewString()+"/suggestion", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestContactSuggestionDegradedAdvisoryStill200(t *testing.T) {
	csvc := stubContactSvc{
		get: func(_ context.Context, userID, contactID string) (*domain.Contact, error) {
			return &domain.Contact{ID: contactID, UserID: userID, City: "Recife"}, nil
		},
	}
	wsvc := stubAdvisorySvc{
		advisory: func(_ context.Context, city string) *weather.Advisory {
			return &weather.Advisory{
				Weather:      weather.Weather{Condition: "Erro", City: city},
				Source:       weather.SourceError,
				ErrorDetails: &weather.APIError{Category: weather.CategoryNetworkError},
			}
		},
	}
	w := doJSON(t, newWeatherRouter(wsvc, csvc), http.MethodGet,
		"/contacts/"+uuid.NewString()+"/suggestion", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("degraded advisory status = %d, want 200", w.Code)
	}
	var resp ContactSuggestionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Advisory.Source != weather.SourceError || resp.Advisory.ErrorDetails == nil {
		t.Fatalf("advisory = %+v", resp.Advisory)
	}
}

func TestCityWeatherRequiresCity(t *testing.T) {
	r := newWeatherRouter(stubAdvisorySvc{}, stubContactSvc{})

	w := doJSON(t, r, http.MethodGet, "/weather", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing city status = %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/weather?city=Recife", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestWeatherStatsEndpoint(t *testing.T) {
	wsvc := stubAdvisorySvc{stats: func() weather.Stats {
		return weather.Stats{Requests: 7, Cache: weather.CacheStats{Entries: 2, Capacity: 100}}
	}}
	w := doJSON(t, newWeatherRouter(wsvc, stubContactSvc{}), http.MethodGet, "/weather/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var stats weather.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Requests != 7 || stats.Cache.Capacity != 100 {
		t.Fatalf("stats = %+v", stats)
	}
}

// Weather advisory HTTP handlers.
//
// This file exposes the advisory endpoints:
//   - GET /contacts/{id}/suggestion  (advisory for a contact's city)
//   - GET /weather                   (advisory for an arbitrary city)
//   - GET /weather/stats             (cache and request counters)
//
// Advisory lookups never fail outright: when the provider is unreachable or
// unconfigured the service answers with a fallback advisory carrying
// error_details, and these handlers pass that through with a 200.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contactly/go-contacts-backend/internal/weather"
)

// AdvisoryService defines the weather operations consumed by HTTP handlers.
type AdvisoryService interface {
	// GetAdvisory returns the advisory for a city; failures degrade to a
	// fallback advisory rather than an error.
	GetAdvisory(ctx context.Context, city string) *weather.Advisory
	// Stats reports cache usage and the total request count.
	Stats() weather.Stats
}

// WeatherHandlers groups the advisory endpoints.
type WeatherHandlers struct {
	weatherSvc AdvisoryService
	contactSvc ContactService
}

// NewWeatherHandlers constructs WeatherHandlers bound to the given services.
func NewWeatherHandlers(weatherSvc AdvisoryService, contactSvc ContactService) *WeatherHandlers {
	return &WeatherHandlers{weatherSvc: weatherSvc, contactSvc: contactSvc}
}

// ContactSuggestionResponse pairs a contact with the advisory for its city.
type ContactSuggestionResponse struct {
	ContactID   string            `json:"contact_id"`
	ContactName string            `json:"contact_name"`
	City        string            `json:"city"`
	Advisory    *weather.Advisory `json:"advisory"`
}

// ContactSuggestion godoc
// @ID          contactSuggestion
// @Summary     Weather-based suggestion for a contact
// @Description Returns the current weather in the contact's city plus a conversation suggestion. Degrades to a fallback advisory when the provider is unavailable.
// @Tags        Weather
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Contact ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.ContactSuggestionResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Contact not found"
// @Router      /contacts/{id}/suggestion [get]
func (h *WeatherHandlers) ContactSuggestion(c *gin.Context) {
	uid, okAuth := mustUserID(c)
	if !okAuth {
		return
	}
	contactID := c.Param("id")
	if _, err := uuid.Parse(contactID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "contact id must be a UUID")
		return
	}

	contact, err := h.contactSvc.Get(c.Request.Context(), uid, contactID)
	if err != nil {
		failContact(c, err, ErrCodeInternal)
		return
	}

	adv := h.weatherSvc.GetAdvisory(c.Request.Context(), contact.City)
	ok(c, http.StatusOK, ContactSuggestionResponse{
		ContactID:   contact.ID,
		ContactName: contact.Name,
		City:        contact.City,
		Advisory:    adv,
	})
}

// CityWeather godoc
// @ID          cityWeather
// @Summary     Weather advisory for a city
// @Tags        Weather
// @Produce     json
// @Security    BearerAuth
//
// @Param       city  query  string  true  "City name"  example(São Paulo)
//
// @Success     200  {object} weather.Advisory
// @Failure     400  {object} handlers.ErrorResponse "Missing city"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /weather [get]
func (h *WeatherHandlers) CityWeather(c *gin.Context) {
	if _, okAuth := mustUserID(c); !okAuth {
		return
	}
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "city query parameter required")
		return
	}
	ok(c, http.StatusOK, h.weatherSvc.GetAdvisory(c.Request.Context(), city))
}

// WeatherStats godoc
// @ID          weatherStats
// @Summary     Weather subsystem counters
// @Tags        Weather
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object} weather.Stats
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /weather/stats [get]
func (h *WeatherHandlers) WeatherStats(c *gin.Context) {
	if _, okAuth := mustUserID(c); !okAuth {
		return
	}
	ok(c, http.StatusOK, h.weatherSvc.Stats())
}

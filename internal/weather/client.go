// Package weather – OpenWeatherMap client.
//
// This file owns the single outbound HTTP dependency of the service. The
// client translates provider responses into the internal Weather shape
// (temperatures rounded to whole °C, wind converted from m/s to km/h) and
// turns every failure mode into a typed *APIError so the orchestration layer
// can pick the right fallback without inspecting transport details.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"
)

// Error categories carried by APIError.Category.
const (
	CategoryUnauthorized    = "unauthorized"
	CategoryNotFound        = "not_found"
	CategoryRateLimit       = "rate_limit"
	CategoryNetworkError    = "network_error"
	CategoryInvalidResponse = "invalid_response"
	CategoryUnknown         = "unknown"
)

// userAgent identifies this service to the provider.
const userAgent = "Contact-Manager-Enhanced/1.0"

// APIError is a classified provider failure. It doubles as the error_details
// payload surfaced in fallback advisories.
type APIError struct {
	Category    string `json:"type"`
	HTTPStatus  int    `json:"http_status,omitempty"`
	Description string `json:"description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("weather api: %s (HTTP %d): %s", e.Category, e.HTTPStatus, e.Description)
	}
	return fmt.Sprintf("weather api: %s: %s", e.Category, e.Description)
}

// Coordinates is the geographic position returned by the provider.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Weather is the normalized weather snapshot for a city. Temperatures are
// whole °C, wind speed whole km/h.
type Weather struct {
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Description string `json:"description"`
	City        string `json:"city"`
	FeelsLike   *int   `json:"feels_like,omitempty"`
	Humidity    *int   `json:"humidity,omitempty"`
	Pressure    *int   `json:"pressure,omitempty"`
	WindSpeed   *int   `json:"wind_speed,omitempty"`
}

// APIInfo carries request metadata alongside a weather result. CachedAt and
// CacheExpires are only set when the result is served from the cache.
type APIInfo struct {
	ResponseTimeMS int64        `json:"response_time_ms"`
	Country        string       `json:"country,omitempty"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	CachedAt       string       `json:"cached_at,omitempty"`
	CacheExpires   string       `json:"cache_expires,omitempty"`
}

// Observation is a successful fetch: the weather plus its request metadata.
type Observation struct {
	Weather Weather
	APIInfo APIInfo
}

// owmResponse mirrors the subset of the provider payload we consume. Main is
// a pointer so a structurally valid but incomplete body is detectable.
type owmResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp      float64  `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
		Pressure  *int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Sys *struct {
		Country string `json:"country"`
	} `json:"sys"`
	Coord *Coordinates `json:"coord"`
}

// Client calls the OpenWeatherMap current-weather endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a Client with the given endpoint, key, and per-request
// timeout budget.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool { return c.apiKey != "" }

// Fetch requests the current weather for city (metric units, pt-BR locale)
// and returns a normalized observation. Every failure is an *APIError.
func (c *Client) Fetch(ctx context.Context, city string) (*Observation, error) {
	if c.apiKey == "" {
		return nil, &APIError{
			Category:    CategoryUnauthorized,
			Description: "Chave da API OpenWeatherMap não configurada",
		}
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "pt_br")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &APIError{Category: CategoryUnknown, Description: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if apiErr := classifyStatus(resp.StatusCode); apiErr != nil {
		return nil, apiErr
	}

	var body owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &APIError{Category: CategoryUnknown, Description: err.Error()}
	}
	if body.Name == "" || body.Main == nil || len(body.Weather) == 0 {
		return nil, &APIError{
			Category:    CategoryInvalidResponse,
			Description: "Resposta da API incompleta",
		}
	}

	return c.buildObservation(&body, time.Since(start)), nil
}

func (c *Client) buildObservation(body *owmResponse, latency time.Duration) *Observation {
	w := Weather{
		Temperature: roundC(body.Main.Temp),
		Condition:   body.Weather[0].Main,
		Description: body.Weather[0].Description,
		City:        body.Name,
	}
	if body.Sys != nil && body.Sys.Country != "" {
		w.City = body.Name + ", " + body.Sys.Country
	}
	if body.Main.FeelsLike != nil {
		w.FeelsLike = intPtr(roundC(*body.Main.FeelsLike))
	}
	w.Humidity = body.Main.Humidity
	w.Pressure = body.Main.Pressure
	if body.Wind != nil && body.Wind.Speed != nil {
		// provider reports m/s; clients expect km/h
		w.WindSpeed = intPtr(roundC(*body.Wind.Speed * 3.6))
	}

	info := APIInfo{ResponseTimeMS: latency.Milliseconds()}
	if body.Sys != nil {
		info.Country = body.Sys.Country
	}
	info.Coordinates = body.Coord

	return &Observation{Weather: w, APIInfo: info}
}

// classifyStatus maps a non-2xx provider status onto an error category.
func classifyStatus(status int) *APIError {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return &APIError{
			Category:    CategoryUnauthorized,
			HTTPStatus:  status,
			Description: "Chave da API inválida ou não autorizada",
		}
	case status == http.StatusNotFound:
		return &APIError{
			Category:    CategoryNotFound,
			HTTPStatus:  status,
			Description: "Cidade não encontrada",
		}
	case status == http.StatusTooManyRequests:
		return &APIError{
			Category:    CategoryRateLimit,
			HTTPStatus:  status,
			Description: "Limite de requisições da API excedido",
		}
	default:
		return &APIError{
			Category:    CategoryNetworkError,
			HTTPStatus:  status,
			Description: fmt.Sprintf("Erro da API: HTTP %d", status),
		}
	}
}

// classifyTransport maps a transport-level failure onto an error category.
// Timeouts (client budget or context deadline) are network errors; anything
// else is unknown.
func classifyTransport(err error) *APIError {
	type timeouter interface{ Timeout() bool }
	var te timeouter
	if errors.As(err, &te) && te.Timeout() {
		return &APIError{
			Category:    CategoryNetworkError,
			Description: "Timeout na requisição para a API",
		}
	}
	return &APIError{Category: CategoryUnknown, Description: err.Error()}
}

func roundC(f float64) int { return int(math.Round(f)) }

func intPtr(v int) *int { return &v }

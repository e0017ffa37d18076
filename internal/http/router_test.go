package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/contactly/go-contacts-backend/internal/config"
	"github.com/contactly/go-contacts-backend/internal/domain"
	"github.com/contactly/go-contacts-backend/internal/weather"
)

func init() { gin.SetMode(gin.TestMode) }

// newTestApp wires the full engine (all middleware, real services, in-memory
// SQLite) the way cmd/server does.
func newTestApp(t *testing.T) *gin.Engine {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Contact{}, &domain.Phone{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	weatherSvc := weather.NewService(
		weather.NewClient("http://unused.invalid", "", time.Second),
		weather.NewCache(time.Minute, 10, nil),
		weather.NewLimiter(time.Millisecond),
		zerolog.Nop(),
		nil,
	)

	r := gin.New()
	RegisterRoutes(r, db, weatherSvc, cfg)
	return r
}

func request(t *testing.T, r *gin.Engine, method, path, token, idemKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates an account through the API and returns its token.
func registerAndLogin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := request(t, r, http.MethodPost, "/api/v1/users", "", "",
		gin.H{"name": "Maria", "email": "maria@example.com", "password": "hunter22"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d (body %s)", w.Code, w.Body.String())
	}

	w = request(t, r, http.MethodPost, "/api/v1/sessions", "", "",
		gin.H{"email": "maria@example.com", "password": "hunter22"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d (body %s)", w.Code, w.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.Token == "" {
		t.Fatal("login returned no token")
	}
	return session.Token
}

func TestCreateContactRetryWithSameKeyReplays(t *testing.T) {
	r := newTestApp(t)
	token := registerAndLogin(t, r)

	payload := gin.H{
		"name":   "João Pereira",
		"email":  "joao@example.com",
		"city":   "São Paulo",
		"phones": []string{"11987654321"},
	}

	first := request(t, r, http.MethodPost, "/api/v1/contacts", token, "retry-key-1", payload)
	if first.Code != http.StatusCreated {
		t.Fatalf("first create status = %d (body %s)", first.Code, first.Body.String())
	}
	var created domain.Contact
	if err := json.Unmarshal(first.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode first create: %v", err)
	}

	// A retried request with the same key replays the stored contact.
	second := request(t, r, http.MethodPost, "/api/v1/contacts", token, "retry-key-1", payload)
	if second.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want 200 (body %s)", second.Code, second.Body.String())
	}
	if got := second.Header().Get("Idempotency-Replayed"); got != "true" {
		t.Fatalf("Idempotency-Replayed = %q, want true", got)
	}
	var replayed domain.Contact
	if err := json.Unmarshal(second.Body.Bytes(), &replayed); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if replayed.ID != created.ID {
		t.Fatalf("replayed contact %s, want original %s", replayed.ID, created.ID)
	}

	// A different key is a genuinely new request, so the duplicate email
	// conflict applies.
	third := request(t, r, http.MethodPost, "/api/v1/contacts", token, "retry-key-2", payload)
	if third.Code != http.StatusConflict {
		t.Fatalf("new-key status = %d, want 409 (body %s)", third.Code, third.Body.String())
	}
}

func TestCreateContactRejectsMalformedIdempotencyKey(t *testing.T) {
	r := newTestApp(t)
	token := registerAndLogin(t, r)

	w := request(t, r, http.MethodPost, "/api/v1/contacts", token, "bad key with spaces", gin.H{
		"name": "X", "email": "x@example.com", "city": "Recife", "phones": []string{"1198765432"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
	}
}

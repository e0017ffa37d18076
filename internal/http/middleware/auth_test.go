package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() { gin.SetMode(gin.TestMode) }

const testSecret = "auth-test-secret"

func mintToken(t *testing.T, secret, subject string, ttl time.Duration, method jwt.SigningMethod) string {
	t.Helper()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func authRouter(secret string) *gin.Engine {
	r := gin.New()
	r.GET("/whoami", Authenticate(secret), func(c *gin.Context) {
		uid, _ := UserIDFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": uid})
	})
	return r
}

func doAuth(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateAcceptsValidToken(t *testing.T) {
	r := authRouter(testSecret)
	tok := mintToken(t, testSecret, "u1", time.Hour, jwt.SigningMethodHS256)

	w := doAuth(r, "Bearer "+tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["user_id"] != "u1" {
		t.Fatalf("user_id = %q, want u1", body["user_id"])
	}
}

func TestAuthenticateSchemeIsCaseInsensitive(t *testing.T) {
	r := authRouter(testSecret)
	tok := mintToken(t, testSecret, "u1", time.Hour, jwt.SigningMethodHS256)

	w := doAuth(r, "bearer "+tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	r := authRouter(testSecret)

	cases := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"no header", "", "missing_token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "missing_token"},
		{"garbage token", "Bearer not.a.jwt", "invalid_token"},
		{"wrong secret", "Bearer " + mintToken(t, "other-secret", "u1", time.Hour, jwt.SigningMethodHS256), "invalid_token"},
		{"expired", "Bearer " + mintToken(t, testSecret, "u1", -time.Minute, jwt.SigningMethodHS256), "invalid_token"},
		{"empty subject", "Bearer " + mintToken(t, testSecret, "", time.Hour, jwt.SigningMethodHS256), "invalid_token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doAuth(r, tc.header)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["code"] != tc.wantCode {
				t.Fatalf("code = %q, want %q", body["code"], tc.wantCode)
			}
		})
	}
}

func TestAuthenticateRejectsUnexpectedSigningMethod(t *testing.T) {
	r := authRouter(testSecret)

	// HS512 signs fine with the same secret but must be refused by the
	// HS256-only parser.
	tok := mintToken(t, testSecret, "u1", time.Hour, jwt.SigningMethodHS512)
	w := doAuth(r, "Bearer "+tok)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestUserIDFromWithoutIdentity(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := UserIDFrom(c); ok {
		t.Fatal("UserIDFrom reported an identity on a bare context")
	}
	c.Set(userIDKey, "")
	if _, ok := UserIDFrom(c); ok {
		t.Fatal("empty user ID must not count as authenticated")
	}
}

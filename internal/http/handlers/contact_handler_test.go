package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contactly/go-contacts-backend/internal/domain"
	"github.com/contactly/go-contacts-backend/internal/repo"
	"github.com/contactly/go-contacts-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

// asUser injects an authenticated identity the way the auth middleware does.
func asUser(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

// stubContactSvc overrides only what each test needs.
type stubContactSvc struct {
	create   func(ctx context.Context, userID, name, address, email string, phones []string, city string) (*domain.Contact, error)
	get      func(ctx context.Context, userID, contactID string) (*domain.Contact, error)
	listPage func(ctx context.Context, userID string, f repo.ContactFilters, page, pageSize int) ([]domain.Contact, int64, error)
	update   func(ctx context.Context, userID, contactID string, p services.ContactPatch) (*domain.Contact, error)
	del      func(ctx context.Context, userID, contactID string) error
}

func (s stubContactSvc) Create(ctx context.Context, userID, name, address, email string, phones []string, city string) (*domain.Contact, error) {
	if s.create != nil {
		return s.create(ctx, userID, name, address, email, phones, city)
	}
	return &domain.Contact{ID: uuid.NewString(), UserID: userID, Name: name, Email: email, City: city}, nil
}

func (s stubContactSvc) Get(ctx context.Context, userID, contactID string) (*domain.Contact, error) {
	if s.get != nil {
		return s.get(ctx, userID, contactID)
	}
	return nil, services.ErrContactNotFound
}

func (s stubContactSvc) ListPage(ctx context.Context, userID string, f repo.ContactFilters, page, pageSize int) ([]domain.Contact, int64, error) {
	if s.listPage != nil {
		return s.listPage(ctx, userID, f, page, pageSize)
	}
	return []domain.Contact{}, 0, nil
}

func (s stubContactSvc) Update(ctx context.Context, userID, contactID string, p services.ContactPatch) (*domain.Contact, error) {
	if s.update != nil {
		return s.update(ctx, userID, contactID, p)
	}
	return &domain.Contact{ID: contactID, UserID: userID}, nil
}

func (s stubContactSvc) Delete(ctx context.Context, userID, contactID string) error {
	if s.del != nil {
		return s.del(ctx, userID, contactID)
	}
	return nil
}

func newContactRouter(svc ContactService) *gin.Engine {
	r := gin.New()
	h := NewContactHandlers(svc, time.Hour)
	g := r.Group("", asUser("u1"))
	g.POST("/contacts", h.CreateContact)
	g.GET("/contacts", h.ListContacts)
	g.GET("/contacts/:id", h.GetContact)
	g.PUT("/contacts/:id", h.UpdateContact)
	g.DELETE("/contacts/:id", h.DeleteContact)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateContactStatusMapping(t *testing.T) {
	valid := gin.H{
		"name":   "Maria",
		"email":  "maria@example.com",
		"city":   "São Paulo",
		"phones": []string{"11987654321"},
	}

	cases := []struct {
		name       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"created", nil, http.StatusCreated, ""},
		{"invalid email", services.ErrInvalidEmailFormat, http.StatusBadRequest, ErrCodeValidation},
		{"invalid city", services.ErrInvalidCityFormat, http.StatusBadRequest, ErrCodeValidation},
		{"missing phones", services.ErrPhoneRequired, http.StatusBadRequest, ErrCodeValidation},
		{"duplicate phone", services.ErrDuplicatePhone, http.StatusBadRequest, ErrCodeValidation},
		{"bad phone", services.ErrInvalidPhoneFormat, http.StatusBadRequest, ErrCodeValidation},
		{"duplicate email", services.ErrDuplicateEmail, http.StatusConflict, ErrCodeConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := stubContactSvc{}
			if tc.svcErr != nil {
				svc.create = func(context.Context, string, string, string, string, []string, string) (*domain.Contact, error) {
					return nil, tc.svcErr
				}
			}
			w := doJSON(t, newContactRouter(svc), http.MethodPost, "/contacts", valid)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.wantStatus, w.Body.String())
			}
			if tc.wantCode != "" {
				var resp ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if resp.Code != tc.wantCode {
					t.Fatalf("code = %q, want %q", resp.Code, tc.wantCode)
				}
			}
		})
	}
}

func TestCreateContactRejectsMalformedJSON(t *testing.T) {
	r := newContactRouter(stubContactSvc{})
	req := httptest.NewRequest(http.MethodPost, "/contacts", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetContactValidatesUUID(t *testing.T) {
	w := doJSON(t, newContactRouter(stubContactSvc{}), http.MethodGet, "/contacts/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetContactNotFound(t *testing.T) {
	w := doJSON(t, newContactRouter(stubContactSvc{}), http.MethodGet, "/contacts/"+uuid.NewString(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListContactsPassesFiltersAndClampsPagination(t *testing.T) {
	var gotFilters repo.ContactFilters
	var gotPage, gotSize int
	svc := stubContactSvc{
		listPage: func(_ context.Context, _ string, f repo.ContactFilters, page, pageSize int) ([]domain.Contact, int64, error) {
			gotFilters, gotPage, gotSize = f, page, pageSize
			return []domain.Contact{{ID: "c1"}}, 41, nil
		},
	}
	w := doJSON(t, newContactRouter(svc), http.MethodGet,
		"/contacts?city=paulo&phone=9876&page=-3&page_size=9999", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotFilters.City != "paulo" || gotFilters.Phone != "9876" {
		t.Fatalf("filters = %+v", gotFilters)
	}
	if gotPage != 1 || gotSize != 100 {
		t.Fatalf("pagination = (%d, %d), want clamped (1, 100)", gotPage, gotSize)
	}

	var resp ListContactsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Total != 41 || resp.Pagination.TotalPages != 1 || resp.Pagination.HasNext {
		t.Fatalf("pagination meta = %+v", resp.Pagination)
	}
}

func TestUpdateContactMapsPatch(t *testing.T) {
	var got services.ContactPatch
	svc := stubContactSvc{
		update: func(_ context.Context, _, contactID string, p services.ContactPatch) (*domain.Contact, error) {
			got = p
			return &domain.Contact{ID: contactID}, nil
		},
	}
	body := gin.H{"city": "Campinas", "phones": []string{"11999990000"}}
	w := doJSON(t, newContactRouter(svc), http.MethodPut, "/contacts/"+uuid.NewString(), body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if got.City == nil || *got.City != "Campinas" {
		t.Fatalf("patch city = %v", got.City)
	}
	if got.Name != nil || got.Email != nil || got.Address != nil {
		t.Fatalf("omitted fields must stay nil: %+v", got)
	}
	if len(got.Phones) != 1 {
		t.Fatalf("patch phones = %v", got.Phones)
	}
}

func TestDeleteContactStatuses(t *testing.T) {
	id := uuid.NewString()

	w := doJSON(t, newContactRouter(stubContactSvc{}), http.MethodDelete, "/contacts/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", w.Code)
	}

	gone := stubContactSvc{
		del: func(context.Context, string, string) error { return services.ErrContactNotFound },
	}
	w = doJSON(t, newContactRouter(gone), http.MethodDelete, "/contacts/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status = %d, want 404", w.Code)
	}
}

func TestContactEndpointsRequireIdentity(t *testing.T) {
	r := gin.New()
	h := NewContactHandlers(stubContactSvc{}, time.Hour)
	r.GET("/contacts", h.ListContacts) // no identity middleware

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/contacts", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

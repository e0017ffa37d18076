// Contact HTTP handlers.
//
// This file exposes REST endpoints for contact resources:
//   - POST   /contacts       (create, Idempotency-Key aware)
//   - GET    /contacts       (list, filtered + paginated, ETag support)
//   - GET    /contacts/{id}  (fetch)
//   - PUT    /contacts/{id}  (partial update)
//   - DELETE /contacts/{id}  (soft delete)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contactly/go-contacts-backend/internal/domain"
	"github.com/contactly/go-contacts-backend/internal/http/middleware"
	"github.com/contactly/go-contacts-backend/internal/repo"
	"github.com/contactly/go-contacts-backend/internal/services"
	"github.com/contactly/go-contacts-backend/internal/utils"
)

// ContactService defines the contact lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ContactService interface {
	// Create validates and persists a new contact for userID.
	Create(ctx context.Context, userID, name, address, email string, phones []string, city string) (*domain.Contact, error)
	// Get fetches a contact owned by userID.
	Get(ctx context.Context, userID, contactID string) (*domain.Contact, error)
	// ListPage returns a page of matching contacts and the total count.
	ListPage(ctx context.Context, userID string, f repo.ContactFilters, page, pageSize int) ([]domain.Contact, int64, error)
	// Update applies a partial update to a contact owned by userID.
	Update(ctx context.Context, userID, contactID string, p services.ContactPatch) (*domain.Contact, error)
	// Delete soft-deletes a contact owned by userID.
	Delete(ctx context.Context, userID, contactID string) error
}

// ContactHandlers groups the contact CRUD endpoints.
type ContactHandlers struct {
	contactSvc ContactService

	// idemTTL bounds how long a stored idempotency record can be replayed.
	idemTTL time.Duration
}

// NewContactHandlers constructs ContactHandlers bound to the given service.
func NewContactHandlers(contactSvc ContactService, idemTTL time.Duration) *ContactHandlers {
	return &ContactHandlers{contactSvc: contactSvc, idemTTL: idemTTL}
}

// mustUserID returns the authenticated user ID or aborts with 401. Routes
// using it sit behind Authenticate(), so the failure path covers only
// misconfigured routing.
func mustUserID(c *gin.Context) (string, bool) {
	uid, okAuth := middleware.UserIDFrom(c)
	if !okAuth {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authorization required")
		return "", false
	}
	return uid, true
}

//
// DTOs
//

// CreateContactRequest is the JSON payload for creating a contact.
type CreateContactRequest struct {
	Name    string   `json:"name" binding:"required,min=1,max=255" example:"João Pereira"`
	Address string   `json:"address" example:"Av. Paulista 1000"`
	Email   string   `json:"email" binding:"required" example:"joao@example.com"`
	City    string   `json:"city" binding:"required" example:"São Paulo"`
	Phones  []string `json:"phones" example:"(11) 91234-5678"`
}

// UpdateContactRequest is the JSON payload for a partial contact update.
// Omitted fields are left untouched; a present phones array replaces the
// whole phone set.
type UpdateContactRequest struct {
	Name    *string  `json:"name" example:"João P. Pereira"`
	Address *string  `json:"address" example:"Av. Paulista 1200"`
	Email   *string  `json:"email" example:"joao.pereira@example.com"`
	City    *string  `json:"city" example:"Campinas"`
	Phones  []string `json:"phones"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListContactsResponse wraps a page of contacts and pagination information.
type ListContactsResponse struct {
	Contacts   []domain.Contact `json:"contacts"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// filtersFrom builds the contact filters from query parameters.
func filtersFrom(c *gin.Context) repo.ContactFilters {
	return repo.ContactFilters{
		Name:    strings.TrimSpace(c.Query("name")),
		Address: strings.TrimSpace(c.Query("address")),
		Email:   strings.TrimSpace(c.Query("email")),
		City:    strings.TrimSpace(c.Query("city")),
		Phone:   strings.TrimSpace(c.Query("phone")),
	}
}

// failContact translates service errors into HTTP results. Validation
// failures map to 400, duplicate email to 409, missing contacts to 404.
func failContact(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrInvalidEmailFormat),
		errors.Is(err, services.ErrInvalidCityFormat),
		errors.Is(err, services.ErrPhoneRequired),
		errors.Is(err, services.ErrDuplicatePhone),
		errors.Is(err, services.ErrInvalidPhoneFormat):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrDuplicateEmail):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrContactNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

// db exposes the service's GORM handle for ETag and idempotency lookups.
// Best effort: nil when the service is a test fake.
func (h *ContactHandlers) db() *gorm.DB {
	if svc, okSvc := h.contactSvc.(*services.ContactService); okSvc {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// CreateContact godoc
// @ID          createContact
// @Summary     Create a new contact
// @Description Creates a contact for the current user. Requires a valid email, a well-formed city, and at least one phone (10–11 digits, no duplicates). Supports Idempotency-Key replay.
// @Tags        Contacts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false  "Deduplication key for retries"
// @Param       body  body  handlers.CreateContactRequest  true  "Create contact payload"
//
// @Success     200  {object}  domain.Contact  "Replayed from a previous identical request"
// @Success     201  {object}  domain.Contact
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already in use"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts [post]
func (h *ContactHandlers) CreateContact(c *gin.Context) {
	uid, okAuth := mustUserID(c)
	if !okAuth {
		return
	}

	// Serve a replay before parsing the body: the stored result wins. The
	// lookup happens here, after authentication, because the record is keyed
	// by (user, key).
	if key, has := middleware.GetIdempotencyKey(c); has {
		if replayed := h.serveReplay(c, uid, key); replayed {
			return
		}
	}

	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	contact, err := h.contactSvc.Create(c.Request.Context(), uid,
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Address),
		strings.TrimSpace(req.Email), req.Phones, req.City)
	if err != nil {
		failContact(c, err, ErrCodeCreateFailed)
		return
	}

	if key, has := middleware.GetIdempotencyKey(c); has {
		if db := h.db(); db != nil {
			// Record failure must not fail the create; the next retry
			// simply will not replay.
			if _, err := repo.CreateIdempotency(c.Request.Context(), db, uid, key, contact.ID, http.StatusCreated, h.idemTTL); err != nil {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
			}
		}
	}

	ok(c, http.StatusCreated, contact)
}

// serveReplay answers a repeated create with the originally stored contact.
// Returns false when the record or contact is gone, letting the request fall
// through to a fresh create.
func (h *ContactHandlers) serveReplay(c *gin.Context, uid, key string) bool {
	db := h.db()
	if db == nil {
		return false
	}
	rec, err := repo.GetIdempotency(c.Request.Context(), db, uid, key, time.Now().UTC())
	if err != nil || rec.ContactID == "" {
		return false
	}
	contact, err := h.contactSvc.Get(c.Request.Context(), uid, rec.ContactID)
	if err != nil {
		return false
	}
	c.Header("Idempotency-Replayed", "true")
	ok(c, http.StatusOK, contact)
	return true
}

// ListContacts godoc
// @ID          listContacts
// @Summary     List contacts (filtered, paginated)
// @Description Returns a page of the user's contacts. Filters match case-insensitive substrings; phone matches on digits. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Contacts
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       name       query  string  false "Filter by name substring"
// @Param       address    query  string  false "Filter by address substring"
// @Param       email      query  string  false "Filter by email substring"
// @Param       city       query  string  false "Filter by city substring"
// @Param       phone      query  string  false "Filter by phone digits"
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListContactsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /contacts [get]
func (h *ContactHandlers) ListContacts(c *gin.Context) {
	uid, okAuth := mustUserID(c)
	if !okAuth {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)
	filters := filtersFrom(c)

	// ETag pre-check, unfiltered listings only (filters would need their own
	// cache key and rarely repeat).
	if db := h.db(); db != nil && filters.Empty() {
		count, maxTS, err := repo.ContactsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"contacts:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.contactSvc.ListPage(ctx, uid, filters, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListContactsResponse{
		Contacts: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetContact godoc
// @ID          getContact
// @Summary     Fetch a contact
// @Tags        Contacts
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Contact ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Contact
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Contact not found"
// @Router      /contacts/{id} [get]
func (h *ContactHandlers) GetContact(c *gin.Context) {
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
	ok(c, http.StatusOK, contact)
}

// UpdateContact godoc
// @ID          updateContact
// @Summary     Update a contact
// @Description Applies a partial update. Supplied fields are validated with the same rules as creation; a supplied phones array replaces the whole set.
// @Tags        Contacts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Contact ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateContactRequest  true  "Fields to update"
//
// @Success     200  {object} domain.Contact
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Contact not found"
// @Failure     409  {object} handlers.ErrorResponse "Email already in use"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /contacts/{id} [put]
func (h *ContactHandlers) UpdateContact(c *gin.Context) {
	uid, okAuth := mustUserID(c)
	if !okAuth {
		return
	}
	contactID := c.Param("id")
	if _, err := uuid.Parse(contactID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "contact id must be a UUID")
		return
	}

	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	contact, err := h.contactSvc.Update(c.Request.Context(), uid, contactID, services.ContactPatch{
		Name:    req.Name,
		Address: req.Address,
		Email:   req.Email,
		City:    req.City,
		Phones:  req.Phones,
	})
	if err != nil {
		failContact(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, contact)
}

// DeleteContact godoc
// @ID          deleteContact
// @Summary     Delete a contact
// @Description Soft-deletes a contact. The row is retained but excluded from all reads; deleting again yields 404.
// @Tags        Contacts
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Contact ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Contact not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /contacts/{id} [delete]
func (h *ContactHandlers) DeleteContact(c *gin.Context) {
	uid, okAuth := mustUserID(c)
	if !okAuth {
		return
	}
	contactID := c.Param("id")
	if _, err := uuid.Parse(contactID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "contact id must be a UUID")
		return
	}

	if err := h.contactSvc.Delete(c.Request.Context(), uid, contactID); err != nil {
		failContact(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}

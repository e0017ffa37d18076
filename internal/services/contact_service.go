// Package services – ContactService
//
// This file implements the ContactService, the invariant engine for contact
// aggregates. It enforces field syntax (email, city, phone format), phone
// de-duplication, cross-record email uniqueness, and ownership rules, and
// coordinates repository operations for creating, fetching, listing (with
// pagination and filters), updating, and soft-deleting contacts.
//
// Validation order is load-bearing: the first failing rule determines the
// error the caller sees, so the checks below run in a fixed sequence (email
// format, email uniqueness, city, phones present, phone duplicates, phone
// format). Service-level errors (e.g., ErrContactNotFound) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
//
// Observability: public mutation methods are OpenTelemetry-instrumented;
// spans include user/contact identifiers.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/contactly/go-contacts-backend/internal/domain"
	"github.com/contactly/go-contacts-backend/internal/repo"
)

// ContactRepo defines the repository contract required by ContactService.
// Implementations are responsible for persistence of contact aggregates;
// all standard reads must exclude soft-deleted rows.
type ContactRepo interface {
	// CreateContact inserts a contact with its phone rows atomically.
	CreateContact(ctx context.Context, db *gorm.DB, userID, name, address, email, city string, numbers []string) (*domain.Contact, error)

	// FindContactByID fetches a live contact with phones, or repo.ErrNotFound.
	FindContactByID(ctx context.Context, db *gorm.DB, id string) (*domain.Contact, error)

	// FindContactByEmail returns the live contact holding email, or repo.ErrNotFound.
	FindContactByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Contact, error)

	// CountContacts returns the number of live matching contacts for pagination.
	CountContacts(ctx context.Context, db *gorm.DB, userID string, f repo.ContactFilters) (int64, error)

	// ListContactsPage returns a page of live matching contacts.
	ListContactsPage(ctx context.Context, db *gorm.DB, userID string, f repo.ContactFilters, offset, limit int) ([]domain.Contact, error)

	// UpdateContact applies a partial update, replacing phones when supplied.
	UpdateContact(ctx context.Context, db *gorm.DB, id string, upd repo.ContactUpdate) (*domain.Contact, error)

	// SoftDeleteContact marks a contact deleted, or repo.ErrNotFound.
	SoftDeleteContact(ctx context.Context, db *gorm.DB, id string) error
}

// ContactPatch carries a partial contact update. Nil fields are left
// untouched. A non-nil Phones slice replaces the whole phone set; supplying
// an empty slice is an error (a contact always keeps at least one phone).
type ContactPatch struct {
	Name    *string
	Address *string
	Email   *string
	City    *string
	Phones  []string
}

// ContactService enforces the contact invariants and ownership rules on top
// of a ContactRepo.
type ContactService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the contact repository used by this service.
	Repo ContactRepo
}

// NewContactService constructs a ContactService.
func NewContactService(db *gorm.DB, r ContactRepo) *ContactService {
	return &ContactService{DB: db, Repo: r}
}

// Create validates and persists a new contact for userID.
//
// Checks run in order and the first violation wins: email syntax, email
// uniqueness among live contacts, city syntax, phones present, phone
// duplicates (compared on normalized digits), per-phone format. On success
// the contact is stored with normalized phone numbers, atomically with its
// phones.
func (s *ContactService) Create(ctx context.Context, userID, name, address, email string, phones []string, city string) (*domain.Contact, error) {
	tr := otel.Tracer("services/ContactService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if !IsValidEmail(email) {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := s.Repo.FindContactByEmail(ctx, s.DB, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if !IsValidCity(city) {
		return nil, ErrInvalidCityFormat
	}
	normalized, err := checkPhones(phones)
	if err != nil {
		return nil, err
	}

	return s.Repo.CreateContact(ctx, s.DB, userID, name, address, email, city, normalized)
}

// Get fetches a contact by ID on behalf of userID. A contact owned by a
// different user yields ErrContactNotFound, indistinguishable from a missing
// one, so contact existence never leaks across accounts.
func (s *ContactService) Get(ctx context.Context, userID, contactID string) (*domain.Contact, error) {
	c, err := s.Repo.FindContactByID(ctx, s.DB, contactID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrContactNotFound
	}
	return c, nil
}

// ListPage returns a page of the user's contacts matching the filters, plus
// the total count. It applies defaults for invalid page/pageSize. An empty
// result is a valid page, not an error.
func (s *ContactService) ListPage(ctx context.Context, userID string, f repo.ContactFilters, page, pageSize int) ([]domain.Contact, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountContacts(ctx, s.DB, userID, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Contact{}, 0, nil
	}

	items, err := s.Repo.ListContactsPage(ctx, s.DB, userID, f, offset, pageSize)
	return items, total, err
}

// Update applies a partial update to a contact owned by userID.
//
// Only supplied fields are validated and applied; omitted fields are left
// untouched. A supplied email is checked for uniqueness only when it differs
// from the current one. Supplied phones replace the existing set wholesale
// (delete-all-then-create) after passing the same checks as creation.
// UpdatedAt is refreshed regardless of which fields changed.
func (s *ContactService) Update(ctx context.Context, userID, contactID string, p ContactPatch) (*domain.Contact, error) {
	tr := otel.Tracer("services/ContactService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("contact.id", contactID),
		),
	)
	defer span.End()

	existing, err := s.Get(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	if p.Email != nil {
		if !IsValidEmail(*p.Email) {
			return nil, ErrInvalidEmailFormat
		}
		if *p.Email != existing.Email {
			other, err := s.Repo.FindContactByEmail(ctx, s.DB, *p.Email)
			if err == nil && other.ID != contactID {
				return nil, ErrDuplicateEmail
			}
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return nil, err
			}
		}
	}
	if p.City != nil && !IsValidCity(*p.City) {
		return nil, ErrInvalidCityFormat
	}

	upd := repo.ContactUpdate{
		Name:    p.Name,
		Address: p.Address,
		Email:   p.Email,
		City:    p.City,
	}
	if p.Phones != nil {
		normalized, err := checkPhones(p.Phones)
		if err != nil {
			return nil, err
		}
		upd.Phones = normalized
	}

	updated, err := s.Repo.UpdateContact(ctx, s.DB, contactID, upd)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a contact owned by userID. Deleting an already-deleted
// or foreign contact yields ErrContactNotFound.
func (s *ContactService) Delete(ctx context.Context, userID, contactID string) error {
	tr := otel.Tracer("services/ContactService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("contact.id", contactID),
		),
	)
	defer span.End()

	if _, err := s.Get(ctx, userID, contactID); err != nil {
		return err
	}
	if err := s.Repo.SoftDeleteContact(ctx, s.DB, contactID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrContactNotFound
		}
		return err
	}
	return nil
}

// checkPhones runs the phone rules in order (present, no duplicates, each
// well-formed) and returns the normalized numbers ready for storage.
// Duplicates are detected on the normalized digit string, so two formattings
// of the same number count as one.
func checkPhones(phones []string) ([]string, error) {
	if len(phones) == 0 {
		return nil, ErrPhoneRequired
	}
	seen := make(map[string]struct{}, len(phones))
	normalized := make([]string, 0, len(phones))
	for _, p := range phones {
		n := NormalizePhone(p)
		if _, dup := seen[n]; dup {
			return nil, ErrDuplicatePhone
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}
	for _, p := range phones {
		if !IsValidPhoneFormat(p) {
			return nil, ErrInvalidPhoneFormat
		}
	}
	return normalized, nil
}

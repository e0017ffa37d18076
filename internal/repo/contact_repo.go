// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Contact
// model and its owned Phone rows.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Invariant validation (email format,
// phone rules, ownership) lives in services.ContactService.
//
// Error semantics:
//   - When a contact is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Soft deletion: Contact carries gorm.DeletedAt, so every standard read in
// this file implicitly excludes soft-deleted rows. Callers never need to
// re-apply the filter.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contactly/go-contacts-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ContactFilters narrows contact listings. All fields are optional;
// non-empty values match as case-insensitive substrings. Phone matches
// against the normalized stored numbers.
type ContactFilters struct {
	Name    string
	Address string
	Email   string
	City    string
	Phone   string
}

// Empty reports whether no filter field is set.
func (f ContactFilters) Empty() bool {
	return f.Name == "" && f.Address == "" && f.Email == "" && f.City == "" && f.Phone == ""
}

// ContactUpdate carries a partial update. Nil pointer fields are left
// untouched; a non-nil Phones slice replaces the entire phone set
// (numbers must already be normalized by the caller).
type ContactUpdate struct {
	Name    *string
	Address *string
	Email   *string
	City    *string
	Phones  []string
}

// CreateContact inserts a new Contact row owned by userID together with its
// phone rows in a single transaction, so a contact is never observable
// without phones. Numbers must already be normalized. The contact and phone
// IDs are randomly generated UUIDs and CreatedAt is set to UTC.
func CreateContact(ctx context.Context, db *gorm.DB, userID, name, address, email, city string, numbers []string) (*domain.Contact, error) {
	now := time.Now().UTC()
	c := &domain.Contact{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Address:   address,
		City:      city,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, n := range numbers {
		c.Phones = append(c.Phones, domain.Phone{
			ID:        uuid.NewString(),
			ContactID: c.ID,
			Number:    n,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	// Create persists the contact and its associations atomically.
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(c).Error
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// FindContactByID fetches a single live contact by its ID, phones included.
// If the record does not exist (or is soft-deleted), it returns ErrNotFound.
func FindContactByID(ctx context.Context, db *gorm.DB, id string) (*domain.Contact, error) {
	var c domain.Contact
	err := db.WithContext(ctx).
		Preload("Phones", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at, id") }).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindContactByEmail returns the live contact holding email, or ErrNotFound.
// Soft-deleted contacts are excluded, so a deleted contact's email can be
// reused. The lookup is exact (case-sensitive), matching creation input.
func FindContactByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Contact, error) {
	var c domain.Contact
	err := db.WithContext(ctx).
		Where("email = ?", email).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountContacts returns the number of live contacts owned by userID that
// match the filters.
func CountContacts(ctx context.Context, db *gorm.DB, userID string, f ContactFilters) (int64, error) {
	var total int64
	err := applyFilters(db.WithContext(ctx).Model(&domain.Contact{}).Where("user_id = ?", userID), f).
		Count(&total).Error
	return total, err
}

// ListContactsPage returns a page of live contacts for userID matching the
// filters, phones included, ordered by creation time descending. Use
// CountContacts to obtain the total for pagination metadata.
func ListContactsPage(ctx context.Context, db *gorm.DB, userID string, f ContactFilters, offset, limit int) ([]domain.Contact, error) {
	var out []domain.Contact
	err := applyFilters(db.WithContext(ctx).Where("user_id = ?", userID), f).
		Preload("Phones", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at, id") }).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateContact applies a partial update to a live contact and returns the
// reloaded row. When upd.Phones is non-nil, the existing phone rows are
// deleted and the new set inserted in the same transaction (full replacement,
// not a merge). UpdatedAt is refreshed even when no other column changes.
// Returns ErrNotFound if the contact does not exist.
func UpdateContact(ctx context.Context, db *gorm.DB, id string, upd ContactUpdate) (*domain.Contact, error) {
	now := time.Now().UTC()

	cols := map[string]any{"updated_at": now}
	if upd.Name != nil {
		cols["name"] = *upd.Name
	}
	if upd.Address != nil {
		cols["address"] = *upd.Address
	}
	if upd.Email != nil {
		cols["email"] = *upd.Email
	}
	if upd.City != nil {
		cols["city"] = *upd.City
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Contact{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if upd.Phones == nil {
			return nil
		}
		if err := tx.Where("contact_id = ?", id).Delete(&domain.Phone{}).Error; err != nil {
			return err
		}
		phones := make([]domain.Phone, 0, len(upd.Phones))
		for _, n := range upd.Phones {
			phones = append(phones, domain.Phone{
				ID:        uuid.NewString(),
				ContactID: id,
				Number:    n,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		return tx.Create(&phones).Error
	})
	if err != nil {
		return nil, err
	}
	return FindContactByID(ctx, db, id)
}

// SoftDeleteContact marks a contact as deleted. Subsequent reads will not see
// the row. Returns ErrNotFound if the contact does not exist or was already
// deleted.
func SoftDeleteContact(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// applyFilters composes the case-insensitive substring conditions of f onto q.
// The phone filter matches via an EXISTS subquery against normalized numbers.
func applyFilters(q *gorm.DB, f ContactFilters) *gorm.DB {
	like := func(col, v string) {
		q = q.Where("LOWER("+col+") LIKE ?", "%"+strings.ToLower(v)+"%")
	}
	if f.Name != "" {
		like("name", f.Name)
	}
	if f.Address != "" {
		like("address", f.Address)
	}
	if f.Email != "" {
		like("email", f.Email)
	}
	if f.City != "" {
		like("city", f.City)
	}
	if f.Phone != "" {
		q = q.Where("EXISTS (SELECT 1 FROM phones WHERE phones.contact_id = contacts.id AND phones.number LIKE ?)",
			"%"+f.Phone+"%")
	}
	return q
}

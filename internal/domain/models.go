// Package domain defines the persistence models for users, contacts, and
// phones. These types are mapped with GORM and form the core data layer
// of the contact manager.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account that owns contacts. Passwords are stored as
// bcrypt hashes and never serialized in API responses.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name / Email: profile data; Email is unique across users.
//   - PasswordHash: bcrypt digest of the login password.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID           string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name"  gorm:"type:varchar(255);not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `json:"-"     gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Contact represents an address-book entry owned by a user. A contact carries
// a validated email and city and owns one or more phone numbers.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owning user; indexed for efficient retrieval.
//     Contacts are visible and mutable only through the owning user's identity.
//   - Name / Address / City / Email: contact data. Email is unique among
//     live (non-deleted) contacts; the service layer enforces this.
//   - Phones: owned phone numbers, replaced wholesale on phone updates.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM; UpdatedAt is
//     refreshed on every mutation.
//   - DeletedAt: soft deletion marker. GORM excludes soft-deleted rows from
//     all standard reads, which centralizes the "reads never see deleted
//     contacts" invariant at the model level.
type Contact struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:char(36);not null;index:idx_user_contacts"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null"`
	Address   string         `json:"address"    gorm:"type:varchar(255);not null"`
	City      string         `json:"city"       gorm:"type:varchar(255);not null"`
	Email     string         `json:"email"      gorm:"type:varchar(255);not null;index"`
	Phones    []Phone        `json:"phones"     gorm:"foreignKey:ContactID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Contact.
func (Contact) TableName() string { return "contacts" }

// Phone represents a single phone number owned by a contact. Numbers are
// stored in normalized form (digits only, 10–11 digits) and are unique within
// their contact. Phones live and die with their owning contact: an update that
// supplies phones replaces the entire set.
type Phone struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	ContactID string    `json:"contact_id" gorm:"type:char(36);not null;index:idx_contact_phones"`
	Number    string    `json:"number"     gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Phone.
func (Phone) TableName() string { return "phones" }

// Package services defines the business logic for users and contacts.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Contact validation and business-rule errors. Validation short-circuits on
// the first violation, so callers always see the most specific error for the
// earliest failing rule.
var (
	// ErrInvalidEmailFormat is returned when a contact email fails the
	// syntactic check.
	ErrInvalidEmailFormat = errors.New("contact with invalid email")

	// ErrDuplicateEmail is returned when another live contact already holds
	// the requested email.
	ErrDuplicateEmail = errors.New("contact with same email already exists")

	// ErrInvalidCityFormat is returned when a city contains characters other
	// than letters, spaces, and hyphens.
	ErrInvalidCityFormat = errors.New("city must contain only letters, spaces and accents")

	// ErrPhoneRequired is returned when a contact is created or updated with
	// an empty phone list.
	ErrPhoneRequired = errors.New("contact must have at least one phone number")

	// ErrDuplicatePhone is returned when the supplied phone list contains the
	// same number more than once.
	ErrDuplicatePhone = errors.New("duplicate phone numbers are not allowed")

	// ErrInvalidPhoneFormat is returned when a phone does not reduce to 10 or
	// 11 digits.
	ErrInvalidPhoneFormat = errors.New("invalid phone format")

	// ErrContactNotFound indicates that the requested contact does not exist
	// or is not accessible to the current user. Ownership mismatches are
	// deliberately indistinguishable from non-existence.
	ErrContactNotFound = errors.New("contact not found")
)

// User and authentication errors.
var (
	// ErrUserAlreadyExists is returned when registering with an email that is
	// already taken.
	ErrUserAlreadyExists = errors.New("user with same email already exists")

	// ErrWeakPassword is returned when a registration password is shorter
	// than the minimum length.
	ErrWeakPassword = errors.New("password must have at least 6 characters")

	// ErrInvalidCredentials is returned on a failed login. Unknown email and
	// wrong password are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("email or password incorrect")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

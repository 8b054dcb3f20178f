package auth

import (
	"fmt"
	"strings"

	"github.com/smartrental/rental-web/internal/session"
)

// Credentials are submitted by a login form. They are never persisted.
type Credentials struct {
	Identifier string
	Password   string
}

// Variant selects which login endpoint checks the credentials.
type Variant string

// Login variants.
const (
	VariantAdmin Variant = "admin"
	VariantUser  Variant = "user"
)

// ValidationError reports required input that was missing before any
// network call was made.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Missing required fields: %s.", strings.Join(e.Fields, ", "))
}

// AuthenticationError is returned when the API rejected the credentials.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string { return e.Message }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// AuthorizationError is returned when an authenticated account requests a
// page reserved for other roles.
type AuthorizationError struct {
	Role     session.Role
	Required []session.Role
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %q may not access this page", e.Role)
}

// TransportError covers unreachable servers, server failures and responses
// that could not be understood.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string { return e.Message }
func (e *TransportError) Unwrap() error { return e.Err }

// Package session persists the identity of the signed-in account in the
// browser's key-value storage and restores it on every request.
package session

import "strings"

// Role determines which dashboard and API endpoints an account may reach.
type Role string

// Known roles. Any other string returned by the API is kept verbatim.
const (
	RoleNone   Role = ""
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
	RoleTenant Role = "tenant"
)

// Roles lists the roles the application has dashboards for.
var Roles = []Role{RoleAdmin, RoleOwner, RoleTenant}

// NormalizeRole lower-cases and trims a role string.
func NormalizeRole(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

// Is compares roles case-insensitively.
func (r Role) Is(other Role) bool {
	return strings.EqualFold(strings.TrimSpace(string(r)), strings.TrimSpace(string(other)))
}

// Known reports whether r is one of Roles.
func (r Role) Known() bool {
	for _, known := range Roles {
		if r.Is(known) {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Session is the record of who is signed in and with which tokens. It is
// either zero (signed out) or has role, user id, username and access token.
type Session struct {
	Role         Role
	UserID       string
	Username     string
	AccessToken  string
	RefreshToken string
}

// IsZero reports whether the session is the signed-out session.
func (s Session) IsZero() bool {
	return s == Session{}
}

// Valid reports whether all mandatory fields are present.
func (s Session) Valid() bool {
	return strings.TrimSpace(string(s.Role)) != "" &&
		s.UserID != "" &&
		s.Username != "" &&
		s.AccessToken != ""
}

// IsAuthenticated is true iff both role and access token are non-empty.
func (s Session) IsAuthenticated() bool {
	return strings.TrimSpace(string(s.Role)) != "" && s.AccessToken != ""
}

// HasRole reports whether the session role is one of roles.
func (s Session) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if s.Role.Is(r) {
			return true
		}
	}
	return false
}

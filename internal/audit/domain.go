// Package audit keeps a trail of sign-in and sign-out events.
package audit

import (
	"context"
	"time"
)

// Event kinds.
const (
	KindLogin       = "login"
	KindLoginFailed = "login_failed"
	KindLogout      = "logout"
)

// Event is one row of the trail.
type Event struct {
	Kind       string
	Variant    string
	UserID     string
	Username   string
	Role       string
	Identifier string
	BrowserID  string
	RemoteAddr string
	UserAgent  string
	Message    string
	At         time.Time
}

// Recorder stores events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// Nop discards events; used when no database is configured.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) error { return nil }

// Recent implements Recorder.
func (Nop) Recent(context.Context, int) ([]Event, error) { return nil, nil }

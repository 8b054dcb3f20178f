package session

import (
	"errors"
	"time"
)

// Keys under which the session is persisted in browser storage.
const (
	KeyAccess   = "access"
	KeyRefresh  = "refresh"
	KeyRole     = "role"
	KeyUserID   = "user_id"
	KeyUsername = "username"
)

var persistedKeys = []string{KeyAccess, KeyRefresh, KeyRole, KeyUserID, KeyUsername}

// ErrInvalidSession is returned when saving a partially filled session.
var ErrInvalidSession = errors.New("session: role, user id, username and access token are required")

// KV is the browser key-value storage the Store persists into.
type KV interface {
	Lookup(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// expirer is implemented by storages whose lifetime can follow the token.
type expirer interface {
	ExpireAt(t time.Time)
}

// identified is implemented by storages with a stable per-browser id.
type identified interface {
	StorageID() string
}

// Store loads and saves the Session of one browser and caches it for
// synchronous reads.
type Store struct {
	kv     KV
	cached Session
	loaded bool
}

// NewStore binds a Store to browser storage.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// ID returns the identifier of the underlying browser storage, or "".
func (s *Store) ID() string {
	if s == nil {
		return ""
	}
	if id, ok := s.kv.(identified); ok {
		return id.StorageID()
	}
	return ""
}

// Load re-reads the persisted session. Absent or malformed records load as
// the zero Session.
func (s *Store) Load() Session {
	s.cached = s.read()
	s.loaded = true
	return s.cached
}

// Current returns the cached session without touching storage after the
// first read.
func (s *Store) Current() Session {
	if s == nil {
		return Session{}
	}
	if !s.loaded {
		return s.Load()
	}
	return s.cached
}

// Save persists sess wholesale, replacing any previous session.
func (s *Store) Save(sess Session) error {
	if sess.IsZero() {
		s.Clear()
		return nil
	}
	if !sess.Valid() {
		return ErrInvalidSession
	}
	s.kv.Set(KeyAccess, sess.AccessToken)
	if sess.RefreshToken != "" {
		s.kv.Set(KeyRefresh, sess.RefreshToken)
	} else {
		s.kv.Delete(KeyRefresh)
	}
	s.kv.Set(KeyRole, string(sess.Role))
	s.kv.Set(KeyUserID, sess.UserID)
	s.kv.Set(KeyUsername, sess.Username)
	if exp, ok := s.kv.(expirer); ok {
		at, _ := AccessTokenExpiry(sess.AccessToken)
		exp.ExpireAt(at)
	}
	s.cached = sess
	s.loaded = true
	return nil
}

// Clear removes every persisted field and resets the cache.
func (s *Store) Clear() {
	for _, key := range persistedKeys {
		s.kv.Delete(key)
	}
	if exp, ok := s.kv.(expirer); ok {
		exp.ExpireAt(time.Time{})
	}
	s.cached = Session{}
	s.loaded = true
}

func (s *Store) read() Session {
	if s == nil || s.kv == nil {
		return Session{}
	}
	get := func(key string) (string, bool) {
		v, ok := s.kv.Lookup(key)
		return v, ok && v != ""
	}
	access, ok1 := get(KeyAccess)
	role, ok2 := get(KeyRole)
	userID, ok3 := get(KeyUserID)
	username, ok4 := get(KeyUsername)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Session{}
	}
	refresh, _ := get(KeyRefresh)
	sess := Session{
		Role:         Role(role),
		UserID:       userID,
		Username:     username,
		AccessToken:  access,
		RefreshToken: refresh,
	}
	if !sess.Valid() {
		return Session{}
	}
	return sess
}

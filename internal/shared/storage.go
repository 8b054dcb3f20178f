package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FlashMessage represents a one-time notification stored with the browser state.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StorageManager keeps one key-value record per browser in Redis, addressed
// by an opaque cookie.
type StorageManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

// Storage is the key-value record of a single browser.
type Storage struct {
	ID        string
	values    map[string]string
	flashes   []FlashMessage
	expiresAt time.Time
	isNew     bool
	dirty     bool
}

type storagePayload struct {
	Values    map[string]string `json:"values"`
	Flashes   []FlashMessage    `json:"flashes,omitempty"`
	ExpiresAt time.Time         `json:"expires_at,omitempty"`
}

// NewStorageManager constructs a StorageManager.
func NewStorageManager(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *StorageManager {
	return &StorageManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		now:        time.Now,
	}
}

// Load returns the storage bound to the request cookie. Missing, expired and
// unreadable records all yield a fresh, empty storage.
func (sm *StorageManager) Load(ctx context.Context, r *http.Request) (*Storage, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newStorage(), nil
		}
		return nil, err
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return sm.newStorage(), nil
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sm.newStorage(), nil
		}
		return nil, fmt.Errorf("%w: load: %v", ErrStorageUnavailable, err)
	}

	var stored storagePayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return sm.newStorage(), nil
	}

	st := &Storage{
		ID:        cookie.Value,
		values:    stored.Values,
		flashes:   stored.Flashes,
		expiresAt: stored.ExpiresAt,
	}
	if st.values == nil {
		st.values = make(map[string]string)
	}
	return st, nil
}

// Commit persists the storage and writes the cookie header.
func (sm *StorageManager) Commit(ctx context.Context, w http.ResponseWriter, st *Storage) error {
	if st == nil {
		return nil
	}

	if !st.dirty && !st.isNew {
		return nil
	}
	// Nothing worth a cookie yet.
	if st.isNew && len(st.values) == 0 && len(st.flashes) == 0 {
		return nil
	}

	ttl := sm.ttlFor(st)
	data, err := json.Marshal(storagePayload{Values: st.values, Flashes: st.flashes, ExpiresAt: st.expiresAt})
	if err != nil {
		return err
	}
	if err := sm.client.Set(ctx, sm.redisKey(st.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: save: %v", ErrStorageUnavailable, err)
	}
	st.dirty = false
	st.isNew = false

	http.SetCookie(w, sm.cookie(st.ID, int(ttl.Seconds()), sm.now().Add(ttl)))
	return nil
}

// CookieName returns the cookie identifier used for browser storage.
func (sm *StorageManager) CookieName() string {
	return sm.cookieName
}

func (sm *StorageManager) ttlFor(st *Storage) time.Duration {
	ttl := sm.ttl
	if st.expiresAt.IsZero() {
		return ttl
	}
	remaining := st.expiresAt.Sub(sm.now())
	if remaining < time.Second {
		remaining = time.Second
	}
	if remaining < ttl {
		return remaining
	}
	return ttl
}

func (sm *StorageManager) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (sm *StorageManager) newStorage() *Storage {
	return &Storage{
		ID:     uuid.NewString(),
		values: make(map[string]string),
		isNew:  true,
	}
}

func (sm *StorageManager) redisKey(id string) string {
	return "rental:storage:" + id
}

// NewMemoryStorage returns a storage that is never committed anywhere.
func NewMemoryStorage() *Storage {
	return &Storage{ID: uuid.NewString(), values: make(map[string]string), isNew: true}
}

// StorageID returns the browser storage identifier.
func (s *Storage) StorageID() string {
	return s.ID
}

// Set stores a key-value pair.
func (s *Storage) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if current, ok := s.values[key]; ok && current == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Storage) Get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

// Lookup retrieves a value and reports whether it was present.
func (s *Storage) Lookup(key string) (string, bool) {
	if s.values == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Delete removes a value.
func (s *Storage) Delete(key string) {
	if s.values == nil {
		return
	}
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// ExpireAt caps the lifetime of the record. A zero time removes the cap.
func (s *Storage) ExpireAt(t time.Time) {
	if s.expiresAt.Equal(t) {
		return
	}
	s.expiresAt = t
	s.dirty = true
}

// AddFlash queues a flash message.
func (s *Storage) AddFlash(msg FlashMessage) {
	s.flashes = append(s.flashes, msg)
	s.dirty = true
}

// PopFlash retrieves and clears the oldest flash message.
func (s *Storage) PopFlash() *FlashMessage {
	if len(s.flashes) == 0 {
		return nil
	}
	msg := s.flashes[0]
	s.flashes = s.flashes[1:]
	s.dirty = true
	return &msg
}

// ClearFlashes drops every queued flash message.
func (s *Storage) ClearFlashes() {
	if len(s.flashes) == 0 {
		return
	}
	s.flashes = nil
	s.dirty = true
}

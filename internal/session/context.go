package session

import "context"

type storeContextKey struct{}

// NewContext returns a copy of ctx carrying the store.
func NewContext(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, store)
}

// FromContext returns the store bound to ctx, or nil.
func FromContext(ctx context.Context) *Store {
	store, _ := ctx.Value(storeContextKey{}).(*Store)
	return store
}

// AccessToken returns the access token of the session bound to ctx.
func AccessToken(ctx context.Context) string {
	return FromContext(ctx).Current().AccessToken
}

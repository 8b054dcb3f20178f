package rentalapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrental/rental-web/internal/rentalapi"
)

type tokenKey struct{}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func newServer(t *testing.T, handler http.HandlerFunc) *rentalapi.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return rentalapi.NewClient(srv.URL+"/api/", 5*time.Second, tokenFromContext)
}

func TestLoginFlatResponse(t *testing.T) {
	var got map[string]string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tokens":{"access":"a1","refresh":"r1"},"role":"admin","user_id":3,"username":"root"}`))
	})

	res, err := client.LoginAdmin(context.Background(), "root@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, rentalapi.LoginResult{AccessToken: "a1", RefreshToken: "r1", Role: "admin", UserID: "3", Username: "root"}, res)
	assert.Equal(t, "root@example.com", got["username"])
	assert.Equal(t, "root@example.com", got["email"])
	assert.Equal(t, "pw", got["password"])
}

func TestLoginNestedUserResponse(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login-user/", r.URL.Path)
		_, _ = w.Write([]byte(`{"msg":"ok","tokens":{"access":"a2","refresh":"r2"},"user":{"id":"11","username":"tina","role":"tenant"}}`))
	})

	res, err := client.LoginUser(context.Background(), "tina", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tenant", res.Role)
	assert.Equal(t, "11", res.UserID)
	assert.Equal(t, "tina", res.Username)
}

func TestErrorBodyFields(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"error", `{"error":"Invalid credentials"}`, "Invalid credentials"},
		{"err", `{"err":"This login is only for admin."}`, "This login is only for admin."},
		{"detail", `{"detail":"Authentication credentials were not provided."}`, "Authentication credentials were not provided."},
		{"message", `{"message":"nope"}`, "nope"},
		{"list", `{"detail":["a","b"]}`, "a b"},
		{"precedence", `{"message":"m","error":"e"}`, "e"},
		{"blank", `{"error":"  "}`, ""},
		{"html", `<html>oops</html>`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.LoginAdmin(context.Background(), "x", "y")
			var apiErr *rentalapi.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.ServerMessage)
		})
	}
}

func TestBearerAttachedWhenTokenPresent(t *testing.T) {
	var auth string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":5,"username":"olivia","email":"o@example.com","phone":"1","address":"Main St"}`))
	})

	ctx := context.WithValue(context.Background(), tokenKey{}, "tok-123")
	profile, err := client.OwnerProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", auth)
	assert.Equal(t, rentalapi.Profile{ID: "5", Username: "olivia", Email: "o@example.com", Phone: "1", Address: "Main St"}, profile)

	_, err = client.OwnerProfile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestTenantsShapes(t *testing.T) {
	bodies := map[string]string{
		"array":   `[{"id":1,"username":"t1","email":"t1@x","role":"tenant"},{"id":2,"username":"t2","email":"t2@x","role":"tenant"}]`,
		"results": `{"count":2,"results":[{"id":1,"username":"t1","email":"t1@x","role":"tenant"},{"id":2,"username":"t2","email":"t2@x","role":"tenant"}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/admin/tenants/", r.URL.Path)
				_, _ = w.Write([]byte(body))
			})
			tenants, err := client.Tenants(context.Background())
			require.NoError(t, err)
			require.Len(t, tenants, 2)
			assert.Equal(t, rentalapi.Tenant{ID: "2", Username: "t2", Email: "t2@x", Role: "tenant"}, tenants[1])
		})
	}
}

func TestTenantsEmptyObject(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	tenants, err := client.Tenants(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestMalformedSuccessBody(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tokens":`))
	})
	_, err := client.LoginUser(context.Background(), "x", "y")
	var apiErr *rentalapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.Status)
	assert.ErrorIs(t, err, rentalapi.ErrMalformedResponse)
}

func TestRegisterPostsPayload(t *testing.T) {
	var got rentalapi.Registration
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tenant_register/", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"msg":"Tenant registered successfully."}`))
	})
	reg := rentalapi.Registration{Username: "t", Email: "t@x", Password: "pw", Address: "a", Phone: "p", Role: "tenant"}
	require.NoError(t, client.RegisterTenant(context.Background(), reg))
	assert.Equal(t, reg, got)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := rentalapi.NewClient(url, time.Second, nil)
	err := client.RegisterAdmin(context.Background(), rentalapi.Registration{})
	var apiErr *rentalapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.Status)
	assert.Error(t, apiErr.Err)
}

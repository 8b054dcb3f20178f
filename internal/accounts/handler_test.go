package accounts_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrental/rental-web/internal/accounts"
	"github.com/smartrental/rental-web/internal/auth"
	"github.com/smartrental/rental-web/internal/rentalapi"
	"github.com/smartrental/rental-web/internal/session"
	"github.com/smartrental/rental-web/internal/shared"
	"github.com/smartrental/rental-web/internal/view"
	_ "github.com/smartrental/rental-web/testing"
)

type received struct {
	path          string
	authorization string
	body          rentalapi.Registration
}

type upstream struct {
	mu       sync.Mutex
	requests []received
	status   int
	reply    string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body rentalapi.Registration
	_ = json.NewDecoder(r.Body).Decode(&body)
	u.mu.Lock()
	u.requests = append(u.requests, received{path: r.URL.Path, authorization: r.Header.Get("Authorization"), body: body})
	status, reply := u.status, u.reply
	u.mu.Unlock()
	if status == 0 {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply))
}

func (u *upstream) last(t *testing.T) received {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	require.NotEmpty(t, u.requests)
	return u.requests[len(u.requests)-1]
}

func (u *upstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

// withSession binds an in-memory browser storage holding sess.
func withSession(t *testing.T, sess session.Session, storages chan<- *shared.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := shared.NewMemoryStorage()
			store := session.NewStore(st)
			require.NoError(t, store.Save(sess))
			ctx := shared.ContextWithStorage(r.Context(), st)
			ctx = session.NewContext(ctx, store)
			next.ServeHTTP(w, r.WithContext(ctx))
			if storages != nil {
				storages <- st
			}
		})
	}
}

func newRouter(t *testing.T, sess session.Session, up *upstream, storages chan<- *shared.Storage) http.Handler {
	t.Helper()
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	templates, err := view.NewEngine()
	require.NoError(t, err)
	client := rentalapi.NewClient(srv.URL, 5*time.Second, session.AccessToken)
	authService := auth.NewService(client, nil, nil, nil)
	handler := accounts.NewHandler(nil, client, authService, templates)

	r := chi.NewRouter()
	r.Use(withSession(t, sess, storages))
	handler.MountRoutes(r)
	return r
}

func post(r http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func validForm() url.Values {
	return url.Values{
		"username": {"tina"},
		"email":    {"tina@example.com"},
		"password": {"s3cret!"},
		"phone":    {"+62 811 000"},
		"address":  {"Jl. Merdeka 1"},
	}
}

func TestRegisterTenantPage(t *testing.T) {
	r := newRouter(t, session.Session{}, &upstream{}, nil)
	rr := get(r, "/register-tenant")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `action="/register-tenant"`)
	assert.Contains(t, rr.Body.String(), "Create Tenant account")
}

func TestRegisterTenantSuccess(t *testing.T) {
	up := &upstream{reply: `{"message":"created"}`}
	storages := make(chan *shared.Storage, 1)
	r := newRouter(t, session.Session{}, up, storages)

	rr := post(r, "/register-tenant", validForm())
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?mode=user", rr.Header().Get("Location"))

	got := up.last(t)
	assert.Equal(t, rentalapi.PathRegisterTenant, got.path)
	assert.Empty(t, got.authorization)
	assert.Equal(t, rentalapi.Registration{
		Username: "tina",
		Email:    "tina@example.com",
		Password: "s3cret!",
		Address:  "Jl. Merdeka 1",
		Phone:    "+62 811 000",
		Role:     "tenant",
	}, got.body)

	flash := (<-storages).PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Tenant registered successfully. Now log in!", flash.Message)
}

func TestRegisterAdminPostsToRegister(t *testing.T) {
	up := &upstream{}
	r := newRouter(t, session.Session{}, up, nil)

	rr := post(r, "/register-admin", validForm())
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?mode=admin", rr.Header().Get("Location"))
	assert.Equal(t, rentalapi.PathRegisterAdmin, up.last(t).path)
	assert.Equal(t, "admin", up.last(t).body.Role)
}

func TestRegisterValidation(t *testing.T) {
	up := &upstream{}
	r := newRouter(t, session.Session{}, up, nil)

	form := validForm()
	form.Set("username", "  ")
	form.Set("email", "not-an-email")
	rr := post(r, "/register-tenant", form)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "This field is required.")
	assert.Contains(t, rr.Body.String(), "Enter a valid email address.")
	assert.NotContains(t, rr.Body.String(), "s3cret!")
	assert.Equal(t, 0, up.count())
}

func TestRegisterServerMessageShown(t *testing.T) {
	up := &upstream{status: http.StatusBadRequest, reply: `{"err":"Username already exists"}`}
	r := newRouter(t, session.Session{}, up, nil)

	rr := post(r, "/register-tenant", validForm())
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Username already exists")
	assert.Contains(t, rr.Body.String(), `value="tina@example.com"`)
}

func TestRegisterServerFailure(t *testing.T) {
	up := &upstream{status: http.StatusInternalServerError}
	r := newRouter(t, session.Session{}, up, nil)

	rr := post(r, "/register-tenant", validForm())
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Request failed (status 500).")
}

func TestRegisterOwnerRequiresAdmin(t *testing.T) {
	up := &upstream{}

	r := newRouter(t, session.Session{}, up, nil)
	rr := get(r, "/register-owner")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, auth.PathLogin, rr.Header().Get("Location"))

	tenant := session.Session{Role: session.RoleTenant, UserID: "3", Username: "tina", AccessToken: "tenant-token"}
	r = newRouter(t, tenant, up, nil)
	rr = post(r, "/register-owner", validForm())
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, auth.PathUnauthorized, rr.Header().Get("Location"))
	assert.Equal(t, 0, up.count())
}

func TestRegisterOwnerAsAdmin(t *testing.T) {
	up := &upstream{}
	admin := session.Session{Role: session.RoleAdmin, UserID: "1", Username: "root", AccessToken: "admin-token"}
	r := newRouter(t, admin, up, nil)

	rr := get(r, "/register-owner")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Back to dashboard")

	rr = post(r, "/register-owner", validForm())
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/register-owner", rr.Header().Get("Location"))

	got := up.last(t)
	assert.Equal(t, rentalapi.PathRegisterOwner, got.path)
	assert.Equal(t, "Bearer admin-token", got.authorization)
	assert.Equal(t, "owner", got.body.Role)
}

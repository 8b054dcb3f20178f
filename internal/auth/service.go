package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/smartrental/rental-web/internal/audit"
	"github.com/smartrental/rental-web/internal/observability"
	"github.com/smartrental/rental-web/internal/rentalapi"
	"github.com/smartrental/rental-web/internal/session"
)

// ErrNoStore is returned when a request context carries no session store.
var ErrNoStore = errors.New("auth: session store missing from context")

// API is the part of the rental API the service talks to.
type API interface {
	LoginAdmin(ctx context.Context, identifier, password string) (rentalapi.LoginResult, error)
	LoginUser(ctx context.Context, identifier, password string) (rentalapi.LoginResult, error)
}

// Service owns the session: it is the only component that writes it.
type Service struct {
	api      API
	logger   *slog.Logger
	metrics  *observability.Metrics
	recorder audit.Recorder
	inflight singleflight.Group
}

// NewService constructs a Service. metrics and recorder may be nil.
func NewService(api API, logger *slog.Logger, metrics *observability.Metrics, recorder audit.Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{api: api, logger: logger, metrics: metrics, recorder: recorder}
}

// LoginAdmin signs in an administrator.
func (s *Service) LoginAdmin(ctx context.Context, creds Credentials) (session.Session, error) {
	return s.login(ctx, VariantAdmin, creds)
}

// LoginUser signs in an owner or tenant. Whatever role the API returns is
// stored as is.
func (s *Service) LoginUser(ctx context.Context, creds Credentials) (session.Session, error) {
	return s.login(ctx, VariantUser, creds)
}

// Login dispatches on the variant.
func (s *Service) Login(ctx context.Context, variant Variant, creds Credentials) (session.Session, error) {
	if variant == VariantAdmin {
		return s.LoginAdmin(ctx, creds)
	}
	return s.LoginUser(ctx, creds)
}

func (s *Service) login(ctx context.Context, variant Variant, creds Credentials) (session.Session, error) {
	identifier := strings.TrimSpace(creds.Identifier)
	if err := validateCredentials(identifier, creds.Password); err != nil {
		s.metrics.LoginAttempt(string(variant), "invalid")
		return session.Session{}, err
	}
	store := session.FromContext(ctx)
	if store == nil {
		return session.Session{}, ErrNoStore
	}

	res, err := s.callOnce(ctx, variant, store, identifier, creds.Password)
	if err != nil {
		classified := classify(err)
		s.metrics.LoginAttempt(string(variant), outcomeLabel(classified))
		s.logger.Warn("login failed",
			slog.String("variant", string(variant)),
			slog.String("message", classified.Error()),
			slog.Any("error", err))
		return session.Session{}, classified
	}

	sess := session.Session{
		Role:         session.Role(strings.TrimSpace(res.Role)),
		UserID:       res.UserID,
		Username:     res.Username,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}
	if !sess.Valid() {
		s.metrics.LoginAttempt(string(variant), "malformed")
		return session.Session{}, &TransportError{Message: "The server returned an incomplete login response.", Err: rentalapi.ErrMalformedResponse}
	}
	if err := store.Save(sess); err != nil {
		return session.Session{}, &TransportError{Message: FallbackMessage, Err: err}
	}
	s.metrics.LoginAttempt(string(variant), "success")
	if !sess.Role.Known() {
		s.logger.Warn("login returned an unrecognised role",
			slog.String("variant", string(variant)),
			slog.String("role", string(sess.Role)))
	}
	s.logger.Info("login succeeded",
		slog.String("variant", string(variant)),
		slog.String("role", string(sess.Role)),
		slog.String("user_id", sess.UserID))
	return sess, nil
}

// callOnce collapses duplicate submissions of the same form from the same
// browser into one upstream call. The shared call outlives whichever request
// started it; the client timeout still bounds it.
func (s *Service) callOnce(ctx context.Context, variant Variant, store *session.Store, identifier, password string) (rentalapi.LoginResult, error) {
	sum := sha256.Sum256([]byte(password))
	key := strings.Join([]string{string(variant), store.ID(), identifier, hex.EncodeToString(sum[:])}, "|")
	callCtx := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key, func() (any, error) {
		if variant == VariantAdmin {
			return s.api.LoginAdmin(callCtx, identifier, password)
		}
		return s.api.LoginUser(callCtx, identifier, password)
	})
	select {
	case <-ctx.Done():
		return rentalapi.LoginResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return rentalapi.LoginResult{}, res.Err
		}
		return res.Val.(rentalapi.LoginResult), nil
	}
}

// Logout clears the session. Calling it while signed out is a no-op.
func (s *Service) Logout(ctx context.Context) {
	store := session.FromContext(ctx)
	if store == nil {
		return
	}
	signedIn := !store.Current().IsZero()
	store.Clear()
	if signedIn {
		s.metrics.Logout()
	}
}

// CurrentSession returns the cached session without any network call.
func (s *Service) CurrentSession(ctx context.Context) session.Session {
	return session.FromContext(ctx).Current()
}

// IsAuthenticated reports whether the current session has a role and an
// access token.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	return s.CurrentSession(ctx).IsAuthenticated()
}

// Record appends an event to the audit trail. Failures are logged only.
func (s *Service) Record(ctx context.Context, ev audit.Event) {
	if err := s.recorder.Record(ctx, ev); err != nil {
		s.logger.Warn("record auth event", slog.String("kind", ev.Kind), slog.Any("error", err))
	}
}

// RecentEvents lists the newest audit events.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.recorder.Recent(ctx, limit)
}

func validateCredentials(identifier, password string) error {
	var missing []string
	if identifier == "" {
		missing = append(missing, "identifier")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func outcomeLabel(err error) string {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return "rejected"
	}
	return "error"
}

package auth

import (
	"log/slog"
	"net/http"

	"github.com/smartrental/rental-web/internal/session"
)

// Decision is the outcome of a guard evaluation. An empty Redirect means the
// page may render.
type Decision struct {
	Redirect string
	Err      error
}

// Allowed reports whether the protected content may render.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Evaluate checks a session against the roles a page requires. An empty
// role set admits any authenticated account.
func Evaluate(sess session.Session, required ...session.Role) Decision {
	if !sess.IsAuthenticated() {
		return Decision{Redirect: PathLogin}
	}
	if len(required) > 0 && !sess.HasRole(required...) {
		return Decision{
			Redirect: PathUnauthorized,
			Err:      &AuthorizationError{Role: sess.Role, Required: required},
		}
	}
	return Decision{}
}

// Guard returns middleware gating a route group to the given roles. It only
// reads the cached session; no network call is made.
func (s *Service) Guard(roles ...session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := Evaluate(s.CurrentSession(r.Context()), roles...)
			s.metrics.GuardDecision(decisionLabel(decision))
			if !decision.Allowed() {
				if decision.Err != nil {
					s.logger.Info("route denied",
						slog.String("path", r.URL.Path),
						slog.Any("error", decision.Err))
				}
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func decisionLabel(d Decision) string {
	switch d.Redirect {
	case "":
		return "allowed"
	case PathLogin:
		return "unauthenticated"
	default:
		return "forbidden"
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/portfolio/internal/auth"
	"github.com/2beens/portfolio/internal/telemetry/metrics"
	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const (
	NotAuthorizedMessage = "Not authorized to access this route. Please login."
	ServerErrorMessage   = "Server error"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test
type authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

type AuthMiddlewareHandler struct {
	authenticator  authenticator
	metricsManager *metrics.Manager
}

func NewAuthMiddlewareHandler(
	authenticator authenticator,
	metricsManager *metrics.Manager,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		authenticator:  authenticator,
		metricsManager: metricsManager,
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// RequireAdmin admits only requests carrying a valid token of an existing administrator,
// and attaches that administrator's identity to the request context.
func (h *AuthMiddlewareHandler) RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				h.unauthorized(w)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			identity, err := h.authenticator.Authenticate(ctx, token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrUnauthorized) {
					log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
					h.unauthorized(w)
					span.SetStatus(codes.Error, "invalid-token")
					return
				}

				log.Errorf("[failed auth check] => %s: %s", r.URL.Path, err)
				pkg.WriteError(w, http.StatusInternalServerError, ServerErrorMessage)
				span.SetStatus(codes.Error, "auth-check-err")
				span.RecordError(err)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(ctx, *identity)))
		})
	}
}

func (h *AuthMiddlewareHandler) unauthorized(w http.ResponseWriter) {
	if h.metricsManager != nil {
		h.metricsManager.CounterUnauthorized.Inc()
	}
	pkg.WriteError(w, http.StatusUnauthorized, NotAuthorizedMessage)
}

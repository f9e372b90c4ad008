package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/portfolio/internal/auth"
	"github.com/2beens/portfolio/internal/middleware"
	"github.com/2beens/portfolio/internal/telemetry/metrics"
	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	MsgLoginSuccessful          = "Login successful"
	MsgMissingCredentials       = "Please provide email and password"
	MsgInvalidCredentials       = "Invalid credentials"
	MsgMissingPasswords         = "Please provide current and new password"
	MsgPasswordTooLong          = "New password must be at most 72 bytes long"
	MsgCurrentPasswordIncorrect = "Current password is incorrect"
	MsgPasswordChanged          = "Password changed successfully"
	MsgInvalidBody              = "Invalid request body"
	MsgBodyTooLarge             = "Request body too large"
)

// both request bodies are two short strings
const maxRequestBodyBytes = 4 << 10

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=account_test
type authService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	ChangePassword(ctx context.Context, adminID, currentPassword, newPassword string) error
}

type Handler struct {
	authService    authService
	metricsManager *metrics.Manager
}

func NewHandler(
	authService authService,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		authService:    authService,
		metricsManager: metricsManager,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponseData struct {
	Admin     auth.Identity `json:"admin"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

type meResponseData struct {
	Admin auth.Identity `json:"admin"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// SetupRoutes mounts the account endpoints under apiRouter. Everything except login
// goes through the admin guard.
func (handler *Handler) SetupRoutes(
	apiRouter *mux.Router,
	authMiddleware *middleware.AuthMiddlewareHandler,
) {
	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	authRouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")

	protectedRouter := authRouter.NewRoute().Subrouter()
	protectedRouter.
		HandleFunc("/me", handler.handleMe).
		Methods("GET", "OPTIONS").Name("me")
	protectedRouter.
		HandleFunc("/change-password", handler.handleChangePassword).
		Methods("POST", "PUT", "OPTIONS").Name("change-password")
	protectedRouter.Use(authMiddleware.RequireAdmin())
}

// decodeRequest reads a JSON body, or falls back to form values for other content types.
// Bodies past maxRequestBodyBytes fail with *http.MaxBytesError.
func decodeRequest(
	w http.ResponseWriter,
	r *http.Request,
	dst any,
	formFields func(get func(string) string),
) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return json.NewDecoder(r.Body).Decode(dst)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	formFields(r.Form.Get)
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		pkg.WriteError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
		return
	}
	pkg.WriteError(w, http.StatusBadRequest, MsgInvalidBody)
}

func (handler *Handler) countLogin(result string) {
	if handler.metricsManager != nil {
		handler.metricsManager.CounterLoginAttempts.WithLabelValues(result).Inc()
	}
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "accountHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var loginReq loginRequest
	if err := decodeRequest(w, r, &loginReq, func(get func(string) string) {
		loginReq = loginRequest{
			Email:    get("email"),
			Password: get("password"),
		}
	}); err != nil {
		log.Debugf("login, decode request: %s", err)
		handler.countLogin(metrics.LoginResultInvalidInput)
		span.SetStatus(codes.Error, "bad-request-body")
		writeDecodeError(w, err)
		return
	}

	res, err := handler.authService.Login(ctx, loginReq.Email, loginReq.Password)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			handler.countLogin(metrics.LoginResultInvalidInput)
			pkg.WriteError(w, http.StatusBadRequest, MsgMissingCredentials)
		case errors.Is(err, auth.ErrInvalidCredentials):
			log.Tracef("failed login attempt for: %s", loginReq.Email)
			handler.countLogin(metrics.LoginResultBadCreds)
			pkg.WriteError(w, http.StatusUnauthorized, MsgInvalidCredentials)
		default:
			log.Errorf("login failed: %s", err)
			handler.countLogin(metrics.LoginResultError)
			pkg.WriteError(w, http.StatusInternalServerError, middleware.ServerErrorMessage)
		}
		return
	}

	handler.countLogin(metrics.LoginResultSuccess)
	span.SetAttributes(attribute.String("admin.id", res.Admin.ID))
	span.SetStatus(codes.Ok, "ok")
	log.Trace("new login success")

	pkg.WriteSuccess(w, http.StatusOK, MsgLoginSuccessful, loginResponseData{
		Admin:     res.Admin,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	})
}

func (handler *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "accountHandler.me")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		span.SetStatus(codes.Error, "no-identity")
		pkg.WriteError(w, http.StatusUnauthorized, middleware.NotAuthorizedMessage)
		return
	}

	span.SetAttributes(attribute.String("admin.id", identity.ID))
	pkg.WriteSuccess(w, http.StatusOK, "", meResponseData{Admin: identity})
}

func (handler *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "accountHandler.changePassword")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		span.SetStatus(codes.Error, "no-identity")
		pkg.WriteError(w, http.StatusUnauthorized, middleware.NotAuthorizedMessage)
		return
	}

	var changeReq changePasswordRequest
	if err := decodeRequest(w, r, &changeReq, func(get func(string) string) {
		changeReq = changePasswordRequest{
			CurrentPassword: get("currentPassword"),
			NewPassword:     get("newPassword"),
		}
	}); err != nil {
		log.Debugf("change password, decode request: %s", err)
		span.SetStatus(codes.Error, "bad-request-body")
		writeDecodeError(w, err)
		return
	}

	err := handler.authService.ChangePassword(ctx, identity.ID, changeReq.CurrentPassword, changeReq.NewPassword)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, auth.ErrPasswordTooLong):
			pkg.WriteError(w, http.StatusBadRequest, MsgPasswordTooLong)
		case errors.Is(err, auth.ErrInvalidInput):
			pkg.WriteError(w, http.StatusBadRequest, MsgMissingPasswords)
		case errors.Is(err, auth.ErrInvalidCredentials):
			pkg.WriteError(w, http.StatusUnauthorized, MsgCurrentPasswordIncorrect)
		case errors.Is(err, auth.ErrUnauthorized):
			pkg.WriteError(w, http.StatusUnauthorized, middleware.NotAuthorizedMessage)
		default:
			log.Errorf("change password for [%s] failed: %s", identity.ID, err)
			pkg.WriteError(w, http.StatusInternalServerError, middleware.ServerErrorMessage)
		}
		return
	}

	if handler.metricsManager != nil {
		handler.metricsManager.CounterPasswordChanges.Inc()
	}
	log.Printf("admin [%s] changed password", identity.ID)
	span.SetStatus(codes.Ok, "ok")
	pkg.WriteSuccess(w, http.StatusOK, MsgPasswordChanged, nil)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/portfolio/internal/admin"
	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type LoginResult struct {
	Admin     Identity
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	store      admin.Store
	tokens     *TokenManager
	bcryptCost int
	// compared against when the email is unknown, so both login failures cost one bcrypt run
	dummyHash string
	now       func() time.Time
}

func NewService(
	store admin.Store,
	tokens *TokenManager,
	bcryptCost int,
) (*Service, error) {
	if store == nil || tokens == nil {
		return nil, errors.New("auth service: store and token manager required")
	}

	dummyPass, err := pkg.GenerateRandomString(32)
	if err != nil {
		return nil, fmt.Errorf("generate dummy password: %w", err)
	}
	dummyHash, err := pkg.HashPassword(dummyPass, bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	return &Service{
		store:      store,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		dummyHash:  dummyHash,
		now:        time.Now,
	}, nil
}

func identityOf(a *admin.Administrator) Identity {
	return Identity{
		ID:    a.ID,
		Email: a.Email,
		Role:  a.Role,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (_ *LoginResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.login")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	// no stored hash can match past the bcrypt limit, only its prefix would
	if len(password) > maxPasswordBytes {
		passwordMatches(password[:maxPasswordBytes], s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	a, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			passwordMatches(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}

	if !passwordMatches(password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(a.ID)
	if err != nil {
		return nil, err
	}

	log.Tracef("admin %s logged in, token valid until %s", a.ID, expiresAt)
	return &LoginResult{
		Admin:     identityOf(a),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Authenticate returns ErrInvalidToken for a bad token and ErrUnauthorized when the token
// subject no longer resolves to an administrator.
func (s *Service) Authenticate(ctx context.Context, token string) (_ *Identity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.authenticate")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	adminID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	a, err := s.store.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}

	identity := identityOf(a)
	return &identity, nil
}

// ChangePassword leaves tokens issued before the change valid until they expire.
func (s *Service) ChangePassword(ctx context.Context, adminID, currentPassword, newPassword string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.changePassword")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if currentPassword == "" || newPassword == "" {
		return ErrInvalidInput
	}
	if len(newPassword) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	a, err := s.store.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("find admin by id: %w", err)
	}

	if !passwordMatches(currentPassword, a.PasswordHash) {
		return ErrInvalidCredentials
	}

	newHash, err := pkg.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	a.PasswordHash = newHash
	a.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, a); err != nil {
		return fmt.Errorf("save admin: %w", err)
	}

	log.Debugf("admin %s changed password", a.ID)
	return nil
}

package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/portfolio/pkg"
)

// Seed makes sure an administrator with the given email exists and logs in with password.
// An existing administrator keeps its id and gets the password reset. Reports whether a
// new record was created.
func Seed(ctx context.Context, store Store, email, password string, bcryptCost int) (*Administrator, bool, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, false, errors.New("seed admin: email and password required")
	}

	hash, err := pkg.HashPassword(password, bcryptCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	existing, err := store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		existing.PasswordHash = hash
		existing.Role = RoleAdmin
		existing.UpdatedAt = time.Now().UTC()
		if err := store.Save(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("update admin: %w", err)
		}
		return existing, false, nil
	case errors.Is(err, ErrAdminNotFound):
		a := &Administrator{
			Email:        email,
			PasswordHash: hash,
			Role:         RoleAdmin,
		}
		if err := store.Save(ctx, a); err != nil {
			return nil, false, fmt.Errorf("create admin: %w", err)
		}
		return a, true, nil
	default:
		return nil, false, fmt.Errorf("find admin: %w", err)
	}
}

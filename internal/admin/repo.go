package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrAdminNotFound = errors.New("admin not found")
	ErrEmailTaken    = errors.New("admin email already taken")
)

// Store is the credential store the auth flow consumes.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Administrator, error)
	FindByID(ctx context.Context, id string) (*Administrator, error)
	Save(ctx context.Context, admin *Administrator) error
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const selectAdmin = `
	SELECT id, email, password_hash, role, created_at, updated_at
	FROM admin
`

func (r *Repo) FindByEmail(ctx context.Context, email string) (_ *Administrator, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.admin.findByEmail")
	defer func() {
		if err != nil && !errors.Is(err, ErrAdminNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return r.findOne(ctx, selectAdmin+`WHERE email = $1`, NormalizeEmail(email))
}

func (r *Repo) FindByID(ctx context.Context, id string) (_ *Administrator, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.admin.findByID")
	defer func() {
		if err != nil && !errors.Is(err, ErrAdminNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if _, err := uuid.Parse(id); err != nil {
		// not a uuid, cannot be one of ours
		return nil, ErrAdminNotFound
	}

	return r.findOne(ctx, selectAdmin+`WHERE id = $1`, id)
}

func (r *Repo) findOne(ctx context.Context, query string, arg any) (*Administrator, error) {
	a := &Administrator{}
	err := r.db.
		QueryRow(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("query admin: %w", err)
	}
	return a, nil
}

// Save inserts the administrator, or overwrites email, hash and role of an existing one
// with the same id. A missing id is generated.
func (r *Repo) Save(ctx context.Context, admin *Administrator) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.admin.save")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if admin.PasswordHash == "" {
		return errors.New("admin password hash empty")
	}

	now := time.Now().UTC()
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	if admin.Role == "" {
		admin.Role = RoleAdmin
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	if admin.UpdatedAt.IsZero() {
		admin.UpdatedAt = now
	}
	admin.Email = NormalizeEmail(admin.Email)

	_, err = r.db.Exec(ctx, `
		INSERT INTO admin (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    password_hash = EXCLUDED.password_hash,
		    role = EXCLUDED.role,
		    updated_at = EXCLUDED.updated_at
	`,
		admin.ID, admin.Email, admin.PasswordHash, admin.Role, admin.CreatedAt, admin.UpdatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("save admin: %w", err)
	}

	return nil
}

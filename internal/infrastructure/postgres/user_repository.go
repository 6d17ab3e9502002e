package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/travelgo/travelgo/internal/apperr"
	"github.com/travelgo/travelgo/internal/domain/entity"
	"github.com/travelgo/travelgo/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, photo, role, password_hash,
	password_changed_at, password_reset_token, password_reset_expires,
	active, created_at, updated_at`

// UserRepository persists users in Postgres. It invokes the entity's
// credential lifecycle before every insert/update and filters inactive users
// out of lookups unless explicitly asked not to.
type UserRepository struct {
	db         DB
	bcryptCost int
}

func NewUserRepository(db DB, bcryptCost int) *UserRepository {
	return &UserRepository{db: db, bcryptCost: bcryptCost}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := u.BeforeSave(true, r.bcryptCost); err != nil {
		return err
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, photo, role, password_hash, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email, u.Photo, u.Role, u.PasswordHash, u.Active)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &apperr.CastError{Field: "id", Value: id}
	}
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND active
	`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1 AND active
	`, email)
}

// GetByEmailIncludingInactive is the explicit opt-out of the active filter,
// used when deciding whether a sign-up collides with a deactivated account.
func (r *UserRepository) GetByEmailIncludingInactive(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
}

func (r *UserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*entity.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE password_reset_token = $1 AND active
	`, tokenHash)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if err := u.BeforeSave(false, r.bcryptCost); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, photo = $3, role = $4, password_hash = $5,
		    password_changed_at = $6, password_reset_token = NULLIF($7, ''),
		    password_reset_expires = $8, updated_at = $9
		WHERE id = $10 AND active
	`, u.Name, u.Email, u.Photo, u.Role, u.PasswordHash,
		u.PasswordChangedAt, u.PasswordResetToken, u.PasswordResetExpires,
		u.UpdatedAt, u.ID)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// Deactivate soft-deletes a user. Rows are never removed so bookings and
// reviews keep their references.
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &apperr.CastError{Field: "id", Value: id}
	}
	res, err := r.db.Exec(ctx, `
		UPDATE users SET active = FALSE, updated_at = now()
		WHERE id = $1 AND active
	`, id)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	u := &entity.User{}
	var (
		changedAt  *time.Time
		resetToken *string
		resetExp   *time.Time
	)
	row := r.db.QueryRow(ctx, query, arg)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.PasswordHash,
		&changedAt, &resetToken, &resetExp,
		&u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, mapError(err)
	}
	u.PasswordChangedAt = changedAt
	u.PasswordResetExpires = resetExp
	if resetToken != nil {
		u.PasswordResetToken = *resetToken
	}
	return u, nil
}

// mapError converts driver errors into the closed set of tagged variants the
// error handler classifies.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		detail := pgErr.Detail
		if detail == "" {
			detail = pgErr.Message
		}
		return &apperr.DuplicateError{Detail: detail}
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)

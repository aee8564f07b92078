package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/database"
	"github.com/diagnosis/cinelist/services/auth/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	SetOTP(ctx context.Context, userID int64, otpHash string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, userID int64) error
	// Delete removes the user's watchlist rows, tokens and the user in one
	// transaction and returns the deleted token keys.
	Delete(ctx context.Context, id int64) ([]string, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, email, password_hash, first_name, last_name, name, age, gender, address, phone,
	is_email_verified, is_staff, otp_hash, otp_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Name, &u.Age, &u.Gender, &u.Address, &u.Phone,
		&u.IsEmailVerified, &u.IsStaff, &u.OTPHash, &u.OTPExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	const q = `
		INSERT INTO users (email, password_hash, first_name, last_name, name, age, gender, address, phone, is_email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := scanUser(r.pool.QueryRow(ctx, q,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, domain.FullName(u.FirstName, u.LastName),
		u.Age, u.Gender, u.Address, u.Phone,
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, uniqueUserError(err)
		}
		return nil, err
	}
	return created, nil
}

func uniqueUserError(err error) error {
	switch database.ConstraintName(err) {
	case "users_phone_key":
		return apperr.Wrap(apperr.Validation, "user with this phone already exists", err)
	default:
		return apperr.Wrap(apperr.Validation, "user with this email already exists", err)
	}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE phone = $1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, phone).Scan(&exists)
	return exists, err
}

func (r *userRepository) SetOTP(ctx context.Context, userID int64, otpHash string, expiresAt time.Time) error {
	const q = `UPDATE users SET otp_hash = $2, otp_expires_at = $3, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID, otpHash, expiresAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) MarkVerified(ctx context.Context, userID int64) error {
	const q = `
		UPDATE users
		SET is_email_verified = true, otp_hash = NULL, otp_expires_at = NULL, updated_at = now()
		WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var keys []string
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM watchlist WHERE user_id = $1`, id); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `DELETE FROM auth_tokens WHERE user_id = $1 RETURNING key`, id)
		if err != nil {
			return err
		}
		keys, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return err
		}

		result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return apperr.E(apperr.NotFound, "user not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT ` + userCols + `
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

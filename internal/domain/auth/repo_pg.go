package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinora/clinora/internal/platform/db"
)

const userCols = `u.id, u.company_id, c.name, u.email, u.password_hash,
	u.first_name, u.last_name, u.role, u.is_active, u.created_at, u.updated_at`

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

func (r *userRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO app_user (id, company_id, email, password_hash, first_name, last_name, role, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		u.ID, u.CompanyID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.IsActive).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.CompanyID, &u.CompanyName, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `
		SELECT `+userCols+`
		FROM app_user u JOIN company c ON c.id = u.company_id
		WHERE lower(u.email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `
		SELECT `+userCols+`
		FROM app_user u JOIN company c ON c.id = u.company_id
		WHERE u.id = $1`, id))
}

type tokenRepoPG struct{ pool *pgxpool.Pool }

func NewTokenRepoPG(pool *pgxpool.Pool) TokenRepository { return &tokenRepoPG{pool: pool} }

func (r *tokenRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func (r *tokenRepoPG) Replace(ctx context.Context, t *RefreshToken) error {
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM refresh_token WHERE user_id = $1`, t.UserID); err != nil {
		return err
	}
	t.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO refresh_token (id, user_id, company_id, token_hash, expires_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		t.ID, t.UserID, t.CompanyID, t.TokenHash, t.ExpiresAt).Scan(&t.CreatedAt)
}

func (r *tokenRepoPG) FindValid(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	var t RefreshToken
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, user_id, company_id, token_hash, expires_at, created_at
		FROM refresh_token
		WHERE token_hash = $1 AND expires_at > $2`,
		tokenHash, time.Now()).
		Scan(&t.ID, &t.UserID, &t.CompanyID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepoPG) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM refresh_token WHERE user_id = $1`, userID)
	return err
}

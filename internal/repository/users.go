package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"festmatch/internal/domain/users"
)

type UsersRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewUsersRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *UsersRepo {
	return &UsersRepo{db: db, getter: getter}
}

func (r *UsersRepo) GetProfile(ctx context.Context, id uuid.UUID) (*users.Profile, error) {
	var p users.Profile
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx,
		`SELECT user_id, display_name, currency FROM users WHERE user_id = $1`, id).
		Scan(&p.Id, &p.DisplayName, &p.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &p, nil
}

func (r *UsersRepo) Upsert(ctx context.Context, p users.Profile) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO users (user_id, display_name, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name, currency = EXCLUDED.currency`,
		p.Id, p.DisplayName, p.Currency)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// IsBlocked reports whether a block exists between the two users in
// either direction.
func (r *UsersRepo) IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var blocked bool
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)`, a, b).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return blocked, nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"festmatch/internal/domain/experiences"
)

type ExperiencesRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewExperiencesRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *ExperiencesRepo {
	return &ExperiencesRepo{db: db, getter: getter}
}

func (r *ExperiencesRepo) Create(ctx context.Context, exp experiences.Experience) (uuid.UUID, error) {
	tiersJson, err := json.Marshal(exp.Tiers)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal pricing tiers: %w", err)
	}

	var id uuid.UUID
	err = r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO experiences (
			host_id, title, kind, published, capacity,
			min_participants, max_participants, base_price, currency,
			cancellation_policy, pricing_tiers
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING id`,
		exp.HostId,
		exp.Title,
		exp.Kind,
		exp.Published,
		exp.Capacity,
		exp.MinParticipants,
		exp.MaxParticipants,
		exp.BasePrice,
		exp.Currency,
		exp.CancellationPolicy,
		tiersJson,
	).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("insert experience: %w", err)
	}
	return id, nil
}

func (r *ExperiencesRepo) GetByID(ctx context.Context, id uuid.UUID) (*experiences.Experience, error) {
	var exp experiences.Experience
	var tiersJson []byte

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		SELECT
			id, host_id, title, kind, published, capacity,
			min_participants, max_participants, base_price, currency,
			cancellation_policy, pricing_tiers, created_at
		FROM experiences
		WHERE id = $1`, id).
		Scan(
			&exp.Id,
			&exp.HostId,
			&exp.Title,
			&exp.Kind,
			&exp.Published,
			&exp.Capacity,
			&exp.MinParticipants,
			&exp.MaxParticipants,
			&exp.BasePrice,
			&exp.Currency,
			&exp.CancellationPolicy,
			&tiersJson,
			&exp.CreatedAt,
		)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, experiences.ErrExperienceNotFound
		}
		return nil, fmt.Errorf("select experience: %w", err)
	}

	if err := json.Unmarshal(tiersJson, &exp.Tiers); err != nil {
		return nil, fmt.Errorf("unmarshal pricing tiers: %w", err)
	}

	return &exp, nil
}

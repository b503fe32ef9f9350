package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"festmatch/internal/domain/matches"
)

type MatchesRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewMatchesRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *MatchesRepo {
	return &MatchesRepo{db: db, getter: getter}
}

const matchColumns = `
	id, experience_id, requester_id, host_id, status,
	host_confirmed, requester_confirmed, participants, participant_names,
	total_price, start_date, end_date, created_at, updated_at`

func (r *MatchesRepo) Create(ctx context.Context, m matches.Match) (uuid.UUID, error) {
	namesJson, err := json.Marshal(m.ParticipantNames)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal participant names: %w", err)
	}

	var id uuid.UUID
	err = r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO matches (
			experience_id, requester_id, host_id, status,
			participants, participant_names, total_price, start_date, end_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING id`,
		m.ExperienceId,
		m.RequesterId,
		m.HostId,
		m.Status,
		m.Participants,
		namesJson,
		m.TotalPrice,
		m.StartDate,
		m.EndDate,
	).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("insert match: %w", err)
	}
	return id, nil
}

func (r *MatchesRepo) GetByID(ctx context.Context, id uuid.UUID) (*matches.Match, error) {
	row := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx,
		`SELECT`+matchColumns+` FROM matches WHERE id = $1`, id)
	return scanMatch(row)
}

// GetByExperienceAndRequester returns the single row for the pair, in
// whatever status it currently holds.
func (r *MatchesRepo) GetByExperienceAndRequester(ctx context.Context, experienceID, requesterID uuid.UUID) (*matches.Match, error) {
	row := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx,
		`SELECT`+matchColumns+` FROM matches WHERE experience_id = $1 AND requester_id = $2`,
		experienceID, requesterID)
	return scanMatch(row)
}

func scanMatch(row *sqlx.Row) (*matches.Match, error) {
	var m matches.Match
	var namesJson []byte

	err := row.Scan(
		&m.Id,
		&m.ExperienceId,
		&m.RequesterId,
		&m.HostId,
		&m.Status,
		&m.HostConfirmed,
		&m.RequesterConfirmed,
		&m.Participants,
		&namesJson,
		&m.TotalPrice,
		&m.StartDate,
		&m.EndDate,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, matches.ErrMatchNotFound
		}
		return nil, fmt.Errorf("select match: %w", err)
	}

	if err := json.Unmarshal(namesJson, &m.ParticipantNames); err != nil {
		return nil, fmt.Errorf("unmarshal participant names: %w", err)
	}
	return &m, nil
}

// Reactivate resets a terminal match back to pending, keeping its
// identity and message history while clearing confirmation flags and
// replacing the commercial fields with the new request's values.
func (r *MatchesRepo) Reactivate(ctx context.Context, m matches.Match) error {
	namesJson, err := json.Marshal(m.ParticipantNames)
	if err != nil {
		return fmt.Errorf("marshal participant names: %w", err)
	}

	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE matches SET
			status = $2,
			host_confirmed = FALSE,
			requester_confirmed = FALSE,
			participants = $3,
			participant_names = $4,
			total_price = $5,
			start_date = $6,
			end_date = $7,
			updated_at = now()
		WHERE id = $1`,
		m.Id,
		matches.StatusPending,
		m.Participants,
		namesJson,
		m.TotalPrice,
		m.StartDate,
		m.EndDate,
	)
	if err != nil {
		return fmt.Errorf("reactivate match: %w", err)
	}
	return requireRow(res, matches.ErrMatchNotFound)
}

func (r *MatchesRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status matches.Status) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx,
		`UPDATE matches SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	return requireRow(res, matches.ErrMatchNotFound)
}

// SetConfirmations persists the per-party completion flags together
// with the status they imply.
func (r *MatchesRepo) SetConfirmations(ctx context.Context, id uuid.UUID, hostConfirmed, requesterConfirmed bool, status matches.Status) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE matches SET
			host_confirmed = $2,
			requester_confirmed = $3,
			status = $4,
			updated_at = now()
		WHERE id = $1`,
		id, hostConfirmed, requesterConfirmed, status)
	if err != nil {
		return fmt.Errorf("update match confirmations: %w", err)
	}
	return requireRow(res, matches.ErrMatchNotFound)
}

// OverlappingParticipants sums the participants of all open (pending or
// accepted) matches whose date range overlaps the candidate range. A
// missing end date collapses a range to the single day of its start.
func (r *MatchesRepo) OverlappingParticipants(ctx context.Context, experienceID uuid.UUID, start time.Time, end *time.Time) (int, error) {
	candidateEnd := start
	if end != nil {
		candidateEnd = *end
	}

	var total int
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		SELECT COALESCE(SUM(participants), 0)
		FROM matches
		WHERE experience_id = $1
		  AND status IN ($2, $3)
		  AND start_date IS NOT NULL
		  AND start_date <= $4
		  AND COALESCE(end_date, start_date) >= $5`,
		experienceID,
		matches.StatusPending,
		matches.StatusAccepted,
		candidateEnd,
		start,
	).Scan(&total)

	if err != nil {
		return 0, fmt.Errorf("sum overlapping participants: %w", err)
	}
	return total, nil
}

func (r *MatchesRepo) InsertMessage(ctx context.Context, msg matches.Message) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO match_messages (match_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id`,
		msg.MatchId, msg.SenderId, msg.Body,
	).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("insert match message: %w", err)
	}
	return id, nil
}

func (r *MatchesRepo) ListMessages(ctx context.Context, matchID uuid.UUID) ([]matches.Message, error) {
	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryxContext(ctx, `
		SELECT id, match_id, sender_id, body, created_at
		FROM match_messages
		WHERE match_id = $1
		ORDER BY created_at ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("select match messages: %w", err)
	}
	defer rows.Close()

	var msgs []matches.Message
	for rows.Next() {
		var m matches.Message
		if err := rows.Scan(&m.Id, &m.MatchId, &m.SenderId, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan match message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *MatchesRepo) InsertCancellation(ctx context.Context, c matches.Cancellation) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO cancellations (
			match_id, cancelled_by, policy, original_amount,
			refund_amount, penalty_amount, hours_until_start
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.MatchId,
		c.CancelledBy,
		c.Policy,
		c.OriginalAmount,
		c.RefundAmount,
		c.PenaltyAmount,
		c.HoursUntilStart,
	)
	if err != nil {
		return fmt.Errorf("insert cancellation: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func InitializeDBSchema(db *sqlx.DB) error {
	statements := []struct {
		name  string
		query string
	}{
		{"users", `
CREATE TABLE IF NOT EXISTS users (
	user_id UUID PRIMARY KEY,
	display_name VARCHAR(255) NOT NULL,
	currency CHAR(3) NOT NULL DEFAULT 'EUR'
);`},
		{"user_blocks", `
CREATE TABLE IF NOT EXISTS user_blocks (
	blocker_id UUID NOT NULL,
	blocked_id UUID NOT NULL,
	PRIMARY KEY (blocker_id, blocked_id)
);`},
		{"experiences", `
CREATE TABLE IF NOT EXISTS experiences (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	host_id UUID NOT NULL,
	title VARCHAR(255) NOT NULL,
	kind VARCHAR(16) NOT NULL,
	published BOOLEAN NOT NULL DEFAULT TRUE,
	capacity INTEGER NOT NULL,
	min_participants INTEGER NOT NULL DEFAULT 1,
	max_participants INTEGER NOT NULL,
	base_price NUMERIC(12, 2) NOT NULL DEFAULT 0,
	currency CHAR(3) NOT NULL,
	cancellation_policy VARCHAR(32) NOT NULL,
	pricing_tiers JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`},
		{"matches", `
CREATE TABLE IF NOT EXISTS matches (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	experience_id UUID NOT NULL,
	requester_id UUID NOT NULL,
	host_id UUID NOT NULL,
	status VARCHAR(16) NOT NULL,
	host_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
	requester_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
	participants INTEGER NOT NULL,
	participant_names JSONB NOT NULL DEFAULT '[]',
	total_price NUMERIC(12, 2),
	start_date TIMESTAMP WITH TIME ZONE,
	end_date TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	UNIQUE (experience_id, requester_id)
);`},
		{"match_messages", `
CREATE TABLE IF NOT EXISTS match_messages (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	match_id UUID NOT NULL,
	sender_id UUID NOT NULL,
	body TEXT NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`},
		{"cancellations", `
CREATE TABLE IF NOT EXISTS cancellations (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	match_id UUID NOT NULL,
	cancelled_by UUID NOT NULL,
	policy VARCHAR(32) NOT NULL,
	original_amount NUMERIC(12, 2) NOT NULL,
	refund_amount NUMERIC(12, 2) NOT NULL,
	penalty_amount NUMERIC(12, 2) NOT NULL,
	hours_until_start DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`},
		{"wallets", `
CREATE TABLE IF NOT EXISTS wallets (
	user_id UUID PRIMARY KEY,
	balance NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
	currency CHAR(3) NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`},
		{"wallet_transactions", `
CREATE TABLE IF NOT EXISTS wallet_transactions (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL,
	type VARCHAR(32) NOT NULL,
	status VARCHAR(16) NOT NULL,
	amount NUMERIC(12, 2) NOT NULL,
	currency CHAR(3) NOT NULL,
	counterpart_id UUID,
	match_id UUID,
	provider_reference VARCHAR(255),
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`},
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(context.Background(), stmt.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.name, err)
		}
	}

	_, err := db.ExecContext(context.Background(), `
CREATE INDEX IF NOT EXISTS idx_matches_experience_status ON matches (experience_id, status);
CREATE INDEX IF NOT EXISTS idx_wallet_transactions_user ON wallet_transactions (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_wallet_transactions_reference ON wallet_transactions (provider_reference);`)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

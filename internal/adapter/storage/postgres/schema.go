package postgres

import (
	"context"
	"fmt"
)

// schema creates the wagers and accounts tables. Statements are idempotent.
// Amounts are uint64 and live in NUMERIC(20,0); balances are AES-GCM ciphertext.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id                TEXT PRIMARY KEY,
		encrypted_balance TEXT NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wagers (
		id           UUID PRIMARY KEY,
		player_id    TEXT NOT NULL,
		wager_amount NUMERIC(20,0) NOT NULL CHECK (wager_amount >= 0),
		escrow_id    TEXT NOT NULL,
		settled      BOOLEAN NOT NULL DEFAULT FALSE,
		nonce        SMALLINT NOT NULL CHECK (nonce BETWEEN 0 AND 255),
		outcome      TEXT NOT NULL DEFAULT 'OPEN',
		created_at   TIMESTAMPTZ NOT NULL,
		settled_at   TIMESTAMPTZ,
		CONSTRAINT wagers_escrow_id_key UNIQUE (escrow_id)
	)`,
	`CREATE INDEX IF NOT EXISTS wagers_player_created_idx ON wagers (player_id, created_at DESC)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

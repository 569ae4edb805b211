package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates all tables if they do not exist. Statements are ordered so
// foreign key targets are created first.
func Migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         BIGSERIAL PRIMARY KEY,
			username   TEXT NOT NULL UNIQUE,
			email      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			user_id BIGINT PRIMARY KEY REFERENCES users(id),
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS groups (
			id         BIGSERIAL PRIMARY KEY,
			name       TEXT NOT NULL,
			created_by BIGINT NOT NULL REFERENCES users(id),
			seq        BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS group_members (
			id                 BIGSERIAL PRIMARY KEY,
			group_id           BIGINT NOT NULL REFERENCES groups(id),
			user_id            BIGINT NOT NULL REFERENCES users(id),
			is_temporary       BOOLEAN NOT NULL DEFAULT false,
			deletion_condition TEXT,
			expires_at         TIMESTAMPTZ,
			joined_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (group_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id         BIGSERIAL PRIMARY KEY,
			uid        TEXT NOT NULL UNIQUE,
			type       TEXT NOT NULL,
			group_id   BIGINT REFERENCES groups(id),
			paid_by    BIGINT REFERENCES users(id),
			from_user  BIGINT REFERENCES users(id),
			to_user    BIGINT REFERENCES users(id),
			user_id    BIGINT REFERENCES users(id),
			method     TEXT,
			amount     BIGINT NOT NULL,
			note       TEXT NOT NULL DEFAULT '',
			place      TEXT NOT NULL DEFAULT '',
			annotation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_group_id ON transactions (group_id, id)`,
		`CREATE TABLE IF NOT EXISTS transaction_shares (
			id             BIGSERIAL PRIMARY KEY,
			transaction_id BIGINT NOT NULL REFERENCES transactions(id),
			user_id        BIGINT NOT NULL REFERENCES users(id),
			amount         BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transaction_shares_tx ON transaction_shares (transaction_id)`,
		`CREATE TABLE IF NOT EXISTS group_balances (
			group_id BIGINT NOT NULL REFERENCES groups(id),
			user_id  BIGINT NOT NULL REFERENCES users(id),
			balance  BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (group_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS balance_writeoffs (
			id         BIGSERIAL PRIMARY KEY,
			group_id   BIGINT NOT NULL REFERENCES groups(id),
			user_id    BIGINT NOT NULL,
			amount     BIGINT NOT NULL,
			annotation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id                  BIGSERIAL PRIMARY KEY,
			recipient_id        BIGINT NOT NULL REFERENCES users(id),
			message             TEXT NOT NULL,
			is_read             BOOLEAN NOT NULL DEFAULT false,
			related_entity_type TEXT,
			related_entity_id   BIGINT,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS credit_cards (
	id SERIAL PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	number TEXT NOT NULL UNIQUE,
	issuance_bank TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS balance_records (
	card_id INTEGER NOT NULL REFERENCES credit_cards (id) ON DELETE CASCADE,
	date DATE NOT NULL,
	balance NUMERIC(20, 4) NOT NULL,
	PRIMARY KEY (card_id, date)
);
`

// Migrate creates the tables if they do not exist. The (card_id, date) primary
// key enforces the one-record-per-day invariant at the store level.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

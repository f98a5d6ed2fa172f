package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"

	"cardledger/internal/repository"
)

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.CardRepository    = (*CardRepository)(nil)
	_ repository.BalanceRepository = (*BalanceRepository)(nil)
)

// Open connects to postgres using a lib/pq connection string.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

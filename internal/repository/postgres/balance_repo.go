package postgres

import (
	"context"
	"database/sql"
	"time"

	"cardledger/internal/domain"
)

type BalanceRepository struct {
	db *sql.DB
}

func NewBalanceRepository(db *sql.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) GetByCardID(ctx context.Context, cardID int) ([]domain.BalanceRecord, error) {
	const query = `SELECT card_id, date, balance FROM balance_records
	WHERE card_id = $1 ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.BalanceRecord
	for rows.Next() {
		var record domain.BalanceRecord
		var date time.Time
		if err := rows.Scan(&record.CardID, &date, &record.Balance); err != nil {
			return nil, err
		}
		record.Date = domain.DateOf(date)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ReplaceForCard swaps the stored timeline in a single transaction so a
// partially written sequence is never observable.
func (r *BalanceRepository) ReplaceForCard(ctx context.Context, cardID int, records []domain.BalanceRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	const deleteQuery = `DELETE FROM balance_records WHERE card_id = $1`
	if _, err = tx.ExecContext(ctx, deleteQuery, cardID); err != nil {
		return err
	}

	const insertQuery = `INSERT INTO balance_records (card_id, date, balance) VALUES ($1, $2, $3)`
	for _, record := range records {
		if _, err = tx.ExecContext(ctx, insertQuery, cardID, record.Date.Time(), record.Balance); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *BalanceRepository) DeleteByCardID(ctx context.Context, cardID int) error {
	const query = `DELETE FROM balance_records WHERE card_id = $1`

	_, err := r.db.ExecContext(ctx, query, cardID)
	return err
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cardledger/internal/domain"
	"cardledger/internal/repository"
)

type CardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Save(ctx context.Context, card *domain.CreditCard) error {
	const query = `INSERT INTO credit_cards (user_id, number, issuance_bank)
	VALUES ($1, $2, $3) RETURNING id`

	return r.db.QueryRowContext(ctx, query, card.UserID, card.Number, card.IssuanceBank).Scan(&card.ID)
}

func (r *CardRepository) GetByID(ctx context.Context, id int) (*domain.CreditCard, error) {
	const query = `SELECT id, user_id, number, issuance_bank FROM credit_cards WHERE id = $1`

	var card domain.CreditCard
	err := r.db.QueryRowContext(ctx, query, id).Scan(&card.ID, &card.UserID, &card.Number, &card.IssuanceBank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %d", repository.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return &card, nil
}

func (r *CardRepository) GetByNumber(ctx context.Context, number string) (*domain.CreditCard, error) {
	const query = `SELECT id, user_id, number, issuance_bank FROM credit_cards WHERE number = $1`

	var card domain.CreditCard
	err := r.db.QueryRowContext(ctx, query, number).Scan(&card.ID, &card.UserID, &card.Number, &card.IssuanceBank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card number %s", repository.ErrNotFound, number)
	}
	if err != nil {
		return nil, err
	}

	return &card, nil
}

func (r *CardRepository) GetByUserID(ctx context.Context, userID int) ([]*domain.CreditCard, error) {
	const query = `SELECT id, user_id, number, issuance_bank FROM credit_cards WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*domain.CreditCard
	for rows.Next() {
		var card domain.CreditCard
		if err := rows.Scan(&card.ID, &card.UserID, &card.Number, &card.IssuanceBank); err != nil {
			return nil, err
		}
		cards = append(cards, &card)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *CardRepository) DeleteByUserID(ctx context.Context, userID int) error {
	const query = `DELETE FROM credit_cards WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

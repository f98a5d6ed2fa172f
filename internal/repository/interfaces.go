package repository

import (
	"context"
	"errors"

	"cardledger/internal/domain"
)

type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int) (*domain.User, error)
	Delete(ctx context.Context, id int) error
}

type CardRepository interface {
	Save(ctx context.Context, card *domain.CreditCard) error
	GetByID(ctx context.Context, id int) (*domain.CreditCard, error)
	GetByNumber(ctx context.Context, number string) (*domain.CreditCard, error)
	GetByUserID(ctx context.Context, userID int) ([]*domain.CreditCard, error)
	DeleteByUserID(ctx context.Context, userID int) error
}

// BalanceRepository stores each card's daily balance records. ReplaceForCard
// swaps the whole stored sequence for a card in one call; that call is the unit
// of durability for a reconciliation step.
type BalanceRepository interface {
	GetByCardID(ctx context.Context, cardID int) ([]domain.BalanceRecord, error)
	ReplaceForCard(ctx context.Context, cardID int, records []domain.BalanceRecord) error
	DeleteByCardID(ctx context.Context, cardID int) error
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

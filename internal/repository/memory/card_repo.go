package memory

import (
	"context"
	"fmt"
	"sync"

	"cardledger/internal/domain"
	"cardledger/internal/repository"
)

type CardRepository struct {
	mu          sync.RWMutex
	cards       map[int]*domain.CreditCard
	numberIndex map[string]int
	userIndex   map[int][]int
	nextID      int
}

func NewCardRepository() *CardRepository {
	return &CardRepository{
		cards:       make(map[int]*domain.CreditCard),
		numberIndex: make(map[string]int),
		userIndex:   make(map[int][]int),
		nextID:      1,
	}
}

func (r *CardRepository) Save(ctx context.Context, card *domain.CreditCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.numberIndex[card.Number]; exists {
		return fmt.Errorf("%w: card number %s", repository.ErrDuplicate, card.Number)
	}

	if card.ID == 0 {
		card.ID = r.nextID
		r.nextID++
	}
	r.cards[card.ID] = card
	r.numberIndex[card.Number] = card.ID
	r.userIndex[card.UserID] = append(r.userIndex[card.UserID], card.ID)

	return nil
}

func (r *CardRepository) GetByID(ctx context.Context, id int) (*domain.CreditCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	card, exists := r.cards[id]
	if !exists {
		return nil, fmt.Errorf("%w: card %d", repository.ErrNotFound, id)
	}
	return card, nil
}

func (r *CardRepository) GetByNumber(ctx context.Context, number string) (*domain.CreditCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.numberIndex[number]
	if !exists {
		return nil, fmt.Errorf("%w: card number %s", repository.ErrNotFound, number)
	}
	return r.cards[id], nil
}

func (r *CardRepository) GetByUserID(ctx context.Context, userID int) ([]*domain.CreditCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.CreditCard
	for _, id := range r.userIndex[userID] {
		if card, exists := r.cards[id]; exists {
			result = append(result, card)
		}
	}

	return result, nil
}

func (r *CardRepository) DeleteByUserID(ctx context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.userIndex[userID] {
		if card, exists := r.cards[id]; exists {
			delete(r.numberIndex, card.Number)
			delete(r.cards, id)
		}
	}
	delete(r.userIndex, userID)

	return nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"cardledger/internal/domain"
)

type BalanceRepository struct {
	mu      sync.RWMutex
	records map[int][]domain.BalanceRecord
}

func NewBalanceRepository() *BalanceRepository {
	return &BalanceRepository{
		records: make(map[int][]domain.BalanceRecord),
	}
}

// GetByCardID returns the card's records sorted ascending by date. A card with
// no history yields an empty slice, not an error.
func (r *BalanceRepository) GetByCardID(ctx context.Context, cardID int) ([]domain.BalanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.records[cardID]
	result := make([]domain.BalanceRecord, len(stored))
	copy(result, stored)

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

func (r *BalanceRepository) ReplaceForCard(ctx context.Context, cardID int, records []domain.BalanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]domain.BalanceRecord, len(records))
	copy(stored, records)
	r.records[cardID] = stored

	return nil
}

func (r *BalanceRepository) DeleteByCardID(ctx context.Context, cardID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, cardID)

	return nil
}

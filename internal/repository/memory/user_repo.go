package memory

import (
	"context"
	"fmt"
	"sync"

	"cardledger/internal/domain"
	"cardledger/internal/repository"
)

type UserRepository struct {
	mu     sync.RWMutex
	users  map[int]*domain.User
	nextID int
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:  make(map[int]*domain.User),
		nextID: 1,
	}
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID != 0 {
		if _, exists := r.users[user.ID]; exists {
			return fmt.Errorf("%w: user %d", repository.ErrDuplicate, user.ID)
		}
	} else {
		user.ID = r.nextID
		r.nextID++
	}
	r.users[user.ID] = user

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, fmt.Errorf("%w: user %d", repository.ErrNotFound, id)
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[id]; !exists {
		return fmt.Errorf("%w: user %d", repository.ErrNotFound, id)
	}
	delete(r.users, id)

	return nil
}

package memory

import (
	"cardledger/internal/repository"
)

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.CardRepository    = (*CardRepository)(nil)
	_ repository.BalanceRepository = (*BalanceRepository)(nil)
)

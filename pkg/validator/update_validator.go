package validator

import (
	"errors"
	"fmt"

	"cardledger/internal/domain"
)

var (
	ErrEmptyBatch        = errors.New("update batch is empty")
	ErrMissingCardNumber = errors.New("credit card number is required")
	ErrMissingDate       = errors.New("balance date is required")
)

// UpdateValidator checks balance-update payloads at the API boundary. Card
// numbers are treated as opaque strings; no format or checksum validation is
// applied.
type UpdateValidator struct{}

func NewUpdateValidator() *UpdateValidator {
	return &UpdateValidator{}
}

func (v *UpdateValidator) ValidateBatch(updates []domain.BalanceUpdate) error {
	if len(updates) == 0 {
		return ErrEmptyBatch
	}

	for i, update := range updates {
		if err := v.ValidateUpdate(update); err != nil {
			return fmt.Errorf("update %d: %w", i, err)
		}
	}

	return nil
}

func (v *UpdateValidator) ValidateUpdate(update domain.BalanceUpdate) error {
	var errs []error

	if update.CardNumber == "" {
		errs = append(errs, ErrMissingCardNumber)
	}

	if update.Date.IsZero() {
		errs = append(errs, ErrMissingDate)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}

	return nil
}

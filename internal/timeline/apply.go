package timeline

import (
	"github.com/shopspring/decimal"

	"cardledger/internal/domain"
)

// ApplyUpdate applies one correction to a materialized timeline and returns the
// new timeline. The correction asserts the true balance on its date; the
// difference against the previously known value is added to every later day,
// since days without their own correction are defined as forward-fills of the
// nearest prior known value.
//
// If no record exists on the correction's date (the date lies past the
// materialized range, or the timeline is empty), a record is inserted at the
// sorted position and the delta is measured against the balance that would
// have been carried forward to that date.
//
// Applying the same correction twice is a no-op the second time: the delta
// comes out zero.
func ApplyUpdate(records []domain.BalanceRecord, update domain.BalanceRecord) []domain.BalanceRecord {
	result := make([]domain.BalanceRecord, len(records))
	copy(result, records)

	index := -1
	for i, rec := range result {
		if rec.Date.Equal(update.Date) {
			index = i
			break
		}
	}

	if index >= 0 {
		delta := update.Balance.Sub(result[index].Balance)
		result[index].Balance = update.Balance
		for i := index + 1; i < len(result); i++ {
			result[i].Balance = result[i].Balance.Add(delta)
		}
		return result
	}

	pos := len(result)
	for i, rec := range result {
		if rec.Date.After(update.Date) {
			pos = i
			break
		}
	}

	delta := update.Balance.Sub(carriedBalanceBefore(result, pos))

	result = append(result, domain.BalanceRecord{})
	copy(result[pos+1:], result[pos:])
	result[pos] = update

	for i := pos + 1; i < len(result); i++ {
		result[i].Balance = result[i].Balance.Add(delta)
	}

	return result
}

// carriedBalanceBefore returns the balance that forward-filling would assign
// just before index pos: the previous record's balance, or zero when there is
// no prior history.
func carriedBalanceBefore(records []domain.BalanceRecord, pos int) decimal.Decimal {
	if pos == 0 {
		return decimal.Zero
	}
	return records[pos-1].Balance
}

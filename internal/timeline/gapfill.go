package timeline

import (
	"sort"

	"cardledger/internal/domain"
)

// FillGaps materializes a complete daily sequence from sparse balance records.
// Missing days between adjacent records carry the earlier record's balance
// forward (flat-line, never interpolated), and the sequence is extended day by
// day through today. Input must be sorted ascending by date with no duplicate
// dates; the result is a new slice, also sorted, with exactly one record per
// calendar day from the first record's date through today.
//
// An empty input is returned as-is: there is no balance to carry forward, so
// no synthetic day zero is invented.
func FillGaps(records []domain.BalanceRecord, today domain.Date) []domain.BalanceRecord {
	if len(records) == 0 {
		return records
	}

	filled := make([]domain.BalanceRecord, 0, len(records))
	filled = append(filled, records...)

	prev := records[0]
	for _, current := range records[1:] {
		days := prev.Date.DaysUntil(current.Date)
		for i := 1; i < days; i++ {
			filled = append(filled, domain.BalanceRecord{
				Date:    prev.Date.AddDays(i),
				Balance: prev.Balance,
				CardID:  prev.CardID,
			})
		}
		prev = current
	}

	// Extend through today inclusive, so the timeline always ends on today.
	last := records[len(records)-1]
	missing := last.Date.DaysUntil(today)
	for i := 1; i <= missing; i++ {
		filled = append(filled, domain.BalanceRecord{
			Date:    last.Date.AddDays(i),
			Balance: last.Balance,
			CardID:  last.CardID,
		})
	}

	sort.Slice(filled, func(i, j int) bool {
		return filled[i].Date.Before(filled[j].Date)
	})

	return filled
}

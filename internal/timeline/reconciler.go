package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cardledger/internal/domain"
	"cardledger/internal/repository"
	"cardledger/pkg/metrics"
)

// EventSink receives a notification after each persisted reconciliation step.
type EventSink interface {
	PublishBalanceUpdated(ctx context.Context, event domain.BalanceUpdated) error
}

// Reconciler applies batches of balance corrections to per-card daily
// timelines. For each correction, in batch order, it materializes the card's
// full timeline (FillGaps), applies the correction with delta propagation
// (ApplyUpdate), and persists the resulting sequence as a whole.
type Reconciler struct {
	cards    repository.CardRepository
	balances repository.BalanceRepository
	events   EventSink
	metrics  *metrics.Collector
	logger   *slog.Logger
	now      func() domain.Date
}

func NewReconciler(
	cards repository.CardRepository,
	balances repository.BalanceRepository,
	events EventSink,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		cards:    cards,
		balances: balances,
		events:   events,
		metrics:  collector,
		logger:   logger,
		now:      domain.Today,
	}
}

// WithToday overrides the clock used as the timeline's right edge. Intended
// for tests.
func (r *Reconciler) WithToday(now func() domain.Date) *Reconciler {
	r.now = now
	return r
}

// Reconcile processes updates strictly in slice order. Processing halts at the
// first failure; corrections already persisted for earlier items stay
// persisted. A missing card is reported as an error wrapping
// repository.ErrNotFound and naming the card number.
func (r *Reconciler) Reconcile(ctx context.Context, updates []domain.BalanceUpdate) error {
	for _, update := range updates {
		if err := r.reconcileOne(ctx, update); err != nil {
			if r.metrics != nil {
				r.metrics.RecordUpdateFailed()
			}
			return err
		}
	}
	return nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, update domain.BalanceUpdate) error {
	card, err := r.cards.GetByNumber(ctx, update.CardNumber)
	if err != nil {
		return fmt.Errorf("no credit card found for number %s: %w", update.CardNumber, err)
	}

	records, err := r.balances.GetByCardID(ctx, card.ID)
	if err != nil {
		return fmt.Errorf("failed to load balance history for card %s: %w", update.CardNumber, err)
	}

	filled := FillGaps(records, r.now())
	gapDays := len(filled) - len(records)

	delta := update.Amount.Sub(knownBalanceAt(filled, update.Date))

	correction := domain.BalanceRecord{
		Date:    update.Date,
		Balance: update.Amount,
		CardID:  card.ID,
	}
	updated := ApplyUpdate(filled, correction)

	if err := r.balances.ReplaceForCard(ctx, card.ID, updated); err != nil {
		return fmt.Errorf("failed to save balance history for card %s: %w", update.CardNumber, err)
	}

	if r.metrics != nil {
		r.metrics.RecordUpdateApplied(gapDays)
		r.metrics.SetTimelineLength(update.CardNumber, len(updated))
	}

	r.logger.Info("Balance correction applied",
		slog.String("card_number", update.CardNumber),
		slog.String("date", update.Date.String()),
		slog.String("delta", delta.String()),
		slog.Int("gap_days_filled", gapDays),
		slog.Int("timeline_length", len(updated)))

	if r.events != nil {
		event := domain.BalanceUpdated{
			EventID:    uuid.New().String(),
			CardNumber: update.CardNumber,
			Date:       update.Date,
			Amount:     update.Amount,
			Delta:      delta,
			OccurredAt: time.Now().UTC(),
		}
		if err := r.events.PublishBalanceUpdated(ctx, event); err != nil {
			// Events are advisory; the correction is already durable.
			r.logger.Warn("Failed to publish balance update event",
				slog.String("card_number", update.CardNumber),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

// knownBalanceAt returns the balance the timeline asserts for the given date:
// the record on that date, the forward-filled value from the nearest prior
// record when the date lies past the materialized range, or zero for an empty
// timeline.
func knownBalanceAt(records []domain.BalanceRecord, date domain.Date) decimal.Decimal {
	for i := len(records) - 1; i >= 0; i-- {
		if !records[i].Date.After(date) {
			return records[i].Balance
		}
	}
	return decimal.Zero
}

package timeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cardledger/internal/domain"
	"cardledger/internal/repository"
	"cardledger/internal/repository/memory"
)

type captureSink struct {
	events []domain.BalanceUpdated
}

func (c *captureSink) PublishBalanceUpdated(ctx context.Context, event domain.BalanceUpdated) error {
	c.events = append(c.events, event)
	return nil
}

func fixedToday(date string) func() domain.Date {
	return func() domain.Date { return domain.MustParseDate(date) }
}

func TestReconciler_AppliesUpdateAndPersistsFullTimeline(t *testing.T) {
	ctx := context.Background()
	cardRepo := memory.NewCardRepository()
	balanceRepo := memory.NewBalanceRepository()

	card := &domain.CreditCard{UserID: 1, Number: "4111-1111", IssuanceBank: "Acme Bank"}
	_ = cardRepo.Save(ctx, card)
	_ = balanceRepo.ReplaceForCard(ctx, card.ID, []domain.BalanceRecord{
		{Date: domain.MustParseDate("2024-01-01"), Balance: decimal.NewFromInt(100), CardID: card.ID},
		{Date: domain.MustParseDate("2024-01-05"), Balance: decimal.NewFromInt(150), CardID: card.ID},
	})

	rec := NewReconciler(cardRepo, balanceRepo, nil, nil, nil).WithToday(fixedToday("2024-01-05"))

	err := rec.Reconcile(ctx, []domain.BalanceUpdate{
		{CardNumber: "4111-1111", Date: domain.MustParseDate("2024-01-03"), Amount: decimal.NewFromInt(120)},
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := balanceRepo.GetByCardID(ctx, card.ID)
	assertBalances(t, stored, []int64{100, 100, 120, 120, 170})
}

func TestReconciler_EmptyHistorySingleUpdate(t *testing.T) {
	ctx := context.Background()
	cardRepo := memory.NewCardRepository()
	balanceRepo := memory.NewBalanceRepository()

	card := &domain.CreditCard{UserID: 1, Number: "4111-2222", IssuanceBank: "Acme Bank"}
	_ = cardRepo.Save(ctx, card)

	rec := NewReconciler(cardRepo, balanceRepo, nil, nil, nil).WithToday(fixedToday("2024-02-10"))

	err := rec.Reconcile(ctx, []domain.BalanceUpdate{
		{CardNumber: "4111-2222", Date: domain.MustParseDate("2024-02-10"), Amount: decimal.NewFromInt(50)},
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := balanceRepo.GetByCardID(ctx, card.ID)
	if len(stored) != 1 {
		t.Fatalf("expected 1 record, got %d", len(stored))
	}
	if !stored[0].Balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected balance 50, got %s", stored[0].Balance)
	}
}

func TestReconciler_MissingCardHaltsBatch(t *testing.T) {
	ctx := context.Background()
	cardRepo := memory.NewCardRepository()
	balanceRepo := memory.NewBalanceRepository()

	cardA := &domain.CreditCard{UserID: 1, Number: "4111-aaaa", IssuanceBank: "Acme Bank"}
	cardB := &domain.CreditCard{UserID: 1, Number: "4111-bbbb", IssuanceBank: "Acme Bank"}
	_ = cardRepo.Save(ctx, cardA)
	_ = cardRepo.Save(ctx, cardB)

	rec := NewReconciler(cardRepo, balanceRepo, nil, nil, nil).WithToday(fixedToday("2024-01-10"))

	err := rec.Reconcile(ctx, []domain.BalanceUpdate{
		{CardNumber: "4111-aaaa", Date: domain.MustParseDate("2024-01-10"), Amount: decimal.NewFromInt(100)},
		{CardNumber: "no-such-card", Date: domain.MustParseDate("2024-01-10"), Amount: decimal.NewFromInt(10)},
		{CardNumber: "4111-bbbb", Date: domain.MustParseDate("2024-01-10"), Amount: decimal.NewFromInt(200)},
	})

	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "no-such-card") {
		t.Errorf("expected error to name the missing card, got %q", err.Error())
	}

	// The item before the failure stays persisted, the one after is never
	// processed.
	storedA, _ := balanceRepo.GetByCardID(ctx, cardA.ID)
	if len(storedA) != 1 {
		t.Errorf("expected card A update persisted, got %d records", len(storedA))
	}
	storedB, _ := balanceRepo.GetByCardID(ctx, cardB.ID)
	if len(storedB) != 0 {
		t.Errorf("expected no records for card B, got %d", len(storedB))
	}
}

func TestReconciler_UpdatesAppliedInBatchOrder(t *testing.T) {
	ctx := context.Background()
	cardRepo := memory.NewCardRepository()
	balanceRepo := memory.NewBalanceRepository()

	card := &domain.CreditCard{UserID: 1, Number: "4111-3333", IssuanceBank: "Acme Bank"}
	_ = cardRepo.Save(ctx, card)
	_ = balanceRepo.ReplaceForCard(ctx, card.ID, []domain.BalanceRecord{
		{Date: domain.MustParseDate("2024-01-01"), Balance: decimal.NewFromInt(100), CardID: card.ID},
	})

	rec := NewReconciler(cardRepo, balanceRepo, nil, nil, nil).WithToday(fixedToday("2024-01-03"))

	err := rec.Reconcile(ctx, []domain.BalanceUpdate{
		{CardNumber: "4111-3333", Date: domain.MustParseDate("2024-01-01"), Amount: decimal.NewFromInt(110)},
		{CardNumber: "4111-3333", Date: domain.MustParseDate("2024-01-02"), Amount: decimal.NewFromInt(110)},
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := balanceRepo.GetByCardID(ctx, card.ID)
	assertBalances(t, stored, []int64{110, 110, 110})
}

func TestReconciler_EmitsBalanceUpdatedEvent(t *testing.T) {
	ctx := context.Background()
	cardRepo := memory.NewCardRepository()
	balanceRepo := memory.NewBalanceRepository()
	sink := &captureSink{}

	card := &domain.CreditCard{UserID: 1, Number: "4111-4444", IssuanceBank: "Acme Bank"}
	_ = cardRepo.Save(ctx, card)
	_ = balanceRepo.ReplaceForCard(ctx, card.ID, []domain.BalanceRecord{
		{Date: domain.MustParseDate("2024-01-01"), Balance: decimal.NewFromInt(100), CardID: card.ID},
	})

	rec := NewReconciler(cardRepo, balanceRepo, sink, nil, nil).WithToday(fixedToday("2024-01-01"))

	err := rec.Reconcile(ctx, []domain.BalanceUpdate{
		{CardNumber: "4111-4444", Date: domain.MustParseDate("2024-01-01"), Amount: decimal.NewFromInt(130)},
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.CardNumber != "4111-4444" {
		t.Errorf("expected card number 4111-4444, got %s", event.CardNumber)
	}
	if !event.Delta.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected delta 30, got %s", event.Delta)
	}
	if event.EventID == "" {
		t.Errorf("expected non-empty event id")
	}
}

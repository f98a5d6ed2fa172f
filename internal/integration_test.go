package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cardledger/internal/api"
	"cardledger/internal/domain"
	"cardledger/internal/repository/memory"
	"cardledger/internal/timeline"
	"cardledger/pkg/metrics"
)

type testEnv struct {
	userRepo    *memory.UserRepository
	cardRepo    *memory.CardRepository
	balanceRepo *memory.BalanceRepository

	reconciler *timeline.Reconciler
	mux        *http.ServeMux
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	userRepo := memory.NewUserRepository()
	cardRepo := memory.NewCardRepository()
	balanceRepo := memory.NewBalanceRepository()

	reconciler := timeline.NewReconciler(cardRepo, balanceRepo, nil, nil, nil).
		WithToday(func() domain.Date { return domain.MustParseDate("2024-01-05") })

	collector := metrics.NewCollector(nil)
	handler := api.NewHandler(reconciler, userRepo, cardRepo, balanceRepo, collector, nil)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &testEnv{
		userRepo:    userRepo,
		cardRepo:    cardRepo,
		balanceRepo: balanceRepo,
		reconciler:  reconciler,
		mux:         mux,
	}
}

func doJSON(t *testing.T, env *testEnv, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)
	return w
}

func mustCreateUser(t *testing.T, env *testEnv) int {
	t.Helper()
	w := doJSON(t, env, "PUT", "/user", api.CreateUserRequest{Name: "Ada", Email: "ada@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("create user failed with status %d", w.Code)
	}
	var id int
	if err := json.NewDecoder(w.Body).Decode(&id); err != nil {
		t.Fatalf("decode user id failed: %v", err)
	}
	return id
}

func mustAddCard(t *testing.T, env *testEnv, userID int, number string) int {
	t.Helper()
	w := doJSON(t, env, "POST", "/credit-card", api.AddCreditCardRequest{
		UserID:           userID,
		CardNumber:       number,
		CardIssuanceBank: "Acme Bank",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("add card failed with status %d: %s", w.Code, w.Body.String())
	}
	var id int
	if err := json.NewDecoder(w.Body).Decode(&id); err != nil {
		t.Fatalf("decode card id failed: %v", err)
	}
	return id
}

func TestIntegration_CreateUserAndCardLookups(t *testing.T) {
	env := setup(t)

	userID := mustCreateUser(t, env)
	cardID := mustAddCard(t, env, userID, "4111-1111")
	if cardID == 0 {
		t.Fatalf("expected non-zero card id")
	}

	w := doJSON(t, env, "GET", fmt.Sprintf("/credit-card/all?userId=%d", userID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var views []api.CreditCardView
	if err := json.NewDecoder(w.Body).Decode(&views); err != nil {
		t.Fatalf("decode views failed: %v", err)
	}
	if len(views) != 1 || views[0].Number != "4111-1111" || views[0].IssuanceBank != "Acme Bank" {
		t.Errorf("unexpected card views: %+v", views)
	}

	w = doJSON(t, env, "GET", "/credit-card/user-id?creditCardNumber=4111-1111", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var gotUserID int
	if err := json.NewDecoder(w.Body).Decode(&gotUserID); err != nil {
		t.Fatalf("decode user id failed: %v", err)
	}
	if gotUserID != userID {
		t.Errorf("expected user id %d, got %d", userID, gotUserID)
	}
}

func TestIntegration_AddCardUnknownUser(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env, "POST", "/credit-card", api.AddCreditCardRequest{
		UserID:           999,
		CardNumber:       "4111-1111",
		CardIssuanceBank: "Acme Bank",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown user, got %d", w.Code)
	}
}

func TestIntegration_GetAllCardsUnknownUser(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env, "GET", "/credit-card/all?userId=999", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown user, got %d", w.Code)
	}
}

func TestIntegration_GetAllCardsEmptyListNeverNull(t *testing.T) {
	env := setup(t)
	userID := mustCreateUser(t, env)

	w := doJSON(t, env, "GET", fmt.Sprintf("/credit-card/all?userId=%d", userID), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %q", w.Body.String())
	}
}

func TestIntegration_UserIDUnknownCard(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env, "GET", "/credit-card/user-id?creditCardNumber=no-such-card", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown card, got %d", w.Code)
	}
}

func TestIntegration_UpdateBalanceFlow(t *testing.T) {
	env := setup(t)
	userID := mustCreateUser(t, env)
	cardID := mustAddCard(t, env, userID, "4111-9999")

	updates := []domain.BalanceUpdate{
		{CardNumber: "4111-9999", Date: domain.MustParseDate("2024-01-01"), Amount: decimal.NewFromInt(100)},
		{CardNumber: "4111-9999", Date: domain.MustParseDate("2024-01-05"), Amount: decimal.NewFromInt(150)},
		{CardNumber: "4111-9999", Date: domain.MustParseDate("2024-01-03"), Amount: decimal.NewFromInt(120)},
	}

	w := doJSON(t, env, "POST", "/credit-card/update-balance", updates)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, err := env.balanceRepo.GetByCardID(context.Background(), cardID)
	if err != nil {
		t.Fatalf("load records failed: %v", err)
	}
	expected := []int64{100, 100, 120, 120, 170}
	if len(stored) != len(expected) {
		t.Fatalf("expected %d records, got %d", len(expected), len(stored))
	}
	for i, want := range expected {
		if !stored[i].Balance.Equal(decimal.NewFromInt(want)) {
			t.Errorf("record %d (%s): expected balance %d, got %s", i, stored[i].Date, want, stored[i].Balance)
		}
	}
}

func TestIntegration_UpdateBalanceUnknownCardHaltsBatch(t *testing.T) {
	env := setup(t)
	userID := mustCreateUser(t, env)
	cardID := mustAddCard(t, env, userID, "4111-7777")

	updates := []domain.BalanceUpdate{
		{CardNumber: "no-such-card", Date: domain.MustParseDate("2024-01-01"), Amount: decimal.NewFromInt(100)},
		{CardNumber: "4111-7777", Date: domain.MustParseDate("2024-01-01"), Amount: decimal.NewFromInt(100)},
	}

	w := doJSON(t, env, "POST", "/credit-card/update-balance", updates)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no-such-card") {
		t.Errorf("expected response to name the missing card, got %q", w.Body.String())
	}

	stored, _ := env.balanceRepo.GetByCardID(context.Background(), cardID)
	if len(stored) != 0 {
		t.Errorf("expected no records persisted after the failure point, got %d", len(stored))
	}
}

func TestIntegration_UpdateBalanceEmptyBatch(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env, "POST", "/credit-card/update-balance", []domain.BalanceUpdate{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty batch, got %d", w.Code)
	}
}

func TestIntegration_DeleteUserCascades(t *testing.T) {
	env := setup(t)
	userID := mustCreateUser(t, env)
	cardID := mustAddCard(t, env, userID, "4111-5555")

	updates := []domain.BalanceUpdate{
		{CardNumber: "4111-5555", Date: domain.MustParseDate("2024-01-01"), Amount: decimal.NewFromInt(100)},
	}
	if w := doJSON(t, env, "POST", "/credit-card/update-balance", updates); w.Code != http.StatusOK {
		t.Fatalf("seed update failed with status %d", w.Code)
	}

	w := doJSON(t, env, "DELETE", fmt.Sprintf("/user?userId=%d", userID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if w := doJSON(t, env, "GET", fmt.Sprintf("/credit-card/all?userId=%d", userID), nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after user deletion, got %d", w.Code)
	}
	stored, _ := env.balanceRepo.GetByCardID(context.Background(), cardID)
	if len(stored) != 0 {
		t.Errorf("expected balance records removed with the user, got %d", len(stored))
	}
}

func TestIntegration_DeleteUnknownUser(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env, "DELETE", "/user?userId=999", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown user, got %d", w.Code)
	}
}

func TestIntegration_HealthCheck(t *testing.T) {
	env := setup(t)

	w := doJSON(t, env, "GET", "/api/health", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

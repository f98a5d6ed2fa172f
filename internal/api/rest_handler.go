package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cardledger/internal/domain"
	"cardledger/internal/repository"
	"cardledger/internal/timeline"
	"cardledger/pkg/metrics"
	"cardledger/pkg/validator"
)

type Handler struct {
	reconciler     *timeline.Reconciler
	users          repository.UserRepository
	cards          repository.CardRepository
	balances       repository.BalanceRepository
	validator      *validator.UpdateValidator
	metrics        *metrics.Collector
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewHandler(
	reconciler *timeline.Reconciler,
	users repository.UserRepository,
	cards repository.CardRepository,
	balances repository.BalanceRepository,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		reconciler:     reconciler,
		users:          users,
		cards:          cards,
		balances:       balances,
		validator:      validator.NewUpdateValidator(),
		metrics:        collector,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AddCreditCardRequest struct {
	UserID           int    `json:"userId"`
	CardNumber       string `json:"cardNumber"`
	CardIssuanceBank string `json:"cardIssuanceBank"`
}

// CreditCardView is the card shape exposed on the list endpoint: the card id
// and owner are deliberately omitted.
type CreditCardView struct {
	IssuanceBank string `json:"issuanceBank"`
	Number       string `json:"number"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	user := &domain.User{Name: req.Name, Email: req.Email}
	if err := h.users.Save(ctx, user); err != nil {
		h.logger.Error("Failed to save user", slog.String("error", err.Error()))
		h.sendError(w, "Failed to create user", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	h.logger.Info("User created", slog.Int("user_id", user.ID))
	h.sendJSON(w, user.ID, http.StatusOK)
}

func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt(r, "userId")
	if err != nil {
		h.sendError(w, "userId is required", http.StatusBadRequest, "MISSING_ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	if _, err := h.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "User not found", http.StatusNotFound, "NOT_FOUND")
		} else {
			h.sendError(w, "Failed to look up user", http.StatusInternalServerError, "SERVER_ERROR")
		}
		return
	}

	// A user owns its cards, and each card owns its balance records; deleting
	// the user cascades through both.
	cards, err := h.cards.GetByUserID(ctx, userID)
	if err != nil {
		h.sendError(w, "Failed to look up cards", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}
	for _, card := range cards {
		if err := h.balances.DeleteByCardID(ctx, card.ID); err != nil {
			h.sendError(w, "Failed to delete balance history", http.StatusInternalServerError, "SERVER_ERROR")
			return
		}
	}
	if err := h.cards.DeleteByUserID(ctx, userID); err != nil {
		h.sendError(w, "Failed to delete cards", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}
	if err := h.users.Delete(ctx, userID); err != nil {
		h.sendError(w, "Failed to delete user", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	h.logger.Info("User deleted", slog.Int("user_id", userID), slog.Int("cards_deleted", len(cards)))
	h.sendJSON(w, MessageResponse{Message: "User deleted successfully"}, http.StatusOK)
}

func (h *Handler) AddCreditCardHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req AddCreditCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if _, err := h.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "User not found", http.StatusBadRequest, "USER_NOT_FOUND")
		} else {
			h.sendError(w, "Failed to look up user", http.StatusInternalServerError, "SERVER_ERROR")
		}
		return
	}

	card := &domain.CreditCard{
		UserID:       req.UserID,
		Number:       req.CardNumber,
		IssuanceBank: req.CardIssuanceBank,
	}
	if err := h.cards.Save(ctx, card); err != nil {
		h.logger.Error("Failed to save credit card",
			slog.String("card_number", req.CardNumber),
			slog.String("error", err.Error()))
		h.sendError(w, "Failed to create credit card", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	h.logger.Info("Credit card created",
		slog.Int("card_id", card.ID),
		slog.Int("user_id", card.UserID))
	h.sendJSON(w, card.ID, http.StatusOK)
}

func (h *Handler) GetAllCardsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt(r, "userId")
	if err != nil {
		h.sendError(w, "userId is required", http.StatusBadRequest, "MISSING_ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	if _, err := h.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "User not found", http.StatusNotFound, "NOT_FOUND")
		} else {
			h.sendError(w, "Failed to look up user", http.StatusInternalServerError, "SERVER_ERROR")
		}
		return
	}

	cards, err := h.cards.GetByUserID(ctx, userID)
	if err != nil {
		h.sendError(w, "Failed to look up cards", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	// Empty list, never null.
	views := make([]CreditCardView, 0, len(cards))
	for _, card := range cards {
		views = append(views, CreditCardView{
			IssuanceBank: card.IssuanceBank,
			Number:       card.Number,
		})
	}

	h.sendJSON(w, views, http.StatusOK)
}

func (h *Handler) GetUserIDForCardHandler(w http.ResponseWriter, r *http.Request) {
	cardNumber := r.URL.Query().Get("creditCardNumber")
	if cardNumber == "" {
		h.sendError(w, "creditCardNumber is required", http.StatusBadRequest, "MISSING_CARD_NUMBER")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	card, err := h.cards.GetByNumber(ctx, cardNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "No credit card found for the provided number", http.StatusBadRequest, "CARD_NOT_FOUND")
		} else {
			h.sendError(w, "Failed to look up card", http.StatusInternalServerError, "SERVER_ERROR")
		}
		return
	}

	if _, err := h.users.GetByID(ctx, card.UserID); err != nil {
		h.sendError(w, "No owner found for the provided card", http.StatusBadRequest, "OWNER_NOT_FOUND")
		return
	}

	h.sendJSON(w, card.UserID, http.StatusOK)
}

func (h *Handler) UpdateBalanceHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var updates []domain.BalanceUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if err := h.validator.ValidateBatch(updates); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	err := h.reconciler.Reconcile(ctx, updates)
	if h.metrics != nil {
		h.metrics.RecordRequestDuration(time.Since(startTime))
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, err.Error(), http.StatusBadRequest, "CARD_NOT_FOUND")
		} else {
			h.logger.Error("Balance reconciliation failed", slog.String("error", err.Error()))
			h.sendError(w, "Failed to update balance", http.StatusInternalServerError, "PROCESSING_ERROR")
		}
		return
	}

	h.logger.Info("Balance update batch processed", slog.Int("updates", len(updates)))
	h.sendJSON(w, MessageResponse{Message: "Balance updated successfully."}, http.StatusOK)
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

func queryInt(r *http.Request, key string) (int, error) {
	return strconv.Atoi(r.URL.Query().Get(key))
}

func (h *Handler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *Handler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("PUT /user", h.CreateUserHandler)
	mux.HandleFunc("DELETE /user", h.DeleteUserHandler)
	mux.HandleFunc("POST /credit-card", h.AddCreditCardHandler)
	mux.HandleFunc("GET /credit-card/all", h.GetAllCardsHandler)
	mux.HandleFunc("GET /credit-card/user-id", h.GetUserIDForCardHandler)
	mux.HandleFunc("POST /credit-card/update-balance", h.UpdateBalanceHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/auth"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/anhbaysgalan1/teenpatti/internal/validation"
	"github.com/anhbaysgalan1/teenpatti/internal/wallet"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultTransactionLimit = 20
	maxTransactionLimit     = 100
)

// Reconciler compares a local balance with its external mirror.
type Reconciler interface {
	Reconcile(ctx context.Context, userID uuid.UUID) (local, remote int64, err error)
}

type WalletHandler struct {
	wallets    *wallet.Gateway
	reconciler Reconciler
}

// NewWalletHandler creates the wallet routes. reconciler may be nil when no mirror is configured.
func NewWalletHandler(wallets *wallet.Gateway, reconciler Reconciler) *WalletHandler {
	return &WalletHandler{wallets: wallets, reconciler: reconciler}
}

func (h *WalletHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetWallet)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Post("/deposit", h.Deposit)
		r.Get("/{userID}/reconcile", h.Reconcile)
	})

	return r
}

// GetWallet returns the caller's balance and most recent ledger entries
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	limit := defaultTransactionLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= maxTransactionLimit {
			limit = parsed
		}
	}

	balance, err := h.wallets.Balance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := h.wallets.Transactions(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []models.WalletTransaction{}
	}

	writeJSONResponse(w, http.StatusOK, dto.WalletView{
		UserID:       userID,
		Balance:      balance,
		Transactions: txs,
	})
}

// DepositRequest funds a player's wallet
type DepositRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Amount int64     `json:"amount" validate:"required,gt=0"`
}

// Deposit credits a wallet. Admin only.
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	balance, err := h.wallets.Deposit(r.Context(), req.UserID, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, dto.WalletView{UserID: req.UserID, Balance: balance})
}

// Reconcile reports a player's local and mirrored balances. Admin only.
func (h *WalletHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if h.reconciler == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "LEDGER_MIRROR_DISABLED", "Ledger mirror is not configured")
		return
	}
	userID, err := validation.ParseUUID("user_id", chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	local, remote, err := h.reconciler.Reconcile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"user_id":        userID,
		"balance":        local,
		"mirror_balance": remote,
		"in_sync":        local == remote,
	})
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/auth"
	"github.com/anhbaysgalan1/teenpatti/internal/database/dbtest"
	"github.com/anhbaysgalan1/teenpatti/internal/engine"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/cards"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/anhbaysgalan1/teenpatti/internal/services"
	"github.com/anhbaysgalan1/teenpatti/internal/wallet"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReconciler struct {
	remote int64
}

func (s stubReconciler) Reconcile(_ context.Context, _ uuid.UUID) (int64, int64, error) {
	return 250, s.remote, nil
}

type apiHarness struct {
	t          *testing.T
	reconciler Reconciler
	router     chi.Router
	jwt        *auth.JWTManager
	wallets    *wallet.Gateway
}

func newAPIHarness(t *testing.T, opts ...func(*apiHarness)) *apiHarness {
	t.Helper()
	h := &apiHarness{t: t}
	for _, opt := range opts {
		opt(h)
	}
	db := dbtest.New(t)
	wallets := wallet.NewGateway(db.DB)
	results := services.NewResultService(db)
	eng := engine.NewTeenPattiEngine(db.DB, wallets, results, engine.WithDeckSource(cards.NewSeededSource(11)))
	t.Cleanup(eng.Close)
	tables := services.NewTableService(db, wallets, eng, nil)

	jwtManager := auth.NewJWTManager("test-secret", "teenpatti-test")
	authMiddleware := auth.NewAuthMiddleware(jwtManager)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.OptionalAuth)
			r.Mount("/tables", NewTableHandler(tables).Routes())
		})
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Mount("/games", NewGameHandler(eng, results).Routes())
			r.Mount("/wallet", NewWalletHandler(wallets, h.reconciler).Routes())
		})
	})

	h.router, h.jwt, h.wallets = r, jwtManager, wallets
	return h
}

func (h *apiHarness) token(userID uuid.UUID, role string) string {
	token, err := h.jwt.GenerateToken(userID, "user-"+userID.String()[:6], role)
	require.NoError(h.t, err)
	return token
}

func (h *apiHarness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[map[string]string](t, rec)
	assert.Equal(t, code, body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestTableHandlers(t *testing.T) {
	h := newAPIHarness(t)
	owner := uuid.New()
	ownerToken := h.token(owner, auth.RolePlayer)

	create := map[string]interface{}{"name": "Evening Table", "min_players": 2, "max_players": 4, "min_bet": 10, "max_bet": 100}
	rec := h.do(http.MethodPost, "/api/v1/tables", "", create)
	assertErrorCode(t, rec, http.StatusUnauthorized, "AUTH_REQUIRED")

	rec = h.do(http.MethodPost, "/api/v1/tables", ownerToken, map[string]interface{}{"name": "x", "min_players": 2, "max_players": 4, "min_bet": 10, "max_bet": 100})
	assertErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_FAILED")

	rec = h.do(http.MethodPost, "/api/v1/tables", ownerToken, create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	table := decode[models.Table](t, rec)
	assert.Equal(t, owner, table.CreatedBy)
	assert.Equal(t, models.TableStatusWaiting, table.Status)

	rec = h.do(http.MethodPost, "/api/v1/tables", ownerToken, create)
	assertErrorCode(t, rec, http.StatusConflict, "TABLE_NAME_TAKEN")

	rec = h.do(http.MethodGet, "/api/v1/tables", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listing := decode[struct {
		Tables []models.Table `json:"tables"`
		Total  int            `json:"total"`
	}](t, rec)
	assert.Equal(t, 1, listing.Total)

	rec = h.do(http.MethodGet, "/api/v1/tables/not-a-uuid", "", nil)
	assertErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_FAILED")

	rec = h.do(http.MethodGet, "/api/v1/tables/"+uuid.NewString(), "", nil)
	assertErrorCode(t, rec, http.StatusNotFound, "TABLE_NOT_FOUND")

	rec = h.do(http.MethodPost, "/api/v1/tables/"+table.ID.String()+"/join", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	joined := decode[dto.JoinTableView](t, rec)
	assert.Equal(t, 1, joined.SeatNumber)
	assert.NotEqual(t, uuid.Nil, joined.GameID)
}

func TestGameHandlers_PlayRound(t *testing.T) {
	h := newAPIHarness(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	tokenA, tokenB := h.token(a, auth.RolePlayer), h.token(b, auth.RolePlayer)
	for _, u := range []uuid.UUID{a, b} {
		_, err := h.wallets.Deposit(ctx, u, 100)
		require.NoError(t, err)
	}

	rec := h.do(http.MethodPost, "/api/v1/tables", tokenA, map[string]interface{}{"name": "Duel", "min_players": 2, "max_players": 2, "min_bet": 10, "max_bet": 50})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	table := decode[models.Table](t, rec)

	rec = h.do(http.MethodPost, "/api/v1/tables/"+table.ID.String()+"/join", tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	gameID := decode[dto.JoinTableView](t, rec).GameID
	rec = h.do(http.MethodPost, "/api/v1/tables/"+table.ID.String()+"/join", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	gamePath := "/api/v1/games/" + gameID.String()

	rec = h.do(http.MethodGet, gamePath, tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[dto.GameStateView](t, rec)
	assert.Equal(t, models.GameStateBetting, state.State)
	require.Len(t, state.Players, 2)
	for _, p := range state.Players {
		if p.UserID == b {
			assert.Len(t, p.Cards, 3)
		} else {
			assert.Empty(t, p.Cards, "opponent cards are hidden")
		}
	}

	rec = h.do(http.MethodPost, gamePath+"/bets", tokenB, map[string]interface{}{"bet_type": "blind"})
	assertErrorCode(t, rec, http.StatusConflict, "NOT_YOUR_TURN")

	rec = h.do(http.MethodPost, gamePath+"/bets", tokenA, map[string]interface{}{"bet_type": "raise"})
	assertErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_FAILED")

	rec = h.do(http.MethodPost, gamePath+"/bets", tokenA, map[string]interface{}{"bet_type": "chaal", "bet_amount": 500})
	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_BET_AMOUNT")

	rec = h.do(http.MethodPost, gamePath+"/bets", tokenA, map[string]interface{}{"bet_type": "blind", "bet_amount": 10})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	afterBlind := decode[struct {
		GameState dto.GameStateView `json:"game_state"`
	}](t, rec)
	assert.Equal(t, int64(10), afterBlind.GameState.Pot)
	assert.Equal(t, b, *afterBlind.GameState.CurrentPlayerTurn)

	rec = h.do(http.MethodPost, gamePath+"/bets", tokenB, map[string]interface{}{"bet_type": "pack"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, gamePath+"/bets", tokenA, map[string]interface{}{"bet_type": "blind"})
	assertErrorCode(t, rec, http.StatusConflict, "NOT_YOUR_TURN")

	rec = h.do(http.MethodGet, gamePath+"/results", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[struct {
		Results []dto.ResultView `json:"results"`
	}](t, rec)
	require.Len(t, results.Results, 2)
	assert.Equal(t, a, results.Results[0].UserID)
	assert.True(t, results.Results[0].IsWinner)
	assert.Empty(t, results.Results[0].FinalHand, "fold-out keeps the winner's hand hidden")
	assert.Len(t, results.Results[1].FinalHand, 3)

	outsider := h.token(uuid.New(), auth.RolePlayer)
	rec = h.do(http.MethodGet, gamePath+"/results", outsider, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	raw := decode[struct {
		Results []map[string]interface{} `json:"results"`
	}](t, rec)
	require.Len(t, raw.Results, 2)
	for _, r := range raw.Results {
		assert.NotContains(t, r, "final_hand")
		assert.NotContains(t, r, "hand_rank")
		assert.NotContains(t, r, "strength")
	}

	rec = h.do(http.MethodGet, "/api/v1/games/"+uuid.NewString()+"/results", tokenA, nil)
	assertErrorCode(t, rec, http.StatusNotFound, "GAME_NOT_FOUND")

	rec = h.do(http.MethodGet, "/api/v1/games/"+uuid.NewString(), tokenA, nil)
	assertErrorCode(t, rec, http.StatusNotFound, "GAME_NOT_FOUND")

	rec = h.do(http.MethodGet, gamePath, "", nil)
	assertErrorCode(t, rec, http.StatusUnauthorized, "AUTH_REQUIRED")
}

func TestWalletHandlers(t *testing.T) {
	h := newAPIHarness(t)
	player := uuid.New()
	playerToken := h.token(player, auth.RolePlayer)
	adminToken := h.token(uuid.New(), auth.RoleAdmin)

	rec := h.do(http.MethodGet, "/api/v1/wallet", playerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[dto.WalletView](t, rec)
	assert.Zero(t, view.Balance)
	assert.Empty(t, view.Transactions)

	deposit := map[string]interface{}{"user_id": player, "amount": 250}
	rec = h.do(http.MethodPost, "/api/v1/wallet/deposit", playerToken, deposit)
	assertErrorCode(t, rec, http.StatusForbidden, "FORBIDDEN")

	rec = h.do(http.MethodPost, "/api/v1/wallet/deposit", adminToken, map[string]interface{}{"user_id": player, "amount": 0})
	assertErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_FAILED")

	rec = h.do(http.MethodPost, "/api/v1/wallet/deposit", adminToken, deposit)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(250), decode[dto.WalletView](t, rec).Balance)

	rec = h.do(http.MethodGet, "/api/v1/wallet?limit=5", playerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[dto.WalletView](t, rec)
	assert.Equal(t, int64(250), view.Balance)
	require.Len(t, view.Transactions, 1)
	assert.Equal(t, wallet.ReasonDeposit, view.Transactions[0].Reason)
}

func TestWalletHandlers_Reconcile(t *testing.T) {
	h := newAPIHarness(t)
	adminToken := h.token(uuid.New(), auth.RoleAdmin)
	path := "/api/v1/wallet/" + uuid.NewString() + "/reconcile"

	rec := h.do(http.MethodGet, path, adminToken, nil)
	assertErrorCode(t, rec, http.StatusServiceUnavailable, "LEDGER_MIRROR_DISABLED")

	h = newAPIHarness(t, func(h *apiHarness) { h.reconciler = stubReconciler{remote: 200} })
	adminToken = h.token(uuid.New(), auth.RoleAdmin)

	rec = h.do(http.MethodGet, path, h.token(uuid.New(), auth.RolePlayer), nil)
	assertErrorCode(t, rec, http.StatusForbidden, "FORBIDDEN")

	rec = h.do(http.MethodGet, "/api/v1/wallet/nope/reconcile", adminToken, nil)
	assertErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_FAILED")

	rec = h.do(http.MethodGet, path, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		Balance       int64 `json:"balance"`
		MirrorBalance int64 `json:"mirror_balance"`
		InSync        bool  `json:"in_sync"`
	}](t, rec)
	assert.Equal(t, int64(250), body.Balance)
	assert.Equal(t, int64(200), body.MirrorBalance)
	assert.False(t, body.InSync)
}

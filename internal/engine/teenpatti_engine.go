package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/cards"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/game"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/repositories"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/anhbaysgalan1/teenpatti/internal/wallet"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeenPattiEngine implements Engine on top of GORM. Each action runs in one transaction that
// holds the game row lock; the stored version must still match when the game is written back.
type TeenPattiEngine struct {
	db        *gorm.DB
	games     *repositories.GameRepository
	wallets   Wallets
	results   ResultRecorder
	notifiers []Notifier
	newDeck   func() *cards.Deck
	clock     quartz.Clock
	timeout   time.Duration
	timer     *TurnTimer
}

var _ Engine = (*TeenPattiEngine)(nil)

// Option configures the engine.
type Option func(*TeenPattiEngine)

// WithDeckSource shuffles with src instead of crypto/rand.
func WithDeckSource(src cards.Source) Option {
	return func(e *TeenPattiEngine) {
		e.newDeck = func() *cards.Deck { return cards.NewShuffledDeck(src) }
	}
}

// WithDeckFactory deals from decks built by f.
func WithDeckFactory(f func() *cards.Deck) Option {
	return func(e *TeenPattiEngine) { e.newDeck = f }
}

// WithClock sets the clock used for timestamps and turn timeouts.
func WithClock(clock quartz.Clock) Option {
	return func(e *TeenPattiEngine) { e.clock = clock }
}

// WithTurnTimeout packs a player automatically after d of inactivity. Zero disables it.
func WithTurnTimeout(d time.Duration) Option {
	return func(e *TeenPattiEngine) { e.timeout = d }
}

// WithNotifier registers n for committed game changes.
func WithNotifier(n Notifier) Option {
	return func(e *TeenPattiEngine) { e.notifiers = append(e.notifiers, n) }
}

// NewTeenPattiEngine creates the engine.
func NewTeenPattiEngine(db *gorm.DB, wallets Wallets, results ResultRecorder, opts ...Option) *TeenPattiEngine {
	e := &TeenPattiEngine{
		db:      db,
		games:   repositories.NewGameRepository(db),
		wallets: wallets,
		results: results,
		newDeck: func() *cards.Deck { return cards.NewShuffledDeck(nil) },
		clock:   quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.timeout > 0 {
		e.timer = NewTurnTimer(e.clock, e.timeout, e.onTurnExpired)
	}
	return e
}

// Close stops pending turn timeouts.
func (e *TeenPattiEngine) Close() {
	if e.timer != nil {
		e.timer.Stop()
	}
}

func (e *TeenPattiEngine) now() time.Time {
	return e.clock.Now().UTC()
}

// loadRound reads the table and players for a game already loaded within tx.
func (e *TeenPattiEngine) loadRound(ctx context.Context, tx *gorm.DB, g *models.Game) (*game.Round, error) {
	table, err := e.games.GetTable(ctx, tx, g.TableID)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", g.TableID, err)
	}
	rows, err := e.games.Players(ctx, tx, g.ID)
	if err != nil {
		return nil, err
	}

	players := make([]*models.Player, len(rows))
	for i := range rows {
		players[i] = &rows[i]
	}
	round := game.NewRound(g, table, players)
	round.Now = e.now
	return round, nil
}

func (e *TeenPattiEngine) lockGame(ctx context.Context, tx *gorm.DB, gameID uuid.UUID) (*models.Game, error) {
	g, err := e.games.LockGame(ctx, tx, gameID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock game: %w", err)
	}
	return g, nil
}

func (e *TeenPattiEngine) saveGame(ctx context.Context, tx *gorm.DB, g *models.Game, expectedVersion int64) error {
	err := e.games.SaveGame(ctx, tx, g, expectedVersion)
	if errors.Is(err, repositories.ErrStaleVersion) {
		return ErrConcurrentModification
	}
	return err
}

func (e *TeenPattiEngine) checkInvariants(round *game.Round) error {
	if err := round.CheckInvariants(); err != nil {
		slog.Error("Game invariant violated", "game_id", round.Game.ID, "version", round.Game.Version, "error", err)
		return err
	}
	return nil
}

// StartGame deals the waiting game. It runs in the caller's transaction so the join that filled
// the table and the deal commit together.
func (e *TeenPattiEngine) StartGame(ctx context.Context, tx *gorm.DB, gameID uuid.UUID) error {
	g, err := e.lockGame(ctx, tx, gameID)
	if err != nil {
		return err
	}
	round, err := e.loadRound(ctx, tx, g)
	if err != nil {
		return err
	}

	expected := g.Version
	if err := round.Deal(e.newDeck()); err != nil {
		if errors.Is(err, cards.ErrDeckExhausted) {
			slog.Error("Deck exhausted while dealing", "game_id", gameID, "players", len(round.Players))
		}
		return err
	}
	if err := e.checkInvariants(round); err != nil {
		return err
	}

	for _, p := range round.Players {
		if err := e.games.SavePlayer(ctx, tx, p); err != nil {
			return err
		}
	}
	if err := e.saveGame(ctx, tx, g, expected); err != nil {
		return err
	}

	round.Table.Status = models.TableStatusActive
	if err := e.games.UpdateTable(ctx, tx, round.Table); err != nil {
		return err
	}

	slog.Info("Game started", "game_id", g.ID, "table_id", g.TableID, "players", len(round.Players), "first_turn", *g.CurrentPlayerTurn)
	return nil
}

// PlaceAction validates and applies one action. Rejected actions change nothing.
func (e *TeenPattiEngine) PlaceAction(ctx context.Context, cmd dto.PlaceActionCommand) (*dto.GameStateView, error) {
	var (
		committed *models.Game
		players   []models.Player
	)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := e.lockGame(ctx, tx, cmd.GameID)
		if err != nil {
			return err
		}
		if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != g.Version {
			return ErrConcurrentModification
		}

		round, err := e.loadRound(ctx, tx, g)
		if err != nil {
			return err
		}

		expected := g.Version
		effect, err := round.Apply(game.Action{UserID: cmd.UserID, Type: cmd.BetType, Amount: cmd.Amount})
		if err != nil {
			return err
		}

		if effect.Debit > 0 {
			if _, err := e.wallets.Ledger(tx).Debit(ctx, cmd.UserID, effect.Debit, wallet.ReasonBet, &g.ID); err != nil {
				return err
			}
		}
		if err := e.games.AppendBet(ctx, tx, &effect.Bet); err != nil {
			return err
		}
		if effect.Settlement != nil {
			if err := e.settle(ctx, tx, round, effect.Settlement); err != nil {
				return err
			}
		}
		if err := e.checkInvariants(round); err != nil {
			return err
		}

		if err := e.games.SavePlayer(ctx, tx, effect.Player); err != nil {
			return err
		}
		if err := e.saveGame(ctx, tx, g, expected); err != nil {
			return err
		}

		slog.Info("Action applied",
			"game_id", g.ID,
			"user_id", cmd.UserID,
			"bet_type", cmd.BetType,
			"amount", effect.Debit,
			"pot", g.Pot,
			"version", g.Version)

		committed = g
		players = make([]models.Player, len(round.Players))
		for i, p := range round.Players {
			players[i] = *p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.afterCommit(ctx, committed)
	return dto.NewGameStateView(committed, players, cmd.UserID), nil
}

// settle pays the pot out, records results and frees the table for its next game.
func (e *TeenPattiEngine) settle(ctx context.Context, tx *gorm.DB, round *game.Round, s *game.Settlement) error {
	g := round.Game
	ledger := e.wallets.Ledger(tx)

	for _, w := range s.Winners {
		payout := s.Payout(w.UserID)
		if payout == 0 {
			continue
		}
		if _, err := ledger.Credit(ctx, w.UserID, payout, wallet.ReasonPayout, &g.ID); err != nil {
			slog.Error("Failed to credit winner", "game_id", g.ID, "user_id", w.UserID, "amount", payout, "error", err)
			return err
		}
	}

	for i := range s.Results {
		if err := e.results.RecordResult(ctx, tx, &s.Results[i]); err != nil {
			return err
		}
	}

	round.Table.Status = models.TableStatusWaiting
	round.Table.CurrentPlayerCount = 0
	if err := e.games.UpdateTable(ctx, tx, round.Table); err != nil {
		return err
	}

	slog.Info("Game settled",
		"game_id", g.ID,
		"winner_id", *g.WinnerID,
		"pot", g.Pot,
		"split", g.IsSplitPot,
		"showdown", s.Showdown)
	return nil
}

// GameState returns the current state redacted for viewerID.
func (e *TeenPattiEngine) GameState(ctx context.Context, gameID, viewerID uuid.UUID) (*dto.GameStateView, error) {
	g, err := e.games.GetGame(ctx, nil, gameID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	players, err := e.games.Players(ctx, nil, gameID)
	if err != nil {
		return nil, err
	}
	return dto.NewGameStateView(g, players, viewerID), nil
}

// Committed notifies listeners and re-arms the turn timeout for a change committed elsewhere.
func (e *TeenPattiEngine) Committed(ctx context.Context, gameID uuid.UUID) {
	g, err := e.games.GetGame(ctx, nil, gameID)
	if err != nil {
		slog.Warn("Failed to reload committed game", "game_id", gameID, "error", err)
		return
	}
	e.afterCommit(ctx, g)
}

func (e *TeenPattiEngine) afterCommit(ctx context.Context, g *models.Game) {
	if e.timer != nil {
		if g.State == models.GameStateBetting && g.CurrentPlayerTurn != nil {
			e.timer.Arm(g.ID, *g.CurrentPlayerTurn, g.Version)
		} else {
			e.timer.Cancel(g.ID)
		}
	}
	for _, n := range e.notifiers {
		n.GameUpdated(ctx, g.ID)
	}
}

// onTurnExpired packs the idle player through the normal action path. The version pins the
// timeout to the turn it was armed for.
func (e *TeenPattiEngine) onTurnExpired(gameID, userID uuid.UUID, version int64) {
	ctx := context.Background()
	_, err := e.PlaceAction(ctx, dto.PlaceActionCommand{
		GameID:          gameID,
		UserID:          userID,
		BetType:         models.BetTypePack,
		ExpectedVersion: &version,
	})
	switch {
	case err == nil:
		slog.Info("Player packed after turn timeout", "game_id", gameID, "user_id", userID)
	case errors.Is(err, ErrConcurrentModification), errors.Is(err, ErrNotYourTurn):
		slog.Debug("Stale turn timeout ignored", "game_id", gameID, "user_id", userID, "version", version)
	default:
		slog.Error("Turn timeout pack failed", "game_id", gameID, "user_id", userID, "error", err)
	}
}

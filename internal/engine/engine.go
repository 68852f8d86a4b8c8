package engine

import (
	"context"

	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/anhbaysgalan1/teenpatti/internal/wallet"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Engine runs the Teen Patti state machine for every game.
type Engine interface {
	// StartGame deals the waiting game inside the caller's transaction.
	StartGame(ctx context.Context, tx *gorm.DB, gameID uuid.UUID) error
	// PlaceAction applies one player action atomically and returns the actor's view.
	PlaceAction(ctx context.Context, cmd dto.PlaceActionCommand) (*dto.GameStateView, error)
	// GameState returns the game as viewerID may see it.
	GameState(ctx context.Context, gameID, viewerID uuid.UUID) (*dto.GameStateView, error)
	// Committed must be called after a transaction that touched gameID commits.
	Committed(ctx context.Context, gameID uuid.UUID)
}

// Wallets hands out a ledger bound to the action's transaction. A failing ledger aborts the
// whole action.
type Wallets interface {
	Ledger(tx *gorm.DB) wallet.Ledger
}

// ResultRecorder persists one settled participant. It runs inside the settlement transaction.
type ResultRecorder interface {
	RecordResult(ctx context.Context, tx *gorm.DB, result *models.GameResult) error
}

// Notifier is told about every committed game change.
type Notifier interface {
	GameUpdated(ctx context.Context, gameID uuid.UUID)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, gameID uuid.UUID)

func (f NotifierFunc) GameUpdated(ctx context.Context, gameID uuid.UUID) {
	f(ctx, gameID)
}

package engine

import (
	"errors"

	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/cards"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/game"
)

var (
	ErrGameNotFound           = errors.New("game not found")
	ErrConcurrentModification = errors.New("game was modified concurrently, retry")

	// Rule errors surface unchanged from the rules package.
	ErrNotYourTurn        = game.ErrNotYourTurn
	ErrAlreadyFolded      = game.ErrAlreadyFolded
	ErrPlayerNotInGame    = game.ErrPlayerNotInGame
	ErrInvalidBetAmount   = game.ErrInvalidBetAmount
	ErrInvalidAction      = game.ErrInvalidAction
	ErrCannotStartGame    = game.ErrCannotStartGame
	ErrInvariantViolation = game.ErrInvariantViolation
	ErrDeckExhausted      = cards.ErrDeckExhausted
)

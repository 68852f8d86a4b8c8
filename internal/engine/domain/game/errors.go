package game

import "errors"

var (
	ErrNotYourTurn        = errors.New("not player's turn")
	ErrAlreadyFolded      = errors.New("player has already folded")
	ErrPlayerNotInGame    = errors.New("player not in game")
	ErrInvalidBetAmount   = errors.New("invalid bet amount")
	ErrInvalidAction      = errors.New("invalid action")
	ErrCannotStartGame    = errors.New("cannot start game")
	ErrInvariantViolation = errors.New("game invariant violated")
)

package dto

import (
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
)

// Commands carry a validated request into the services and the engine.
type CreateTableCommand struct {
	Name       string    `json:"name" validate:"required,min=3,max=100,table_name"`
	EntryFee   int64     `json:"entry_fee" validate:"min=0"`
	MinPlayers int       `json:"min_players" validate:"required,min=2,max=6"`
	MaxPlayers int       `json:"max_players" validate:"required,min=2,max=6,gtefield=MinPlayers"`
	MinBet     int64     `json:"min_bet" validate:"required,min=1"`
	MaxBet     int64     `json:"max_bet" validate:"required,gtefield=MinBet"`
	IsPrivate  bool      `json:"is_private"`
	Password   string    `json:"password,omitempty" validate:"required_if=IsPrivate true,max=72"`
	CreatedBy  uuid.UUID `json:"-"`
}

type JoinTableCommand struct {
	TableID  uuid.UUID `json:"-"`
	UserID   uuid.UUID `json:"-"`
	Password string    `json:"password,omitempty"`
}

type PlaceActionCommand struct {
	GameID  uuid.UUID      `json:"-"`
	UserID  uuid.UUID      `json:"-"`
	BetType models.BetType `json:"bet_type" validate:"required,bet_type"`
	Amount  int64          `json:"bet_amount" validate:"min=0"`
	// ExpectedVersion rejects the action if the game moved on since the caller looked.
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

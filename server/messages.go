package server

import (
	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
)

// inbound (client) actions
const (
	actionPlaceBet string = "place-bet"
	actionGetState string = "get-state"
)

type base struct {
	// allows for correctly identifying messages
	Action string `json:"action"`
}

type placeBet struct {
	base                           // actionPlaceBet
	BetType         models.BetType `json:"bet_type"`
	Amount          int64          `json:"bet_amount"`
	ExpectedVersion *int64         `json:"expected_version,omitempty"`
}

// outbound (server) actions
const (
	actionUpdateGame string = "update-game"
	actionError      string = "error"
)

type updateGame struct {
	base                     // actionUpdateGame
	Game *dto.GameStateView `json:"game"`
}

type actionFailed struct {
	base          // actionError
	Error  string `json:"error"`
	Action string `json:"failed_action,omitempty"`
}

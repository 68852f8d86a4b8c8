package models

import (
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/cards"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GameResult is the settled outcome for one participant. Written once per (game, user).
type GameResult struct {
	ID         uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	GameID     uuid.UUID    `json:"game_id" gorm:"type:uuid;not null;uniqueIndex:idx_game_results_game_user"`
	UserID     uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_game_results_game_user;index"`
	FinalHand  []cards.Card `json:"final_hand" gorm:"serializer:json;type:text"`
	HandRank   string       `json:"hand_rank" gorm:"size:20"`
	Strength   int          `json:"strength"`
	TokensWon  int64        `json:"tokens_won" gorm:"not null;default:0"`
	TokensLost int64        `json:"tokens_lost" gorm:"not null;default:0"`
	Position   int          `json:"position" gorm:"not null"`
	IsWinner   bool         `json:"is_winner" gorm:"default:false"`
	CreatedAt  time.Time    `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate sets the ID if not already set
func (r *GameResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NetResult returns the signed chip result for the participant.
func (r *GameResult) NetResult() int64 {
	return r.TokensWon - r.TokensLost
}

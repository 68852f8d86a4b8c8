package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BetType is the action a player takes on their turn.
type BetType string

const (
	BetTypeBlind BetType = "blind"
	BetTypeChaal BetType = "chaal"
	BetTypePack  BetType = "pack"
	BetTypeShow  BetType = "show"
)

// Bet is an append-only audit record of one accepted action.
type Bet struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	GameID    uuid.UUID `json:"game_id" gorm:"type:uuid;not null;uniqueIndex:idx_bets_game_seq"`
	PlayerID  uuid.UUID `json:"player_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	BetType   BetType   `json:"bet_type" gorm:"type:varchar(10);not null"`
	Amount    int64     `json:"amount" gorm:"not null;default:0"`
	PotBefore int64     `json:"pot_before" gorm:"not null"`
	PotAfter  int64     `json:"pot_after" gorm:"not null"`
	Sequence  int64     `json:"sequence" gorm:"not null;uniqueIndex:idx_bets_game_seq"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate sets the ID if not already set
func (b *Bet) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate rejects any update; bets are immutable.
func (b *Bet) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrInvalidData
}

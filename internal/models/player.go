package models

import (
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/cards"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlayerStatus string

const (
	PlayerStatusActive     PlayerStatus = "active"
	PlayerStatusFolded     PlayerStatus = "folded"
	PlayerStatusSittingOut PlayerStatus = "sitting_out"
)

// Player is one user's seat in one game. Rows are never deleted.
type Player struct {
	ID                uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	GameID            uuid.UUID    `json:"game_id" gorm:"type:uuid;not null;uniqueIndex:idx_players_game_seat;uniqueIndex:idx_players_game_user"`
	UserID            uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_players_game_user;index"`
	SeatNumber        int          `json:"seat_number" gorm:"not null;uniqueIndex:idx_players_game_seat"`
	ChipsInGame       int64        `json:"chips_in_game" gorm:"not null;default:0"`
	Cards             []cards.Card `json:"cards,omitempty" gorm:"serializer:json;type:text"`
	IsFolded          bool         `json:"is_folded" gorm:"default:false"`
	IsSeen            bool         `json:"is_seen" gorm:"default:false"`
	CurrentBet        int64        `json:"current_bet" gorm:"not null;default:0"`
	TotalBetThisRound int64        `json:"total_bet_this_round" gorm:"not null;default:0"`
	LastAction        *BetType     `json:"last_action,omitempty" gorm:"type:varchar(10)"`
	Status            PlayerStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	FoldSeq           int64        `json:"-" gorm:"not null;default:0"`
	CreatedAt         time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate sets the ID if not already set
func (p *Player) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsInHand returns true if the player is still contesting the pot
func (p *Player) IsInHand() bool {
	return !p.IsFolded && p.Status == PlayerStatusActive
}

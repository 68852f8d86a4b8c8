package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GameState string

const (
	GameStateWaiting  GameState = "waiting"
	GameStateBetting  GameState = "betting"
	GameStateFinished GameState = "finished"
)

// Game is a single round at a table. It moves waiting -> betting -> finished exactly once.
type Game struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TableID           uuid.UUID  `json:"table_id" gorm:"type:uuid;not null;index"`
	State             GameState  `json:"state" gorm:"type:varchar(20);not null;default:'waiting';index"`
	Pot               int64      `json:"pot" gorm:"not null;default:0"`
	BootPot           int64      `json:"boot_pot" gorm:"not null;default:0"`
	CurrentBet        int64      `json:"current_bet" gorm:"not null;default:0"`
	CurrentPlayerTurn *uuid.UUID `json:"current_player_turn,omitempty" gorm:"type:uuid"`
	DeckCursor        int        `json:"deck_cursor" gorm:"not null;default:0"`
	Version           int64      `json:"version" gorm:"not null;default:0"`
	WinnerID          *uuid.UUID `json:"winner_id,omitempty" gorm:"type:uuid"`
	IsSplitPot        bool       `json:"is_split_pot" gorm:"default:false"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate sets the ID if not already set
func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// IsTurnOf reports whether userID holds the turn.
func (g *Game) IsTurnOf(userID uuid.UUID) bool {
	return g.CurrentPlayerTurn != nil && *g.CurrentPlayerTurn == userID
}

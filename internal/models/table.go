package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TableStatus string

const (
	// TableStatusWaiting means the table is filling seats for its next game.
	TableStatusWaiting TableStatus = "waiting"
	// TableStatusActive means a game is in play and no seats can be taken.
	TableStatusActive TableStatus = "active"
)

// Table is a long-lived Teen Patti table configuration
type Table struct {
	ID                 uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Name               string      `json:"name" gorm:"uniqueIndex;not null;size:100"`
	EntryFee           int64       `json:"entry_fee" gorm:"not null;default:0"`
	MinPlayers         int         `json:"min_players" gorm:"not null;default:2"`
	MaxPlayers         int         `json:"max_players" gorm:"not null;default:6"`
	MinBet             int64       `json:"min_bet" gorm:"not null"`
	MaxBet             int64       `json:"max_bet" gorm:"not null"`
	CurrentPlayerCount int         `json:"current_player_count" gorm:"not null;default:0"`
	Status             TableStatus `json:"status" gorm:"type:varchar(20);not null;default:'waiting';index"`
	IsPrivate          bool        `json:"is_private" gorm:"default:false"`
	PasswordHash       *string     `json:"-" gorm:"size:255"`
	CreatedBy          uuid.UUID   `json:"created_by" gorm:"type:uuid;not null;index"`
	CreatedAt          time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Table) TableName() string {
	return "game_tables"
}

// BeforeCreate sets the ID if not already set
func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsFull reports whether every seat of the open game is taken.
func (t *Table) IsFull() bool {
	return t.CurrentPlayerCount >= t.MaxPlayers
}

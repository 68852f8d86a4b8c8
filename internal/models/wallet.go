package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wallet holds a user's spendable balance in chips.
type Wallet struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	Balance   int64     `json:"balance" gorm:"not null;default:0;check:balance >= 0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type WalletTransactionType string

const (
	WalletTransactionDebit  WalletTransactionType = "debit"
	WalletTransactionCredit WalletTransactionType = "credit"
)

// WalletTransaction is an immutable ledger row. BalanceAfter is the balance once this row applied.
type WalletTransaction struct {
	ID           uuid.UUID             `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID             `json:"user_id" gorm:"type:uuid;not null;index"`
	Type         WalletTransactionType `json:"type" gorm:"type:varchar(10);not null"`
	Amount       int64                 `json:"amount" gorm:"not null"`
	BalanceAfter int64                 `json:"balance_after" gorm:"not null"`
	Reason       string                `json:"reason" gorm:"size:30;not null"`
	SessionID    *uuid.UUID            `json:"session_id,omitempty" gorm:"type:uuid;index"`
	ExternalID   *string               `json:"external_id,omitempty" gorm:"size:64"`
	SyncedAt     *time.Time            `json:"synced_at,omitempty" gorm:"index"`
	CreatedAt    time.Time             `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate sets the ID if not already set
func (wt *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if wt.ID == uuid.Nil {
		wt.ID = uuid.New()
	}
	return nil
}

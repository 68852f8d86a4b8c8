// Package wallet is the chip ledger. Every balance change writes one immutable
// wallet_transactions row carrying the balance after the change.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Ledger reasons recorded on wallet transactions.
const (
	ReasonEntryFee = "entry_fee"
	ReasonBet      = "bet"
	ReasonPayout   = "payout"
	ReasonDeposit  = "deposit"
)

// Ledger moves chips for one commit boundary. Balance checks and mutations are atomic per user.
type Ledger interface {
	Debit(ctx context.Context, userID uuid.UUID, amount int64, reason string, sessionID *uuid.UUID) (int64, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int64, reason string, sessionID *uuid.UUID) (int64, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Gateway hands out ledgers bound to a transaction.
type Gateway struct {
	db *gorm.DB
}

func NewGateway(db *gorm.DB) *Gateway {
	return &Gateway{db: db}
}

// Ledger returns a ledger that reads and writes through tx. A nil tx uses the gateway's pool.
func (g *Gateway) Ledger(tx *gorm.DB) Ledger {
	if tx == nil {
		tx = g.db
	}
	return &gormLedger{tx: tx}
}

// Deposit funds a wallet outside of any game.
func (g *Gateway) Deposit(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = g.Ledger(tx).Credit(ctx, userID, amount, ReasonDeposit, nil)
		return err
	})
	return balance, err
}

// Balance returns the current balance; a user without a wallet has zero.
func (g *Gateway) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return g.Ledger(nil).Balance(ctx, userID)
}

// Transactions returns the newest ledger rows for a user.
func (g *Gateway) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	var txs []models.WalletTransaction
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	return txs, nil
}

// Unsynced returns ledger rows not yet mirrored to the external ledger, oldest first.
func (g *Gateway) Unsynced(ctx context.Context, limit int) ([]models.WalletTransaction, error) {
	var txs []models.WalletTransaction
	err := g.db.WithContext(ctx).
		Where("synced_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced wallet transactions: %w", err)
	}
	return txs, nil
}

// MarkSynced stamps a ledger row with the external transaction ID.
func (g *Gateway) MarkSynced(ctx context.Context, id uuid.UUID, externalID string, at time.Time) error {
	err := g.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("id = ? AND synced_at IS NULL", id).
		Updates(map[string]interface{}{"external_id": externalID, "synced_at": at}).Error
	if err != nil {
		return fmt.Errorf("failed to mark wallet transaction synced: %w", err)
	}
	return nil
}

type gormLedger struct {
	tx *gorm.DB
}

func (l *gormLedger) Debit(ctx context.Context, userID uuid.UUID, amount int64, reason string, sessionID *uuid.UUID) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	// The guard and the decrement are one statement, so concurrent debits cannot overdraw.
	res := l.tx.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to debit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrInsufficientBalance
	}

	return l.record(ctx, userID, models.WalletTransactionDebit, amount, reason, sessionID)
}

func (l *gormLedger) Credit(ctx context.Context, userID uuid.UUID, amount int64, reason string, sessionID *uuid.UUID) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	err := l.tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"balance": gorm.Expr("wallets.balance + ?", amount)}),
		}).
		Create(&models.Wallet{UserID: userID, Balance: amount}).Error
	if err != nil {
		return 0, fmt.Errorf("failed to credit wallet: %w", err)
	}

	return l.record(ctx, userID, models.WalletTransactionCredit, amount, reason, sessionID)
}

func (l *gormLedger) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var w models.Wallet
	err := l.tx.WithContext(ctx).Where("user_id = ?", userID).Take(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read wallet balance: %w", err)
	}
	return w.Balance, nil
}

func (l *gormLedger) record(ctx context.Context, userID uuid.UUID, kind models.WalletTransactionType, amount int64, reason string, sessionID *uuid.UUID) (int64, error) {
	balance, err := l.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}

	row := models.WalletTransaction{
		UserID:       userID,
		Type:         kind,
		Amount:       amount,
		BalanceAfter: balance,
		Reason:       reason,
		SessionID:    sessionID,
	}
	if err := l.tx.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to append wallet transaction: %w", err)
	}
	return balance, nil
}

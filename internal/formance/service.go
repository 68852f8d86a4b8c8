package formance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/config"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
)

const syncBatchSize = 100

// WalletSource is the local ledger the mirror drains.
type WalletSource interface {
	Unsynced(ctx context.Context, limit int) ([]models.WalletTransaction, error)
	MarkSynced(ctx context.Context, id uuid.UUID, externalID string, at time.Time) error
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Service mirrors committed wallet transactions into the external double-entry ledger. It runs
// outside any game transaction; rows left unsynced are retried on the next tick.
type Service struct {
	client   *Client
	wallets  WalletSource
	currency string
	interval time.Duration
	now      func() time.Time
}

func NewService(cfg *config.Config, wallets WalletSource) *Service {
	return &Service{
		client:   NewClient(cfg),
		wallets:  wallets,
		currency: cfg.FormanceCurrency,
		interval: cfg.LedgerSyncInterval,
		now:      time.Now,
	}
}

// Initialize checks the ledger is reachable.
func (s *Service) Initialize(ctx context.Context) error {
	if err := s.client.CheckLedger(ctx); err != nil {
		return fmt.Errorf("failed to initialize ledger mirror: %w", err)
	}
	slog.Info("Formance service initialized")
	return nil
}

// Sync posts one batch of unsynced wallet transactions and returns how many were mirrored.
// It stops at the first failure so rows are mirrored in commit order.
func (s *Service) Sync(ctx context.Context) (int, error) {
	pending, err := s.wallets.Unsynced(ctx, syncBatchSize)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, tx := range pending {
		externalID, err := s.client.CreateTransaction(ctx, tx.ID.String(), PostingsFor(tx, s.currency), metadataFor(tx))
		if errors.Is(err, ErrConflict) {
			// Posted before a previous MarkSynced was lost.
			externalID = "ref:" + tx.ID.String()
		} else if err != nil {
			return synced, fmt.Errorf("failed to mirror wallet transaction %s: %w", tx.ID, err)
		}

		if err := s.wallets.MarkSynced(ctx, tx.ID, externalID, s.now()); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

// Run syncs on every interval until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Ledger mirror started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.Sync(ctx)
			if err != nil {
				slog.Error("Ledger mirror sync failed", "synced", n, "error", err)
				continue
			}
			if n > 0 {
				slog.Info("Ledger mirror synced", "count", n)
			}
		}
	}
}

// Reconcile compares a player's local balance with the mirrored one. Unsynced rows make the
// two differ until the next tick.
func (s *Service) Reconcile(ctx context.Context, userID uuid.UUID) (local, remote int64, err error) {
	local, err = s.wallets.Balance(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	remote, err = s.client.GetBalance(ctx, PlayerWalletAccount(userID))
	if err != nil {
		return 0, 0, err
	}
	if local != remote {
		slog.Warn("Ledger mirror out of step", "user_id", userID, "local", local, "remote", remote)
	}
	return local, remote, nil
}

func metadataFor(tx models.WalletTransaction) map[string]string {
	md := map[string]string{
		"wallet_transaction_id": tx.ID.String(),
		"user_id":               tx.UserID.String(),
		"reason":                tx.Reason,
		"type":                  string(tx.Type),
	}
	if tx.SessionID != nil {
		md["game_id"] = tx.SessionID.String()
	}
	return md
}

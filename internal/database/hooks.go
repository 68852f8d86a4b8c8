package database

import (
	"log/slog"
)

// SetupIndexes creates partial indexes that GORM struct tags can't express
func (db *DB) SetupIndexes() error {
	slog.Info("Setting up additional database indexes")

	// A table has at most one game that is not finished
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_games_open_per_table
		ON games(table_id)
		WHERE state <> 'finished'
	`).Error; err != nil {
		return err
	}

	// Ledger mirror scans for rows not yet pushed
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_wallet_transactions_unsynced
		ON wallet_transactions(created_at)
		WHERE synced_at IS NULL
	`).Error; err != nil {
		return err
	}

	// Waiting-table listing
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_game_tables_waiting
		ON game_tables(created_at DESC)
		WHERE status = 'waiting'
	`).Error; err != nil {
		return err
	}

	slog.Info("Additional database indexes created successfully")
	return nil
}

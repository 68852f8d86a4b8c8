package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrStaleVersion = errors.New("row version changed")
)

// GameRepository persists tables, games, players and bets. Every method takes the transaction it
// must run in; a nil tx runs against the repository's pool.
type GameRepository struct {
	db *gorm.DB
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// LockGame reads a game and holds its row lock until tx ends.
func (r *GameRepository) LockGame(ctx context.Context, tx *gorm.DB, gameID uuid.UUID) (*models.Game, error) {
	var g models.Game
	err := r.conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", gameID).
		Take(&g).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// GetGame reads a game without locking.
func (r *GameRepository) GetGame(ctx context.Context, tx *gorm.DB, gameID uuid.UUID) (*models.Game, error) {
	var g models.Game
	if err := r.conn(ctx, tx).Where("id = ?", gameID).Take(&g).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// OpenGame returns the table's game that has not finished yet.
func (r *GameRepository) OpenGame(ctx context.Context, tx *gorm.DB, tableID uuid.UUID) (*models.Game, error) {
	var g models.Game
	err := r.conn(ctx, tx).
		Where("table_id = ? AND state <> ?", tableID, models.GameStateFinished).
		Take(&g).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (r *GameRepository) CreateGame(ctx context.Context, tx *gorm.DB, g *models.Game) error {
	if err := r.conn(ctx, tx).Create(g).Error; err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// SaveGame writes g if the stored version still equals expectedVersion.
func (r *GameRepository) SaveGame(ctx context.Context, tx *gorm.DB, g *models.Game, expectedVersion int64) error {
	res := r.conn(ctx, tx).
		Model(g).
		Where("version = ?", expectedVersion).
		Select("*").
		Omit("ID", "CreatedAt").
		Updates(g)
	if res.Error != nil {
		return fmt.Errorf("failed to save game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: game %s expected version %d", ErrStaleVersion, g.ID, expectedVersion)
	}
	return nil
}

// LockTable reads a table and holds its row lock until tx ends.
func (r *GameRepository) LockTable(ctx context.Context, tx *gorm.DB, tableID uuid.UUID) (*models.Table, error) {
	var t models.Table
	err := r.conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", tableID).
		Take(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *GameRepository) GetTable(ctx context.Context, tx *gorm.DB, tableID uuid.UUID) (*models.Table, error) {
	var t models.Table
	if err := r.conn(ctx, tx).Where("id = ?", tableID).Take(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// UpdateTable writes the seat count and status of t.
func (r *GameRepository) UpdateTable(ctx context.Context, tx *gorm.DB, t *models.Table) error {
	err := r.conn(ctx, tx).
		Model(t).
		Updates(map[string]interface{}{
			"current_player_count": t.CurrentPlayerCount,
			"status":               t.Status,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update table: %w", err)
	}
	return nil
}

// Players returns the game's players in seat order.
func (r *GameRepository) Players(ctx context.Context, tx *gorm.DB, gameID uuid.UUID) ([]models.Player, error) {
	var players []models.Player
	err := r.conn(ctx, tx).
		Where("game_id = ?", gameID).
		Order("seat_number ASC").
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	return players, nil
}

func (r *GameRepository) CreatePlayer(ctx context.Context, tx *gorm.DB, p *models.Player) error {
	if err := r.conn(ctx, tx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *GameRepository) SavePlayer(ctx context.Context, tx *gorm.DB, p *models.Player) error {
	if err := r.conn(ctx, tx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

// AppendBet inserts an immutable bet record.
func (r *GameRepository) AppendBet(ctx context.Context, tx *gorm.DB, b *models.Bet) error {
	if err := r.conn(ctx, tx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to append bet: %w", err)
	}
	return nil
}

// Bets returns the game's bet log in order.
func (r *GameRepository) Bets(ctx context.Context, tx *gorm.DB, gameID uuid.UUID) ([]models.Bet, error) {
	var bets []models.Bet
	err := r.conn(ctx, tx).
		Where("game_id = ?", gameID).
		Order("sequence ASC").
		Find(&bets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load bets: %w", err)
	}
	return bets, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/database"
	"github.com/anhbaysgalan1/teenpatti/internal/engine"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/repositories"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrResultAlreadyRecorded = errors.New("result already recorded for this player")

// ResultService records settled outcomes. A (game, user) pair is written once.
type ResultService struct {
	db    *database.DB
	games *repositories.GameRepository
}

// NewResultService creates a new result service
func NewResultService(db *database.DB) *ResultService {
	return &ResultService{db: db, games: repositories.NewGameRepository(db.DB)}
}

// RecordResult inserts result within tx, or the service pool when tx is nil.
func (rs *ResultService) RecordResult(ctx context.Context, tx *gorm.DB, result *models.GameResult) error {
	if tx == nil {
		tx = rs.db.DB
	}

	if err := tx.WithContext(ctx).Create(result).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			return fmt.Errorf("%w: game %s user %s", ErrResultAlreadyRecorded, result.GameID, result.UserID)
		}
		return fmt.Errorf("failed to record result: %w", err)
	}

	slog.Info("Result recorded",
		"game_id", result.GameID,
		"user_id", result.UserID,
		"position", result.Position,
		"won", result.TokensWon,
		"lost", result.TokensLost)
	return nil
}

// ListResults returns a game's results, best position first.
func (rs *ResultService) ListResults(ctx context.Context, gameID uuid.UUID) ([]models.GameResult, error) {
	var results []models.GameResult
	err := rs.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("position ASC, created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

// ResultsFor returns a game's results as viewerID may see them. Final hands stay hidden unless
// they belong to the viewer or were compared at a showdown.
func (rs *ResultService) ResultsFor(ctx context.Context, gameID, viewerID uuid.UUID) ([]dto.ResultView, error) {
	g, err := rs.games.GetGame(ctx, nil, gameID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, engine.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	players, err := rs.games.Players(ctx, nil, gameID)
	if err != nil {
		return nil, err
	}
	results, err := rs.ListResults(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return dto.NewResultViews(g, players, results, viewerID), nil
}

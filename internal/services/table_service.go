package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/auth"
	"github.com/anhbaysgalan1/teenpatti/internal/database"
	"github.com/anhbaysgalan1/teenpatti/internal/engine"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/repositories"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/anhbaysgalan1/teenpatti/internal/wallet"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxSeats is the largest table a single 52-card deck can deal comfortably.
const MaxSeats = 6

var (
	ErrTableNotFound          = errors.New("table not found")
	ErrTableFull              = errors.New("table is full")
	ErrInvalidTableConfig     = errors.New("invalid table configuration")
	ErrIncorrectTablePassword = errors.New("incorrect table password")
	ErrTableNameTaken         = errors.New("table name already exists")
)

// TableCache stores the waiting-table listing.
type TableCache interface {
	GetWaitingTables(ctx context.Context) ([]models.Table, bool, error)
	SetWaitingTables(ctx context.Context, tables []models.Table) error
	InvalidateWaitingTables(ctx context.Context) error
}

// TableService is the table registry: configuration, seating and game creation.
type TableService struct {
	db      *database.DB
	games   *repositories.GameRepository
	wallets *wallet.Gateway
	engine  engine.Engine
	cache   TableCache
}

// NewTableService creates a new table service. cache may be nil.
func NewTableService(db *database.DB, wallets *wallet.Gateway, eng engine.Engine, cache TableCache) *TableService {
	return &TableService{
		db:      db,
		games:   repositories.NewGameRepository(db.DB),
		wallets: wallets,
		engine:  eng,
		cache:   cache,
	}
}

func validateTableConfig(cmd dto.CreateTableCommand) error {
	switch {
	case strings.TrimSpace(cmd.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidTableConfig)
	case cmd.EntryFee < 0:
		return fmt.Errorf("%w: entry fee cannot be negative", ErrInvalidTableConfig)
	case cmd.MinPlayers < 2:
		return fmt.Errorf("%w: at least 2 players are required", ErrInvalidTableConfig)
	case cmd.MaxPlayers < cmd.MinPlayers:
		return fmt.Errorf("%w: max players below min players", ErrInvalidTableConfig)
	case cmd.MaxPlayers > MaxSeats:
		return fmt.Errorf("%w: at most %d seats", ErrInvalidTableConfig, MaxSeats)
	case cmd.MinBet <= 0:
		return fmt.Errorf("%w: min bet must be positive", ErrInvalidTableConfig)
	case cmd.MaxBet < cmd.MinBet:
		return fmt.Errorf("%w: max bet below min bet", ErrInvalidTableConfig)
	case cmd.IsPrivate && cmd.Password == "":
		return fmt.Errorf("%w: private tables need a password", ErrInvalidTableConfig)
	}
	return nil
}

// CreateTable registers a new table in the waiting state.
func (ts *TableService) CreateTable(ctx context.Context, cmd dto.CreateTableCommand) (*models.Table, error) {
	if err := validateTableConfig(cmd); err != nil {
		return nil, err
	}

	table := &models.Table{
		Name:       strings.TrimSpace(cmd.Name),
		EntryFee:   cmd.EntryFee,
		MinPlayers: cmd.MinPlayers,
		MaxPlayers: cmd.MaxPlayers,
		MinBet:     cmd.MinBet,
		MaxBet:     cmd.MaxBet,
		Status:     models.TableStatusWaiting,
		IsPrivate:  cmd.IsPrivate,
		CreatedBy:  cmd.CreatedBy,
	}
	if cmd.IsPrivate {
		hash, err := auth.HashPassword(cmd.Password)
		if err != nil {
			return nil, err
		}
		table.PasswordHash = &hash
	}

	if err := ts.db.WithContext(ctx).Create(table).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %s", ErrTableNameTaken, table.Name)
		}
		slog.Error("Failed to create table", "name", table.Name, "error", err)
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	ts.invalidateListing(ctx)
	slog.Info("Table created", "table_id", table.ID, "name", table.Name, "created_by", cmd.CreatedBy)
	return table, nil
}

// GetTable retrieves a table by ID
func (ts *TableService) GetTable(ctx context.Context, id uuid.UUID) (*models.Table, error) {
	table, err := ts.games.GetTable(ctx, nil, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return table, nil
}

// ListWaitingTables returns tables accepting players, newest first.
func (ts *TableService) ListWaitingTables(ctx context.Context) ([]models.Table, error) {
	if ts.cache != nil {
		tables, ok, err := ts.cache.GetWaitingTables(ctx)
		if err != nil {
			slog.Warn("Table cache read failed", "error", err)
		} else if ok {
			return tables, nil
		}
	}

	var tables []models.Table
	err := ts.db.WithContext(ctx).
		Where("status = ?", models.TableStatusWaiting).
		Order("created_at DESC").
		Find(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	if ts.cache != nil {
		if err := ts.cache.SetWaitingTables(ctx, tables); err != nil {
			slog.Warn("Table cache write failed", "error", err)
		}
	}
	return tables, nil
}

// JoinTable seats the user in the table's waiting game, creating the game if needed. Joins on
// one table are serialized by the table row lock. Reaching min players deals the game in the
// same transaction.
func (ts *TableService) JoinTable(ctx context.Context, cmd dto.JoinTableCommand) (*dto.JoinTableView, error) {
	var (
		view    *dto.JoinTableView
		gameID  uuid.UUID
		changed bool
	)

	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := ts.games.LockTable(ctx, tx, cmd.TableID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTableNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock table: %w", err)
		}

		g, err := ts.games.OpenGame(ctx, tx, table.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			g = &models.Game{TableID: table.ID, State: models.GameStateWaiting}
			if err := ts.games.CreateGame(ctx, tx, g); err != nil {
				return err
			}
		} else if err != nil {
			return fmt.Errorf("failed to find open game: %w", err)
		}
		gameID = g.ID

		players, err := ts.games.Players(ctx, tx, g.ID)
		if err != nil {
			return err
		}
		for _, p := range players {
			if p.UserID == cmd.UserID {
				view = &dto.JoinTableView{GameID: g.ID, PlayerID: p.ID, SeatNumber: p.SeatNumber}
				return nil
			}
		}

		table.CurrentPlayerCount = len(players)
		if g.State != models.GameStateWaiting || table.IsFull() {
			return ErrTableFull
		}
		if table.IsPrivate {
			if table.PasswordHash == nil || auth.VerifyPassword(cmd.Password, *table.PasswordHash) != nil {
				return ErrIncorrectTablePassword
			}
		}

		seat := lowestFreeSeat(players, table.MaxPlayers)
		if table.EntryFee > 0 {
			if _, err := ts.wallets.Ledger(tx).Debit(ctx, cmd.UserID, table.EntryFee, wallet.ReasonEntryFee, &g.ID); err != nil {
				return err
			}
		}

		player := &models.Player{
			GameID:      g.ID,
			UserID:      cmd.UserID,
			SeatNumber:  seat,
			ChipsInGame: table.EntryFee,
			Status:      models.PlayerStatusActive,
		}
		if err := ts.games.CreatePlayer(ctx, tx, player); err != nil {
			if database.IsUniqueConstraintError(err) {
				return ErrTableFull
			}
			return err
		}

		expected := g.Version
		g.Pot += table.EntryFee
		g.BootPot += table.EntryFee
		g.Version++
		if err := ts.games.SaveGame(ctx, tx, g, expected); err != nil {
			return err
		}

		table.CurrentPlayerCount = len(players) + 1
		if err := ts.games.UpdateTable(ctx, tx, table); err != nil {
			return err
		}

		if table.CurrentPlayerCount >= max(2, table.MinPlayers) {
			if err := ts.engine.StartGame(ctx, tx, g.ID); err != nil {
				return fmt.Errorf("failed to start game: %w", err)
			}
		}

		slog.Info("Player joined table",
			"table_id", table.ID,
			"game_id", g.ID,
			"user_id", cmd.UserID,
			"seat", seat,
			"players", table.CurrentPlayerCount)

		changed = true
		view = &dto.JoinTableView{GameID: g.ID, PlayerID: player.ID, SeatNumber: seat}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		ts.invalidateListing(ctx)
		ts.engine.Committed(ctx, gameID)
	}
	return view, nil
}

func lowestFreeSeat(players []models.Player, maxPlayers int) int {
	taken := make(map[int]bool, len(players))
	for _, p := range players {
		taken[p.SeatNumber] = true
	}
	for seat := 1; seat <= maxPlayers; seat++ {
		if !taken[seat] {
			return seat
		}
	}
	return maxPlayers + 1
}

func (ts *TableService) invalidateListing(ctx context.Context) {
	if ts.cache == nil {
		return
	}
	if err := ts.cache.InvalidateWaitingTables(ctx); err != nil {
		slog.Warn("Table cache invalidation failed", "error", err)
	}
}

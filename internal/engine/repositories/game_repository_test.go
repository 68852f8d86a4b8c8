package repositories

import (
	"context"
	"testing"

	"github.com/anhbaysgalan1/teenpatti/internal/database"
	"github.com/anhbaysgalan1/teenpatti/internal/database/dbtest"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTable(t *testing.T, repo *GameRepository) *models.Table {
	t.Helper()
	table := &models.Table{
		Name:       "repo-" + uuid.NewString()[:8],
		MinPlayers: 2,
		MaxPlayers: 4,
		MinBet:     10,
		MaxBet:     100,
		Status:     models.TableStatusWaiting,
		CreatedBy:  uuid.New(),
	}
	require.NoError(t, repo.db.Create(table).Error)
	return table
}

func TestGameRepository_SaveGameVersionGuard(t *testing.T) {
	db := dbtest.New(t)
	repo := NewGameRepository(db.DB)
	ctx := context.Background()
	table := seedTable(t, repo)

	g := &models.Game{TableID: table.ID, State: models.GameStateWaiting}
	require.NoError(t, repo.CreateGame(ctx, nil, g))

	locked, err := repo.LockGame(ctx, nil, g.ID)
	require.NoError(t, err)
	locked.Pot = 30
	locked.Version = 1
	require.NoError(t, repo.SaveGame(ctx, nil, locked, 0))

	stale := *locked
	stale.Pot = 99
	stale.Version = 1
	err = repo.SaveGame(ctx, nil, &stale, 0)
	assert.ErrorIs(t, err, ErrStaleVersion)

	reloaded, err := repo.GetGame(ctx, nil, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), reloaded.Pot)
	assert.Equal(t, int64(1), reloaded.Version)
}

func TestGameRepository_NotFound(t *testing.T) {
	db := dbtest.New(t)
	repo := NewGameRepository(db.DB)
	ctx := context.Background()

	_, err := repo.LockGame(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetTable(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.OpenGame(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGameRepository_OneOpenGamePerTable(t *testing.T) {
	db := dbtest.New(t)
	repo := NewGameRepository(db.DB)
	ctx := context.Background()
	table := seedTable(t, repo)

	first := &models.Game{TableID: table.ID, State: models.GameStateWaiting}
	require.NoError(t, repo.CreateGame(ctx, nil, first))

	err := repo.CreateGame(ctx, nil, &models.Game{TableID: table.ID, State: models.GameStateWaiting})
	require.Error(t, err)
	assert.True(t, database.IsUniqueConstraintError(err))

	first.State = models.GameStateFinished
	require.NoError(t, repo.SaveGame(ctx, nil, first, first.Version))
	require.NoError(t, repo.CreateGame(ctx, nil, &models.Game{TableID: table.ID, State: models.GameStateWaiting}))

	open, err := repo.OpenGame(ctx, nil, table.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, open.ID)
}

func TestGameRepository_PlayersAndBets(t *testing.T) {
	db := dbtest.New(t)
	repo := NewGameRepository(db.DB)
	ctx := context.Background()
	table := seedTable(t, repo)

	g := &models.Game{TableID: table.ID, State: models.GameStateWaiting}
	require.NoError(t, repo.CreateGame(ctx, nil, g))

	for _, seat := range []int{2, 1} {
		require.NoError(t, repo.CreatePlayer(ctx, nil, &models.Player{
			GameID: g.ID, UserID: uuid.New(), SeatNumber: seat, Status: models.PlayerStatusActive,
		}))
	}
	err := repo.CreatePlayer(ctx, nil, &models.Player{GameID: g.ID, UserID: uuid.New(), SeatNumber: 1, Status: models.PlayerStatusActive})
	assert.True(t, database.IsUniqueConstraintError(err), "seat numbers are unique per game")

	players, err := repo.Players(ctx, nil, g.ID)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, 1, players[0].SeatNumber)

	bet := &models.Bet{GameID: g.ID, PlayerID: players[0].ID, UserID: players[0].UserID, BetType: models.BetTypeBlind, Amount: 10, PotAfter: 10, Sequence: 2}
	require.NoError(t, repo.AppendBet(ctx, nil, bet))

	dup := *bet
	dup.ID = uuid.Nil
	assert.Error(t, repo.AppendBet(ctx, nil, &dup), "one bet per sequence number")

	bets, err := repo.Bets(ctx, nil, g.ID)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, models.BetTypeBlind, bets[0].BetType)
}

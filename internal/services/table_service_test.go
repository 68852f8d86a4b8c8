package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/database"
	"github.com/anhbaysgalan1/teenpatti/internal/database/dbtest"
	"github.com/anhbaysgalan1/teenpatti/internal/engine"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/cards"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/repositories"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/anhbaysgalan1/teenpatti/internal/wallet"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TableServiceTestSuite struct {
	suite.Suite
	db      *database.DB
	wallets *wallet.Gateway
	results *ResultService
	engine  *engine.TeenPattiEngine
	tables  *TableService
	ctx     context.Context
}

func TestTableServiceSuite(t *testing.T) {
	suite.Run(t, new(TableServiceTestSuite))
}

func (s *TableServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.engine = nil
	s.useDB(dbtest.New(s.T()))
}

func (s *TableServiceTestSuite) useDB(db *database.DB) {
	if s.engine != nil {
		s.engine.Close()
	}
	s.db = db
	s.wallets = wallet.NewGateway(s.db.DB)
	s.results = NewResultService(s.db)
	s.engine = engine.NewTeenPattiEngine(s.db.DB, s.wallets, s.results, engine.WithDeckSource(cards.NewSeededSource(5)))
	s.tables = NewTableService(s.db, s.wallets, s.engine, nil)
}

func (s *TableServiceTestSuite) TearDownTest() {
	s.engine.Close()
}

func (s *TableServiceTestSuite) createTable(cmd dto.CreateTableCommand) *models.Table {
	if cmd.Name == "" {
		cmd.Name = "table-" + uuid.NewString()[:8]
	}
	table, err := s.tables.CreateTable(s.ctx, cmd)
	s.Require().NoError(err)
	return table
}

func (s *TableServiceTestSuite) fund(amount int64, users ...uuid.UUID) {
	for _, u := range users {
		_, err := s.wallets.Deposit(s.ctx, u, amount)
		s.Require().NoError(err)
	}
}

func (s *TableServiceTestSuite) TestCreateTable_Validation() {
	tests := []struct {
		name string
		cmd  dto.CreateTableCommand
	}{
		{"missing name", dto.CreateTableCommand{MinPlayers: 2, MaxPlayers: 4, MinBet: 10, MaxBet: 100}},
		{"one player", dto.CreateTableCommand{Name: "x", MinPlayers: 1, MaxPlayers: 4, MinBet: 10, MaxBet: 100}},
		{"max below min", dto.CreateTableCommand{Name: "x", MinPlayers: 4, MaxPlayers: 3, MinBet: 10, MaxBet: 100}},
		{"too many seats", dto.CreateTableCommand{Name: "x", MinPlayers: 2, MaxPlayers: MaxSeats + 1, MinBet: 10, MaxBet: 100}},
		{"zero min bet", dto.CreateTableCommand{Name: "x", MinPlayers: 2, MaxPlayers: 4, MaxBet: 100}},
		{"max bet below min bet", dto.CreateTableCommand{Name: "x", MinPlayers: 2, MaxPlayers: 4, MinBet: 10, MaxBet: 5}},
		{"negative fee", dto.CreateTableCommand{Name: "x", EntryFee: -1, MinPlayers: 2, MaxPlayers: 4, MinBet: 10, MaxBet: 100}},
		{"private without password", dto.CreateTableCommand{Name: "x", MinPlayers: 2, MaxPlayers: 4, MinBet: 10, MaxBet: 100, IsPrivate: true}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.tables.CreateTable(s.ctx, tt.cmd)
			s.ErrorIs(err, ErrInvalidTableConfig)
		})
	}
}

func (s *TableServiceTestSuite) TestCreateTable_DuplicateName() {
	cmd := dto.CreateTableCommand{Name: "Royal", MinPlayers: 2, MaxPlayers: 4, MinBet: 10, MaxBet: 100}
	s.createTable(cmd)
	_, err := s.tables.CreateTable(s.ctx, cmd)
	s.ErrorIs(err, ErrTableNameTaken)
}

func (s *TableServiceTestSuite) TestJoinTable_EntryFeeAndIdempotentRejoin() {
	table := s.createTable(dto.CreateTableCommand{EntryFee: 20, MinPlayers: 3, MaxPlayers: 4, MinBet: 10, MaxBet: 100})
	a := uuid.New()
	s.fund(100, a)

	first, err := s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: table.ID, UserID: a})
	s.Require().NoError(err)
	s.Equal(1, first.SeatNumber)

	again, err := s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: table.ID, UserID: a})
	s.Require().NoError(err)
	s.Equal(*first, *again)

	balance, err := s.wallets.Balance(s.ctx, a)
	s.Require().NoError(err)
	s.Equal(int64(80), balance, "entry fee is charged once")

	state, err := s.engine.GameState(s.ctx, first.GameID, a)
	s.Require().NoError(err)
	s.Equal(models.GameStateWaiting, state.State)
	s.Equal(int64(20), state.Pot)
	s.Equal(int64(20), state.BootPot)

	stored, err := s.tables.GetTable(s.ctx, table.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.CurrentPlayerCount)
}

func (s *TableServiceTestSuite) TestJoinTable_Rejections() {
	_, err := s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: uuid.New(), UserID: uuid.New()})
	s.ErrorIs(err, ErrTableNotFound)

	paid := s.createTable(dto.CreateTableCommand{EntryFee: 50, MinPlayers: 2, MaxPlayers: 2, MinBet: 10, MaxBet: 100})
	poor := uuid.New()
	s.fund(10, poor)
	_, err = s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: paid.ID, UserID: poor})
	s.ErrorIs(err, wallet.ErrInsufficientBalance)

	var players int64
	s.Require().NoError(s.db.Model(&models.Player{}).Count(&players).Error)
	s.Zero(players, "failed join leaves no player behind")

	private := s.createTable(dto.CreateTableCommand{MinPlayers: 2, MaxPlayers: 2, MinBet: 10, MaxBet: 100, IsPrivate: true, Password: "letmein"})
	_, err = s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: private.ID, UserID: uuid.New(), Password: "nope"})
	s.ErrorIs(err, ErrIncorrectTablePassword)
	_, err = s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: private.ID, UserID: uuid.New(), Password: "letmein"})
	s.NoError(err)
}

func (s *TableServiceTestSuite) TestJoinTable_StartsGameAtMinPlayers() {
	table := s.createTable(dto.CreateTableCommand{MinPlayers: 2, MaxPlayers: 3, MinBet: 10, MaxBet: 100})
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	ja, err := s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: table.ID, UserID: a})
	s.Require().NoError(err)
	_, err = s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: table.ID, UserID: b})
	s.Require().NoError(err)

	state, err := s.engine.GameState(s.ctx, ja.GameID, b)
	s.Require().NoError(err)
	s.Equal(models.GameStateBetting, state.State)
	s.Equal(a, *state.CurrentPlayerTurn)
	s.Equal(int64(10), state.CurrentBet)

	stored, err := s.tables.GetTable(s.ctx, table.ID)
	s.Require().NoError(err)
	s.Equal(models.TableStatusActive, stored.Status)

	_, err = s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: table.ID, UserID: c})
	s.ErrorIs(err, ErrTableFull, "no seats while a game is in play")
}

func (s *TableServiceTestSuite) TestJoinTable_NewGameAfterFinish() {
	table := s.createTable(dto.CreateTableCommand{MinPlayers: 2, MaxPlayers: 2, MinBet: 10, MaxBet: 100})
	a, b := uuid.New(), uuid.New()

	ja, err := s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: table.ID, UserID: a})
	s.Require().NoError(err)
	_, err = s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: table.ID, UserID: b})
	s.Require().NoError(err)

	_, err = s.engine.PlaceAction(s.ctx, dto.PlaceActionCommand{GameID: ja.GameID, UserID: a, BetType: models.BetTypePack})
	s.Require().NoError(err)

	next, err := s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: table.ID, UserID: a})
	s.Require().NoError(err)
	s.NotEqual(ja.GameID, next.GameID)
	s.Equal(1, next.SeatNumber)

	waiting, err := s.tables.ListWaitingTables(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(waiting, 1)
	s.Equal(1, waiting[0].CurrentPlayerCount)
}

// On Postgres the joins contend for the table row lock; on SQLite they commit one after the
// other. Either way exactly one of them gets the last seat.
func (s *TableServiceTestSuite) TestJoinTable_ConcurrentLastSeat() {
	s.useDB(dbtest.NewConcurrent(s.T()))
	table := s.createTable(dto.CreateTableCommand{MinPlayers: 3, MaxPlayers: 3, MinBet: 10, MaxBet: 100})
	for i := 0; i < 2; i++ {
		_, err := s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: table.ID, UserID: uuid.New()})
		s.Require().NoError(err)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		seats []int
		full  int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view, err := s.tables.JoinTable(s.ctx, dto.JoinTableCommand{TableID: table.ID, UserID: uuid.New()})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(s.T(), err, ErrTableFull)
				full++
				return
			}
			seats = append(seats, view.SeatNumber)
		}()
	}
	wg.Wait()

	s.Equal([]int{3}, seats)
	s.Equal(1, full)
}

func TestListWaitingTables_UsesCache(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	wallets := wallet.NewGateway(db.DB)
	eng := engine.NewTeenPattiEngine(db.DB, wallets, NewResultService(db))
	t.Cleanup(eng.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := repositories.NewRedisCache(client, time.Minute)
	tables := NewTableService(db, wallets, eng, cache)

	_, err := tables.CreateTable(ctx, dto.CreateTableCommand{Name: "cached", MinPlayers: 2, MaxPlayers: 2, MinBet: 10, MaxBet: 100})
	require.NoError(t, err)

	listed, err := tables.ListWaitingTables(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	cached, ok, err := cache.GetWaitingTables(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, listed[0].ID, cached[0].ID)

	// Creating a table drops the cached listing.
	_, err = tables.CreateTable(ctx, dto.CreateTableCommand{Name: "second", MinPlayers: 2, MaxPlayers: 2, MinBet: 10, MaxBet: 100})
	require.NoError(t, err)
	_, ok, err = cache.GetWaitingTables(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	listed, err = tables.ListWaitingTables(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

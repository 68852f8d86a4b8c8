package services

import (
	"context"
	"testing"

	"github.com/anhbaysgalan1/teenpatti/internal/database/dbtest"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultService_WriteOnce(t *testing.T) {
	db := dbtest.New(t)
	rs := NewResultService(db)
	ctx := context.Background()
	gameID, winner, loser := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, rs.RecordResult(ctx, nil, &models.GameResult{GameID: gameID, UserID: loser, Position: 2, TokensLost: 30}))
	require.NoError(t, rs.RecordResult(ctx, nil, &models.GameResult{GameID: gameID, UserID: winner, Position: 1, TokensWon: 30, IsWinner: true}))

	err := rs.RecordResult(ctx, nil, &models.GameResult{GameID: gameID, UserID: winner, Position: 1, TokensWon: 999})
	assert.ErrorIs(t, err, ErrResultAlreadyRecorded)

	results, err := rs.ListResults(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, winner, results[0].UserID)
	assert.Equal(t, int64(30), results[0].TokensWon)
	assert.Equal(t, int64(-30), results[1].NetResult())
}

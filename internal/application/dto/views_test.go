package dto

import (
	"testing"

	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/cards"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewFixture(state models.GameState, foldSecond bool) (*models.Game, []models.Player) {
	a, b := uuid.New(), uuid.New()
	g := &models.Game{ID: uuid.New(), TableID: uuid.New(), State: state, Pot: 40, CurrentBet: 10, CurrentPlayerTurn: &a}
	players := []models.Player{
		{ID: uuid.New(), UserID: a, SeatNumber: 1, Status: models.PlayerStatusActive,
			Cards: []cards.Card{cards.New(cards.King, cards.Spade), cards.New(cards.King, cards.Heart), cards.New(cards.King, cards.Club)}},
		{ID: uuid.New(), UserID: b, SeatNumber: 2, Status: models.PlayerStatusActive,
			Cards: []cards.Card{cards.New(cards.Two, cards.Club), cards.New(cards.Seven, cards.Club), cards.New(cards.Nine, cards.Club)}},
	}
	if foldSecond {
		players[1].IsFolded = true
		players[1].Status = models.PlayerStatusFolded
	}
	if state == models.GameStateFinished {
		g.CurrentPlayerTurn = nil
	}
	return g, players
}

func TestNewGameStateView_OwnerSeesOwnCardsOnly(t *testing.T) {
	g, players := viewFixture(models.GameStateBetting, false)

	view := NewGameStateView(g, players, players[0].UserID)
	require.Len(t, view.Players, 2)
	assert.Len(t, view.Players[0].Cards, 3)
	assert.Equal(t, "trail", view.Players[0].HandRank)
	assert.True(t, view.Players[0].IsTurn)
	assert.Empty(t, view.Players[1].Cards)
	assert.Empty(t, view.Players[1].HandRank)
	assert.False(t, view.Players[1].IsTurn)

	spectator := NewGameStateView(g, players, uuid.New())
	for _, p := range spectator.Players {
		assert.Empty(t, p.Cards)
	}
}

func TestNewGameStateView_ShowdownRevealsHands(t *testing.T) {
	g, players := viewFixture(models.GameStateFinished, false)

	view := NewGameStateView(g, players, uuid.New())
	for _, p := range view.Players {
		assert.Len(t, p.Cards, 3)
		assert.NotEmpty(t, p.HandRank)
	}
	assert.Equal(t, "color", view.Players[1].HandRank)
}

func TestNewGameStateView_FoldOutRevealsNothing(t *testing.T) {
	g, players := viewFixture(models.GameStateFinished, true)

	view := NewGameStateView(g, players, uuid.New())
	for _, p := range view.Players {
		assert.Empty(t, p.Cards)
	}

	loser := NewGameStateView(g, players, players[1].UserID)
	assert.Len(t, loser.Players[1].Cards, 3)
	assert.Empty(t, loser.Players[0].Cards)
}

func TestNewCardViews(t *testing.T) {
	assert.Nil(t, NewCardViews(nil))
	views := NewCardViews([]cards.Card{cards.New(cards.Ace, cards.Diamond), cards.New(cards.Ten, cards.Heart)})
	assert.Equal(t, []CardView{
		{Suit: "diamond", Rank: "A", Value: 14},
		{Suit: "heart", Rank: "10", Value: 10},
	}, views)
}

func resultsFor(players []models.Player) []models.GameResult {
	results := make([]models.GameResult, len(players))
	for i, p := range players {
		results[i] = models.GameResult{UserID: p.UserID, FinalHand: p.Cards, HandRank: "high_card", Strength: 7, Position: i + 1}
	}
	results[0].IsWinner = true
	results[0].TokensWon = 40
	return results
}

func TestNewResultViews(t *testing.T) {
	t.Run("fold-out reveals only the viewer's own hand", func(t *testing.T) {
		g, players := viewFixture(models.GameStateFinished, true)
		results := resultsFor(players)

		outsider := NewResultViews(g, players, results, uuid.New())
		require.Len(t, outsider, 2)
		for _, rv := range outsider {
			assert.Empty(t, rv.FinalHand)
			assert.Empty(t, rv.HandRank)
			assert.Zero(t, rv.Strength)
		}
		assert.Equal(t, int64(40), outsider[0].NetResult)

		loser := NewResultViews(g, players, results, players[1].UserID)
		assert.Empty(t, loser[0].FinalHand)
		assert.Len(t, loser[1].FinalHand, 3)
	})

	t.Run("showdown reveals compared hands", func(t *testing.T) {
		g, players := viewFixture(models.GameStateFinished, false)
		views := NewResultViews(g, players, resultsFor(players), uuid.New())
		for _, rv := range views {
			assert.Len(t, rv.FinalHand, 3)
			assert.NotEmpty(t, rv.HandRank)
		}
	})
}

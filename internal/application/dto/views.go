package dto

import (
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/cards"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/hand"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
)

// Views for queries
type GameStateView struct {
	GameID            uuid.UUID        `json:"game_id"`
	TableID           uuid.UUID        `json:"table_id"`
	State             models.GameState `json:"state"`
	Pot               int64            `json:"pot"`
	BootPot           int64            `json:"boot_pot"`
	CurrentBet        int64            `json:"current_bet"`
	CurrentPlayerTurn *uuid.UUID       `json:"current_player_turn,omitempty"`
	Version           int64            `json:"version"`
	WinnerID          *uuid.UUID       `json:"winner_id,omitempty"`
	IsSplitPot        bool             `json:"is_split_pot"`
	StartedAt         *time.Time       `json:"started_at,omitempty"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
	Players           []PlayerView     `json:"players"`
}

type PlayerView struct {
	ID                uuid.UUID           `json:"id"`
	UserID            uuid.UUID           `json:"user_id"`
	SeatNumber        int                 `json:"seat_number"`
	ChipsInGame       int64               `json:"chips_in_game"`
	IsFolded          bool                `json:"is_folded"`
	IsSeen            bool                `json:"is_seen"`
	CurrentBet        int64               `json:"current_bet"`
	TotalBetThisRound int64               `json:"total_bet_this_round"`
	LastAction        *models.BetType     `json:"last_action,omitempty"`
	Status            models.PlayerStatus `json:"status"`
	IsTurn            bool                `json:"is_turn"`
	Cards             []CardView          `json:"cards,omitempty"`
	HandRank          string              `json:"hand_rank,omitempty"`
}

type CardView struct {
	Suit  string `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
}

type ResultView struct {
	UserID     uuid.UUID  `json:"user_id"`
	Position   int        `json:"position"`
	IsWinner   bool       `json:"is_winner"`
	TokensWon  int64      `json:"tokens_won"`
	TokensLost int64      `json:"tokens_lost"`
	NetResult  int64      `json:"net_result"`
	FinalHand  []CardView `json:"final_hand,omitempty"`
	HandRank   string     `json:"hand_rank,omitempty"`
	Strength   int        `json:"strength,omitempty"`
}

type JoinTableView struct {
	GameID     uuid.UUID `json:"game_id"`
	PlayerID   uuid.UUID `json:"player_id"`
	SeatNumber int       `json:"seat_number"`
}

type WalletView struct {
	UserID       uuid.UUID                  `json:"user_id"`
	Balance      int64                      `json:"balance"`
	Transactions []models.WalletTransaction `json:"transactions"`
}

// NewGameStateView renders g for viewerID. Hole cards are visible to their owner only, except
// that a showdown reveals the two compared hands to everyone. A fold-out reveals nothing.
func NewGameStateView(g *models.Game, players []models.Player, viewerID uuid.UUID) *GameStateView {
	view := &GameStateView{
		GameID:            g.ID,
		TableID:           g.TableID,
		State:             g.State,
		Pot:               g.Pot,
		BootPot:           g.BootPot,
		CurrentBet:        g.CurrentBet,
		CurrentPlayerTurn: g.CurrentPlayerTurn,
		Version:           g.Version,
		WinnerID:          g.WinnerID,
		IsSplitPot:        g.IsSplitPot,
		StartedAt:         g.StartedAt,
		CompletedAt:       g.CompletedAt,
		Players:           make([]PlayerView, 0, len(players)),
	}

	showdown := endedInShowdown(g, players)

	for i := range players {
		p := &players[i]
		pv := PlayerView{
			ID:                p.ID,
			UserID:            p.UserID,
			SeatNumber:        p.SeatNumber,
			ChipsInGame:       p.ChipsInGame,
			IsFolded:          p.IsFolded,
			IsSeen:            p.IsSeen,
			CurrentBet:        p.CurrentBet,
			TotalBetThisRound: p.TotalBetThisRound,
			LastAction:        p.LastAction,
			Status:            p.Status,
			IsTurn:            g.IsTurnOf(p.UserID),
		}
		if p.UserID == viewerID || (showdown && p.IsInHand()) {
			pv.Cards = NewCardViews(p.Cards)
			if held, ok := hand.FromSlice(p.Cards); ok {
				pv.HandRank = hand.Evaluate(held).Category.String()
			}
		}
		view.Players = append(view.Players, pv)
	}
	return view
}

// endedInShowdown reports whether g finished with at least two hands compared.
func endedInShowdown(g *models.Game, players []models.Player) bool {
	if g.State != models.GameStateFinished {
		return false
	}
	inHand := 0
	for i := range players {
		if players[i].IsInHand() {
			inHand++
		}
	}
	return inHand >= 2
}

// NewResultViews renders results for viewerID under the same reveal rule as NewGameStateView.
func NewResultViews(g *models.Game, players []models.Player, results []models.GameResult, viewerID uuid.UUID) []ResultView {
	shown := make(map[uuid.UUID]bool, len(players))
	if endedInShowdown(g, players) {
		for i := range players {
			if players[i].IsInHand() {
				shown[players[i].UserID] = true
			}
		}
	}

	views := make([]ResultView, 0, len(results))
	for _, r := range results {
		rv := ResultView{
			UserID:     r.UserID,
			Position:   r.Position,
			IsWinner:   r.IsWinner,
			TokensWon:  r.TokensWon,
			TokensLost: r.TokensLost,
			NetResult:  r.NetResult(),
		}
		if r.UserID == viewerID || shown[r.UserID] {
			rv.FinalHand = NewCardViews(r.FinalHand)
			rv.HandRank = r.HandRank
			rv.Strength = r.Strength
		}
		views = append(views, rv)
	}
	return views
}

func NewCardViews(cs []cards.Card) []CardView {
	if len(cs) == 0 {
		return nil
	}
	views := make([]CardView, len(cs))
	for i, c := range cs {
		views[i] = CardView{Suit: string(c.Suit), Rank: c.Rank.String(), Value: c.Value()}
	}
	return views
}

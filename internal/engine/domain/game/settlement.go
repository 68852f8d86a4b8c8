package game

import (
	"fmt"
	"sort"

	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/hand"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
)

// Settlement is the outcome of a finished round.
type Settlement struct {
	Winners []*models.Player
	// Payouts maps user ID to the chips credited from the pot.
	Payouts  map[uuid.UUID]int64
	Results  []models.GameResult
	Showdown bool
}

// Payout returns the credit owed to userID.
func (s *Settlement) Payout(userID uuid.UUID) int64 {
	return s.Payouts[userID]
}

// showdownWinners returns the strongest hands among contenders. More than one means an exact tie.
func showdownWinners(contenders []*models.Player) ([]*models.Player, error) {
	best := -1
	var winners []*models.Player
	for _, p := range contenders {
		held, ok := hand.FromSlice(p.Cards)
		if !ok {
			return nil, fmt.Errorf("%w: seat %d holds %d cards", ErrInvariantViolation, p.SeatNumber, len(p.Cards))
		}
		strength := hand.Evaluate(held).Strength
		switch {
		case strength > best:
			best = strength
			winners = []*models.Player{p}
		case strength == best:
			winners = append(winners, p)
		}
	}
	return winners, nil
}

// settle closes the round. The pot is split evenly between winners; the odd chip goes to the
// lowest seat among them.
func (r *Round) settle(winners []*models.Player, showdown bool) *Settlement {
	sort.Slice(winners, func(i, j int) bool { return winners[i].SeatNumber < winners[j].SeatNumber })

	pot := r.Game.Pot
	share := pot / int64(len(winners))
	payouts := make(map[uuid.UUID]int64, len(winners))
	for _, w := range winners {
		payouts[w.UserID] = share
	}
	payouts[winners[0].UserID] += pot - share*int64(len(winners))

	now := r.now()
	winnerID := winners[0].UserID
	r.Game.State = models.GameStateFinished
	r.Game.CurrentPlayerTurn = nil
	r.Game.CompletedAt = &now
	r.Game.WinnerID = &winnerID
	r.Game.IsSplitPot = len(winners) > 1

	return &Settlement{
		Winners:  winners,
		Payouts:  payouts,
		Results:  r.results(payouts),
		Showdown: showdown,
	}
}

// results builds one row per participant. Position 1 for winners, then the showdown loser,
// then folded players with the last to fold ranked highest.
func (r *Round) results(payouts map[uuid.UUID]int64) []models.GameResult {
	ordered := make([]*models.Player, len(r.Players))
	copy(ordered, r.Players)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		_, aWon := payouts[a.UserID]
		_, bWon := payouts[b.UserID]
		if aWon != bWon {
			return aWon
		}
		if a.IsInHand() != b.IsInHand() {
			return a.IsInHand()
		}
		return a.FoldSeq > b.FoldSeq
	})

	results := make([]models.GameResult, 0, len(ordered))
	position := 1
	for i, p := range ordered {
		payout, won := payouts[p.UserID]
		if i > 0 && !won {
			position = i + 1
		}

		net := payout - p.ChipsInGame
		result := models.GameResult{
			GameID:    r.Game.ID,
			UserID:    p.UserID,
			FinalHand: p.Cards,
			Position:  position,
			IsWinner:  won,
		}
		if net >= 0 {
			result.TokensWon = net
		} else {
			result.TokensLost = -net
		}
		if held, ok := hand.FromSlice(p.Cards); ok {
			evaluated := hand.Evaluate(held)
			result.HandRank = evaluated.Category.String()
			result.Strength = evaluated.Strength
		}
		results = append(results, result)
	}
	return results
}

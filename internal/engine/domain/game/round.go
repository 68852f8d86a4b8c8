// Package game holds the Teen Patti betting rules. It is storage-free: callers load a Round,
// apply one action, and persist whatever the returned Effect says changed.
package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/cards"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
)

// HandSize is the number of cards dealt to each player.
const HandSize = 3

// Round is the in-memory view of one game: the game row, its table and its players.
type Round struct {
	Game    *models.Game
	Table   *models.Table
	Players []*models.Player
	Now     func() time.Time
}

// NewRound builds a round and sorts the players by seat.
func NewRound(g *models.Game, t *models.Table, players []*models.Player) *Round {
	sorted := make([]*models.Player, len(players))
	copy(sorted, players)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SeatNumber < sorted[j].SeatNumber })
	return &Round{Game: g, Table: t, Players: sorted, Now: time.Now}
}

func (r *Round) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// PlayerByUser returns the player seated for userID, or nil.
func (r *Round) PlayerByUser(userID uuid.UUID) *models.Player {
	for _, p := range r.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// PlayersInHand returns the players still contesting the pot, in seat order.
func (r *Round) PlayersInHand() []*models.Player {
	in := make([]*models.Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.IsInHand() {
			in = append(in, p)
		}
	}
	return in
}

// Deal hands three cards to every active player from deck and opens the betting.
// The lowest seat acts first.
func (r *Round) Deal(deck *cards.Deck) error {
	if r.Game.State != models.GameStateWaiting {
		return fmt.Errorf("%w: game is %s", ErrCannotStartGame, r.Game.State)
	}

	inHand := r.PlayersInHand()
	if len(inHand) < 2 || len(inHand) < r.Table.MinPlayers {
		return fmt.Errorf("%w: %d players seated, need %d", ErrCannotStartGame, len(inHand), max(2, r.Table.MinPlayers))
	}

	for _, p := range inHand {
		dealt, err := deck.Draw(HandSize)
		if err != nil {
			return err
		}
		p.Cards = dealt
	}

	now := r.now()
	first := inHand[0].UserID
	r.Game.State = models.GameStateBetting
	r.Game.CurrentBet = r.Table.MinBet
	r.Game.CurrentPlayerTurn = &first
	r.Game.DeckCursor = deck.Cursor()
	r.Game.StartedAt = &now
	r.Game.Version++
	return nil
}

// advanceTurn passes the turn to the next player in hand after the current one, wrapping by seat.
func (r *Round) advanceTurn() {
	current := -1
	for i, p := range r.Players {
		if r.Game.IsTurnOf(p.UserID) {
			current = i
			break
		}
	}

	n := len(r.Players)
	for step := 1; step <= n; step++ {
		next := r.Players[(current+step+n)%n]
		if next.IsInHand() {
			id := next.UserID
			r.Game.CurrentPlayerTurn = &id
			return
		}
	}
	r.Game.CurrentPlayerTurn = nil
}

// CheckInvariants verifies the structural invariants that must hold after every transition.
func (r *Round) CheckInvariants() error {
	g := r.Game

	var committed int64
	seats := make(map[int]bool, len(r.Players))
	for _, p := range r.Players {
		committed += p.TotalBetThisRound
		if p.SeatNumber < 1 || p.SeatNumber > r.Table.MaxPlayers {
			return fmt.Errorf("%w: seat %d outside [1, %d]", ErrInvariantViolation, p.SeatNumber, r.Table.MaxPlayers)
		}
		if seats[p.SeatNumber] {
			return fmt.Errorf("%w: seat %d assigned twice", ErrInvariantViolation, p.SeatNumber)
		}
		seats[p.SeatNumber] = true
		if p.IsFolded != (p.Status == models.PlayerStatusFolded) {
			return fmt.Errorf("%w: player %s folded flag disagrees with status %s", ErrInvariantViolation, p.ID, p.Status)
		}
	}

	if g.Pot != g.BootPot+committed {
		return fmt.Errorf("%w: pot %d != boot %d + bets %d", ErrInvariantViolation, g.Pot, g.BootPot, committed)
	}

	switch g.State {
	case models.GameStateBetting:
		if g.CurrentPlayerTurn == nil {
			return fmt.Errorf("%w: betting without a turn holder", ErrInvariantViolation)
		}
		holder := r.PlayerByUser(*g.CurrentPlayerTurn)
		if holder == nil || !holder.IsInHand() {
			return fmt.Errorf("%w: turn held by %s who is not in hand", ErrInvariantViolation, *g.CurrentPlayerTurn)
		}
		if len(r.PlayersInHand()) < 2 {
			return fmt.Errorf("%w: betting with fewer than two players in hand", ErrInvariantViolation)
		}
	default:
		if g.CurrentPlayerTurn != nil {
			return fmt.Errorf("%w: %s game holds a turn", ErrInvariantViolation, g.State)
		}
	}
	return nil
}

package game

import (
	"fmt"

	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
)

// Action is a request from a seated user to act on their turn.
type Action struct {
	UserID uuid.UUID
	Type   models.BetType
	Amount int64
}

// Effect describes what an accepted action changed. The caller persists it in one commit.
type Effect struct {
	Player *models.Player
	// Debit is the amount to take from the player's wallet; zero for pack and show.
	Debit      int64
	Bet        models.Bet
	Settlement *Settlement
}

type actionFunc func(r *Round, p *models.Player, a Action) (*Effect, error)

var actionHandlers = map[models.BetType]actionFunc{
	models.BetTypeBlind: applyBlind,
	models.BetTypeChaal: applyChaal,
	models.BetTypePack:  applyPack,
	models.BetTypeShow:  applyShow,
}

// Apply validates a against the round and, if accepted, mutates the round in place.
// On error the round is left untouched.
func (r *Round) Apply(a Action) (*Effect, error) {
	handler, ok := actionHandlers[a.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown bet type %q", ErrInvalidAction, a.Type)
	}

	p := r.PlayerByUser(a.UserID)
	if p == nil {
		return nil, ErrPlayerNotInGame
	}
	if r.Game.State != models.GameStateBetting || !r.Game.IsTurnOf(a.UserID) {
		return nil, ErrNotYourTurn
	}
	if !p.IsInHand() {
		return nil, ErrAlreadyFolded
	}

	potBefore := r.Game.Pot
	effect, err := handler(r, p, a)
	if err != nil {
		return nil, err
	}

	r.Game.Version++
	action := a.Type
	p.LastAction = &action

	effect.Player = p
	effect.Bet = models.Bet{
		GameID:    r.Game.ID,
		PlayerID:  p.ID,
		UserID:    p.UserID,
		BetType:   a.Type,
		Amount:    effect.Debit,
		PotBefore: potBefore,
		PotAfter:  r.Game.Pot,
		Sequence:  r.Game.Version,
	}
	return effect, nil
}

// applyBlind places an unseen stake equal to the current bet.
func applyBlind(r *Round, p *models.Player, a Action) (*Effect, error) {
	if p.IsSeen {
		return nil, fmt.Errorf("%w: blind is not allowed after seeing cards", ErrInvalidAction)
	}
	if a.Amount != r.Game.CurrentBet {
		return nil, fmt.Errorf("%w: blind must be exactly %d", ErrInvalidBetAmount, r.Game.CurrentBet)
	}
	r.commit(p, a.Amount)
	r.advanceTurn()
	return &Effect{Debit: a.Amount}, nil
}

// applyChaal places a seen stake. Anything above the current bet is a raise.
func applyChaal(r *Round, p *models.Player, a Action) (*Effect, error) {
	if a.Amount < r.Game.CurrentBet || a.Amount > r.Table.MaxBet {
		return nil, fmt.Errorf("%w: chaal must be between %d and %d", ErrInvalidBetAmount, r.Game.CurrentBet, r.Table.MaxBet)
	}
	p.IsSeen = true
	if a.Amount > r.Game.CurrentBet {
		r.Game.CurrentBet = a.Amount
	}
	r.commit(p, a.Amount)
	r.advanceTurn()
	return &Effect{Debit: a.Amount}, nil
}

// applyPack folds the player. A single remaining player wins without a reveal.
func applyPack(r *Round, p *models.Player, _ Action) (*Effect, error) {
	p.IsFolded = true
	p.Status = models.PlayerStatusFolded
	p.FoldSeq = r.Game.Version + 1

	remaining := r.PlayersInHand()
	if len(remaining) == 1 {
		return &Effect{Settlement: r.settle(remaining, false)}, nil
	}
	r.advanceTurn()
	return &Effect{}, nil
}

// applyShow compares the last two hands. Both players must have matched the current bet.
func applyShow(r *Round, p *models.Player, _ Action) (*Effect, error) {
	remaining := r.PlayersInHand()
	if len(remaining) != 2 {
		return nil, fmt.Errorf("%w: show needs exactly two players in hand, have %d", ErrInvalidAction, len(remaining))
	}
	for _, contender := range remaining {
		if contender.CurrentBet < r.Game.CurrentBet {
			return nil, fmt.Errorf("%w: seat %d has not matched the current bet of %d", ErrInvalidAction, contender.SeatNumber, r.Game.CurrentBet)
		}
	}

	winners, err := showdownWinners(remaining)
	if err != nil {
		return nil, err
	}
	return &Effect{Settlement: r.settle(winners, true)}, nil
}

func (r *Round) commit(p *models.Player, amount int64) {
	p.CurrentBet = amount
	p.TotalBetThisRound += amount
	p.ChipsInGame += amount
	r.Game.Pot += amount
}

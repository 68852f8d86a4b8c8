package cards

import (
	"fmt"
)

// Suit of a playing card.
type Suit string

const (
	Spade   Suit = "spade"
	Heart   Suit = "heart"
	Club    Suit = "club"
	Diamond Suit = "diamond"
)

// Suits lists the four suits in deck order.
var Suits = []Suit{Spade, Heart, Club, Diamond}

// Symbol returns the unicode suit glyph.
func (s Suit) Symbol() string {
	switch s {
	case Spade:
		return "♠"
	case Heart:
		return "♥"
	case Club:
		return "♣"
	case Diamond:
		return "♦"
	default:
		return "?"
	}
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	switch s {
	case Spade, Heart, Club, Diamond:
		return true
	}
	return false
}

// Rank is the numeric card value, 2 through 14 (ace high).
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the face label: 2..10, J, Q, K, A.
func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		if r >= Two && r <= Ten {
			return fmt.Sprintf("%d", int(r))
		}
		return "?"
	}
}

// Valid reports whether r is within 2..14.
func (r Rank) Valid() bool {
	return r >= Two && r <= Ace
}

// Card represents a playing card
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// New returns the card of the given rank and suit.
func New(rank Rank, suit Suit) Card {
	return Card{Suit: suit, Rank: rank}
}

// Value returns the numeric value of the card (A=14).
func (c Card) Value() int {
	return int(c.Rank)
}

// String returns a string representation of the card
func (c Card) String() string {
	return c.Rank.String() + c.Suit.Symbol()
}

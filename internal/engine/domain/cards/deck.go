package cards

import (
	"errors"
	"fmt"
)

// ErrDeckExhausted is returned when a draw asks for more cards than remain.
// A round never draws more than 52 cards, so hitting it is an invariant violation.
var ErrDeckExhausted = errors.New("deck exhausted")

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// Deck is an ordered sequence of cards consumed front to back.
type Deck struct {
	cards  []Card
	cursor int
}

// NewDeck creates a new standard 52-card deck in suit-major order
func NewDeck() *Deck {
	deck := &Deck{cards: make([]Card, 0, DeckSize)}
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			deck.cards = append(deck.cards, New(rank, suit))
		}
	}
	return deck
}

// NewShuffledDeck returns a fresh deck shuffled with src. A nil src uses CryptoSource.
func NewShuffledDeck(src Source) *Deck {
	if src == nil {
		src = CryptoSource{}
	}
	deck := NewDeck()
	deck.shuffle(src)
	return deck
}

// NewStackedDeck returns a deck that deals exactly the given cards in order.
func NewStackedDeck(stacked ...Card) *Deck {
	cards := make([]Card, len(stacked))
	copy(cards, stacked)
	return &Deck{cards: cards}
}

// shuffle is a Fisher-Yates shuffle over the undealt cards.
func (d *Deck) shuffle(src Source) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the next n cards.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("cannot draw %d cards", n)
	}
	if d.Remaining() < n {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrDeckExhausted, n, d.Remaining())
	}
	drawn := make([]Card, n)
	copy(drawn, d.cards[d.cursor:d.cursor+n])
	d.cursor += n
	return drawn, nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards) - d.cursor
}

// Cursor returns how many cards have been dealt.
func (d *Deck) Cursor() int {
	return d.cursor
}

// Cards returns a copy of the undealt cards.
func (d *Deck) Cards() []Card {
	out := make([]Card, d.Remaining())
	copy(out, d.cards[d.cursor:])
	return out
}

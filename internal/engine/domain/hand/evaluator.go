// Package hand ranks three-card Teen Patti hands.
package hand

import (
	"sort"

	"github.com/anhbaysgalan1/teenpatti/internal/engine/domain/cards"
)

// Category is the hand class, ordered weakest to strongest.
type Category int

const (
	HighCard Category = iota
	Pair
	Color
	Sequence
	PureSequence
	Trail
)

func (c Category) String() string {
	switch c {
	case HighCard:
		return "high_card"
	case Pair:
		return "pair"
	case Color:
		return "color"
	case Sequence:
		return "sequence"
	case PureSequence:
		return "pure_sequence"
	case Trail:
		return "trail"
	default:
		return "unknown"
	}
}

// Result is the evaluated hand. Strength totally orders all three-card hands.
type Result struct {
	Category Category      `json:"category"`
	Strength int           `json:"strength"`
	Cards    [3]cards.Card `json:"cards"`
}

// Evaluate ranks a three-card hand.
//
// Strength packs the category and up to three tie-break ranks into base-16 digits:
// category·16³ + k1·16² + k2·16 + k3. Ranks never exceed 14, so each digit fits.
func Evaluate(hand [3]cards.Card) Result {
	ranks := []int{hand[0].Value(), hand[1].Value(), hand[2].Value()}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	flush := hand[0].Suit == hand[1].Suit && hand[1].Suit == hand[2].Suit
	high, straight := sequenceHigh(ranks)

	var category Category
	var kickers [3]int

	switch {
	case ranks[0] == ranks[2]:
		category = Trail
		kickers = [3]int{ranks[0], ranks[0], ranks[0]}
	case straight && flush:
		category = PureSequence
		kickers = [3]int{high, high - 1, high - 2}
	case straight:
		category = Sequence
		kickers = [3]int{high, high - 1, high - 2}
	case flush:
		category = Color
		kickers = [3]int{ranks[0], ranks[1], ranks[2]}
	case ranks[0] == ranks[1]:
		category = Pair
		kickers = [3]int{ranks[0], ranks[2], 0}
	case ranks[1] == ranks[2]:
		category = Pair
		kickers = [3]int{ranks[1], ranks[0], 0}
	default:
		category = HighCard
		kickers = [3]int{ranks[0], ranks[1], ranks[2]}
	}

	return Result{
		Category: category,
		Strength: int(category)<<12 | kickers[0]<<8 | kickers[1]<<4 | kickers[2],
		Cards:    hand,
	}
}

// sequenceHigh reports whether descending ranks form a run and returns its top card.
// A-2-3 is the lowest run and reports 3 as its top.
func sequenceHigh(desc []int) (int, bool) {
	if desc[0]-1 == desc[1] && desc[1]-1 == desc[2] {
		return desc[0], true
	}
	if desc[0] == int(cards.Ace) && desc[1] == int(cards.Three) && desc[2] == int(cards.Two) {
		return int(cards.Three), true
	}
	return 0, false
}

// Compare returns 1 if a beats b, -1 if b beats a and 0 on an exact tie.
func Compare(a, b Result) int {
	switch {
	case a.Strength > b.Strength:
		return 1
	case a.Strength < b.Strength:
		return -1
	default:
		return 0
	}
}

// FromSlice converts a dealt slice into a fixed hand. ok is false unless exactly three cards are given.
func FromSlice(cs []cards.Card) (h [3]cards.Card, ok bool) {
	if len(cs) != 3 {
		return h, false
	}
	copy(h[:], cs)
	return h, true
}

package card

import "strings"

// Hand is the ordered set of cards one player holds. It is not safe for
// concurrent use.
type Hand struct {
	cards []Card
}

// Add appends c to the hand.
func (h *Hand) Add(c Card) {
	h.cards = append(h.cards, c)
}

// Remove takes c out of the hand, reporting whether it was held.
func (h *Hand) Remove(c Card) bool {
	for i, held := range h.cards {
		if held == c {
			h.cards = append(h.cards[:i], h.cards[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether c is held.
func (h *Hand) Contains(c Card) bool {
	for _, held := range h.cards {
		if held == c {
			return true
		}
	}
	return false
}

// Len returns the number of cards held.
func (h *Hand) Len() int { return len(h.cards) }

// Cards returns a copy of the held cards in hand order.
func (h *Hand) Cards() []Card {
	return append([]Card(nil), h.cards...)
}

func (h *Hand) String() string {
	return Join(h.cards)
}

// Join renders cards as a comma separated list.
func Join(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

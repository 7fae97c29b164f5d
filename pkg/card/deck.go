package card

import "math/rand"

// NewDeck returns the 52 cards ordered by suit then rank.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for s := Clubs; s < numSuits; s++ {
		for r := Ace; r <= King; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Shuffle permutes cards in place uniformly (Fisher-Yates).
func Shuffle(cards []Card, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

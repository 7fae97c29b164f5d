// Package card holds the playing card value types used at the table.
package card

import (
	"errors"
	"fmt"
	"strings"
)

// DeckSize is the number of cards in a full deck: 4 suits x 13 ranks.
const DeckSize = 52

// RecordSize is the size of a Card on the wire.
const RecordSize = 2

// ErrInvalidCard is returned for unknown card tokens or records.
var ErrInvalidCard = errors.New("invalid card")

// Suit of a card.
type Suit uint8

const (
	Clubs Suit = iota
	Spades
	Hearts
	Diamonds
	numSuits
)

// Rank of a card. Rank 0 is reserved for "no card".
type Rank uint8

const (
	Ace Rank = iota + 1
	Two
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
)

var (
	suitNames = [numSuits]string{"c", "s", "h", "d"}
	rankNames = [King + 1]string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

func (s Suit) String() string {
	if s >= numSuits {
		return "?"
	}
	return suitNames[s]
}

func (r Rank) String() string {
	if r > King {
		return "?"
	}
	return rankNames[r]
}

// Card is an immutable (rank, suit) pair. The zero Card is not a valid card.
type Card struct {
	Rank Rank
	Suit Suit
}

// New returns the card of rank r and suit s.
func New(r Rank, s Suit) (Card, error) {
	c := Card{Rank: r, Suit: s}
	if !c.Valid() {
		return Card{}, fmt.Errorf("%w: rank %d suit %d", ErrInvalidCard, r, s)
	}
	return c, nil
}

// Valid reports whether c is one of the 52 cards.
func (c Card) Valid() bool {
	return c.Rank >= Ace && c.Rank <= King && c.Suit < numSuits
}

// String renders c as rank then suit, e.g. "As" or "10h".
func (c Card) String() string {
	if !c.Valid() {
		return "--"
	}
	return c.Rank.String() + c.Suit.String()
}

// Parse reads a card token such as "AS", "as" or "10h".
func Parse(token string) (Card, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if len(t) < 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, token)
	}
	rankPart, suitPart := t[:len(t)-1], t[len(t)-1:]
	var c Card
	for s := Clubs; s < numSuits; s++ {
		if suitNames[s] == suitPart {
			c.Suit = s
			break
		}
		if s == numSuits-1 {
			return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, token)
		}
	}
	for r := Ace; r <= King; r++ {
		if strings.ToLower(rankNames[r]) == rankPart {
			c.Rank = r
			return c, nil
		}
	}
	return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, token)
}

// AppendBinary appends the wire record of c to b.
func (c Card) AppendBinary(b []byte) ([]byte, error) {
	if !c.Valid() {
		return b, fmt.Errorf("%w: %v", ErrInvalidCard, c)
	}
	return append(b, byte(c.Rank), byte(c.Suit)), nil
}

// MarshalBinary returns the wire record of c.
func (c Card) MarshalBinary() ([]byte, error) {
	return c.AppendBinary(make([]byte, 0, RecordSize))
}

// UnmarshalBinary decodes one wire record.
func (c *Card) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("%w: record of %d bytes", ErrInvalidCard, len(data))
	}
	v := Card{Rank: Rank(data[0]), Suit: Suit(data[1])}
	if !v.Valid() {
		return fmt.Errorf("%w: record %v", ErrInvalidCard, data)
	}
	*c = v
	return nil
}

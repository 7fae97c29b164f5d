package card

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]Card{
		"As":  {Ace, Spades},
		"AS":  {Ace, Spades},
		"10h": {Ten, Hearts},
		"10H": {Ten, Hearts},
		"kd":  {King, Diamonds},
		" 7c": {Seven, Clubs},
		"Jc":  {Jack, Clubs},
	}
	for token, want := range cases {
		got, err := Parse(token)
		require.NoError(t, err, token)
		assert.Equal(t, want, got, token)
	}

	for _, bad := range []string{"", "A", "1s", "11h", "Ax", "Z"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidCard, bad)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, c := range NewDeck() {
		got, err := Parse(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	assert.Equal(t, "10h", Card{Ten, Hearts}.String())
	assert.Equal(t, "--", Card{}.String())
}

func TestBinaryRecord(t *testing.T) {
	b, err := Card{Queen, Diamonds}.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{12, 3}, b)

	var c Card
	require.NoError(t, c.UnmarshalBinary(b))
	assert.Equal(t, Card{Queen, Diamonds}, c)

	assert.ErrorIs(t, c.UnmarshalBinary([]byte{0, 1}), ErrInvalidCard)
	assert.ErrorIs(t, c.UnmarshalBinary([]byte{1}), ErrInvalidCard)
	_, err = Card{}.MarshalBinary()
	assert.ErrorIs(t, err, ErrInvalidCard)

	_, err = New(14, Clubs)
	assert.ErrorIs(t, err, ErrInvalidCard)
}

func TestDeckIsComplete(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)
	seen := make(map[Card]bool)
	for _, c := range deck {
		assert.True(t, c.Valid())
		seen[c] = true
	}
	assert.Len(t, seen, DeckSize)

	Shuffle(deck, rand.New(rand.NewSource(1)))
	after := make(map[Card]bool)
	for _, c := range deck {
		after[c] = true
	}
	assert.Equal(t, seen, after)
}

func TestHand(t *testing.T) {
	var h Hand
	h.Add(Card{Ace, Spades})
	h.Add(Card{Ten, Hearts})
	h.Add(Card{Two, Clubs})

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "As, 10h, 2c", h.String())
	assert.True(t, h.Contains(Card{Ten, Hearts}))

	assert.False(t, h.Remove(Card{King, Hearts}))
	assert.True(t, h.Remove(Card{Ten, Hearts}))
	assert.False(t, h.Contains(Card{Ten, Hearts}))
	assert.Equal(t, []Card{{Ace, Spades}, {Two, Clubs}}, h.Cards())
}

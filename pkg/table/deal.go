package table

import (
	"math/rand"

	"github.com/srediag/tpc/pkg/card"
)

// PrepareDeal shuffles the shared deck and splits it for dealing. The first
// DeckSize mod players cards are set aside and never dealt; the rest go
// round-robin, so hands[slot][round] is deck[setAside + round*players + slot].
// The dealt positions are cleared afterwards, leaving only the set-aside
// cards in the buffer, and the play cursor starts right after them.
func (t *Table) PrepareDeal(rng *rand.Rand) ([][]card.Card, error) {
	t.hdr.access.Lock()
	defer t.hdr.access.Unlock()

	if !t.hdr.dealt.CompareAndSwap(0, 1) {
		return nil, ErrAlreadyDealt
	}

	players := t.NumPlayers()
	deck := t.hdr.cards[:]
	card.Shuffle(deck, rng)

	setAside := card.DeckSize % players
	rounds := card.DeckSize / players
	hands := make([][]card.Card, players)
	for slot := range hands {
		hands[slot] = make([]card.Card, rounds)
		for round := 0; round < rounds; round++ {
			hands[slot][round] = deck[setAside+round*players+slot]
		}
	}

	for i := setAside; i < card.DeckSize; i++ {
		deck[i] = card.Card{}
		t.hdr.playedBy[i] = -1
	}
	t.hdr.setAside.Store(int32(setAside))
	t.hdr.nextCard.Store(int32(setAside))
	t.seen = setAside
	internalLogger.Debugf("table %s: %d rounds, %d card(s) set aside", t.name, rounds, setAside)
	return hands, nil
}

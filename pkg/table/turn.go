package table

import (
	"context"
	"fmt"

	"github.com/srediag/tpc/pkg/card"
)

// Play describes one card put on the table.
type Play struct {
	// Index is the card's position in the shared buffer.
	Index int
	Slot  int
	Name  string
	Card  card.Card
}

// WaitTurn blocks until slot may act or the game is over. It returns
// done=true once every round is complete. Plays by anyone that happen while
// waiting are reported to notify (if not nil) in table order, outside the
// lock, as they are observed.
func (t *Table) WaitTurn(ctx context.Context, slot int, notify func(Play)) (done bool, err error) {
	for {
		t.hdr.access.Lock()
		plays := t.unseenLocked()
		done = t.Round() >= t.Rounds()
		mine := t.Turn() == slot
		if !done && !mine {
			err = t.hdr.turnCond.Wait(ctx, &t.hdr.access)
			plays = append(plays, t.unseenLocked()...)
		}
		t.hdr.access.Unlock()

		if notify != nil {
			for _, p := range plays {
				notify(p)
			}
		}
		switch {
		case done:
			return true, nil
		case mine:
			return false, nil
		case err != nil:
			return false, err
		}
	}
}

func (t *Table) unseenLocked() []Play {
	if from := t.SetAside(); t.seen < from {
		t.seen = from
	}
	to := t.NextCard()
	if t.seen >= to {
		return nil
	}
	plays := make([]Play, 0, to-t.seen)
	for ; t.seen < to; t.seen++ {
		slot := int(t.hdr.playedBy[t.seen])
		p := Play{Index: t.seen, Slot: slot, Card: t.hdr.cards[t.seen]}
		if slot >= 0 && slot < len(t.seats) {
			p.Name = t.seats[slot].player().Name
		}
		plays = append(plays, p)
	}
	return plays
}

// Play puts c on the table for slot. It must be slot's turn and c must not
// be on the table already; the caller removes c from its own hand.
func (t *Table) Play(slot int, c card.Card) (Play, error) {
	if !c.Valid() {
		return Play{}, fmt.Errorf("%w: %v", card.ErrInvalidCard, c)
	}

	t.hdr.access.Lock()
	defer t.hdr.access.Unlock()

	if t.Turn() != slot {
		return Play{}, fmt.Errorf("%w: slot %d, turn %d", ErrNotYourTurn, slot, t.Turn())
	}
	next := t.NextCard()
	if next >= card.DeckSize {
		return Play{}, fmt.Errorf("%w: buffer full", ErrCardPlayed)
	}
	for _, played := range t.hdr.cards[:next] {
		if played == c {
			return Play{}, fmt.Errorf("%w: %v", ErrCardPlayed, c)
		}
	}

	t.hdr.cards[next] = c
	t.hdr.playedBy[next] = int8(slot)
	t.hdr.nextCard.Store(int32(next + 1))
	// our own play is not news to us
	if t.seen == next {
		t.seen++
	}
	return Play{Index: next, Slot: slot, Name: t.seats[slot].player().Name, Card: c}, nil
}

// Advance passes the turn to the next slot and wakes every waiter, since
// only the new turn value says who acts next. The advance that wraps back to
// slot 0 completes a round.
func (t *Table) Advance(slot int) error {
	t.hdr.access.Lock()
	turn := t.Turn()
	if turn != slot {
		t.hdr.access.Unlock()
		return fmt.Errorf("%w: slot %d, turn %d", ErrNotYourTurn, slot, turn)
	}
	next := (turn + 1) % t.MaxPlayers()
	if next == 0 {
		t.hdr.roundNum.Add(1)
	}
	t.hdr.turn.Store(int32(next))
	t.hdr.access.Unlock()

	t.hdr.turnCond.Broadcast()
	internalLogger.Tracef("table %s: turn %d -> %d, round %d", t.name, turn, next, t.Round())
	return nil
}

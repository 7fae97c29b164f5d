package table

import (
	"context"
	"errors"
	"fmt"
)

// Open creates the table or, if it already exists, attaches to it. created
// reports whether this process made the table and is therefore the dealer.
func Open(ctx context.Context, opts Options) (t *Table, created bool, err error) {
	// Create and Attach can race with another creator or with a dealer
	// tearing the previous game down, so bounce between them a few times.
	for attempt := 0; attempt < 3; attempt++ {
		t, err = Create(ctx, opts)
		if err == nil {
			return t, true, nil
		}
		if !errors.Is(err, ErrAlreadyExists) {
			return nil, false, err
		}
		internalLogger.Debugf("table %s exists, joining", opts.Name)

		t, err = Attach(ctx, opts)
		if err == nil {
			if opts.MaxPlayers != 0 && t.MaxPlayers() != opts.MaxPlayers {
				internalLogger.Warnf("table %s was created for %d players, ignoring requested %d",
					opts.Name, t.MaxPlayers(), opts.MaxPlayers)
			}
			return t, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}
	return nil, false, err
}

// Join seats playerName in the next free slot. channelFor names the delivery
// channel of the reserved slot. The slot contents and the roster count are
// published together under the access mutex; the join that fills the table
// wakes everybody waiting in AwaitStart.
func (t *Table) Join(playerName string, channelFor func(slot int) string) (Player, error) {
	if playerName == "" || len(playerName) > MaxNameLen {
		return Player{}, fmt.Errorf("player name must be 1 to %d bytes, got %d", MaxNameLen, len(playerName))
	}

	t.hdr.access.Lock()
	defer t.hdr.access.Unlock()

	slot := t.NumPlayers()
	if slot >= t.MaxPlayers() {
		return Player{}, fmt.Errorf("%w: %d/%d seats taken", ErrTableFull, slot, t.MaxPlayers())
	}
	channel := channelFor(slot)
	if len(channel) > MaxChannelLen {
		return Player{}, fmt.Errorf("channel name longer than %d bytes: %q", MaxChannelLen, channel)
	}

	s := &t.seats[slot]
	s.number = int32(slot)
	s.nameLen = uint8(copy(s.name[:], playerName))
	s.channelLen = uint8(copy(s.channel[:], channel))
	t.hdr.numPlayers.Store(int32(slot + 1))

	if slot+1 == t.MaxPlayers() {
		t.hdr.startCond.Broadcast()
	}
	internalLogger.Infof("%s joined table %s in slot %d", playerName, t.name, slot)
	return s.player(), nil
}

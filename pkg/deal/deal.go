// Package deal implements the dealing protocol: the dealer fans the shuffled
// deck out to every player through one-shot delivery channels.
package deal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/srediag/tpc/internal/debug"
	"github.com/srediag/tpc/pkg/card"
	"github.com/srediag/tpc/pkg/table"
	"github.com/srediag/tpc/pkg/transport"
)

var internalLogger = debug.New("deal", nil)

// Deal runs the dealer side. It waits until every player's channel exists,
// shuffles, sets the remainder aside, opens all channels, writes one card per
// player per round in slot order and closes the channels. It returns the
// hands as dealt, indexed by slot.
func Deal(ctx context.Context, t *table.Table, rng *rand.Rand, channels transport.Factory) ([][]card.Card, error) {
	if err := t.AwaitChannelsReady(ctx); err != nil {
		return nil, fmt.Errorf("wait for channels: %w", err)
	}
	hands, err := t.PrepareDeal(rng)
	if err != nil {
		return nil, err
	}

	players := t.Players()
	writers, err := openAll(ctx, players, channels)
	defer func() {
		for _, w := range writers {
			if w != nil {
				if cerr := w.Close(); cerr != nil {
					internalLogger.Warnf("close channel: %v", cerr)
				}
			}
		}
	}()
	if err != nil {
		return nil, err
	}

	rounds := t.Rounds()
	record := make([]byte, 0, card.RecordSize)
	for round := 0; round < rounds; round++ {
		for slot, w := range writers {
			record, err = hands[slot][round].AppendBinary(record[:0])
			if err != nil {
				return nil, err
			}
			if _, err := w.Write(record); err != nil {
				return nil, fmt.Errorf("deliver to %s: %w", players[slot].Channel, err)
			}
		}
	}
	internalLogger.Debugf("dealt %d rounds to %d players", rounds, len(players))
	return hands, nil
}

// openAll opens every player's channel concurrently. Each open waits for its
// reader, so one slow player does not hold up the others' rendezvous.
func openAll(ctx context.Context, players []table.Player, channels transport.Factory) ([]io.WriteCloser, error) {
	pool, err := ants.NewPool(len(players))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	writers := make([]io.WriteCloser, len(players))
	errs := make([]error, len(players))
	var wg sync.WaitGroup
	for i, p := range players {
		i, p := i, p
		wg.Add(1)
		task := func() {
			defer wg.Done()
			writers[i], errs[i] = channels(p.Channel).OpenWriter(ctx)
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()
	return writers, errors.Join(errs...)
}

// Receive runs the player side: it creates the channel, announces it, reads
// card records until the dealer closes the channel, adds them to hand and
// removes the channel.
func Receive(ctx context.Context, t *table.Table, ch transport.Channel, hand *card.Hand) error {
	if err := ch.Create(); err != nil {
		return err
	}
	defer func() {
		_ = ch.Remove()
	}()
	t.MarkChannelReady()

	r, err := ch.OpenReader(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	var record [card.RecordSize]byte
	for {
		_, err := io.ReadFull(r, record[:])
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", ch.Name(), err)
		}
		var c card.Card
		if err := c.UnmarshalBinary(record[:]); err != nil {
			return err
		}
		hand.Add(c)
	}
}

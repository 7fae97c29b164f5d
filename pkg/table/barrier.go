package table

import "context"

// AwaitStart blocks until every seat is taken or ctx is done. A table that
// never fills blocks until cancellation.
func (t *Table) AwaitStart(ctx context.Context) error {
	t.hdr.access.Lock()
	defer t.hdr.access.Unlock()
	for t.NumPlayers() < t.MaxPlayers() {
		if err := t.hdr.startCond.Wait(ctx, &t.hdr.access); err != nil {
			return err
		}
	}
	return nil
}

// MarkChannelReady records that the caller's delivery channel exists.
func (t *Table) MarkChannelReady() {
	t.hdr.access.Lock()
	t.hdr.channelsReady.Add(1)
	t.hdr.access.Unlock()
	t.hdr.readyCond.Signal()
}

// AwaitChannelsReady blocks until every joined player has created its
// delivery channel, so the dealer never writes into a missing channel.
func (t *Table) AwaitChannelsReady(ctx context.Context) error {
	t.hdr.access.Lock()
	defer t.hdr.access.Unlock()
	for t.ChannelsReady() < t.NumPlayers() {
		if err := t.hdr.readyCond.Wait(ctx, &t.hdr.access); err != nil {
			return err
		}
	}
	return nil
}

package game

import (
	"context"
	"sync"

	"github.com/srediag/tpc/pkg/card"
)

// gate hands the turn from the turn loop to the control loop and the chosen
// card back.
type gate struct {
	mu        sync.Mutex
	cond      *sync.Cond
	open      bool
	submitted bool
	choice    card.Card
}

func newGate() *gate {
	g := &gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Open lets the control loop submit a card.
func (g *gate) Open() {
	g.mu.Lock()
	g.open, g.submitted = true, false
	g.mu.Unlock()
	g.cond.Broadcast()
}

// IsOpen reports whether a card is expected.
func (g *gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Submit passes c to the turn loop. It reports false if the gate is closed.
func (g *gate) Submit(c card.Card) bool {
	g.mu.Lock()
	if !g.open {
		g.mu.Unlock()
		return false
	}
	g.open, g.submitted, g.choice = false, true, c
	g.mu.Unlock()
	g.cond.Broadcast()
	return true
}

// Await blocks until a card is submitted or ctx is done.
func (g *gate) Await(ctx context.Context) (card.Card, error) {
	stop := context.AfterFunc(ctx, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.cond.Broadcast()
	})
	defer stop()

	g.mu.Lock()
	defer g.mu.Unlock()
	for !g.submitted {
		if err := ctx.Err(); err != nil {
			g.open = false
			return card.Card{}, err
		}
		g.cond.Wait()
	}
	g.submitted = false
	return g.choice, nil
}

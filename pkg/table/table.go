// Package table is the shared game state every player process maps.
//
// A Table lives in one named shared memory region laid out as a fixed header
// followed by one slot per seat. The header carries the process-shared
// mutexes and condition variables; every method that mutates shared fields
// takes the lock that guards them, and nothing outside this package touches
// the layout directly.
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/tpc/internal/debug"
	"github.com/srediag/tpc/pkg/card"
	"github.com/srediag/tpc/pkg/shm"
)

const (
	// MaxNameLen bounds a player name in bytes.
	MaxNameLen = 32
	// MaxChannelLen bounds a delivery channel identifier in bytes.
	MaxChannelLen = 108
	// MinPlayers and MaxPlayers bound the roster size.
	MinPlayers = 2
	MaxPlayers = card.DeckSize

	magic        = 0x31435054 // "TPC1"
	regionPrefix = "tpc."
)

var (
	// ErrNotFound is returned by Attach when no table of that name exists.
	ErrNotFound = shm.ErrNotFound
	// ErrAlreadyExists is returned by Create when the table exists.
	ErrAlreadyExists = shm.ErrAlreadyExists
	// ErrTableFull is returned by Join when every seat is taken.
	ErrTableFull = errors.New("table is full")
	// ErrNotYourTurn is returned by Play and Advance off turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrCardPlayed is returned by Play for a card already on the table.
	ErrCardPlayed = errors.New("card already played")
	// ErrAlreadyDealt is returned by PrepareDeal on a second call.
	ErrAlreadyDealt = errors.New("cards already dealt")
	// ErrLayout is returned when a mapped region does not match the table layout.
	ErrLayout = errors.New("table layout mismatch")

	errNotPublished = errors.New("table not published yet")
)

var internalLogger = debug.New("table", nil)

// header is the fixed part of the shared region.
type header struct {
	magic  atomic.Uint32
	access shm.Mutex // roster, turn, round, readiness, card buffer
	logger shm.Mutex // shared log appends

	turnCond  shm.Cond
	startCond shm.Cond
	readyCond shm.Cond

	maxPlayers    atomic.Int32
	numPlayers    atomic.Int32
	turn          atomic.Int32
	roundNum      atomic.Int32
	nextCard      atomic.Int32
	setAside      atomic.Int32
	channelsReady atomic.Int32
	dealt         atomic.Int32

	cards    [card.DeckSize]card.Card
	playedBy [card.DeckSize]int8
}

// seat is one roster entry.
type seat struct {
	number     int32
	nameLen    uint8
	channelLen uint8
	_          [2]byte
	name       [MaxNameLen]byte
	channel    [MaxChannelLen]byte
}

const (
	headerSize = int(unsafe.Sizeof(header{}))
	seatSize   = int(unsafe.Sizeof(seat{}))
)

// RegionSize returns the shared region size for maxPlayers seats.
func RegionSize(maxPlayers int) int {
	return headerSize + maxPlayers*seatSize
}

// Player is a process-local copy of a roster entry.
type Player struct {
	Number  int
	Name    string
	Channel string
}

// Options configure Create, Attach and Open.
type Options struct {
	// Dir holds the shared memory object; empty means shm.DefaultDir.
	Dir string
	// Name is the table name players agree on.
	Name string
	// MaxPlayers is the roster size used when the table is created.
	MaxPlayers int
	// AttachTimeout bounds how long Attach waits for the creator to publish
	// the table. Zero waits until ctx ends.
	AttachTimeout time.Duration
	Meter         metric.Meter
	Tracer        trace.Tracer
}

// Table is one process's handle on the shared table.
type Table struct {
	name   string
	region *shm.Region
	hdr    *header
	seats  []seat

	// index of the next play not yet reported by WaitTurn
	seen int
}

// Create makes a new table exclusively and initializes it.
func Create(ctx context.Context, opts Options) (*Table, error) {
	if opts.MaxPlayers < MinPlayers || opts.MaxPlayers > MaxPlayers {
		return nil, fmt.Errorf("max players %d out of range [%d, %d]", opts.MaxPlayers, MinPlayers, MaxPlayers)
	}
	r, err := shm.Open(ctx, shm.OpenOptions{
		Dir:    opts.Dir,
		Name:   regionPrefix + opts.Name,
		Size:   RegionSize(opts.MaxPlayers),
		Create: true,
		Meter:  opts.Meter,
		Tracer: opts.Tracer,
	})
	if err != nil {
		return nil, err
	}
	t := bind(opts.Name, r, opts.MaxPlayers)
	t.hdr.maxPlayers.Store(int32(opts.MaxPlayers))
	copy(t.hdr.cards[:], card.NewDeck())
	t.hdr.magic.Store(magic)
	internalLogger.Infof("created table %s for %d players (%d bytes)", opts.Name, opts.MaxPlayers, r.Size())
	return t, nil
}

// Attach maps an existing table, waiting with exponential backoff until its
// creator has sized and published it.
func Attach(ctx context.Context, opts Options) (*Table, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = opts.AttachTimeout

	r, err := backoff.RetryWithData(func() (*shm.Region, error) {
		r, err := shm.Open(ctx, shm.OpenOptions{
			Dir:    opts.Dir,
			Name:   regionPrefix + opts.Name,
			Size:   headerSize,
			Meter:  opts.Meter,
			Tracer: opts.Tracer,
		})
		if errors.Is(err, shm.ErrNotReady) {
			return nil, err
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if (*header)(unsafe.Pointer(&r.Bytes()[0])).magic.Load() != magic {
			_ = r.Close()
			return nil, errNotPublished
		}
		return r, nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, err
	}

	hdr := (*header)(unsafe.Pointer(&r.Bytes()[0]))
	maxPlayers := int(hdr.maxPlayers.Load())
	if maxPlayers < MinPlayers || maxPlayers > MaxPlayers || r.Size() < RegionSize(maxPlayers) {
		_ = r.Close()
		return nil, fmt.Errorf("%w: %d bytes for %d players", ErrLayout, r.Size(), maxPlayers)
	}
	return bind(opts.Name, r, maxPlayers), nil
}

func bind(name string, r *shm.Region, maxPlayers int) *Table {
	mem := r.Bytes()
	return &Table{
		name:   name,
		region: r,
		hdr:    (*header)(unsafe.Pointer(&mem[0])),
		seats:  unsafe.Slice((*seat)(unsafe.Pointer(&mem[headerSize])), maxPlayers),
	}
}

// Close unmaps the table. Other processes keep their mappings.
func (t *Table) Close() error {
	return t.region.Close()
}

// Destroy unmaps the table and removes the shared object. Only the dealer
// calls it, once, after its last turn wait.
func (t *Table) Destroy() error {
	internalLogger.Infof("destroying table %s", t.name)
	return t.region.Destroy()
}

// Exists reports whether the shared object is still present.
func (t *Table) Exists() bool { return t.region.Exists() }

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// MaxPlayers returns the roster size the table was created for.
func (t *Table) MaxPlayers() int { return int(t.hdr.maxPlayers.Load()) }

// NumPlayers returns the number of seats taken.
func (t *Table) NumPlayers() int { return int(t.hdr.numPlayers.Load()) }

// Turn returns the slot allowed to act.
func (t *Table) Turn() int { return int(t.hdr.turn.Load()) }

// Round returns the number of completed rounds.
func (t *Table) Round() int { return int(t.hdr.roundNum.Load()) }

// NextCard returns the write cursor of the card buffer.
func (t *Table) NextCard() int { return int(t.hdr.nextCard.Load()) }

// SetAside returns how many cards were set aside undealt.
func (t *Table) SetAside() int { return int(t.hdr.setAside.Load()) }

// ChannelsReady returns how many delivery channels exist.
func (t *Table) ChannelsReady() int { return int(t.hdr.channelsReady.Load()) }

// Rounds returns how many rounds the game lasts: one card per player each.
func (t *Table) Rounds() int {
	n := t.NumPlayers()
	if n == 0 {
		return 0
	}
	return card.DeckSize / n
}

// LogLocker returns the lock serializing shared log appends.
func (t *Table) LogLocker() sync.Locker { return &t.hdr.logger }

// Player returns the roster entry of slot.
func (t *Table) Player(slot int) (Player, error) {
	if slot < 0 || slot >= t.NumPlayers() {
		return Player{}, fmt.Errorf("no player in slot %d", slot)
	}
	return t.seats[slot].player(), nil
}

// Players returns the joined roster in slot order.
func (t *Table) Players() []Player {
	t.hdr.access.Lock()
	defer t.hdr.access.Unlock()
	n := t.NumPlayers()
	players := make([]Player, n)
	for i := 0; i < n; i++ {
		players[i] = t.seats[i].player()
	}
	return players
}

// MaxNameLen returns the longest joined player name.
func (t *Table) MaxNameLen() int {
	longest := 0
	for _, p := range t.Players() {
		if len(p.Name) > longest {
			longest = len(p.Name)
		}
	}
	return longest
}

// PlayedCards returns the cards played so far in order.
func (t *Table) PlayedCards() []card.Card {
	t.hdr.access.Lock()
	defer t.hdr.access.Unlock()
	from, to := t.SetAside(), t.NextCard()
	if to <= from {
		return nil
	}
	return append([]card.Card(nil), t.hdr.cards[from:to]...)
}

func (s *seat) player() Player {
	return Player{
		Number:  int(s.number),
		Name:    string(s.name[:s.nameLen]),
		Channel: string(s.channel[:s.channelLen]),
	}
}

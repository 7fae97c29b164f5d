// Package audit writes the shared, append-only game log.
//
// Every process opens the log file on its own; appends from all of them are
// serialized by a lock that lives in the shared table, so lines never
// interleave.
package audit

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Action is the kind of a logged entry.
type Action int

const (
	Deal Action = iota
	ReceiveCards
	Play
	Hand
)

var actionNames = [...]string{"deal", "receive_cards", "play", "hand"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

const (
	timeLayout  = "2006-01-02 15:04:05"
	actionWidth = 13
)

// ErrClosed is returned when logging to a closed Logger.
var ErrClosed = errors.New("audit log closed")

// Logger appends formatted entries to the shared log file.
type Logger struct {
	lock  sync.Locker
	file  *os.File
	path  string
	width int
	now   func() time.Time
	// broken is set on a Logger that could not open its file.
	broken error
}

// Options configure Open.
type Options struct {
	// Path of the log file.
	Path string
	// Truncate the file on open; the dealer does this once per game.
	Truncate bool
	// Lock serializes appends across processes.
	Lock sync.Locker
	// ActorWidth pads the actor column; see ActorWidth.
	ActorWidth int
}

// ActorWidth returns the actor column width for a roster whose longest name
// is longestName bytes and whose size is maxPlayers.
func ActorWidth(longestName, maxPlayers int) int {
	digits := 1
	if maxPlayers > 1 {
		digits = int(math.Floor(math.Log10(float64(maxPlayers)))) + 1
	}
	return len("Player-") + longestName + digits
}

// Open opens the log file for appending.
func Open(opts Options) (*Logger, error) {
	if opts.Lock == nil {
		return nil, errors.New("audit: nil lock")
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if opts.Truncate {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(opts.Path, flags, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", opts.Path, err)
	}
	return &Logger{
		lock:  opts.Lock,
		file:  f,
		path:  opts.Path,
		width: opts.ActorWidth,
		now:   time.Now,
	}, nil
}

// Disabled returns a Logger whose appends all fail with cause. Callers keep
// going without a log file and still see every dropped entry as an error.
func Disabled(path string, cause error) *Logger {
	return &Logger{path: path, now: time.Now, broken: cause}
}

// Path returns the log file path.
func (l *Logger) Path() string { return l.path }

// SetActorWidth changes the actor column width, once the roster is known.
func (l *Logger) SetActorWidth(w int) { l.width = w }

// Header writes the column titles. The dealer calls it once, first.
func (l *Logger) Header() error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	l.columns(buf, "when", "who", "what", "result")
	return l.append(buf.B)
}

// Log appends one entry for actor.
func (l *Logger) Log(action Action, actor, detail string) error {
	if detail == "" {
		detail = "-"
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	l.columns(buf, l.now().Format(timeLayout), actor, action.String(), detail)
	return l.append(buf.B)
}

func (l *Logger) columns(buf *bytebufferpool.ByteBuffer, when, who, what, result string) {
	pad(buf, when, len(timeLayout))
	_, _ = buf.WriteString(" | ")
	pad(buf, who, l.width)
	_, _ = buf.WriteString(" | ")
	pad(buf, what, actionWidth)
	_, _ = buf.WriteString(" | ")
	_, _ = buf.WriteString(result)
	_ = buf.WriteByte('\n')
}

func pad(buf *bytebufferpool.ByteBuffer, s string, width int) {
	_, _ = buf.WriteString(s)
	for i := len(s); i < width; i++ {
		_ = buf.WriteByte(' ')
	}
}

func (l *Logger) append(line []byte) error {
	if l.broken != nil {
		return l.broken
	}
	if l.file == nil {
		return ErrClosed
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("append to %s: %w", l.path, err)
	}
	return nil
}

// Close closes this process's handle on the log file.
func (l *Logger) Close() error {
	if l.broken != nil {
		return nil
	}
	if l.file == nil {
		return ErrClosed
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// DealerActor labels entries written by the dealer role.
func DealerActor(name string) string {
	return "Dealer-" + name
}

// PlayerActor labels entries written by the player in slot.
func PlayerActor(slot int, name string) string {
	return "Player" + strconv.Itoa(slot) + "-" + name
}

package game

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/pterm/pterm"

	"github.com/srediag/tpc/pkg/audit"
	"github.com/srediag/tpc/pkg/card"
)

// Console commands.
const (
	cmdPlay        = "play"
	cmdShowHand    = "show-hand"
	cmdShowPlayed  = "show-played-cards"
	availableUsage = "'play', 'show-hand', 'show-played-cards'"
)

type printers struct {
	text    *pterm.BasicTextPrinter
	info    *pterm.PrefixPrinter
	success *pterm.PrefixPrinter
	warning *pterm.PrefixPrinter
	fail    *pterm.PrefixPrinter
}

func newPrinters(w io.Writer) printers {
	return printers{
		text:    pterm.DefaultBasicText.WithWriter(w),
		info:    pterm.Info.WithWriter(w),
		success: pterm.Success.WithWriter(w),
		warning: pterm.Warning.WithWriter(w),
		fail:    pterm.Error.WithWriter(w),
	}
}

// console is the interactive control loop. A reader goroutine feeds input
// lines into a queue; the loop takes them one at a time, so the play
// command can pull its card choice from the same stream.
type console struct {
	s     *Session
	p     printers
	lines *queue.Queue
	done  chan struct{}
}

func newConsole(s *Session) *console {
	return &console{
		s:     s,
		p:     s.p,
		lines: queue.New(16),
		done:  make(chan struct{}),
	}
}

// Start runs the reader and the control loop.
func (c *console) Start(in io.Reader) {
	go c.read(in)
	go c.loop()
}

// Stop ends the control loop. The reader goroutine may stay blocked on
// its input until the process exits.
func (c *console) Stop() {
	c.lines.Dispose()
	<-c.done
}

func (c *console) read(in io.Reader) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := c.lines.Put(strings.TrimSpace(sc.Text())); err != nil {
			return
		}
	}
	if err := sc.Err(); err != nil {
		internalLogger.Warnf("console input: %v", err)
	}
}

func (c *console) next() (string, bool) {
	items, err := c.lines.Get(1)
	if err != nil {
		if !errors.Is(err, queue.ErrDisposed) {
			internalLogger.Warnf("console queue: %v", err)
		}
		return "", false
	}
	return items[0].(string), true
}

func (c *console) loop() {
	defer close(c.done)
	for {
		line, ok := c.next()
		if !ok {
			return
		}
		c.handle(line)
	}
}

func (c *console) handle(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch strings.ToLower(fields[0]) {
	case cmdPlay:
		c.play(fields[1:])
	case cmdShowHand:
		hand := c.s.handString()
		c.p.text.Println(hand)
		c.s.record(audit.Hand, hand)
	case cmdShowPlayed:
		played := c.s.table.PlayedCards()
		if len(played) == 0 {
			c.p.info.Println("There are no played cards yet...")
			return
		}
		c.p.text.Println(card.Join(played))
	default:
		c.p.warning.Println("Unrecognized action...")
	}
}

// play asks for a card until the input names one in the hand. A card given
// on the command line is tried first.
func (c *console) play(args []string) {
	if !c.s.gate.IsOpen() {
		c.p.warning.Println("Not your turn yet...")
		return
	}
	c.p.text.Println("Your hand:")
	c.p.text.Println(c.s.handString())

	for {
		var choice string
		if len(args) > 0 {
			choice, args = args[0], nil
		} else {
			c.p.text.Println("Choose a card:")
			line, ok := c.next()
			if !ok {
				return
			}
			choice = line
		}

		cd, err := card.Parse(choice)
		if err == nil && c.s.holds(cd) {
			if !c.s.gate.Submit(cd) {
				c.p.warning.Println("Not your turn yet...")
			}
			return
		}
		c.p.fail.Println("Card is not valid. Please try again.")
	}
}

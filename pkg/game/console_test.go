package game

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/suite"

	"github.com/srediag/tpc/pkg/audit"
	"github.com/srediag/tpc/pkg/card"
	"github.com/srediag/tpc/pkg/table"
)

// syncBuffer is a bytes.Buffer tests can read while a session writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type ConsoleTestSuite struct {
	suite.Suite
	out     *syncBuffer
	logPath string
	s       *Session
	c       *console
}

func (s *ConsoleTestSuite) SetupSuite() {
	pterm.DisableStyling()
}

func (s *ConsoleTestSuite) SetupTest() {
	s.out = &syncBuffer{}
	config := validConfig()
	config.Out = s.out
	config.In = strings.NewReader("")

	var err error
	s.s, err = NewSession(config)
	s.Require().NoError(err)
	s.logPath = filepath.Join(s.T().TempDir(), "t.log")
	s.s.log, err = audit.Open(audit.Options{Path: s.logPath, Lock: &sync.Mutex{}, ActorWidth: 12})
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = s.s.log.Close() })
	s.s.player = table.Player{Number: 1, Name: "ann"}
	for _, token := range []string{"As", "10h", "Kd"} {
		c, err := card.Parse(token)
		s.Require().NoError(err)
		s.s.hand.Add(c)
	}
	s.c = newConsole(s.s)
}

func (s *ConsoleTestSuite) TestShowHandLogsHand() {
	s.c.handle("show-hand")
	s.Contains(s.out.String(), "As, 10h, Kd")

	data, err := os.ReadFile(s.logPath)
	s.Require().NoError(err)
	s.Contains(string(data), "| Player1-ann  | hand          | As, 10h, Kd\n")
}

func (s *ConsoleTestSuite) TestUnrecognized() {
	s.c.handle("dance")
	s.Contains(s.out.String(), "Unrecognized action...")

	s.c.handle("   ")
	s.Equal(1, strings.Count(s.out.String(), "Unrecognized action..."), "blank lines are ignored")
}

func (s *ConsoleTestSuite) TestPlayOffTurn() {
	s.c.handle("play")
	s.Contains(s.out.String(), "Not your turn yet...")
	s.False(s.s.gate.IsOpen())
}

func (s *ConsoleTestSuite) TestPlayRepromptsOnInvalidCard() {
	s.s.gate.Open()
	s.Require().NoError(s.c.lines.Put("zz"))
	s.Require().NoError(s.c.lines.Put("2c"))
	s.Require().NoError(s.c.lines.Put("kd"))

	go s.c.handle("play")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := s.s.gate.Await(ctx)
	s.Require().NoError(err)
	s.Equal("Kd", got.String())

	out := s.out.String()
	s.Contains(out, "Your hand:")
	s.Equal(3, strings.Count(out, "Choose a card:"))
	s.Equal(2, strings.Count(out, "Card is not valid. Please try again."))
}

func (s *ConsoleTestSuite) TestPlayWithArgument() {
	s.s.gate.Open()
	go s.c.handle("PLAY 10H")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := s.s.gate.Await(ctx)
	s.Require().NoError(err)
	s.Equal("10h", got.String())
	s.NotContains(s.out.String(), "Choose a card:")
}

func (s *ConsoleTestSuite) TestLoopStopsOnDispose() {
	s.c.Start(strings.NewReader("dance\n"))
	s.Eventually(func() bool {
		return strings.Contains(s.out.String(), "Unrecognized action...")
	}, 5*time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		s.c.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		s.Fail("console did not stop")
	}
}

func TestConsole(t *testing.T) {
	suite.Run(t, new(ConsoleTestSuite))
}

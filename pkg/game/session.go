/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package game runs one player's side of a table: admission, dealing, the
// turn loop and the interactive console.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/srediag/tpc/internal/debug"
	fifo "github.com/srediag/tpc/internal/transport"
	"github.com/srediag/tpc/pkg/audit"
	"github.com/srediag/tpc/pkg/card"
	"github.com/srediag/tpc/pkg/deal"
	"github.com/srediag/tpc/pkg/health"
	"github.com/srediag/tpc/pkg/lifecycle"
	"github.com/srediag/tpc/pkg/table"
	"github.com/srediag/tpc/pkg/transport"
)

var internalLogger = debug.New("game", nil)

// Session is one player process's view of a game.
type Session struct {
	config   *Config
	p        printers
	tracer   trace.Tracer
	metrics  *health.Metrics
	channels transport.Factory
	state    *lifecycle.Machine
	gate     *gate

	table  *table.Table
	dealer bool
	player table.Player
	log    *audit.Logger

	handMu sync.Mutex
	hand   card.Hand
}

// NewSession verifies config and prepares a session. Nothing shared is
// touched until Run.
func NewSession(config *Config) (*Session, error) {
	if err := VerifyConfig(config); err != nil {
		return nil, err
	}
	s := &Session{
		config:   config,
		p:        newPrinters(&syncWriter{w: config.Out}),
		tracer:   config.Tracer,
		metrics:  config.Metrics,
		channels: config.Channels,
		gate:     newGate(),
	}
	if s.tracer == nil {
		s.tracer = tracenoop.NewTracerProvider().Tracer("tpc/game")
	}
	if s.metrics == nil {
		s.metrics = health.NewMetrics()
	}
	if s.channels == nil {
		s.channels = fifo.NewFIFO
	}
	s.state = lifecycle.New(func(from, to lifecycle.State) {
		internalLogger.Tracef("%s: %v -> %v", config.PlayerName, from, to)
	})
	return s, nil
}

// Dealer reports whether this session created the table.
func (s *Session) Dealer() bool { return s.dealer }

// Player returns this session's roster entry once joined.
func (s *Session) Player() table.Player { return s.player }

// State returns where the session is in the turn protocol.
func (s *Session) State() lifecycle.State { return s.state.State() }

// Metrics returns the session counters.
func (s *Session) Metrics() *health.Metrics { return s.metrics }

// Run plays one game to the end. The dealer destroys the table on every
// return path; other players only unmap it.
func (s *Session) Run(ctx context.Context) (err error) {
	cfg := s.config
	ctx, span := s.tracer.Start(ctx, "game.Run", trace.WithAttributes(
		attribute.String("tpc.table", cfg.TableName),
		attribute.String("tpc.player", cfg.PlayerName),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	t, dealer, err := table.Open(ctx, table.Options{
		Dir:        cfg.ShmDir,
		Name:       cfg.TableName,
		MaxPlayers: cfg.MaxPlayers,
		Meter:      cfg.Meter,
		Tracer:     s.tracer,
	})
	if err != nil {
		return fmt.Errorf("open table %s: %w", cfg.TableName, err)
	}
	s.table, s.dealer = t, dealer
	defer s.teardown()

	if dealer {
		s.p.info.Printfln("Table %s doesn't exist... Creating table...", cfg.TableName)
	} else {
		s.p.info.Printfln("Table %s exists... Joining table...", cfg.TableName)
	}

	path := logPath(cfg.LogDir, cfg.TableName)
	if s.log, err = audit.Open(audit.Options{
		Path:     path,
		Truncate: dealer,
		Lock:     t.LogLocker(),
	}); err != nil {
		// the game goes on without a log; every dropped entry is reported
		s.logFailed(err)
		s.log = audit.Disabled(path, err)
	}
	defer s.log.Close()

	if cfg.MetricsAddr != "" {
		sctx, stop := context.WithCancel(ctx)
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := s.metrics.Serve(sctx, cfg.MetricsAddr, t, nil); err != nil {
				internalLogger.Warnf("metrics server: %v", err)
			}
		}()
		defer func() {
			stop()
			<-served
		}()
	}

	s.player, err = t.Join(cfg.PlayerName, func(slot int) string {
		return channelPath(cfg.ChannelDir, cfg.TableName, slot)
	})
	if err != nil {
		if errors.Is(err, table.ErrTableFull) {
			s.p.fail.Println("Table is full.")
		}
		return err
	}
	s.metrics.Joins.Inc()

	s.p.text.Printfln("Your number: \t\t%d", s.player.Number)
	s.p.text.Printfln("Max number of players: \t%d", t.MaxPlayers())
	s.p.text.Printfln("Number of players: \t%d", t.NumPlayers())
	s.p.text.Printfln("Available commands: %s", availableUsage)
	s.p.info.Println("Waiting for game to start...")

	if err := t.AwaitStart(ctx); err != nil {
		return fmt.Errorf("wait for start: %w", err)
	}
	s.metrics.Players.Set(float64(t.NumPlayers()))
	s.log.SetActorWidth(audit.ActorWidth(t.MaxNameLen(), t.MaxPlayers()))

	if err := s.deal(ctx); err != nil {
		return err
	}
	if err := s.state.To(lifecycle.AwaitingTurn); err != nil {
		return err
	}

	if !cfg.AutoPlay {
		c := newConsole(s)
		c.Start(cfg.In)
		defer c.Stop()
	}
	return s.playTurns(ctx)
}

// deal runs the dealer's fan-out next to this process's own receive.
func (s *Session) deal(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "game.deal", trace.WithAttributes(attribute.Bool("tpc.dealer", s.dealer)))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	if s.dealer {
		if err := s.log.Header(); err != nil {
			s.logFailed(err)
		}
		s.record(audit.Deal, "")
		g.Go(func() error {
			rng := rand.New(rand.NewSource(s.seed()))
			hands, err := deal.Deal(gctx, s.table, rng, s.channels)
			for _, h := range hands {
				s.metrics.CardsDealt.Add(float64(len(h)))
			}
			return err
		})
	}
	g.Go(func() error {
		s.handMu.Lock()
		defer s.handMu.Unlock()
		return deal.Receive(gctx, s.table, s.channels(s.player.Channel), &s.hand)
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("deal: %w", err)
	}
	s.record(audit.ReceiveCards, s.handString())
	return nil
}

func (s *Session) seed() int64 {
	if s.config.Seed != 0 {
		return s.config.Seed
	}
	return time.Now().UnixNano()
}

// playTurns is the turn loop: wait, choose, play, advance.
func (s *Session) playTurns(ctx context.Context) error {
	t, slot := s.table, s.player.Number
	s.p.info.Println("Waiting for turn...")
	for {
		done, err := t.WaitTurn(ctx, slot, s.notify)
		if err != nil {
			return fmt.Errorf("wait for turn: %w", err)
		}
		if done {
			s.p.success.Println("Game over.")
			return s.state.To(lifecycle.Done)
		}
		if err := s.takeTurn(ctx); err != nil {
			return err
		}
		s.p.info.Println("Waiting for turn...")
	}
}

func (s *Session) takeTurn(ctx context.Context) error {
	t, slot := s.table, s.player.Number
	ctx, span := s.tracer.Start(ctx, "game.turn", trace.WithAttributes(
		attribute.Int("tpc.slot", slot),
		attribute.Int("tpc.round", t.Round()),
	))
	defer span.End()

	if err := s.state.To(lifecycle.Acting); err != nil {
		return err
	}
	s.p.success.Println("It's your turn. You can play!")

	var played table.Play
	for {
		c, err := s.choose(ctx)
		if err != nil {
			return err
		}
		played, err = t.Play(slot, c)
		if err == nil {
			break
		}
		if !errors.Is(err, table.ErrCardPlayed) && !errors.Is(err, card.ErrInvalidCard) {
			return fmt.Errorf("play %v: %w", c, err)
		}
		s.p.fail.Printfln("%v", err)
	}
	span.SetAttributes(attribute.String("tpc.card", played.Card.String()))

	s.handMu.Lock()
	s.hand.Remove(played.Card)
	hand := s.hand.String()
	s.handMu.Unlock()
	s.metrics.CardsPlayed.Inc()
	s.record(audit.Play, played.Card.String())
	s.record(audit.Hand, hand)

	if err := s.state.To(lifecycle.AdvancingTurn); err != nil {
		return err
	}
	if err := t.Advance(slot); err != nil {
		return fmt.Errorf("advance turn: %w", err)
	}
	s.metrics.TurnAdvances.Inc()
	return s.state.To(lifecycle.AwaitingTurn)
}

// choose picks the card to play: the first card of the hand in automatic
// play, otherwise whatever the console submits.
func (s *Session) choose(ctx context.Context) (card.Card, error) {
	if s.config.AutoPlay {
		s.handMu.Lock()
		defer s.handMu.Unlock()
		if s.hand.Len() == 0 {
			return card.Card{}, errors.New("no cards left to play")
		}
		return s.hand.Cards()[0], nil
	}
	s.gate.Open()
	return s.gate.Await(ctx)
}

func (s *Session) notify(p table.Play) {
	s.metrics.PlaysSeen.Inc()
	s.p.info.Printfln("Player %s played card %v.", p.Name, p.Card)
}

// record appends one entry to the shared log. Failures never stop the game.
func (s *Session) record(action audit.Action, detail string) {
	actor := audit.PlayerActor(s.player.Number, s.player.Name)
	if action == audit.Deal {
		actor = audit.DealerActor(s.player.Name)
	}
	if err := s.log.Log(action, actor, detail); err != nil {
		s.logFailed(err)
	}
}

func (s *Session) logFailed(err error) {
	s.metrics.LogFailures.Inc()
	internalLogger.Warnf("shared log: %v", err)
}

func (s *Session) handString() string {
	s.handMu.Lock()
	defer s.handMu.Unlock()
	return s.hand.String()
}

func (s *Session) holds(c card.Card) bool {
	s.handMu.Lock()
	defer s.handMu.Unlock()
	return s.hand.Contains(c)
}

func (s *Session) teardown() {
	if s.dealer {
		if err := s.table.Destroy(); err != nil {
			internalLogger.Errorf("destroy table %s: %v", s.config.TableName, err)
		}
		return
	}
	if err := s.table.Close(); err != nil {
		internalLogger.Warnf("close table %s: %v", s.config.TableName, err)
	}
}

// syncWriter serializes writes from the turn loop and the console.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

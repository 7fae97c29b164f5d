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

package game

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/tpc/pkg/health"
	"github.com/srediag/tpc/pkg/shm"
	"github.com/srediag/tpc/pkg/table"
	"github.com/srediag/tpc/pkg/transport"
)

// Environment overrides applied by LoadEnv.
const (
	EnvShmDir      = "TPC_SHM_DIR"
	EnvChannelDir  = "TPC_CHANNEL_DIR"
	EnvLogDir      = "TPC_LOG_DIR"
	EnvMetricsAddr = "TPC_METRICS_ADDR"
	EnvAutoPlay    = "TPC_AUTOPLAY"
)

// ErrInvalidConfig wraps every VerifyConfig failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is used to tune a player session.
type Config struct {
	// PlayerName is this player's name, 1 to table.MaxNameLen bytes.
	PlayerName string
	// TableName is the name every player of one game agrees on.
	TableName string
	// MaxPlayers is the roster size requested when this process creates
	// the table. An existing table keeps its own size.
	MaxPlayers int

	// ShmDir holds the shared memory object.
	ShmDir string
	// ChannelDir holds the delivery FIFOs.
	ChannelDir string
	// LogDir holds the shared <table>.log file.
	LogDir string

	// AutoPlay plays the first card of the hand on every turn instead of
	// reading commands from In.
	AutoPlay bool
	// Seed seeds the dealer's shuffle. Zero picks a time based seed.
	Seed int64
	// MetricsAddr, if set, serves /metrics, /live and /ready.
	MetricsAddr string

	In  io.Reader
	Out io.Writer

	Meter   metric.Meter
	Tracer  trace.Tracer
	Metrics *health.Metrics

	// Channels builds delivery channels; nil means named FIFOs.
	Channels transport.Factory
}

// DefaultConfig returns the default config. PlayerName, TableName and
// MaxPlayers still have to be set.
func DefaultConfig() *Config {
	return &Config{
		ShmDir:     shm.DefaultDir,
		ChannelDir: os.TempDir(),
		LogDir:     ".",
		In:         os.Stdin,
		Out:        os.Stdout,
	}
}

// LoadEnv applies the TPC_* environment overrides to c.
func (c *Config) LoadEnv() error {
	if v := os.Getenv(EnvShmDir); v != "" {
		c.ShmDir = v
	}
	if v := os.Getenv(EnvChannelDir); v != "" {
		c.ChannelDir = v
	}
	if v := os.Getenv(EnvLogDir); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv(EnvAutoPlay); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvAutoPlay, v)
		}
		c.AutoPlay = on
	}
	return nil
}

// VerifyConfig is used to verify the sanity of configuration.
func VerifyConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if c.PlayerName == "" || len(c.PlayerName) > table.MaxNameLen {
		return fmt.Errorf("%w: player name must be 1 to %d bytes", ErrInvalidConfig, table.MaxNameLen)
	}
	if c.TableName == "" || strings.ContainsRune(c.TableName, '/') {
		return fmt.Errorf("%w: table name must be non-empty and contain no '/'", ErrInvalidConfig)
	}
	if c.MaxPlayers < table.MinPlayers || c.MaxPlayers > table.MaxPlayers {
		return fmt.Errorf("%w: number of players must be between %d and %d, got %d",
			ErrInvalidConfig, table.MinPlayers, table.MaxPlayers, c.MaxPlayers)
	}
	// the last slot has the longest channel name
	if n := len(channelPath(c.ChannelDir, c.TableName, c.MaxPlayers-1)); n > table.MaxChannelLen {
		return fmt.Errorf("%w: channel path is %d bytes, at most %d fit", ErrInvalidConfig, n, table.MaxChannelLen)
	}
	if c.ShmDir == "" || c.ChannelDir == "" || c.LogDir == "" {
		return fmt.Errorf("%w: shm, channel and log directories must be set", ErrInvalidConfig)
	}
	if c.Out == nil {
		return fmt.Errorf("%w: nil output", ErrInvalidConfig)
	}
	if c.In == nil && !c.AutoPlay {
		return fmt.Errorf("%w: interactive play needs an input", ErrInvalidConfig)
	}
	return nil
}

func channelPath(dir, tableName string, slot int) string {
	return filepath.Join(dir, "tpc."+tableName+".fifo"+strconv.Itoa(slot))
}

func logPath(dir, tableName string) string {
	return filepath.Join(dir, tableName+".log")
}

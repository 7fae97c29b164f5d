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

// Command tpc seats one player at a shared card table. The first process to
// name a table creates it and deals; the game starts once every seat is
// taken.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/srediag/tpc/pkg/game"
)

const usage = `Usage: tpc <playerName> <tableName> <numPlayers>

  playerName   your name at the table, at most 32 bytes
  tableName    the table every player of one game names
  numPlayers   seats at the table, 2 to 52; a joined table keeps its own size

Environment:
  TPC_SHM_DIR       shared memory directory (default /dev/shm)
  TPC_CHANNEL_DIR   card delivery FIFO directory (default the temp dir)
  TPC_LOG_DIR       directory of <tableName>.log (default .)
  TPC_METRICS_ADDR  serve /metrics, /live and /ready on this address
  TPC_AUTOPLAY      play the first card of the hand on every turn
  TPC_LOG_LEVEL     diagnostic level, 0 (trace) to 5 (silent)
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
		fmt.Fprint(stdout, usage)
		return 0
	}
	fail := pterm.Error.WithWriter(stderr)
	if len(args) != 3 {
		fmt.Fprint(stderr, usage)
		return 1
	}
	numPlayers, err := strconv.Atoi(args[2])
	if err != nil {
		fail.Printfln("numPlayers must be a number, got %q", args[2])
		fmt.Fprint(stderr, usage)
		return 1
	}

	config := game.DefaultConfig()
	config.PlayerName = args[0]
	config.TableName = args[1]
	config.MaxPlayers = numPlayers
	config.In = stdin
	config.Out = stdout
	if err := config.LoadEnv(); err != nil {
		fail.Println(err)
		return 1
	}
	session, err := game.NewSession(config)
	if err != nil {
		fail.Println(err)
		fmt.Fprint(stderr, usage)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := session.Run(ctx); err != nil {
		fail.Println(err)
		return 1
	}
	return 0
}

// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tournament_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/arena/pkg/agent"
	"laptudirm.com/x/arena/pkg/match"
	"laptudirm.com/x/arena/pkg/record"
	"laptudirm.com/x/arena/pkg/tournament"
)

// confused never names a move, so every one of its turns falls back to a
// random legal move.
type confused struct {
	name string

	mu    sync.Mutex
	calls int
}

func (c *confused) Name() string { return c.name }

func (c *confused) RequestMove(context.Context, string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	return "I am not sure what to play.", nil
}

func newTournament(t *testing.T, config tournament.Config) (*tournament.Tournament, *bytes.Buffer) {
	t.Helper()

	agents := make([]match.Agent, len(config.Agents))
	for i, config := range config.Agents {
		agents[i] = &confused{name: config.Name}
	}

	tour, err := tournament.NewTournament(config, agents)
	require.NoError(t, err)

	var out bytes.Buffer
	tour.Output = &out
	return tour, &out
}

func players(names ...string) []agent.Config {
	configs := make([]agent.Config, len(names))
	for i, name := range names {
		configs[i] = agent.Config{Name: name, Backend: agent.BackendScripted}
	}

	return configs
}

func TestTournament(t *testing.T) {
	dir := t.TempDir()

	tour, out := newTournament(t, tournament.Config{
		Event:       "test",
		Game:        "tictactoe",
		Agents:      players("alpha", "beta", "gamma"),
		Concurrency: 2,
		Seed:        7,
		Retry:       match.RetryConfig{MaxAttempts: 1},
		LogDir:      filepath.Join(dir, "logs"),
		Transcripts: filepath.Join(dir, "games.txt"),
	})

	assert.Equal(t, 6, tour.TotalGames())
	require.NoError(t, tour.Start(context.Background()))

	total := 0
	for i, score := range tour.Scores {
		assert.Zero(t, score.Aborts, "agent %d", i)
		assert.Equal(t, 4, score.Games(), "agent %d", i)
		total += score.Games()
	}
	assert.Equal(t, 12, total)

	wins, losses := 0, 0
	for _, score := range tour.Scores {
		wins += score.Wins
		losses += score.Losses
	}
	assert.Equal(t, wins, losses)

	logs, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.Len(t, logs, 6)

	for _, entry := range logs {
		log, err := record.ReadLogFile(filepath.Join(dir, "logs", entry.Name()))
		require.NoError(t, err)
		require.NotNil(t, log.Result)

		_, err = log.Replay()
		assert.NoError(t, err)
	}

	transcripts, err := os.ReadFile(filepath.Join(dir, "games.txt"))
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(transcripts), "[Event \"test\"]"))
	assert.Contains(t, string(transcripts), "{fallback}")

	// one report after five games and one at the end
	assert.Equal(t, 2, strings.Count(out.String(), "Elo Error"))
	assert.Contains(t, out.String(), "alpha")
}

func TestTournamentGamePairsSwapSides(t *testing.T) {
	tour, _ := newTournament(t, tournament.Config{
		Game:      "tictactoe",
		Agents:    players("alpha", "beta"),
		GamePairs: 2,
		Rounds:    2,
		Retry:     match.RetryConfig{MaxAttempts: 1},
	})

	assert.Equal(t, 8, tour.TotalGames())
	require.NoError(t, tour.Start(context.Background()))

	assert.Equal(t, 8, tour.Scores[0].Games())
	assert.Equal(t, tour.Scores[0].Wins, tour.Scores[1].Losses)
	assert.Equal(t, tour.Scores[0].Draws, tour.Scores[1].Draws)
}

func TestTournamentGame(t *testing.T) {
	tour, _ := newTournament(t, tournament.Config{
		Game:   "tictactoe",
		Agents: players("alpha", "beta"),
		Retry:  match.RetryConfig{MaxAttempts: 1},
	})

	result, err := tour.RunGame(context.Background(), &tournament.Game{
		Round: 1, Number: 1,
		Player1: 1, Player2: 0,
		Position: "XX./OO./...",
	})
	require.NoError(t, err)

	assert.Equal(t, [2]string{"beta", "alpha"}, result.Header.Players)
	assert.Equal(t, "tictactoe", result.Header.Game)
	assert.NotEqual(t, match.Aborted, result.Result.Kind)
}

func TestReportPerfectScore(t *testing.T) {
	tour, out := newTournament(t, tournament.Config{
		Game:   "tictactoe",
		Agents: players("alpha", "beta"),
	})

	tour.Scores[0] = tournament.Scores{Wins: 3}
	tour.Scores[1] = tournament.Scores{Losses: 3}
	tour.Report()

	lines := strings.Split(out.String(), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[3], "alpha")
	assert.Contains(t, lines[3], "+999")
	assert.Contains(t, lines[4], "beta")
	assert.Contains(t, lines[4], "-999")
}

func TestTournamentCancelled(t *testing.T) {
	tour, _ := newTournament(t, tournament.Config{
		Game:   "tictactoe",
		Agents: players("alpha", "beta"),
		Rounds: 3,
		Retry:  match.RetryConfig{MaxAttempts: 1},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, tour.Start(ctx), context.Canceled)
}

func TestTournamentOpenings(t *testing.T) {
	book := filepath.Join(t.TempDir(), "openings.txt")
	require.NoError(t, os.WriteFile(book, []byte("# tic-tac-toe\nX........\n\n....X....\n"), 0644))

	config := tournament.Config{
		Game:   "tictactoe",
		Agents: players("alpha", "beta"),
		Rounds: 2,
		Retry:  match.RetryConfig{MaxAttempts: 1},
	}
	config.Openings.File = book

	tour, _ := newTournament(t, config)
	require.NoError(t, tour.Start(context.Background()))
	assert.Equal(t, 4, tour.Scores[0].Games()+tour.Scores[0].Aborts)
}

func TestNewTournamentErrors(t *testing.T) {
	_, err := tournament.NewTournament(tournament.Config{
		Agents: players("alpha", "beta"),
	}, nil)
	assert.Error(t, err, "missing game")

	_, err = tournament.NewTournament(tournament.Config{
		Game:   "tictactoe",
		Agents: players("alpha"),
	}, nil)
	assert.Error(t, err, "one agent")

	_, err = tournament.NewTournament(tournament.Config{
		Game:   "tictactoe",
		Agents: players("alpha", "beta"),
	}, []match.Agent{&confused{name: "alpha"}})
	assert.Error(t, err, "agent count")

	_, err = tournament.NewTournament(tournament.Config{
		Game:     "tictactoe",
		Position: "XXX/XXX/XXX",
		Agents:   players("alpha", "beta"),
	}, []match.Agent{&confused{name: "alpha"}, &confused{name: "beta"}})
	assert.Error(t, err, "bad position")
}

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

// Package tournament runs many games between a set of agents, concurrently,
// and reports their results.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"laptudirm.com/x/arena/pkg/agent"
	"laptudirm.com/x/arena/pkg/games"
	"laptudirm.com/x/arena/pkg/match"
	"laptudirm.com/x/arena/pkg/record"
	"laptudirm.com/x/arena/pkg/stats"
)

// Config configures a tournament.
type Config struct {
	Event string `yaml:"event"` // Event field of the transcripts.
	Site  string `yaml:"site"`  // Site field of the transcripts.

	// The game that will be played, and the position it starts from if
	// no opening book is used.
	Game     string `yaml:"game"`
	Position string `yaml:"position"`

	Openings struct {
		File  string `yaml:"file"`
		Order string `yaml:"order"` // sequential or random
	} `yaml:"openings"`

	// The agents participating in the tournament.
	Agents []agent.Config `yaml:"agents"`

	Scheduler string `yaml:"scheduler"`

	// 1 Tournament = {ROUNDS} Rounds
	// 1 Round      = {SOME_N} Encounters
	// 1 Encounter  = {GAME_P} Game Pairs
	// 1 Game Pair  = 2 Games
	Rounds    int `yaml:"rounds"`     // Number of rounds to run the tournament for.
	GamePairs int `yaml:"game-pairs"` // Number of game pairs per encounter in every round.

	// Number of games that will be played concurrently.
	Concurrency int `yaml:"concurrency"`

	MaxTurns int               `yaml:"max-turns"`
	Retry    match.RetryConfig `yaml:"retry"`

	// Seed seeds the fallback move choices and random opening orders.
	Seed int64 `yaml:"seed"`

	LogDir      string `yaml:"log-dir"`     // Directory to store YAML game logs in.
	Transcripts string `yaml:"transcripts"` // File to append game transcripts to.
}

// Normalize fills the unset fields of the config with defaults and checks
// the rest of them.
func (config *Config) Normalize() error {
	if config.Game == "" {
		return errors.New("tournament: missing game")
	}

	if len(config.Agents) < 2 {
		return errors.New("tournament: at least two agents are needed")
	}

	if config.Rounds == 0 {
		config.Rounds = 1
	}

	if config.GamePairs == 0 {
		config.GamePairs = 1
	}

	if config.Concurrency == 0 {
		config.Concurrency = 1
	}

	if config.MaxTurns == 0 {
		config.MaxTurns = match.DefaultMaxTurns
	}

	if config.Rounds < 0 || config.GamePairs < 0 || config.Concurrency < 0 || config.MaxTurns < 0 {
		return errors.New("tournament: negative count")
	}

	return config.Retry.Normalize()
}

// Scores is the record of a single agent in a tournament.
type Scores struct {
	Wins, Losses, Draws, Aborts int
}

// Games returns the number of finished games the agent played.
func (scores Scores) Games() int {
	return scores.Wins + scores.Losses + scores.Draws
}

// Tournament is a tournament between a set of agents. Agents are shared by
// concurrent games, while every game gets its own engine, retry state,
// recorders, and random source.
type Tournament struct {
	Config Config

	// Hub, if set, receives the events of every game.
	Hub *record.Hub

	// Output is where reports are written to. It defaults to os.Stdout.
	Output io.Writer

	agents    []match.Agent
	scheduler Scheduler
	openings  *match.OpeningBook

	// owned by the result collector
	results int
	Scores  []Scores
}

// Game is a single game of a tournament.
type Game struct {
	Round, Number    int
	Player1, Player2 int
	Position         string
}

// Result is the result of a single game of a tournament.
type Result struct {
	Game   *Game
	Header record.Header
	Result *match.Result
}

// NewTournament creates a new tournament between the given agents, which
// must be in the same order as the agents of the config.
func NewTournament(config Config, agents []match.Agent) (*Tournament, error) {
	if err := config.Normalize(); err != nil {
		return nil, err
	}

	if len(agents) != len(config.Agents) {
		return nil, fmt.Errorf("tournament: %d agents for %d configs", len(agents), len(config.Agents))
	}

	tour := &Tournament{
		Config: config,
		Output: os.Stdout,
		agents: agents,
		Scores: make([]Scores, len(agents)),
	}

	var err error
	if tour.scheduler, err = NewScheduler(config.Scheduler); err != nil {
		return nil, err
	}

	if config.Openings.File != "" {
		rng := rand.New(rand.NewSource(config.Seed))
		tour.openings, err = match.NewBook(config.Openings.File, config.Openings.Order, rng)
		if err != nil {
			return nil, fmt.Errorf("tournament: %w", err)
		}
	}

	// check the starting position once instead of failing every game
	if _, err := games.New(config.Game, tour.position()); err != nil {
		return nil, fmt.Errorf("tournament: %w", err)
	}

	if config.LogDir != "" {
		if err := os.MkdirAll(config.LogDir, 0755); err != nil {
			return nil, err
		}
	}

	return tour, nil
}

// TotalGames returns the number of games in the tournament.
func (tour *Tournament) TotalGames() int {
	tour.scheduler.Initialize(len(tour.agents))
	return tour.Config.Rounds * tour.scheduler.TotalEncounters() * tour.Config.GamePairs * 2
}

func (tour *Tournament) position() string {
	if tour.openings != nil {
		return tour.openings.Current()
	}

	return tour.Config.Position
}

// Start runs the tournament to completion. Aborted games do not stop the
// tournament; a rules violation or a recording failure does.
func (tour *Tournament) Start(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	queue := make(chan *Game)
	results := make(chan Result)

	group.Go(func() error {
		defer close(queue)
		return tour.schedule(ctx, queue)
	})

	for i := 0; i < tour.Config.Concurrency; i++ {
		group.Go(func() error {
			for game := range queue {
				result, err := tour.RunGame(ctx, game)
				if err != nil {
					return err
				}

				results <- result
			}

			return nil
		})
	}

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for result := range results {
			tour.collect(result)
		}
	}()

	err := group.Wait()
	close(results)
	<-collected

	tour.Report()
	return err
}

func (tour *Tournament) schedule(ctx context.Context, queue chan<- *Game) error {
	number := 0
	for round := 0; round < tour.Config.Rounds; round++ {
		tour.scheduler.Initialize(len(tour.agents))

		for encounter := 0; encounter < tour.scheduler.TotalEncounters(); encounter++ {
			p1, p2 := tour.scheduler.NextEncounter()

			for pair := 0; pair < tour.Config.GamePairs; pair++ {
				position := tour.position()

				for game := 0; game < 2; game++ {
					if err := ctx.Err(); err != nil {
						return err
					}

					number++

					select {
					case queue <- &Game{
						Round:    round + 1,
						Number:   number,
						Player1:  p1,
						Player2:  p2,
						Position: position,
					}:
					case <-ctx.Done():
						return ctx.Err()
					}

					// Switch sides.
					p1, p2 = p2, p1
				}

				if tour.openings != nil {
					tour.openings.Next()
				}
			}
		}
	}

	return nil
}

// RunGame plays a single game of the tournament.
func (tour *Tournament) RunGame(ctx context.Context, game *Game) (Result, error) {
	board, err := games.New(tour.Config.Game, game.Position)
	if err != nil {
		return Result{}, err
	}

	header := record.Header{
		Event: tour.Config.Event,
		Site:  tour.Config.Site,
		Round: game.Round,
		Date:  time.Now(),
		Game:  board.Name(),
		Start: board.Position().String(),
		Players: [games.SideN]string{
			tour.agents[game.Player1].Name(),
			tour.agents[game.Player2].Name(),
		},
	}

	logrus.Infof(
		"\x1b[33mStarting\x1b[0m Round #%d Game #%d: %s vs %s (\x1b[33m%s\x1b[0m)\n",
		game.Round, game.Number,
		header.Players[games.First], header.Players[games.Second],
		header.Start,
	)

	recorders := record.Multi{}
	if tour.Config.LogDir != "" {
		name := fmt.Sprintf("round%02d-game%04d.yaml", game.Round, game.Number)

		log, err := record.CreateYAML(filepath.Join(tour.Config.LogDir, name), header)
		if err != nil {
			return Result{}, err
		}

		// a game ending in an error is never finalized
		defer log.Close()

		recorders = append(recorders, log)
	}

	if tour.Hub != nil {
		id := fmt.Sprintf("%d", game.Number)
		recorders = append(recorders, tour.Hub.NewSpectator(id, header, board))
	}

	result, err := match.Run(ctx, &match.Config{
		Game: board,
		Agents: [games.SideN]match.Agent{
			tour.agents[game.Player1],
			tour.agents[game.Player2],
		},
		Retry:    tour.Config.Retry,
		MaxTurns: tour.Config.MaxTurns,
		Recorder: recorders,
		Rand:     rand.New(rand.NewSource(tour.Config.Seed + int64(game.Number))),
	})
	if err != nil {
		return Result{}, fmt.Errorf("round %d game %d: %w", game.Round, game.Number, err)
	}

	return Result{Game: game, Header: header, Result: result}, nil
}

// collect records a finished game. It is only ever called from the result
// collector goroutine.
func (tour *Tournament) collect(result Result) {
	tour.results++

	game, res := result.Game, result.Result
	p1, p2 := &tour.Scores[game.Player1], &tour.Scores[game.Player2]

	switch res.Score() {
	case match.Player1Wins:
		p1.Wins++
		p2.Losses++
	case match.Player2Wins:
		p2.Wins++
		p1.Losses++
	case match.Draw:
		p1.Draws++
		p2.Draws++
	default:
		p1.Aborts++
		p2.Aborts++
	}

	players := result.Header.Players

	logrus.Infof(
		"\x1b[32mFinished\x1b[0m Round #%d Game #%d: %s vs %s: %s\n",
		game.Round, game.Number,
		players[games.First], players[games.Second],
		record.Describe(res, players),
	)

	// transcripts are appended here to keep them in a single writer
	if tour.Config.Transcripts != "" {
		if err := record.AppendTranscript(tour.Config.Transcripts, result.Header, res.Turns, res); err != nil {
			logrus.Errorf("writing transcript of game %d: %v", game.Number, err)
		}
	}

	if tour.results%5 == 0 {
		tour.Report()
	}
}

// Report prints a table of the scores of every agent.
func (tour *Tournament) Report() {
	w := tour.Output

	fmt.Fprintln(w, "╔═══════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║    Name               Elo Error   Wins Loss Draw Abrt   Total ║")
	fmt.Fprintln(w, "╠═══════════════════════════════════════════════════════════════╣")
	for i, config := range tour.Config.Agents {
		score := tour.Scores[i]
		_, elo, _ := stats.Elo(score.Wins, score.Draws, score.Losses)
		margin := stats.ErrorMargin(score.Wins, score.Draws, score.Losses)

		format := "║ %2d. %-15.15s   %+4.0f %4.0f   %4d %4d %4d %4d   %5d ║\n"
		if tour.Config.Scheduler == GauntletScheduler && i == 0 {
			if elo >= 0 {
				format = "║ \x1b[32m%2d. %-15.15s   %+4.0f %4.0f   %4d %4d %4d %4d   %5d\x1b[0m ║\n"
			} else {
				format = "║ \x1b[31m%2d. %-15.15s   %+4.0f %4.0f   %4d %4d %4d %4d   %5d\x1b[0m ║\n"
			}
		}

		fmt.Fprintf(
			w, format,
			i+1, config.Name,
			elo, margin,
			score.Wins, score.Losses, score.Draws, score.Aborts,
			score.Games()+score.Aborts,
		)
	}
	fmt.Fprintln(w, "╚═══════════════════════════════════════════════════════════════╝")
}

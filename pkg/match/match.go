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

// Package match referees a single game between two agents. It asks the
// agent whose turn it is for a move, interprets the reply, retries or falls
// back when the reply is unusable, and records every completed turn.
package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/arena/pkg/games"
)

// Agent is a player which chooses moves by replying to prompts.
type Agent interface {
	Name() string

	// RequestMove sends the prompt to the agent and returns its raw reply.
	// Implementations must return once ctx is done.
	RequestMove(ctx context.Context, prompt string) (string, error)
}

// Recorder observes a game as it is played. Append is called after
// every completed turn and Finalize once with the final result.
type Recorder interface {
	Append(Turn) error
	Finalize(*Result) error
}

// DefaultMaxTurns is the turn ceiling used when none is configured.
const DefaultMaxTurns = 1000

// ErrRulesViolation is returned by Run if the game rejects a move which
// was resolved as legal. It is always fatal.
var ErrRulesViolation = errors.New("match: rules violation")

// Config configures a single game.
type Config struct {
	Game games.Game

	// Agents are indexed by the side they play.
	Agents [games.SideN]Agent

	Retry    RetryConfig
	MaxTurns int

	// Recorder may be nil.
	Recorder Recorder

	// Rand picks fallback moves. A nil Rand is seeded from the clock.
	Rand *rand.Rand

	// Sleep waits between attempts. It defaults to Sleep.
	Sleep func(context.Context, time.Duration) error
}

func (config *Config) normalize() error {
	if config.Game == nil {
		return errors.New("match: no game")
	}

	for side, agent := range config.Agents {
		if agent == nil {
			return fmt.Errorf("match: no agent for the %s side", games.Side(side))
		}
	}

	if err := config.Retry.Normalize(); err != nil {
		return err
	}

	if config.MaxTurns == 0 {
		config.MaxTurns = DefaultMaxTurns
	}

	if config.Recorder == nil {
		config.Recorder = nopRecorder{}
	}

	if config.Rand == nil {
		config.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if config.Sleep == nil {
		config.Sleep = Sleep
	}

	return nil
}

// Run plays a game to completion. Cancellation, the turn ceiling, and
// agents running out of attempts abort the game, which is reported in the
// returned Result. An error is returned only for a rules violation, a
// recorder failure, or an invalid config.
func Run(ctx context.Context, config *Config) (*Result, error) {
	if err := config.normalize(); err != nil {
		return nil, err
	}

	game := config.Game
	result := &Result{Start: game.Position().String()}

	for {
		if ctx.Err() != nil {
			return finish(config, result, Aborted, ReasonCancelled)
		}

		if outcome, reason := game.Result(); outcome != games.Ongoing {
			stm := game.Position().SideToMove()
			switch outcome {
			case games.StmWins:
				result.Winner = stm
				return finish(config, result, Won, reason)
			case games.XtmWins:
				result.Winner = stm.Other()
				return finish(config, result, Won, reason)
			default:
				return finish(config, result, Drawn, reason)
			}
		}

		if len(result.Turns) >= config.MaxTurns {
			return finish(config, result, Aborted, ReasonTurnLimit)
		}

		turn, abort := playTurn(ctx, config, result)
		if abort != "" {
			return finish(config, result, Aborted, abort)
		}

		if _, err := game.Apply(turn.Move); err != nil {
			return result, fmt.Errorf("%w: turn %d: %w", ErrRulesViolation, turn.Number, err)
		}

		result.Turns = append(result.Turns, turn)
		if err := config.Recorder.Append(turn); err != nil {
			return result, fmt.Errorf("match: recording turn %d: %w", turn.Number, err)
		}
	}
}

// playTurn asks the side to move's agent for a move until it makes a legal
// one or its attempts run out. A non-empty abort reason is returned if the
// game has to be aborted, in which case the turn's attempts are stored in
// result.Unfinished.
func playTurn(ctx context.Context, config *Config, result *Result) (Turn, string) {
	game := config.Game
	pos := game.Position()
	side := pos.SideToMove()
	agent := config.Agents[side]

	turn := Turn{
		Number: len(result.Turns) + 1,
		Agent:  agent.Name(),
		Side:   side,
	}

	legal := game.LegalMoves()
	if legal.Len() == 0 {
		return turn, ReasonNoLegalMoves
	}

	logger := logrus.WithFields(logrus.Fields{
		"game":  game.Name(),
		"turn":  turn.Number,
		"agent": turn.Agent,
	})

	data := NewPromptData(game, config.Agents[side.Other()].Name(), result.Turns)
	data.MaxAttempts = config.Retry.MaxAttempts

	unfinished := func(reason string) (Turn, string) {
		result.Unfinished = turn.Attempts
		return turn, reason
	}

	retry := NewRetry(config.Retry)
	for {
		if ctx.Err() != nil {
			return unfinished(ReasonCancelled)
		}

		data.Attempt = retry.Attempts() + 1
		prompt, err := BuildPrompt(data)
		if err != nil {
			// unreachable: the template is static
			panic(err)
		}

		logger.WithField("attempt", data.Attempt).Trace("requesting move")

		attempt := Attempt{Number: data.Attempt}
		reply, err := agent.RequestMove(ctx, prompt)

		var resolution Resolution
		if err != nil {
			attempt.Outcome = AgentError
			attempt.Reason = err.Error()
		} else {
			resolution = Resolve(reply, game.Notation(), pos, legal)
			attempt.Reply = reply
			attempt.Move = resolution.Move
			attempt.Outcome = resolution.Outcome
			attempt.Reason = resolution.Reason
		}

		turn.Attempts = append(turn.Attempts, attempt)
		logger.WithFields(logrus.Fields{
			"attempt": attempt.Number,
			"outcome": attempt.Outcome,
			"move":    attempt.Move,
		}).Debug(attempt.Reason)

		if err != nil && ctx.Err() != nil {
			return unfinished(ReasonCancelled)
		}

		state, wait := retry.Record(attempt.Outcome)
		switch state {
		case Succeeded:
			turn.Move = resolution.Move
			turn.Reasoning = resolution.Reasoning
			return turn, ""

		case Exhausted:
			return unfinished(ReasonRetriesExhausted)

		case FallenBack:
			// the legal set is taken afresh right before the move is played
			move, state := retry.Fallback(game.LegalMoves(), config.Rand)
			if state == Exhausted {
				return unfinished(ReasonNoLegalMoves)
			}

			turn.Move = move
			turn.Fallback = true
			turn.Note = fmt.Sprintf(
				"%s failed %d attempts, played random legal move %s",
				agent.Name(), retry.Attempts(), move,
			)
			logger.Warn(turn.Note)
			return turn, ""
		}

		data.Failure = attempt.Reason
		if err := config.Sleep(ctx, wait); err != nil {
			return unfinished(ReasonCancelled)
		}
	}
}

func finish(config *Config, result *Result, kind Kind, reason string) (*Result, error) {
	result.Kind = kind
	result.Reason = reason
	result.Final = config.Game.Position().String()

	if err := config.Recorder.Finalize(result); err != nil {
		return result, fmt.Errorf("match: recording result: %w", err)
	}

	return result, nil
}

type nopRecorder struct{}

func (nopRecorder) Append(Turn) error      { return nil }
func (nopRecorder) Finalize(*Result) error { return nil }

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

package match_test

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/arena/pkg/games"
	"laptudirm.com/x/arena/pkg/match"
)

// fakeAgent answers prompts with reply, which is given the 0-based number
// of the call.
type fakeAgent struct {
	name  string
	reply func(call int) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (agent *fakeAgent) Name() string {
	return agent.name
}

func (agent *fakeAgent) RequestMove(ctx context.Context, prompt string) (string, error) {
	agent.mu.Lock()
	call := len(agent.prompts)
	agent.prompts = append(agent.prompts, prompt)
	agent.mu.Unlock()

	return agent.reply(call)
}

func (agent *fakeAgent) calls() int {
	agent.mu.Lock()
	defer agent.mu.Unlock()
	return len(agent.prompts)
}

func always(name, reply string) *fakeAgent {
	return &fakeAgent{
		name:  name,
		reply: func(int) (string, error) { return reply, nil },
	}
}

func replies(name string, replies ...string) *fakeAgent {
	return &fakeAgent{
		name: name,
		reply: func(call int) (string, error) {
			return replies[call%len(replies)], nil
		},
	}
}

type fakeRecorder struct {
	turns   []match.Turn
	results []*match.Result
	err     error
}

func (recorder *fakeRecorder) Append(turn match.Turn) error {
	recorder.turns = append(recorder.turns, turn)
	return recorder.err
}

func (recorder *fakeRecorder) Finalize(result *match.Result) error {
	recorder.results = append(recorder.results, result)
	return nil
}

type sleeps struct {
	waits []time.Duration
}

func (s *sleeps) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func newConfig(t *testing.T, game string, agent1, agent2 match.Agent) *match.Config {
	t.Helper()

	g, err := games.New(game, "")
	require.NoError(t, err)

	return &match.Config{
		Game:   g,
		Agents: [games.SideN]match.Agent{agent1, agent2},
		Rand:   rand.New(rand.NewSource(42)),
		Sleep:  (&sleeps{}).sleep,
	}
}

func TestRunTicTacToeWithFallback(t *testing.T) {
	agent1 := always("center", "I'll take the center, move 1,1")
	agent2 := always("mumbler", "hmm, let me think about it")

	recorder := &fakeRecorder{}
	config := newConfig(t, "tictactoe", agent1, agent2)
	config.Recorder = recorder

	result, err := match.Run(context.Background(), config)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(result.Turns), 2)

	first := result.Turns[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "center", first.Agent)
	assert.Equal(t, games.First, first.Side)
	assert.Equal(t, games.Move("1,1"), first.Move)
	assert.False(t, first.Fallback)
	require.Len(t, first.Attempts, 1)
	assert.Equal(t, match.Success, first.Attempts[0].Outcome)

	second := result.Turns[1]
	assert.Equal(t, "mumbler", second.Agent)
	assert.True(t, second.Fallback)
	assert.NotEmpty(t, second.Note)
	assert.NotEqual(t, games.Move("1,1"), second.Move)
	assert.Regexp(t, regexp.MustCompile(`^[0-2],[0-2]$`), string(second.Move))
	require.Len(t, second.Attempts, 3)
	for i, attempt := range second.Attempts {
		assert.Equal(t, i+1, attempt.Number)
		assert.Equal(t, match.ParseFailure, attempt.Outcome)
		assert.Equal(t, games.NullMove, attempt.Move)
	}

	// every game of tic-tac-toe ends within nine turns
	assert.NotEqual(t, match.Aborted, result.Kind)
	assert.LessOrEqual(t, len(result.Turns), 9)
	assert.Equal(t, result.Turns, recorder.turns)
	require.Len(t, recorder.results, 1)
	assert.Same(t, result, recorder.results[0])

	// no agent is asked more than three times per turn
	assert.LessOrEqual(t, agent1.calls()+agent2.calls(), 3*len(result.Turns))
}

func TestRunTicTacToeWin(t *testing.T) {
	agent1 := replies("alice", "MOVE: 0,0", "MOVE: 0,1", "MOVE: 0,2")
	agent2 := replies("bob", "MOVE: 1,0", "MOVE: 1,1")

	config := newConfig(t, "tictactoe", agent1, agent2)
	result, err := match.Run(context.Background(), config)
	require.NoError(t, err)

	assert.Equal(t, match.Won, result.Kind)
	assert.Equal(t, games.First, result.Winner)
	assert.Equal(t, "three in a row", result.Reason)
	assert.Equal(t, match.Player1Wins, result.Score())
	assert.Equal(t, "1-0", result.Score().String())
	assert.Len(t, result.Turns, 5)
	assert.Equal(t, "XXXOO....", result.Final)
	assert.Empty(t, result.Unfinished)
}

func TestRunChessFirstMove(t *testing.T) {
	agent1 := always("white", "e2e4 controls the center")
	agent2 := always("black", "MOVE: e7e5")

	config := newConfig(t, "chess", agent1, agent2)
	config.MaxTurns = 1

	result, err := match.Run(context.Background(), config)
	require.NoError(t, err)

	require.Len(t, result.Turns, 1)
	assert.Equal(t, games.Move("e2e4"), result.Turns[0].Move)
	assert.Equal(t, games.Second, config.Game.Position().SideToMove())
	assert.Equal(t, 0, agent2.calls())

	assert.Equal(t, match.Aborted, result.Kind)
	assert.Equal(t, match.ReasonTurnLimit, result.Reason)
	assert.Equal(t, match.Unscored, result.Score())
}

// stuckGame is an ongoing game in which no move is legal.
type stuckGame struct {
	games.Game
}

func (stuckGame) LegalMoves() games.MoveSet    { return games.NewMoveSet() }
func (stuckGame) Result() (games.Result, string) { return games.Ongoing, "" }

func TestRunAbortsWithoutLegalMoves(t *testing.T) {
	game, err := games.New("tictactoe", "")
	require.NoError(t, err)

	agent := always("any", "MOVE: 1,1")
	recorder := &fakeRecorder{}

	result, err := match.Run(context.Background(), &match.Config{
		Game:     stuckGame{game},
		Agents:   [games.SideN]match.Agent{agent, agent},
		Recorder: recorder,
	})
	require.NoError(t, err)

	assert.Equal(t, match.Aborted, result.Kind)
	assert.Equal(t, match.ReasonNoLegalMoves, result.Reason)
	assert.Empty(t, result.Turns)
	assert.Empty(t, recorder.turns)
	assert.Equal(t, 0, agent.calls())
	assert.Equal(t, game.Position().String(), result.Final)
}

// driedUpGame has legal moves when a turn starts, and none afterwards.
type driedUpGame struct {
	games.Game
	calls *int
}

func (game driedUpGame) LegalMoves() games.MoveSet {
	*game.calls++
	if *game.calls == 1 {
		return game.Game.LegalMoves()
	}

	return games.NewMoveSet()
}

func TestRunFallbackUsesCurrentLegalMoves(t *testing.T) {
	game, err := games.New("tictactoe", "")
	require.NoError(t, err)

	agent := always("any", "I cannot decide.")
	recorder := &fakeRecorder{}

	result, err := match.Run(context.Background(), &match.Config{
		Game:     driedUpGame{Game: game, calls: new(int)},
		Agents:   [games.SideN]match.Agent{agent, agent},
		Recorder: recorder,
		Rand:     rand.New(rand.NewSource(1)),
		Sleep:    (&sleeps{}).sleep,
	})
	require.NoError(t, err)

	assert.Equal(t, match.Aborted, result.Kind)
	assert.Equal(t, match.ReasonNoLegalMoves, result.Reason)
	assert.Empty(t, result.Turns)
	require.Len(t, result.Unfinished, 3)
	for _, attempt := range result.Unfinished {
		assert.Equal(t, match.ParseFailure, attempt.Outcome)
	}
	assert.Equal(t, 3, agent.calls())
	assert.Equal(t, game.Position().String(), result.Final)
}

func TestRunAbortPolicy(t *testing.T) {
	agent1 := always("nonsense", "pass")
	agent2 := always("unused", "MOVE: 0,0")

	config := newConfig(t, "tictactoe", agent1, agent2)
	config.Retry = match.RetryConfig{MaxAttempts: 2, Fallback: match.FallbackAbort}

	result, err := match.Run(context.Background(), config)
	require.NoError(t, err)

	assert.Equal(t, match.Aborted, result.Kind)
	assert.Equal(t, match.ReasonRetriesExhausted, result.Reason)
	assert.Empty(t, result.Turns)
	assert.Len(t, result.Unfinished, 2)
	assert.Equal(t, 2, agent1.calls())
	assert.Equal(t, result.Start, result.Final)
}

func TestRunRetriesAgentErrors(t *testing.T) {
	agent1 := &fakeAgent{
		name: "flaky",
		reply: func(call int) (string, error) {
			if call == 0 {
				return "", errors.New("503 service unavailable")
			}
			return "MOVE: 2,2", nil
		},
	}

	agent2 := always("bob", "MOVE: 0,0")

	s := &sleeps{}
	config := newConfig(t, "tictactoe", agent1, agent2)
	config.Retry = match.RetryConfig{Backoff: time.Second, MaxBackoff: 4 * time.Second}
	config.Sleep = s.sleep
	config.MaxTurns = 1

	result, err := match.Run(context.Background(), config)
	require.NoError(t, err)

	require.Len(t, result.Turns, 1)
	turn := result.Turns[0]
	require.Len(t, turn.Attempts, 2)
	assert.Equal(t, match.AgentError, turn.Attempts[0].Outcome)
	assert.Contains(t, turn.Attempts[0].Reason, "503")
	assert.Equal(t, match.Success, turn.Attempts[1].Outcome)
	assert.Equal(t, games.Move("2,2"), turn.Move)
	assert.Equal(t, []time.Duration{time.Second}, s.waits)

	// the retry prompt carries the previous failure
	assert.Contains(t, agent1.prompts[1], "503 service unavailable")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agent := always("any", "MOVE: 1,1")
	recorder := &fakeRecorder{}

	config := newConfig(t, "tictactoe", agent, agent)
	config.Recorder = recorder

	result, err := match.Run(ctx, config)
	require.NoError(t, err)

	assert.Equal(t, match.Aborted, result.Kind)
	assert.Equal(t, match.ReasonCancelled, result.Reason)
	assert.Equal(t, 0, agent.calls())
	assert.Len(t, recorder.results, 1)
}

func TestRunCancelledMidTurn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agent := &fakeAgent{
		name: "slow",
		reply: func(int) (string, error) {
			cancel()
			return "", context.Canceled
		},
	}

	config := newConfig(t, "tictactoe", agent, agent)
	result, err := match.Run(ctx, config)
	require.NoError(t, err)

	assert.Equal(t, match.Aborted, result.Kind)
	assert.Equal(t, match.ReasonCancelled, result.Reason)
	assert.Empty(t, result.Turns)
	require.Len(t, result.Unfinished, 1)
	assert.Equal(t, match.AgentError, result.Unfinished[0].Outcome)
	assert.Equal(t, 1, agent.calls())
}

// lyingGame lists a move as legal but refuses to play it.
type lyingGame struct {
	games.Game
}

func (game lyingGame) Apply(move games.Move) (games.Position, error) {
	return nil, &games.IllegalMoveError{Move: move, Position: game.Position().String()}
}

func TestRunRulesViolation(t *testing.T) {
	game, err := games.New("tictactoe", "")
	require.NoError(t, err)

	agent := always("any", "MOVE: 1,1")
	_, err = match.Run(context.Background(), &match.Config{
		Game:   lyingGame{game},
		Agents: [games.SideN]match.Agent{agent, agent},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, match.ErrRulesViolation)
	assert.ErrorIs(t, err, games.ErrIllegalMove)
}

func TestRunRecorderFailure(t *testing.T) {
	agent := always("any", "MOVE: 1,1")

	config := newConfig(t, "tictactoe", agent, agent)
	config.Recorder = &fakeRecorder{err: errors.New("disk full")}

	_, err := match.Run(context.Background(), config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRunInvalidConfig(t *testing.T) {
	_, err := match.Run(context.Background(), &match.Config{})
	assert.Error(t, err)

	config := newConfig(t, "tictactoe", always("a", ""), nil)
	_, err = match.Run(context.Background(), config)
	assert.Error(t, err)
}

func TestReplayReproducesFinalPosition(t *testing.T) {
	for _, name := range games.Names {
		t.Run(name, func(t *testing.T) {
			agent := always("random", "no idea")

			config := newConfig(t, name, agent, agent)
			config.MaxTurns = 40
			config.Retry = match.RetryConfig{MaxAttempts: 1}

			result, err := match.Run(context.Background(), config)
			require.NoError(t, err)
			require.NotEmpty(t, result.Turns)

			replayed, err := games.Replay(name, result.Start, match.Moves(result.Turns))
			require.NoError(t, err)
			assert.Equal(t, result.Final, replayed.Position().String())
		})
	}
}

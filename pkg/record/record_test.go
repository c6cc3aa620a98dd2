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

package record_test

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/arena/pkg/games"
	"laptudirm.com/x/arena/pkg/match"
	"laptudirm.com/x/arena/pkg/record"
)

type repeat string

func (r repeat) Name() string { return string(r) }

func (r repeat) RequestMove(context.Context, string) (string, error) {
	return "I'll take the center, move 1,1", nil
}

var header = record.Header{
	Event:   "Test",
	Site:    "localhost",
	Round:   1,
	Date:    time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC),
	Game:    "tictactoe",
	Players: [games.SideN]string{"alice", "bob"},
}

// play plays a game of tic-tac-toe in which every move after the first is
// a fallback.
func play(t *testing.T, recorder match.Recorder) *match.Result {
	t.Helper()

	game, err := games.New("tictactoe", "")
	require.NoError(t, err)

	result, err := match.Run(context.Background(), &match.Config{
		Game:     game,
		Agents:   [games.SideN]match.Agent{repeat("alice"), repeat("bob")},
		Retry:    match.RetryConfig{MaxAttempts: 2},
		Recorder: recorder,
		Rand:     rand.New(rand.NewSource(7)),
	})
	require.NoError(t, err)

	return result
}

func TestYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	recorder, err := record.NewYAML(&buf, header)
	require.NoError(t, err)

	result := play(t, recorder)

	log, err := record.ReadLog(&buf)
	require.NoError(t, err)

	assert.Equal(t, header.Game, log.Header.Game)
	assert.Equal(t, header.Players, log.Header.Players)
	assert.True(t, header.Date.Equal(log.Header.Date))
	assert.Equal(t, result.Turns, log.Turns)

	require.NotNil(t, log.Result)
	assert.Equal(t, result.Kind, log.Result.Kind)
	assert.Equal(t, result.Winner, log.Result.Winner)
	assert.Equal(t, result.Final, log.Result.Final)

	game, err := log.Replay()
	require.NoError(t, err)
	assert.Equal(t, result.Final, game.Position().String())
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")

	recorder, err := record.CreateYAML(path, header)
	require.NoError(t, err)

	result := play(t, recorder)

	log, err := record.ReadLogFile(path)
	require.NoError(t, err)
	assert.Len(t, log.Turns, len(result.Turns))

	// already closed by Finalize
	assert.NoError(t, recorder.Close())
}

func TestYAMLFileClosedWithoutFinalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")

	recorder, err := record.CreateYAML(path, header)
	require.NoError(t, err)
	require.NoError(t, recorder.Append(match.Turn{Number: 1, Agent: "alice", Move: "1,1"}))

	require.NoError(t, recorder.Close())
	assert.NoError(t, recorder.Close())
	assert.ErrorIs(t, recorder.Append(match.Turn{Number: 2, Agent: "bob", Move: "0,0"}), os.ErrClosed)

	log, err := record.ReadLogFile(path)
	require.NoError(t, err)
	assert.Nil(t, log.Result)
	assert.Len(t, log.Turns, 1)
}

func TestReadPartialLog(t *testing.T) {
	var buf bytes.Buffer

	recorder, err := record.NewYAML(&buf, header)
	require.NoError(t, err)
	require.NoError(t, recorder.Append(match.Turn{Number: 1, Agent: "alice", Move: "1,1"}))

	log, err := record.ReadLog(&buf)
	require.NoError(t, err)
	assert.Nil(t, log.Result)
	require.Len(t, log.Turns, 1)

	game, err := log.Replay()
	require.NoError(t, err)
	assert.Equal(t, games.Second, game.Position().SideToMove())
}

func TestReplayDetectsTampering(t *testing.T) {
	log := &record.GameLog{
		Header: header,
		Turns:  []match.Turn{{Move: "1,1"}},
		Result: &match.Result{Final: "X........"},
	}

	_, err := log.Replay()
	assert.Error(t, err)
}

func TestReadLogErrors(t *testing.T) {
	for _, text := range []string{
		"",
		"---\nevent: turn\nturn: {number: 1}\n",
		"---\nevent: start\nheader: {game: chess}\n---\nevent: party\n",
	} {
		_, err := record.ReadLog(strings.NewReader(text))
		assert.Error(t, err, text)
	}
}

func TestTranscript(t *testing.T) {
	turns := []match.Turn{
		{Side: games.First, Move: "e2e4"},
		{Side: games.Second, Move: "e7e5"},
		{Side: games.First, Move: "g1f3", Fallback: true},
	}

	result := &match.Result{Kind: match.Drawn, Reason: "agreement"}

	h := header
	h.Game = "chess"
	h.Start = games.ChessStartFEN

	var buf bytes.Buffer
	transcript := record.NewTranscript(&buf, h)
	for _, turn := range turns {
		require.NoError(t, transcript.Append(turn))
	}
	require.NoError(t, transcript.Finalize(result))

	text := buf.String()
	assert.Contains(t, text, `[Event "Test"]`)
	assert.Contains(t, text, `[Date "2024.05.17"]`)
	assert.Contains(t, text, `[White "alice"]`)
	assert.Contains(t, text, `[Black "bob"]`)
	assert.Contains(t, text, `[Result "1/2-1/2"]`)
	assert.Contains(t, text, `[Variant "chess"]`)
	assert.Contains(t, text, "\n\n1. e2e4 e7e5 2. g1f3 {fallback} 1/2-1/2\n")
}

func TestTranscriptSecondSideFirst(t *testing.T) {
	turns := []match.Turn{
		{Side: games.Second, Move: "e7e5"},
		{Side: games.First, Move: "g1f3"},
	}

	text := record.FormatTranscript(header, turns, &match.Result{Kind: match.Aborted})
	assert.Contains(t, text, "1... e7e5 2. g1f3 *\n")
}

func TestTranscriptWraps(t *testing.T) {
	var turns []match.Turn
	for i := 0; i < 60; i++ {
		turns = append(turns, match.Turn{Side: games.Side(i % 2), Move: "a1a2"})
	}

	text := record.FormatTranscript(header, turns, &match.Result{Kind: match.Won})
	for _, line := range strings.Split(text, "\n") {
		assert.LessOrEqual(t, len(line), 80)
	}
}

type failing struct {
	finalized bool
}

func (f *failing) Append(match.Turn) error { return errors.New("append failed") }

func (f *failing) Finalize(*match.Result) error {
	f.finalized = true
	return errors.New("finalize failed")
}

func TestMulti(t *testing.T) {
	var buf bytes.Buffer
	bad := &failing{}

	multi := record.Multi{record.NewTranscript(&buf, header), bad}
	assert.Error(t, multi.Append(match.Turn{Move: "1,1"}))

	err := multi.Finalize(&match.Result{Kind: match.Drawn})
	assert.ErrorContains(t, err, "finalize failed")
	assert.True(t, bad.finalized)
	assert.Contains(t, buf.String(), "1. 1,1")
}

func TestDescribe(t *testing.T) {
	players := [games.SideN]string{"alice", "bob"}

	assert.Equal(t, "bob wins by checkmate",
		record.Describe(&match.Result{Kind: match.Won, Winner: games.Second, Reason: "checkmate"}, players))
	assert.Equal(t, "draw by stalemate",
		record.Describe(&match.Result{Kind: match.Drawn, Reason: "stalemate"}, players))
	assert.Equal(t, "aborted: turn-limit",
		record.Describe(&match.Result{Kind: match.Aborted, Reason: "turn-limit"}, players))
}

func TestHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := record.NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(hub.Router())
	defer server.Close()

	game, err := games.New("tictactoe", "")
	require.NoError(t, err)

	spectator := hub.NewSpectator("game-1", header, game)
	require.Eventually(t, func() bool {
		return len(hub.Games()) == 1
	}, time.Second, 10*time.Millisecond)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var message record.Message
	require.NoError(t, conn.ReadJSON(&message))
	assert.Equal(t, "game-1", message.Game)
	assert.Equal(t, record.EventStart, message.Event)
	require.NotNil(t, message.Header)
	assert.Equal(t, "alice", message.Header.Players[games.First])

	_, err = game.Apply("1,1")
	require.NoError(t, err)
	require.NoError(t, spectator.Append(match.Turn{Number: 1, Agent: "alice", Move: "1,1"}))

	message = record.Message{}
	require.NoError(t, conn.ReadJSON(&message))
	assert.Equal(t, record.EventTurn, message.Event)
	require.NotNil(t, message.Turn)
	assert.Equal(t, games.Move("1,1"), message.Turn.Move)
	assert.Equal(t, "....X....", message.Position)

	require.NoError(t, spectator.Finalize(&match.Result{Kind: match.Aborted, Reason: "cancelled", Final: "....X...."}))

	message = record.Message{}
	require.NoError(t, conn.ReadJSON(&message))
	assert.Equal(t, record.EventEnd, message.Event)
	require.NotNil(t, message.Result)
	assert.Equal(t, match.Aborted, message.Result.Kind)

	resp, err := http.Get(server.URL + "/games")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	infos := hub.Games()
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Turns)
	assert.NotNil(t, infos[0].Result)
}

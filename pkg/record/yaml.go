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

package record

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"laptudirm.com/x/arena/pkg/games"
	"laptudirm.com/x/arena/pkg/match"
)

// Events of a YAML game log. Every event is its own YAML document.
const (
	EventStart = "start"
	EventTurn  = "turn"
	EventEnd   = "end"
)

type entry struct {
	Event  string        `yaml:"event"`
	Header *Header       `yaml:"header,omitempty"`
	Turn   *match.Turn   `yaml:"turn,omitempty"`
	Result *match.Result `yaml:"result,omitempty"`
}

// YAML writes a game log as a stream of YAML documents. Every event is
// written out as soon as it happens, so the log of a game which never
// finished can still be read.
type YAML struct {
	w      io.Writer
	closer io.Closer
}

var _ match.Recorder = (*YAML)(nil)

// NewYAML creates a YAML recorder writing to w and writes the header.
func NewYAML(w io.Writer, header Header) (*YAML, error) {
	recorder := &YAML{w: w}
	if err := recorder.write(entry{Event: EventStart, Header: &header}); err != nil {
		return nil, err
	}

	return recorder, nil
}

// CreateYAML creates a YAML recorder writing to a new file at path. The
// file is closed once the game is finalized.
func CreateYAML(path string, header Header) (*YAML, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	recorder, err := NewYAML(file, header)
	if err != nil {
		file.Close()
		return nil, err
	}

	recorder.closer = file
	return recorder, nil
}

func (recorder *YAML) Append(turn match.Turn) error {
	return recorder.write(entry{Event: EventTurn, Turn: &turn})
}

func (recorder *YAML) Finalize(result *match.Result) error {
	err := recorder.write(entry{Event: EventEnd, Result: result})
	return errors.Join(err, recorder.Close())
}

// Close closes the file of a recorder made by CreateYAML. Finalize closes
// it too; Close is for games which end in an error instead. Closing more
// than once does nothing.
func (recorder *YAML) Close() error {
	if recorder.closer == nil {
		return nil
	}

	closer := recorder.closer
	recorder.closer = nil
	return closer.Close()
}

func (recorder *YAML) write(e entry) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(recorder.w, "---\n%s", data); err != nil {
		return fmt.Errorf("record: writing %s event: %w", e.Event, err)
	}

	return nil
}

// GameLog is a game log read back from YAML.
type GameLog struct {
	Header Header
	Turns  []match.Turn

	// Result is nil if the game never finished.
	Result *match.Result
}

// ReadLog reads a YAML game log.
func ReadLog(r io.Reader) (*GameLog, error) {
	var log GameLog
	started := false

	decoder := yaml.NewDecoder(r)
	for {
		var e entry
		err := decoder.Decode(&e)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("record: reading log: %w", err)
		}

		switch e.Event {
		case EventStart:
			if started || e.Header == nil {
				return nil, errors.New("record: bad start event")
			}

			started = true
			log.Header = *e.Header

		case EventTurn:
			if !started || log.Result != nil || e.Turn == nil {
				return nil, errors.New("record: turn event out of place")
			}

			log.Turns = append(log.Turns, *e.Turn)

		case EventEnd:
			if !started || log.Result != nil || e.Result == nil {
				return nil, errors.New("record: end event out of place")
			}

			log.Result = e.Result
			log.Result.Turns = log.Turns

		default:
			return nil, fmt.Errorf("record: unknown event %q", e.Event)
		}
	}

	if !started {
		return nil, errors.New("record: empty log")
	}

	return &log, nil
}

// ReadLogFile reads the YAML game log at path.
func ReadLogFile(path string) (*GameLog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadLog(file)
}

// Replay plays the logged moves through a fresh game and checks that it
// ends in the logged final position.
func (log *GameLog) Replay() (games.Game, error) {
	game, err := games.Replay(log.Header.Game, log.Header.Start, match.Moves(log.Turns))
	if err != nil {
		return nil, err
	}

	if log.Result != nil && game.Position().String() != log.Result.Final {
		return game, fmt.Errorf(
			"record: replay ends in %q, log says %q",
			game.Position(), log.Result.Final,
		)
	}

	return game, nil
}

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

// Package record implements match.Recorder: console logs, YAML game logs,
// notation transcripts, and a live websocket feed for spectators.
package record

import (
	"errors"
	"time"

	"laptudirm.com/x/arena/pkg/games"
	"laptudirm.com/x/arena/pkg/match"
)

// Header describes a game being recorded.
type Header struct {
	Event string    `yaml:"event,omitempty" json:"event,omitempty"`
	Site  string    `yaml:"site,omitempty" json:"site,omitempty"`
	Round int       `yaml:"round,omitempty" json:"round,omitempty"`
	Date  time.Time `yaml:"date" json:"date"`

	Game  string `yaml:"game" json:"game"`
	Start string `yaml:"start" json:"start"`

	// Players are indexed by the side they play.
	Players [games.SideN]string `yaml:"players" json:"players"`
}

// Multi fans every event out to all of its recorders in order. It stops at
// the first error.
type Multi []match.Recorder

var _ match.Recorder = Multi(nil)

func (multi Multi) Append(turn match.Turn) error {
	for _, recorder := range multi {
		if err := recorder.Append(turn); err != nil {
			return err
		}
	}

	return nil
}

// Finalize finalizes every recorder, even if some of them fail.
func (multi Multi) Finalize(result *match.Result) error {
	var errs []error
	for _, recorder := range multi {
		if err := recorder.Finalize(result); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

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

package match

import (
	"fmt"

	"laptudirm.com/x/arena/pkg/games"
)

// Kind is the kind of a game's result.
type Kind int

const (
	Won Kind = iota
	Drawn
	Aborted
)

var kindNames = [...]string{
	Won:     "win",
	Drawn:   "draw",
	Aborted: "aborted",
}

func (kind Kind) String() string {
	if kind < 0 || int(kind) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(kind))
	}

	return kindNames[kind]
}

func (kind Kind) MarshalText() ([]byte, error) {
	return []byte(kind.String()), nil
}

func (kind *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*kind = Kind(i)
			return nil
		}
	}

	return fmt.Errorf("match: unknown result kind %q", text)
}

// Reasons for which a game may be aborted.
const (
	ReasonCancelled        = "cancelled"
	ReasonTurnLimit        = "turn-limit"
	ReasonNoLegalMoves     = "no-legal-moves"
	ReasonRetriesExhausted = "retries-exhausted"
)

// Result is the result of a single game.
type Result struct {
	Kind   Kind       `yaml:"kind" json:"kind"`
	Winner games.Side `yaml:"winner" json:"winner"`
	Reason string     `yaml:"reason" json:"reason"`

	Turns []Turn `yaml:"-" json:"-"`

	// Start and Final are the serialized first and last positions.
	Start string `yaml:"start" json:"start"`
	Final string `yaml:"final" json:"final"`

	// Unfinished holds the attempts of the turn in progress when the game
	// was aborted, if any.
	Unfinished []Attempt `yaml:"unfinished,omitempty" json:"unfinished,omitempty"`
}

// Score returns the score of the game from the first side's perspective.
// Aborted games score as Unscored.
func (result *Result) Score() Score {
	switch result.Kind {
	case Won:
		return ScoreFor[result.Winner]
	case Drawn:
		return Draw
	default:
		return Unscored
	}
}

func (result *Result) String() string {
	switch result.Kind {
	case Aborted:
		return fmt.Sprintf("aborted (%s)", result.Reason)
	default:
		return fmt.Sprintf("%s {%s}", result.Score(), result.Reason)
	}
}

// Score represents the score of a single game.
type Score int

const (
	Player1Wins Score = +1
	Draw        Score = 0
	Player2Wins Score = -1

	// Unscored is the score of an unfinished game.
	Unscored Score = 2
)

// ScoreFor maps the winning side to the game's Score.
var ScoreFor = [games.SideN]Score{
	games.First:  Player1Wins,
	games.Second: Player2Wins,
}

// String returns the result token of the given Score.
func (score Score) String() string {
	switch score {
	case Player1Wins:
		return "1-0"
	case Draw:
		return "1/2-1/2"
	case Player2Wins:
		return "0-1"
	default:
		return "*"
	}
}

// Invert returns the score from the other side's perspective.
func (score Score) Invert() Score {
	if score == Unscored {
		return score
	}

	return -score
}

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

// Outcome is the outcome of a single attempt by an agent to move.
type Outcome int

const (
	Success Outcome = iota
	ParseFailure
	IllegalMove
	AgentError
)

var outcomeNames = [...]string{
	Success:      "success",
	ParseFailure: "parse-failure",
	IllegalMove:  "illegal-move",
	AgentError:   "agent-error",
}

func (outcome Outcome) String() string {
	if outcome < 0 || int(outcome) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(outcome))
	}

	return outcomeNames[outcome]
}

func (outcome Outcome) MarshalText() ([]byte, error) {
	return []byte(outcome.String()), nil
}

func (outcome *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*outcome = Outcome(i)
			return nil
		}
	}

	return fmt.Errorf("match: unknown outcome %q", text)
}

// Attempt is a single request for a move made to an agent, along with
// what came of it.
type Attempt struct {
	Number  int        `yaml:"number" json:"number"`
	Reply   string     `yaml:"reply" json:"reply"`
	Move    games.Move `yaml:"move,omitempty" json:"move,omitempty"`
	Outcome Outcome    `yaml:"outcome" json:"outcome"`
	Reason  string     `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Turn is a completed turn: exactly one move applied to the game.
type Turn struct {
	Number int        `yaml:"number" json:"number"`
	Agent  string     `yaml:"agent" json:"agent"`
	Side   games.Side `yaml:"side" json:"side"`
	Move   games.Move `yaml:"move" json:"move"`

	Attempts  []Attempt `yaml:"attempts" json:"attempts"`
	Reasoning string    `yaml:"reasoning,omitempty" json:"reasoning,omitempty"`

	// Fallback is set if the move was chosen for the agent after all of
	// its attempts failed. Note describes the substitution.
	Fallback bool   `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	Note     string `yaml:"note,omitempty" json:"note,omitempty"`
}

// Moves returns the moves played in the given turns in order.
func Moves(turns []Turn) []games.Move {
	moves := make([]games.Move, len(turns))
	for i, turn := range turns {
		moves[i] = turn.Move
	}

	return moves
}

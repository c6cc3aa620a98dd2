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
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"laptudirm.com/x/arena/pkg/games"
)

//go:embed prompts/turn.txt
var turnPrompt string

var turnTemplate = template.Must(template.New("turn").Parse(turnPrompt))

// historyLength is the number of recent moves shown in a prompt.
const historyLength = 20

// PromptData is the data a turn prompt is rendered from.
type PromptData struct {
	Game     string
	Side     string
	Opponent string
	History  string
	Board    string
	Example  string

	// Attempt is the 1-based attempt number. From the second attempt on
	// Failure holds the reason the previous attempt was rejected.
	Attempt     int
	MaxAttempts int
	Failure     string
}

// NewPromptData collects the prompt data for the side to move in game.
func NewPromptData(game games.Game, opponent string, turns []Turn) PromptData {
	if len(turns) > historyLength {
		turns = turns[len(turns)-historyLength:]
	}

	history := make([]string, len(turns))
	for i, turn := range turns {
		history[i] = string(turn.Move)
	}

	return PromptData{
		Game:     game.Name(),
		Side:     game.SideName(game.Position().SideToMove()),
		Opponent: opponent,
		History:  strings.Join(history, " "),
		Board:    game.Describe(),
		Example:  game.Notation().Example(),
		Attempt:  1,
	}
}

// BuildPrompt renders the turn prompt.
func BuildPrompt(data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := turnTemplate.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

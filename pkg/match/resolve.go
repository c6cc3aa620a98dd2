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
	"regexp"
	"strings"

	"laptudirm.com/x/arena/pkg/games"
)

// Resolution is the interpretation of an agent's reply.
type Resolution struct {
	Outcome Outcome

	// Move is the resolved move on Success, and the first decoded but
	// illegal move on IllegalMove.
	Move games.Move

	Reasoning string
	Reason    string
}

var (
	moveMarker      = regexp.MustCompile(`(?i)\bMOVE\s*:(.*)`)
	reasoningMarker = regexp.MustCompile(`(?i)\bREASONING\s*:(.*)`)
)

// Resolve extracts a move from an agent's free-form reply. A line marked
// with "MOVE:" is searched first, and any move decoded from it is final.
// Otherwise the first legal move found anywhere in the reply is taken,
// ignoring tokens which read as something else in prose.
//
// Resolve is pure: it only reads its arguments.
func Resolve(reply string, notation games.Notation, pos games.Position, legal games.MoveSet) Resolution {
	resolution := Resolution{
		Reasoning: extractReasoning(reply),
	}

	var decoded []games.Move
	for _, marked := range moveMarker.FindAllStringSubmatch(reply, -1) {
		if decoded = decodeAll(marked[1], notation, pos, true); len(decoded) > 0 {
			break
		}
	}

	if len(decoded) == 0 {
		decoded = decodeAll(reply, notation, pos, false)
	}

	if len(decoded) == 0 {
		resolution.Outcome = ParseFailure
		resolution.Reason = fmt.Sprintf(
			"no move found in reply; write your move like %q",
			"MOVE: "+notation.Example(),
		)
		return resolution
	}

	for _, move := range decoded {
		if legal.Contains(move) {
			resolution.Outcome = Success
			resolution.Move = move
			return resolution
		}
	}

	resolution.Outcome = IllegalMove
	resolution.Move = decoded[0]
	resolution.Reason = fmt.Sprintf("%s is not a legal move in this position", decoded[0])
	return resolution
}

// decodeAll decodes every move token in text, skipping undecodable ones.
// Tokens a notation reports as ambiguous are only read from marked lines.
func decodeAll(text string, notation games.Notation, pos games.Position, marked bool) []games.Move {
	ambiguous, _ := notation.(games.AmbiguousNotation)

	var moves []games.Move
	for _, token := range notation.Pattern().FindAllString(text, -1) {
		if !marked && ambiguous != nil && ambiguous.Ambiguous(token) {
			continue
		}

		move, err := notation.Decode(token, pos)
		if err != nil {
			continue
		}

		moves = append(moves, move)
	}

	return moves
}

func extractReasoning(reply string) string {
	if matches := reasoningMarker.FindStringSubmatch(reply); matches != nil {
		if reasoning := strings.TrimSpace(matches[1]); reasoning != "" {
			return reasoning
		}
	}

	return strings.TrimSpace(reply)
}

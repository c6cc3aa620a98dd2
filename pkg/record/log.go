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
	"github.com/sirupsen/logrus"

	"laptudirm.com/x/arena/pkg/games"
	"laptudirm.com/x/arena/pkg/internal/util"
	"laptudirm.com/x/arena/pkg/match"
)

// Log writes a game to the console through logrus.
type Log struct {
	header Header
	sides  func(games.Side) string
	logger logrus.FieldLogger
}

var _ match.Recorder = (*Log)(nil)

// NewLog creates a console recorder. sides names the sides of the game.
func NewLog(header Header, sides func(games.Side) string) *Log {
	return &Log{
		header: header,
		sides:  sides,
		logger: logrus.WithField("game", header.Game),
	}
}

func (log *Log) Append(turn match.Turn) error {
	for _, attempt := range turn.Attempts {
		log.logger.WithFields(logrus.Fields{
			"turn":    turn.Number,
			"attempt": attempt.Number,
			"outcome": attempt.Outcome,
		}).Debugf("(%s)> %s", turn.Agent, util.OneLine(attempt.Reply))
	}

	if turn.Fallback {
		log.logger.Warnf(
			"\x1b[31mFallback\x1b[0m Turn #%d: %s (%s) plays %s: %s\n",
			turn.Number, turn.Agent, log.sides(turn.Side), turn.Move, turn.Note,
		)
		return nil
	}

	log.logger.Infof(
		"\x1b[33mTurn\x1b[0m #%d: %s (%s) plays \x1b[33m%s\x1b[0m\n",
		turn.Number, turn.Agent, log.sides(turn.Side), turn.Move,
	)

	if turn.Reasoning != "" {
		log.logger.Infof("    %s\n", util.OneLine(turn.Reasoning))
	}

	return nil
}

func (log *Log) Finalize(result *match.Result) error {
	log.logger.Infof(
		"\x1b[32mFinished\x1b[0m %s vs %s: %s\n",
		log.header.Players[games.First],
		log.header.Players[games.Second],
		Describe(result, log.header.Players),
	)

	return nil
}

// Describe describes a result in words using the names of the players.
func Describe(result *match.Result, players [games.SideN]string) string {
	switch result.Kind {
	case match.Won:
		return players[result.Winner] + " wins by " + result.Reason
	case match.Drawn:
		return "draw by " + result.Reason
	default:
		return "aborted: " + result.Reason
	}
}

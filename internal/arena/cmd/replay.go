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

package cmd

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"laptudirm.com/x/arena/pkg/record"
)

// arena replay
func Replay() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay log-file",
		Short: "Replay a game log and check it against the rules",
		Args:  cobra.ExactArgs(1),
		Long: heredoc.Doc(`replay reads a YAML game log, plays its moves again
			from the logged starting position, and checks that every move
			is legal and that the final position matches the log.`),

		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := record.ReadLogFile(args[0])
			if err != nil {
				return err
			}

			game, err := log.Replay()
			if err != nil {
				return err
			}

			fmt.Printf("%s\n", game.Describe())

			if log.Result == nil {
				fmt.Printf("\x1b[33mUnfinished\x1b[0m game after %d turns\n", len(log.Turns))
				return nil
			}

			fmt.Printf(
				"\x1b[32mVerified\x1b[0m %d turns: %s\n",
				len(log.Turns), record.Describe(log.Result, log.Header.Players),
			)

			if transcript, _ := cmd.Flags().GetBool("transcript"); transcript {
				fmt.Print("\n", record.FormatTranscript(log.Header, log.Turns, log.Result))
			}

			return nil
		},
	}

	cmd.Flags().Bool("transcript", false, "Print the game's transcript")
	return cmd
}

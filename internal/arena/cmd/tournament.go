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
	"context"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"laptudirm.com/x/arena/pkg/agent"
	"laptudirm.com/x/arena/pkg/manager"
	"laptudirm.com/x/arena/pkg/match"
	"laptudirm.com/x/arena/pkg/record"
	"laptudirm.com/x/arena/pkg/tournament"
)

// arena tournament
func Tournament() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tournament config-file",
		Short: "Run a tournament between several agents",
		Args:  cobra.ExactArgs(1),
		Long: heredoc.Doc(`tournament runs the tournament described by the given
			YAML file and prints a table of the agents' scores and Elo
			ratings as games finish.

			An agent entry with only a name is looked up in the agent
			registry and the built-in presets.`),
		Example: heredoc.Doc(`
			$ cat tour.yaml
			event: Tic-Tac-Toe Cup
			game: tictactoe
			scheduler: round-robin
			rounds: 2
			game-pairs: 2
			concurrency: 4
			agents:
			  - name: grok
			  - name: claude
			  - name: gemini
			retry:
			  max-attempts: 3
			  backoff: 1s
			$ arena tournament tour.yaml`),

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			file, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var config tournament.Config
			if err := yaml.Unmarshal(file, &config); err != nil {
				return err
			}

			if cmd.Flags().Changed("concurrency") {
				config.Concurrency, _ = cmd.Flags().GetInt("concurrency")
			}

			registry, err := manager.Load("")
			if err != nil {
				return err
			}

			agents := make([]match.Agent, len(config.Agents))
			for i, entry := range config.Agents {
				if entry.Backend == "" {
					if config.Agents[i], err = registry.Resolve(entry.Name); err != nil {
						return err
					}
				}

				player, err := agent.New(ctx, config.Agents[i])
				if err != nil {
					return err
				}

				defer player.Close()
				agents[i] = player
			}

			tour, err := tournament.NewTournament(config, agents)
			if err != nil {
				return err
			}

			if addr, _ := cmd.Flags().GetString("spectate"); addr != "" {
				tour.Hub = record.NewHub()
				go tour.Hub.Run(ctx)
				go func() {
					if err := tour.Hub.Serve(ctx, addr); err != nil {
						logrus.Error(err)
					}
				}()
			}

			logrus.Infof("\x1b[33mStarting\x1b[0m Tournament: %d games\n", tour.TotalGames())
			return tour.Start(ctx)
		},
	}

	cmd.Flags().IntP("concurrency", "c", 1, "Number of games to play at once")
	cmd.Flags().String("spectate", "", "Address to serve a live feed of the games on")

	return cmd
}

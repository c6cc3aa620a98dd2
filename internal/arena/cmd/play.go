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
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"laptudirm.com/x/arena/pkg/agent"
	"laptudirm.com/x/arena/pkg/common"
	"laptudirm.com/x/arena/pkg/games"
	"laptudirm.com/x/arena/pkg/manager"
	"laptudirm.com/x/arena/pkg/match"
	"laptudirm.com/x/arena/pkg/record"
)

// arena play
func Play() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a single game between two agents",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`play plays a single game between two agents. The first
			agent plays the side which moves first (White in chess, X in
			tic-tac-toe, and x in ataxx).

			An agent whose reply has no legal move in it is told why and
			asked again. Once it runs out of attempts a random legal move
			is played for it, or the game is aborted if --fallback is
			set to abort.

			Every game is logged as YAML to ~/arena/logs unless --no-log
			is given. Logs can be checked with "arena replay".`),
		Example: heredoc.Doc(`
			$ arena play --game chess --agent1 grok --agent2 claude
			$ arena play --game tictactoe --agent1 mock --agent2 gemini --attempts 5`),

		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			name, _ := flags.GetString("game")
			position, _ := flags.GetString("position")

			game, err := games.New(name, position)
			if err != nil {
				return err
			}

			registry, err := manager.Load("")
			if err != nil {
				return err
			}

			var agents [games.SideN]match.Agent
			for side, flag := range [games.SideN]string{"agent1", "agent2"} {
				name, _ := flags.GetString(flag)

				player, err := startAgent(ctx, registry, name)
				if err != nil {
					return err
				}

				defer player.Close()

				// a spinner would garble the agent's debug output
				agents[side] = player
				if logrus.GetLevel() < logrus.DebugLevel {
					agents[side] = agent.Spinning{Agent: player}
				}
			}

			config := match.Config{
				Game:   game,
				Agents: agents,
			}

			config.Retry.MaxAttempts, _ = flags.GetInt("attempts")
			config.Retry.Backoff, _ = flags.GetDuration("backoff")
			config.Retry.MaxBackoff, _ = flags.GetDuration("max-backoff")
			fallback, _ := flags.GetString("fallback")
			config.Retry.Fallback = match.FallbackPolicy(fallback)
			config.MaxTurns, _ = flags.GetInt("max-turns")

			if flags.Changed("seed") {
				seed, _ := flags.GetInt64("seed")
				config.Rand = rand.New(rand.NewSource(seed))
			}

			header := record.Header{
				Event: "arena play",
				Site:  "arena",
				Date:  time.Now(),
				Game:  game.Name(),
				Start: game.Position().String(),
				Players: [games.SideN]string{
					agents[games.First].Name(),
					agents[games.Second].Name(),
				},
			}

			recorders := record.Multi{record.NewLog(header, game.SideName)}

			if noLog, _ := flags.GetBool("no-log"); !noLog {
				dir, _ := flags.GetString("log-dir")
				if err := common.TryMkdir(dir); err != nil {
					return err
				}

				file := filepath.Join(dir, fmt.Sprintf(
					"%s-%s-vs-%s-%s.yaml",
					game.Name(), header.Players[games.First], header.Players[games.Second],
					header.Date.Format("20060102-150405"),
				))

				log, err := record.CreateYAML(file, header)
				if err != nil {
					return err
				}

				defer log.Close()

				recorders = append(recorders, log)
				logrus.Infof("\x1b[33mLogging\x1b[0m to %s\n", file)
			}

			if addr, _ := flags.GetString("spectate"); addr != "" {
				hub := record.NewHub()
				go hub.Run(ctx)
				go func() {
					if err := hub.Serve(ctx, addr); err != nil {
						logrus.Error(err)
					}
				}()

				recorders = append(recorders, hub.NewSpectator("1", header, game))
			}

			config.Recorder = recorders

			logrus.Infof(
				"\x1b[33mStarting\x1b[0m %s: %s vs %s (\x1b[33m%s\x1b[0m)\n",
				header.Game,
				header.Players[games.First], header.Players[games.Second],
				header.Start,
			)

			result, err := match.Run(ctx, &config)
			if err != nil {
				return err
			}

			if transcript, _ := flags.GetString("transcript"); transcript != "" {
				if err := record.AppendTranscript(transcript, header, result.Turns, result); err != nil {
					return err
				}
			}

			fmt.Printf("\n%s\n%s\n", game.Describe(), record.Describe(result, header.Players))
			return nil
		},
	}

	defaults := match.DefaultRetryConfig

	flags := cmd.Flags()
	flags.StringP("game", "g", "chess", "Game to play ("+strings.Join(games.Names, ", ")+")")
	flags.String("agent1", "mock", "Agent playing the first side")
	flags.String("agent2", "mock", "Agent playing the second side")
	flags.StringP("position", "p", games.StartPosition, "Position to start the game from")
	flags.Int("attempts", defaults.MaxAttempts, "Attempts an agent gets to name a legal move")
	flags.Duration("backoff", defaults.Backoff, "Wait after the first failed attempt")
	flags.Duration("max-backoff", defaults.MaxBackoff, "Longest wait between attempts")
	flags.String("fallback", string(defaults.Fallback), "What to do once an agent runs out of attempts (random, abort)")
	flags.Int("max-turns", match.DefaultMaxTurns, "Turns after which the game is aborted")
	flags.Int64("seed", 0, "Seed for fallback moves")
	flags.String("log-dir", common.LogDirectory, "Directory to store the game log in")
	flags.Bool("no-log", false, "Don't store a game log")
	flags.String("transcript", "", "File to append the game's transcript to")
	flags.String("spectate", "", "Address to serve a live feed of the game on")

	return cmd
}

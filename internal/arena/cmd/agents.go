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
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"laptudirm.com/x/arena/pkg/agent"
	"laptudirm.com/x/arena/pkg/manager"
)

// arena agents
func Agents() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the agents known to arena",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`agents lists the agents which can be named in a game or
			a tournament: the agents in your registry (~/arena/agents.yaml)
			followed by the built-in presets. Registry entries shadow
			presets with the same name.`),

		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := manager.Load("")
			if err != nil {
				return err
			}

			for _, entry := range registry.List() {
				name := fmt.Sprintf("\x1b[34m%s\x1b[0m:", entry.Name)
				if entry.Preset {
					name = fmt.Sprintf("\x1b[33m%s\x1b[0m:", entry.Name)
				}

				fmt.Printf("- %-20s %-10s %s\n", name, entry.Backend, entry.Model)
			}

			return nil
		},
	}

	cmd.AddCommand(addAgent())
	cmd.AddCommand(removeAgent())
	return cmd
}

// arena agents add
func addAgent() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add name",
		Short: "Add an agent to the registry",
		Args:  cobra.ExactArgs(1),
		Long: heredoc.Doc(`add adds a new agent to your registry, replacing any
			agent with the same name. The openai backend works with any
			OpenAI compatible endpoint, like a local model server.`),
		Example: heredoc.Doc(`
			$ arena agents add local --backend openai --model llama3 \
				--endpoint http://localhost:11434/v1 --key-env LOCAL_API_KEY
			$ arena agents add dummy --backend scripted --reply "MOVE: e2e4"`),

		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			config := agent.Config{Name: args[0]}
			config.Backend, _ = flags.GetString("backend")
			config.Model, _ = flags.GetString("model")
			config.Endpoint, _ = flags.GetString("endpoint")
			config.APIKeyEnv, _ = flags.GetString("key-env")
			config.Timeout, _ = flags.GetDuration("timeout")
			config.MaxTokens, _ = flags.GetInt("max-tokens")
			config.Replies, _ = flags.GetStringArray("reply")

			if flags.Changed("temperature") {
				temperature, _ := flags.GetFloat64("temperature")
				config.Temperature = &temperature
			}

			registry, err := manager.Load("")
			if err != nil {
				return err
			}

			if err := registry.Add(config); err != nil {
				return err
			}

			fmt.Printf("\x1b[32mAdded Agent:\x1b[0m %s\n", config.Name)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("backend", "b", "", "Backend of the agent ("+strings.Join(backends, ", ")+")")
	flags.StringP("model", "m", "", "Model used by the agent")
	flags.String("endpoint", "", "Base URL of the backend's API")
	flags.String("key-env", "", "Environment variable holding the API key")
	flags.Duration("timeout", 0, "Timeout of a single request")
	flags.Float64("temperature", agent.DefaultTemperature, "Sampling temperature")
	flags.Int("max-tokens", 0, "Maximum length of a reply")
	flags.StringArray("reply", nil, "Reply of a scripted agent (repeatable)")

	return cmd
}

// arena agents remove
func removeAgent() *cobra.Command {
	return &cobra.Command{
		Use:   "remove name",
		Short: "Remove an agent from the registry",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := manager.Load("")
			if err != nil {
				return err
			}

			if err := registry.Remove(args[0]); err != nil {
				return err
			}

			fmt.Printf("\x1b[32mRemoved Agent:\x1b[0m %s\n", args[0])
			return nil
		},
	}
}

var backends = []string{
	agent.BackendAnthropic,
	agent.BackendOpenAI,
	agent.BackendGemini,
	agent.BackendScripted,
}

// startAgent resolves the named agent and starts it.
func startAgent(ctx context.Context, registry *manager.Registry, name string) (*agent.Agent, error) {
	config, err := registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	return agent.New(ctx, config)
}

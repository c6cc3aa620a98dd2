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

// Package agent implements match.Agent on top of remote language model
// APIs. Every backend sends the prompt as a single user message and
// returns the text of the model's reply unchanged.
package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/arena/pkg/internal/util"
	"laptudirm.com/x/arena/pkg/match"
)

// Backends understood by New.
const (
	BackendAnthropic = "anthropic"
	BackendOpenAI    = "openai"
	BackendGemini    = "gemini"
	BackendScripted  = "scripted"
)

// Defaults for unset Config fields.
const (
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

// defaultKeyEnv maps each backend to the environment variable its API key
// is read from if none is configured.
var defaultKeyEnv = map[string]string{
	BackendAnthropic: "CLAUDE_API_KEY",
	BackendOpenAI:    "OPENAI_API_KEY",
	BackendGemini:    "GEMINI_API_KEY",
}

// Config configures an agent.
type Config struct {
	Name    string `yaml:"name"`
	Backend string `yaml:"backend"`
	Model   string `yaml:"model,omitempty"`

	// Endpoint overrides the backend's default API base URL.
	Endpoint string `yaml:"endpoint,omitempty"`

	// APIKeyEnv is the environment variable holding the API key.
	APIKeyEnv string `yaml:"api-key-env,omitempty"`

	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Temperature *float64      `yaml:"temperature,omitempty"`
	MaxTokens   int           `yaml:"max-tokens,omitempty"`

	// Replies are the replies of a scripted agent, cycled through in order.
	Replies []string `yaml:"replies,omitempty"`
}

// Normalize fills the unset fields of the config with defaults and checks
// the rest of them.
func (config *Config) Normalize() error {
	if config.Name == "" {
		return errors.New("agent: missing name")
	}

	switch config.Backend {
	case BackendAnthropic, BackendOpenAI, BackendGemini:
		if config.Model == "" {
			return fmt.Errorf("agent %s: missing model", config.Name)
		}

		if config.APIKeyEnv == "" {
			config.APIKeyEnv = defaultKeyEnv[config.Backend]
		}

	case BackendScripted:
		if len(config.Replies) == 0 {
			return fmt.Errorf("agent %s: scripted agent without replies", config.Name)
		}

	case "":
		return fmt.Errorf("agent %s: missing backend", config.Name)
	default:
		return fmt.Errorf("agent %s: unknown backend %q", config.Name, config.Backend)
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	if config.Temperature == nil {
		temperature := DefaultTemperature
		config.Temperature = &temperature
	}

	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}

	return nil
}

// ErrTimeout is returned when an agent fails to reply within its timeout.
var ErrTimeout = errors.New("agent: request timed out")

// backend sends a prompt to a model and returns its text reply.
type backend interface {
	complete(ctx context.Context, prompt string) (string, error)
	close() error
}

// Agent is a match.Agent backed by a language model.
type Agent struct {
	config  Config
	backend backend
}

var _ match.Agent = (*Agent)(nil)

// New creates a new agent from the given config. The agent should be
// closed once it is no longer needed.
func New(ctx context.Context, config Config) (*Agent, error) {
	if err := config.Normalize(); err != nil {
		return nil, err
	}

	agent := &Agent{config: config}

	if config.Backend == BackendScripted {
		agent.backend = newScripted(config.Replies)
		return agent, nil
	}

	key := os.Getenv(config.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("agent %s: %s is not set", config.Name, config.APIKeyEnv)
	}

	var err error
	switch config.Backend {
	case BackendAnthropic:
		agent.backend = newClaude(config, key)
	case BackendOpenAI:
		agent.backend = newOpenAI(config, key)
	case BackendGemini:
		agent.backend, err = newGemini(ctx, config, key)
	}

	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", config.Name, err)
	}

	return agent, nil
}

func (agent *Agent) Name() string {
	return agent.config.Name
}

// Config returns the normalized config of the agent.
func (agent *Agent) Config() Config {
	return agent.config
}

func (agent *Agent) RequestMove(ctx context.Context, prompt string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, agent.config.Timeout)
	defer cancel()

	logrus.Debugf("info: (%s)< %s", agent.config.Name, util.OneLine(prompt))

	start := time.Now()
	reply, err := agent.backend.complete(reqCtx, prompt)
	if err != nil {
		if ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			err = ErrTimeout
		}

		return "", fmt.Errorf("agent %s: %w", agent.config.Name, err)
	}

	logrus.WithField("took", time.Since(start).Round(time.Millisecond)).
		Debugf("info: (%s)> %s", agent.config.Name, util.OneLine(reply))
	return reply, nil
}

// Close releases the resources held by the agent.
func (agent *Agent) Close() error {
	return agent.backend.close()
}

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

// Package data holds the agent presets built into arena.
package data

import (
	"github.com/MakeNowJust/heredoc/v2"

	"laptudirm.com/x/arena/pkg/agent"
)

// Agents are the built-in agent presets, usable by name without any
// registry entry.
var Agents = map[string]agent.Config{
	"grok": {
		Name:      "grok",
		Backend:   agent.BackendOpenAI,
		Model:     "grok-4",
		Endpoint:  "https://api.x.ai/v1",
		APIKeyEnv: "GROK_API_KEY",
	},

	"claude": {
		Name:    "claude",
		Backend: agent.BackendAnthropic,
		Model:   "claude-3-5-sonnet-20241022",
	},

	"gpt": {
		Name:    "gpt",
		Backend: agent.BackendOpenAI,
		Model:   "gpt-4o",
	},

	"gemini": {
		Name:    "gemini",
		Backend: agent.BackendGemini,
		Model:   "gemini-1.5-flash",
	},

	// mock names no move, so every one of its turns falls back to a random
	// legal move. It needs no API key.
	"mock": {
		Name:    "mock",
		Backend: agent.BackendScripted,
		Replies: []string{"I pass this one to chance."},
	},
}

// BaseAgentFile is written to a new agent registry.
var BaseAgentFile = heredoc.Doc(`
	# Agents added with "arena agents add" are stored here. Entries are keyed
	# by name and take precedence over the built-in presets:
	#
	# local:
	#   backend: openai
	#   model: llama3
	#   endpoint: http://localhost:11434/v1
	#   api-key-env: LOCAL_API_KEY
	#   timeout: 2m
	{}
`)

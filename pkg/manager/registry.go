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

// Package manager manages the user's agent registry.
package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"laptudirm.com/x/arena/pkg/agent"
	"laptudirm.com/x/arena/pkg/common"
	"laptudirm.com/x/arena/pkg/data"
	"laptudirm.com/x/arena/pkg/internal/util"
)

// ErrUnknownAgent is returned when an agent is neither in the registry nor
// a built-in preset.
var ErrUnknownAgent = errors.New("manager: unknown agent")

// Registry is a set of user-defined agents stored in a YAML file.
type Registry struct {
	path   string
	Agents map[string]agent.Config
}

// Load reads the registry stored at the given path, creating it if it
// doesn't exist yet. An empty path selects the default registry.
func Load(path string) (*Registry, error) {
	if path == "" {
		path = common.AgentsFile
	}

	if err := common.TryCreate(path, []byte(data.BaseAgentFile)); err != nil {
		return nil, err
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	registry := Registry{path: path}
	if err := yaml.Unmarshal(file, &registry.Agents); err != nil {
		return nil, fmt.Errorf("manager: %s: %w", filepath.Base(path), err)
	}

	if registry.Agents == nil {
		registry.Agents = make(map[string]agent.Config)
	}

	for name, config := range registry.Agents {
		config.Name = name
		registry.Agents[name] = config
	}

	return &registry, nil
}

// Add adds the given agent to the registry, replacing any agent with the
// same name. The config is checked but stored without defaults filled in.
func (registry *Registry) Add(config agent.Config) error {
	check := config
	if err := check.Normalize(); err != nil {
		return err
	}

	registry.Agents[config.Name] = config
	return registry.Dump()
}

// Remove removes the named agent from the registry.
func (registry *Registry) Remove(name string) error {
	if _, found := registry.Agents[name]; !found {
		return fmt.Errorf("%w %q", ErrUnknownAgent, name)
	}

	delete(registry.Agents, name)
	return registry.Dump()
}

// Dump writes the registry back to its file.
func (registry *Registry) Dump() error {
	file, err := yaml.Marshal(registry.Agents)
	if err != nil {
		return err
	}

	return os.WriteFile(registry.path, file, common.FilePermissions)
}

// Resolve returns the config of the named agent, looking in the registry
// first and the built-in presets after.
func (registry *Registry) Resolve(name string) (agent.Config, error) {
	if config, found := registry.Agents[name]; found {
		return config, nil
	}

	if config, found := data.Agents[name]; found {
		return config, nil
	}

	return agent.Config{}, fmt.Errorf("%w %q", ErrUnknownAgent, name)
}

// Entry is a single agent known to a Registry.
type Entry struct {
	agent.Config
	Preset bool
}

// List returns every agent the registry can resolve, in natural name
// order. Presets shadowed by a registry entry are left out.
func (registry *Registry) List() []Entry {
	names := make([]string, 0, len(registry.Agents)+len(data.Agents))
	for name := range registry.Agents {
		names = append(names, name)
	}

	for name := range data.Agents {
		if _, found := registry.Agents[name]; !found {
			names = append(names, name)
		}
	}

	util.SortNatural(names)

	entries := make([]Entry, len(names))
	for i, name := range names {
		config, _ := registry.Resolve(name)
		_, user := registry.Agents[name]
		entries[i] = Entry{Config: config, Preset: !user}
	}

	return entries
}

// Presets returns the names of the built-in presets.
func Presets() []string {
	names := make([]string, 0, len(data.Agents))
	for name := range data.Agents {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

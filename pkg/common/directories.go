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

package common

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

var (
	// Directory is the per-user directory arena keeps its files in.
	Directory = filepath.Join(xdg.Home, "arena")

	// LogDirectory is the default directory for game logs.
	LogDirectory = filepath.Join(Directory, "logs")

	// AgentsFile is the user's agent registry.
	AgentsFile = filepath.Join(Directory, "agents.yaml")
)

// TryMkdir creates the given directory and its parents if it doesn't
// exist yet.
func TryMkdir(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, DirPermissions)
	}

	return nil
}

// TryCreate writes data to the given file if it doesn't exist yet.
func TryCreate(file string, data []byte) error {
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		if err := TryMkdir(filepath.Dir(file)); err != nil {
			return err
		}

		return os.WriteFile(file, data, FilePermissions)
	}

	return nil
}

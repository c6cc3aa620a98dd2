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

package util

import (
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// SPIN is the spinner.CharSets index used for the ~working~ spinner.
const SPIN = 14

var (
	spin     = spinner.New(spinner.CharSets[SPIN], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	spinLock sync.Mutex
)

// StartSpinner starts the global ~working~ spinner with the given suffix.
func StartSpinner(suffix string) {
	spinLock.Lock()
	defer spinLock.Unlock()

	spin.Suffix = suffix
	spin.Start()
}

// PauseSpinner stops the global spinner, if it is running.
func PauseSpinner() {
	spinLock.Lock()
	defer spinLock.Unlock()

	spin.Stop()
}

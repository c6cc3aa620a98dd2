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

package agent

import (
	"context"

	"laptudirm.com/x/arena/pkg/internal/util"
	"laptudirm.com/x/arena/pkg/match"
)

// Spinning wraps an agent so that a spinner is shown on the terminal while
// it is thinking. Only one Spinning agent may be waited on at a time.
type Spinning struct {
	match.Agent
}

func (spinning Spinning) RequestMove(ctx context.Context, prompt string) (string, error) {
	util.StartSpinner(" " + spinning.Name() + " is thinking...")
	defer util.PauseSpinner()

	return spinning.Agent.RequestMove(ctx, prompt)
}

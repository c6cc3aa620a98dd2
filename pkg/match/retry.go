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

package match

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jpillora/backoff"

	"laptudirm.com/x/arena/pkg/games"
)

// FallbackPolicy decides what happens once an agent has used up all of
// its attempts in a turn.
type FallbackPolicy string

const (
	// FallbackRandom plays a random legal move for the agent.
	FallbackRandom FallbackPolicy = "random"

	// FallbackAbort aborts the game.
	FallbackAbort FallbackPolicy = "abort"
)

// RetryConfig configures how many times an agent is asked for a move.
type RetryConfig struct {
	MaxAttempts int            `yaml:"max-attempts"`
	Backoff     time.Duration  `yaml:"backoff"`
	MaxBackoff  time.Duration  `yaml:"max-backoff"`
	Fallback    FallbackPolicy `yaml:"fallback"`
}

// DefaultRetryConfig is the default retry configuration. Normalize only
// takes the attempt count and fallback policy from it: a zero backoff means
// retrying immediately.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	Backoff:     time.Second,
	MaxBackoff:  8 * time.Second,
	Fallback:    FallbackRandom,
}

// Normalize fills the unset fields of the config with defaults and checks
// the rest of them.
func (config *RetryConfig) Normalize() error {
	if config.MaxAttempts == 0 {
		config.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}

	if config.Fallback == "" {
		config.Fallback = DefaultRetryConfig.Fallback
	}

	switch {
	case config.MaxAttempts < 1:
		return fmt.Errorf("retry: max attempts must be at least 1, got %d", config.MaxAttempts)
	case config.Backoff < 0 || config.MaxBackoff < 0:
		return fmt.Errorf("retry: negative backoff")
	case config.Fallback != FallbackRandom && config.Fallback != FallbackAbort:
		return fmt.Errorf("retry: unknown fallback policy %q", config.Fallback)
	}

	return nil
}

// RetryState is the state of a turn's retry state machine.
type RetryState int

const (
	Attempting RetryState = iota
	Succeeded
	FallenBack
	Exhausted
)

func (state RetryState) String() string {
	switch state {
	case Attempting:
		return "attempting"
	case Succeeded:
		return "succeeded"
	case FallenBack:
		return "fallen-back"
	case Exhausted:
		return "exhausted"
	default:
		return "?"
	}
}

// Retry tracks the attempts of a single turn. It is not safe for
// concurrent use; every turn gets a new one.
type Retry struct {
	config RetryConfig
	state  RetryState

	attempts int
	backoff  *backoff.Backoff
}

// NewRetry creates a new retry state machine for a turn. The config is
// assumed to be normalized.
func NewRetry(config RetryConfig) *Retry {
	retry := &Retry{config: config}

	// a zero backoff means no wait at all
	if config.Backoff > 0 {
		ceiling := config.MaxBackoff
		if ceiling == 0 {
			ceiling = time.Duration(math.MaxInt64)
		}

		retry.backoff = &backoff.Backoff{
			Min:    config.Backoff,
			Max:    ceiling,
			Factor: 2,
			Jitter: false,
		}
	}

	return retry
}

func (retry *Retry) State() RetryState {
	return retry.state
}

// Attempts returns the number of attempts recorded so far.
func (retry *Retry) Attempts() int {
	return retry.attempts
}

// Record records the outcome of an attempt and returns the resulting
// state. If another attempt is due, the wait before it is returned too.
// Once the attempts run out the state becomes FallenBack, or Exhausted
// under FallbackAbort.
func (retry *Retry) Record(outcome Outcome) (RetryState, time.Duration) {
	if retry.state != Attempting {
		panic(fmt.Sprintf("retry: attempt recorded in state %s", retry.state))
	}

	retry.attempts++

	switch {
	case outcome == Success:
		retry.state = Succeeded
	case retry.attempts >= retry.config.MaxAttempts:
		retry.state = FallenBack
		if retry.config.Fallback == FallbackAbort {
			retry.state = Exhausted
		}
	}

	if retry.state != Attempting {
		return retry.state, 0
	}

	return retry.state, retry.Wait(retry.attempts)
}

// Wait returns the wait after the given failed attempt: the base backoff
// doubled for every earlier attempt, capped at the maximum backoff.
func (retry *Retry) Wait(attempt int) time.Duration {
	if retry.backoff == nil || attempt < 1 {
		return 0
	}

	return retry.backoff.ForAttempt(float64(attempt - 1))
}

// Fallback picks a uniformly random move from the legal set. The moves are
// sorted first so that a seeded rng always picks the same move. An empty
// set leaves nothing to pick and moves the machine to Exhausted.
func (retry *Retry) Fallback(legal games.MoveSet, rng *rand.Rand) (games.Move, RetryState) {
	moves := legal.Sorted()
	if len(moves) == 0 {
		retry.state = Exhausted
		return games.NullMove, retry.state
	}

	retry.state = FallenBack
	return moves[rng.Intn(len(moves))], retry.state
}

// Sleep waits for the given duration or until the context is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

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

package tournament

import (
	"fmt"
	"slices"
)

// Schedulers understood by NewScheduler.
const (
	RoundRobinScheduler = "round-robin"
	GauntletScheduler   = "gauntlet"
)

// Scheduler decides which pairs of players meet in a round.
type Scheduler interface {
	// Initialize starts a new round between n players.
	Initialize(n int)

	// NextEncounter returns the indices of the next pair of players.
	NextEncounter() (int, int)

	// TotalEncounters returns the number of encounters in a round.
	TotalEncounters() int
}

// NewScheduler creates the named scheduler. An empty name selects the
// round-robin scheduler.
func NewScheduler(name string) (Scheduler, error) {
	switch name {
	case RoundRobinScheduler, "":
		return &RoundRobin{}, nil
	case GauntletScheduler:
		return &Gauntlet{}, nil
	default:
		return nil, fmt.Errorf("tournament: invalid scheduler %q", name)
	}
}

// RoundRobin pairs every player with every other player once per round,
// using the circle method.
type RoundRobin struct {
	players int
	pair    int

	top, bottom []int
}

func (rr *RoundRobin) Initialize(n int) {
	rr.players = n

	// an odd number of players gets a dummy player, whose games are skipped
	total := n + n%2

	rr.top = make([]int, total/2)
	rr.bottom = make([]int, total/2)

	for i := 0; i < total; i++ {
		if i < total/2 {
			rr.top[i] = i
		} else {
			rr.bottom[total-i-1] = i
		}
	}

	rr.pair = 0
}

func (rr *RoundRobin) NextEncounter() (int, int) {
	for {
		if rr.pair >= len(rr.top) {
			rr.pair = 0

			// rotate every player except the first one
			last := len(rr.top) - 1
			carried := rr.top[last]

			rr.top = slices.Insert(rr.top, 1, rr.bottom[0])[:last+1]
			rr.bottom = append(rr.bottom[1:], carried)
		}

		p1, p2 := rr.top[rr.pair], rr.bottom[rr.pair]
		rr.pair++

		if p1 < rr.players && p2 < rr.players {
			return p1, p2
		}
	}
}

func (rr *RoundRobin) TotalEncounters() int {
	return rr.players * (rr.players - 1) / 2
}

// Gauntlet pairs the first player with every other player once per round.
type Gauntlet struct {
	players   int
	encounter int
}

func (g *Gauntlet) Initialize(n int) {
	g.players = n
	g.encounter = 0
}

func (g *Gauntlet) NextEncounter() (int, int) {
	g.encounter++
	return 0, g.encounter
}

func (g *Gauntlet) TotalEncounters() int {
	return g.players - 1
}

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
	"sync"
)

// scripted replies with a fixed list of replies in order, starting over
// once it runs out. It is used for demos and tests.
type scripted struct {
	mu      sync.Mutex
	replies []string
	next    int
}

func newScripted(replies []string) *scripted {
	return &scripted{replies: replies}
}

func (s *scripted) complete(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reply := s.replies[s.next]
	s.next = (s.next + 1) % len(s.replies)
	return reply, nil
}

func (s *scripted) close() error {
	return nil
}

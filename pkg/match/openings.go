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
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// Orders in which an opening book may be played through.
const (
	OrderSequential = "sequential"
	OrderRandom     = "random"
)

// OpeningBook is a list of starting positions, one per line. Empty lines
// and lines starting with '#' are skipped.
type OpeningBook struct {
	entries []string
	order   string
	current int

	rng *rand.Rand
}

// NewBook reads an opening book from the given file.
func NewBook(name, order string, rng *rand.Rand) (*OpeningBook, error) {
	file, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	return ParseBook(string(file), order, rng)
}

// ParseBook parses an opening book. The rng is only used by random books.
func ParseBook(text, order string, rng *rand.Rand) (*OpeningBook, error) {
	book := OpeningBook{order: order, rng: rng}

	switch order {
	case "":
		book.order = OrderSequential
	case OrderSequential:
	case OrderRandom:
		if rng == nil {
			return nil, errors.New("openings: random book without a source")
		}
	default:
		return nil, fmt.Errorf("openings: unknown order %q", order)
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(line, "\n\r\t ")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		book.entries = append(book.entries, line)
	}

	if len(book.entries) == 0 {
		return nil, errors.New("openings: empty book")
	}

	if book.order == OrderRandom {
		book.current = book.rng.Intn(len(book.entries))
	}

	return &book, nil
}

// Next advances the book to its next opening.
func (book *OpeningBook) Next() {
	switch book.order {
	case OrderRandom:
		book.current = book.rng.Intn(len(book.entries))
	default:
		book.current = (book.current + 1) % len(book.entries)
	}
}

// Current returns the current opening.
func (book *OpeningBook) Current() string {
	return book.entries[book.current]
}

// Len returns the number of openings in the book.
func (book *OpeningBook) Len() int {
	return len(book.entries)
}

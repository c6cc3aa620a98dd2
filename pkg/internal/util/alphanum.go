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
	"regexp"
	"sort"
	"strconv"
)

var chunkifyRegexp = regexp.MustCompile(`(\d+|\D+)`)

func chunkify(s string) []string {
	return chunkifyRegexp.FindAllString(s, -1)
}

// NaturalLess reports whether a sorts before b in natural order, i.e. runs
// of digits are compared by their numeric value: "a2" < "a10".
func NaturalLess(a, b string) bool {
	chunks_a := chunkify(a)
	chunks_b := chunkify(b)

	for i := 0; i < len(chunks_a) && i < len(chunks_b); i++ {
		if chunks_a[i] == chunks_b[i] {
			continue
		}

		aInt, aErr := strconv.Atoi(chunks_a[i])
		bInt, bErr := strconv.Atoi(chunks_b[i])

		// If both chunks are numeric, compare them as integers
		if aErr == nil && bErr == nil && aInt != bInt {
			return aInt < bInt
		}

		return chunks_a[i] < chunks_b[i]
	}

	// One is a prefix of the other, the shorter one goes first.
	return len(chunks_a) < len(chunks_b)
}

// SortNatural sorts the given strings in place in natural order.
func SortNatural(s []string) {
	sort.Slice(s, func(i, j int) bool {
		return NaturalLess(s[i], s[j])
	})
}

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

// Package stats provides rating statistics for game results.
package stats

import "math"

// Elo estimates the Elo difference implied by a win/draw/loss record along
// with the bounds of its 95% confidence interval.
func Elo(ws, ds, ls int) (muMin float64, mu float64, muMax float64) {
	N := float64(ws + ds + ls) // total number of games

	if N == 0 {
		return 0, 0, 0
	}

	w := float64(ws) / N // measured win probability
	d := float64(ds) / N // measured draw probability
	l := float64(ls) / N // measured loss probability

	// empirical mean of random variable
	mu = w + d/2

	// standard deviation of the random variable
	sigma := math.Sqrt(w*math.Pow(1-mu, 2)+d*math.Pow(0.5-mu, 2)+l*math.Pow(0-mu, 2)) / math.Sqrt(N)

	muMax = mu + phiInv(0.975)*sigma // upper bound
	muMin = mu + phiInv(0.025)*sigma // lower bound

	return scoreToElo(muMin), scoreToElo(mu), scoreToElo(muMax)
}

// ErrorMargin returns the half-width of the 95% confidence interval of the
// Elo estimate of a win/draw/loss record.
func ErrorMargin(ws, ds, ls int) float64 {
	lower, elo, upper := Elo(ws, ds, ls)
	return math.Max(upper-elo, elo-lower)
}

// Score returns the fraction of points scored in a win/draw/loss record.
func Score(ws, ds, ls int) float64 {
	n := ws + ds + ls
	if n == 0 {
		return 0
	}

	return (float64(ws) + float64(ds)/2) / float64(n)
}

// EloLimit bounds every Elo difference. A perfect or a zero score has no
// finite Elo difference and is reported as +EloLimit or -EloLimit.
const EloLimit = 999

// scoreToElo converts an expected score into an Elo difference, clamped
// to EloLimit.
func scoreToElo(x float64) float64 {
	switch {
	case x <= 0:
		return -EloLimit
	case x >= 1:
		return EloLimit

	default:
		return math.Max(-EloLimit, math.Min(EloLimit, -400*math.Log10(1/x-1)))
	}
}

func phiInv(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

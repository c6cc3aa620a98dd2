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

package record

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"laptudirm.com/x/arena/pkg/games"
	"laptudirm.com/x/arena/pkg/match"
)

// transcriptWidth is the width the move text of a transcript is wrapped at.
const transcriptWidth = 80

// Transcript writes a game out in a PGN-like notation once it is over.
// Moves are written in the game's own notation.
type Transcript struct {
	w      io.Writer
	header Header
	turns  []match.Turn
}

var _ match.Recorder = (*Transcript)(nil)

// NewTranscript creates a transcript recorder writing to w.
func NewTranscript(w io.Writer, header Header) *Transcript {
	return &Transcript{w: w, header: header}
}

func (transcript *Transcript) Append(turn match.Turn) error {
	transcript.turns = append(transcript.turns, turn)
	return nil
}

func (transcript *Transcript) Finalize(result *match.Result) error {
	_, err := io.WriteString(transcript.w, FormatTranscript(transcript.header, transcript.turns, result))
	return err
}

// AppendTranscript formats the game and appends it to the file at path,
// creating the file if needed.
func AppendTranscript(path string, header Header, turns []match.Turn, result *match.Result) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err := file.WriteString(FormatTranscript(header, turns, result)); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

// FormatTranscript formats a finished game.
func FormatTranscript(header Header, turns []match.Turn, result *match.Result) string {
	var b strings.Builder

	tag := func(name, value string) {
		fmt.Fprintf(&b, "[%s %s]\n", name, strconv.Quote(value))
	}

	round := "-"
	if header.Round > 0 {
		round = strconv.Itoa(header.Round)
	}

	date := "????.??.??"
	if !header.Date.IsZero() {
		date = header.Date.Format("2006.01.02")
	}

	tag("Event", orDefault(header.Event, "?"))
	tag("Site", orDefault(header.Site, "?"))
	tag("Date", date)
	tag("Round", round)
	tag("White", header.Players[games.First])
	tag("Black", header.Players[games.Second])
	tag("Result", result.Score().String())
	tag("Variant", header.Game)
	tag("FEN", header.Start)
	tag("Termination", result.Reason)
	b.WriteByte('\n')

	var tokens []string
	number := 1
	for i, turn := range turns {
		switch {
		case turn.Side == games.First:
			tokens = append(tokens, strconv.Itoa(number)+".")
		case i == 0:
			tokens = append(tokens, strconv.Itoa(number)+"...")
		}

		tokens = append(tokens, string(turn.Move))
		if turn.Fallback {
			tokens = append(tokens, "{fallback}")
		}

		if turn.Side == games.Second {
			number++
		}
	}

	tokens = append(tokens, result.Score().String())

	width := 0
	for i, token := range tokens {
		if i > 0 {
			if width+1+len(token) > transcriptWidth {
				b.WriteByte('\n')
				width = 0
			} else {
				b.WriteByte(' ')
				width++
			}
		}

		b.WriteString(token)
		width += len(token)
	}

	b.WriteString("\n\n")
	return b.String()
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}

	return value
}

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

package games

import (
	"fmt"
	"math/bits"
	"regexp"
	"strconv"
	"strings"
)

// AtaxxStartFEN is the standard ataxx starting position.
const AtaxxStartFEN = "x5o/7/7/7/7/7/o5x x 0 1"

// AtaxxPassMove is the move played by a side with no other legal move.
const AtaxxPassMove Move = "0000"

// Ataxx is a game of ataxx on a 7x7 board which may contain gaps.
type Ataxx struct {
	position AtaxxPosition
}

var _ Game = (*Ataxx)(nil)

// NewAtaxx creates a new game of ataxx from the given FEN. An empty FEN
// selects the standard starting position.
func NewAtaxx(fenstr string) (*Ataxx, error) {
	if fenstr == "" {
		fenstr = AtaxxStartFEN
	}

	position, err := ParseAtaxxFEN(fenstr)
	if err != nil {
		return nil, err
	}

	return &Ataxx{position: position}, nil
}

// Squares are numbered rank-major from a1 = 0 to g7 = 48.
const (
	ataxxWidth   = 7
	ataxxSquares = ataxxWidth * ataxxWidth

	ataxxAll uint64 = 1<<ataxxSquares - 1
)

// ataxxSingles[sq] and ataxxDoubles[sq] are the squares one and two
// squares away from sq respectively.
var ataxxSingles, ataxxDoubles [ataxxSquares]uint64

func init() {
	for sq := 0; sq < ataxxSquares; sq++ {
		file, rank := sq%ataxxWidth, sq/ataxxWidth
		for target := 0; target < ataxxSquares; target++ {
			switch chebyshev(file, rank, target%ataxxWidth, target/ataxxWidth) {
			case 1:
				ataxxSingles[sq] |= 1 << target
			case 2:
				ataxxDoubles[sq] |= 1 << target
			}
		}
	}
}

func chebyshev(f1, r1, f2, r2 int) int {
	return max(abs(f1-f2), abs(r1-r2))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}

// spread returns every square one step away from any square in bb.
func spread(bb uint64, table *[ataxxSquares]uint64) uint64 {
	var targets uint64
	for bb != 0 {
		sq := bits.TrailingZeros64(bb)
		targets |= table[sq]
		bb &= bb - 1
	}

	return targets
}

func ataxxSquare(file, rank int) string {
	return string([]byte{byte('a' + file), byte('1' + rank)})
}

func ataxxSquareName(sq int) string {
	return ataxxSquare(sq%ataxxWidth, sq/ataxxWidth)
}

func (game *Ataxx) Name() string {
	return "ataxx"
}

func (game *Ataxx) Position() Position {
	return game.position
}

func (game *Ataxx) LegalMoves() MoveSet {
	set := make(MoveSet)
	if result, _ := game.Result(); result != Ongoing {
		return set
	}

	pos := &game.position
	us := pos.pieces[pos.side]
	empty := pos.empty()

	singles := spread(us, &ataxxSingles) & empty
	for bb := singles; bb != 0; bb &= bb - 1 {
		set[Move(ataxxSquareName(bits.TrailingZeros64(bb)))] = struct{}{}
	}

	for from := us; from != 0; from &= from - 1 {
		sq := bits.TrailingZeros64(from)
		for to := ataxxDoubles[sq] & empty; to != 0; to &= to - 1 {
			set[Move(ataxxSquareName(sq)+ataxxSquareName(bits.TrailingZeros64(to)))] = struct{}{}
		}
	}

	if len(set) == 0 {
		set[AtaxxPassMove] = struct{}{}
	}

	return set
}

func (game *Ataxx) Apply(move Move) (Position, error) {
	if !game.LegalMoves().Contains(move) {
		return nil, &IllegalMoveError{Move: move, Position: game.position.String()}
	}

	game.position = game.position.play(move)
	return game.position, nil
}

func (game *Ataxx) Result() (Result, string) {
	pos := &game.position
	us, them := pos.pieces[pos.side], pos.pieces[pos.side.Other()]

	switch {
	case us == 0:
		return XtmWins, "eradication"
	case them == 0:
		return StmWins, "eradication"
	case pos.halfmoves >= 100:
		return Draw, "fifty-move rule"
	}

	both := us | them
	if (spread(both, &ataxxSingles)|spread(both, &ataxxDoubles))&pos.empty() == 0 {
		ours, theirs := bits.OnesCount64(us), bits.OnesCount64(them)
		switch {
		case ours > theirs:
			return StmWins, "population count"
		case theirs > ours:
			return XtmWins, "population count"
		default:
			return Draw, "population count"
		}
	}

	return Ongoing, ""
}

func (game *Ataxx) Describe() string {
	var b strings.Builder

	pos := &game.position
	for rank := ataxxWidth - 1; rank >= 0; rank-- {
		fmt.Fprintf(&b, "%d ", rank+1)
		for file := 0; file < ataxxWidth; file++ {
			b.WriteByte(pos.at(rank*ataxxWidth + file))
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}

	b.WriteString("  a b c d e f g\n\n")
	fmt.Fprintf(&b, "FEN: %s\n", pos.String())
	fmt.Fprintf(&b, "%s to move. Pieces: x %d, o %d.\n",
		game.SideName(pos.side),
		bits.OnesCount64(pos.pieces[First]),
		bits.OnesCount64(pos.pieces[Second]),
	)

	b.WriteString(describeMoves(game.LegalMoves()))
	return b.String()
}

func (game *Ataxx) SideName(side Side) string {
	if side == First {
		return "x"
	}

	return "o"
}

func (game *Ataxx) Notation() Notation {
	return AtaxxNotation{}
}

// AtaxxPosition is an ataxx position. x is the first side.
type AtaxxPosition struct {
	pieces [SideN]uint64
	gaps   uint64

	side      Side
	halfmoves int
	fullmoves int
}

// ParseAtaxxFEN parses an ataxx FEN. The half-move and full-move counters
// are optional.
func ParseAtaxxFEN(fenstr string) (AtaxxPosition, error) {
	var pos AtaxxPosition

	fields := strings.Fields(fenstr)
	if len(fields) < 2 || len(fields) > 4 {
		return pos, fmt.Errorf("ataxx: invalid fen %q: expected 2 to 4 fields", fenstr)
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != ataxxWidth {
		return pos, fmt.Errorf("ataxx: invalid fen %q: expected 7 ranks", fenstr)
	}

	for i, rankstr := range ranks {
		rank, file := ataxxWidth-1-i, 0
		for _, r := range rankstr {
			if file >= ataxxWidth {
				return pos, fmt.Errorf("ataxx: invalid fen %q: rank %d too long", fenstr, rank+1)
			}

			bb := uint64(1) << (rank*ataxxWidth + file)
			switch r {
			case 'x', 'X', 'b', 'B':
				pos.pieces[First] |= bb
			case 'o', 'O', 'w', 'W':
				pos.pieces[Second] |= bb
			case '-':
				pos.gaps |= bb
			case '1', '2', '3', '4', '5', '6', '7':
				file += int(r-'0') - 1
			default:
				return pos, fmt.Errorf("ataxx: invalid fen %q: bad character %q", fenstr, r)
			}

			file++
		}

		if file != ataxxWidth {
			return pos, fmt.Errorf("ataxx: invalid fen %q: rank %d has %d files", fenstr, rank+1, file)
		}
	}

	switch fields[1] {
	case "x", "b":
		pos.side = First
	case "o", "w":
		pos.side = Second
	default:
		return pos, fmt.Errorf("ataxx: invalid fen %q: bad side to move", fenstr)
	}

	pos.fullmoves = 1
	if len(fields) >= 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil || n < 0 {
			return pos, fmt.Errorf("ataxx: invalid fen %q: bad half-move clock", fenstr)
		}

		pos.halfmoves = n
	}

	if len(fields) == 4 {
		n, err := strconv.Atoi(fields[3])
		if err != nil || n < 1 {
			return pos, fmt.Errorf("ataxx: invalid fen %q: bad move number", fenstr)
		}

		pos.fullmoves = n
	}

	return pos, nil
}

func (pos AtaxxPosition) SideToMove() Side {
	return pos.side
}

func (pos AtaxxPosition) String() string {
	var b strings.Builder

	for rank := ataxxWidth - 1; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < ataxxWidth; file++ {
			cell := pos.at(rank*ataxxWidth + file)
			if cell == '.' {
				empty++
				continue
			}

			if empty > 0 {
				b.WriteString(strconv.Itoa(empty))
				empty = 0
			}

			b.WriteByte(cell)
		}

		if empty > 0 {
			b.WriteString(strconv.Itoa(empty))
		}

		if rank > 0 {
			b.WriteByte('/')
		}
	}

	side := "x"
	if pos.side == Second {
		side = "o"
	}

	fmt.Fprintf(&b, " %s %d %d", side, pos.halfmoves, pos.fullmoves)
	return b.String()
}

func (pos *AtaxxPosition) empty() uint64 {
	return ataxxAll &^ (pos.pieces[First] | pos.pieces[Second] | pos.gaps)
}

func (pos *AtaxxPosition) at(sq int) byte {
	bb := uint64(1) << sq
	switch {
	case pos.pieces[First]&bb != 0:
		return 'x'
	case pos.pieces[Second]&bb != 0:
		return 'o'
	case pos.gaps&bb != 0:
		return '-'
	default:
		return '.'
	}
}

// play returns the position after the given move, which must be legal.
func (pos AtaxxPosition) play(move Move) AtaxxPosition {
	us, them := pos.side, pos.side.Other()

	pos.halfmoves++
	if pos.side == Second {
		pos.fullmoves++
	}
	pos.side = them

	if move == AtaxxPassMove {
		return pos
	}

	str := string(move)
	to := ataxxIndex(str[len(str)-2:])
	toBB := uint64(1) << to

	if len(str) == 4 {
		pos.pieces[us] &^= uint64(1) << ataxxIndex(str[:2])
	} else {
		pos.halfmoves = 0
	}

	pos.pieces[us] |= toBB

	captured := pos.pieces[them] & ataxxSingles[to]
	if captured != 0 {
		pos.pieces[them] &^= captured
		pos.pieces[us] |= captured
		pos.halfmoves = 0
	}

	return pos
}

func ataxxIndex(square string) int {
	return int(square[1]-'1')*ataxxWidth + int(square[0]-'a')
}

// AtaxxNotation reads moves written as a destination square for singles,
// a source and destination square for doubles, and 0000 for a pass.
type AtaxxNotation struct{}

var ataxxPattern = regexp.MustCompile(`(?i)\b[a-g][1-7](?:[a-g][1-7])?\b|\b0000\b`)

func (AtaxxNotation) Pattern() *regexp.Regexp {
	return ataxxPattern
}

func (AtaxxNotation) Example() string {
	return "b2"
}

func (AtaxxNotation) Decode(token string, _ Position) (Move, error) {
	token = strings.ToLower(strings.TrimSpace(token))

	switch len(token) {
	case 4:
		if token == string(AtaxxPassMove) {
			return AtaxxPassMove, nil
		}

		if !isAtaxxSquare(token[:2]) || !isAtaxxSquare(token[2:]) {
			break
		}

		from, to := ataxxIndex(token[:2]), ataxxIndex(token[2:])
		if ataxxDoubles[from]&(1<<to) == 0 {
			return NullMove, fmt.Errorf("ataxx: %q does not jump two squares", token)
		}

		return Move(token), nil

	case 2:
		if isAtaxxSquare(token) {
			return Move(token), nil
		}
	}

	return NullMove, fmt.Errorf("ataxx: %q is not a move", token)
}

func isAtaxxSquare(square string) bool {
	return len(square) == 2 &&
		square[0] >= 'a' && square[0] <= 'g' &&
		square[1] >= '1' && square[1] <= '7'
}

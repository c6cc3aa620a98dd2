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
	"regexp"
	"strconv"
	"strings"
)

// TicTacToe is a game of tic-tac-toe on a 3x3 board. X moves first.
type TicTacToe struct {
	position TicTacToePosition
}

var _ Game = (*TicTacToe)(nil)

// NewTicTacToe creates a new game of tic-tac-toe from the given position,
// written as nine cells from the top left in row-major order using 'X',
// 'O', and '.' for an empty cell. Slashes between rows are ignored. An
// empty position is the empty board.
func NewTicTacToe(position string) (*TicTacToe, error) {
	var game TicTacToe
	for i := range game.position.cells {
		game.position.cells[i] = tttEmpty
	}

	if position == "" {
		return &game, nil
	}

	cells := strings.ReplaceAll(position, "/", "")
	if len(cells) != 9 {
		return nil, fmt.Errorf("tictactoe: invalid position %q: expected 9 cells", position)
	}

	xs, os := 0, 0
	for i := range cells {
		switch cells[i] {
		case 'X', 'x':
			game.position.cells[i] = tttX
			xs++
		case 'O', 'o':
			game.position.cells[i] = tttO
			os++
		case '.', '-', '_':
		default:
			return nil, fmt.Errorf("tictactoe: invalid position %q: bad cell %q", position, cells[i])
		}
	}

	if xs != os && xs != os+1 {
		return nil, fmt.Errorf("tictactoe: invalid position %q: impossible piece count", position)
	}

	return &game, nil
}

const (
	tttEmpty byte = '.'
	tttX     byte = 'X'
	tttO     byte = 'O'
)

var tttLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func (game *TicTacToe) Name() string {
	return "tictactoe"
}

func (game *TicTacToe) Position() Position {
	return game.position
}

func (game *TicTacToe) LegalMoves() MoveSet {
	set := make(MoveSet)
	if game.position.winner() != tttEmpty {
		return set
	}

	for i, cell := range game.position.cells {
		if cell == tttEmpty {
			set[tttMove(i)] = struct{}{}
		}
	}

	return set
}

func (game *TicTacToe) Apply(move Move) (Position, error) {
	if !game.LegalMoves().Contains(move) {
		return nil, &IllegalMoveError{Move: move, Position: game.position.String()}
	}

	row, col := int(move[0]-'0'), int(move[2]-'0')
	game.position.cells[row*3+col] = game.position.mark()
	return game.position, nil
}

func (game *TicTacToe) Result() (Result, string) {
	if winner := game.position.winner(); winner != tttEmpty {
		// the winner always made the last move
		return XtmWins, "three in a row"
	}

	for _, cell := range game.position.cells {
		if cell == tttEmpty {
			return Ongoing, ""
		}
	}

	return Draw, "board full"
}

func (game *TicTacToe) Describe() string {
	var b strings.Builder

	b.WriteString("    0   1   2\n")
	for row := 0; row < 3; row++ {
		fmt.Fprintf(&b, "%d ", row)
		for col := 0; col < 3; col++ {
			cell := game.position.cells[row*3+col]
			if cell == tttEmpty {
				cell = ' '
			}

			fmt.Fprintf(&b, " %c ", cell)
			if col < 2 {
				b.WriteByte('|')
			}
		}
		b.WriteByte('\n')

		if row < 2 {
			b.WriteString("  ---+---+---\n")
		}
	}

	fmt.Fprintf(&b, "\n%s to move.\n", game.SideName(game.position.SideToMove()))
	b.WriteString(describeMoves(game.LegalMoves()))
	return b.String()
}

func (game *TicTacToe) SideName(side Side) string {
	if side == First {
		return "X"
	}

	return "O"
}

func (game *TicTacToe) Notation() Notation {
	return TicTacToeNotation{}
}

func tttMove(cell int) Move {
	return Move(fmt.Sprintf("%d,%d", cell/3, cell%3))
}

// TicTacToePosition is a tic-tac-toe board. The side to move is derived
// from the number of pieces on it.
type TicTacToePosition struct {
	cells [9]byte
}

func (pos TicTacToePosition) SideToMove() Side {
	xs, os := 0, 0
	for _, cell := range pos.cells {
		switch cell {
		case tttX:
			xs++
		case tttO:
			os++
		}
	}

	if xs > os {
		return Second
	}

	return First
}

// String returns the nine cells row by row. The side to move is implied
// by the piece counts, so the string alone identifies the position.
func (pos TicTacToePosition) String() string {
	return string(pos.cells[:])
}

func (pos TicTacToePosition) mark() byte {
	if pos.SideToMove() == First {
		return tttX
	}

	return tttO
}

func (pos TicTacToePosition) winner() byte {
	for _, line := range tttLines {
		a, b, c := pos.cells[line[0]], pos.cells[line[1]], pos.cells[line[2]]
		if a != tttEmpty && a == b && b == c {
			return a
		}
	}

	return tttEmpty
}

// TicTacToeNotation reads moves written as "row,col" with both
// coordinates in the range 0 to 2.
type TicTacToeNotation struct{}

var tttPattern = regexp.MustCompile(`\b\d\s*,\s*\d\b`)

func (TicTacToeNotation) Pattern() *regexp.Regexp {
	return tttPattern
}

func (TicTacToeNotation) Example() string {
	return "1,1"
}

func (TicTacToeNotation) Decode(token string, _ Position) (Move, error) {
	parts := strings.Split(token, ",")
	if len(parts) != 2 {
		return NullMove, fmt.Errorf("tictactoe: %q is not a move", token)
	}

	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return NullMove, fmt.Errorf("tictactoe: %q is not a move", token)
	}

	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return NullMove, fmt.Errorf("tictactoe: %q is not a move", token)
	}

	if row < 0 || row > 2 || col < 0 || col > 2 {
		return NullMove, fmt.Errorf("tictactoe: %q is off the board", token)
	}

	return Move(fmt.Sprintf("%d,%d", row, col)), nil
}

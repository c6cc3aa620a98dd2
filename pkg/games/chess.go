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
	"strings"

	"laptudirm.com/x/mess/pkg/board"
	"laptudirm.com/x/mess/pkg/board/move"
	"laptudirm.com/x/mess/pkg/formats/fen"
)

// ChessStartFEN is the standard chess starting position.
const ChessStartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Chess is a game of standard chess. Rules are delegated to mess.
type Chess struct {
	board *board.Board
	moves []move.Move

	position ChessPosition
}

var _ Game = (*Chess)(nil)

// NewChess creates a new chess game from the given FEN. An empty FEN
// selects the standard starting position.
func NewChess(fenstr string) (*Chess, error) {
	if fenstr == "" {
		fenstr = ChessStartFEN
	}

	fields := strings.Fields(fenstr)
	switch len(fields) {
	case 4:
		fields = append(fields, "0", "1")
	case 6:
	default:
		return nil, fmt.Errorf("chess: invalid fen %q: expected 4 or 6 fields", fenstr)
	}

	if strings.Count(fields[0], "/") != 7 {
		return nil, fmt.Errorf("chess: invalid fen %q: expected 8 ranks", fenstr)
	}

	if fields[1] != "w" && fields[1] != "b" {
		return nil, fmt.Errorf("chess: invalid fen %q: bad side to move", fenstr)
	}

	chess := &Chess{
		board: board.New(board.FEN(fen.FromString(strings.Join(fields, " ")))),
	}

	chess.update()
	return chess, nil
}

// update refreshes the cached move list and position after the board changes.
func (chess *Chess) update() {
	chess.moves = chess.board.GenerateMoves(false)

	fields := [6]string(chess.board.FEN())
	side := First
	if fields[1] == "b" {
		side = Second
	}

	chess.position = ChessPosition{
		fen:  strings.Join(fields[:], " "),
		side: side,
	}
}

func (chess *Chess) Name() string {
	return "chess"
}

func (chess *Chess) Position() Position {
	return chess.position
}

func (chess *Chess) LegalMoves() MoveSet {
	set := make(MoveSet, len(chess.moves))
	for _, mov := range chess.moves {
		set[Move(strings.ToLower(mov.String()))] = struct{}{}
	}

	return set
}

func (chess *Chess) Apply(mov Move) (Position, error) {
	for _, legal := range chess.moves {
		if strings.EqualFold(legal.String(), string(mov)) {
			chess.board.MakeMove(legal)
			chess.update()
			return chess.position, nil
		}
	}

	return nil, &IllegalMoveError{Move: mov, Position: chess.position.fen}
}

func (chess *Chess) Result() (Result, string) {
	switch {
	case len(chess.moves) == 0:
		if chess.board.IsInCheck(chess.board.SideToMove) {
			return XtmWins, "checkmate"
		}

		return Draw, "stalemate"

	case chess.board.DrawClock >= 100:
		return Draw, "fifty-move rule"
	case chess.board.IsThreefoldRepetition():
		return Draw, "threefold repetition"
	case chess.board.IsInsufficientMaterial():
		return Draw, "insufficient material"
	}

	return Ongoing, ""
}

func (chess *Chess) Describe() string {
	var b strings.Builder

	fields := strings.Fields(chess.position.fen)
	ranks := strings.Split(fields[0], "/")

	for i, rank := range ranks {
		fmt.Fprintf(&b, "%d ", 8-i)
		for _, r := range rank {
			if r >= '1' && r <= '8' {
				b.WriteString(strings.Repeat(". ", int(r-'0')))
				continue
			}

			b.WriteRune(r)
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}

	b.WriteString("  a b c d e f g h\n\n")
	fmt.Fprintf(&b, "FEN: %s\n", chess.position.fen)
	fmt.Fprintf(&b, "%s to move.\n", chess.SideName(chess.position.side))
	if chess.board.IsInCheck(chess.board.SideToMove) {
		b.WriteString("The side to move is in check.\n")
	}

	b.WriteString(describeMoves(chess.LegalMoves()))
	return b.String()
}

func (chess *Chess) SideName(side Side) string {
	if side == First {
		return "White"
	}

	return "Black"
}

func (chess *Chess) Notation() Notation {
	return ChessNotation{}
}

// ChessPosition is a chess position, identified by its FEN.
type ChessPosition struct {
	fen  string
	side Side
}

func (pos ChessPosition) SideToMove() Side {
	return pos.side
}

func (pos ChessPosition) String() string {
	return pos.fen
}

var _ AmbiguousNotation = ChessNotation{}

// ChessNotation reads moves in UCI long algebraic notation. Hyphenated
// moves, capture marks, promotion with '=' and castling written as O-O or
// O-O-O are accepted as well.
type ChessNotation struct{}

var chessPattern = regexp.MustCompile(
	`(?i)\b[a-h][1-8][-x]?[a-h][1-8](?:=?[qrbn])?\b|\b(?:O-O-O|O-O|0-0-0|0-0)\b`,
)

var chessMove = regexp.MustCompile(`^(?i)([a-h][1-8])[-x]?([a-h][1-8])(?:=?([qrbn]))?$`)

func (ChessNotation) Pattern() *regexp.Regexp {
	return chessPattern
}

func (ChessNotation) Example() string {
	return "e2e4"
}

// Ambiguous reports castling written with zeros, which in prose is more
// likely a score than a move.
func (ChessNotation) Ambiguous(token string) bool {
	return strings.HasPrefix(token, "0-0")
}

func (ChessNotation) Decode(token string, pos Position) (Move, error) {
	token = strings.TrimSpace(token)

	switch strings.ToUpper(strings.ReplaceAll(token, "0", "O")) {
	case "O-O":
		if pos.SideToMove() == First {
			return "e1g1", nil
		}
		return "e8g8", nil
	case "O-O-O":
		if pos.SideToMove() == First {
			return "e1c1", nil
		}
		return "e8c8", nil
	}

	matches := chessMove.FindStringSubmatch(token)
	if matches == nil {
		return NullMove, fmt.Errorf("chess: %q is not a move", token)
	}

	from := strings.ToLower(matches[1])
	to := strings.ToLower(matches[2])
	promotion := strings.ToLower(matches[3])

	if from == to {
		return NullMove, fmt.Errorf("chess: %q does not move a piece", token)
	}

	if promotion != "" && to[1] != '1' && to[1] != '8' {
		return NullMove, fmt.Errorf("chess: %q promotes outside the last rank", token)
	}

	return Move(from + to + promotion), nil
}

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

// Package games implements the rules of the games arena can referee. Every
// game is a Game: the only authority on positions, legal moves, and results.
// Games know nothing about agents or the text they reply with, except for
// the move notation they read and write.
package games

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"laptudirm.com/x/arena/pkg/internal/util"
)

// Game is the rules authority of a single game in progress.
type Game interface {
	// Name returns the game's registry name.
	Name() string

	// Position returns the current position. It has no side effects.
	Position() Position

	// LegalMoves generates the set of moves legal in the current position.
	// The set is generated afresh on every call.
	LegalMoves() MoveSet

	// Apply plays the given move and returns the new position. If the move
	// is not legal an *IllegalMoveError is returned and the game is left
	// untouched.
	Apply(Move) (Position, error)

	// Result returns the result of the game in the current position along
	// with a reason for it. Ongoing is returned while play continues.
	Result() (Result, string)

	// Describe renders the current position and the legal moves for an
	// agent's prompt.
	Describe() string

	// SideName returns the name of the given side in this game.
	SideName(Side) string

	// Notation returns the notation the game's moves are written in.
	Notation() Notation
}

// Notation finds and decodes moves written in free text.
type Notation interface {
	// Pattern matches every token which may be a move.
	Pattern() *regexp.Regexp

	// Decode converts a token matched by Pattern into the canonical Move.
	// Decode checks the token against the board geometry, not legality.
	Decode(token string, pos Position) (Move, error)

	// Example returns an example move, used when prompting agents.
	Example() string
}

// AmbiguousNotation is implemented by notations with tokens which also
// read as something other than a move in free text.
type AmbiguousNotation interface {
	Notation

	// Ambiguous reports whether token should only be taken as a move when
	// the agent explicitly marked it as one.
	Ambiguous(token string) bool
}

// Position is an immutable snapshot of a game's state.
type Position interface {
	SideToMove() Side

	// String returns the canonical serialization of the position.
	String() string
}

// Side is one of the two sides of a game.
type Side uint8

const (
	First Side = iota
	Second

	SideN = 2
)

// Other returns the opponent of the given side.
func (side Side) Other() Side {
	return side ^ 1
}

func (side Side) String() string {
	switch side {
	case First:
		return "first"
	case Second:
		return "second"
	default:
		return "?"
	}
}

func (side Side) MarshalText() ([]byte, error) {
	return []byte(side.String()), nil
}

func (side *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "first":
		*side = First
	case "second":
		*side = Second
	default:
		return fmt.Errorf("games: unknown side %q", text)
	}

	return nil
}

// Move is the canonical encoding of a move in its game's notation.
type Move string

// NullMove is the zero Move.
const NullMove Move = ""

// MoveSet is an unordered set of moves.
type MoveSet map[Move]struct{}

// NewMoveSet creates a MoveSet containing the given moves.
func NewMoveSet(moves ...Move) MoveSet {
	set := make(MoveSet, len(moves))
	for _, move := range moves {
		set[move] = struct{}{}
	}

	return set
}

func (set MoveSet) Contains(move Move) bool {
	_, found := set[move]
	return found
}

func (set MoveSet) Len() int {
	return len(set)
}

// Sorted returns the moves of the set in natural order.
func (set MoveSet) Sorted() []Move {
	strs := make([]string, 0, len(set))
	for move := range set {
		strs = append(strs, string(move))
	}

	util.SortNatural(strs)

	moves := make([]Move, len(strs))
	for i, str := range strs {
		moves[i] = Move(str)
	}

	return moves
}

// String returns the moves of the set separated by spaces.
func (set MoveSet) String() string {
	moves := set.Sorted()
	strs := make([]string, len(moves))
	for i, move := range moves {
		strs[i] = string(move)
	}

	return strings.Join(strs, " ")
}

// Result is the result of a game from the side to move's perspective.
type Result uint8

const (
	Ongoing Result = iota
	StmWins
	XtmWins
	Draw
)

func (result Result) String() string {
	switch result {
	case Ongoing:
		return "ongoing"
	case StmWins:
		return "side to move wins"
	case XtmWins:
		return "side not to move wins"
	case Draw:
		return "draw"
	default:
		return "illegal result"
	}
}

// ErrIllegalMove is matched by every *IllegalMoveError.
var ErrIllegalMove = errors.New("games: illegal move")

// IllegalMoveError is returned by Game.Apply when the move is not legal.
type IllegalMoveError struct {
	Move     Move
	Position string
}

func (err *IllegalMoveError) Error() string {
	return fmt.Sprintf("games: illegal move %q in position %q", err.Move, err.Position)
}

func (err *IllegalMoveError) Is(target error) bool {
	return target == ErrIllegalMove
}

// StartPosition is the position name which selects a game's default
// starting position. An empty position does the same.
const StartPosition = "startpos"

// Names lists the games understood by New.
var Names = []string{"chess", "tictactoe", "ataxx"}

// New creates a new Game with the given name from the given position.
func New(name, position string) (Game, error) {
	position = strings.TrimSpace(position)
	if position == StartPosition {
		position = ""
	}

	switch strings.ToLower(name) {
	case "chess":
		return NewChess(position)
	case "tictactoe", "tic-tac-toe", "ttt":
		return NewTicTacToe(position)
	case "ataxx":
		return NewAtaxx(position)
	default:
		return nil, fmt.Errorf("games: unknown game %q", name)
	}
}

// Replay creates a new game from the given position and plays the given
// moves on it in order.
func Replay(name, position string, moves []Move) (Game, error) {
	game, err := New(name, position)
	if err != nil {
		return nil, err
	}

	for i, move := range moves {
		if _, err := game.Apply(move); err != nil {
			return nil, fmt.Errorf("replay ply %d: %w", i+1, err)
		}
	}

	return game, nil
}

// describeMoves renders a legal move list for a prompt.
func describeMoves(legal MoveSet) string {
	if legal.Len() == 0 {
		return "Legal moves: none"
	}

	return fmt.Sprintf("Legal moves (%d): %s", legal.Len(), legal.String())
}

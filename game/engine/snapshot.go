package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidState is returned for snapshots that break the state invariants
var ErrInvalidState = errors.New("invalid game state")

// ValidateState checks a snapshot before it is adopted by an engine
func ValidateState(s *GameState) error {
	if s == nil {
		return fmt.Errorf("%w: state cannot be nil", ErrInvalidState)
	}
	if len(s.Grid) != GridSize {
		return fmt.Errorf("%w: grid must have %d rows, got %d", ErrInvalidState, GridSize, len(s.Grid))
	}
	if s.NextPieceID < 1 {
		return fmt.Errorf("%w: next_piece_id must be at least 1, got %d", ErrInvalidState, s.NextPieceID)
	}
	if s.Score < 0 || s.LinesCleared < 0 {
		return fmt.Errorf("%w: score and lines_cleared must not be negative", ErrInvalidState)
	}
	if s.RotationAngle%90 != 0 || s.RotationAngle < 0 || s.RotationAngle >= 360 {
		return fmt.Errorf("%w: rotation_angle must be 0, 90, 180 or 270, got %d", ErrInvalidState, s.RotationAngle)
	}

	for r, row := range s.Grid {
		if len(row) != GridSize {
			return fmt.Errorf("%w: row %d must have %d cells, got %d", ErrInvalidState, r, GridSize, len(row))
		}
		for c, cell := range row {
			if !cell.Filled {
				if cell.Color != "" || cell.PieceID != 0 {
					return fmt.Errorf("%w: empty cell (%d,%d) carries color or piece id", ErrInvalidState, r, c)
				}
				continue
			}
			if cell.PieceID < 1 || cell.PieceID >= s.NextPieceID {
				return fmt.Errorf("%w: cell (%d,%d) has piece id %d outside [1,%d)", ErrInvalidState, r, c, cell.PieceID, s.NextPieceID)
			}
		}
	}

	if p := s.CurrentPiece; p != nil {
		if _, ok := KindByName(p.Kind.Name); !ok {
			return fmt.Errorf("%w: unknown piece kind %q", ErrInvalidState, p.Kind.Name)
		}
		if p.Rotation < 0 || p.Rotation > 3 {
			return fmt.Errorf("%w: rotation must be 0..3, got %d", ErrInvalidState, p.Rotation)
		}
	}
	if s.PendingKind != "" {
		if _, ok := KindByName(s.PendingKind); !ok {
			return fmt.Errorf("%w: unknown pending kind %q", ErrInvalidState, s.PendingKind)
		}
	}
	return nil
}

// normalizeState swaps snapshot piece data for catalogue entries
func normalizeState(s *GameState) *GameState {
	n := s.Clone()
	if n.CurrentPiece != nil {
		kind, _ := KindByName(n.CurrentPiece.Kind.Name)
		n.CurrentPiece.Kind = kind
		if !CanPlace(n.Grid, *n.CurrentPiece) {
			name := kind.Name
			if n.CurrentPiece = relocate(n.Grid, *n.CurrentPiece); n.CurrentPiece == nil {
				n.PendingKind = name
			}
		}
	}
	if n.PendingKind != "" {
		kind, _ := KindByName(n.PendingKind)
		n.PendingKind = kind.Name
	}
	return n
}

// relocate finds a legal spot for the piece's kind, or returns nil
func relocate(grid Grid, piece CurrentPiece) *CurrentPiece {
	for i := 0; i < 4; i++ {
		rot := (piece.Rotation + i) % 4
		if pos, ok := FindValidPosition(grid, piece.Kind, rot); ok {
			return &CurrentPiece{Kind: piece.Kind, Rotation: rot, Position: pos}
		}
	}
	return nil
}

// MarshalState serializes a state for checkpointing
func MarshalState(s *GameState) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalState parses and validates a checkpoint
func UnmarshalState(data []byte) (*GameState, error) {
	var s GameState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := ValidateState(&s); err != nil {
		return nil, err
	}
	return normalizeState(&s), nil
}

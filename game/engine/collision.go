package engine

// Collides reports whether shape at pos leaves the board or overlaps a filled cell
func Collides(grid Grid, s Shape, pos Position) bool {
	n := len(grid)
	for r, row := range s {
		for c, filled := range row {
			if !filled {
				continue
			}
			gr, gc := pos.Row+r, pos.Col+c
			if !InBounds(gr, gc, n) || grid[gr][gc].Filled {
				return true
			}
		}
	}
	return false
}

// CanPlace reports whether the piece fits where it is
func CanPlace(grid Grid, piece CurrentPiece) bool {
	return !Collides(grid, piece.Shape(), piece.Position)
}

// HasValidPlacement reports whether any rotation of kind fits anywhere on the grid
func HasValidPlacement(grid Grid, kind PieceKind) bool {
	n := len(grid)
	for rot := 0; rot < 4; rot++ {
		s := kind.Shapes[rot]
		h, w := s.Size()
		for row := 0; row+h <= n; row++ {
			for col := 0; col+w <= n; col++ {
				if !Collides(grid, s, Position{Row: row, Col: col}) {
					return true
				}
			}
		}
	}
	return false
}

// FindValidPosition returns the legal position nearest the top centre for the
// given rotation: columns fan out from the centre (left before right) on
// each row before moving down a row.
func FindValidPosition(grid Grid, kind PieceKind, rotation int) (Position, bool) {
	n := len(grid)
	s := kind.Shapes[rotation&3]
	h, w := s.Size()
	if h > n || w > n {
		return Position{}, false
	}
	cols := spawnColumns(n, w)
	for row := 0; row+h <= n; row++ {
		for _, col := range cols {
			pos := Position{Row: row, Col: col}
			if !Collides(grid, s, pos) {
				return pos, true
			}
		}
	}
	return Position{}, false
}

// spawnColumns lists legal left columns for a piece of width w, centre first
func spawnColumns(n, w int) []int {
	maxCol := n - w
	center := maxCol / 2
	cols := []int{center}
	for d := 1; len(cols) < maxCol+1; d++ {
		if center-d >= 0 {
			cols = append(cols, center-d)
		}
		if center+d <= maxCol {
			cols = append(cols, center+d)
		}
	}
	return cols
}

// DropRow returns the lowest row the piece reaches by falling straight down
// from its current position. ok is false when the piece does not fit where it is.
func DropRow(grid Grid, piece CurrentPiece) (int, bool) {
	s := piece.Shape()
	pos := piece.Position
	if Collides(grid, s, pos) {
		return pos.Row, false
	}
	for !Collides(grid, s, Position{Row: pos.Row + 1, Col: pos.Col}) {
		pos.Row++
	}
	return pos.Row, true
}

// GhostPosition is the position the piece would occupy if dropped now
func GhostPosition(grid Grid, piece CurrentPiece) (Position, bool) {
	row, ok := DropRow(grid, piece)
	if !ok {
		return Position{}, false
	}
	return Position{Row: row, Col: piece.Position.Col}, true
}

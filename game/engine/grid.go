package engine

// EmptyCell returns an unfilled cell
func EmptyCell() Cell {
	return Cell{}
}

// EmptyGrid returns an n×n grid of empty cells
func EmptyGrid(n int) Grid {
	grid := make(Grid, n)
	for r := range grid {
		grid[r] = make([]Cell, n)
	}
	return grid
}

// InBounds reports whether (row, col) lies inside an n×n grid
func InBounds(row, col, n int) bool {
	return row >= 0 && row < n && col >= 0 && col < n
}

// CloneGrid returns a deep copy of grid
func CloneGrid(grid Grid) Grid {
	if grid == nil {
		return nil
	}
	c := make(Grid, len(grid))
	for r, row := range grid {
		c[r] = make([]Cell, len(row))
		copy(c[r], row)
	}
	return c
}

// FilledCount counts filled cells in the grid
func FilledCount(grid Grid) int {
	count := 0
	for _, row := range grid {
		for _, cell := range row {
			if cell.Filled {
				count++
			}
		}
	}
	return count
}

// StackHeight returns the number of rows from the topmost filled cell to the floor
func StackHeight(grid Grid) int {
	for r, row := range grid {
		for _, cell := range row {
			if cell.Filled {
				return len(grid) - r
			}
		}
	}
	return 0
}

// GridsEqual compares two grids cell by cell
func GridsEqual(a, b Grid) bool {
	if len(a) != len(b) {
		return false
	}
	for r := range a {
		if len(a[r]) != len(b[r]) {
			return false
		}
		for c := range a[r] {
			if a[r][c] != b[r][c] {
				return false
			}
		}
	}
	return true
}

// stamp writes the piece's filled cells into grid tagged with pieceID. The
// caller owns grid.
func stamp(grid Grid, piece CurrentPiece, pieceID int) {
	for r, row := range piece.Shape() {
		for c, filled := range row {
			if !filled {
				continue
			}
			grid[piece.Position.Row+r][piece.Position.Col+c] = Cell{
				Filled:  true,
				Color:   piece.Kind.Color,
				PieceID: pieceID,
			}
		}
	}
}

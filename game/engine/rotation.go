package engine

// RotateGridClockwise maps (r, c) to (c, N-1-r)
func RotateGridClockwise(grid Grid) Grid {
	n := len(grid)
	out := EmptyGrid(n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out[c][n-1-r] = grid[r][c]
		}
	}
	return out
}

// RotateGridCounterClockwise maps (r, c) to (N-1-c, r)
func RotateGridCounterClockwise(grid Grid) Grid {
	n := len(grid)
	out := EmptyGrid(n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out[n-1-c][r] = grid[r][c]
		}
	}
	return out
}

// RotateGrid rotates the grid a quarter turn in the given direction
func RotateGrid(grid Grid, dir RotationDirection) Grid {
	if dir == CounterClockwise {
		return RotateGridCounterClockwise(grid)
	}
	return RotateGridClockwise(grid)
}

// NextRotation advances a piece rotation index
func NextRotation(rotation int) int {
	return (rotation + 1) % 4
}

// NextAngle updates the cosmetic board angle, normalized to [0, 360)
func NextAngle(angle int, dir RotationDirection) int {
	delta := 90
	if dir == CounterClockwise {
		delta = -90
	}
	return ((angle+delta)%360 + 360) % 360
}

// DefaultKicks is the order in which offsets are tried when a rotated piece collides
var DefaultKicks = []Offset{
	{Row: 0, Col: 1},
	{Row: 0, Col: -1},
	{Row: -1, Col: 0},
	{Row: 1, Col: 0},
	{Row: 0, Col: 2},
	{Row: 0, Col: -2},
}

// RotateWithKicks rotates the piece once, trying each kick in order when the
// rotated shape collides in place.
func RotateWithKicks(grid Grid, piece CurrentPiece, kicks []Offset) (CurrentPiece, bool) {
	rotated := piece
	rotated.Rotation = NextRotation(piece.Rotation)
	if CanPlace(grid, rotated) {
		return rotated, true
	}
	for _, k := range kicks {
		kicked := rotated
		kicked.Position = Position{Row: piece.Position.Row + k.Row, Col: piece.Position.Col + k.Col}
		if CanPlace(grid, kicked) {
			return kicked, true
		}
	}
	return piece, false
}

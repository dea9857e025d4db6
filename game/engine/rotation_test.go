package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scatteredGrid() Grid {
	grid := EmptyGrid(GridSize)
	fill(grid, 1, Position{Row: 0, Col: 0}, Position{Row: 0, Col: 1})
	fill(grid, 2, Position{Row: 3, Col: 7}, Position{Row: 4, Col: 7}, Position{Row: 4, Col: 8})
	fill(grid, 3, Position{Row: 9, Col: 2})
	fill(grid, 4, Position{Row: 6, Col: 9})
	return grid
}

func TestBoardRotationInverse(t *testing.T) {
	grid := scatteredGrid()

	assert.True(t, GridsEqual(grid, RotateGridCounterClockwise(RotateGridClockwise(grid))))
	assert.True(t, GridsEqual(grid, RotateGridClockwise(RotateGridCounterClockwise(grid))))

	full := grid
	for i := 0; i < 4; i++ {
		full = RotateGridClockwise(full)
	}
	assert.True(t, GridsEqual(grid, full), "four clockwise turns are the identity")
}

func TestBoardRotationSingleCell(t *testing.T) {
	grid := EmptyGrid(GridSize)
	fill(grid, 1, Position{Row: 9, Col: 9})

	cw := RotateGridClockwise(grid)
	assert.True(t, cw[9][0].Filled)
	assert.Equal(t, 1, FilledCount(cw))

	ccw := RotateGridCounterClockwise(grid)
	assert.True(t, ccw[0][9].Filled)
	assert.Equal(t, 1, FilledCount(ccw))
}

func TestRotationDoesNotMutateInput(t *testing.T) {
	grid := scatteredGrid()
	before := CloneGrid(grid)
	RotateGrid(grid, Clockwise)
	RotateGrid(grid, CounterClockwise)
	assert.True(t, GridsEqual(before, grid))
}

func TestNextAngle(t *testing.T) {
	assert.Equal(t, 90, NextAngle(0, Clockwise))
	assert.Equal(t, 0, NextAngle(270, Clockwise))
	assert.Equal(t, 270, NextAngle(0, CounterClockwise))
	assert.Equal(t, 180, NextAngle(270, CounterClockwise))
}

func TestRotateWithKicks(t *testing.T) {
	grid := EmptyGrid(GridSize)

	t.Run("in place", func(t *testing.T) {
		piece := CurrentPiece{Kind: mustKind(t, "T"), Position: Position{Row: 4, Col: 4}}
		rotated, ok := RotateWithKicks(grid, piece, DefaultKicks)
		require.True(t, ok)
		assert.Equal(t, 1, rotated.Rotation)
		assert.Equal(t, piece.Position, rotated.Position)
	})

	t.Run("kicked left from the wall", func(t *testing.T) {
		piece := CurrentPiece{Kind: mustKind(t, "I"), Rotation: 1, Position: Position{Row: 0, Col: 7}}
		rotated, ok := RotateWithKicks(grid, piece, DefaultKicks)
		require.True(t, ok)
		assert.Equal(t, 2, rotated.Rotation)
		assert.Equal(t, Position{Row: 0, Col: 6}, rotated.Position)
	})

	t.Run("rejected", func(t *testing.T) {
		piece := CurrentPiece{Kind: mustKind(t, "I"), Rotation: 1, Position: Position{Row: 0, Col: 9}}
		rotated, ok := RotateWithKicks(grid, piece, DefaultKicks)
		assert.False(t, ok)
		assert.Equal(t, piece, rotated)
	})

	t.Run("no kicks", func(t *testing.T) {
		piece := CurrentPiece{Kind: mustKind(t, "I"), Rotation: 1, Position: Position{Row: 0, Col: 7}}
		_, ok := RotateWithKicks(grid, piece, nil)
		assert.False(t, ok)
	})

	t.Run("wraps after four turns", func(t *testing.T) {
		piece := CurrentPiece{Kind: mustKind(t, "L"), Position: Position{Row: 3, Col: 3}}
		for i := 0; i < 4; i++ {
			var ok bool
			piece, ok = RotateWithKicks(grid, piece, DefaultKicks)
			require.True(t, ok)
		}
		assert.Equal(t, 0, piece.Rotation)
	})
}

package engine

import (
	"sort"

	"github.com/kamstrup/intmap"
)

// pieceGroup is every cell placed by one placement event
type pieceGroup struct {
	id     int
	cells  []Position
	lowest int
}

// groupPieces partitions filled cells by piece id. Cells without an id are
// treated as single-cell pieces under a synthetic negative key.
func groupPieces(grid Grid) []*pieceGroup {
	n := len(grid)
	index := intmap.New[int, int](32)
	var groups []*pieceGroup
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			cell := grid[r][c]
			if !cell.Filled {
				continue
			}
			id := cell.PieceID
			if id == 0 {
				id = -(r*n + c + 1)
			}
			i, ok := index.Get(id)
			if !ok {
				i = len(groups)
				index.Put(id, i)
				groups = append(groups, &pieceGroup{id: id, lowest: r})
			}
			g := groups[i]
			g.cells = append(g.cells, Position{Row: r, Col: c})
			if r > g.lowest {
				g.lowest = r
			}
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].lowest > groups[j].lowest
	})
	return groups
}

// owner returns the group key of a filled cell at (r, c)
func owner(grid Grid, r, c int) int {
	if id := grid[r][c].PieceID; id != 0 {
		return id
	}
	return -(r*len(grid) + c + 1)
}

// fallDistance is the largest drop the whole group can make
func fallDistance(grid Grid, g *pieceGroup) int {
	n := len(grid)
	best := n
	for _, p := range g.cells {
		d := 0
		for r := p.Row + 1; r < n; r++ {
			cell := grid[r][p.Col]
			if !cell.Filled {
				d++
				continue
			}
			if owner(grid, r, p.Col) == g.id {
				continue
			}
			break
		}
		if d < best {
			best = d
		}
	}
	return best
}

// ApplyGravity runs a single pass, bottom-most piece first, and reports
// whether any piece fell.
func ApplyGravity(grid Grid) (Grid, bool) {
	out := CloneGrid(grid)
	moved := false
	for _, g := range groupPieces(out) {
		d := fallDistance(out, g)
		if d <= 0 {
			continue
		}
		saved := make([]Cell, len(g.cells))
		for i, p := range g.cells {
			saved[i] = out[p.Row][p.Col]
			out[p.Row][p.Col] = EmptyCell()
		}
		for i, p := range g.cells {
			out[p.Row+d][p.Col] = saved[i]
		}
		moved = true
	}
	return out, moved
}

// ApplyGravityFully repeats gravity passes until nothing moves
func ApplyGravityFully(grid Grid) Grid {
	out := CloneGrid(grid)
	// A productive pass raises the sum of filled-cell rows by at least one,
	// and that sum never exceeds n*n*n.
	n := len(out)
	for i := 0; i <= n*n*n; i++ {
		next, moved := ApplyGravity(out)
		if !moved {
			return next
		}
		out = next
	}
	return out
}

// IsSettled reports whether a gravity pass would change nothing
func IsSettled(grid Grid) bool {
	_, moved := ApplyGravity(grid)
	return !moved
}

package engine

import "sort"

// ScoreTable maps a clear count to points
type ScoreTable struct {
	Points   map[int]int `json:"points"`
	Overflow int         `json:"overflow"`
}

// DefaultScoreTable awards 10, 20, 50 and 100 points for 1 to 4 lines, then 25 per line
func DefaultScoreTable() ScoreTable {
	return ScoreTable{
		Points:   map[int]int{1: 10, 2: 20, 3: 50, 4: 100},
		Overflow: 25,
	}
}

// Score returns the points for clearing count lines at once
func (t ScoreTable) Score(count int) int {
	if count <= 0 {
		return 0
	}
	if p, ok := t.Points[count]; ok {
		return p
	}
	return count * t.Overflow
}

// LineClearResult reports the outcome of ClearLines
type LineClearResult struct {
	Grid         Grid  `json:"-"`
	LinesCleared int   `json:"lines_cleared"`
	Score        int   `json:"score"`
	ClearedRows  []int `json:"cleared_rows"`
	ClearedCols  []int `json:"cleared_cols"`
}

// FindCompleteRows returns the indices of fully filled rows
func FindCompleteRows(grid Grid) []int {
	var rows []int
	for r, row := range grid {
		full := true
		for _, cell := range row {
			if !cell.Filled {
				full = false
				break
			}
		}
		if full {
			rows = append(rows, r)
		}
	}
	return rows
}

// FindCompleteCols returns the indices of fully filled columns
func FindCompleteCols(grid Grid) []int {
	var cols []int
	n := len(grid)
	for c := 0; c < n; c++ {
		full := true
		for r := 0; r < n; r++ {
			if !grid[r][c].Filled {
				full = false
				break
			}
		}
		if full {
			cols = append(cols, c)
		}
	}
	return cols
}

// HasLinesToClear reports whether any row or column is complete
func HasLinesToClear(grid Grid) bool {
	n := len(grid)
	for i := 0; i < n; i++ {
		rowFull, colFull := true, true
		for j := 0; j < n; j++ {
			if !grid[i][j].Filled {
				rowFull = false
			}
			if !grid[j][i].Filled {
				colFull = false
			}
			if !rowFull && !colFull {
				break
			}
		}
		if rowFull || colFull {
			return true
		}
	}
	return false
}

// ClearLines empties every cell of every complete row and column. Rows and
// columns are counted independently; an intersection cell is cleared once.
func ClearLines(grid Grid, table ScoreTable) LineClearResult {
	rows := FindCompleteRows(grid)
	cols := FindCompleteCols(grid)
	count := len(rows) + len(cols)
	if count == 0 {
		return LineClearResult{Grid: CloneGrid(grid), ClearedRows: []int{}, ClearedCols: []int{}}
	}

	out := CloneGrid(grid)
	n := len(out)
	for _, r := range rows {
		for c := 0; c < n; c++ {
			out[r][c] = EmptyCell()
		}
	}
	for _, c := range cols {
		for r := 0; r < n; r++ {
			out[r][c] = EmptyCell()
		}
	}
	sort.Ints(rows)
	sort.Ints(cols)
	return LineClearResult{
		Grid:         out,
		LinesCleared: count,
		Score:        table.Score(count),
		ClearedRows:  rows,
		ClearedCols:  cols,
	}
}

package engine

import "strings"

func shape(rows ...string) Shape {
	s := make(Shape, len(rows))
	for r, row := range rows {
		s[r] = make([]bool, len(row))
		for c, ch := range row {
			s[r][c] = ch == '#'
		}
	}
	return s
}

// Piece catalogue. Each kind lists its shape for 0, 90, 180 and 270 degrees.
var catalogue = []PieceKind{
	{
		Name:  "I",
		Color: "#00f0f0",
		Shapes: [4]Shape{
			shape("####"),
			shape("#", "#", "#", "#"),
			shape("####"),
			shape("#", "#", "#", "#"),
		},
	},
	{
		Name:  "O",
		Color: "#f0f000",
		Shapes: [4]Shape{
			shape("##", "##"),
			shape("##", "##"),
			shape("##", "##"),
			shape("##", "##"),
		},
	},
	{
		Name:  "T",
		Color: "#a000f0",
		Shapes: [4]Shape{
			shape(".#.", "###"),
			shape("#.", "##", "#."),
			shape("###", ".#."),
			shape(".#", "##", ".#"),
		},
	},
	{
		Name:  "S",
		Color: "#00f000",
		Shapes: [4]Shape{
			shape(".##", "##."),
			shape("#.", "##", ".#"),
			shape(".##", "##."),
			shape("#.", "##", ".#"),
		},
	},
	{
		Name:  "Z",
		Color: "#f00000",
		Shapes: [4]Shape{
			shape("##.", ".##"),
			shape(".#", "##", "#."),
			shape("##.", ".##"),
			shape(".#", "##", "#."),
		},
	},
	{
		Name:  "J",
		Color: "#0000f0",
		Shapes: [4]Shape{
			shape("#..", "###"),
			shape("##", "#.", "#."),
			shape("###", "..#"),
			shape(".#", ".#", "##"),
		},
	},
	{
		Name:  "L",
		Color: "#f0a000",
		Shapes: [4]Shape{
			shape("..#", "###"),
			shape("#.", "#.", "##"),
			shape("###", "#.."),
			shape("##", ".#", ".#"),
		},
	},
}

// Catalogue returns the seven piece kinds in a fixed order
func Catalogue() []PieceKind {
	kinds := make([]PieceKind, len(catalogue))
	copy(kinds, catalogue)
	return kinds
}

// KindByName looks up a kind by name, case-insensitively
func KindByName(name string) (PieceKind, bool) {
	for _, k := range catalogue {
		if strings.EqualFold(k.Name, name) {
			return k, true
		}
	}
	return PieceKind{}, false
}

// RandomKind picks a kind uniformly at random
func RandomKind(rng Randomizer) PieceKind {
	return catalogue[rng.Intn(len(catalogue))]
}

// Size returns the bounding box height and width
func (s Shape) Size() (int, int) {
	if len(s) == 0 {
		return 0, 0
	}
	return len(s), len(s[0])
}

// CellCount returns the number of filled offsets
func (s Shape) CellCount() int {
	n := 0
	for _, row := range s {
		for _, filled := range row {
			if filled {
				n++
			}
		}
	}
	return n
}

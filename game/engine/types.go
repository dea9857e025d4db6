package engine

// Color is a display color in #rrggbb form
type Color string

const (
	// GridSize is the side length of the square board
	GridSize = 10

	// Validation constants
	MaxKickDistance = 2
	MaxBulkActions  = 50
)

// Cell represents a single grid cell. Color and PieceID are zero unless Filled.
type Cell struct {
	Filled  bool  `json:"filled"`
	Color   Color `json:"color,omitempty"`
	PieceID int   `json:"piece_id,omitempty"`
}

// Grid is a square board indexed [row][col], rows top to bottom
type Grid [][]Cell

// Shape describes the filled offsets of a piece inside its bounding box
type Shape [][]bool

// Position is the top-left corner of a piece's bounding box
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Offset is a relative (row, col) displacement, used for rotation kicks
type Offset struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// PieceKind is one entry of the piece catalogue
type PieceKind struct {
	Name   string   `json:"name"`
	Color  Color    `json:"color"`
	Shapes [4]Shape `json:"shapes"`
}

// CurrentPiece is the piece in play
type CurrentPiece struct {
	Kind     PieceKind `json:"kind"`
	Rotation int       `json:"rotation"`
	Position Position  `json:"position"`
}

// Shape returns the shape for the piece's current rotation
func (p CurrentPiece) Shape() Shape {
	return p.Kind.Shapes[p.Rotation&3]
}

// Direction is a piece movement direction
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Delta returns the (row, col) displacement of one step in the direction
func (d Direction) Delta() (int, int, bool) {
	switch d {
	case Up:
		return -1, 0, true
	case Down:
		return 1, 0, true
	case Left:
		return 0, -1, true
	case Right:
		return 0, 1, true
	}
	return 0, 0, false
}

// RotationDirection is the direction of a board rotation
type RotationDirection string

const (
	Clockwise        RotationDirection = "clockwise"
	CounterClockwise RotationDirection = "counterclockwise"
)

// Valid reports whether d is a known rotation direction
func (d RotationDirection) Valid() bool {
	return d == Clockwise || d == CounterClockwise
}

// Status is the derived state-machine phase of a GameState
type Status string

const (
	Playing       Status = "playing"
	AwaitingSpawn Status = "awaiting_spawn"
	GameOver      Status = "game_over"
)

// GameState represents the complete game state
type GameState struct {
	Grid         Grid          `json:"grid"`
	CurrentPiece *CurrentPiece `json:"current_piece"`
	NextPieceID  int           `json:"next_piece_id"`
	Score        int           `json:"score"`
	LinesCleared int           `json:"lines_cleared"`
	IsGameOver   bool          `json:"is_game_over"`

	// PendingKind names the kind that could not be spawned yet. A board
	// rotation may open room for it; SpawnPiece retries it before drawing
	// a new random kind.
	PendingKind string `json:"pending_kind,omitempty"`

	// Cosmetic board angle in degrees, never consulted by game logic
	RotationAngle int `json:"rotation_angle"`
}

// Status reports the phase the state is in
func (s *GameState) Status() Status {
	switch {
	case s.IsGameOver:
		return GameOver
	case s.CurrentPiece == nil:
		return AwaitingSpawn
	default:
		return Playing
	}
}

// Clone returns a deep copy of the state
func (s *GameState) Clone() *GameState {
	c := *s
	c.Grid = CloneGrid(s.Grid)
	if s.CurrentPiece != nil {
		p := *s.CurrentPiece
		c.CurrentPiece = &p
	}
	return &c
}

// ActionHistoryEntry records one dispatched action
type ActionHistoryEntry struct {
	Number       int    `json:"number"`
	Action       string `json:"action"`
	Applied      bool   `json:"applied"`
	ScoreAfter   int    `json:"score_after"`
	LinesAfter   int    `json:"lines_after"`
	PieceID      int    `json:"piece_id,omitempty"`
	LinesCleared int    `json:"lines_cleared,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Rules is a named ruleset loaded from JSON
type Rules struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// GridSize documents the board size. Zero means GridSize; any other value is rejected.
	GridSize int `json:"grid_size,omitempty"`

	// AtomicPlacement composes Place with clearing, gravity and the next spawn.
	// When false those run as separate visible steps.
	AtomicPlacement bool `json:"atomic_placement"`

	Kicks          []Offset    `json:"kicks"`
	ScoreTable     map[int]int `json:"score_table"`
	OverflowPoints int         `json:"overflow_points"`
}

// DefaultRules returns the classic ruleset
func DefaultRules() *Rules {
	t := DefaultScoreTable()
	kicks := make([]Offset, len(DefaultKicks))
	copy(kicks, DefaultKicks)
	return &Rules{
		Name:            "classic",
		Description:     "Atomic placement, six rotation kicks, 10/20/50/100 scoring",
		GridSize:        GridSize,
		AtomicPlacement: true,
		Kicks:           kicks,
		ScoreTable:      t.Points,
		OverflowPoints:  t.Overflow,
	}
}

// Scoring returns the ruleset's score table
func (r *Rules) Scoring() ScoreTable {
	if r == nil || len(r.ScoreTable) == 0 {
		return DefaultScoreTable()
	}
	overflow := r.OverflowPoints
	if overflow == 0 {
		overflow = DefaultScoreTable().Overflow
	}
	return ScoreTable{Points: r.ScoreTable, Overflow: overflow}
}

// KickOffsets returns the ruleset's kicks. A nil list means the defaults;
// an explicit empty list disables kicks.
func (r *Rules) KickOffsets() []Offset {
	if r == nil || r.Kicks == nil {
		return DefaultKicks
	}
	return r.Kicks
}

// ValidateRules validates a ruleset for correctness
func ValidateRules(rules *Rules) error {
	if rules == nil {
		return fmt.Errorf("rules validation: rules cannot be nil")
	}
	if strings.TrimSpace(rules.Name) == "" {
		return fmt.Errorf("rules validation: name is required")
	}
	if rules.Description == "" {
		return fmt.Errorf("rules validation: description is required")
	}
	if rules.GridSize != 0 && rules.GridSize != GridSize {
		return fmt.Errorf("rules validation: grid_size must be %d, got %d", GridSize, rules.GridSize)
	}

	seen := make(map[Offset]bool, len(rules.Kicks))
	for i, k := range rules.Kicks {
		if abs(k.Row) > MaxKickDistance || abs(k.Col) > MaxKickDistance {
			return fmt.Errorf("rules validation: kick %d (%d,%d) exceeds %d cells", i, k.Row, k.Col, MaxKickDistance)
		}
		if k.Row == 0 && k.Col == 0 {
			return fmt.Errorf("rules validation: kick %d is a zero offset", i)
		}
		if seen[k] {
			return fmt.Errorf("rules validation: kick %d (%d,%d) is duplicated", i, k.Row, k.Col)
		}
		seen[k] = true
	}

	for count, points := range rules.ScoreTable {
		if count < 1 {
			return fmt.Errorf("rules validation: score_table key must be at least 1, got %d", count)
		}
		if points < 0 {
			return fmt.Errorf("rules validation: score_table[%d] must not be negative, got %d", count, points)
		}
	}
	if rules.OverflowPoints < 0 {
		return fmt.Errorf("rules validation: overflow_points must not be negative, got %d", rules.OverflowPoints)
	}

	return nil
}

// LoadRules loads and validates a ruleset from a JSON file
func LoadRules(filename string) (*Rules, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules '%s': %w", filename, err)
	}

	if err := ValidateRules(&rules); err != nil {
		return nil, err
	}

	return &rules, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

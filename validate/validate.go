// Command validate checks the ruleset JSON files in a directory. It checks:
//   - JSON structure, rejecting unknown fields
//   - The engine's ruleset rules (name, description, grid size, kicks, scores)
//   - That the file name is a usable ruleset id matching the "name" field
//   - Score table shape: every count from 1 to 4 present and non-decreasing
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/rotatris/game/engine"
)

var rulesetID = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

var errInvalidRulesets = errors.New("some rulesets have errors")

// ValidationResult captures the outcome of validating a single file
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// validateRuleset loads and validates a single ruleset file
func validateRuleset(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var rules engine.Rules
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rules); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateRules(&rules); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "rules validation: "))
	}

	id := strings.TrimSuffix(result.File, ".json")
	if !rulesetID.MatchString(id) {
		result.fail("File name %q is not a valid ruleset id (letters, digits, dash, underscore)", id)
	} else if rules.Name != "" && rules.Name != id {
		result.fail("name %q does not match file name %q", rules.Name, id)
	}

	checkScoreTable(&result, rules.ScoreTable)
	if rules.Kicks != nil && len(rules.Kicks) == 0 {
		result.warn("Kicks are disabled; rotations against walls or stacks will be rejected")
	}

	if result.Valid {
		table := rules.Scoring()
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Name: %s", rules.Name),
			fmt.Sprintf("✓ Atomic placement: %t", rules.AtomicPlacement),
			fmt.Sprintf("✓ Kicks: %d", len(rules.KickOffsets())),
			fmt.Sprintf("✓ Scores: %d/%d/%d/%d, +%d per extra line",
				table.Score(1), table.Score(2), table.Score(3), table.Score(4), table.Overflow),
		)
	}

	return result
}

// checkScoreTable warns about gaps and clears that score less than smaller ones
func checkScoreTable(result *ValidationResult, table map[int]int) {
	if len(table) == 0 {
		return
	}
	var missing []string
	for count := 1; count <= 4; count++ {
		if _, ok := table[count]; !ok {
			missing = append(missing, fmt.Sprint(count))
		}
	}
	if len(missing) > 0 {
		result.warn("score_table has no entry for %s line(s)", strings.Join(missing, ", "))
	}

	counts := make([]int, 0, len(table))
	for count := range table {
		counts = append(counts, count)
	}
	sort.Ints(counts)
	for i := 1; i < len(counts); i++ {
		if table[counts[i]] < table[counts[i-1]] {
			result.warn("score_table[%d]=%d scores less than score_table[%d]=%d",
				counts[i], table[counts[i]], counts[i-1], table[counts[i-1]])
		}
	}
}

// validateDir validates every *.json file in dir and prints a report. It
// returns errInvalidRulesets when any file fails.
func validateDir(w io.Writer, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("error finding ruleset files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no ruleset files found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateRuleset(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, e := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+e)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Fprintln(w, "❌ Some rulesets have errors")
		return errInvalidRulesets
	}
	fmt.Fprintln(w, "✅ All rulesets are valid!")
	return nil
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate ruleset JSON files",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "../rulesets", Usage: "directory holding ruleset JSON files"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("dir")
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}
			return validateDir(out, dir)
		},
	}
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errInvalidRulesets) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/rotatris/game/engine"
	"github.com/wricardo/rotatris/game/service"
)

var (
	ErrRulesetNotFound = errors.New("ruleset not found")
	ErrInvalidRuleset  = errors.New("invalid ruleset")
)

// DefaultRulesetName is the built-in ruleset every manager can serve
const DefaultRulesetName = "classic"

var validName = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func logger() *zerolog.Logger {
	l := log.With().Str("module", "config").Logger()
	return &l
}

// Manager handles ruleset loading and caching. An empty directory serves
// only the built-in ruleset.
type Manager struct {
	rulesetDir     string
	defaultRuleset *engine.Rules
	rulesets       map[string]*engine.Rules
	mu             sync.RWMutex
}

// NewManager creates a new ruleset manager
func NewManager(rulesetDir string) (*Manager, error) {
	if rulesetDir != "" {
		if _, err := os.Stat(rulesetDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("ruleset directory does not exist: %s", rulesetDir)
		}
	}

	m := &Manager{
		rulesetDir: rulesetDir,
		rulesets:   make(map[string]*engine.Rules),
	}

	if err := m.loadDefaultRuleset(); err != nil {
		return nil, fmt.Errorf("failed to load default ruleset: %w", err)
	}

	return m, nil
}

// LoadRuleset loads a ruleset by name
func (m *Manager) LoadRuleset(name string) (*engine.Rules, error) {
	name = strings.TrimSuffix(name, ".json")
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: bad name %q", ErrInvalidRuleset, name)
	}

	m.mu.RLock()
	if rules, exists := m.rulesets[name]; exists {
		m.mu.RUnlock()
		return rules, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if rules, exists := m.rulesets[name]; exists {
		return rules, nil
	}

	rules, err := m.readRuleset(name)
	if errors.Is(err, ErrRulesetNotFound) && name == DefaultRulesetName {
		rules, err = engine.DefaultRules(), nil
	}
	if err != nil {
		return nil, err
	}

	m.rulesets[name] = rules
	return rules, nil
}

// readRuleset reads one file; the caller holds the write lock
func (m *Manager) readRuleset(name string) (*engine.Rules, error) {
	if m.rulesetDir == "" {
		return nil, ErrRulesetNotFound
	}

	data, err := os.ReadFile(filepath.Join(m.rulesetDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRulesetNotFound
		}
		return nil, fmt.Errorf("failed to read ruleset file: %w", err)
	}

	var rules engine.Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: failed to parse ruleset: %v", ErrInvalidRuleset, err)
	}

	if err := engine.ValidateRules(&rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleset, err)
	}

	return &rules, nil
}

// ListRulesets returns information about all available rulesets, built-in
// included, sorted by id
func (m *Manager) ListRulesets() ([]*service.RulesetInfo, error) {
	names := map[string]string{DefaultRulesetName: ""}

	if m.rulesetDir != "" {
		entries, err := os.ReadDir(m.rulesetDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read ruleset directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			names[strings.TrimSuffix(entry.Name(), ".json")] = entry.Name()
		}
	}

	var infos []*service.RulesetInfo
	for id, filename := range names {
		rules, err := m.LoadRuleset(id)
		if err != nil {
			logger().Warn().Err(err).Str("ruleset", id).Msg("skipping ruleset")
			continue
		}
		infos = append(infos, &service.RulesetInfo{
			Filename:        filename,
			RulesetID:       id,
			Name:            rules.Name,
			Description:     rules.Description,
			AtomicPlacement: rules.AtomicPlacement,
			KickCount:       len(rules.KickOffsets()),
			BuiltIn:         filename == "",
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].RulesetID < infos[j].RulesetID })
	return infos, nil
}

// GetDefault returns the default ruleset
func (m *Manager) GetDefault() *engine.Rules {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultRuleset
}

// SetDefault sets the default ruleset by name
func (m *Manager) SetDefault(name string) error {
	rules, err := m.LoadRuleset(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultRuleset = rules
	return nil
}

// RefreshCache drops cached rulesets so the next load reads from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.rulesets = make(map[string]*engine.Rules)
	m.mu.Unlock()

	return m.loadDefaultRuleset()
}

// loadDefaultRuleset prefers classic.json on disk and falls back to the
// built-in classic rules
func (m *Manager) loadDefaultRuleset() error {
	rules, err := m.LoadRuleset(DefaultRulesetName)
	if err != nil {
		logger().Warn().Err(err).Msg("classic ruleset on disk is unusable, using built-in rules")
		rules = engine.DefaultRules()
	}

	m.mu.Lock()
	m.defaultRuleset = rules
	m.mu.Unlock()
	return nil
}

// SaveRuleset saves a ruleset to disk
func (m *Manager) SaveRuleset(name string, rules *engine.Rules) error {
	name = strings.TrimSuffix(name, ".json")
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidRuleset, name)
	}
	if err := engine.ValidateRules(rules); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRuleset, err)
	}
	if m.rulesetDir == "" {
		return fmt.Errorf("no ruleset directory configured")
	}

	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ruleset: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.rulesetDir, name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write ruleset file: %w", err)
	}

	m.mu.Lock()
	m.rulesets[name] = rules
	m.mu.Unlock()

	logger().Info().Str("ruleset", name).Msg("ruleset saved")
	return nil
}

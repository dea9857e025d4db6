package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/rotatris/game/engine"
)

func createValidRules(name string) *engine.Rules {
	rules := engine.DefaultRules()
	rules.Name = name
	rules.Description = "Test ruleset " + name
	return rules
}

func writeRulesetFile(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), data, 0644))
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("empty directory uses built-in default", func(t *testing.T) {
		m, err := NewManager(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, DefaultRulesetName, m.GetDefault().Name)
	})

	t.Run("no directory", func(t *testing.T) {
		m, err := NewManager("")
		require.NoError(t, err)
		rules, err := m.LoadRuleset("classic")
		require.NoError(t, err)
		assert.True(t, rules.AtomicPlacement)

		_, err = m.LoadRuleset("sandbox")
		assert.True(t, errors.Is(err, ErrRulesetNotFound))
	})

	t.Run("classic on disk wins", func(t *testing.T) {
		dir := t.TempDir()
		rules := createValidRules("classic")
		rules.Description = "from disk"
		writeRulesetFile(t, dir, "classic", rules)

		m, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "from disk", m.GetDefault().Description)
	})
}

func TestLoadRuleset(t *testing.T) {
	dir := t.TempDir()
	writeRulesetFile(t, dir, "sandbox", createValidRules("sandbox"))
	writeRulesetFile(t, dir, "broken", map[string]interface{}{"name": "broken"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{"), 0644))

	m, err := NewManager(dir)
	require.NoError(t, err)

	rules, err := m.LoadRuleset("sandbox")
	require.NoError(t, err)
	assert.Equal(t, "sandbox", rules.Name)

	again, err := m.LoadRuleset("sandbox.json")
	require.NoError(t, err)
	assert.Same(t, rules, again, "second load is served from the cache")

	_, err = m.LoadRuleset("broken")
	assert.True(t, errors.Is(err, ErrInvalidRuleset))

	_, err = m.LoadRuleset("garbage")
	assert.True(t, errors.Is(err, ErrInvalidRuleset))

	_, err = m.LoadRuleset("missing")
	assert.True(t, errors.Is(err, ErrRulesetNotFound))

	_, err = m.LoadRuleset("../etc/passwd")
	assert.True(t, errors.Is(err, ErrInvalidRuleset))
}

func TestListRulesets(t *testing.T) {
	dir := t.TempDir()
	sandbox := createValidRules("sandbox")
	sandbox.AtomicPlacement = false
	sandbox.Kicks = []engine.Offset{}
	writeRulesetFile(t, dir, "sandbox", sandbox)
	writeRulesetFile(t, dir, "broken", map[string]interface{}{"name": "broken"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	m, err := NewManager(dir)
	require.NoError(t, err)

	infos, err := m.ListRulesets()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "classic", infos[0].RulesetID)
	assert.True(t, infos[0].BuiltIn)
	assert.Equal(t, 6, infos[0].KickCount)

	assert.Equal(t, "sandbox", infos[1].RulesetID)
	assert.Equal(t, "sandbox.json", infos[1].Filename)
	assert.False(t, infos[1].AtomicPlacement)
	assert.Equal(t, 0, infos[1].KickCount)
	assert.False(t, infos[1].BuiltIn)
}

func TestSaveRulesetAndSetDefault(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	invalid := createValidRules("bad")
	invalid.GridSize = 7
	assert.True(t, errors.Is(m.SaveRuleset("bad", invalid), ErrInvalidRuleset))

	require.NoError(t, m.SaveRuleset("tournament", createValidRules("tournament")))
	_, err = os.Stat(filepath.Join(dir, "tournament.json"))
	require.NoError(t, err)

	require.NoError(t, m.SetDefault("tournament"))
	assert.Equal(t, "tournament", m.GetDefault().Name)

	assert.Error(t, m.SetDefault("missing"))

	noDir, err := NewManager("")
	require.NoError(t, err)
	assert.Error(t, noDir.SaveRuleset("x", createValidRules("x")))
}

func TestRefreshCache(t *testing.T) {
	dir := t.TempDir()
	writeRulesetFile(t, dir, "sandbox", createValidRules("sandbox"))
	m, err := NewManager(dir)
	require.NoError(t, err)

	first, err := m.LoadRuleset("sandbox")
	require.NoError(t, err)

	updated := createValidRules("sandbox")
	updated.Description = "updated"
	writeRulesetFile(t, dir, "sandbox", updated)

	cached, _ := m.LoadRuleset("sandbox")
	assert.Equal(t, first.Description, cached.Description)

	require.NoError(t, m.RefreshCache())
	fresh, err := m.LoadRuleset("sandbox")
	require.NoError(t, err)
	assert.Equal(t, "updated", fresh.Description)
}

func TestConcurrentLoads(t *testing.T) {
	dir := t.TempDir()
	writeRulesetFile(t, dir, "sandbox", createValidRules("sandbox"))
	m, err := NewManager(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.LoadRuleset("sandbox")
			assert.NoError(t, err)
			_, err = m.ListRulesets()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

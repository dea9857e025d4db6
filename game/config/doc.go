// Package config provides ruleset management for Rotatris.
//
// The config package handles:
//   - Loading game rulesets from JSON files
//   - Ruleset validation through engine.ValidateRules
//   - Default ruleset management with a built-in classic fallback
//   - Ruleset discovery and listing
//
// Ruleset Format:
//
// Rulesets are stored as JSON files in the ruleset directory:
//
//	{
//	  "name": "classic",
//	  "description": "Atomic placement, six rotation kicks",
//	  "atomic_placement": true,
//	  "kicks": [{"row": 0, "col": 1}, {"row": 0, "col": -1}],
//	  "score_table": {"1": 10, "2": 20, "3": 50, "4": 100},
//	  "overflow_points": 25
//	}
//
// Omitting "kicks" selects the default kick order; an empty list disables kicks.
//
// Usage:
//
//	manager, err := config.NewManager("rulesets")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rules, err := manager.LoadRuleset("sandbox")
//	defaultRules := manager.GetDefault()
//	infos, err := manager.ListRulesets()
package config

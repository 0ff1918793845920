// Package config loads mdsync settings.
//
// Settings are merged from three layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment (MDSYNC_*)  │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. Config file (TOML/YAML) │
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Values set with Config.Set after loading override all three.
//
// # Basic Usage
//
//	cfg := config.New(config.WithFile("mdsync.toml"))
//	if err := cfg.Load(); err != nil {
//	    log.Fatal(err)
//	}
//	opts := cfg.Render()
//	delay := cfg.Schedule().Debounce()
//
// Paths are dot-separated and keys are camelCase, as in render.baseUrl or
// highlight.accentColor.
package config

// Package config loads the tunable constants that govern customization
// and query behavior — the knobs spec §9's design notes leave as open
// questions rather than hard-coded values (the PLF approximation
// threshold and tolerance, separator fork/join granularity, the
// dead-end DFS bound used by topocore, and whether the optional
// post-customization tightening pass runs at all).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Tuning holds every constant a deployment might reasonably want to
// override without a rebuild.
type Tuning struct {
	// Approximation controls how aggressively shortcut PLFs are
	// simplified during customization.
	Approximation struct {
		Threshold int     `toml:"threshold"` // breakpoints above which approximation kicks in
		Epsilon   float64 `toml:"epsilon"`   // max allowed pointwise deviation
	} `toml:"approximation"`

	// Customization controls the separator-tree fork/join pass.
	Customization struct {
		GranularityDivisor int  `toml:"granularity_divisor"` // cell size threshold = num_nodes / (divisor * num_threads)
		RunPostPass        bool `toml:"run_post_pass"`       // after the main pass, collapse sources and reset bounds of shortcuts marked not required
	} `toml:"customization"`

	// Query controls the topocore/CH-potentials query.
	Query struct {
		DeadEndDFSBound int `toml:"dead_end_dfs_bound"` // nodes explored before a dead-end chain gives up (spec §9)
	} `toml:"query"`

	// Period is the length of the time-dependent domain in seconds;
	// 86400 (one day) unless a deployment's input data says otherwise.
	Period float64 `toml:"period"`
}

// Default returns the tuning this module ships with out of the box.
func Default() Tuning {
	t := Tuning{Period: 86400}
	t.Approximation.Threshold = 64
	t.Approximation.Epsilon = 1.0
	t.Customization.GranularityDivisor = 32
	t.Customization.RunPostPass = true
	t.Query.DeadEndDFSBound = 100
	return t
}

// Load reads a Tuning from a TOML file at path, starting from Default()
// so a config file only needs to mention the fields it overrides.
func Load(path string) (Tuning, error) {
	t := Default()
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return Tuning{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return t, nil
}

// MustLoad is Load, panicking on error; meant for program start-up where
// a missing or malformed config file should stop the process immediately.
func MustLoad(path string) Tuning {
	t, err := Load(path)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadOrDefault loads path if it exists, and silently falls back to
// Default() when the file is simply absent (distinguished from a real
// read/parse error, which is still returned).
func LoadOrDefault(path string) (Tuning, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

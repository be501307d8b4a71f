// Package config is the engine's configuration loader, shaped the way
// the teacher's AuditConfig is: a struct with yaml tags, a sensible
// zero-config default, and environment-variable overrides applied on
// top of whatever a YAML file provided.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	engerrors "github.com/PaulM5406/pytest-diff/pkg/common/errors"
	"github.com/PaulM5406/pytest-diff/pkg/enginecache"
)

// EngineConfig holds everything the orchestrator needs to run: where the
// store lives, what project it's tracking, and how much it logs.
type EngineConfig struct {
	DatabasePath    string   `yaml:"database_path"`
	ProjectRoot     string   `yaml:"project_root"`
	ScopePaths      []string `yaml:"scope_paths"`
	SourceExtension string   `yaml:"source_extension"`
	CacheCapacity   int      `yaml:"cache_capacity"`
	Verbose         bool     `yaml:"verbose"`
	MaxParallelism  int      `yaml:"max_parallelism"`
}

// Default returns the engine's zero-config defaults.
func Default() EngineConfig {
	return EngineConfig{
		DatabasePath:    ".testdiff/testdiff.db",
		ProjectRoot:     ".",
		ScopePaths:      []string{"."},
		SourceExtension: ".py",
		CacheCapacity:   enginecache.DefaultCapacity,
		Verbose:         false,
		MaxParallelism:  0, // 0 means "let the orchestrator pick a default"
	}
}

// Load reads YAML configuration from path over Default()'s values, then
// applies environment-variable overrides (TESTDIFF_DB, TESTDIFF_PROJECT_ROOT,
// TESTDIFF_SCOPE_PATHS as a colon-separated list, TESTDIFF_VERBOSE,
// TESTDIFF_CACHE_CAPACITY), matching the override style of the audit
// logger's MAGE_X_AUDIT_* variables. A missing file at path is not an
// error — it simply means "use the defaults, plus env overrides".
func Load(path string) (EngineConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return EngineConfig{}, engerrors.IO(path, err, "reading config")
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return EngineConfig{}, engerrors.Parse(path, err, "parsing config")
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *EngineConfig) {
	if db := os.Getenv("TESTDIFF_DB"); db != "" {
		cfg.DatabasePath = db
	}
	if root := os.Getenv("TESTDIFF_PROJECT_ROOT"); root != "" {
		cfg.ProjectRoot = root
	}
	if scopes := os.Getenv("TESTDIFF_SCOPE_PATHS"); scopes != "" {
		cfg.ScopePaths = strings.Split(scopes, ":")
	}
	if verbose := os.Getenv("TESTDIFF_VERBOSE"); verbose != "" {
		if v, err := strconv.ParseBool(verbose); err == nil {
			cfg.Verbose = v
		}
	}
	if capacity := os.Getenv("TESTDIFF_CACHE_CAPACITY"); capacity != "" {
		if v, err := strconv.Atoi(capacity); err == nil && v > 0 {
			cfg.CacheCapacity = v
		}
	}
}

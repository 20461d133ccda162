package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

var validProviders = map[string]bool{
	"":           true,
	"openai":     true,
	"anthropic":  true,
	"openrouter": true,
	"deepseek":   true,
	"gemini":     true,
	"ollama":     true,
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var exampleKeys = map[string]bool{
	ExampleRoutes:      true,
	ExampleControllers: true,
	ExampleRepository:  true,
	ExampleDIConfig:    true,
	ExampleTypes:       true,
	ExampleE2ETests:    true,
	ExampleMigrations:  true,
}

var sharedKeys = []string{SharedAPIRoutes, SharedConstants, SharedDIConfig, SharedSeeds}

// Validate checks the config for errors and fills in derived defaults.
func Validate(cfg *Config) error {
	if cfg.Name == "" {
		cfg.Name = filepath.Base(cfg.ProjectRoot)
	}

	if cfg.Layout.ModulesDir == "" {
		return fmt.Errorf("config: 'layout.modules-dir' is required")
	}
	if cfg.Layout.MigrationsDir == "" {
		return fmt.Errorf("config: 'layout.migrations-dir' is required")
	}
	if cfg.Layout.SourceExt != "" && !strings.HasPrefix(cfg.Layout.SourceExt, ".") {
		cfg.Layout.SourceExt = "." + cfg.Layout.SourceExt
	}
	for _, k := range sharedKeys {
		if strings.TrimSpace(cfg.Layout.Shared[k]) == "" {
			return fmt.Errorf("config: 'layout.shared.%s' is required", k)
		}
	}
	for k := range cfg.Layout.Shared {
		if !isShared(k) {
			return fmt.Errorf("config: layout.shared: unknown key %q (want one of %s)", k, strings.Join(sharedKeys, ", "))
		}
	}

	if strings.TrimSpace(cfg.Commands.Compile) == "" {
		return fmt.Errorf("config: 'commands.compile' is required")
	}
	if strings.TrimSpace(cfg.Commands.Test) == "" {
		return fmt.Errorf("config: 'commands.test' is required")
	}
	if cfg.Commands.Timeout < 0 {
		return fmt.Errorf("config: 'commands.timeout' must be >= 0, got %d", cfg.Commands.Timeout)
	}

	// The first develop round counts toward regenerate; the repair phases
	// may be switched off with 0.
	for _, a := range []struct {
		name string
		n    int
		min  int
	}{
		{"regenerate", cfg.Attempts.Regenerate, 1},
		{"fix-code", cfg.Attempts.FixCode, 0},
		{"fix-tests", cfg.Attempts.FixTests, 0},
	} {
		if a.n < a.min {
			return fmt.Errorf("config: 'attempts.%s' must be >= %d, got %d", a.name, a.min, a.n)
		}
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if !validProviders[cfg.LLM.Provider] {
		return fmt.Errorf("config: llm.provider %q is not supported", cfg.LLM.Provider)
	}
	if cfg.LLM.MaxTokens <= 0 {
		return fmt.Errorf("config: 'llm.max-tokens' must be > 0, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("config: 'llm.temperature' must be between 0 and 2, got %g", cfg.LLM.Temperature)
	}
	if cfg.LLM.RetryMax < 0 {
		return fmt.Errorf("config: 'llm.retry-max' must be >= 0, got %d", cfg.LLM.RetryMax)
	}

	var unknown []string
	for k := range cfg.Examples.Files {
		if !exampleKeys[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("config: examples.files: unknown keys %s", strings.Join(unknown, ", "))
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("config: log level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	return nil
}

func isShared(k string) bool {
	for _, s := range sharedKeys {
		if s == k {
			return true
		}
	}
	return false
}

// SharedKeys returns the project-wide file keys in prompt order.
func SharedKeys() []string {
	out := make([]string, len(sharedKeys))
	copy(out, sharedKeys)
	return out
}

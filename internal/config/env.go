package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvMaxRegenerate = "MAX_REGENERATE_CODE_ATTEMPTS"
	EnvMaxFixCode    = "MAX_FIX_CODE_ATTEMPTS"
	EnvMaxFixTests   = "MAX_FIX_E2E_TESTS_ATTEMPTS"
	EnvLogLevel      = "LOG_LEVEL"
	EnvProvider      = "CODEGEN_PROVIDER"
)

// LoadDotEnv loads <projectRoot>/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(projectRoot string) error {
	path := filepath.Join(projectRoot, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	ceilings := []struct {
		name string
		dst  *int
	}{
		{EnvMaxRegenerate, &cfg.Attempts.Regenerate},
		{EnvMaxFixCode, &cfg.Attempts.FixCode},
		{EnvMaxFixTests, &cfg.Attempts.FixTests},
	}
	for _, c := range ceilings {
		raw := strings.TrimSpace(getenv(c.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %q is not an integer", c.name, raw)
		}
		*c.dst = n
	}
	if lvl := strings.TrimSpace(getenv(EnvLogLevel)); lvl != "" {
		cfg.Log.Level = strings.ToLower(lvl)
	}
	if p := strings.TrimSpace(getenv(EnvProvider)); p != "" {
		cfg.LLM.Provider = strings.ToLower(p)
	}
	return nil
}

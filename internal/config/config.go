package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Example source keys. Each maps to the {{<KEY>_EXAMPLE}} prompt placeholder.
const (
	ExampleRoutes      = "ROUTES"
	ExampleControllers = "CONTROLLERS"
	ExampleRepository  = "REPOSITORY"
	ExampleDIConfig    = "DI_CONFIG"
	ExampleTypes       = "TYPES"
	ExampleE2ETests    = "E2E_TESTS"
	ExampleMigrations  = "MIGRATIONS"
)

// Project-wide files shared by every module.
const (
	SharedAPIRoutes = "ALL_API_ROUTES"
	SharedConstants = "ALL_CONSTANTS"
	SharedDIConfig  = "ALL_DI_CONFIG"
	SharedSeeds     = "ALL_SEEDS"
)

// Layout describes where generated files land in the target project.
type Layout struct {
	ModulesDir    string            `yaml:"modules-dir"`
	MigrationsDir string            `yaml:"migrations-dir"`
	SourceExt     string            `yaml:"source-ext"`
	Shared        map[string]string `yaml:"shared"`
}

type Commands struct {
	Compile string `yaml:"compile"`
	Test    string `yaml:"test"`
	Timeout int    `yaml:"timeout"` // minutes, 0 disables
}

type Attempts struct {
	Regenerate int `yaml:"regenerate"`
	FixCode    int `yaml:"fix-code"`
	FixTests   int `yaml:"fix-tests"`
}

type LLM struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max-tokens"`
	Temperature float64 `yaml:"temperature"`
	RetryMax    int     `yaml:"retry-max"`
}

// Examples point at a reference module the prompts show the model.
// Services feed the generation prompt; RepairService feeds the repair prompts.
type Examples struct {
	Files         map[string]string `yaml:"files"`
	Services      []string          `yaml:"services"`
	RepairService string            `yaml:"repair-service"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Config struct {
	Name       string   `yaml:"name"`
	Layout     Layout   `yaml:"layout"`
	Commands   Commands `yaml:"commands"`
	Attempts   Attempts `yaml:"attempts"`
	LLM        LLM      `yaml:"llm"`
	Examples   Examples `yaml:"examples"`
	PromptsDir string   `yaml:"prompts-dir"`
	Log        Log      `yaml:"log"`
	Ledger     string   `yaml:"ledger"`

	ProjectRoot string `yaml:"-"`
}

// Path returns the config file location for a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, ".codegen", "config.yaml")
}

// Default returns the configuration used when a project has no config file.
// It targets the layout of the TypeScript todo boilerplate.
func Default(projectRoot string) *Config {
	const todos = "src/modules/todos/"
	return &Config{
		Name: filepath.Base(projectRoot),
		Layout: Layout{
			ModulesDir:    "src/modules",
			MigrationsDir: "src/infra/data/migrations",
			SourceExt:     ".ts",
			Shared: map[string]string{
				SharedAPIRoutes: "src/modules/apiRoutes.ts",
				SharedConstants: "src/common/constants.ts",
				SharedDIConfig:  "src/modules/diConfig.ts",
				SharedSeeds:     "src/infra/data/seeds/init.ts",
			},
		},
		Commands: Commands{
			Compile: "tsc -p .",
			Test:    "npm run local:test $TEST_FILE",
		},
		Attempts: Attempts{Regenerate: 4, FixCode: 4, FixTests: 4},
		LLM: LLM{
			MaxTokens:   8000,
			Temperature: 0.4,
			RetryMax:    5,
		},
		Examples: Examples{
			Files: map[string]string{
				ExampleRepository:  todos + "repository.ts",
				ExampleControllers: todos + "controllers.ts",
				ExampleRoutes:      todos + "routes.ts",
				ExampleTypes:       todos + "types.ts",
				ExampleDIConfig:    todos + "diConfig.ts",
				ExampleE2ETests:    todos + "tests/api.spec.ts",
				ExampleMigrations:  "src/infra/data/migrations/20200426153712_users_todos.ts",
			},
			Services: []string{
				todos + "getUserTodos.service.ts",
				todos + "getTodoById.service.ts",
				todos + "addTodo.service.ts",
				todos + "removeTodo.service.ts",
			},
			RepairService: todos + "updateTodo.service.ts",
		},
		Log: Log{
			Level: "info",
			File:  ".codegen/logs/codegen.log",
		},
		Ledger:      ".codegen/history.db",
		ProjectRoot: projectRoot,
	}
}

// Load reads the optional config file at path over the defaults, applies
// environment overrides and validates the result.
func Load(path, projectRoot string, getenv func(string) string) (*Config, error) {
	cfg := Default(projectRoot)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ProjectRoot = projectRoot
	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Abs resolves a project-relative path against the project root.
func (c *Config) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.ProjectRoot, filepath.FromSlash(rel))
}

// ArtifactsRoot holds one artifacts directory per module.
func (c *Config) ArtifactsRoot() string {
	return filepath.Join(c.ProjectRoot, ".codegen", "artifacts")
}

// ArtifactsDir returns the artifacts directory for a module.
func (c *Config) ArtifactsDir(module string) string {
	return filepath.Join(c.ArtifactsRoot(), module)
}

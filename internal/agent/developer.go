package agent

import (
	"context"
	"slices"
	"strings"

	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/prompt"
	"github.com/jorge-barreto/codegen/internal/sections"
)

// Developer generates the whole module.
type Developer struct {
	base
	missing []string
}

func NewDeveloper(d Deps) (*Developer, error) {
	b, err := newBase("developer", prompt.Developer, d)
	if err != nil {
		return nil, err
	}
	return &Developer{base: b}, nil
}

// SetMissingFiles narrows the next round to the given buckets.
func (a *Developer) SetMissingFiles(missing []string) {
	a.missing = slices.Clone(missing)
}

func (a *Developer) Execute(ctx context.Context) sections.FileSet {
	mappings, ok := a.load(ctx, map[string]string{
		"ROUTES_EXAMPLE":      a.example(config.ExampleRoutes),
		"CONTROLLERS_EXAMPLE": a.example(config.ExampleControllers),
		"REPOSITORY_EXAMPLE":  a.example(config.ExampleRepository),
		"DI_CONFIG_EXAMPLE":   a.example(config.ExampleDIConfig),
		"TYPES_EXAMPLE":       a.example(config.ExampleTypes),
		"E2E_TESTS_EXAMPLE":   a.example(config.ExampleE2ETests),
		"MIGRATIONS_EXAMPLE":  a.example(config.ExampleMigrations),
		"ALL_API_ROUTES":      a.shared(config.SharedAPIRoutes),
		"ALL_CONSTANTS":       a.shared(config.SharedConstants),
		"ALL_DI_CONFIG":       a.shared(config.SharedDIConfig),
		"ALL_SEEDS":           a.shared(config.SharedSeeds),
	})
	if !ok {
		return sections.NewFileSet()
	}
	mappings["SERVICES_EXAMPLE"] = a.serviceBlocks(a.deps.Config.Examples.Services)
	mappings["MISSING_FILES_INSTRUCTION"] = MissingFilesInstruction(a.missing)
	return a.run(ctx, mappings)
}

// MissingFilesInstruction is the hint appended to a regeneration prompt.
func MissingFilesInstruction(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	return "- !IMPORTANT GENERATE only next missing files: " + strings.Join(missing, ",")
}

package agent

import (
	"context"
	"slices"

	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/prompt"
	"github.com/jorge-barreto/codegen/internal/sections"
)

// TestsFixer repairs failing end-to-end tests.
type TestsFixer struct {
	base
	errorText string
	services  []string
	migration string
}

func NewTestsFixer(d Deps) (*TestsFixer, error) {
	b, err := newBase("testsfixer", prompt.TestsFixer, d)
	if err != nil {
		return nil, err
	}
	return &TestsFixer{base: b}, nil
}

func (a *TestsFixer) SetErrorText(text string) { a.errorText = text }

func (a *TestsFixer) SetGeneratedServices(paths []string) {
	a.services = slices.Clone(paths)
}

// SetMigrationPath points the prompt at the current migration file.
func (a *TestsFixer) SetMigrationPath(path string) { a.migration = path }

func (a *TestsFixer) Execute(ctx context.Context) sections.FileSet {
	r := a.deps.Router
	a.logger.Info("testsfixer:preparePrompt", "services", a.services, "migration", a.migration)
	mappings, ok := a.load(ctx, map[string]string{
		"MODULE_ROUTES":      r.ModulePath(sections.KindRoutes),
		"MODULE_CONTROLLERS": r.ModulePath(sections.KindControllers),
		"MODULE_REPOSITORY":  r.ModulePath(sections.KindRepository),
		"MODULE_MIGRATIONS":  a.migration,
		"SERVICES_EXAMPLE":   a.deps.Config.Examples.RepairService,
		"ALL_SEEDS":          a.shared(config.SharedSeeds),
		"example_e2e":        a.example(config.ExampleE2ETests),
		"module_e2e":         r.ModulePath(sections.KindE2ETests),
	})
	if !ok {
		return sections.NewFileSet()
	}
	mappings["MODULE_E2E_TESTS"] = "EXAMPLE E2E_TESTS:\r\n" + mappings["example_e2e"] +
		"\r\n\nGENERATED E2E_TESTS:\r\n" + mappings["module_e2e"]
	delete(mappings, "example_e2e")
	delete(mappings, "module_e2e")
	mappings["MODULE_SERVICES"] = a.serviceBlocks(a.services)
	mappings["ERROR_TEXT"] = a.errorText
	return a.run(ctx, mappings)
}

package agent

import (
	"context"
	"slices"

	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/prompt"
	"github.com/jorge-barreto/codegen/internal/sections"
)

// Troubleshooter repairs compile errors and files that were never generated.
type Troubleshooter struct {
	base
	errorText string
	services  []string
}

func NewTroubleshooter(d Deps) (*Troubleshooter, error) {
	b, err := newBase("troubleshooter", prompt.Troubleshooter, d)
	if err != nil {
		return nil, err
	}
	return &Troubleshooter{base: b}, nil
}

func (a *Troubleshooter) SetErrorText(text string) { a.errorText = text }

// SetGeneratedServices sets the service files quoted back to the model.
func (a *Troubleshooter) SetGeneratedServices(paths []string) {
	a.services = slices.Clone(paths)
}

func (a *Troubleshooter) Execute(ctx context.Context) sections.FileSet {
	r := a.deps.Router
	mappings, ok := a.load(ctx, map[string]string{
		"MODULE_ROUTES":      r.ModulePath(sections.KindRoutes),
		"MODULE_CONTROLLERS": r.ModulePath(sections.KindControllers),
		"MODULE_REPOSITORY":  r.ModulePath(sections.KindRepository),
		"MODULE_TYPES":       r.ModulePath(sections.KindTypes),
		"MODULE_E2E_TESTS":   r.ModulePath(sections.KindE2ETests),
		"SERVICES_EXAMPLE":   a.deps.Config.Examples.RepairService,
		"DI_CONFIG_EXAMPLE":  a.example(config.ExampleDIConfig),
		"ALL_API_ROUTES":     a.shared(config.SharedAPIRoutes),
		"ALL_CONSTANTS":      a.shared(config.SharedConstants),
		"ALL_DI_CONFIG":      a.shared(config.SharedDIConfig),
	})
	if !ok {
		return sections.NewFileSet()
	}
	mappings["MODULE_SERVICES"] = a.serviceBlocks(a.services)
	mappings["ERROR_TEXT"] = a.errorText
	return a.run(ctx, mappings)
}

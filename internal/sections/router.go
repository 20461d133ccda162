package sections

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jorge-barreto/codegen/internal/naming"
)

// MigrationTimeFormat is the UTC, second-precision prefix of migration file names.
const MigrationTimeFormat = "20060102150405"

// Layout locates generated files inside the target project.
type Layout struct {
	Root          string
	ModulesDir    string
	MigrationsDir string
	Ext           string
	Shared        map[string]string // bucket -> project-relative path
}

// Router resolves section kinds to absolute file paths for one module.
type Router struct {
	layout Layout
	module string
	now    func() time.Time
}

func NewRouter(layout Layout, module string) *Router {
	return &Router{layout: layout, module: module, now: time.Now}
}

// WithClock replaces the clock used for migration timestamps.
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

func (r *Router) Module() string { return r.module }

// Root returns the project root.
func (r *Router) Root() string { return r.layout.Root }

// ModuleDir is the directory holding the module's own files.
func (r *Router) ModuleDir() string {
	return filepath.Join(r.layout.Root, filepath.FromSlash(r.layout.ModulesDir), r.module)
}

func (r *Router) moduleFile(name string) string {
	return filepath.Join(r.ModuleDir(), name+r.layout.Ext)
}

func (r *Router) shared(bucket string) ([]string, error) {
	rel, ok := r.layout.Shared[bucket]
	if !ok || rel == "" {
		return nil, fmt.Errorf("no project path configured for %s", bucket)
	}
	if filepath.IsAbs(rel) {
		return []string{rel}, nil
	}
	return []string{filepath.Join(r.layout.Root, filepath.FromSlash(rel))}, nil
}

// Resolve maps a section to the file paths it is written to.
func (r *Router) Resolve(kind Kind, className string) ([]string, error) {
	switch kind {
	case KindRoutes:
		return []string{r.moduleFile("routes")}, nil
	case KindControllers:
		return []string{r.moduleFile("controllers")}, nil
	case KindRepository:
		return []string{r.moduleFile("repository")}, nil
	case KindService:
		name := "get" + naming.Capitalize(r.module) + ".service"
		if className != "" {
			name = naming.LowerFirst(className) + ".service"
		}
		return []string{r.moduleFile(name)}, nil
	case KindDIConfig:
		return []string{r.moduleFile("diConfig")}, nil
	case KindTypes:
		return []string{r.moduleFile("types")}, nil
	case KindE2ETests:
		return []string{filepath.Join(r.ModuleDir(), "tests", "api.spec"+r.layout.Ext)}, nil
	case KindMigrations:
		ts := r.now().UTC().Format(MigrationTimeFormat)
		name := fmt.Sprintf("%s_create_%s_table%s", ts, r.module, r.layout.Ext)
		return []string{filepath.Join(r.layout.Root, filepath.FromSlash(r.layout.MigrationsDir), name)}, nil
	case KindAllAPIRoutes, KindAllConstants, KindAllDIConfig, KindAllSeeds:
		return r.shared(kind.Bucket())
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSection, kind)
}

// ModulePath returns the single path of a fixed-name module file, used to
// feed the current module sources back into repair prompts.
func (r *Router) ModulePath(kind Kind) string {
	if kind == KindService || kind == KindMigrations {
		return ""
	}
	paths, err := r.Resolve(kind, "")
	if err != nil || len(paths) == 0 {
		return ""
	}
	return paths[0]
}

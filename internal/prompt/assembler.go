// Package prompt loads prompt templates and the source files they quote,
// and fills {{KEY}} placeholders.
package prompt

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.prompt
var embedded embed.FS

// Template names.
const (
	Developer      = "developer.main.prompt"
	Troubleshooter = "troubleshooter.main.prompt"
	TestsFixer     = "testsFixer.main.prompt"
)

// Names lists the built-in templates.
func Names() []string {
	return []string{Developer, Troubleshooter, TestsFixer}
}

// Default returns the built-in text of a template.
func Default(name string) ([]byte, error) {
	return embedded.ReadFile("templates/" + name)
}

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Assembler builds prompts for one project.
type Assembler struct {
	root        string
	overrideDir string
	logger      *slog.Logger
}

// New returns an Assembler resolving relative source paths against root.
// Templates found in overrideDir replace the built-in ones.
func New(root, overrideDir string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{root: root, overrideDir: overrideDir, logger: logger}
}

func (a *Assembler) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.root, filepath.FromSlash(path))
}

// ReadSource returns the content of a source file, or "" when it cannot be
// read. The failure is logged.
func (a *Assembler) ReadSource(key, path string) string {
	if path == "" {
		a.logger.Warn("prompt:loadSource:no path", "placeholder", key)
		return ""
	}
	data, err := os.ReadFile(a.abs(path))
	if err != nil {
		a.logger.Error("prompt:loadSource:error", "placeholder", key, "file", a.abs(path), "error", err)
		return ""
	}
	return string(data)
}

// Load reads every source concurrently and returns placeholder -> content.
// Only context cancellation is returned as an error.
func (a *Assembler) Load(ctx context.Context, sources map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(sources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for key, path := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content := a.ReadSource(key, path)
			mu.Lock()
			out[key] = content
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Template returns the text of a named template, preferring the override
// directory.
func (a *Assembler) Template(name string) (string, error) {
	if a.overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(a.abs(a.overrideDir), name))
		switch {
		case err == nil:
			return string(data), nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("reading template %s: %w", name, err)
		}
	}
	data, err := Default(name)
	if err != nil {
		return "", fmt.Errorf("unknown template %s: %w", name, err)
	}
	return string(data), nil
}

// Render loads a template and substitutes mappings into it.
func (a *Assembler) Render(name string, mappings map[string]string) (string, error) {
	tmpl, err := a.Template(name)
	if err != nil {
		return "", err
	}
	out := Substitute(tmpl, mappings)
	var unfilled []string
	for _, key := range Placeholders(tmpl) {
		if _, ok := mappings[key]; !ok {
			unfilled = append(unfilled, key)
		}
	}
	if len(unfilled) > 0 {
		a.logger.Debug("prompt:render:unfilled", "template", name, "placeholders", unfilled)
	}
	a.logger.Info("prompt:render", "template", name, "characters", len(out))
	return out, nil
}

// Substitute replaces every {{KEY}} with mappings[KEY] in a single pass.
// Replacement text is not scanned again, and unknown keys are left as is.
func Substitute(tmpl string, mappings map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := mappings[m[2:len(m)-2]]; ok {
			return v
		}
		return m
	})
}

// Placeholders returns the distinct placeholder keys of tmpl, sorted.
func Placeholders(tmpl string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	sort.Strings(keys)
	return keys
}

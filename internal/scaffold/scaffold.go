// Package scaffold writes a starter .codegen/ directory into a project.
package scaffold

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/prompt"
	"github.com/jorge-barreto/codegen/internal/ux"
)

const promptsDir = ".codegen/prompts"

const configHeader = `# codegen configuration. Every key is optional; omitted keys keep their defaults.
# Environment variables override: MAX_REGENERATE_CODE_ATTEMPTS, MAX_FIX_CODE_ATTEMPTS,
# MAX_FIX_E2E_TESTS_ATTEMPTS, LOG_LEVEL, CODEGEN_PROVIDER. Run 'codegen docs config' for details.

`

const envExample = `# Provider keys. The first one set wins unless llm.provider or CODEGEN_PROVIDER forces one.
OPENAI_API_KEY=
OPENAI_MODEL_ID=gpt-4o-mini
CLAUDE_API_KEY=
ANTHROPIC_CLAUDE_MODEL_ID=claude-3-5-haiku-20241022
OPEN_ROUTER_API_KEY=
DEEP_SEEK_API_KEY=
GEMINI_API_KEY=
OLLAMA_HOST=
`

const gitignore = `artifacts/
logs/
history.db*
`

// Init creates .codegen/ in targetDir with the default config, editable
// copies of the built-in prompt templates and an example .env.
func Init(targetDir string, out io.Writer) error {
	if out == nil {
		out = ux.Out
	}
	codegenDir := filepath.Join(targetDir, ".codegen")
	if _, err := os.Stat(codegenDir); err == nil {
		return fmt.Errorf(".codegen directory already exists in %s", targetDir)
	}

	files, err := starterFiles(targetDir)
	if err != nil {
		return err
	}

	var written []string
	for _, f := range files {
		fullPath := filepath.Join(targetDir, filepath.FromSlash(f.path))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", f.path, err)
		}
		if err := os.WriteFile(fullPath, f.content, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
		written = append(written, f.path)
	}

	fmt.Fprintf(out, "\n%s%s✓ Initialized .codegen/ directory%s\n\n", ux.Bold, ux.Green, ux.Reset)
	fmt.Fprintf(out, "  Created:\n")
	for _, p := range written {
		fmt.Fprintf(out, "    %s%s%s\n", ux.Cyan, p, ux.Reset)
	}
	fmt.Fprintf(out, "\n  Next steps:\n")
	fmt.Fprintf(out, "    1. Point %sexamples%s in .codegen/config.yaml at a finished module of your project\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(out, "    2. Copy .codegen/.env.example to %s.env%s and set one provider key\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(out, "    3. Run %scodegen run --module <name>%s\n\n", ux.Cyan, ux.Reset)
	return nil
}

type starterFile struct {
	path    string // project-relative, slash separated
	content []byte
}

func starterFiles(targetDir string) ([]starterFile, error) {
	cfg := config.Default(targetDir)
	cfg.PromptsDir = promptsDir
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	files := []starterFile{
		{".codegen/config.yaml", append([]byte(configHeader), data...)},
		{".codegen/.env.example", []byte(envExample)},
		{".codegen/.gitignore", []byte(gitignore)},
	}
	for _, name := range prompt.Names() {
		tmpl, err := prompt.Default(name)
		if err != nil {
			return nil, err
		}
		files = append(files, starterFile{path.Join(promptsDir, name), tmpl})
	}
	return files, nil
}

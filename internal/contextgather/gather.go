// Package contextgather collects the parts of a target project that help
// explain a failed generation run: the module's directory, the files the
// run produced and the uncommitted changes around them.
package contextgather

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

const (
	maxFileSize = 32 * 1024 // 32KB per file
	maxDepth    = 3
)

// skipDirs are directories excluded from the tree listing.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"coverage":     true,
	".codegen":     true,
}

// wellKnownFiles describe how the target project compiles and tests.
var wellKnownFiles = []string{
	"package.json",
	"tsconfig.json",
	".codegen/config.yaml",
}

// ProjectContext holds gathered project information.
type ProjectContext struct {
	DirTree   string            // module directory, a few levels deep
	Files     map[string]string // project-relative path -> contents
	GitStatus string            // git status --short for the module
}

// Gather reads moduleDir and the given files, all relative to projectRoot.
// Unreadable entries are skipped.
func Gather(projectRoot, moduleDir string, files []string) (*ProjectContext, error) {
	if _, err := os.Stat(projectRoot); err != nil {
		return nil, fmt.Errorf("reading project root: %w", err)
	}
	pc := &ProjectContext{
		Files: make(map[string]string),
	}
	if moduleDir != "" {
		var buf strings.Builder
		buf.WriteString(filepath.ToSlash(moduleDir) + "/\n")
		buildTree(&buf, filepath.Join(projectRoot, moduleDir), 1)
		pc.DirTree = buf.String()
	}
	for _, rel := range append(append([]string{}, wellKnownFiles...), files...) {
		if content, ok := readFile(filepath.Join(projectRoot, filepath.FromSlash(rel))); ok {
			pc.Files[filepath.ToSlash(rel)] = content
		}
	}
	pc.GitStatus = gatherGitStatus(projectRoot, moduleDir)
	return pc, nil
}

// Render formats the context as a prompt section.
func (pc *ProjectContext) Render() string {
	var buf strings.Builder

	if pc.DirTree != "" {
		buf.WriteString("## Module Directory\n\n```\n")
		buf.WriteString(pc.DirTree)
		buf.WriteString("```\n")
	}

	if len(pc.Files) > 0 {
		buf.WriteString("\n## Files\n")

		paths := make([]string, 0, len(pc.Files))
		for p := range pc.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			fmt.Fprintf(&buf, "\n### %s\n\n```\n%s\n```\n", p, pc.Files[p])
		}
	}

	if pc.GitStatus != "" {
		buf.WriteString("\n## Uncommitted Changes\n\n```\n")
		buf.WriteString(pc.GitStatus)
		buf.WriteString("\n```\n")
	}

	return buf.String()
}

func buildTree(buf *strings.Builder, dir string, depth int) {
	if depth > maxDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		buf.WriteString("  (unable to read directory)\n")
		return
	}
	indent := strings.Repeat("  ", depth)
	for _, e := range entries {
		if skipDirs[e.Name()] {
			continue
		}
		if e.IsDir() {
			buf.WriteString(indent + e.Name() + "/\n")
			buildTree(buf, filepath.Join(dir, e.Name()), depth+1)
		} else {
			buf.WriteString(indent + e.Name() + "\n")
		}
	}
}

func readFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	content := string(data)
	if len(content) > maxFileSize {
		content = content[:maxFileSize] + "\n... (truncated)"
	}
	return content, true
}

func gatherGitStatus(root, moduleDir string) string {
	args := []string{"status", "--short"}
	if moduleDir != "" {
		args = append(args, "--", moduleDir)
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

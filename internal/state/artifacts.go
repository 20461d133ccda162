package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// EnsureDir creates the artifacts directory structure.
func EnsureDir(artifactsDir string) error {
	dirs := []string{
		artifactsDir,
		filepath.Join(artifactsDir, "prompts"),
		filepath.Join(artifactsDir, "logs"),
		filepath.Join(artifactsDir, "feedback"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating artifacts dir %s: %w", d, err)
		}
	}
	return nil
}

// ResetRun clears the per-run files a previous run left in artifactsDir
// (prompts, logs, feedback and timing) and recreates the directory
// structure. state.json and metrics.prom are overwritten by every run.
func ResetRun(artifactsDir string) error {
	stale := []string{
		filepath.Join(artifactsDir, "prompts"),
		filepath.Join(artifactsDir, "logs"),
		filepath.Join(artifactsDir, "feedback"),
		timingPath(artifactsDir),
	}
	for _, p := range stale {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("clearing %s: %w", p, err)
		}
	}
	return EnsureDir(artifactsDir)
}

// WriteFeedback stores the error text handed to a repair agent.
func WriteFeedback(artifactsDir, phase string, attempt int, content string) error {
	path := filepath.Join(artifactsDir, "feedback", fmt.Sprintf("%s-%d.md", phase, attempt))
	return os.WriteFile(path, []byte(content), 0644)
}

// PromptPath returns the path for a rendered prompt of the given agent round.
func PromptPath(artifactsDir, agent string, round int) string {
	return filepath.Join(artifactsDir, "prompts", fmt.Sprintf("%s-%d.md", agent, round))
}

// LogPath returns the path for a process log ("compile" or "tests").
func LogPath(artifactsDir, kind string, n int) string {
	return filepath.Join(artifactsDir, "logs", fmt.Sprintf("%s-%d.log", kind, n))
}

// MetricsPath returns the Prometheus textfile written at the end of a run.
func MetricsPath(artifactsDir string) string {
	return filepath.Join(artifactsDir, "metrics.prom")
}

// LatestFile returns the lexically last file in sub whose name starts with
// prefix, or "" when there is none.
func LatestFile(artifactsDir, sub, prefix string) string {
	entries, err := os.ReadDir(filepath.Join(artifactsDir, sub))
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || len(e.Name()) < len(prefix) || e.Name()[:len(prefix)] != prefix {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return ""
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})
	return filepath.Join(artifactsDir, sub, names[len(names)-1])
}

// LatestModule returns the module whose state.json under artifactsRoot was
// written last, or "" when no run has been recorded.
func LatestModule(artifactsRoot string) (string, error) {
	entries, err := os.ReadDir(artifactsRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	var (
		latest string
		newest time.Time
	)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := os.Stat(statePath(filepath.Join(artifactsRoot, e.Name())))
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(newest) {
			latest, newest = e.Name(), info.ModTime()
		}
	}
	return latest, nil
}

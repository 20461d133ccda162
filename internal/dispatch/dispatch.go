// Package dispatch runs the target project's compiler and test suite as
// child processes and reports their outcome as data.
package dispatch

import (
	"os"
	"strings"
)

// Environment holds the execution context for child processes.
type Environment struct {
	ProjectRoot  string
	ArtifactsDir string
	Module       string
	RunID        string
	filteredEnv  []string // lazily populated base env (os.Environ minus CODEGEN_)
}

// Clone returns a copy of the Environment.
func (e *Environment) Clone() *Environment {
	cp := *e
	if e.filteredEnv != nil {
		cp.filteredEnv = make([]string, len(e.filteredEnv))
		copy(cp.filteredEnv, e.filteredEnv)
	}
	return &cp
}

// Vars returns the variables available to command templates.
func (e *Environment) Vars() map[string]string {
	return map[string]string{
		"MODULE":        e.Module,
		"RUN_ID":        e.RunID,
		"ARTIFACTS_DIR": e.ArtifactsDir,
		"PROJECT_ROOT":  e.ProjectRoot,
	}
}

// Result holds the outcome of a process run. A non-zero exit is a result,
// not an error.
type Result struct {
	Success  bool
	ExitCode int
	Output   string // combined stdout and stderr
}

// BuildEnv returns the environment variables for child processes.
// It inherits the current environment, replacing any CODEGEN_ variables.
// The base environment is snapshotted once per Environment and reused across calls.
func BuildEnv(env *Environment) []string {
	if env.filteredEnv == nil {
		for _, e := range os.Environ() {
			key := strings.SplitN(e, "=", 2)[0]
			if strings.HasPrefix(key, "CODEGEN_") {
				continue
			}
			env.filteredEnv = append(env.filteredEnv, e)
		}
	}
	result := make([]string, len(env.filteredEnv), len(env.filteredEnv)+4)
	copy(result, env.filteredEnv)
	result = append(result,
		"CODEGEN_MODULE="+env.Module,
		"CODEGEN_RUN_ID="+env.RunID,
		"CODEGEN_ARTIFACTS_DIR="+env.ArtifactsDir,
		"CODEGEN_PROJECT_ROOT="+env.ProjectRoot,
	)
	return result
}

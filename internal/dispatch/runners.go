package dispatch

import (
	"context"
	"io"
	"time"

	"github.com/jorge-barreto/codegen/internal/state"
)

// Compiler type-checks the project.
type Compiler struct {
	Command string
	Env     *Environment
	Timeout time.Duration
	Echo    io.Writer
	runs    int
}

// Compile runs the compile command. Each run is logged to logs/compile-<n>.log.
func (c *Compiler) Compile(ctx context.Context) (*Result, error) {
	c.runs++
	return RunCommand(ctx, Command{
		Run:     c.Command,
		LogPath: logPath(c.Env, "compile", c.runs),
		Timeout: c.Timeout,
		Echo:    c.Echo,
	}, c.Env)
}

// TestRunner runs the end-to-end suite for one test file.
type TestRunner struct {
	Command string // may reference $TEST_FILE
	Env     *Environment
	Timeout time.Duration
	Echo    io.Writer
	runs    int
}

// RunTests runs the test command with $TEST_FILE set to file.
func (t *TestRunner) RunTests(ctx context.Context, file string) (*Result, error) {
	t.runs++
	return RunCommand(ctx, Command{
		Run:     t.Command,
		Vars:    map[string]string{"TEST_FILE": file},
		LogPath: logPath(t.Env, "tests", t.runs),
		Timeout: t.Timeout,
		Echo:    t.Echo,
	}, t.Env)
}

func logPath(env *Environment, kind string, n int) string {
	if env.ArtifactsDir == "" {
		return ""
	}
	return state.LogPath(env.ArtifactsDir, kind, n)
}

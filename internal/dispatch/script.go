package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Command is one shell invocation in the project root.
type Command struct {
	Run     string            // shell text, $VARS expanded before execution
	Vars    map[string]string // extra variables on top of Environment.Vars
	LogPath string            // combined output is also written here when set
	Timeout time.Duration
	Echo    io.Writer // live copy of the output, nil for none
}

// RunCommand executes cmd via bash in the project root. The error is non-nil
// only when the process could not be run at all.
func RunCommand(ctx context.Context, cmd Command, env *Environment) (*Result, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	vars := env.Vars()
	for k, v := range cmd.Vars {
		vars[k] = v
	}
	expanded := ExpandVars(cmd.Run, vars)

	c := exec.CommandContext(ctx, "bash", "-c", expanded)
	c.Dir = env.ProjectRoot
	c.Env = BuildEnv(env)
	// Grandchildren holding the output pipe must not outlive a kill.
	c.WaitDelay = 2 * time.Second

	var captured bytes.Buffer
	writers := []io.Writer{&captured}
	if cmd.LogPath != "" {
		logFile, err := os.Create(cmd.LogPath)
		if err != nil {
			return nil, err
		}
		defer logFile.Close()
		writers = append(writers, logFile)
	}
	if cmd.Echo != nil {
		writers = append(writers, cmd.Echo)
	}
	out := io.MultiWriter(writers...)
	c.Stdout = out
	c.Stderr = out

	return commandResult(ctx, c.Run(), cmd.Timeout, captured.String())
}

// commandResult turns the error of a finished command into a Result. Non-zero
// exits and timeouts are failed results the repair agents can read; only a
// command that never ran is an error.
func commandResult(ctx context.Context, runErr error, timeout time.Duration, output string) (*Result, error) {
	if runErr == nil {
		return &Result{Success: true, Output: output}, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return nil, runErr
	}
	res := &Result{ExitCode: exitErr.ExitCode(), Output: output}
	if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1
		res.Output += fmt.Sprintf("\ncommand timed out after %s\n", timeout)
	}
	return res, nil
}

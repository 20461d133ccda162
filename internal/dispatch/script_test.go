package dispatch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jorge-barreto/codegen/internal/state"
)

func scriptEnv(t *testing.T) *Environment {
	t.Helper()
	artDir := filepath.Join(t.TempDir(), "artifacts")
	if err := state.EnsureDir(artDir); err != nil {
		t.Fatal(err)
	}
	return &Environment{
		ProjectRoot:  t.TempDir(),
		ArtifactsDir: artDir,
		Module:       "books",
		RunID:        "run-1",
	}
}

func TestRunCommand_Success(t *testing.T) {
	env := scriptEnv(t)
	result, err := RunCommand(context.Background(), Command{Run: "echo hello"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.ExitCode != 0 {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(result.Output, "hello") {
		t.Fatalf("output = %q", result.Output)
	}
}

func TestRunCommand_Failure(t *testing.T) {
	env := scriptEnv(t)
	result, err := RunCommand(context.Background(), Command{Run: "echo broken; exit 2"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if result.Success || result.ExitCode != 2 {
		t.Fatalf("result = %+v, want failure with code 2", result)
	}
	if !strings.Contains(result.Output, "broken") {
		t.Fatalf("output = %q", result.Output)
	}
}

func TestRunCommand_Stderr(t *testing.T) {
	env := scriptEnv(t)
	result, err := RunCommand(context.Background(), Command{Run: "echo err >&2"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Output, "err") {
		t.Fatalf("output = %q, expected stderr captured", result.Output)
	}
}

func TestRunCommand_VarsAndEnv(t *testing.T) {
	env := scriptEnv(t)
	result, err := RunCommand(context.Background(), Command{
		Run:  `echo $MODULE $TEST_FILE; printenv CODEGEN_RUN_ID; pwd`,
		Vars: map[string]string{"TEST_FILE": "a.spec.ts"},
	}, env)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"books", "a.spec.ts", "run-1", env.ProjectRoot} {
		if !strings.Contains(result.Output, want) {
			t.Errorf("output = %q, missing %q", result.Output, want)
		}
	}
}

func TestRunCommand_LogAndEcho(t *testing.T) {
	env := scriptEnv(t)
	var echo bytes.Buffer
	logPath := state.LogPath(env.ArtifactsDir, "compile", 1)
	_, err := RunCommand(context.Background(), Command{Run: "echo logged-output", LogPath: logPath, Echo: &echo}, env)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "logged-output") {
		t.Fatalf("log = %q", string(data))
	}
	if !strings.Contains(echo.String(), "logged-output") {
		t.Fatalf("echo = %q", echo.String())
	}
}

func TestRunCommand_Timeout(t *testing.T) {
	env := scriptEnv(t)
	result, err := RunCommand(context.Background(), Command{
		Run:     "echo started; exec sleep 5",
		Timeout: 200 * time.Millisecond,
	}, env)
	if err != nil {
		t.Fatal(err)
	}
	if result.Success || result.ExitCode != -1 {
		t.Fatalf("result = %+v, want timed out failure", result)
	}
	if !strings.Contains(result.Output, "started") || !strings.Contains(result.Output, "timed out after 200ms") {
		t.Fatalf("output = %q", result.Output)
	}
}

func TestCommandResult(t *testing.T) {
	ctx := context.Background()

	res, err := commandResult(ctx, nil, 0, "ok")
	if err != nil || !res.Success || res.ExitCode != 0 || res.Output != "ok" {
		t.Fatalf("nil error: res=%+v err=%v", res, err)
	}

	notRun := errors.New("bash: not found")
	if _, err := commandResult(ctx, notRun, 0, ""); !errors.Is(err, notRun) {
		t.Fatalf("start failure should be returned, got %v", err)
	}

	exitErr := exec.Command("bash", "-c", "exit 42").Run()
	res, err = commandResult(ctx, exitErr, time.Minute, "TS2304")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.ExitCode != 42 || res.Output != "TS2304" {
		t.Fatalf("exit 42: %+v", res)
	}
}

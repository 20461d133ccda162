package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/contextgather"
	"github.com/jorge-barreto/codegen/internal/llm"
	"github.com/jorge-barreto/codegen/internal/state"
	"github.com/jorge-barreto/codegen/internal/ux"
)

const maxLogLines = 200

const diagPrompt = `You are diagnosing a failed code generation run. An LLM generated the files of a new API module for the project below, then the project's compiler and end-to-end tests were run against them. Analyze the context below and provide a concise diagnosis.

## Run
%s

## Compiler Output (last %d lines)
%s

## Test Output (last %d lines)
%s
%s%s
%s
Instructions:
1. Identify what went wrong from the compiler and test output.
2. Classify this as a GENERATION problem (the model produced wrong or incomplete files), a PROMPT problem (examples or templates mislead the model) or a PROJECT problem (config, commands, environment).
3. Suggest specific fixes to the generated files or to .codegen/config.yaml.
4. Recommend the next step:
   - codegen run --module <name>  (generate again)
   - edit the files listed above by hand and re-run the project's tests

Be direct and concise. Focus on actionable advice.`

// Input is everything a diagnosis needs.
type Input struct {
	Config       *config.Config
	State        *state.State
	ArtifactsDir string
	Client       llm.Client
	Out          io.Writer // defaults to ux.Out
}

// Failed reports whether st ended in a status worth diagnosing.
func Failed(st *state.State) bool {
	if st == nil {
		return false
	}
	switch st.Status {
	case state.StatusCompileFailed, state.StatusTestsFailing, state.StatusInterrupted:
		return true
	}
	return false
}

// Run gathers failure context from the artifacts and the generated files and
// asks the configured model for a diagnosis.
func Run(ctx context.Context, in Input) error {
	out := in.Out
	if out == nil {
		out = ux.Out
	}
	if !Failed(in.State) {
		fmt.Fprintln(out, "No failed run to diagnose.")
		return nil
	}
	if in.Client == nil {
		return llm.ErrNoProvider
	}

	diagText, err := BuildPrompt(in)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s%s══ Doctor: diagnosing %s (%s at %s) ══%s\n\n",
		ux.Bold, ux.Cyan, in.State.Module, in.State.Status, in.State.Phase, ux.Reset)

	resp, err := in.Client.Complete(ctx, llm.Request{
		Prompt:      diagText,
		MaxTokens:   in.Config.LLM.MaxTokens,
		Temperature: in.Config.LLM.Temperature,
	})
	if err != nil {
		return fmt.Errorf("diagnosis request failed: %w", err)
	}
	fmt.Fprintln(out, strings.TrimSpace(resp.Content))
	fmt.Fprintln(out)
	return nil
}

// BuildPrompt renders the diagnostic prompt for a failed run.
func BuildPrompt(in Input) (string, error) {
	st := in.State
	moduleDir := path.Join(in.Config.Layout.ModulesDir, st.Module)
	pc, err := contextgather.Gather(in.Config.ProjectRoot, moduleDir, st.GeneratedFiles)
	if err != nil {
		return "", err
	}

	compileLog := gatherLog(state.LatestFile(in.ArtifactsDir, "logs", "compile-"))
	testLog := gatherLog(state.LatestFile(in.ArtifactsDir, "logs", "tests-"))
	feedback := gatherFeedback(in.ArtifactsDir)
	timing := gatherTiming(in.ArtifactsDir)

	var feedbackSection, timingSection string
	if feedback != "" {
		feedbackSection = fmt.Sprintf("\n## Last Error Text Sent To The Model\n%s\n", feedback)
	}
	if timing != "" {
		timingSection = fmt.Sprintf("\n## Timing\n%s\n", timing)
	}

	return fmt.Sprintf(diagPrompt, gatherRun(st), maxLogLines, compileLog, maxLogLines, testLog,
		feedbackSection, timingSection, pc.Render()), nil
}

func gatherRun(st *state.State) string {
	parts := []string{
		fmt.Sprintf("Module: %s", st.Module),
		fmt.Sprintf("Status: %s", st.Status),
		fmt.Sprintf("Stopped in phase: %s", st.Phase),
	}
	if st.Description != "" {
		parts = append(parts, fmt.Sprintf("Description: %s", st.Description))
	}
	if len(st.Attempts) > 0 {
		phases := make([]string, 0, len(st.Attempts))
		for p := range st.Attempts {
			phases = append(phases, p)
		}
		sort.Strings(phases)
		var counts []string
		for _, p := range phases {
			counts = append(counts, fmt.Sprintf("%s=%d", p, st.Attempts[p]))
		}
		parts = append(parts, fmt.Sprintf("Attempts: %s", strings.Join(counts, ", ")))
	}
	if st.Migration != "" {
		parts = append(parts, fmt.Sprintf("Migration: %s", st.Migration))
	}
	if len(st.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("Never generated: %s", strings.Join(st.Missing, ", ")))
	}
	if len(st.GeneratedFiles) > 0 {
		parts = append(parts, fmt.Sprintf("Generated files: %s", strings.Join(st.GeneratedFiles, ", ")))
	}
	return strings.Join(parts, "\n")
}

func gatherLog(path string) string {
	if path == "" {
		return "(no log file found)"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "(no log file found)"
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
		return fmt.Sprintf("... (truncated to last %d lines)\n%s", maxLogLines, strings.Join(lines, "\n"))
	}
	return string(data)
}

// gatherFeedback returns the newest feedback file of the latest repair phase.
func gatherFeedback(artifactsDir string) string {
	for _, phase := range []string{state.PhaseTestFix, state.PhaseTroubleshoot} {
		p := state.LatestFile(artifactsDir, "feedback", phase+"-")
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		return string(data)
	}
	return ""
}

func gatherTiming(artifactsDir string) string {
	timing, err := state.LoadTiming(artifactsDir)
	if err != nil {
		return ""
	}
	var parts []string
	for _, e := range timing.Entries {
		if e.Duration != "" {
			parts = append(parts, fmt.Sprintf("%s round %d started %s, duration %s",
				e.Phase, e.Attempt, e.Start.Format("15:04:05"), e.Duration))
		} else {
			parts = append(parts, fmt.Sprintf("%s round %d started %s (did not complete)",
				e.Phase, e.Attempt, e.Start.Format("15:04:05")))
		}
	}
	return strings.Join(parts, "\n")
}

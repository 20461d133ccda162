package ux

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/codegen/internal/state"
)

var phaseOrder = []string{state.PhaseDevelop, state.PhaseTroubleshoot, state.PhaseTestFix}

// RenderStatus prints the full status display for a module's last run.
func RenderStatus(st *state.State, artifactsDir string) {
	timing, _ := state.LoadTiming(artifactsDir)

	fmt.Fprintf(Out, "%sModule:%s  %s\n", Bold, Reset, st.Module)
	fmt.Fprintf(Out, "%sRun:%s     %s\n", Bold, Reset, st.RunID)
	switch st.Status {
	case state.StatusCompleted:
		fmt.Fprintf(Out, "%sState:%s   %s%scompleted%s\n", Bold, Reset, Green, Bold, Reset)
	case state.StatusRunning:
		fmt.Fprintf(Out, "%sState:%s   %s (running)\n", Bold, Reset, st.Phase)
	default:
		fmt.Fprintf(Out, "%sState:%s   %s%s%s at %s\n", Bold, Reset, Red, st.Status, Reset, st.Phase)
	}
	if st.Description != "" {
		fmt.Fprintf(Out, "%sDescription:%s %s\n", Bold, Reset, st.Description)
	}

	fmt.Fprintf(Out, "\n%sPhases:%s\n", Bold, Reset)
	for i, p := range phaseOrder {
		marker := "  "
		if p == st.Phase && st.Status == state.StatusRunning {
			marker = fmt.Sprintf("%s→%s ", Yellow, Reset)
		}
		fmt.Fprintf(Out, "  %s%s%d%s  %-14s %d round(s) %s\n",
			marker, Dim, i+1, Reset, p, st.Attempts[p], findDuration(timing, p))
	}

	if st.Migration != "" {
		fmt.Fprintf(Out, "\n%sMigration:%s %s\n", Bold, Reset, st.Migration)
	}
	if len(st.Missing) > 0 {
		fmt.Fprintf(Out, "%sMissing:%s   %s%s%s\n", Bold, Reset, Yellow, strings.Join(st.Missing, ","), Reset)
	}
	if st.InputTokens > 0 || st.OutputTokens > 0 {
		fmt.Fprintf(Out, "%sTokens:%s    %d in / %d out\n", Bold, Reset, st.InputTokens, st.OutputTokens)
	}
	if len(st.GeneratedFiles) > 0 {
		fmt.Fprintf(Out, "\n%sFiles:%s\n", Bold, Reset)
		for _, f := range st.GeneratedFiles {
			fmt.Fprintf(Out, "  %s\n", f)
		}
	}

	fmt.Fprintf(Out, "\n%sArtifacts:%s\n", Bold, Reset)
	entries, err := os.ReadDir(artifactsDir)
	if err != nil {
		fmt.Fprintf(Out, "  %s(none)%s\n", Dim, Reset)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			subEntries, _ := os.ReadDir(filepath.Join(artifactsDir, e.Name()))
			if len(subEntries) > 0 {
				first := subEntries[0].Name()
				last := subEntries[len(subEntries)-1].Name()
				if first == last {
					fmt.Fprintf(Out, "  %s/%s/%s\n", artifactsDir, e.Name(), first)
				} else {
					fmt.Fprintf(Out, "  %s/%s/%s .. %s\n", artifactsDir, e.Name(), first, last)
				}
			}
		} else {
			fmt.Fprintf(Out, "  %s/%s\n", artifactsDir, e.Name())
		}
	}
	fmt.Fprintln(Out)
}

func findDuration(timing *state.Timing, phase string) string {
	if timing == nil {
		return ""
	}
	total := timing.Total(phase)
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", state.FormatDuration(total))
}

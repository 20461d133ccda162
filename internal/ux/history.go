package ux

import (
	"fmt"
	"strings"
	"time"

	"github.com/jorge-barreto/codegen/internal/ledger"
	"github.com/jorge-barreto/codegen/internal/state"
)

// RenderHistory prints one line per recorded run, newest first.
func RenderHistory(runs []ledger.Run) {
	if len(runs) == 0 {
		fmt.Fprintf(Out, "%sNo runs recorded.%s\n", Dim, Reset)
		return
	}
	fmt.Fprintf(Out, "%s%-36s  %-16s  %-20s  %-15s  %7s  %s%s\n",
		Bold, "RUN", "MODULE", "STARTED", "STATUS", "ROUNDS", "TOKENS (in/out)", Reset)
	for _, r := range runs {
		fmt.Fprintf(Out, "%-36s  %-16s  %-20s  %s  %7d  %d/%d\n",
			r.ID, r.Module, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			statusColumn(r.Status), r.Rounds, r.InputTokens, r.OutputTokens)
	}
}

func statusColumn(status string) string {
	color := Red
	switch status {
	case state.StatusCompleted:
		color = Green
	case state.StatusRunning:
		color = Yellow
	}
	return fmt.Sprintf("%s%-15s%s", color, status, Reset)
}

// RenderRounds prints the rounds of one run.
func RenderRounds(run ledger.Run, rounds []ledger.Round) {
	fmt.Fprintf(Out, "%sRun:%s      %s\n", Bold, Reset, run.ID)
	fmt.Fprintf(Out, "%sModule:%s   %s\n", Bold, Reset, run.Module)
	if run.Provider != "" {
		fmt.Fprintf(Out, "%sModel:%s    %s/%s\n", Bold, Reset, run.Provider, run.Model)
	}
	fmt.Fprintf(Out, "%sStatus:%s   %s\n", Bold, Reset, statusColumn(run.Status))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(Out, "%sDuration:%s %s\n", Bold, Reset, state.FormatDuration(run.FinishedAt.Sub(run.StartedAt).Round(time.Second)))
	}
	fmt.Fprintln(Out)
	for _, r := range rounds {
		mark := fmt.Sprintf("%s✗%s", Red, Reset)
		if r.Success {
			mark = fmt.Sprintf("%s✓%s", Green, Reset)
		}
		fmt.Fprintf(Out, "  %s %-13s #%d", mark, r.Phase, r.Attempt)
		if len(r.Produced) > 0 {
			fmt.Fprintf(Out, "  produced %s", strings.Join(r.Produced, ","))
		}
		if len(r.Missing) > 0 {
			fmt.Fprintf(Out, "  %smissing %s%s", Yellow, strings.Join(r.Missing, ","), Reset)
		}
		fmt.Fprintln(Out)
	}
}

package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// Out receives all terminal output.
var Out io.Writer = os.Stdout

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.1f", d.Seconds())
}

// PhaseHeader prints a timestamped phase header.
func PhaseHeader(index, total int, phase, description string) {
	fmt.Fprintf(Out, "\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	desc := ""
	if description != "" {
		desc = ": " + description
	}
	fmt.Fprintf(Out, "%s[%s]%s  %sPhase %d/%d: %s%s%s\n",
		Dim, timestamp(), Reset, Bold, index+1, total, phase, desc, Reset)
	fmt.Fprintf(Out, "%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
}

// Round prints the start of an agent round.
func Round(phase string, attempt, max int) {
	fmt.Fprintf(Out, "%s[%s]%s  %s↺ %s round %d/%d%s\n",
		Dim, timestamp(), Reset, Yellow, phase, attempt, max, Reset)
}

// RequestStart prints the in-flight line for an LLM request.
func RequestStart(agent string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s:making LLM request\n", Dim, timestamp(), Reset, agent)
}

// RequestDone prints a completed LLM request.
func RequestDone(agent string, d time.Duration) {
	fmt.Fprintf(Out, "%s[%s]%s  %s✓ %s:LLM request completed in %s seconds%s\n",
		Dim, timestamp(), Reset, Green, agent, seconds(d), Reset)
}

// RequestFail prints a failed LLM request.
func RequestFail(agent string, err error) {
	fmt.Fprintf(Out, "%s[%s]%s  %s✗ %s:LLM request failed:%v%s\n",
		Dim, timestamp(), Reset, Red, agent, err, Reset)
}

// Check prints the outcome of a compile or test run.
func Check(name string, ok bool, d time.Duration) {
	if ok {
		fmt.Fprintf(Out, "%s[%s]%s  %s✓ %s passed (%ss)%s\n",
			Dim, timestamp(), Reset, Green, name, seconds(d), Reset)
		return
	}
	fmt.Fprintf(Out, "%s[%s]%s  %s✗ %s failed (%ss)%s\n",
		Dim, timestamp(), Reset, Red, name, seconds(d), Reset)
}

// Missing prints the buckets a round failed to produce.
func Missing(buckets []string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s⚠ missing: %s%s\n",
		Dim, timestamp(), Reset, Yellow, strings.Join(buckets, ","), Reset)
}

// PhaseComplete prints a phase completion message.
func PhaseComplete(phase string, duration time.Duration) {
	m := int(duration.Minutes())
	s := int(duration.Seconds()) % 60
	fmt.Fprintf(Out, "%s[%s]%s  %s✓ %s complete (%dm %02ds)%s\n",
		Dim, timestamp(), Reset, Green, phase, m, s, Reset)
}

// PhaseFail prints a phase failure message.
func PhaseFail(phase, errMsg string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s✗ %s failed: %s%s\n",
		Dim, timestamp(), Reset, Red, phase, errMsg, Reset)
}

// Abort prints the reason a run stopped before the test phase.
func Abort(reason string) {
	fmt.Fprintf(Out, "\n%s%sAborted:%s %s\n", Bold, Red, Reset, reason)
}

// Usage prints the token totals of a run.
func Usage(input, output int) {
	fmt.Fprintf(Out, "\n%sTotal input tokens:%s %d\n", Bold, Reset, input)
	fmt.Fprintf(Out, "%sTotal output tokens:%s %d\n", Bold, Reset, output)
}

// Done prints the final outcome line.
func Done(module, status string) {
	color := Yellow
	if status == "completed" {
		color = Green
	}
	fmt.Fprintf(Out, "\n%s[%s]%s  %s%s══ %s: %s ══%s\n\n",
		Dim, timestamp(), Reset, Bold, color, module, status, Reset)
}

package ux

import (
	"strings"
	"testing"
	"time"

	"github.com/jorge-barreto/codegen/internal/ledger"
	"github.com/jorge-barreto/codegen/internal/state"
)

func TestRenderHistory_Empty(t *testing.T) {
	buf := capture(t)
	RenderHistory(nil)
	if !strings.Contains(buf.String(), "No runs recorded.") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRenderHistory(t *testing.T) {
	buf := capture(t)
	RenderHistory([]ledger.Run{
		{ID: "run-2", Module: "books", Status: state.StatusCompleted, Rounds: 3, InputTokens: 1200, OutputTokens: 800, StartedAt: time.Now()},
		{ID: "run-1", Module: "authors", Status: state.StatusCompileFailed, Rounds: 9, StartedAt: time.Now().Add(-time.Hour)},
	})
	out := buf.String()
	for _, want := range []string{"RUN", "run-2", "books", "completed", "1200/800", "run-1", "compile_failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, "run-2") > strings.Index(out, "run-1") {
		t.Error("runs should keep the given order")
	}
}

func TestRenderRounds(t *testing.T) {
	buf := capture(t)
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	RenderRounds(
		ledger.Run{ID: "run-1", Module: "books", Provider: "openai", Model: "gpt-4o-mini", Status: state.StatusTestsFailing, StartedAt: start, FinishedAt: start.Add(65 * time.Second)},
		[]ledger.Round{
			{Phase: state.PhaseDevelop, Attempt: 1, Produced: []string{"ROUTES", "SERVICES"}, Missing: []string{"ALL_SEEDS"}},
			{Phase: state.PhaseDevelop, Attempt: 2, Produced: []string{"ALL_SEEDS"}, Success: true},
		},
	)
	out := buf.String()
	for _, want := range []string{"run-1", "openai/gpt-4o-mini", "tests_failing", "1m 05s", "produced ROUTES,SERVICES", "missing ALL_SEEDS", "#2"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

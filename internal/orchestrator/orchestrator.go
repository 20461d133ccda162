// Package orchestrator drives a generation run through its three phases:
// develop the module, repair compile errors, repair failing tests.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jorge-barreto/codegen/internal/agent"
	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/dispatch"
	"github.com/jorge-barreto/codegen/internal/ledger"
	"github.com/jorge-barreto/codegen/internal/metrics"
	"github.com/jorge-barreto/codegen/internal/sections"
	"github.com/jorge-barreto/codegen/internal/state"
	"github.com/jorge-barreto/codegen/internal/ux"
)

type Developer interface {
	Execute(ctx context.Context) sections.FileSet
	SetMissingFiles(missing []string)
	Usage() agent.Usage
}

type Troubleshooter interface {
	Execute(ctx context.Context) sections.FileSet
	SetErrorText(text string)
	SetGeneratedServices(paths []string)
	Usage() agent.Usage
}

type TestsFixer interface {
	Troubleshooter
	SetMigrationPath(path string)
}

type Compiler interface {
	Compile(ctx context.Context) (*dispatch.Result, error)
}

type TestRunner interface {
	RunTests(ctx context.Context, file string) (*dispatch.Result, error)
}

// Orchestrator runs one module through the pipeline.
type Orchestrator struct {
	Config         *config.Config
	State          *state.State
	Router         *sections.Router
	ArtifactsDir   string
	Developer      Developer
	Troubleshooter Troubleshooter
	TestsFixer     TestsFixer
	Compiler       Compiler
	Tests          TestRunner
	Ledger         *ledger.Ledger
	Metrics        *metrics.Recorder
	Logger         *slog.Logger
	Timing         *state.Timing
	Provider       string
	Model          string

	migration  string
	generated  []string
	seen       map[string]bool
	produced   map[string]bool
	services   []string
	pathToTest string
	log        *slog.Logger
}

// Report is the outcome of Execute.
type Report struct {
	RunID     string
	Module    string
	Status    string
	Attempts  map[string]int
	Usage     agent.Usage
	Files     []string // project-relative, first-seen order
	Migration string   // project-relative, "" when none
	Missing   []string
	Duration  time.Duration
}

func (o *Orchestrator) reset() {
	o.migration = ""
	o.generated = nil
	o.seen = map[string]bool{}
	o.produced = map[string]bool{}
	o.services = nil
	o.pathToTest = ""
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	o.log = logger.With("component", "orchestrator")
}

// Execute runs Develop, Troubleshoot and TestFix. Exhausted attempts are
// reported through Report.Status; the error is non-nil only when ctx is
// canceled.
func (o *Orchestrator) Execute(ctx context.Context) (*Report, error) {
	o.reset()
	start := time.Now()
	if err := state.ResetRun(o.ArtifactsDir); err != nil {
		return nil, err
	}
	o.Timing = &state.Timing{}

	st := o.State
	o.log.Info("orchestrator:start:code:generation", "run_id", st.RunID, "module", st.Module)
	if err := o.Ledger.StartRun(ctx, ledger.Run{
		ID:          st.RunID,
		Module:      st.Module,
		Description: st.Description,
		Provider:    o.Provider,
		Model:       o.Model,
	}); err != nil {
		o.log.Warn("orchestrator:ledger", "error", err)
	}

	if err := o.runDeveloper(ctx); err != nil {
		return o.finish(ctx, start, state.StatusInterrupted), err
	}

	compiled, err := o.runTroubleshooter(ctx)
	if err != nil {
		return o.finish(ctx, start, state.StatusInterrupted), err
	}
	if !compiled {
		o.log.Info("orchestrator:compilation failed again after fixing the code - skipping E2E tests",
			"regenerate_attempts", st.Attempts[state.PhaseDevelop],
			"fix_attempts", st.Attempts[state.PhaseTroubleshoot])
		ux.Abort(fmt.Sprintf("compilation still fails after %d fix attempts, skipping E2E tests",
			st.Attempts[state.PhaseTroubleshoot]))
		return o.finish(ctx, start, state.StatusCompileFailed), nil
	}

	passed, err := o.runTestsFixer(ctx)
	if err != nil {
		return o.finish(ctx, start, state.StatusInterrupted), err
	}
	if !passed {
		return o.finish(ctx, start, state.StatusTestsFailing), nil
	}
	return o.finish(ctx, start, state.StatusCompleted), nil
}

func (o *Orchestrator) enter(index int, phase, description string) {
	o.State.Enter(phase)
	o.save()
	ux.PhaseHeader(index, 3, phase, description)
}

func (o *Orchestrator) beginRound(phase string, attempt, max int) {
	o.State.Attempts[phase] = attempt
	o.Metrics.IncRound(phase)
	o.Timing.AddStart(phase, attempt)
	ux.Round(phase, attempt, max)
}

func (o *Orchestrator) endRound(ctx context.Context, phase string, attempt int, set sections.FileSet, missing []string, success bool) {
	o.Timing.AddEnd(phase)
	o.State.Missing = missing
	o.State.GeneratedFiles = o.relativeAll(o.generated)
	o.save()
	if err := o.Ledger.RecordRound(ctx, o.State.RunID, ledger.Round{
		Phase:    phase,
		Attempt:  attempt,
		Produced: set.Produced(),
		Missing:  missing,
		Success:  success,
	}); err != nil {
		o.log.Warn("orchestrator:ledger", "error", err)
	}
}

func (o *Orchestrator) save() {
	if err := o.State.Save(o.ArtifactsDir); err != nil {
		o.log.Warn("orchestrator:state:save", "error", err)
	}
}

// missing returns the required buckets no round has produced yet.
func (o *Orchestrator) missing() []string {
	var out []string
	for _, b := range sections.RequiredBuckets() {
		if !o.produced[b] {
			out = append(out, b)
		}
	}
	return out
}

// absorb merges one agent run into the accumulated run state and applies
// the migration rule.
func (o *Orchestrator) absorb(set sections.FileSet) {
	for _, b := range set.Produced() {
		o.produced[b] = true
	}
	for _, p := range set.Paths(sections.BucketMigrations) {
		if !o.seen[p] {
			o.seen[p] = true
			o.generated = append(o.generated, p)
		}
	}
	for _, p := range set[sections.BucketServices] {
		if !slices.Contains(o.services, p) {
			o.services = append(o.services, p)
		}
	}
	if p := set.First(sections.BucketE2ETests); p != "" && o.pathToTest == "" {
		o.pathToTest = p
	}
	o.adoptMigration(set[sections.BucketMigrations])
}

// adoptMigration keeps exactly one live migration file: the newest one
// written. Older files are removed only once the new one is on disk.
func (o *Orchestrator) adoptMigration(paths []string) {
	if len(paths) == 0 {
		return
	}
	newest := paths[len(paths)-1]
	if _, err := os.Stat(newest); err != nil {
		o.log.Error("orchestrator:migration:not adopted", "path", newest, "error", err)
		return
	}
	stale := append([]string{o.migration}, paths[:len(paths)-1]...)
	for _, p := range stale {
		if p == "" || p == newest {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			o.log.Error("orchestrator:migration:remove", "path", p, "error", err)
			continue
		}
		o.log.Info("orchestrator:REMOVED:Prev:migration", "path", p)
	}
	o.migration = newest
	o.State.Migration = o.relative(newest)
}

func (o *Orchestrator) runDeveloper(ctx context.Context) error {
	const phase = state.PhaseDevelop
	o.enter(0, phase, "generate the module")
	started := time.Now()

	max := o.Config.Attempts.Regenerate
	var missing []string
	for attempt := 0; attempt < max && (attempt == 0 || len(missing) > 0); {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempt++
		o.beginRound(phase, attempt, max)
		if len(missing) > 0 {
			o.log.Info("orchestrator:runDeveloper:REGENERATE", "attempt", attempt, "missing", strings.Join(missing, ", "))
			o.Developer.SetMissingFiles(missing)
		}

		set := o.Developer.Execute(ctx)
		o.absorb(set)
		missing = o.missing()
		if len(missing) > 0 {
			o.log.Warn("orchestrator:runDeveloper:some files are missing", "attempt", attempt, "missing", strings.Join(missing, ", "))
			ux.Missing(missing)
		}
		o.endRound(ctx, phase, attempt, set, missing, len(missing) == 0)
	}

	if len(missing) > 0 {
		ux.PhaseFail(phase, "missing "+strings.Join(missing, ","))
	} else {
		ux.PhaseComplete(phase, time.Since(started))
	}
	return ctx.Err()
}

// notGenerated describes buckets that never got a file.
func notGenerated(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	return "Next files were not generated: " + strings.Join(missing, ",")
}

// errorText combines compiler output with the not-generated message.
func errorText(out *dispatch.Result, validated string) string {
	if out.Success {
		return validated
	}
	if validated == "" {
		return out.Output
	}
	return out.Output + "\n\n" + validated
}

func (o *Orchestrator) compile(ctx context.Context) *dispatch.Result {
	start := time.Now()
	res, err := o.Compiler.Compile(ctx)
	if err != nil {
		o.log.Error("orchestrator:compile:error", "error", err)
		res = &dispatch.Result{ExitCode: -1, Output: err.Error()}
	}
	ux.Check("compilation", res.Success, time.Since(start))
	return res
}

func (o *Orchestrator) runTroubleshooter(ctx context.Context) (bool, error) {
	const phase = state.PhaseTroubleshoot
	o.enter(1, phase, "fix compile errors")
	started := time.Now()

	stillMissing := o.missing()
	validated := notGenerated(stillMissing)
	out := o.compile(ctx)

	max := o.Config.Attempts.FixCode
	for attempt := 0; attempt < max && (!out.Success || validated != ""); {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		attempt++
		o.beginRound(phase, attempt, max)

		text := errorText(out, validated)
		if err := state.WriteFeedback(o.ArtifactsDir, phase, attempt, text); err != nil {
			o.log.Warn("orchestrator:feedback", "error", err)
		}
		o.Troubleshooter.SetErrorText(text)
		o.Troubleshooter.SetGeneratedServices(o.services)

		set := o.Troubleshooter.Execute(ctx)
		o.absorb(set)

		var next []string
		now := o.missing()
		for _, b := range stillMissing {
			if slices.Contains(now, b) {
				next = append(next, b)
			}
		}
		stillMissing = next
		validated = notGenerated(stillMissing)

		out = o.compile(ctx)
		if !out.Success || validated != "" {
			o.log.Error("orchestrator:runTroubleshooter:compilation failed",
				"attempt", attempt, "validated_output", validated, "success", out.Success)
		} else {
			o.log.Info("orchestrator:runTroubleshooter:compilation succeeded", "attempt", attempt)
		}
		o.endRound(ctx, phase, attempt, set, stillMissing, out.Success && validated == "")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if !out.Success {
		ux.PhaseFail(phase, "compilation failed")
		return false, nil
	}
	ux.PhaseComplete(phase, time.Since(started))
	return true, nil
}

func (o *Orchestrator) runTests(ctx context.Context, file string) *dispatch.Result {
	start := time.Now()
	res, err := o.Tests.RunTests(ctx, file)
	if err != nil {
		o.log.Error("orchestrator:tests:error", "error", err)
		res = &dispatch.Result{ExitCode: -1, Output: err.Error()}
	}
	ux.Check("e2e tests", res.Success, time.Since(start))
	return res
}

func (o *Orchestrator) runTestsFixer(ctx context.Context) (bool, error) {
	const phase = state.PhaseTestFix
	o.enter(2, phase, "fix failing e2e tests")
	started := time.Now()

	path := o.pathToTest
	if path == "" {
		path = o.Router.ModulePath(sections.KindE2ETests)
	}
	file := o.relative(path)
	o.log.Info("orchestrator:runTestsFixer", "path_to_test", file)

	out := o.runTests(ctx, file)
	max := o.Config.Attempts.FixTests
	for attempt := 0; attempt < max && !out.Success; {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		attempt++
		o.beginRound(phase, attempt, max)

		if o.migration != "" {
			o.TestsFixer.SetMigrationPath(o.migration)
		}
		if err := state.WriteFeedback(o.ArtifactsDir, phase, attempt, out.Output); err != nil {
			o.log.Warn("orchestrator:feedback", "error", err)
		}
		o.TestsFixer.SetErrorText(out.Output)
		o.TestsFixer.SetGeneratedServices(o.services)

		set := o.TestsFixer.Execute(ctx)
		o.absorb(set)

		out = o.runTests(ctx, file)
		if out.Success {
			o.log.Info("orchestrator:runTestsFixer:E2E tests passed successfully", "attempt", attempt)
		} else {
			o.log.Warn("orchestrator:runTestsFixer:E2E tests failed", "attempt", attempt)
		}
		o.endRound(ctx, phase, attempt, set, nil, out.Success)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if !out.Success {
		ux.PhaseFail(phase, "e2e tests still failing")
		return false, nil
	}
	ux.PhaseComplete(phase, time.Since(started))
	return true, nil
}

func (o *Orchestrator) relative(p string) string {
	root := o.Config.ProjectRoot
	if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return p
}

func (o *Orchestrator) relativeAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, o.relative(p))
	}
	return out
}

func (o *Orchestrator) usage() agent.Usage {
	var us []agent.Usage
	if o.Developer != nil {
		us = append(us, o.Developer.Usage())
	}
	if o.Troubleshooter != nil {
		us = append(us, o.Troubleshooter.Usage())
	}
	if o.TestsFixer != nil {
		us = append(us, o.TestsFixer.Usage())
	}
	return agent.Sum(us...)
}

// finish aggregates usage, persists the outcome and prints the report.
// It runs even when ctx is canceled.
func (o *Orchestrator) finish(ctx context.Context, start time.Time, status string) *Report {
	ctx = context.WithoutCancel(ctx)
	usage := o.usage()
	files := o.relativeAll(o.generated)
	if o.migration != "" {
		files = append(files, o.relative(o.migration))
	}

	st := o.State
	st.Status = status
	if status == state.StatusCompleted {
		st.Phase = state.PhaseDone
	}
	st.InputTokens = usage.InputTokens
	st.OutputTokens = usage.OutputTokens
	st.GeneratedFiles = files
	o.save()
	if err := o.Timing.Flush(o.ArtifactsDir); err != nil {
		o.log.Warn("orchestrator:timing:flush", "error", err)
	}
	if err := o.Ledger.FinishRun(ctx, st.RunID, status, usage.InputTokens, usage.OutputTokens); err != nil {
		o.log.Warn("orchestrator:ledger", "error", err)
	}
	if o.Metrics != nil {
		if err := o.Metrics.WriteTextfile(state.MetricsPath(o.ArtifactsDir)); err != nil {
			o.log.Warn("orchestrator:metrics", "error", err)
		}
	}

	o.log.Info("orchestrator:LLM token usage stats",
		"status", status,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"regenerate_attempts", st.Attempts[state.PhaseDevelop],
		"fix_attempts", st.Attempts[state.PhaseTroubleshoot],
		"test_attempts", st.Attempts[state.PhaseTestFix])

	ux.Usage(usage.InputTokens, usage.OutputTokens)
	ux.PrintTree(o.Config.Name, files)
	ux.Done(st.Module, status)

	return &Report{
		RunID:     st.RunID,
		Module:    st.Module,
		Status:    status,
		Attempts:  maps.Clone(st.Attempts),
		Usage:     usage,
		Files:     files,
		Migration: st.Migration,
		Missing:   slices.Clone(st.Missing),
		Duration:  time.Since(start),
	}
}

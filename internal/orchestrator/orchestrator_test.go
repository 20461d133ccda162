package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/jorge-barreto/codegen/internal/agent"
	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/dispatch"
	"github.com/jorge-barreto/codegen/internal/ledger"
	"github.com/jorge-barreto/codegen/internal/metrics"
	"github.com/jorge-barreto/codegen/internal/sections"
	"github.com/jorge-barreto/codegen/internal/state"
	"github.com/jorge-barreto/codegen/internal/ux"
)

func init() {
	ux.Out = io.Discard
}

// mockAgent plays back one function per round and records what it was told.
type mockAgent struct {
	mu         sync.Mutex
	rounds     []func(ctx context.Context) sections.FileSet
	calls      int
	hints      [][]string
	errorTexts []string
	services   [][]string
	migrations []string
	perRound   agent.Usage
	usage      agent.Usage
}

func (m *mockAgent) Execute(ctx context.Context) sections.FileSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	m.usage.Add(m.perRound.InputTokens, m.perRound.OutputTokens)
	if len(m.rounds) == 0 {
		return sections.NewFileSet()
	}
	if i >= len(m.rounds) {
		i = len(m.rounds) - 1
	}
	return m.rounds[i](ctx)
}

func (m *mockAgent) SetMissingFiles(missing []string) {
	m.hints = append(m.hints, slices.Clone(missing))
}
func (m *mockAgent) SetErrorText(text string) { m.errorTexts = append(m.errorTexts, text) }
func (m *mockAgent) SetGeneratedServices(paths []string) {
	m.services = append(m.services, slices.Clone(paths))
}
func (m *mockAgent) SetMigrationPath(path string) { m.migrations = append(m.migrations, path) }
func (m *mockAgent) Usage() agent.Usage          { return m.usage }

// mockProcess returns scripted results; the last one repeats.
type mockProcess struct {
	results []bool
	output  string
	calls   int
	files   []string
}

func (m *mockProcess) next() *dispatch.Result {
	ok := true
	if len(m.results) > 0 {
		i := m.calls
		if i >= len(m.results) {
			i = len(m.results) - 1
		}
		ok = m.results[i]
	}
	m.calls++
	if ok {
		return &dispatch.Result{Success: true}
	}
	return &dispatch.Result{Success: false, ExitCode: 1, Output: m.output}
}

func (m *mockProcess) Compile(ctx context.Context) (*dispatch.Result, error) {
	return m.next(), nil
}

func (m *mockProcess) RunTests(ctx context.Context, file string) (*dispatch.Result, error) {
	m.files = append(m.files, file)
	return m.next(), nil
}

type fixture struct {
	o        *Orchestrator
	root     string
	router   *sections.Router
	dev      *mockAgent
	fixer    *mockAgent
	tester   *mockAgent
	compiler *mockProcess
	tests    *mockProcess
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default(root)
	cfg.Name = "api"
	cfg.Attempts = config.Attempts{Regenerate: 3, FixCode: 3, FixTests: 3}
	router := sections.NewRouter(sections.Layout{
		Root:          root,
		ModulesDir:    cfg.Layout.ModulesDir,
		MigrationsDir: cfg.Layout.MigrationsDir,
		Ext:           cfg.Layout.SourceExt,
		Shared:        cfg.Layout.Shared,
	}, "books")

	f := &fixture{
		root:     root,
		router:   router,
		dev:      &mockAgent{},
		fixer:    &mockAgent{},
		tester:   &mockAgent{},
		compiler: &mockProcess{output: "src/modules/books/routes.ts(1,1): error TS2304"},
		tests:    &mockProcess{output: "1 failing"},
	}
	f.o = &Orchestrator{
		Config:         cfg,
		State:          state.New("run-1", "books", "a books api"),
		Router:         router,
		ArtifactsDir:   cfg.ArtifactsDir("books"),
		Developer:      f.dev,
		Troubleshooter: f.fixer,
		TestsFixer:     f.tester,
		Compiler:       f.compiler,
		Tests:          f.tests,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return f
}

// produce writes one file per bucket and returns the resulting FileSet.
// Migrations get the given name.
func (f *fixture) produce(t *testing.T, migration string, buckets ...string) sections.FileSet {
	t.Helper()
	set := sections.NewFileSet()
	for _, b := range buckets {
		var p string
		switch b {
		case sections.BucketMigrations:
			p = filepath.Join(f.root, "src", "infra", "data", "migrations", migration)
		case sections.BucketServices:
			p = filepath.Join(f.router.ModuleDir(), "addBook.service.ts")
		case sections.BucketE2ETests:
			p = f.router.ModulePath(sections.KindE2ETests)
		default:
			p = filepath.Join(f.root, "out", strings.ToLower(b)+".ts")
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(b), 0644); err != nil {
			t.Fatal(err)
		}
		set[b] = append(set[b], p)
	}
	return set
}

func (f *fixture) round(t *testing.T, migration string, buckets ...string) func(context.Context) sections.FileSet {
	return func(context.Context) sections.FileSet { return f.produce(t, migration, buckets...) }
}

func without(all []string, drop ...string) []string {
	var out []string
	for _, b := range all {
		if !slices.Contains(drop, b) {
			out = append(out, b)
		}
	}
	return out
}

func migrationsOnDisk(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, "src", "infra", "data", "migrations"))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestExecute_AllProducedFirstRound(t *testing.T) {
	f := newFixture(t)
	f.dev.rounds = append(f.dev.rounds, f.round(t, "1_create_books_table.ts", sections.RequiredBuckets()...))

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f.dev.calls != 1 {
		t.Fatalf("developer ran %d times, want 1", f.dev.calls)
	}
	if len(f.dev.hints) != 0 {
		t.Fatalf("unexpected missing hints %v", f.dev.hints)
	}
	if f.fixer.calls != 0 || f.tester.calls != 0 {
		t.Fatalf("repair agents ran: troubleshooter=%d testsfixer=%d", f.fixer.calls, f.tester.calls)
	}
	if rep.Status != state.StatusCompleted {
		t.Fatalf("status = %q", rep.Status)
	}
	if f.compiler.calls != 1 || f.tests.calls != 1 {
		t.Fatalf("compile=%d tests=%d", f.compiler.calls, f.tests.calls)
	}
	if rep.Migration != "src/infra/data/migrations/1_create_books_table.ts" {
		t.Fatalf("migration = %q", rep.Migration)
	}
	last := rep.Files[len(rep.Files)-1]
	if last != rep.Migration {
		t.Fatalf("report files should end with the migration, got %v", rep.Files)
	}
	for _, p := range rep.Files {
		if filepath.IsAbs(p) {
			t.Fatalf("report path %q is not relative", p)
		}
	}
}

func TestExecute_DevelopStopsAtCeiling(t *testing.T) {
	f := newFixture(t)

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f.dev.calls != 3 {
		t.Fatalf("developer ran %d times, want 3", f.dev.calls)
	}
	if len(f.dev.hints) != 2 {
		t.Fatalf("hints = %d, want 2", len(f.dev.hints))
	}
	if !slices.Equal(f.dev.hints[0], sections.RequiredBuckets()) {
		t.Fatalf("empty round should count everything missing, got %v", f.dev.hints[0])
	}
	if !slices.Equal(rep.Missing, sections.RequiredBuckets()) {
		t.Fatalf("report missing = %v", rep.Missing)
	}
	// Compilation passes but files are still missing, so every fix attempt is used.
	if f.fixer.calls != 3 {
		t.Fatalf("troubleshooter ran %d times, want 3", f.fixer.calls)
	}
	if !strings.HasPrefix(f.fixer.errorTexts[0], "Next files were not generated: ALL_API_ROUTES,") {
		t.Fatalf("error text = %q", f.fixer.errorTexts[0])
	}
}

func TestExecute_MissingSetShrinks(t *testing.T) {
	f := newFixture(t)
	all := sections.RequiredBuckets()
	f.dev.rounds = append(f.dev.rounds,
		f.round(t, "1_m.ts", without(all, sections.BucketServices, sections.BucketE2ETests)...),
		f.round(t, "", sections.BucketServices),
		f.round(t, "", sections.BucketE2ETests),
	)

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f.dev.calls != 3 {
		t.Fatalf("developer ran %d times, want 3", f.dev.calls)
	}
	want := [][]string{
		{sections.BucketServices, sections.BucketE2ETests},
		{sections.BucketE2ETests},
	}
	if len(f.dev.hints) != 2 || !slices.Equal(f.dev.hints[0], want[0]) || !slices.Equal(f.dev.hints[1], want[1]) {
		t.Fatalf("hints = %v, want %v", f.dev.hints, want)
	}
	if len(rep.Missing) != 0 {
		t.Fatalf("missing = %v", rep.Missing)
	}
	if f.fixer.calls != 0 {
		t.Fatalf("troubleshooter ran %d times", f.fixer.calls)
	}
}

func TestExecute_MigrationSingleton(t *testing.T) {
	f := newFixture(t)
	all := sections.RequiredBuckets()
	f.dev.rounds = append(f.dev.rounds,
		f.round(t, "1_m.ts", without(all, sections.BucketE2ETests)...),
		f.round(t, "2_m.ts", sections.BucketMigrations),
		f.round(t, "3_m.ts", sections.BucketMigrations, sections.BucketE2ETests),
	)
	f.tests.results = []bool{false, true}
	f.tester.rounds = append(f.tester.rounds, func(ctx context.Context) sections.FileSet {
		if got := migrationsOnDisk(t, f.root); !slices.Equal(got, []string{"3_m.ts"}) {
			t.Errorf("migrations before tests fixer = %v", got)
		}
		return f.produce(t, "4_m.ts", sections.BucketMigrations)
	})

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := migrationsOnDisk(t, f.root); !slices.Equal(got, []string{"4_m.ts"}) {
		t.Fatalf("migrations on disk = %v, want [4_m.ts]", got)
	}
	if len(f.tester.migrations) != 1 || filepath.Base(f.tester.migrations[0]) != "3_m.ts" {
		t.Fatalf("tests fixer migration = %v", f.tester.migrations)
	}
	if rep.Migration != "src/infra/data/migrations/4_m.ts" {
		t.Fatalf("report migration = %q", rep.Migration)
	}
	if rep.Status != state.StatusCompleted {
		t.Fatalf("status = %q", rep.Status)
	}
}

func TestExecute_SameMigrationPathKept(t *testing.T) {
	f := newFixture(t)
	all := sections.RequiredBuckets()
	f.dev.rounds = append(f.dev.rounds,
		f.round(t, "1_m.ts", without(all, sections.BucketE2ETests)...),
		f.round(t, "1_m.ts", sections.BucketMigrations, sections.BucketE2ETests),
	)

	if _, err := f.o.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := migrationsOnDisk(t, f.root); !slices.Equal(got, []string{"1_m.ts"}) {
		t.Fatalf("migrations on disk = %v", got)
	}
}

func TestExecute_CompileFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.dev.rounds = append(f.dev.rounds, f.round(t, "1_m.ts", sections.RequiredBuckets()...))
	f.compiler.results = []bool{false}

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != state.StatusCompileFailed {
		t.Fatalf("status = %q", rep.Status)
	}
	if f.fixer.calls != 3 {
		t.Fatalf("troubleshooter ran %d times, want 3", f.fixer.calls)
	}
	if f.compiler.calls != 4 {
		t.Fatalf("compiler ran %d times, want 4", f.compiler.calls)
	}
	if f.tests.calls != 0 || f.tester.calls != 0 {
		t.Fatal("tests ran after compile abort")
	}
	if f.fixer.errorTexts[0] != f.compiler.output {
		t.Fatalf("error text = %q", f.fixer.errorTexts[0])
	}
	if _, err := os.Stat(filepath.Join(f.o.ArtifactsDir, "feedback", "troubleshoot-3.md")); err != nil {
		t.Fatalf("feedback not written: %v", err)
	}

	loaded, err := state.Load(f.o.ArtifactsDir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != state.StatusCompileFailed || loaded.Attempts[state.PhaseTroubleshoot] != 3 {
		t.Fatalf("persisted state = %+v", loaded)
	}
}

func TestExecute_CompileErrorAndMissingCombined(t *testing.T) {
	f := newFixture(t)
	f.dev.rounds = append(f.dev.rounds, f.round(t, "1_m.ts", without(sections.RequiredBuckets(), sections.BucketServices)...))
	f.o.Config.Attempts.Regenerate = 1
	f.compiler.results = []bool{false, true}
	f.fixer.rounds = append(f.fixer.rounds, f.round(t, "", sections.BucketServices))

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := f.compiler.output + "\n\nNext files were not generated: SERVICES"
	if len(f.fixer.errorTexts) != 1 || f.fixer.errorTexts[0] != want {
		t.Fatalf("error texts = %q, want %q", f.fixer.errorTexts, want)
	}
	if rep.Status != state.StatusCompleted {
		t.Fatalf("status = %q", rep.Status)
	}
}

func TestExecute_TestsFixerCeiling(t *testing.T) {
	f := newFixture(t)
	f.dev.rounds = append(f.dev.rounds, f.round(t, "1_m.ts", sections.RequiredBuckets()...))
	f.tests.results = []bool{false}

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != state.StatusTestsFailing {
		t.Fatalf("status = %q", rep.Status)
	}
	if f.tester.calls != 3 || f.tests.calls != 4 {
		t.Fatalf("testsfixer=%d tests=%d", f.tester.calls, f.tests.calls)
	}
	if f.tester.errorTexts[0] != "1 failing" {
		t.Fatalf("error text = %q", f.tester.errorTexts[0])
	}
	if f.tests.files[0] != "src/modules/books/tests/api.spec.ts" {
		t.Fatalf("test file = %q", f.tests.files[0])
	}
	if len(f.tester.services[0]) != 1 || filepath.Base(f.tester.services[0][0]) != "addBook.service.ts" {
		t.Fatalf("services = %v", f.tester.services)
	}
}

func TestExecute_ZeroFixCodeAbortsWithoutRepair(t *testing.T) {
	f := newFixture(t)
	f.o.Config.Attempts.FixCode = 0
	f.dev.rounds = append(f.dev.rounds, f.round(t, "1_m.ts", sections.RequiredBuckets()...))
	f.compiler.results = []bool{false}

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != state.StatusCompileFailed {
		t.Fatalf("status = %q", rep.Status)
	}
	if f.fixer.calls != 0 || f.compiler.calls != 1 {
		t.Fatalf("troubleshooter=%d compiler=%d", f.fixer.calls, f.compiler.calls)
	}
	if f.tests.calls != 0 {
		t.Fatal("tests ran after compile abort")
	}
}

func TestExecute_ZeroFixTestsSkipsRepair(t *testing.T) {
	f := newFixture(t)
	f.o.Config.Attempts.FixTests = 0
	f.dev.rounds = append(f.dev.rounds, f.round(t, "1_m.ts", sections.RequiredBuckets()...))
	f.tests.results = []bool{false}

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != state.StatusTestsFailing {
		t.Fatalf("status = %q", rep.Status)
	}
	if f.tester.calls != 0 || f.tests.calls != 1 {
		t.Fatalf("testsfixer=%d tests=%d", f.tester.calls, f.tests.calls)
	}
	if rep.Attempts[state.PhaseTestFix] != 0 {
		t.Fatalf("testfix attempts = %d", rep.Attempts[state.PhaseTestFix])
	}
}

func TestExecute_SecondRunStartsClean(t *testing.T) {
	f := newFixture(t)
	f.dev.rounds = append(f.dev.rounds, f.round(t, "1_m.ts", sections.RequiredBuckets()...))
	f.tests.results = []bool{false, true}

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != state.StatusCompleted {
		t.Fatalf("first run status = %q", rep.Status)
	}
	dir := f.o.ArtifactsDir
	if state.LatestFile(dir, "feedback", "testfix-") == "" {
		t.Fatal("first run should leave testfix feedback")
	}
	stale := state.LogPath(dir, "compile", 4)
	if err := os.WriteFile(stale, []byte("old output"), 0644); err != nil {
		t.Fatal(err)
	}

	f.o.State = state.New("run-2", "books", "a books api")
	f.o.Config.Attempts.FixCode = 1
	f.o.Developer = &mockAgent{rounds: []func(context.Context) sections.FileSet{
		f.round(t, "2_m.ts", sections.RequiredBuckets()...),
	}}
	f.o.Troubleshooter = &mockAgent{}
	f.o.TestsFixer = &mockAgent{}
	f.o.Compiler = &mockProcess{results: []bool{false}, output: "error TS1005"}

	rep, err = f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != state.StatusCompileFailed {
		t.Fatalf("second run status = %q", rep.Status)
	}
	if got := state.LatestFile(dir, "feedback", "testfix-"); got != "" {
		t.Fatalf("feedback from the first run survived: %s", got)
	}
	if state.LatestFile(dir, "feedback", "troubleshoot-") == "" {
		t.Fatal("second run feedback missing")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale log survived: %v", err)
	}

	timing, err := state.LoadTiming(dir)
	if err != nil {
		t.Fatal(err)
	}
	var phases []string
	for _, e := range timing.Entries {
		phases = append(phases, e.Phase)
	}
	if !slices.Equal(phases, []string{state.PhaseDevelop, state.PhaseTroubleshoot}) {
		t.Fatalf("timing phases = %v", phases)
	}
}

func TestExecute_DefaultTestPath(t *testing.T) {
	f := newFixture(t)
	f.o.Config.Attempts.FixCode = 1
	f.dev.rounds = append(f.dev.rounds, f.round(t, "1_m.ts", without(sections.RequiredBuckets(), sections.BucketE2ETests)...))

	if _, err := f.o.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.tests.files) == 0 || f.tests.files[0] != "src/modules/books/tests/api.spec.ts" {
		t.Fatalf("test files = %v", f.tests.files)
	}
}

func TestExecute_UsageAggregated(t *testing.T) {
	f := newFixture(t)
	f.dev.perRound = agent.Usage{InputTokens: 100, OutputTokens: 10}
	f.fixer.perRound = agent.Usage{InputTokens: 20, OutputTokens: 2}
	f.tester.perRound = agent.Usage{InputTokens: 3, OutputTokens: 1}
	f.dev.rounds = append(f.dev.rounds, f.round(t, "1_m.ts", sections.RequiredBuckets()...))
	f.compiler.results = []bool{false, true}
	f.tests.results = []bool{false, false, true}

	rep, err := f.o.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := agent.Usage{InputTokens: 100 + 20 + 2*3, OutputTokens: 10 + 2 + 2*1}
	if rep.Usage != want {
		t.Fatalf("usage = %+v, want %+v", rep.Usage, want)
	}
	if f.o.State.InputTokens != want.InputTokens {
		t.Fatalf("state tokens = %d", f.o.State.InputTokens)
	}
}

func TestExecute_ContextCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.dev.rounds = append(f.dev.rounds, func(context.Context) sections.FileSet {
		cancel()
		return sections.NewFileSet()
	})

	rep, err := f.o.Execute(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if rep == nil || rep.Status != state.StatusInterrupted {
		t.Fatalf("report = %+v", rep)
	}
	if f.dev.calls != 1 || f.compiler.calls != 0 {
		t.Fatalf("developer=%d compiler=%d", f.dev.calls, f.compiler.calls)
	}
}

func TestExecute_LedgerAndMetrics(t *testing.T) {
	f := newFixture(t)
	l, err := ledger.Open(filepath.Join(f.root, ".codegen", "history.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	f.o.Ledger = l
	f.o.Metrics = metrics.New()
	f.dev.rounds = append(f.dev.rounds,
		f.round(t, "1_m.ts", without(sections.RequiredBuckets(), sections.BucketE2ETests)...),
		f.round(t, "", sections.BucketE2ETests),
	)

	if _, err := f.o.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	rounds, err := l.Rounds(context.Background(), "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rounds) != 2 {
		t.Fatalf("rounds = %d, want 2", len(rounds))
	}
	if !slices.Equal(rounds[0].Missing, []string{sections.BucketE2ETests}) || !rounds[1].Success {
		t.Fatalf("rounds = %+v", rounds)
	}
	runs, err := l.Runs(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != state.StatusCompleted {
		t.Fatalf("runs = %+v", runs)
	}
	if _, err := os.Stat(state.MetricsPath(f.o.ArtifactsDir)); err != nil {
		t.Fatalf("metrics file: %v", err)
	}
}

func TestErrorText(t *testing.T) {
	cases := []struct {
		ok        bool
		output    string
		validated string
		want      string
	}{
		{true, "", "", ""},
		{true, "", "Next files were not generated: A", "Next files were not generated: A"},
		{false, "boom", "", "boom"},
		{false, "boom", "Next files were not generated: A", "boom\n\nNext files were not generated: A"},
	}
	for _, c := range cases {
		got := errorText(&dispatch.Result{Success: c.ok, Output: c.output}, c.validated)
		if got != c.want {
			t.Errorf("errorText(%v, %q, %q) = %q, want %q", c.ok, c.output, c.validated, got, c.want)
		}
	}
	if notGenerated(nil) != "" {
		t.Error("notGenerated(nil) should be empty")
	}
}

// Package app builds the long-lived collaborators of a codegen invocation
// once and hands them to the commands that need them.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jorge-barreto/codegen/internal/agent"
	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/dispatch"
	"github.com/jorge-barreto/codegen/internal/ledger"
	"github.com/jorge-barreto/codegen/internal/llm"
	"github.com/jorge-barreto/codegen/internal/logging"
	"github.com/jorge-barreto/codegen/internal/metrics"
	"github.com/jorge-barreto/codegen/internal/naming"
	"github.com/jorge-barreto/codegen/internal/orchestrator"
	"github.com/jorge-barreto/codegen/internal/prompt"
	"github.com/jorge-barreto/codegen/internal/sections"
	"github.com/jorge-barreto/codegen/internal/state"
)

// Options customize App construction. The zero value reads the process
// environment and logs to stderr.
type Options struct {
	Getenv func(string) string
	Stderr io.Writer
	// Echo receives compiler and test output as it is produced. Nil keeps
	// it in the log files only.
	Echo io.Writer
	// Client replaces provider selection when set.
	Client llm.Client
}

// App is the context shared by every command.
type App struct {
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *metrics.Recorder
	Ledger  *ledger.Ledger
	Client  llm.Client

	getenv func(string) string
	echo   io.Writer
}

// New loads .env and the project config, then opens the logger and the
// metrics registry. The LLM client and the ledger are opened on demand.
func New(projectRoot string, opts Options) (*App, error) {
	getenv := opts.Getenv
	if getenv == nil {
		if err := config.LoadDotEnv(projectRoot); err != nil {
			return nil, err
		}
		getenv = os.Getenv
	}
	cfg, err := config.Load(config.Path(projectRoot), projectRoot, getenv)
	if err != nil {
		return nil, err
	}
	logFile := ""
	if cfg.Log.File != "" {
		logFile = cfg.Abs(cfg.Log.File)
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, File: logFile, Stderr: opts.Stderr})
	if err != nil {
		return nil, err
	}
	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Client:  opts.Client,
		getenv:  getenv,
		echo:    opts.Echo,
	}, nil
}

// Connect selects the configured provider and builds its client with the
// retry policy from config.
func (a *App) Connect(ctx context.Context) error {
	if a.Client != nil {
		return nil
	}
	s, err := llm.Select(a.getenv, llm.Provider(a.Config.LLM.Provider), a.Config.LLM.Model)
	if err != nil {
		return err
	}
	policy := llm.DefaultRetryPolicy()
	policy.MaxRetries = a.Config.LLM.RetryMax
	policy.OnRetry = func(p llm.Provider, attempt int, err error) {
		a.Metrics.IncRetry(string(p))
	}
	client, err := llm.New(ctx, s, llm.Options{Retry: policy, Logger: a.Logger.Logger})
	if err != nil {
		return err
	}
	a.Client = client
	return nil
}

// OpenLedger opens the run history database. An empty ledger path leaves
// the ledger nil, which every ledger method tolerates.
func (a *App) OpenLedger() error {
	if a.Ledger != nil || a.Config.Ledger == "" {
		return nil
	}
	path := a.Config.Abs(a.Config.Ledger)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	l, err := ledger.Open(path, a.Logger.Logger)
	if err != nil {
		return err
	}
	a.Ledger = l
	return nil
}

// Router returns the section router for module.
func (a *App) Router(module string) *sections.Router {
	l := a.Config.Layout
	return sections.NewRouter(sections.Layout{
		Root:          a.Config.ProjectRoot,
		ModulesDir:    l.ModulesDir,
		MigrationsDir: l.MigrationsDir,
		Ext:           l.SourceExt,
		Shared:        l.Shared,
	}, module)
}

// NewOrchestrator wires a fresh run for module. Connect must have
// succeeded first.
func (a *App) NewOrchestrator(module, description string) (*orchestrator.Orchestrator, error) {
	if err := naming.CheckModule(module); err != nil {
		return nil, err
	}
	if a.Client == nil {
		return nil, llm.ErrNoProvider
	}
	cfg := a.Config
	runID := uuid.NewString()
	artifactsDir := cfg.ArtifactsDir(module)
	logger := a.Logger.With("run_id", runID, "module", module)

	router := a.Router(module)
	deps := agent.Deps{
		Config:       cfg,
		Client:       a.Client,
		Prompts:      prompt.New(cfg.ProjectRoot, promptsDir(cfg), logger),
		Router:       router,
		Writer:       sections.NewWriter(router, logger),
		Metrics:      a.Metrics,
		Logger:       logger,
		Description:  description,
		ArtifactsDir: artifactsDir,
	}
	developer, err := agent.NewDeveloper(deps)
	if err != nil {
		return nil, err
	}
	troubleshooter, err := agent.NewTroubleshooter(deps)
	if err != nil {
		return nil, err
	}
	testsFixer, err := agent.NewTestsFixer(deps)
	if err != nil {
		return nil, err
	}

	env := &dispatch.Environment{
		ProjectRoot:  cfg.ProjectRoot,
		ArtifactsDir: artifactsDir,
		Module:       module,
		RunID:        runID,
	}
	timeout := time.Duration(cfg.Commands.Timeout) * time.Minute

	return &orchestrator.Orchestrator{
		Config:         cfg,
		State:          state.New(runID, module, description),
		Router:         router,
		ArtifactsDir:   artifactsDir,
		Developer:      developer,
		Troubleshooter: troubleshooter,
		TestsFixer:     testsFixer,
		Compiler:       &dispatch.Compiler{Command: cfg.Commands.Compile, Env: env, Timeout: timeout, Echo: a.echo},
		Tests:          &dispatch.TestRunner{Command: cfg.Commands.Test, Env: env.Clone(), Timeout: timeout, Echo: a.echo},
		Ledger:         a.Ledger,
		Metrics:        a.Metrics,
		Logger:         logger,
		Provider:       string(a.Client.Provider()),
		Model:          a.Client.Model(),
	}, nil
}

func promptsDir(cfg *config.Config) string {
	if cfg.PromptsDir == "" {
		return ""
	}
	return cfg.Abs(cfg.PromptsDir)
}

// Close releases the ledger and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.Ledger.Close(); err != nil {
		firstErr = fmt.Errorf("closing ledger: %w", err)
	}
	if err := a.Logger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

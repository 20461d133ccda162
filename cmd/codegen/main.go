package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/codegen/internal/app"
	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/dispatch"
	"github.com/jorge-barreto/codegen/internal/docs"
	"github.com/jorge-barreto/codegen/internal/doctor"
	"github.com/jorge-barreto/codegen/internal/naming"
	"github.com/jorge-barreto/codegen/internal/scaffold"
	"github.com/jorge-barreto/codegen/internal/state"
	"github.com/jorge-barreto/codegen/internal/ux"
)

func main() {
	cmd := &cli.Command{
		Name:        "codegen",
		Usage:       "Generate API modules with an LLM and repair them until they compile and pass their tests",
		Description: "Run 'codegen docs' for documentation on config, providers, the pipeline and prompts.",
		Commands: []*cli.Command{
			initCmd(),
			runCmd(),
			statusCmd(),
			historyCmd(),
			doctorCmd(),
			docsCmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", ux.Red, ux.Reset, err)
		os.Exit(1)
	}
}

func rootFlag() cli.Flag {
	return &cli.StringFlag{Name: "root", Usage: "Project root (default: nearest directory with .codegen/config.yaml, else cwd)"}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Generate a module, then fix compile errors and failing tests",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "module", Aliases: []string{"m"}, Usage: "Module name, pluralized (book -> books)"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "What the module does"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Stream compiler and test output"},
			rootFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			projectRoot, err := findProjectRoot(cmd.String("root"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			description, module, err := collectInput(ctx, os.Stdin, cmd.String("description"), cmd.String("module"))
			if err != nil {
				return err
			}
			module = naming.Plural(module)
			if module == "" {
				fmt.Fprintf(ux.Out, "%sModule name is empty, nothing to generate.%s\n", ux.Yellow, ux.Reset)
				return nil
			}
			if err := naming.CheckModule(module); err != nil {
				return err
			}

			opts := app.Options{}
			if cmd.Bool("verbose") {
				opts.Echo = ux.Out
			}
			a, err := app.New(projectRoot, opts)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			defer a.Close()

			if err := dispatch.Preflight(a.Config.Commands.Compile, a.Config.Commands.Test); err != nil {
				a.Logger.Warn("codegen:preflight", "error", err)
				fmt.Fprintf(ux.Out, "%swarning:%s %v\n", ux.Yellow, ux.Reset, err)
			}
			if err := a.Connect(ctx); err != nil {
				return err
			}
			if err := a.OpenLedger(); err != nil {
				a.Logger.Warn("codegen:ledger unavailable", "error", err)
			}

			o, err := a.NewOrchestrator(module, description)
			if err != nil {
				return err
			}
			report, err := o.Execute(ctx)
			if err != nil {
				return err
			}
			if report.Status != state.StatusCompleted {
				fmt.Fprintf(ux.Out, "%sRun 'codegen doctor' for a diagnosis.%s\n", ux.Dim, ux.Reset)
			}
			return nil
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the last run of a module",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "module", Aliases: []string{"m"}, Usage: "Module name (default: most recent)"},
			rootFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd.String("root"))
			if err != nil {
				return err
			}
			st, artifactsDir, err := lastRun(cfg, cmd.String("module"))
			if err != nil {
				return err
			}
			ux.RenderStatus(st, artifactsDir)
			return nil
		},
	}
}

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "List recorded runs, or the rounds of one run",
		ArgsUsage: "[run-id]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Number of runs to list"},
			rootFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			projectRoot, err := findProjectRoot(cmd.String("root"))
			if err != nil {
				return err
			}
			a, err := app.New(projectRoot, app.Options{})
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			defer a.Close()
			if a.Config.Ledger == "" {
				return fmt.Errorf("run history is disabled ('ledger' is empty in .codegen/config.yaml)")
			}
			if err := a.OpenLedger(); err != nil {
				return err
			}

			runs, err := a.Ledger.Runs(ctx, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			id := cmd.Args().First()
			if id == "" {
				ux.RenderHistory(runs)
				return nil
			}
			for _, r := range runs {
				if r.ID != id {
					continue
				}
				rounds, err := a.Ledger.Rounds(ctx, id)
				if err != nil {
					return err
				}
				ux.RenderRounds(r, rounds)
				return nil
			}
			return fmt.Errorf("run %q not found in the last %d runs", id, cmd.Int("limit"))
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Diagnose a failed run using the configured LLM",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "module", Aliases: []string{"m"}, Usage: "Module name (default: most recent)"},
			rootFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			projectRoot, err := findProjectRoot(cmd.String("root"))
			if err != nil {
				return err
			}
			a, err := app.New(projectRoot, app.Options{})
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			defer a.Close()

			st, artifactsDir, err := lastRun(a.Config, cmd.String("module"))
			if err != nil {
				return err
			}
			if doctor.Failed(st) {
				if err := a.Connect(ctx); err != nil {
					return err
				}
			}
			return doctor.Run(ctx, doctor.Input{
				Config:       a.Config,
				State:        st,
				ArtifactsDir: artifactsDir,
				Client:       a.Client,
			})
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create .codegen/ with a default config and editable prompt templates",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Usage: "Project root (default: cwd)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("root")
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = wd
			}
			return scaffold.Init(dir, ux.Out)
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Print("\nAvailable topics:\n\n")
				for _, t := range docs.All() {
					fmt.Printf("  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Println("\nRun 'codegen docs <topic>' to read a topic.")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}

func loadConfig(rootFlag string) (*config.Config, error) {
	projectRoot, err := findProjectRoot(rootFlag)
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(projectRoot); err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.Path(projectRoot), projectRoot, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// lastRun loads the state of module, or of the module run most recently.
func lastRun(cfg *config.Config, module string) (*state.State, string, error) {
	if module == "" {
		latest, err := state.LatestModule(cfg.ArtifactsRoot())
		if err != nil {
			return nil, "", err
		}
		if latest == "" {
			return nil, "", fmt.Errorf("no runs recorded in %s", cfg.ProjectRoot)
		}
		module = latest
	} else {
		module = naming.Plural(module)
		if err := naming.CheckModule(module); err != nil {
			return nil, "", err
		}
	}
	artifactsDir := cfg.ArtifactsDir(module)
	st, err := state.Load(artifactsDir)
	if err != nil {
		return nil, "", fmt.Errorf("loading state: %w", err)
	}
	if st == nil {
		return nil, "", fmt.Errorf("no run recorded for module %q", module)
	}
	return st, artifactsDir, nil
}

// findProjectRoot returns the --root flag, else walks up from cwd looking
// for .codegen/config.yaml, else falls back to cwd.
func findProjectRoot(flag string) (string, error) {
	if flag != "" {
		abs, err := filepath.Abs(flag)
		if err != nil {
			return "", err
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return "", fmt.Errorf("project root %s is not a directory", abs)
		}
		return abs, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := cwd; ; {
		if _, err := os.Stat(config.Path(dir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// Package agent holds the three LLM workers of a generation run. Each one
// fills its prompt template, sends it through the gateway and routes the
// answer to disk.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/llm"
	"github.com/jorge-barreto/codegen/internal/metrics"
	"github.com/jorge-barreto/codegen/internal/prompt"
	"github.com/jorge-barreto/codegen/internal/sections"
	"github.com/jorge-barreto/codegen/internal/state"
	"github.com/jorge-barreto/codegen/internal/ux"
)

// Usage is the token consumption reported by the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u *Usage) Add(in, out int) {
	u.InputTokens += in
	u.OutputTokens += out
}

// Sum adds usages together.
func Sum(us ...Usage) Usage {
	var total Usage
	for _, u := range us {
		total.Add(u.InputTokens, u.OutputTokens)
	}
	return total
}

// Deps are shared by every agent of a run.
type Deps struct {
	Config       *config.Config
	Client       llm.Client
	Prompts      *prompt.Assembler
	Router       *sections.Router
	Writer       *sections.Writer
	Metrics      *metrics.Recorder
	Logger       *slog.Logger
	Description  string
	ArtifactsDir string
}

type base struct {
	name     string
	template string
	deps     Deps
	logger   *slog.Logger
	usage    Usage
	round    int
}

func newBase(name, template string, d Deps) (base, error) {
	if d.Client == nil {
		return base{}, llm.ErrNoProvider
	}
	if d.Config == nil || d.Prompts == nil || d.Router == nil || d.Writer == nil {
		return base{}, fmt.Errorf("%s: incomplete dependencies", name)
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", name)
	logger.Info(name+":using LLM", "provider", d.Client.Provider(), "model", d.Client.Model())
	return base{name: name, template: template, deps: d, logger: logger}, nil
}

// Usage returns the tokens consumed so far.
func (b *base) Usage() Usage { return b.usage }

// run renders the template, calls the model and saves the answer. Every
// failure is logged and yields an empty FileSet.
func (b *base) run(ctx context.Context, mappings map[string]string) sections.FileSet {
	b.round++
	text, err := b.deps.Prompts.Render(b.template, mappings)
	if err != nil {
		b.logger.Error(b.name+":preparePrompt:error", "error", err)
		return sections.NewFileSet()
	}
	if b.deps.ArtifactsDir != "" {
		if err := state.WriteFileAtomic(state.PromptPath(b.deps.ArtifactsDir, b.name, b.round), []byte(text), 0644); err != nil {
			b.logger.Warn(b.name+":preparePrompt:save", "error", err)
		}
	}

	client := b.deps.Client
	cfg := b.deps.Config.LLM
	estimated := llm.CountTokens(text)
	b.logger.Info(b.name+":execute:request", "round", b.round, "characters", len(text), "estimated_tokens", estimated)

	ux.RequestStart(b.name)
	start := time.Now()
	resp, err := client.Complete(ctx, llm.Request{
		Prompt:      text,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	elapsed := time.Since(start)
	if err != nil {
		ux.RequestFail(b.name, err)
		b.logger.Error(b.name+":execute:error", "error", err, "elapsed", elapsed)
		b.deps.Metrics.ObserveRequest(b.name, string(client.Provider()), client.Model(), 0, 0, false, llm.ErrorType(err), elapsed)
		return sections.NewFileSet()
	}
	ux.RequestDone(b.name, elapsed)

	in, out := resp.InputTokens, resp.OutputTokens
	if in == 0 && out == 0 {
		in, out = estimated, llm.CountTokens(resp.Content)
		b.logger.Warn(b.name+":execute:usage estimated", "input_tokens", in, "output_tokens", out)
	}
	b.usage.Add(in, out)
	b.deps.Metrics.ObserveRequest(b.name, string(client.Provider()), client.Model(), in, out, true, "", elapsed)

	fs, rep := b.deps.Writer.Save(resp.Content)
	b.deps.Metrics.ObserveSections(len(rep.Written), rep.SkipReasons())
	return fs
}

func (b *base) load(ctx context.Context, sources map[string]string) (map[string]string, bool) {
	loaded, err := b.deps.Prompts.Load(ctx, sources)
	if err != nil {
		b.logger.Error(b.name+":preparePrompt:error", "error", err)
		return nil, false
	}
	loaded["PROJECT_DESCRIPTION"] = b.deps.Description
	return loaded, true
}

func (b *base) shared(key string) string {
	return b.deps.Config.Layout.Shared[key]
}

func (b *base) example(key string) string {
	return b.deps.Config.Examples.Files[key]
}

// serviceName strips the ".service<ext>" suffix from a service file name.
func (b *base) serviceName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, b.deps.Config.Layout.SourceExt)
	return strings.TrimSuffix(name, ".service")
}

// serviceBlocks renders service files as SERVICE sections. Bare file names are
// looked up in the module directory.
func (b *base) serviceBlocks(paths []string) string {
	blocks := make([]string, 0, len(paths))
	for _, p := range paths {
		if filepath.Base(p) == p {
			p = filepath.Join(b.deps.Router.ModuleDir(), p)
		}
		content := b.deps.Prompts.ReadSource("SERVICE", p)
		blocks = append(blocks, fmt.Sprintf("***SERVICE - %s:\r\n%s", b.serviceName(p), content))
	}
	return strings.Join(blocks, "\r\n\r\n")
}

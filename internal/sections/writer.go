package sections

import (
	"errors"
	"log/slog"

	"github.com/jorge-barreto/codegen/internal/state"
)

// Report summarizes one Save call.
type Report struct {
	Sections int
	Written  []string
	Skipped  []Skip
}

// SkipReasons counts skipped sections by reason label.
func (r Report) SkipReasons() map[string]int {
	out := make(map[string]int)
	for _, s := range r.Skipped {
		out[SkipReason(s.Err)]++
	}
	return out
}

// SkipReason labels a skip error.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrBadHeader):
		return "bad_header"
	case errors.Is(err, ErrEmptyContent):
		return "empty_content"
	case errors.Is(err, ErrUnknownSection):
		return "unknown_section"
	default:
		return "write_error"
	}
}

// Writer routes parsed sections to disk.
type Writer struct {
	router *Router
	logger *slog.Logger
}

func NewWriter(router *Router, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{router: router, logger: logger}
}

// Save parses text, writes every routable section and returns the buckets
// that were produced. Files are replaced, never merged.
func (w *Writer) Save(text string) (FileSet, Report) {
	w.logger.Info("sections:save", "module", w.router.Module(), "characters", len(text))

	parsed, skips := Parse(text)
	rep := Report{Sections: len(parsed) + len(skips), Skipped: skips}
	for _, s := range skips {
		w.logger.Error("sections:save:skip", "header", s.Header, "reason", SkipReason(s.Err), "error", s.Err)
	}

	fs := NewFileSet()
	for _, sec := range parsed {
		paths, err := w.router.Resolve(sec.Kind, sec.ClassName)
		if err != nil {
			w.logger.Error("sections:save:route", "header", sec.Header, "error", err)
			rep.Skipped = append(rep.Skipped, Skip{Header: sec.Header, Err: err})
			continue
		}
		bucket := sec.Kind.Bucket()
		if _, ok := fs[bucket]; !ok {
			fs[bucket] = []string{}
		}
		for _, p := range paths {
			if err := state.WriteFileAtomic(p, []byte(sec.Content), 0644); err != nil {
				w.logger.Error("sections:save:write", "path", p, "error", err)
				rep.Skipped = append(rep.Skipped, Skip{Header: sec.Header, Err: err})
				continue
			}
			fs[bucket] = append(fs[bucket], p)
			rep.Written = append(rep.Written, p)
		}
	}

	w.logger.Info("sections:save:done",
		"written", len(rep.Written),
		"skipped", len(rep.Skipped),
		"produced", fs.Produced())
	return fs, rep
}

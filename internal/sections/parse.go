// Package sections turns a model response into file writes. A response is a
// series of sections separated by "***" or "###"; the first line of each
// section is a header naming what the section contains.
package sections

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jorge-barreto/codegen/internal/naming"
)

var (
	ErrBadHeader      = errors.New("could not parse section header")
	ErrEmptyContent   = errors.New("empty section content")
	ErrUnknownSection = errors.New("unknown section name")
)

var (
	delimiterRe = regexp.MustCompile(`(?:\*{3}|#{3})\s*`)
	headerRe    = regexp.MustCompile(`(?i)(?:\d+\.\s*)?(\w+)`)
	classSepRe  = regexp.MustCompile(`\s+-\s+`)
)

// Section is one parsed block of a response.
type Section struct {
	Header    string
	Keyword   string
	Kind      Kind
	ClassName string
	Content   string
}

// Skip records a section that was dropped and why.
type Skip struct {
	Header string
	Err    error
}

// ParseHeader extracts the upper-cased keyword and optional class name from
// a header such as "1. SERVICE - AddTodo".
func ParseHeader(header string) (keyword, className string, err error) {
	m := headerRe.FindStringSubmatch(header)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q", ErrBadHeader, header)
	}
	parts := classSepRe.Split(strings.TrimSpace(header), 2)
	if len(parts) > 1 {
		className = naming.ExtractFileName(parts[1])
	}
	return strings.ToUpper(m[1]), className, nil
}

// cleanContent drops code-fence lines and trims the result.
func cleanContent(lines []string) string {
	kept := lines[:0:0]
	for _, l := range lines {
		if strings.HasPrefix(l, "`") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// Parse splits text into sections. Malformed sections are returned as skips;
// Parse itself never fails.
func Parse(text string) ([]Section, []Skip) {
	var out []Section
	var skips []Skip
	for _, chunk := range delimiterRe.Split(text, -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		lines := strings.Split(chunk, "\n")
		header := strings.TrimSpace(lines[0])
		if header == "" {
			continue
		}

		keyword, className, err := ParseHeader(header)
		if err != nil {
			skips = append(skips, Skip{Header: header, Err: err})
			continue
		}
		content := cleanContent(lines[1:])
		if content == "" {
			skips = append(skips, Skip{Header: header, Err: ErrEmptyContent})
			continue
		}
		kind, ok := ParseKind(keyword)
		if !ok {
			skips = append(skips, Skip{Header: header, Err: fmt.Errorf("%w: %s", ErrUnknownSection, keyword)})
			continue
		}
		out = append(out, Section{
			Header:    header,
			Keyword:   keyword,
			Kind:      kind,
			ClassName: className,
			Content:   content,
		})
	}
	return out, skips
}

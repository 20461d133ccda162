// Package naming holds the small string transforms used to turn a module
// name and LLM section headers into file names.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gertd/go-pluralize"
)

var plural = pluralize.NewClient()

// Plural returns the plural form of a module name ("todo" -> "todos").
// Already-plural names are returned unchanged.
func Plural(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if plural.IsPlural(name) {
		return name
	}
	return plural.Plural(name)
}

var moduleRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// CheckModule rejects module names that are not a single identifier-like
// path segment. The name becomes a directory under the modules dir and part
// of the migration file name.
func CheckModule(name string) error {
	if !moduleRe.MatchString(name) {
		return fmt.Errorf("invalid module name %q: use letters, digits, '_' or '-', starting with a letter", name)
	}
	return nil
}

// Capitalize upper-cases the first rune.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerFirst lower-cases the first rune.
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

var fileNameRe = regexp.MustCompile(`[-:]*\s*([A-Za-z][A-Za-z0-9]*)\W*$`)

// ExtractFileName pulls an identifier out of a loosely formatted header
// fragment such as "- getTodos:" and returns "" when none is present.
func ExtractFileName(s string) string {
	m := fileNameRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return m[1]
}

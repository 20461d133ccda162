// Package docs holds the topics printed by 'codegen docs'.
package docs

import (
	"fmt"
	"strings"
)

// Topic holds a single documentation article.
type Topic struct {
	Name    string // short slug used as CLI argument
	Title   string // human-readable title
	Summary string // one-line description for topic listing
	Content string // full article text (plain text, no ANSI)
}

// All returns every topic in display order.
func All() []Topic {
	return topics
}

// Get looks up a topic by name, ignoring case.
func Get(name string) (Topic, error) {
	for _, t := range topics {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			return t, nil
		}
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return Topic{}, fmt.Errorf("unknown topic %q (available: %s)", name, strings.Join(names, ", "))
}

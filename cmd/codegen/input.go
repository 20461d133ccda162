package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// collectInput fills in the module description and name not given as
// flags. A terminal gets a form; anything else is read line by line,
// description first.
func collectInput(ctx context.Context, in *os.File, description, module string) (string, string, error) {
	if description != "" && module != "" {
		return description, module, nil
	}
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		return promptForm(ctx, description, module)
	}
	return readLines(in, description, module)
}

func promptForm(ctx context.Context, description, module string) (string, string, error) {
	var fields []huh.Field
	if description == "" {
		fields = append(fields, huh.NewText().
			Title("Module description").
			Description("What the new API module should do").
			Value(&description))
	}
	if module == "" {
		fields = append(fields, huh.NewInput().
			Title("Module name").
			Description("Singular or plural, e.g. book").
			Value(&module))
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", "", nil
		}
		return "", "", err
	}
	return strings.TrimSpace(description), strings.TrimSpace(module), nil
}

// readLines reads the missing values from r. EOF leaves a value empty.
func readLines(r io.Reader, description, module string) (string, string, error) {
	br := bufio.NewReader(r)
	next := func() (string, error) {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	var err error
	if description == "" {
		if description, err = next(); err != nil {
			return "", "", err
		}
	}
	if module == "" {
		if module, err = next(); err != nil {
			return "", "", err
		}
	}
	return description, module, nil
}

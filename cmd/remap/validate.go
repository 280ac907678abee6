package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/rendis/remap/internal/validation"
)

func runValidate(cfg Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	remapperPath := fs.String("remapper", "", "remapper document, JSON or YAML (- for stdin)")
	maxDepth := fs.Int("max-depth", cfg.MaxDepth, "deepest allowed operator nesting (0 = unlimited)")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *remapperPath == "" {
		fs.Usage()
		return fmt.Errorf("validate: -remapper is required")
	}

	doc, err := readDocument(*remapperPath, stdin)
	if err != nil {
		return err
	}
	result, err := validation.ValidateDocument(doc, validation.Options{MaxDepth: *maxDepth})
	if err != nil {
		return err
	}

	if *asJSON {
		if err := writeJSON(stdout, map[string]any{
			"valid":    result.Valid(),
			"errors":   result.Errors,
			"warnings": result.Warnings,
		}, false); err != nil {
			return err
		}
	} else {
		for _, issue := range result.Errors {
			fmt.Fprintf(stdout, "error   %s %s: %s\n", issue.Path, issue.Code, issue.Message)
		}
		for _, issue := range result.Warnings {
			fmt.Fprintf(stdout, "warning %s %s: %s\n", issue.Path, issue.Code, issue.Message)
		}
		if result.Valid() {
			fmt.Fprintln(stdout, "ok")
		}
	}

	if !result.Valid() {
		return errInvalid
	}
	return nil
}

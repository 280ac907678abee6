package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rendis/remap/internal/engine"
	"github.com/rendis/remap/internal/logging"
	"github.com/rendis/remap/internal/remap"
)

func runEval(ctx context.Context, cfg Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(stderr)
	remapperPath := fs.String("remapper", "", "remapper document, JSON or YAML (- for stdin)")
	inputPath := fs.String("input", "", "input value, JSON or YAML (- for stdin; default null)")
	contextPath := fs.String("context", "", "evaluation context file (appId, locale, member, variables, ...)")
	historyPath := fs.String("history", "", "history list, JSON or YAML")
	messagesPath := fs.String("messages", cfg.Messages, "message catalog {locale: {id: template}}")
	locale := fs.String("locale", "", "locale (overrides the context file)")
	appID := fs.Int64("app-id", 0, "app id (overrides the context file)")
	each := fs.Bool("each", false, "treat the input as a list and evaluate every element")
	envelope := fs.Bool("envelope", false, "print the evaluation id, timing and error with the output")
	compact := fs.Bool("compact", false, "print compact JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *remapperPath == "" {
		fs.Usage()
		return fmt.Errorf("eval: -remapper is required")
	}
	if *remapperPath == "-" && *inputPath == "-" {
		return fmt.Errorf("eval: -remapper and -input cannot both read stdin")
	}

	remapper, err := readDocument(*remapperPath, stdin)
	if err != nil {
		return err
	}
	var input any
	if *inputPath != "" {
		if input, err = readDocument(*inputPath, stdin); err != nil {
			return err
		}
	}
	env, err := readEnvironment(*contextPath, stdin)
	if err != nil {
		return err
	}
	if *historyPath != "" {
		doc, err := readDocument(*historyPath, stdin)
		if err != nil {
			return err
		}
		history, ok := doc.([]any)
		if !ok {
			return fmt.Errorf("%s: history must be a list", *historyPath)
		}
		env.History = history
	}
	if *locale != "" {
		env.Locale = *locale
	}
	if *appID != 0 {
		env.AppID = *appID
	}

	cfg.Messages = *messagesPath
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	exec, err := newExecutor(cfg, logger)
	if err != nil {
		return err
	}
	defer exec.Close()

	ctx = logging.WithSurface(ctx, "cli")
	req := engine.Request{Remapper: remapper, Input: input, Env: env}

	if *each {
		inputs, ok := input.([]any)
		if !ok {
			return fmt.Errorf("eval: -each needs a list input")
		}
		results, err := exec.EvaluateEach(ctx, req, inputs)
		if err != nil {
			return err
		}
		if *envelope {
			return writeJSON(stdout, results, *compact)
		}
		outputs := make([]any, len(results))
		for i, r := range results {
			if r.Error != nil {
				return fmt.Errorf("input %d: %w", i, r.Error)
			}
			outputs[i] = r.Output
		}
		return writeJSON(stdout, outputs, *compact)
	}

	result, err := exec.Evaluate(ctx, req)
	if err != nil {
		if *envelope && result != nil {
			if werr := writeJSON(stdout, result, *compact); werr != nil {
				return werr
			}
		}
		return err
	}
	if *envelope {
		return writeJSON(stdout, result, *compact)
	}
	return writeJSON(stdout, result.Output, *compact)
}

// readEnvironment decodes a context file. An empty path is the zero
// Environment.
func readEnvironment(path string, stdin io.Reader) (remap.Environment, error) {
	var env remap.Environment
	if path == "" {
		return env, nil
	}
	data, err := readFile(path, stdin)
	if err != nil {
		return env, err
	}
	if err := yaml.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("%s: %w", path, err)
	}
	return env, nil
}

func writeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

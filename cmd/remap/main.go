// Command remap evaluates remapper documents from the command line and
// serves them over MCP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: remap <command> [flags]

commands:
  eval       evaluate a remapper document against input data
  validate   check a remapper document without evaluating it
  operators  list the available operators
  serve      serve the remap MCP tools over stdio
  init       write ~/.remap/settings.json
  version    print the version
`

// errInvalid marks a command that ran but reported a negative outcome
// (an invalid document). Its details are already printed.
var errInvalid = errors.New("invalid")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err == nil {
		return
	}
	if !errors.Is(err, errInvalid) && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version", "-version", "--version":
		printVersion(stdout)
		return nil
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	case "init":
		return runInit(rest, stdout, stderr)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch cmd {
	case "eval":
		return runEval(ctx, cfg, rest, stdin, stdout, stderr)
	case "validate":
		return runValidate(cfg, rest, stdin, stdout, stderr)
	case "operators":
		return runOperators(rest, stdout, stderr)
	case "serve":
		return runServe(ctx, cfg, rest, stderr)
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
	return flag.ErrHelp
}

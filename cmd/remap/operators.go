package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rendis/remap/internal/remap"
)

func runOperators(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("operators", flag.ContinueOnError)
	fs.SetOutput(stderr)
	family := fs.String("family", "", "only list operators of this family")
	asJSON := fs.Bool("json", false, "print the operators as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	type operator struct {
		Name        string `json:"name"`
		Family      string `json:"family"`
		Description string `json:"description"`
	}
	ops := make([]operator, 0)
	for _, def := range remap.Definitions() {
		if *family != "" && def.Family != *family {
			continue
		}
		ops = append(ops, operator{Name: def.Name, Family: def.Family, Description: def.Description})
	}

	if *asJSON {
		return writeJSON(stdout, ops, false)
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, op := range ops {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", op.Name, op.Family, op.Description)
	}
	return tw.Flush()
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chosenoffset/reckon/pkg/reckon/variables"
)

var errCycles = errors.New("circular references found")

// report is the outcome of check.
type report struct {
	Order    []string   `json:"order,omitempty"`
	Cycles   [][]string `json:"cycles,omitempty"`
	Formulas []entry    `json:"formulas,omitempty"`
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate a definition file",
		Long: `Compile every variable and formula of --config, report declared
circular references and print the order in which variables resolve.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(a, cmd); err != nil {
				return err
			}
			c, err := a.loadConfig()
			if err != nil {
				return err
			}
			compiler, registry, err := a.environment(c)
			if err != nil {
				return err
			}
			formulas, err := c.CompileFormulas(compiler)
			if err != nil {
				return err
			}

			var rep report
			rep.Cycles = variables.DetectCycles(registry)
			if len(rep.Cycles) == 0 {
				if rep.Order, err = variables.EvaluationOrder(registry); err != nil {
					return err
				}
				for _, f := range formulas {
					v, err := f.Result.Resolve(registry)
					rep.Formulas = append(rep.Formulas, newEntry(f.Name, v, err))
				}
			}

			if err := a.printReport(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if len(rep.Cycles) > 0 {
				return errCycles
			}
			return nil
		},
	}
}

func (a *app) printReport(w io.Writer, rep report) error {
	if a.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	for _, cycle := range rep.Cycles {
		fmt.Fprintf(w, "cycle: %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
	}
	if len(rep.Order) > 0 {
		fmt.Fprintf(w, "order: %s\n", strings.Join(rep.Order, ", "))
	}
	if len(rep.Formulas) > 0 {
		return a.printEntries(w, rep.Formulas)
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chosenoffset/reckon/pkg/reckon/config"
)

var errEvaluation = errors.New("one or more evaluations failed")

func newEvalCmd(a *app) *cobra.Command {
	var assignments []string

	cmd := &cobra.Command{
		Use:   "eval FORMULA...",
		Short: "Evaluate formulas",
		Long: `Evaluate each formula against the variables of --config, after applying
--var assignments. Assigned names that are not defined become mutable
variables.`,
		Example: `  reckon eval "2 + 3 * 4"
  reckon eval "(a + b) * rate" --var a=1 --var b=2 --var rate=0.5
  reckon eval total monthly --config loan.yaml -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadConfig()
			if err != nil {
				return err
			}
			compiler, registry, err := a.environment(c)
			if err != nil {
				return err
			}

			for _, s := range assignments {
				name, v, err := parseAssignment(s)
				if err != nil {
					return err
				}
				if err := assign(registry, name, v); err != nil {
					return err
				}
			}

			entries := make([]entry, 0, len(args))
			failed := false
			for _, formula := range args {
				v, err := compiler.Evaluate(formula, registry)
				if err != nil {
					failed = true
					a.logger.Warn("evaluation failed", slog.String("formula", formula), slog.String("error", err.Error()))
				}
				entries = append(entries, newEntry(formula, v, err))
			}

			if err := a.printEntries(cmd.OutOrStdout(), entries); err != nil {
				return err
			}
			if failed {
				return errEvaluation
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&assignments, "var", nil, "variable assignment name=value (repeatable)")
	return cmd
}

// evaluateConfig resolves every variable and formula c defines.
func (a *app) evaluateConfig(c *config.Config) ([]entry, error) {
	compiler, registry, err := a.environment(c)
	if err != nil {
		return nil, err
	}
	formulas, err := c.CompileFormulas(compiler)
	if err != nil {
		return nil, err
	}

	entries := make([]entry, 0, registry.Len()+len(formulas))
	for name := range registry.All() {
		v, err := registry.GetValue(name)
		entries = append(entries, newEntry(name, v, err))
	}
	for _, f := range formulas {
		v, err := f.Result.Resolve(registry)
		entries = append(entries, newEntry(f.Name, v, err))
	}
	return entries, nil
}

func requireConfig(a *app, cmd *cobra.Command) error {
	if a.configPath == "" {
		return fmt.Errorf("%s requires --config", cmd.Name())
	}
	return nil
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chosenoffset/reckon/pkg/reckon"
	"github.com/chosenoffset/reckon/pkg/reckon/config"
	"github.com/chosenoffset/reckon/pkg/reckon/variables"
)

// app carries the flags and runtime objects shared by every subcommand.
type app struct {
	logLevel   string
	output     string
	configPath string

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "reckon",
		Short: "Compile and evaluate formulas over named variables",
		Long: `reckon compiles infix formulas and evaluates them against a registry of
variables, detecting circular references between them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), a.logLevel)
			if err != nil {
				return err
			}
			a.logger = logger

			switch a.output {
			case outputText, outputJSON:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want %s or %s)", a.output, outputText, outputJSON)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.StringVarP(&a.output, "output", "o", outputText, "output format: text or json")
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML definition file")

	rootCmd.AddCommand(newEvalCmd(a), newCheckCmd(a), newWatchCmd(a))
	return rootCmd
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

// loadConfig reads --config, or returns defaults when it is not set.
func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath == "" {
		return config.Default(), nil
	}
	c, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	a.logger.Info("configuration loaded",
		slog.String("path", a.configPath),
		slog.Int("variables", len(c.Variables)),
		slog.Int("formulas", len(c.Formulas)))
	return c, nil
}

// environment builds the compiler and registry described by c.
func (a *app) environment(c *config.Config) (*reckon.Compiler, *variables.Registry, error) {
	compiler := c.NewCompiler(reckon.WithLogger(a.logger))
	registry, err := c.Registry(compiler, variables.WithLogger(a.logger))
	if err != nil {
		return nil, nil, err
	}
	return compiler, registry, nil
}

// parseAssignment splits "name=value".
func parseAssignment(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("invalid --var %q: want name=value", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --var %q: %w", s, err)
	}
	return name, v, nil
}

// assign sets name on r, adding it as a Mutable when absent.
func assign(r *variables.Registry, name string, value float64) error {
	if r.ContainsVariable(name) {
		return r.SetValue(name, value)
	}
	m, err := variables.NewMutable(name, value)
	if err != nil {
		return err
	}
	return r.AddVariable(m)
}

// Package config loads variable and formula definitions from YAML and turns
// them into compilers and registries.
//
// A definition file looks like:
//
//	limits:
//	  max_formula_length: 4096
//	registry:
//	  max_depth: 256
//	variables:
//	  - name: principal
//	    kind: mutable
//	    value: 1000
//	  - name: interest
//	    kind: lazy
//	    formula: principal * rate
//	    thread_safe: true
//	  - name: rate
//	    kind: constant
//	    value: 0.05
//	formulas:
//	  - name: total
//	    expression: principal + interest
//
// Variables may refer to each other in any order; resolution happens when
// values are read.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/chosenoffset/reckon/pkg/reckon"
	"github.com/chosenoffset/reckon/pkg/reckon/variables"
)

// MaxFileSize bounds definition files read by Load.
const MaxFileSize = 1 << 20

// Variable kinds.
const (
	KindConstant  = "constant"
	KindMutable   = "mutable"
	KindDelegate  = "delegate"
	KindLazy      = "lazy"
	KindAggregate = "aggregate"
)

// Environment variables that override file settings.
const (
	EnvMaxFormulaLength     = "RECKON_MAX_FORMULA_LENGTH"
	EnvMaxNestingDepth      = "RECKON_MAX_NESTING_DEPTH"
	EnvMaxFormulaComplexity = "RECKON_MAX_FORMULA_COMPLEXITY"
	EnvMaxResolutionDepth   = "RECKON_MAX_RESOLUTION_DEPTH"
)

// ErrFileTooLarge is returned when a definition file exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("config: file too large")

// Config is a complete definition file.
type Config struct {
	Limits    LimitsConfig     `yaml:"limits"`
	Registry  RegistryConfig   `yaml:"registry"`
	Variables []VariableConfig `yaml:"variables" validate:"unique=Name,dive"`
	Formulas  []FormulaConfig  `yaml:"formulas" validate:"unique=Name,dive"`
}

// LimitsConfig mirrors reckon.Limits.
type LimitsConfig struct {
	MaxFormulaLength     int `yaml:"max_formula_length" validate:"gte=0"`
	MaxNestingDepth      int `yaml:"max_nesting_depth" validate:"gte=0"`
	MaxFormulaComplexity int `yaml:"max_formula_complexity" validate:"gte=0"`
}

// RegistryConfig configures built registries.
type RegistryConfig struct {
	MaxDepth int `yaml:"max_depth" validate:"gte=0"`
}

// VariableConfig declares one variable. Formula is required for delegate
// and lazy kinds; Sum lists the members of an aggregate and, when empty,
// means every other variable.
type VariableConfig struct {
	Name       string   `yaml:"name" validate:"required,identifier"`
	Kind       string   `yaml:"kind" validate:"required,oneof=constant mutable delegate lazy aggregate"`
	Value      float64  `yaml:"value"`
	Formula    string   `yaml:"formula"`
	ThreadSafe bool     `yaml:"thread_safe"`
	Sum        []string `yaml:"sum" validate:"dive,identifier"`
}

// FormulaConfig is a named formula evaluated against the registry.
type FormulaConfig struct {
	Name       string `yaml:"name" validate:"required"`
	Expression string `yaml:"expression" validate:"required"`
}

// Default returns a configuration with default limits and no definitions.
func Default() *Config {
	limits := reckon.DefaultLimits()
	return &Config{
		Limits: LimitsConfig{
			MaxFormulaLength:     limits.MaxFormulaLength,
			MaxNestingDepth:      limits.MaxNestingDepth,
			MaxFormulaComplexity: limits.MaxFormulaComplexity,
		},
		Registry: RegistryConfig{MaxDepth: variables.DefaultMaxDepth},
	}
}

// Load reads, parses and validates the file at path, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("load config %s: %w (%d bytes, max %d)", path, ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	c, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a definition. Unknown keys are rejected.
// Environment overrides are not applied.
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w (%d bytes, max %d)", ErrFileTooLarge, len(data), MaxFileSize)
	}
	c, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func parse(data []byte) (*Config, error) {
	c := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	overrides := []struct {
		key    string
		target *int
	}{
		{EnvMaxFormulaLength, &c.Limits.MaxFormulaLength},
		{EnvMaxNestingDepth, &c.Limits.MaxNestingDepth},
		{EnvMaxFormulaComplexity, &c.Limits.MaxFormulaComplexity},
		{EnvMaxResolutionDepth, &c.Registry.MaxDepth},
	}

	for _, o := range overrides {
		v, ok := lookup(o.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", o.key, err)
		}
		*o.target = n
	}
	return nil
}

// CompilerLimits converts the limits section.
func (c *Config) CompilerLimits() reckon.Limits {
	return reckon.Limits{
		MaxFormulaLength:     c.Limits.MaxFormulaLength,
		MaxNestingDepth:      c.Limits.MaxNestingDepth,
		MaxFormulaComplexity: c.Limits.MaxFormulaComplexity,
	}
}

// NewCompiler creates a compiler using the configured limits. opts are
// applied after the limits.
func (c *Config) NewCompiler(opts ...reckon.Option) *reckon.Compiler {
	return reckon.NewCompiler(append([]reckon.Option{reckon.WithLimits(c.CompilerLimits())}, opts...)...)
}

// Builder compiles every variable formula and queues the variables in file
// order. opts are applied to each registry the builder produces, after the
// configured depth limit.
func (c *Config) Builder(compiler *reckon.Compiler, opts ...variables.Option) (*variables.RegistryBuilder, error) {
	if compiler == nil {
		return nil, errors.New("config: compiler is nil")
	}

	b := variables.NewRegistryBuilder(append([]variables.Option{variables.WithMaxDepth(c.Registry.MaxDepth)}, opts...)...)
	for _, v := range c.Variables {
		switch v.Kind {
		case KindConstant:
			b.AddConstant(v.Name, v.Value)
		case KindMutable:
			b.AddMutable(v.Name, v.Value)
		case KindDelegate, KindLazy:
			res, err := compiler.Compile(v.Formula)
			if err != nil {
				return nil, fmt.Errorf("variable '%s': %w", v.Name, err)
			}
			if v.Kind == KindDelegate {
				b.AddDelegateCompiled(v.Name, res)
			} else {
				b.AddLazyCompiled(v.Name, res, v.ThreadSafe)
			}
		case KindAggregate:
			b.AddAggregate(v.Name, v.Sum...)
		default:
			return nil, fmt.Errorf("variable '%s': unknown kind %q", v.Name, v.Kind)
		}
	}

	if err := b.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

// Registry builds a registry from the variables section.
func (c *Config) Registry(compiler *reckon.Compiler, opts ...variables.Option) (*variables.Registry, error) {
	b, err := c.Builder(compiler, opts...)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// Formula is a compiled entry of the formulas section.
type Formula struct {
	Name   string
	Result *reckon.Result
}

// CompileFormulas compiles the formulas section in file order.
func (c *Config) CompileFormulas(compiler *reckon.Compiler) ([]Formula, error) {
	if compiler == nil {
		return nil, errors.New("config: compiler is nil")
	}

	out := make([]Formula, 0, len(c.Formulas))
	for _, f := range c.Formulas {
		res, err := compiler.Compile(f.Expression)
		if err != nil {
			return nil, fmt.Errorf("formula '%s': %w", f.Name, err)
		}
		out = append(out, Formula{Name: f.Name, Result: res})
	}
	return out, nil
}

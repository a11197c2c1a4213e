package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chosenoffset/reckon/pkg/reckon"
	"github.com/chosenoffset/reckon/pkg/reckon/variables"
)

const loanYAML = `
limits:
  max_formula_length: 256
  max_formula_complexity: 50
registry:
  max_depth: 32
variables:
  - name: total
    kind: aggregate
    sum: [principal, interest]
  - name: interest
    kind: lazy
    formula: principal * rate
    thread_safe: true
  - name: principal
    kind: mutable
    value: 1000
  - name: rate
    kind: constant
    value: 0.05
  - name: monthly
    kind: delegate
    formula: round(total / 12, 2)
formulas:
  - name: doubled
    expression: total * 2
  - name: fee
    expression: if(principal > 500, 10, 0)
`

func TestParseAndBuild(t *testing.T) {
	c, err := Parse([]byte(loanYAML))
	require.NoError(t, err)

	assert.Equal(t, reckon.Limits{
		MaxFormulaLength:     256,
		MaxNestingDepth:      reckon.DefaultLimits().MaxNestingDepth,
		MaxFormulaComplexity: 50,
	}, c.CompilerLimits())
	assert.Equal(t, 32, c.Registry.MaxDepth)

	compiler := c.NewCompiler()
	assert.Equal(t, 256, compiler.Limits().MaxFormulaLength)

	r, err := c.Registry(compiler)
	require.NoError(t, err)
	assert.Equal(t, []string{"total", "interest", "principal", "rate", "monthly"}, r.Names())

	v, err := r.GetValue("total")
	require.NoError(t, err)
	assert.InDelta(t, 1050, v, 1e-9)

	v, err = r.GetValue("monthly")
	require.NoError(t, err)
	assert.Equal(t, 87.5, v)

	interest, err := r.GetVariable("interest")
	require.NoError(t, err)
	lazy, ok := interest.(*variables.Lazy)
	require.True(t, ok)
	assert.True(t, lazy.ThreadSafe())

	formulas, err := c.CompileFormulas(compiler)
	require.NoError(t, err)
	require.Len(t, formulas, 2)
	assert.Equal(t, "doubled", formulas[0].Name)

	v, err = formulas[0].Result.Resolve(r)
	require.NoError(t, err)
	assert.InDelta(t, 2100, v, 1e-9)

	v, err = formulas[1].Result.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
}

func TestBuilderProducesIndependentRegistries(t *testing.T) {
	c, err := Parse([]byte(loanYAML))
	require.NoError(t, err)

	b, err := c.Builder(c.NewCompiler())
	require.NoError(t, err)

	first, err := b.Build()
	require.NoError(t, err)
	second, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, first.SetValue("principal", 2000))
	v, err := second.GetValue("principal")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, v)
}

func TestEmptyDocumentUsesDefaults(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		contains string
	}{
		{
			name:     "unknown key",
			yaml:     "limits:\n  max_lenght: 3\n",
			contains: "max_lenght",
		},
		{
			name:     "missing name",
			yaml:     "variables:\n  - kind: constant\n",
			contains: "Variables[0].Name is required",
		},
		{
			name:     "bad name",
			yaml:     "variables:\n  - name: 2x\n    kind: constant\n",
			contains: `"2x" is not a valid name`,
		},
		{
			name:     "bad kind",
			yaml:     "variables:\n  - name: x\n    kind: random\n",
			contains: "must be one of",
		},
		{
			name:     "duplicate variable",
			yaml:     "variables:\n  - name: x\n    kind: constant\n  - name: x\n    kind: mutable\n",
			contains: "Variables: duplicate name",
		},
		{
			name:     "delegate without formula",
			yaml:     "variables:\n  - name: x\n    kind: delegate\n",
			contains: "Formula is required for kind delegate",
		},
		{
			name:     "constant with formula",
			yaml:     "variables:\n  - name: x\n    kind: constant\n    formula: 1 + 1\n",
			contains: "Formula is not allowed for kind constant",
		},
		{
			name:     "sum outside aggregate",
			yaml:     "variables:\n  - name: x\n    kind: mutable\n    sum: [a]\n",
			contains: "Sum is not allowed for kind mutable",
		},
		{
			name:     "thread_safe outside lazy",
			yaml:     "variables:\n  - name: x\n    kind: delegate\n    formula: 2 * y\n    thread_safe: true\n",
			contains: "ThreadSafe is not allowed for kind delegate",
		},
		{
			name:     "negative limit",
			yaml:     "limits:\n  max_nesting_depth: -1\n",
			contains: "MaxNestingDepth must be >= 0",
		},
		{
			name:     "formula without expression",
			yaml:     "formulas:\n  - name: f\n",
			contains: "Formulas[0].Expression is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestBuilderReportsCompileErrors(t *testing.T) {
	c, err := Parse([]byte("variables:\n  - name: x\n    kind: delegate\n    formula: 1 +\n"))
	require.NoError(t, err)

	_, err = c.Registry(c.NewCompiler())
	require.ErrorIs(t, err, reckon.ErrSyntax)
	assert.Contains(t, err.Error(), "variable 'x'")

	_, err = c.Builder(nil)
	assert.Error(t, err)

	c, err = Parse([]byte("formulas:\n  - name: f\n    expression: nope(1)\n"))
	require.NoError(t, err)
	_, err = c.CompileFormulas(c.NewCompiler())
	require.ErrorIs(t, err, reckon.ErrUnknownFunction)
	assert.Contains(t, err.Error(), "formula 'f'")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(loanYAML), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Variables, 5)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsLargeFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.yaml")
	data := "# " + strings.Repeat("x", MaxFileSize) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = Parse([]byte(data))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(loanYAML), 0o600))

	t.Setenv(EnvMaxFormulaLength, "99")
	t.Setenv(EnvMaxResolutionDepth, "8")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 99, c.Limits.MaxFormulaLength)
	assert.Equal(t, 8, c.Registry.MaxDepth)
	assert.Equal(t, 50, c.Limits.MaxFormulaComplexity, "untouched settings keep file values")

	t.Setenv(EnvMaxNestingDepth, "deep")
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvMaxNestingDepth)

	t.Setenv(EnvMaxNestingDepth, "")
	t.Setenv(EnvMaxFormulaComplexity, "-5")
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxFormulaComplexity must be >= 0")
}

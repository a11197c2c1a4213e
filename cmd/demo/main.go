package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chosenoffset/reckon/pkg/reckon"
	"github.com/chosenoffset/reckon/pkg/reckon/metrics"
	"github.com/chosenoffset/reckon/pkg/reckon/variables"
)

func main() {
	fmt.Println("Starting Reckon ledger demo...")

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	collector := metrics.NewCollector(prometheus.NewRegistry())
	compiler := reckon.NewCompiler(reckon.WithLogger(logger), reckon.WithMetrics(collector))

	// Account balances are mutable; everything else derives from them.
	formulas := []struct {
		name    string
		formula string
		lazy    bool
	}{
		{name: "interest", formula: "savings * rate / 12", lazy: true},
		{name: "fees", formula: "if(checking < 500, 5, 0)"},
		{name: "net", formula: "total + interest - fees"},
	}

	builder := variables.NewRegistryBuilder(variables.WithLogger(logger)).
		AddMutable("checking", 1200).
		AddMutable("savings", 5000).
		AddConstant("rate", 0.04).
		AddAggregate("total", "checking", "savings")

	for _, f := range formulas {
		res, err := compiler.Compile(f.formula)
		if err != nil {
			log.Fatalf("Error compiling %s: %v", f.name, err)
		}
		if f.lazy {
			builder.AddLazyCompiled(f.name, res, true)
		} else {
			builder.AddDelegateCompiled(f.name, res)
		}
		fmt.Printf("Compiled %s = %s\n", f.name, res)
	}

	ledger, err := builder.Build()
	if err != nil {
		log.Fatalf("Error building ledger: %v", err)
	}

	order, err := variables.EvaluationOrder(ledger)
	if err != nil {
		log.Fatalf("Error ordering ledger: %v", err)
	}
	fmt.Println("Evaluation order:", order)
	printLedger(ledger)

	fmt.Println()
	fmt.Println("Transferring 900 from checking to savings...")
	transfer(ledger, "checking", "savings", 900)
	// interest is cached until reset.
	if v, ok := ledger.TryGetVariable("interest"); ok {
		if lazy, ok := v.(*variables.Lazy); ok {
			lazy.Reset()
		}
	}
	printLedger(ledger)

	fmt.Println()
	fmt.Println("Introducing a circular reference...")
	cyclic, err := variables.NewRegistryBuilder(variables.WithLogger(logger)).
		AddConstant("total", 100).
		AddDelegateCompiled("net", mustCompile(compiler, "total + bonus")).
		AddDelegateCompiled("bonus", mustCompile(compiler, "net * 0.1")).
		Build()
	if err != nil {
		log.Fatalf("Error building cyclic ledger: %v", err)
	}
	fmt.Println("Declared cycles:", variables.DetectCycles(cyclic))
	if _, err := cyclic.GetValue("net"); errors.Is(err, variables.ErrCircularReference) {
		fmt.Println("Caught:", err)
	}

	stats := collector.Stats()
	fmt.Println()
	fmt.Printf("Compilations: %d (errors: %d), evaluations: %d (errors: %d)\n",
		stats.Compilations, stats.CompileErrors, stats.Evaluations, stats.EvaluationErrors)
}

func mustCompile(c *reckon.Compiler, formula string) *reckon.Result {
	res, err := c.Compile(formula)
	if err != nil {
		log.Fatal(err)
	}
	return res
}

func transfer(r *variables.Registry, from, to string, amount float64) {
	src, err := r.GetValue(from)
	if err != nil {
		log.Fatal(err)
	}
	dst, err := r.GetValue(to)
	if err != nil {
		log.Fatal(err)
	}
	if err := r.SetValue(from, src-amount); err != nil {
		log.Fatal(err)
	}
	if err := r.SetValue(to, dst+amount); err != nil {
		log.Fatal(err)
	}
}

func printLedger(r *variables.Registry) {
	for name, v := range r.All() {
		value, err := v.Value()
		if err != nil {
			fmt.Printf("  %-10s error: %v\n", name, err)
			continue
		}
		fmt.Printf("  %-10s %10.2f\n", name, value)
	}
}

package functions

import "math"

// If is the name of the conditional. Compilers evaluate only the selected
// branch; its table entry exists for arity checks and direct calls.
const If = "if"

func unary(name string, fn func(float64) float64) Function {
	return Function{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Call: func(args []float64) (float64, error) {
			return fn(args[0]), nil
		},
	}
}

func binary(name string, fn func(float64, float64) float64) Function {
	return Function{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Call: func(args []float64) (float64, error) {
			return fn(args[0], args[1]), nil
		},
	}
}

func variadic(name string, fn func([]float64) float64) Function {
	return Function{
		Name:    name,
		MinArgs: 1,
		MaxArgs: Variadic,
		Call: func(args []float64) (float64, error) {
			return fn(args), nil
		},
	}
}

var builtins = []Function{
	unary("abs", math.Abs),
	unary("acos", math.Acos),
	unary("asin", math.Asin),
	unary("atan", math.Atan),
	binary("atan2", math.Atan2),
	unary("cbrt", math.Cbrt),
	unary("ceil", math.Ceil),
	unary("cos", math.Cos),
	unary("cosh", math.Cosh),
	unary("exp", math.Exp),
	unary("floor", math.Floor),
	unary("ln", math.Log),
	unary("log10", math.Log10),
	unary("log2", math.Log2),
	unary("sin", math.Sin),
	unary("sinh", math.Sinh),
	unary("sqrt", math.Sqrt),
	unary("tan", math.Tan),
	unary("tanh", math.Tanh),
	unary("sign", sign),
	binary("pow", math.Pow),
	binary("perc", func(value, total float64) float64 { return value / total * 100 }),
	variadic("max", func(args []float64) float64 {
		m := args[0]
		for _, a := range args[1:] {
			m = math.Max(m, a)
		}
		return m
	}),
	variadic("min", func(args []float64) float64 {
		m := args[0]
		for _, a := range args[1:] {
			m = math.Min(m, a)
		}
		return m
	}),
	variadic("sum", sum),
	variadic("avg", func(args []float64) float64 { return sum(args) / float64(len(args)) }),
	{
		// log(x) is base 10; log(x, b) is base b.
		Name:    "log",
		MinArgs: 1,
		MaxArgs: 2,
		Call: func(args []float64) (float64, error) {
			if len(args) == 1 {
				return math.Log10(args[0]), nil
			}
			return math.Log(args[0]) / math.Log(args[1]), nil
		},
	},
	{
		// round(x) rounds half away from zero; round(x, d) keeps d decimals.
		Name:    "round",
		MinArgs: 1,
		MaxArgs: 2,
		Call: func(args []float64) (float64, error) {
			if len(args) == 1 {
				return math.Round(args[0]), nil
			}
			scale := math.Pow(10, math.Trunc(args[1]))
			return math.Round(args[0]*scale) / scale, nil
		},
	},
	{
		Name:    "clamp",
		MinArgs: 3,
		MaxArgs: 3,
		Call: func(args []float64) (float64, error) {
			return math.Min(math.Max(args[0], args[1]), args[2]), nil
		},
	},
	{
		Name:    If,
		MinArgs: 3,
		MaxArgs: 3,
		Call: func(args []float64) (float64, error) {
			if args[0] != 0 {
				return args[1], nil
			}
			return args[2], nil
		},
	},
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return x
	}
}

func sum(args []float64) float64 {
	var s float64
	for _, a := range args {
		s += a
	}
	return s
}

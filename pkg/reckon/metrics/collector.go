// Package metrics records formula compilation and evaluation activity, both
// as Prometheus series and as an in-process snapshot.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reckon"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector tracks compile and evaluate outcomes. A nil *Collector is valid
// and records nothing.
type Collector struct {
	compilations    *prometheus.CounterVec
	compileDuration prometheus.Histogram
	evaluations     *prometheus.CounterVec

	compiled      int64
	rejected      int64
	evaluated     int64
	failed        int64
	totalCompileN int64 // nanoseconds
	maxCompileN   int64 // nanoseconds
	startTime     time.Time
}

// Stats is a point-in-time view of a Collector.
type Stats struct {
	Compilations      int64     `json:"compilations"`
	CompileErrors     int64     `json:"compile_errors"`
	Evaluations       int64     `json:"evaluations"`
	EvaluationErrors  int64     `json:"evaluation_errors"`
	AvgCompileTime    int64     `json:"avg_compile_time"` // Nanoseconds
	MaxCompileTime    int64     `json:"max_compile_time"` // Nanoseconds
	EvaluationRate    float64   `json:"evaluation_rate"`  // Per second
	EvaluationErrRate float64   `json:"evaluation_error_rate"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewCollector registers the reckon series on reg. A nil reg keeps the
// series unregistered, which suits tests and embedded use.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		compilations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compilations_total",
			Help:      "Formulas compiled, by result",
		}, []string{"result"}),
		compileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Time to compile a formula",
			Buckets:   []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Compiled formula evaluations, by result",
		}, []string{"result"}),
		startTime: time.Now(),
	}
}

// ObserveCompile records one Compile call.
func (c *Collector) ObserveCompile(d time.Duration, err error) {
	if c == nil {
		return
	}

	c.compileDuration.Observe(d.Seconds())
	if err != nil {
		c.compilations.WithLabelValues(ResultError).Inc()
		atomic.AddInt64(&c.rejected, 1)
		return
	}
	c.compilations.WithLabelValues(ResultOK).Inc()
	atomic.AddInt64(&c.compiled, 1)

	ns := d.Nanoseconds()
	atomic.AddInt64(&c.totalCompileN, ns)
	for {
		cur := atomic.LoadInt64(&c.maxCompileN)
		if ns <= cur || atomic.CompareAndSwapInt64(&c.maxCompileN, cur, ns) {
			break
		}
	}
}

// ObserveEvaluation records one evaluation of a compiled formula.
func (c *Collector) ObserveEvaluation(err error) {
	if c == nil {
		return
	}

	atomic.AddInt64(&c.evaluated, 1)
	if err != nil {
		c.evaluations.WithLabelValues(ResultError).Inc()
		atomic.AddInt64(&c.failed, 1)
		return
	}
	c.evaluations.WithLabelValues(ResultOK).Inc()
}

// Stats returns the current snapshot.
func (c *Collector) Stats() Stats {
	if c == nil {
		return Stats{Timestamp: time.Now()}
	}

	compiled := atomic.LoadInt64(&c.compiled)
	evaluated := atomic.LoadInt64(&c.evaluated)
	failed := atomic.LoadInt64(&c.failed)

	var avg int64
	if compiled > 0 {
		avg = atomic.LoadInt64(&c.totalCompileN) / compiled
	}

	var rate, errRate float64
	if elapsed := time.Since(c.startTime).Seconds(); elapsed > 0 {
		rate = float64(evaluated) / elapsed
	}
	if evaluated > 0 {
		errRate = float64(failed) / float64(evaluated) * 100
	}

	return Stats{
		Compilations:      compiled,
		CompileErrors:     atomic.LoadInt64(&c.rejected),
		Evaluations:       evaluated,
		EvaluationErrors:  failed,
		AvgCompileTime:    avg,
		MaxCompileTime:    atomic.LoadInt64(&c.maxCompileN),
		EvaluationRate:    rate,
		EvaluationErrRate: errRate,
		Timestamp:         time.Now(),
	}
}

// Reset zeroes the snapshot counters. Prometheus series are monotonic and
// are left untouched.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	atomic.StoreInt64(&c.compiled, 0)
	atomic.StoreInt64(&c.rejected, 0)
	atomic.StoreInt64(&c.evaluated, 0)
	atomic.StoreInt64(&c.failed, 0)
	atomic.StoreInt64(&c.totalCompileN, 0)
	atomic.StoreInt64(&c.maxCompileN, 0)
}

package sweep

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/magfield/internal/experiment"
)

// Grid evaluates a scene at every combination of parameter values and
// records one metric per combination.
type Grid struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGrid(params []string, ranges [][]float64) *Grid {
	return &Grid{paramNames: params, ranges: ranges, workers: 1}
}

// WithWorkers evaluates up to n trials concurrently.
func (g *Grid) WithWorkers(n int) *Grid {
	g.workers = max(n, 1)
	return g
}

// Size is the number of grid points.
func (g *Grid) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Table holds the trials in enumeration order: the last parameter varies
// fastest.
type Table struct {
	Metric string
	Trials []Trial
}

// Run evaluates every grid point. build must return an experiment ready to
// run. Failed trials are recorded with their error; Run itself fails only on
// a malformed grid or when ctx ends.
func (g *Grid) Run(
	ctx context.Context,
	build func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (*Table, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)

	trials := make([]Trial, len(points))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, p := range points {
		i, p := i, p
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := evaluate(ctx, build, p, metricName)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			trials[i] = Trial{Params: p, Value: val, Err: err}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &Table{Metric: metricName, Trials: trials}, nil
}

// Lowest returns the successful trial with the smallest value.
func (t *Table) Lowest() (Trial, bool) {
	return t.pick(func(v, best float64) bool { return v < best })
}

// Highest returns the successful trial with the largest value.
func (t *Table) Highest() (Trial, bool) {
	return t.pick(func(v, best float64) bool { return v > best })
}

// Failed counts trials that returned an error.
func (t *Table) Failed() int {
	n := 0
	for _, tr := range t.Trials {
		if tr.Err != nil {
			n++
		}
	}
	return n
}

func (t *Table) pick(better func(v, best float64) bool) (Trial, bool) {
	var best Trial
	found := false
	for _, tr := range t.Trials {
		if tr.Err != nil {
			continue
		}
		if !found || better(tr.Value, best.Value) {
			best, found = tr, true
		}
	}
	return best, found
}

func (g *Grid) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.enumerate(depth+1, newParams, out)
	}
}

func evaluate(ctx context.Context, build func(map[string]float64) (*experiment.Experiment, error), params map[string]float64, metricName string) (float64, error) {
	exp, err := build(params)
	if err != nil {
		return 0, err
	}
	run, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	val, ok := run.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("metric %s not reported", metricName)
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, fmt.Errorf("metric %s is %v", metricName, val)
	}
	return val, nil
}

// ParseRange reads "name=lo:hi:n" (n evenly spaced values) or
// "name=a,b,c".
func ParseRange(arg string) (string, []float64, error) {
	name, values, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || values == "" {
		return "", nil, fmt.Errorf("range %q: want name=lo:hi:n or name=a,b,c", arg)
	}

	if parts := strings.Split(values, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return "", nil, fmt.Errorf("range %q: bad lo:hi:n", arg)
		}
		out := make([]float64, n)
		for i := range out {
			if n == 1 {
				out[i] = lo
				continue
			}
			out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		return name, out, nil
	}

	var out []float64
	for _, p := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, fmt.Errorf("range %q: %w", arg, err)
		}
		out = append(out, v)
	}
	return name, out, nil
}

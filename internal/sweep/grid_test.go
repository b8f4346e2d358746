package sweep

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/magfield/internal/config"
	"github.com/san-kum/magfield/internal/experiment"
)

func builder(scene string, base map[string]float64, line config.LineConfig) func(map[string]float64) (*experiment.Experiment, error) {
	reg := experiment.NewRegistry()
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := config.DefaultConfig()
		cfg.Scene = scene
		cfg.Line = line
		cfg.Params = make(map[string]float64)
		for k, v := range base {
			cfg.Params[k] = v
		}
		for k, v := range params {
			cfg.Params[k] = v
		}
		exp := experiment.New(cfg, reg, nil)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

func TestSolenoidLengthSweep(t *testing.T) {
	line := config.LineConfig{Start: [3]float64{0, 0, -0.005}, End: [3]float64{0, 0, 0.005}, Points: 11}
	build := builder("solenoid", map[string]float64{"turns": 100, "diameter": 0.02}, line)

	g := NewGrid([]string{"length"}, [][]float64{{0.02, 0.2, 0.05}}).WithWorkers(3)
	table, err := g.Run(context.Background(), build, "homogeneity")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(table.Trials) != 3 || table.Failed() != 0 {
		t.Fatalf("expected 3 successful trials, got %+v", table.Trials)
	}
	for i, want := range []float64{0.02, 0.2, 0.05} {
		if got := table.Trials[i].Params["length"]; got != want {
			t.Errorf("trial %d: length %g, want %g", i, got, want)
		}
	}

	low, ok := table.Lowest()
	if !ok || low.Params["length"] != 0.2 {
		t.Errorf("expected the longest solenoid to be most uniform, got %+v", low)
	}
	high, _ := table.Highest()
	if high.Params["length"] != 0.02 {
		t.Errorf("expected the shortest solenoid to be least uniform, got %+v", high)
	}
}

func TestTwoParameterGrid(t *testing.T) {
	line := config.LineConfig{Start: [3]float64{0, 0, 0}, End: [3]float64{0, 0, 0.01}, Points: 3}
	g := NewGrid([]string{"current", "diameter"}, [][]float64{{1, 3, 2}, {0.01, 0.02}})
	if g.Size() != 6 {
		t.Fatalf("expected 6 grid points, got %d", g.Size())
	}

	table, err := g.Run(context.Background(), builder("loop", nil, line), "peak")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if got := table.Trials[1].Params; got["current"] != 1 || got["diameter"] != 0.02 {
		t.Errorf("expected the last parameter to vary fastest, got %v", got)
	}
	high, ok := table.Highest()
	if !ok || high.Params["current"] != 3 || high.Params["diameter"] != 0.01 {
		t.Errorf("expected current 3 and diameter 0.01 to peak highest, got %+v", high)
	}
}

func TestFailedTrials(t *testing.T) {
	line := config.LineConfig{Start: [3]float64{0, 0, 0}, End: [3]float64{0, 0, 0.01}, Points: 3}
	g := NewGrid([]string{"turns"}, [][]float64{{0.5, 10}})

	table, err := g.Run(context.Background(), builder("solenoid", nil, line), "peak")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if table.Trials[0].Err == nil || table.Failed() != 1 {
		t.Errorf("expected the fractional turn count to fail, got %+v", table.Trials)
	}
	if low, _ := table.Lowest(); low.Params["turns"] != 10 {
		t.Errorf("expected failed trials to be skipped, got %+v", low)
	}

	table, err = g.Run(context.Background(), builder("loop", nil, line), "missing")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if _, ok := table.Lowest(); ok || table.Failed() != 2 {
		t.Error("expected every trial to fail for an unknown metric")
	}
}

func TestRunErrors(t *testing.T) {
	line := config.LineConfig{Start: [3]float64{0, 0, 0}, End: [3]float64{0, 0, 0.01}, Points: 3}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGrid([]string{"current"}, [][]float64{{1, 2}})
	if _, err := g.Run(ctx, builder("loop", nil, line), "peak"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	bad := NewGrid([]string{"a", "b"}, [][]float64{{1}})
	if _, err := bad.Run(context.Background(), builder("loop", nil, line), "peak"); err == nil {
		t.Error("expected error for mismatched ranges")
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		arg  string
		name string
		want []float64
		err  bool
	}{
		{"length=0:1:5", "length", []float64{0, 0.25, 0.5, 0.75, 1}, false},
		{"current=1,2, 4", "current", []float64{1, 2, 4}, false},
		{"x=3:9:1", "x", []float64{3}, false},
		{"length", "", nil, true},
		{"=1,2", "", nil, true},
		{"x=1:2:0", "", nil, true},
		{"x=a,b", "", nil, true},
	}

	for _, tt := range tests {
		name, got, err := ParseRange(tt.arg)
		if (err != nil) != tt.err {
			t.Errorf("%q: error %v", tt.arg, err)
			continue
		}
		if tt.err {
			continue
		}
		if name != tt.name || len(got) != len(tt.want) {
			t.Errorf("%q: got %s %v", tt.arg, name, got)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q: value %d is %g, want %g", tt.arg, i, got[i], tt.want[i])
			}
		}
	}
}

package compute

import (
	"fmt"
	"strings"
)

// Backend runs a row-independent computation over the index range [0, n).
// fn is called with disjoint half-open chunks; it must only write state owned
// by its chunk.
type Backend interface {
	Name() string
	Available() bool
	Rows(n int, fn func(lo, hi int) error) error
	Cleanup()
}

// AutoSelectBackend returns the parallel CPU backend sized to the machine.
func AutoSelectBackend() Backend {
	return NewCPUBackend(0)
}

// ByName resolves "cpu", "serial" or "auto". workers <= 0 means one worker
// per CPU.
func ByName(name string, workers int) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return AutoSelectBackend(), nil
	case "cpu":
		return NewCPUBackend(workers), nil
	case "serial":
		return Serial{}, nil
	}
	return nil, fmt.Errorf("unknown compute backend: %s", name)
}

// Serial runs every range in one call on the calling goroutine.
type Serial struct{}

func (Serial) Name() string    { return "serial" }
func (Serial) Available() bool { return true }
func (Serial) Cleanup()        {}

func (Serial) Rows(n int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	return fn(0, n)
}

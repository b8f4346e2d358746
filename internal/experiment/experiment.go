package experiment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/magfield/internal/config"
	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/engine"
	"github.com/san-kum/magfield/internal/field"
	"github.com/san-kum/magfield/internal/metrics"
	"github.com/san-kum/magfield/internal/source"
)

type Experiment struct {
	cfg  *config.Config
	reg  *Registry
	log  *zap.Logger
	opts engine.Options

	sources   []*source.Source
	observers []*source.Observer
}

func New(cfg *config.Config, reg *Registry, log *zap.Logger) *Experiment {
	if log == nil {
		log = zap.NewNop()
	}
	return &Experiment{cfg: cfg, reg: reg, log: log}
}

// Setup builds the scene. A scene file supplies its own observers when it
// declares any; otherwise the configured line is used.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	opts, err := e.cfg.EngineOptions(e.log)
	if err != nil {
		return err
	}
	e.opts = opts

	if IsSceneFile(e.cfg.Scene) {
		doc, err := LoadDocument(e.cfg.Scene)
		if err != nil {
			return err
		}
		if e.sources, e.observers, err = doc.Build(); err != nil {
			return err
		}
	} else {
		if e.sources, err = e.reg.Build(e.cfg.Scene, e.cfg.Params); err != nil {
			return err
		}
	}
	if len(e.observers) == 0 {
		e.observers = []*source.Observer{e.cfg.Observer()}
	}
	return nil
}

// UseObservers replaces the observers chosen by Setup.
func (e *Experiment) UseObservers(observers ...*source.Observer) {
	e.observers = observers
}

// Run is one evaluated scene.
type Run struct {
	Scene     string
	Kind      field.Kind
	Sum       bool
	Sources   []*source.Source
	Observers []*source.Observer
	Result    *engine.Result
	Metrics   map[string]float64
	Elapsed   time.Duration
}

func (e *Experiment) Run(ctx context.Context) (*Run, error) {
	if e.sources == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kind, err := e.cfg.FieldKind()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := engine.Evaluate(kind, e.sources, e.observers, e.cfg.Sum, e.opts)
	if err != nil {
		return nil, err
	}
	run := &Run{
		Scene:     e.cfg.Scene,
		Kind:      kind,
		Sum:       e.cfg.Sum,
		Sources:   e.sources,
		Observers: e.observers,
		Result:    res,
		Elapsed:   time.Since(start),
	}

	samples := run.Samples()
	pos := make([]coords.Vec3, len(samples))
	val := make([]coords.Vec3, len(samples))
	for i, s := range samples {
		pos[i], val[i] = s.Position, s.Value
	}
	run.Metrics = metrics.Collect(metrics.Defaults(kind), pos, val)

	e.log.Info("run complete",
		zap.String("scene", run.Scene),
		zap.Stringer("kind", kind),
		zap.Int("samples", len(samples)),
		zap.Duration("elapsed", run.Elapsed),
	)
	return run, nil
}

func (e *Experiment) Sources() []*source.Source     { return e.sources }
func (e *Experiment) Observers() []*source.Observer { return e.observers }

// Sample is one field vector with the global position it was taken at.
type Sample struct {
	Slot     int         `json:"slot"`
	Step     int         `json:"step"`
	Pixel    int         `json:"pixel"`
	Position coords.Vec3 `json:"position"`
	Value    coords.Vec3 `json:"value"`
}

// Samples lists every evaluated vector in result order. Padding added by the
// pad shape policy is skipped.
func (r *Run) Samples() []Sample {
	res := r.Result
	slots, m := res.Shape[0], res.Steps
	block := res.Field.Vectors() / (slots * m)

	out := make([]Sample, 0, res.Field.Vectors())
	for step := 0; step < m; step++ {
		pos, valid := r.positions(step, block)
		for slot := 0; slot < slots; slot++ {
			base := (slot*m + step) * block
			for p := 0; p < block; p++ {
				if !valid[p] {
					continue
				}
				out = append(out, Sample{
					Slot:     slot,
					Step:     step,
					Pixel:    p,
					Position: pos[p],
					Value:    res.Field.VecAt(base + p),
				})
			}
		}
	}
	return out
}

// positions returns the global pixel positions of one step laid out like a
// result block of the given size.
func (r *Run) positions(step, block int) ([]coords.Vec3, []bool) {
	pos := make([]coords.Vec3, block)
	valid := make([]bool, block)
	if block == r.Result.Pixels {
		off := 0
		for _, o := range r.Observers {
			off += copy(pos[off:], o.Global(step))
		}
		for i := range valid {
			valid[i] = true
		}
		return pos, valid
	}
	nmax := block / len(r.Observers)
	for k, o := range r.Observers {
		for i, p := range o.Global(step) {
			pos[k*nmax+i] = p
			valid[k*nmax+i] = true
		}
	}
	return pos, valid
}

package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/magfield/internal/compute"
	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/elliptic"
	"github.com/san-kum/magfield/internal/engine"
	"github.com/san-kum/magfield/internal/field"
	"github.com/san-kum/magfield/internal/kernels"
	"github.com/san-kum/magfield/internal/source"
)

const (
	DefaultScene      = "loop"
	DefaultKind       = "B"
	DefaultLinePoints = 101
	DefaultDataDir    = "./runs"
)

type Config struct {
	Scene       string             `yaml:"scene"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	Kind        string             `yaml:"kind"`
	Sum         bool               `yaml:"sum"`
	Line        LineConfig         `yaml:"line"`
	Kernel      KernelConfig       `yaml:"kernel"`
	ShapePolicy string             `yaml:"shape_policy"`
	Parallel    bool               `yaml:"parallel"`
	Workers     int                `yaml:"workers"`
	Backend     string             `yaml:"backend"`
	DataDir     string             `yaml:"data_dir"`
}

// LineConfig is the default observer: Points samples from Start to End.
// With Sweep set a single pixel travels the line as a path instead.
type LineConfig struct {
	Start  [3]float64 `yaml:"start"`
	End    [3]float64 `yaml:"end"`
	Points int        `yaml:"points"`
	Sweep  bool       `yaml:"sweep"`
}

type KernelConfig struct {
	SurfaceRTol     float64 `yaml:"surface_rtol"`
	EllipticRTol    float64 `yaml:"elliptic_rtol"`
	EllipticMaxIter int     `yaml:"elliptic_max_iter"`
	QuadRTol        float64 `yaml:"quad_rtol"`
	QuadMaxPanels   int     `yaml:"quad_max_panels"`
}

func DefaultConfig() *Config {
	k := kernels.DefaultOptions()
	return &Config{
		Scene: DefaultScene,
		Kind:  DefaultKind,
		Line: LineConfig{
			Start:  [3]float64{0, 0, -0.05},
			End:    [3]float64{0, 0, 0.05},
			Points: DefaultLinePoints,
		},
		Kernel: KernelConfig{
			SurfaceRTol:     k.SurfaceRTol,
			EllipticRTol:    k.Elliptic.RTol,
			EllipticMaxIter: k.Elliptic.MaxIter,
			QuadRTol:        k.QuadRTol,
			QuadMaxPanels:   k.QuadMaxPanels,
		},
		ShapePolicy: engine.ShapeMerge.String(),
		Backend:     "cpu",
		DataDir:     DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a copy that shares nothing with c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}

func (c *Config) Validate() error {
	if c.Scene == "" {
		return fmt.Errorf("config: scene is empty")
	}
	if _, err := c.FieldKind(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := engine.ParseShapePolicy(c.ShapePolicy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := compute.ByName(c.Backend, c.Workers); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be >= 0, got %d", c.Workers)
	}
	if c.Line.Points < 1 {
		return fmt.Errorf("config: line needs at least one point, got %d", c.Line.Points)
	}
	k := c.Kernel
	if k.SurfaceRTol < 0 || k.EllipticRTol < 0 || k.EllipticMaxIter < 0 || k.QuadRTol < 0 || k.QuadMaxPanels < 0 {
		return fmt.Errorf("config: kernel settings must not be negative")
	}
	return nil
}

func (c *Config) FieldKind() (field.Kind, error) {
	return field.ParseKind(c.Kind)
}

// KernelOptions maps the kernel section; zero values fall back to the kernel
// defaults.
func (c *Config) KernelOptions() kernels.Options {
	return kernels.Options{
		SurfaceRTol:   c.Kernel.SurfaceRTol,
		Elliptic:      elliptic.Config{RTol: c.Kernel.EllipticRTol, MaxIter: c.Kernel.EllipticMaxIter},
		QuadRTol:      c.Kernel.QuadRTol,
		QuadMaxPanels: c.Kernel.QuadMaxPanels,
	}
}

func (c *Config) EngineOptions(log *zap.Logger) (engine.Options, error) {
	policy, err := engine.ParseShapePolicy(c.ShapePolicy)
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.Options{
		Kernel:      c.KernelOptions(),
		ShapePolicy: policy,
		Parallel:    c.Parallel,
		Workers:     c.Workers,
		Logger:      log,
	}
	if c.Parallel {
		b, err := compute.ByName(c.Backend, c.Workers)
		if err != nil {
			return engine.Options{}, err
		}
		opts.Backend = b
	}
	return opts, nil
}

// Observer builds the line observer.
func (c *Config) Observer() *source.Observer {
	a, b := coords.Vec3(c.Line.Start), coords.Vec3(c.Line.End)
	if !c.Line.Sweep {
		return source.Line(a, b, c.Line.Points).Named("line")
	}
	return source.Points(coords.Vec3{}).Named("probe").SetPath(source.Linear(a, b, c.Line.Points, coords.Identity()))
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/experiment"
)

// RunStore persists evaluated runs.
type RunStore interface {
	Save(run *experiment.Run) (string, error)
	List() ([]RunMetadata, error)
	Load(runID string) (*RunMetadata, error)
	LoadSamples(runID string) ([]experiment.Sample, error)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Kind      string             `json:"kind"`
	Sum       bool               `json:"sum"`
	Timestamp time.Time          `json:"timestamp"`
	Sources   int                `json:"sources"`
	Leaves    int                `json:"leaves"`
	Steps     int                `json:"steps"`
	Pixels    int                `json:"pixels"`
	Shape     []int              `json:"shape"`
	Warnings  []string           `json:"warnings,omitempty"`
	ElapsedMS float64            `json:"elapsed_ms"`
	Metrics   map[string]float64 `json:"metrics"`
}

func newMetadata(run *experiment.Run) RunMetadata {
	res := run.Result
	meta := RunMetadata{
		ID:        newRunID(run.Scene),
		Scene:     run.Scene,
		Kind:      run.Kind.String(),
		Sum:       run.Sum,
		Timestamp: time.Now(),
		Sources:   res.Sources,
		Leaves:    res.Leaves,
		Steps:     res.Steps,
		Pixels:    res.Pixels,
		Shape:     res.Field.Shape,
		ElapsedMS: float64(run.Elapsed.Microseconds()) / 1000,
		Metrics:   finiteMetrics(run.Metrics),
	}
	for _, w := range res.Warnings {
		meta.Warnings = append(meta.Warnings, w.Error())
	}
	return meta
}

// finiteMetrics drops values JSON cannot carry.
func finiteMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func newRunID(scene string) string {
	base := strings.TrimSuffix(filepath.Base(scene), filepath.Ext(scene))
	return fmt.Sprintf("%s_%s", base, uuid.NewString()[:8])
}

// Store keeps every run in its own directory as metadata.json and field.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Save(run *experiment.Run) (string, error) {
	meta := newMetadata(run)
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "field.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := writeSamples(w, run.Samples()); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

var sampleHeader = []string{"slot", "step", "pixel", "x", "y", "z", "fx", "fy", "fz"}

func writeSamples(w *csv.Writer, samples []experiment.Sample) error {
	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{strconv.Itoa(s.Slot), strconv.Itoa(s.Step), strconv.Itoa(s.Pixel)}
		for _, v := range [2]coords.Vec3{s.Position, s.Value} {
			for _, c := range v {
				row = append(row, strconv.FormatFloat(c, 'g', -1, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]experiment.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "field.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readSamples(file, runID)
}

// readSamples parses the CSV written by writeSamples.
func readSamples(in io.Reader, runID string) ([]experiment.Sample, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = len(sampleHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []experiment.Sample{}, nil
	}

	samples := make([]experiment.Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		s, err := parseSample(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", runID, line+2, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseSample(record []string) (experiment.Sample, error) {
	var s experiment.Sample
	idx := [3]*int{&s.Slot, &s.Step, &s.Pixel}
	for i, p := range idx {
		v, err := strconv.Atoi(record[i])
		if err != nil {
			return s, err
		}
		*p = v
	}
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(record[3+i], 64)
		if err != nil {
			return s, err
		}
		if i < 3 {
			s.Position[i] = v
		} else {
			s.Value[i-3] = v
		}
	}
	return s, nil
}

// Open returns the run store of the given backend rooted at dataDir: "dir"
// for one directory per run, "bolt" for a single runs.db file. The returned
// function releases it.
func Open(backend, dataDir string) (RunStore, func() error, error) {
	switch backend {
	case "", "dir":
		st := New(dataDir)
		if err := st.Init(); err != nil {
			return nil, nil, err
		}
		return st, func() error { return nil }, nil
	case "bolt":
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, nil, err
		}
		st, err := NewBoltStore(filepath.Join(dataDir, "runs.db"))
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store: %s", backend)
}

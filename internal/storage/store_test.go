package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/san-kum/magfield/internal/config"
	"github.com/san-kum/magfield/internal/experiment"
)

func testRun(t *testing.T, cfg *config.Config) *experiment.Run {
	t.Helper()
	exp := experiment.New(cfg, experiment.NewRegistry(), nil)
	if err := exp.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	run, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return run
}

func loopRun(t *testing.T) *experiment.Run {
	cfg := config.DefaultConfig()
	cfg.Line.Points = 11
	return testRun(t, cfg)
}

func checkStore(t *testing.T, st RunStore) {
	t.Helper()
	run := loopRun(t)

	runID, err := st.Save(run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scene != "loop" || meta.Kind != "B" {
		t.Errorf("expected loop/B, got %s/%s", meta.Scene, meta.Kind)
	}
	if meta.Pixels != 11 || meta.Steps != 1 {
		t.Errorf("expected 11 pixels in 1 step, got %d in %d", meta.Pixels, meta.Steps)
	}
	if meta.Metrics["peak"] != run.Metrics["peak"] {
		t.Errorf("expected peak %g, got %g", run.Metrics["peak"], meta.Metrics["peak"])
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	want := run.Samples()
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d: expected %+v, got %+v", i, want[i], samples[i])
		}
	}

	if _, err := st.Load("missing"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	checkStore(t, st)
}

func TestBoltStoreSaveLoad(t *testing.T) {
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer st.Close()
	checkStore(t, st)
}

func TestBoltStoreSamplesAreCSV(t *testing.T) {
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer st.Close()

	run := loopRun(t)
	runID, err := st.Save(run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var want bytes.Buffer
	w := csv.NewWriter(&want)
	if err := writeSamples(w, run.Samples()); err != nil {
		t.Fatal(err)
	}
	w.Flush()

	var got []byte
	err = st.db.View(func(tx *bbolt.Tx) error {
		got = bytes.Clone(tx.Bucket(bucketSamples).Get([]byte(runID)))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(got, []byte("slot,step,pixel,x,y,z,fx,fy,fz\n")) {
		t.Errorf("samples bucket does not start with the CSV header: %.40q", got)
	}
	if !bytes.Equal(got, want.Bytes()) {
		t.Error("samples bucket differs from the field.csv layout")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	dir := New(tmpDir)
	if err := dir.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	bolt, err := NewBoltStore(filepath.Join(tmpDir, "runs.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer bolt.Close()

	run := loopRun(t)
	for name, st := range map[string]RunStore{"dir": dir, "bolt": bolt} {
		runs, err := st.List()
		if err != nil {
			t.Fatalf("%s: list failed: %v", name, err)
		}
		if len(runs) != 0 {
			t.Errorf("%s: expected 0 runs, got %d", name, len(runs))
		}

		for i := 0; i < 2; i++ {
			if _, err := st.Save(run); err != nil {
				t.Fatalf("%s: save failed: %v", name, err)
			}
		}

		runs, err = st.List()
		if err != nil {
			t.Fatalf("%s: list failed: %v", name, err)
		}
		if len(runs) != 2 {
			t.Errorf("%s: expected 2 runs, got %d", name, len(runs))
		}
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(loopRun(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "field.csv")); os.IsNotExist(err) {
		t.Error("field.csv not created")
	}
}

const paddedScene = `
sources:
  - type: dipole
    moment: [0, 0, 1]
observers:
  - pixels: [[0, 0, 1]]
  - pixels: [[1, 0, 0], [0, 1, 0]]
`

func TestExportJSON(t *testing.T) {
	scene := filepath.Join(t.TempDir(), "padded.yaml")
	if err := os.WriteFile(scene, []byte(paddedScene), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Scene = scene
	cfg.ShapePolicy = "pad"
	run := testRun(t, cfg)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, run); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(data.Shape) != 3 || data.Shape[0] != 2 || data.Shape[1] != 2 {
		t.Errorf("expected shape [2 2 3], got %v", data.Shape)
	}
	if data.Field[3] != nil {
		t.Errorf("expected null padding, got %v", *data.Field[3])
	}
	if len(data.Samples) != 3 || len(data.Warnings) != 1 {
		t.Errorf("expected 3 samples and 1 warning, got %d and %d", len(data.Samples), len(data.Warnings))
	}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, run); err != nil {
		t.Fatalf("export to file failed: %v", err)
	}
}

func TestOpen(t *testing.T) {
	for _, backend := range []string{"dir", "bolt"} {
		st, closeFn, err := Open(backend, filepath.Join(t.TempDir(), "data"))
		if err != nil {
			t.Fatalf("%s: open failed: %v", backend, err)
		}
		if _, err := st.List(); err != nil {
			t.Errorf("%s: list failed: %v", backend, err)
		}
		if err := closeFn(); err != nil {
			t.Errorf("%s: close failed: %v", backend, err)
		}
	}
	if _, _, err := Open("sqlite", t.TempDir()); err == nil {
		t.Error("expected error for unknown store")
	}
}

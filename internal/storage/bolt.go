package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/san-kum/magfield/internal/experiment"
)

var (
	bucketRuns    = []byte("runs")
	bucketSamples = []byte("samples")
)

// BoltStore keeps runs in a single bbolt file: metadata as JSON in the runs
// bucket, samples in the CSV layout of field.csv in the samples bucket.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketSamples); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Save(run *experiment.Run) (string, error) {
	meta := newMetadata(run)
	metaData, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := writeSamples(w, run.Samples()); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketRuns).Put([]byte(meta.ID), metaData); err != nil {
			return err
		}
		return tx.Bucket(bucketSamples).Put([]byte(meta.ID), buf.Bytes())
	})
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *BoltStore) List() ([]RunMetadata, error) {
	runs := make([]RunMetadata, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(_, v []byte) error {
			var meta RunMetadata
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			runs = append(runs, meta)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *BoltStore) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRuns).Get([]byte(runID))
		if data == nil {
			return fmt.Errorf("run not found: %s", runID)
		}
		return json.Unmarshal(data, &meta)
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *BoltStore) LoadSamples(runID string) ([]experiment.Sample, error) {
	var samples []experiment.Sample
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSamples).Get([]byte(runID))
		if data == nil {
			return fmt.Errorf("run not found: %s", runID)
		}
		// data is only valid inside the transaction
		var err error
		samples, err = readSamples(bytes.NewReader(data), runID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

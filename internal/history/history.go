// Package history keeps a local record of past report runs in bbolt.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/gitdigest/internal/errors"
)

const bucketName = "runs"

// Run is one recorded report run
type Run struct {
	ID         uuid.UUID `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Window     string    `json:"window"`
	Author     string    `json:"author,omitempty"`
	Repos      int       `json:"repos"`
	Active     int       `json:"active"`
	Backend    string    `json:"backend"`
	OutputPath string    `json:"output_path"`
	Duration   string    `json:"duration"`
}

// Store is a bbolt-backed run history
type Store struct {
	db *bolt.DB
}

// DefaultPath is ~/.gitdigest/history.db
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gitdigest", "history.db")
	}
	return filepath.Join(home, ".gitdigest", "history.db")
}

// Open opens or creates the history database
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFileSystem, errors.SeverityLow, "create history directory")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFileSystem, errors.SeverityLow, fmt.Sprintf("open history %s", path))
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFileSystem, errors.SeverityLow, "create history bucket")
	}
	return &Store{db: db}, nil
}

// Close releases the database file lock
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a run, assigning an ID when it has none
func (s *Store) Record(run Run) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	data, err := json.Marshal(run)
	if err != nil {
		return run, errors.Wrap(err, errors.ErrorTypeParse, errors.SeverityLow, "encode run")
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put(runKey(run), data)
	})
	if err != nil {
		return run, errors.Wrap(err, errors.ErrorTypeFileSystem, errors.SeverityLow, "record run")
	}
	return run, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Run, error) {
	var runs []Run
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketName)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	return runs, err
}

// runKey sorts chronologically; the ID breaks ties
func runKey(run Run) []byte {
	return []byte(fmt.Sprintf("%020d-%s", run.StartedAt.UnixNano(), run.ID))
}

// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package printagent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"

	"github.com/tomtom215/liveshop/internal/models"
)

var bucketJobs = []byte("jobs")

// DefaultJournalKeep is how many records the journal retains.
const DefaultJournalKeep = 5000

// ErrJobNotFound is returned by Journal.Get for unknown ids.
var ErrJobNotFound = errors.New("print job not found")

// Journal records job state transitions in a bbolt file. Keys are UUIDv7
// job ids, so byte order is arrival order.
type Journal struct {
	db   *bolt.DB
	keep int
}

// OpenJournal opens or creates the journal file.
func OpenJournal(path string, keep int) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketJobs)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create jobs bucket: %w", err)
	}
	if keep <= 0 {
		keep = DefaultJournalKeep
	}
	return &Journal{db: db, keep: keep}, nil
}

// Close releases the file lock.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Put writes the record, replacing any earlier state of the same job, and
// trims the oldest records beyond the retention limit.
func (j *Journal) Put(rec models.PrintJobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", rec.ID, err)
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		if err := b.Put([]byte(rec.ID), data); err != nil {
			return err
		}
		// Keep the newest j.keep keys; collect the rest before deleting
		// since deleting under a moving cursor skips keys.
		var stale [][]byte
		c := b.Cursor()
		n := 0
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			n++
			if n > j.keep {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns one job record.
func (j *Journal) Get(id string) (*models.PrintJobRecord, error) {
	var rec models.PrintJobRecord
	err := j.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketJobs).Get([]byte(id))
		if v == nil {
			return ErrJobNotFound
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Recent returns up to limit records, newest first.
func (j *Journal) Recent(limit int) ([]models.PrintJobRecord, error) {
	records := []models.PrintJobRecord{}
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketJobs).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var rec models.PrintJobRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode job %s: %w", k, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

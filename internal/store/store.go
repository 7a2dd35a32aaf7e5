// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package store persists documents in BadgerDB.
//
// Every document is stored as JSON under "<collection>:<id>". Collections may
// declare unique fields; each unique value is mirrored as an index key
// "idx:<collection>:<field>:<value>" holding the document id, written in the
// same transaction as the document. Writes are atomic per document; there are
// no multi-document transactions.
//
// The generic operations (Put, Get, FindOne, List, UpdateSet, Delete, Count)
// work on any JSON document. The typed helpers in orders.go, chat.go,
// customers.go, events.go and products.go build on them.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/metrics"
)

// Errors
var (
	// ErrNotFound is returned when a document or index entry does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is matched by every *ConflictError.
	ErrConflict = errors.New("unique constraint violated")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")
)

// ConflictError reports which unique field a write collided on.
type ConflictError struct {
	Collection string
	Field      string
	Value      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", strings.TrimSuffix(e.Collection, "s"), e.Field, e.Value)
}

// Is makes errors.Is(err, ErrConflict) work.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Collection names a document family and its unique fields.
type Collection struct {
	Name   string
	Unique []string
}

// Collections used by the application.
var (
	Orders        = Collection{Name: "orders"}
	ChatMessages  = Collection{Name: "chat_messages"}
	Customers     = Collection{Name: "customers", Unique: []string{"customer_number", "email"}}
	Events        = Collection{Name: "events"}
	Products      = Collection{Name: "products"}
	ProfileImages = Collection{Name: "profile_images"}
)

// Options configures Open.
type Options struct {
	// Dir is the badger directory. Ignored when InMemory is set.
	Dir string
	// Database is appended to Dir so several shows can share one volume.
	Database string
	InMemory bool
}

// Store is a badger-backed document store. It is safe for concurrent use.
type Store struct {
	db *badger.DB
}

const maxConflictRetries = 5

// Open opens (or creates) the store.
func Open(opts Options) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := opts.Dir
		if opts.Database != "" {
			dir = filepath.Join(dir, opts.Database)
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("dir", opts.Dir).
		Str("database", opts.Database).
		Bool("in_memory", opts.InMemory).
		Msg("Store opened")
	return &Store{db: db}, nil
}

// OpenInMemory is a shorthand used by tests and the CLI.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}

// RunGC reclaims value log space until badger reports nothing to rewrite.
func (s *Store) RunGC() error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	if s.db.Opts().InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Ping reports whether the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrClosed
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

func docKey(c Collection, id string) []byte {
	return []byte(c.Name + ":" + id)
}

func docPrefix(c Collection) []byte {
	return []byte(c.Name + ":")
}

func indexKey(c Collection, field, value string) []byte {
	return []byte("idx:" + c.Name + ":" + field + ":" + value)
}

// Put inserts or replaces the document id. Unique fields are checked and
// their index keys moved in the same transaction.
func (s *Store) Put(ctx context.Context, c Collection, id string, doc interface{}) (err error) {
	defer observe("put", c, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.Name, err)
	}
	return s.update(func(txn *badger.Txn) error {
		return putTxn(txn, c, id, data)
	})
}

func putTxn(txn *badger.Txn, c Collection, id string, data []byte) error {
	if len(c.Unique) > 0 {
		newFields, err := decodeFields(data)
		if err != nil {
			return err
		}
		oldFields := map[string]interface{}{}
		if old, err := getRaw(txn, c, id); err == nil {
			if oldFields, err = decodeFields(old); err != nil {
				return err
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		for _, f := range c.Unique {
			nv, ov := stringField(newFields, f), stringField(oldFields, f)
			if nv != "" && nv != ov {
				owner, err := lookupIndex(txn, c, f, nv)
				switch {
				case err == nil && owner != id:
					return &ConflictError{Collection: c.Name, Field: f, Value: nv}
				case err != nil && !errors.Is(err, ErrNotFound):
					return err
				}
				if err := txn.Set(indexKey(c, f, nv), []byte(id)); err != nil {
					return fmt.Errorf("set index %s: %w", f, err)
				}
			}
			if ov != "" && ov != nv {
				if err := txn.Delete(indexKey(c, f, ov)); err != nil {
					return fmt.Errorf("delete index %s: %w", f, err)
				}
			}
		}
	}
	if err := txn.Set(docKey(c, id), data); err != nil {
		return fmt.Errorf("set %s: %w", c.Name, err)
	}
	return nil
}

// Get loads document id into out.
func (s *Store) Get(ctx context.Context, c Collection, id string, out interface{}) (err error) {
	defer observe("get", c, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		data, err := getRaw(txn, c, id)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	})
}

func getRaw(txn *badger.Txn, c Collection, id string) ([]byte, error) {
	item, err := txn.Get(docKey(c, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c.Name, err)
	}
	return item.ValueCopy(nil)
}

func lookupIndex(txn *badger.Txn, c Collection, field, value string) (string, error) {
	item, err := txn.Get(indexKey(c, field, value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get index %s: %w", field, err)
	}
	v, err := item.ValueCopy(nil)
	return string(v), err
}

// FindOne loads the first document whose field equals value. Unique fields
// are answered from the index; other fields scan the collection.
func (s *Store) FindOne(ctx context.Context, c Collection, field, value string, out interface{}) (err error) {
	defer observe("find_one", c, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, f := range c.Unique {
		if f != field {
			continue
		}
		return s.db.View(func(txn *badger.Txn) error {
			id, err := lookupIndex(txn, c, field, value)
			if err != nil {
				return err
			}
			data, err := getRaw(txn, c, id)
			if err != nil {
				return err
			}
			return json.Unmarshal(data, out)
		})
	}

	docs, err := s.scan(ctx, c, Query{Filter: Filter{field: value}, Limit: 1})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return ErrNotFound
	}
	return json.Unmarshal(docs[0].raw, out)
}

// Filter matches documents whose top-level fields equal the given values.
// Values are compared by their string form, so 2 matches "2".
type Filter map[string]interface{}

// Query selects, orders and limits documents. Sort names a field; a leading
// "-" sorts descending. Ties are broken by id in the same direction.
type Query struct {
	Filter Filter
	Sort   string
	Limit  int
}

// List decodes the matching documents into out, which must point to a slice.
func (s *Store) List(ctx context.Context, c Collection, q Query, out interface{}) (err error) {
	defer observe("list", c, time.Now(), &err)
	docs, err := s.scan(ctx, c, q)
	if err != nil {
		return err
	}
	var buf strings.Builder
	buf.WriteByte('[')
	for i, d := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(d.raw)
	}
	buf.WriteByte(']')
	if err := json.Unmarshal([]byte(buf.String()), out); err != nil {
		return fmt.Errorf("decode %s list: %w", c.Name, err)
	}
	return nil
}

// Count returns the number of documents matching filter.
func (s *Store) Count(ctx context.Context, c Collection, filter Filter) (count int, err error) {
	defer observe("count", c, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		n := 0
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()
			prefix := docPrefix(c)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				n++
			}
			return nil
		})
		return n, err
	}
	docs, err := s.scan(ctx, c, Query{Filter: filter})
	return len(docs), err
}

// UpdateSet merges fields into document id and returns ErrNotFound when it
// does not exist. Unique fields are re-checked.
func (s *Store) UpdateSet(ctx context.Context, c Collection, id string, fields map[string]interface{}) (err error) {
	defer observe("update_set", c, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(func(txn *badger.Txn) error {
		old, err := getRaw(txn, c, id)
		if err != nil {
			return err
		}
		doc, err := decodeFields(old)
		if err != nil {
			return err
		}
		for k, v := range fields {
			doc[k] = v
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", c.Name, err)
		}
		return putTxn(txn, c, id, data)
	})
}

// Delete removes document id and its index keys.
func (s *Store) Delete(ctx context.Context, c Collection, id string) (err error) {
	defer observe("delete", c, time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(func(txn *badger.Txn) error {
		old, err := getRaw(txn, c, id)
		if err != nil {
			return err
		}
		if len(c.Unique) > 0 {
			fields, err := decodeFields(old)
			if err != nil {
				return err
			}
			for _, f := range c.Unique {
				if v := stringField(fields, f); v != "" {
					if err := txn.Delete(indexKey(c, f, v)); err != nil {
						return fmt.Errorf("delete index %s: %w", f, err)
					}
				}
			}
		}
		return txn.Delete(docKey(c, id))
	})
}

// update runs fn in a read-write transaction, retrying on badger's
// optimistic-concurrency conflicts.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("write retries exhausted: %w", err)
}

type scanned struct {
	id     string
	raw    []byte
	fields map[string]interface{}
}

func (s *Store) scan(ctx context.Context, c Collection, q Query) ([]scanned, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var docs []scanned
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := docPrefix(c)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			fields, err := decodeFields(raw)
			if err != nil {
				return err
			}
			if !matches(fields, q.Filter) {
				continue
			}
			docs = append(docs, scanned{
				id:     strings.TrimPrefix(string(it.Item().Key()), string(prefix)),
				raw:    raw,
				fields: fields,
			})
			if q.Sort == "" && q.Limit > 0 && len(docs) >= q.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if q.Sort != "" {
		field, desc := strings.TrimPrefix(q.Sort, "-"), strings.HasPrefix(q.Sort, "-")
		sort.SliceStable(docs, func(i, j int) bool {
			c := compareValues(docs[i].fields[field], docs[j].fields[field])
			if c == 0 {
				c = strings.Compare(docs[i].id, docs[j].id)
			}
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

// observe records the operation's latency. Missing documents and unique
// conflicts are expected outcomes, not store errors.
func observe(op string, c Collection, start time.Time, err *error) {
	e := *err
	if errors.Is(e, ErrNotFound) || errors.Is(e, ErrConflict) {
		e = nil
	}
	metrics.RecordStoreOp(op, c.Name, time.Since(start), e)
}

func decodeFields(data []byte) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}

func stringField(fields map[string]interface{}, name string) string {
	v, ok := fields[name]
	if !ok || v == nil {
		return ""
	}
	return valueString(v)
}

func valueString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func matches(fields map[string]interface{}, filter Filter) bool {
	for k, want := range filter {
		got, ok := fields[k]
		if !ok || valueString(got) != valueString(want) {
			return false
		}
	}
	return true
}

// compareValues orders numbers numerically, RFC 3339 timestamps
// chronologically and everything else as strings.
func compareValues(a, b interface{}) int {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := valueString(a), valueString(b)
	if a == nil {
		sa = ""
	}
	if b == nil {
		sb = ""
	}
	if ta, err := time.Parse(time.RFC3339Nano, sa); err == nil {
		if tb, err := time.Parse(time.RFC3339Nano, sb); err == nil {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(sa, sb)
}

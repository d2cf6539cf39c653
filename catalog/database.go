// Public domain.

package catalog

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sagasurvey/saga/table"
)

// Database maps keys to catalog files under a root directory.
type Database struct {
	Root string

	mu      sync.Mutex
	entries map[string]*Entry
}

// Entry is a database file and its cached contents.
type Entry struct {
	Key  string
	File File

	mu     sync.Mutex
	cached *table.Table
}

// NewDatabase returns a database of the given key to path map.  Relative
// paths are taken relative to root.
func NewDatabase(root string, paths map[string]string) *Database {
	db := &Database{Root: root, entries: make(map[string]*Entry, len(paths))}
	for k, p := range paths {
		db.Add(k, p)
	}
	return db
}

// Add adds or replaces a key.
func (db *Database) Add(key, path string) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(db.Root, path)
	}
	db.mu.Lock()
	db.entries[key] = &Entry{Key: key, File: File{path}}
	db.mu.Unlock()
}

// Keys returns the known keys, sorted.
func (db *Database) Keys() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	keys := make([]string, 0, len(db.entries))
	for k := range db.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnknownKeyError is returned by Get for keys not in the database.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("catalog: unknown database key %q", e.Key)
}

// Get returns the entry for key.
func (db *Database) Get(key string) (*Entry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.entries[key]
	if !ok {
		return nil, &UnknownKeyError{key}
	}
	return e, nil
}

// Read returns the table for key; see Entry.Read.
func (db *Database) Read(key string, reload bool) (*table.Table, error) {
	e, err := db.Get(key)
	if err != nil {
		return nil, err
	}
	return e.Read(reload)
}

// Read returns a copy of the file contents, read from disk on first use or
// when reload is set.
func (e *Entry) Read(reload bool) (*table.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cached == nil || reload {
		t, err := e.File.Read()
		if err != nil {
			return nil, err
		}
		e.cached = t
	}
	return e.cached.Clone(), nil
}

// Write stores t and replaces the cached copy.
func (e *Entry) Write(t *table.Table, overwrite bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.File.Write(t, overwrite); err != nil {
		return err
	}
	e.cached = t.Clone()
	return nil
}

// Clear drops the cached copy.
func (e *Entry) Clear() {
	e.mu.Lock()
	e.cached = nil
	e.mu.Unlock()
}

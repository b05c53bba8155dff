// Package storage implements the durable key-value store backing
// event cursors and pending actions, per spec.md §6.4. Grounded on
// the teacher's lvldb/store composition in app.go
// (lvldb.NewLvlDB/store.NewBlockStore), generalized from a single
// block-cursor table to the two logical tables spec.md names.
package storage

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// DB wraps a goleveldb handle. A single process opens exactly one DB;
// cursors and pending actions share it but are namespaced by key
// prefix (see Cursors and PendingActions below).
type DB struct {
	ldb *leveldb.DB
}

// Open opens (or creates) a goleveldb database at path.
func Open(path string) (*DB, error) {
	ldb, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening leveldb at %s: %w", path, err)
	}
	return &DB{ldb: ldb}, nil
}

func (db *DB) Close() error {
	return db.ldb.Close()
}

func (db *DB) get(key []byte) ([]byte, error) {
	v, err := db.ldb.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (db *DB) put(key, value []byte) error {
	if err := db.ldb.Put(key, value, nil); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (db *DB) has(key []byte) (bool, error) {
	ok, err := db.ldb.Has(key, nil)
	if err != nil {
		return false, fmt.Errorf("has %s: %w", key, err)
	}
	return ok, nil
}

// ErrNotFound is returned when a key is absent from the store.
var ErrNotFound = fmt.Errorf("storage: key not found")

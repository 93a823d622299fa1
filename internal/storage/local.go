package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// LocalStore keeps audio objects in an embedded badger database. Meant for
// single-node deployments and local development; the recognition provider
// cannot read local:// references, so runs against it need a mock provider.
type LocalStore struct {
	db *badger.DB
}

func NewLocalStore(path string) (*LocalStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(path, "badger"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Close() error { return s.db.Close() }

func (s *LocalStore) Upload(_ context.Context, objectName string, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(objectName), data)
	})
	if err != nil {
		return "", err
	}
	return "local://" + objectName, nil
}

func (s *LocalStore) SignedGetURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "local://" + objectName, nil
}

// Get reads an object back; only the local backend offers direct reads.
func (s *LocalStore) Get(objectName string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(objectName))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("object %q not found", objectName)
	}
	return data, err
}

package constants

import (
	"context"
	"iter"
	"strings"

	bolt "go.etcd.io/bbolt"
)

var documentBucket = []byte("business_constants")

// DocumentBackend implements the "document (collection of key/value)"
// constants variant as a single embedded bbolt bucket, adapted from the
// teacher's pkg/storage bucket-per-collection pattern. It stands in for
// a networked document store: no Mongo-shaped driver appears anywhere
// in the retrieval pack to ground a networked client on (see
// DESIGN.md), and the spec's contract — "collection of {key, value}" —
// is satisfied exactly by a bucket of string keys to string values.
type DocumentBackend struct {
	db *bolt.DB
}

// NewDocumentBackend opens (creating if absent) a bbolt file at path
// with the business-constants bucket ready for use.
func NewDocumentBackend(path string) (*DocumentBackend, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, &Error{Kind: KindConnect, Backend: "document", Err: err}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &Error{Kind: KindConnect, Backend: "document", Err: err}
	}
	return &DocumentBackend{db: db}, nil
}

func (b *DocumentBackend) Get(_ context.Context, key string) (string, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(documentBucket).Get([]byte(key))
		if v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", false, &Error{Kind: KindQuery, Backend: "document", Err: err}
	}
	if value == nil {
		return "", false, nil
	}
	return string(value), true, nil
}

// Put writes a key/value pair; exposed for seed/operator tooling, not
// used on the read path of a pipeline run.
func (b *DocumentBackend) Put(key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentBucket).Put([]byte(key), []byte(value))
	})
}

func (b *DocumentBackend) List(_ context.Context, prefix string) (iter.Seq2[string, string], error) {
	pairs := map[string]string{}
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(documentBucket).Cursor()
		for k, v := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			pairs[string(k)] = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, &Error{Kind: KindQuery, Backend: "document", Err: err}
	}
	return func(yield func(string, string) bool) {
		for k, v := range pairs {
			if !yield(k, v) {
				return
			}
		}
	}, nil
}

func (b *DocumentBackend) Close() error { return b.db.Close() }

var _ Backend = (*DocumentBackend)(nil)

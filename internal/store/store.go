// Package store persists extracted records in a bbolt database so a later
// run can look documentation up by longname without re-extracting.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/phobologic/docextract/internal/model"
)

var (
	bucketRecords   = []byte("records")
	bucketLongnames = []byte("longnames")
	bucketMeta      = []byte("meta")
	keyGenerated    = []byte("generated_at")
	keySource       = []byte("source")
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("record not found")

// Store is a bbolt-backed record database.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path and ensures its buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketRecords, bucketLongnames, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Replace discards everything stored and writes recs in a single
// transaction, along with the source directory they were extracted from.
func (s *Store) Replace(source string, recs []*model.Record) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketLongnames} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		records := tx.Bucket(bucketRecords)
		longnames := make(map[string][]int64)
		var order []string
		for _, r := range recs {
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("marshal record %d: %w", r.ID, err)
			}
			if err := records.Put(idKey(r.ID), data); err != nil {
				return err
			}
			if _, ok := longnames[r.Longname]; !ok {
				order = append(order, r.Longname)
			}
			longnames[r.Longname] = append(longnames[r.Longname], r.ID)
		}

		index := tx.Bucket(bucketLongnames)
		for _, ln := range order {
			data, err := json.Marshal(longnames[ln])
			if err != nil {
				return err
			}
			if err := index.Put([]byte(ln), data); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keySource, []byte(source)); err != nil {
			return err
		}
		return meta.Put(keyGenerated, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// Get returns the record with the given id.
func (s *Store) Get(id int64) (*model.Record, error) {
	var rec *model.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		rec, err = getRecord(tx, id)
		return err
	})
	return rec, err
}

// Lookup returns every record with the given longname, in id order.
func (s *Store) Lookup(longname string) ([]*model.Record, error) {
	var out []*model.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketLongnames).Get([]byte(longname))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, longname)
		}
		var ids []int64
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		for _, id := range ids {
			rec, err := getRecord(tx, id)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// All returns every stored record in id order.
func (s *Store) All() ([]*model.Record, error) {
	var out []*model.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(_, v []byte) error {
			var rec model.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, &rec)
			return nil
		})
	})
	return out, err
}

// Source returns the source directory recorded by the last Replace.
func (s *Store) Source() (string, error) {
	var src string
	err := s.db.View(func(tx *bbolt.Tx) error {
		src = string(tx.Bucket(bucketMeta).Get(keySource))
		return nil
	})
	return src, err
}

func getRecord(tx *bbolt.Tx, id int64) (*model.Record, error) {
	data := tx.Bucket(bucketRecords).Get(idKey(id))
	if data == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// idKey encodes id big-endian so bucket iteration follows id order.
func idKey(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

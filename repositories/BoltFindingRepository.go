package repositories

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/utils"
	log "github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

const findingsBucket = "findings"

// BoltFindingRepository stores each batch under a sequential key in a bbolt
// bucket.
type BoltFindingRepository struct {
	db *bbolt.DB
}

// NewBoltFindingRepository recreates the database at dbPath.
func NewBoltFindingRepository(dbPath string) (*BoltFindingRepository, error) {
	if err := utils.RemoveFileIfExists(dbPath); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(dbPath, 0666, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", dbPath, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(findingsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltFindingRepository{db: db}, nil
}

func (r *BoltFindingRepository) Store(findings []core.Finding) error {
	data, err := json.Marshal(findings)
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(findingsBucket))
		id, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate batch id: %w", err)
		}
		return b.Put(batchKey(id), data)
	})
}

func (r *BoltFindingRepository) Clear() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(findingsBucket)); err != nil {
			return fmt.Errorf("delete bucket: %w", err)
		}
		_, err := tx.CreateBucket([]byte(findingsBucket))
		return err
	})
}

func (r *BoltFindingRepository) Close() error {
	return r.db.Close()
}

func (r *BoltFindingRepository) NewIterator() core.FindingIterator {
	return &BoltFindingIterator{repo: r}
}

// BoltFindingIterator reads one batch per step in key order.
type BoltFindingIterator struct {
	repo       *BoltFindingRepository
	lastKey    []byte
	currentSet core.FindingSet
}

func (it *BoltFindingIterator) HasNext() bool {
	for {
		var key, value []byte
		err := it.repo.db.View(func(tx *bbolt.Tx) error {
			c := tx.Bucket([]byte(findingsBucket)).Cursor()
			var k, v []byte
			if it.lastKey == nil {
				k, v = c.First()
			} else {
				k, v = c.Seek(it.lastKey)
				if k != nil && string(k) == string(it.lastKey) {
					k, v = c.Next()
				}
			}
			key = append([]byte(nil), k...)
			value = append([]byte(nil), v...)
			return nil
		})
		if err != nil {
			log.Warnf("Error reading finding batches: %v", err)
			return false
		}
		if len(key) == 0 {
			return false
		}
		it.lastKey = key

		findings := []core.Finding{}
		if err := json.Unmarshal(value, &findings); err != nil {
			log.Warnf("Error parsing finding batch %d: %v", binary.BigEndian.Uint64(key), err)
			continue
		}
		it.currentSet = core.FindingSet{Findings: findings}
		return true
	}
}

func (it *BoltFindingIterator) Next() (core.FindingSet, error) {
	if it.currentSet.Findings == nil {
		return core.FindingSet{}, fmt.Errorf("no more findings available")
	}
	return it.currentSet, nil
}

func (it *BoltFindingIterator) Reset() error {
	it.lastKey = nil
	it.currentSet = core.FindingSet{}
	return nil
}

func batchKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

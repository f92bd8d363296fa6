package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	bolt "go.etcd.io/bbolt"

	generrors "github.com/alxayo/go-evrgen/internal/errors"
)

// ErrReportNotFound is returned by Load for unknown run IDs.
var ErrReportNotFound = errors.New("report not found")

// Store persists run reports keyed by run ID.
type Store interface {
	Save(r Report) error
	Load(runID string) (Report, error)
	List() ([]string, error)
	Close() error
}

var runsBucket = []byte("runs")

// BoltStore implements Store using bbolt. Reports are stored as JSON.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if needed) a report database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, generrors.NewSinkError("stats.store.open", fmt.Errorf("failed to open bbolt database: %w", err))
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, generrors.NewSinkError("stats.store.bucket", err)
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Save(r Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return generrors.NewSinkError("stats.store.encode", err)
	}
	if err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).Put([]byte(r.RunID), data)
	}); err != nil {
		return generrors.NewSinkError("stats.store.put", err)
	}
	return nil
}

func (b *BoltStore) Load(runID string) (Report, error) {
	var r Report
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(runsBucket).Get([]byte(runID))
		if v == nil {
			return fmt.Errorf("%s: %w", runID, ErrReportNotFound)
		}
		// v is only valid inside the transaction; Unmarshal copies.
		return json.Unmarshal(v, &r)
	})
	return r, err
}

func (b *BoltStore) List() ([]string, error) {
	var ids []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

func (b *BoltStore) Close() error { return b.db.Close() }

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]Report
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]Report)}
}

func (m *MemoryStore) Save(r Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.RunID] = r
	return nil
}

func (m *MemoryStore) Load(runID string) (Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[runID]
	if !ok {
		return Report{}, fmt.Errorf("%s: %w", runID, ErrReportNotFound)
	}
	return r, nil
}

func (m *MemoryStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.reports))
	for id := range m.reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) Close() error { return nil }

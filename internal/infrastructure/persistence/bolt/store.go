// Package bolt is the embedded transaction store. Everything lives in one file so the
// ledger can run without a database server.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence"
)

var (
	transactionsBucket = []byte("transactions")
	// eventsBucket holds one nested bucket per transaction, keyed by sequence.
	eventsBucket      = []byte("transaction_events")
	idempotencyBucket = []byte("idempotency_keys")
)

type idempotencyRecord struct {
	TransactionID string    `json:"transactionId"`
	RequestHash   string    `json:"requestHash"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Store implements the transaction repository and the idempotency store on BoltDB.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and ensures the buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{transactionsBucket, eventsBucket, idempotencyBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func sequenceKey(sequence int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(sequence))
	return key
}

// Save writes the snapshot and the pending events in one bolt transaction. The
// stored version must still equal the version t was loaded with.
func (s *Store) Save(_ context.Context, t *domain.Transaction) error {
	pending := t.PendingEvents()
	if len(pending) == 0 {
		return nil
	}

	snapshot, err := json.Marshal(t.Snapshot())
	if err != nil {
		return fmt.Errorf("encode snapshot of transaction %s: %w", t.ID(), err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(transactionsBucket)

		stored := 0
		if existing := b.Get([]byte(t.ID())); existing != nil {
			var current domain.TransactionSnapshot
			if err := json.Unmarshal(existing, &current); err != nil {
				return err
			}
			stored = current.Version
		}
		if stored != t.PersistedVersion() {
			return fmt.Errorf("save transaction %s: stored version %d, loaded %d: %w",
				t.ID(), stored, t.PersistedVersion(), persistence.ErrVersionConflict)
		}

		if err := b.Put([]byte(t.ID()), snapshot); err != nil {
			return err
		}

		events, err := tx.Bucket(eventsBucket).CreateBucketIfNotExists([]byte(t.ID()))
		if err != nil {
			return err
		}
		for _, e := range pending {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encode event %s: %w", e.ID, err)
			}
			if err := events.Put(sequenceKey(e.Sequence), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	t.MarkPersisted()
	return nil
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.Transaction, error) {
	var snapshot domain.TransactionSnapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(transactionsBucket).Get([]byte(id))
		if v == nil {
			return persistence.ErrTransactionNotFound
		}
		return json.Unmarshal(v, &snapshot)
	})
	if err != nil {
		return nil, err
	}

	return domain.Reconstitute(snapshot), nil
}

func (s *Store) Events(_ context.Context, id string) ([]domain.Event, error) {
	var events []domain.Event

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(eventsBucket).Bucket([]byte(id))
		if b == nil {
			return persistence.ErrTransactionNotFound
		}
		// keys are big-endian sequences, so ForEach walks them in order
		return b.ForEach(func(_, v []byte) error {
			var e domain.Event
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			events = append(events, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// FindStalePending scans every snapshot. Bolt has no secondary indexes and the
// embedded store is meant for small deployments.
func (s *Store) FindStalePending(_ context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	var stale []domain.TransactionSnapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(transactionsBucket).ForEach(func(_, v []byte) error {
			var snapshot domain.TransactionSnapshot
			if err := json.Unmarshal(v, &snapshot); err != nil {
				return err
			}
			if snapshot.Status == domain.StatusPending && snapshot.UpdatedAt.Before(cutoff) {
				stale = append(stale, snapshot)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(stale, func(a, b domain.TransactionSnapshot) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}

	out := make([]*domain.Transaction, 0, len(stale))
	for _, snapshot := range stale {
		out = append(out, domain.Reconstitute(snapshot))
	}
	return out, nil
}

// Claim binds key to transactionID unless the key is taken. A taken key with a
// different request hash is an error.
func (s *Store) Claim(_ context.Context, key, requestHash, transactionID string, at time.Time) (string, bool, error) {
	existingID := transactionID
	claimed := false

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(idempotencyBucket)

		if v := b.Get([]byte(key)); v != nil {
			var record idempotencyRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			if record.RequestHash != requestHash {
				return persistence.ErrIdempotencyMismatch
			}
			existingID = record.TransactionID
			return nil
		}

		data, err := json.Marshal(idempotencyRecord{
			TransactionID: transactionID,
			RequestHash:   requestHash,
			CreatedAt:     at.UTC(),
		})
		if err != nil {
			return err
		}
		claimed = true
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return "", false, err
	}

	return existingID, claimed, nil
}

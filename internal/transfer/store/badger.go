// Package store persists transfer tasks in an embedded BadgerDB.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shandysiswandi/filebridge/internal/pkg/pkgerror"
	"github.com/shandysiswandi/filebridge/internal/transfer/entity"
)

const keyPrefix = "task:"

// updateRetries bounds optimistic-concurrency retries when two writers touch
// the same task.
const updateRetries = 3

// TaskStore is the durable task registry.
type TaskStore interface {
	Create(ctx context.Context, task entity.Task) (entity.Task, error)
	Get(ctx context.Context, id string) (entity.Task, error)
	Update(ctx context.Context, id string, fn func(*entity.Task) error) (entity.Task, error)
	ListByStatus(ctx context.Context, status entity.TaskStatus) ([]entity.Task, error)
	ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]entity.Task, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// BadgerStore implements TaskStore on a Badger key space of JSON task
// records.
type BadgerStore struct {
	db       *badger.DB
	cancelGC context.CancelFunc
}

// NewBadgerStore opens the database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ValueLogFileSize = 16 << 20
	opts.MemTableSize = 4 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}

	s := &BadgerStore{db: db}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelGC = cancel
	go s.valueLogGC(ctx)
	return s, nil
}

// NewInMemoryStore opens a store that lives only for the process, used by
// tests.
func NewInMemoryStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory task store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) valueLogGC(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(0.7)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
				return
			}
		}
	}
}

func (s *BadgerStore) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return entity.Task{}, err
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	key := []byte(keyPrefix + task.ID)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return pkgerror.NewConflict("task already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		val, err := json.Marshal(task)
		if err != nil {
			return err
		}
		return txn.Set(key, val)
	})
	if err != nil {
		return entity.Task{}, err
	}
	return task, nil
}

func (s *BadgerStore) Get(ctx context.Context, id string) (entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return entity.Task{}, err
	}

	var task entity.Task
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &task)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return entity.Task{}, pkgerror.NewNotFound("task not found")
	}
	if err != nil {
		return entity.Task{}, err
	}
	return task, nil
}

// Update applies fn to the stored task inside one transaction. fn sees the
// current record and may reject the transition by returning an error.
func (s *BadgerStore) Update(ctx context.Context, id string, fn func(*entity.Task) error) (entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return entity.Task{}, err
	}

	key := []byte(keyPrefix + id)
	var task entity.Task

	for attempt := 0; ; attempt++ {
		err := s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return pkgerror.NewNotFound("task not found")
			}
			if err != nil {
				return err
			}

			task = entity.Task{}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &task)
			}); err != nil {
				return err
			}

			if err := fn(&task); err != nil {
				return err
			}
			task.UpdatedAt = time.Now().UTC()

			val, err := json.Marshal(task)
			if err != nil {
				return err
			}
			return txn.Set(key, val)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < updateRetries {
			continue
		}
		if err != nil {
			return entity.Task{}, err
		}
		return task, nil
	}
}

func (s *BadgerStore) ListByStatus(ctx context.Context, status entity.TaskStatus) ([]entity.Task, error) {
	return s.list(ctx, func(t entity.Task) bool { return t.Status == status })
}

// ListTerminalBefore returns completed and failed tasks last touched before
// cutoff, for retention cleanup.
func (s *BadgerStore) ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]entity.Task, error) {
	return s.list(ctx, func(t entity.Task) bool {
		return t.Status.Terminal() && t.UpdatedAt.Before(cutoff)
	})
}

func (s *BadgerStore) list(ctx context.Context, keep func(entity.Task) bool) ([]entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tasks []entity.Task
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var task entity.Task
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &task)
			}); err != nil {
				return err
			}
			if keep(task) {
				tasks = append(tasks, task)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + id))
	})
}

func (s *BadgerStore) Close() error {
	if s.cancelGC != nil {
		s.cancelGC()
	}
	return s.db.Close()
}

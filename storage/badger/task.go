package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/minutia/core"
	"github.com/poiesic/minutia/storage"
)

// TaskQueue implements storage.TaskQueue for BadgerDB.
//
// Claim scans the task records and picks the best due candidate inside one
// write transaction, which keeps claim atomic without a status index to
// maintain. Task volumes are small relative to chunks, so the scan stays
// cheap.
type TaskQueue struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.TaskQueue = (*TaskQueue)(nil)

// NewTaskQueue creates a new TaskQueue.
func NewTaskQueue(backend *Backend) (*TaskQueue, error) {
	idSeq, err := backend.GetSequence(taskIDSeq)
	if err != nil {
		return nil, err
	}
	return &TaskQueue{backend: backend, idSeq: idSeq}, nil
}

// Close releases the ID sequence.
func (q *TaskQueue) Close() error {
	return q.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (q *TaskQueue) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return q.backend.WithTransaction(ctx, fn)
}

// Enqueue adds a task in pending state.
func (q *TaskQueue) Enqueue(ctx context.Context, task *core.ProcessingTask) (*core.ProcessingTask, error) {
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		if task.Id == 0 {
			nextID, err := q.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = q.idSeq.Next()
				if err != nil {
					return err
				}
			}
			task.Id = core.ID(nextID)
		}

		now := q.backend.now()
		if task.Status == 0 {
			task.Status = core.TaskStatusPending
		}
		if task.ScheduledAt.IsZero() {
			task.ScheduledAt = now
		}
		if task.InsertedAt.IsZero() {
			task.InsertedAt = now
		}
		task.UpdatedAt = now

		if err := core.ValidateTask(task); err != nil {
			return err
		}

		if err := tx.Set(makeTaskKey(task.Id), storage.MarshalTask(task)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return task, err
}

// Claim atomically claims the highest-priority due task.
// Returns nil, nil when nothing is due.
func (q *TaskQueue) Claim(ctx context.Context, workerID string, now time.Time, lease time.Duration) (*core.ProcessingTask, error) {
	var claimed *core.ProcessingTask
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		best, err := q.findDue(tx, now)
		if err != nil {
			return err
		}
		if best == nil {
			return nil
		}

		best.Status = core.TaskStatusProcessing
		best.ClaimedBy = workerID
		best.LeaseUntil = now.Add(lease)
		best.Attempts++
		best.UpdatedAt = now

		if err := tx.Set(makeTaskKey(best.Id), storage.MarshalTask(best)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		claimed = best
		return nil
	}, true)

	return claimed, err
}

// findDue scans for the best claimable task: pending and due, or processing
// with an expired lease. Ordered by priority desc, then schedule, then id.
func (q *TaskQueue) findDue(tx *badger.Txn, now time.Time) (*core.ProcessingTask, error) {
	var best *core.ProcessingTask

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(taskRecordPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var task *core.ProcessingTask
		err := iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			task, unmarshalErr = storage.UnmarshalTask(val)
			return unmarshalErr
		})
		if err != nil {
			return nil, err
		}

		due := task.Status == core.TaskStatusPending && !task.ScheduledAt.After(now)
		if !due && !task.LeaseExpired(now) {
			continue
		}
		if best == nil || moreUrgent(task, best) {
			best = task
		}
	}
	return best, nil
}

func moreUrgent(a, b *core.ProcessingTask) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.ScheduledAt.Equal(b.ScheduledAt) {
		return a.ScheduledAt.Before(b.ScheduledAt)
	}
	return a.Id < b.Id
}

// Complete marks a claimed task as completed.
func (q *TaskQueue) Complete(ctx context.Context, id core.ID) error {
	return q.mutate(id, func(task *core.ProcessingTask) error {
		if err := core.ValidateTaskTransition(task.Status, core.TaskStatusCompleted); err != nil {
			return err
		}
		task.Status = core.TaskStatusCompleted
		return nil
	})
}

// Fail marks a claimed task as permanently failed.
func (q *TaskQueue) Fail(ctx context.Context, id core.ID, reason string) error {
	return q.mutate(id, func(task *core.ProcessingTask) error {
		if err := core.ValidateTaskTransition(task.Status, core.TaskStatusFailed); err != nil {
			return err
		}
		task.Status = core.TaskStatusFailed
		task.LastError = reason
		return nil
	})
}

// Requeue returns a claimed task to pending for a later attempt.
func (q *TaskQueue) Requeue(ctx context.Context, id core.ID, reason string, runAt time.Time) error {
	return q.mutate(id, func(task *core.ProcessingTask) error {
		if err := core.ValidateTaskTransition(task.Status, core.TaskStatusPending); err != nil {
			return err
		}
		task.Status = core.TaskStatusPending
		task.LastError = reason
		task.ScheduledAt = runAt
		task.ClaimedBy = ""
		task.LeaseUntil = time.Time{}
		return nil
	})
}

// GetTask retrieves a task by ID.
func (q *TaskQueue) GetTask(ctx context.Context, id core.ID) (*core.ProcessingTask, error) {
	var result *core.ProcessingTask
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readTask(tx, makeTaskKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// PurgeOlderThan deletes terminal tasks last updated before the cutoff.
func (q *TaskQueue) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	purged := 0
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		var keys [][]byte

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(taskRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var task *core.ProcessingTask
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				task, unmarshalErr = storage.UnmarshalTask(val)
				return unmarshalErr
			})
			if err != nil {
				iter.Close()
				return err
			}
			if task.Terminal() && task.UpdatedAt.Before(cutoff) {
				keys = append(keys, iter.Item().KeyCopy(nil))
			}
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		purged = len(keys)
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return purged, nil
}

// mutate applies fn to a stored task inside one write transaction.
func (q *TaskQueue) mutate(id core.ID, fn func(*core.ProcessingTask) error) error {
	return q.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTaskKey(id)
		task, err := readTask(tx, key)
		if err != nil {
			return err
		}
		if task == nil {
			return storage.ErrNotFound
		}

		if err := fn(task); err != nil {
			return err
		}
		task.UpdatedAt = q.backend.now()

		if err := tx.Set(key, storage.MarshalTask(task)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readTask reads a task from the transaction.
// Returns nil, nil when the key does not exist.
func readTask(tx *badger.Txn, key []byte) (*core.ProcessingTask, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var task *core.ProcessingTask
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		task, unmarshalErr = storage.UnmarshalTask(val)
		return unmarshalErr
	})
	return task, err
}

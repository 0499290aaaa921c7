package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/shandysiswandi/filebridge/internal/pkg/pkgerror"
	"github.com/shandysiswandi/filebridge/internal/pkg/pkguid"
	"github.com/shandysiswandi/filebridge/internal/transfer/entity"
	"github.com/shandysiswandi/filebridge/internal/transfer/gateway"
)

type Store interface {
	Create(ctx context.Context, task entity.Task) (entity.Task, error)
	Get(ctx context.Context, id string) (entity.Task, error)
	Update(ctx context.Context, id string, fn func(task *entity.Task) error) (entity.Task, error)
	ListByStatus(ctx context.Context, status entity.TaskStatus) ([]entity.Task, error)
	ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]entity.Task, error)
	Delete(ctx context.Context, id string) error
}

type Blob interface {
	Save(ctx context.Context, originalFilename string, r io.Reader) (path string, size int64, err error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

type Callback interface {
	Push(ctx context.Context, url, taskID, status string, data any) error
	Pull(ctx context.Context, url string, req gateway.PullRequest) (gateway.PullPage, error)
}

type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error)
}

type Clock interface {
	Now() time.Time
}

type Dependency struct {
	Store    Store
	Blob     Blob
	Callback Callback
	Runner   Runner
	Clock    Clock
	ID       pkguid.StringID
	RootCtx  context.Context
}

type Usecase struct {
	store    Store
	blob     Blob
	callback Callback
	runner   Runner
	clock    Clock
	id       pkguid.StringID
	rootCtx  context.Context
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Usecase{
		store:    dep.Store,
		blob:     dep.Blob,
		callback: dep.Callback,
		runner:   dep.Runner,
		clock:    clock,
		id:       dep.ID,
		rootCtx:  root,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// GetTask returns the current state of one task.
func (u *Usecase) GetTask(ctx context.Context, taskID string) (entity.Task, error) {
	if taskID == "" {
		return entity.Task{}, pkgerror.NewInvalidInput(errors.New("task_id is required"))
	}

	task, err := u.store.Get(ctx, taskID)
	if err != nil {
		return entity.Task{}, normalizeErr(err)
	}
	return task, nil
}

// Download opens the generated file of a completed export. The caller owns
// the returned reader.
func (u *Usecase) Download(ctx context.Context, taskID string) (entity.Task, io.ReadCloser, error) {
	task, err := u.GetTask(ctx, taskID)
	if err != nil {
		return entity.Task{}, nil, err
	}

	if task.Status != entity.StatusCompleted {
		return entity.Task{}, nil, pkgerror.NewConflict("task is not completed")
	}
	if task.StoragePath == "" {
		return entity.Task{}, nil, pkgerror.NewNotFound("task has no file")
	}

	rc, err := u.blob.Open(ctx, task.StoragePath)
	if err != nil {
		return entity.Task{}, nil, normalizeErr(err)
	}
	return task, rc, nil
}

// PendingTasks lists tasks that were created but never picked up.
func (u *Usecase) PendingTasks(ctx context.Context) ([]entity.Task, error) {
	tasks, err := u.store.ListByStatus(ctx, entity.StatusPending)
	if err != nil {
		return nil, normalizeErr(err)
	}
	return tasks, nil
}

// CleanupExpired removes terminal tasks older than the retention window
// together with their stored files. Per-task failures are logged and skipped
// so one bad record cannot stall the sweep.
func (u *Usecase) CleanupExpired(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := u.clock.Now().UTC().Add(-retention)
	tasks, err := u.store.ListTerminalBefore(ctx, cutoff)
	if err != nil {
		return 0, normalizeErr(err)
	}

	removed := 0
	for _, task := range tasks {
		if task.StoragePath != "" {
			if err := u.blob.Delete(ctx, task.StoragePath); err != nil {
				slog.WarnContext(ctx, "failed to delete expired file", "task_id", task.ID, "error", err)
				continue
			}
		}
		if err := u.store.Delete(ctx, task.ID); err != nil {
			slog.WarnContext(ctx, "failed to delete expired task", "task_id", task.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// failTask force-fails a task with zeroed counters and the given message.
func (u *Usecase) failTask(ctx context.Context, taskID, msg string) {
	if _, err := u.store.Update(ctx, taskID, func(task *entity.Task) error {
		task.Status = entity.StatusFailed
		task.ProcessedRows = 0
		task.SuccessRows = 0
		task.FailedRows = 0
		task.ErrorMessage = msg
		return nil
	}); err != nil {
		slog.ErrorContext(ctx, "failed to mark task failed", "task_id", taskID, "error", err)
	}
}

// claim transitions a pending task to processing, rejecting double pickup.
func claim(task *entity.Task) error {
	if task.Status != entity.StatusPending {
		return pkgerror.NewConflict("task is not pending")
	}
	task.Status = entity.StatusProcessing
	return nil
}

// notifyFinal pushes the terminal status and counters to the callback URL.
// Delivery failure does not change the task outcome.
func (u *Usecase) notifyFinal(ctx context.Context, task entity.Task) {
	if u.callback == nil || task.CallbackURL == "" {
		return
	}

	payload := map[string]any{
		"processedRows": task.ProcessedRows,
		"successRows":   task.SuccessRows,
		"failedRows":    task.FailedRows,
	}
	if err := u.callback.Push(ctx, task.CallbackURL, task.ID, string(task.Status), payload); err != nil {
		slog.WarnContext(ctx, "failed to push final status", "task_id", task.ID, "error", err)
	}
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/filebridge/internal/pkg/pkgerror"
	"github.com/shandysiswandi/filebridge/internal/transfer/codec"
	"github.com/shandysiswandi/filebridge/internal/transfer/entity"
	"github.com/shandysiswandi/filebridge/internal/transfer/mapping"
)

// CreateImport registers an import task, stores the uploaded file, and
// schedules parsing. The file is persisted before this returns because the
// upload request body is gone once the handler finishes.
func (u *Usecase) CreateImport(ctx context.Context, in CreateImportInput) (CreateTaskResult, error) {
	if u.store == nil || u.blob == nil || u.id == nil || u.runner == nil {
		return CreateTaskResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}
	if in.Name == "" {
		return CreateTaskResult{}, pkgerror.NewInvalidInput(errors.New("task name is required"))
	}
	if in.File == nil || in.OriginalFilename == "" {
		return CreateTaskResult{}, pkgerror.NewInvalidInput(errors.New("file is required"))
	}
	if _, err := mapping.Parse(in.FieldMapping); err != nil {
		return CreateTaskResult{}, pkgerror.NewInvalidInput(err)
	}

	taskID := u.id.Generate()
	if _, err := u.store.Create(ctx, entity.Task{
		ID:               taskID,
		Name:             in.Name,
		Kind:             entity.KindImport,
		Status:           entity.StatusPending,
		OriginalFilename: in.OriginalFilename,
		FieldMapping:     in.FieldMapping,
		CallbackURL:      in.CallbackURL,
		CallbackParams:   in.CallbackParams,
	}); err != nil {
		return CreateTaskResult{}, normalizeErr(err)
	}

	path, size, err := u.blob.Save(ctx, in.OriginalFilename, in.File)
	if err != nil {
		u.failTask(ctx, taskID, "failed to store uploaded file")
		return CreateTaskResult{}, normalizeErr(err)
	}

	if _, err := u.store.Update(ctx, taskID, func(task *entity.Task) error {
		task.StoragePath = path
		task.FileSize = size
		return nil
	}); err != nil {
		return CreateTaskResult{}, normalizeErr(err)
	}

	u.runner.Go(u.rootCtx, func(ctx context.Context) error {
		if err := u.ProcessImport(ctx, taskID); err != nil {
			slog.ErrorContext(ctx, "import processing failed", "task_id", taskID, "error", err)
			return err
		}
		return nil
	})

	return CreateTaskResult{TaskID: taskID, Status: entity.StatusPending}, nil
}

// ProcessImport claims a pending import, parses the stored file, and pushes
// each batch to the callback URL. A batch whose delivery fails counts its
// rows as failed while the rest of the file keeps going; a file that cannot
// be parsed at all fails the task with zeroed counters.
func (u *Usecase) ProcessImport(ctx context.Context, taskID string) error {
	task, err := u.store.Update(ctx, taskID, claim)
	if err != nil {
		return normalizeErr(err)
	}

	m, err := mapping.Parse(task.FieldMapping)
	if err != nil {
		u.failTask(ctx, taskID, "invalid field mapping")
		return pkgerror.NewInvalidInput(err)
	}

	rc, err := u.blob.Open(ctx, task.StoragePath)
	if err != nil {
		u.failTask(ctx, taskID, "stored file is missing")
		return normalizeErr(err)
	}
	defer rc.Close()

	var processed, success, failed int
	deliver := func(rows []codec.Row) error {
		processed += len(rows)
		if task.CallbackURL == "" || u.callback == nil {
			success += len(rows)
		} else if err := u.callback.Push(ctx, task.CallbackURL, taskID, string(entity.StatusProcessing), rows); err != nil {
			failed += len(rows)
			slog.WarnContext(ctx, "failed to push batch", "task_id", taskID, "rows", len(rows), "error", err)
		} else {
			success += len(rows)
		}

		// One persisted write per batch, so status reads see live progress
		// without lost-update races on individual counters.
		if _, err := u.store.Update(ctx, taskID, func(task *entity.Task) error {
			task.ProcessedRows = processed
			task.SuccessRows = success
			task.FailedRows = failed
			return nil
		}); err != nil {
			slog.WarnContext(ctx, "failed to persist batch counters", "task_id", taskID, "error", err)
		}
		return nil
	}

	if _, err := codec.ForFilename(task.OriginalFilename).Parse(rc, m, deliver); err != nil {
		u.failTask(ctx, taskID, "failed to parse file: "+err.Error())
		return normalizeErr(err)
	}

	status := entity.StatusCompleted
	errMsg := ""
	if failed > 0 {
		status = entity.StatusFailed
		errMsg = "some rows failed during processing"
	}

	final, err := u.store.Update(ctx, taskID, func(task *entity.Task) error {
		task.Status = status
		task.ProcessedRows = processed
		task.SuccessRows = success
		task.FailedRows = failed
		task.ErrorMessage = errMsg
		return nil
	})
	if err != nil {
		return normalizeErr(err)
	}

	u.notifyFinal(ctx, final)
	return nil
}

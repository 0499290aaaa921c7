package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/filebridge/internal/pkg/pkgerror"
	"github.com/shandysiswandi/filebridge/internal/transfer/codec"
	"github.com/shandysiswandi/filebridge/internal/transfer/entity"
	"github.com/shandysiswandi/filebridge/internal/transfer/gateway"
	"github.com/shandysiswandi/filebridge/internal/transfer/mapping"
)

// CreateExport registers an export task and schedules generation. The
// callback URL is mandatory because it is the only data source.
func (u *Usecase) CreateExport(ctx context.Context, in CreateExportInput) (CreateTaskResult, error) {
	if u.store == nil || u.blob == nil || u.id == nil || u.runner == nil {
		return CreateTaskResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}
	if in.Name == "" {
		return CreateTaskResult{}, pkgerror.NewInvalidInput(errors.New("task name is required"))
	}
	if in.CallbackURL == "" {
		return CreateTaskResult{}, pkgerror.NewInvalidInput(errors.New("callback url is required"))
	}
	if _, err := mapping.Parse(in.FieldMapping); err != nil {
		return CreateTaskResult{}, pkgerror.NewInvalidInput(err)
	}

	taskID := u.id.Generate()
	if _, err := u.store.Create(ctx, entity.Task{
		ID:             taskID,
		Name:           in.Name,
		Kind:           entity.KindExport,
		Status:         entity.StatusPending,
		FieldMapping:   in.FieldMapping,
		CallbackURL:    in.CallbackURL,
		CallbackParams: in.CallbackParams,
	}); err != nil {
		return CreateTaskResult{}, normalizeErr(err)
	}

	u.runner.Go(u.rootCtx, func(ctx context.Context) error {
		if err := u.ProcessExport(ctx, taskID); err != nil {
			slog.ErrorContext(ctx, "export processing failed", "task_id", taskID, "error", err)
			return err
		}
		return nil
	})

	return CreateTaskResult{TaskID: taskID, Status: entity.StatusPending}, nil
}

// ProcessExport claims a pending export, pulls pages from the callback URL,
// and streams them into a generated workbook. Any pull or write error fails
// the task; a short or empty final page ends generation cleanly.
func (u *Usecase) ProcessExport(ctx context.Context, taskID string) error {
	filename := "export_" + strconv.FormatInt(u.clock.Now().UnixMilli(), 10) + ".xlsx"

	task, err := u.store.Update(ctx, taskID, func(task *entity.Task) error {
		if err := claim(task); err != nil {
			return err
		}
		task.OriginalFilename = filename
		return nil
	})
	if err != nil {
		return normalizeErr(err)
	}

	if task.CallbackURL == "" || u.callback == nil {
		u.failTask(ctx, taskID, "callback url is required")
		return pkgerror.NewInvalidInput(errors.New("callback url is required"))
	}

	m, err := mapping.Parse(task.FieldMapping)
	if err != nil {
		u.failTask(ctx, taskID, "invalid field mapping")
		return pkgerror.NewInvalidInput(err)
	}

	// The provider latches after the last page so a hasMore=false response
	// never triggers another network call.
	var pullErr error
	done := false
	provide := func(offset int) ([]codec.Row, error) {
		if done {
			return nil, nil
		}

		page, err := u.callback.Pull(ctx, task.CallbackURL, gateway.PullRequest{
			TaskID: taskID,
			Offset: offset,
			Limit:  codec.BatchSize,
			Params: task.CallbackParams,
		})
		if err != nil {
			pullErr = err
			done = true
			return nil, err
		}

		if !page.HasMore || len(page.Data) == 0 {
			done = true
		}
		return page.Data, nil
	}

	pr, pw := io.Pipe()
	genDone := make(chan struct{})
	var total int
	var genErr error
	go func() {
		defer close(genDone)
		total, genErr = codec.Excel{}.Generate(pw, m, provide)
		pw.CloseWithError(genErr)
	}()

	path, size, saveErr := u.blob.Save(ctx, filename, pr)
	if saveErr != nil {
		// Unblock the generator if the save bailed before draining the pipe.
		_ = pr.CloseWithError(saveErr)
	}
	<-genDone

	if pullErr != nil {
		u.failTask(ctx, taskID, "failed to pull export data: "+pullErr.Error())
		return normalizeErr(pullErr)
	}
	if saveErr != nil {
		u.failTask(ctx, taskID, "failed to store generated file")
		return normalizeErr(saveErr)
	}
	if genErr != nil {
		u.failTask(ctx, taskID, "failed to generate file: "+genErr.Error())
		return normalizeErr(genErr)
	}

	final, err := u.store.Update(ctx, taskID, func(task *entity.Task) error {
		task.Status = entity.StatusCompleted
		task.StoragePath = path
		task.FileSize = size
		task.ProcessedRows = total
		task.SuccessRows = total
		task.FailedRows = 0
		task.ErrorMessage = ""
		return nil
	})
	if err != nil {
		return normalizeErr(err)
	}

	u.notifyFinal(ctx, final)
	return nil
}

package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/filebridge/internal/pkg/pkgerror"
	"github.com/shandysiswandi/filebridge/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/filebridge/internal/transfer/usecase"
)

// maxUploadMemory bounds how much of a multipart upload stays in memory
// before spilling to temp files.
const maxUploadMemory = 32 << 20

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Upload(ctx context.Context, r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, pkgerror.NewInvalidFormat()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, pkgerror.NewInvalidInput(errors.New("file part is required"))
	}
	defer file.Close()

	result, err := h.uc.CreateImport(ctx, usecase.CreateImportInput{
		Name:             strings.TrimSpace(r.FormValue("taskName")),
		OriginalFilename: header.Filename,
		FieldMapping:     r.FormValue("fieldMapping"),
		CallbackURL:      r.FormValue("callbackUrl"),
		CallbackParams:   r.FormValue("callbackParams"),
		File:             file,
	})
	if err != nil {
		return nil, err
	}

	return CreateTaskResponse{TaskID: result.TaskID, Status: result.Status}, nil
}

func (h *HTTPEndpoint) Export(ctx context.Context, r *http.Request) (any, error) {
	if err := r.ParseForm(); err != nil {
		return nil, pkgerror.NewInvalidFormat()
	}

	result, err := h.uc.CreateExport(ctx, usecase.CreateExportInput{
		Name:           strings.TrimSpace(r.FormValue("taskName")),
		FieldMapping:   r.FormValue("fieldMapping"),
		CallbackURL:    r.FormValue("callbackUrl"),
		CallbackParams: r.FormValue("callbackParams"),
	})
	if err != nil {
		return nil, err
	}

	return CreateTaskResponse{TaskID: result.TaskID, Status: result.Status}, nil
}

func (h *HTTPEndpoint) Task(ctx context.Context, r *http.Request) (any, error) {
	taskID := pkgrouter.GetParam(ctx, "taskId")

	task, err := h.uc.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	return toTaskStatusResponse(task), nil
}

// Download writes the generated file as an attachment.
func (h *HTTPEndpoint) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID := pkgrouter.GetParam(ctx, "taskId")

	task, rc, err := h.uc.Download(ctx, taskID)
	if err != nil {
		writeDownloadError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+task.OriginalFilename+`"`)
	if task.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(task.FileSize, 10))
	}

	if _, err := io.Copy(w, rc); err != nil {
		slog.ErrorContext(ctx, "failed to stream download", "task_id", taskID, "error", err)
	}
}

func writeDownloadError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := "Internal server error"

	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		code = perr.StatusCode()
		msg = perr.Error()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

package inbound

import (
	"context"
	"io"
	"net/http"

	"github.com/shandysiswandi/filebridge/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/filebridge/internal/transfer/entity"
	"github.com/shandysiswandi/filebridge/internal/transfer/usecase"
)

type uc interface {
	CreateImport(ctx context.Context, in usecase.CreateImportInput) (usecase.CreateTaskResult, error)
	CreateExport(ctx context.Context, in usecase.CreateExportInput) (usecase.CreateTaskResult, error)
	GetTask(ctx context.Context, taskID string) (entity.Task, error)
	Download(ctx context.Context, taskID string) (entity.Task, io.ReadCloser, error)
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/upload", end.Upload)
	r.POST("/api/export", end.Export)
	r.GET("/api/task/:taskId", end.Task)

	// Download streams the raw file, so it bypasses the JSON envelope.
	r.Handle(http.MethodGet, "/api/download/:taskId", http.HandlerFunc(end.Download))
}

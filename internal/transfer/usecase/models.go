package usecase

import (
	"io"

	"github.com/shandysiswandi/filebridge/internal/transfer/entity"
)

type CreateImportInput struct {
	Name             string
	OriginalFilename string
	FieldMapping     string
	CallbackURL      string
	CallbackParams   string
	File             io.Reader
}

type CreateExportInput struct {
	Name           string
	FieldMapping   string
	CallbackURL    string
	CallbackParams string
}

type CreateTaskResult struct {
	TaskID string
	Status entity.TaskStatus
}

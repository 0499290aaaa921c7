package entity

import "time"

// Task is one tracked import or export transfer.
//
// The record is exclusively owned by the transfer engine; the blob referenced
// by StoragePath belongs to the task and is removed when the task is reaped.
type Task struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Kind   TaskKind   `json:"kind"`
	Status TaskStatus `json:"status"`

	OriginalFilename string `json:"original_filename"`
	StoragePath      string `json:"storage_path"`
	FileSize         int64  `json:"file_size"`

	// Row counters. A task is never partially successful at the status
	// level: failed rows are recorded here while the terminal status is
	// computed from FailedRows alone.
	ProcessedRows int `json:"processed_rows"`
	SuccessRows   int `json:"success_rows"`
	FailedRows    int `json:"failed_rows"`

	ErrorMessage string `json:"error_message"`

	// FieldMapping is the raw JSON mapping config attached at creation.
	FieldMapping   string `json:"field_mapping"`
	CallbackURL    string `json:"callback_url"`
	CallbackParams string `json:"callback_params"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

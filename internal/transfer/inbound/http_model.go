package inbound

import (
	"net/http"

	"github.com/shandysiswandi/filebridge/internal/transfer/entity"
)

type CreateTaskResponse struct {
	TaskID string            `json:"taskId"`
	Status entity.TaskStatus `json:"status"`
}

func (CreateTaskResponse) StatusCode() int {
	return http.StatusAccepted
}

func (CreateTaskResponse) Message() string {
	return "task accepted"
}

type TaskStatusResponse struct {
	TaskID        string            `json:"taskId"`
	TaskName      string            `json:"taskName"`
	Kind          entity.TaskKind   `json:"kind"`
	Status        entity.TaskStatus `json:"status"`
	ProcessedRows int               `json:"processedRows"`
	SuccessRows   int               `json:"successRows"`
	FailedRows    int               `json:"failedRows"`
	ErrorMessage  string            `json:"errorMessage,omitempty"`
}

func toTaskStatusResponse(task entity.Task) TaskStatusResponse {
	return TaskStatusResponse{
		TaskID:        task.ID,
		TaskName:      task.Name,
		Kind:          task.Kind,
		Status:        task.Status,
		ProcessedRows: task.ProcessedRows,
		SuccessRows:   task.SuccessRows,
		FailedRows:    task.FailedRows,
		ErrorMessage:  task.ErrorMessage,
	}
}

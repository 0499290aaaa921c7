package entity

// TaskKind is the transfer direction, fixed at creation.
type TaskKind string

const (
	KindImport TaskKind = "IMPORT"
	KindExport TaskKind = "EXPORT"
)

// TaskStatus is the lifecycle state of a task.
//
// PENDING is the only initial state. COMPLETED and FAILED are terminal.
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusProcessing TaskStatus = "PROCESSING"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusFailed     TaskStatus = "FAILED"
)

// Terminal reports whether no further automatic transition occurs.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

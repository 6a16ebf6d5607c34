package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of an async task
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// CheckTask represents an async price check task
type CheckTask struct {
	ID          string     `json:"id"`
	ProductID   int        `json:"product_id"`
	Status      TaskStatus `json:"status"`
	Progress    int        `json:"progress"` // 0-100
	Message     string     `json:"message"`
	Result      *PriceData `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewCheckTask creates a new price check task
func NewCheckTask(productID int) *CheckTask {
	return &CheckTask{
		ID:        uuid.NewString(),
		ProductID: productID,
		Status:    TaskStatusQueued,
		Progress:  0,
		Message:   "Task queued for processing",
		CreatedAt: time.Now(),
	}
}

// Start marks the task as processing
func (t *CheckTask) Start() {
	t.Status = TaskStatusProcessing
	t.Progress = 0
	t.Message = "Starting price check..."
	now := time.Now()
	t.StartedAt = &now
}

// Complete marks the task as completed with result
func (t *CheckTask) Complete(result *PriceData) {
	t.Status = TaskStatusCompleted
	t.Progress = 100
	t.Message = "Price check completed"
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
}

// Fail marks the task as failed with error
func (t *CheckTask) Fail(errMsg string) {
	t.Status = TaskStatusFailed
	t.Progress = 0
	t.Message = "Price check failed"
	t.Error = errMsg
	now := time.Now()
	t.CompletedAt = &now
}

// IsCompleted returns true if the task is in a final state
func (t *CheckTask) IsCompleted() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// IsActive returns true if the task is still running
func (t *CheckTask) IsActive() bool {
	return t.Status == TaskStatusQueued || t.Status == TaskStatusProcessing
}

// Duration returns the duration of the task
func (t *CheckTask) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}

	endTime := time.Now()
	if t.CompletedAt != nil {
		endTime = *t.CompletedAt
	}

	return endTime.Sub(*t.StartedAt)
}

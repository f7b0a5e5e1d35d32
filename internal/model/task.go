package model

import (
	"fmt"
	"time"
)

// TaskStatus represents the lifecycle state of a build task.
type TaskStatus string

const (
	// TaskStatusPending means the task has been accepted but no stage has run yet.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusBuilding means the build stage is in progress.
	TaskStatusBuilding TaskStatus = "building"
	// TaskStatusPushing means the push stage is in progress.
	TaskStatusPushing TaskStatus = "pushing"
	// TaskStatusDone means the task finished successfully.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusFailed means a stage failed and the task stopped.
	TaskStatusFailed TaskStatus = "failed"
)

// IsValid returns true if the status is a known one.
func (t TaskStatus) IsValid() bool {
	switch t {
	case TaskStatusPending, TaskStatusBuilding, TaskStatusPushing, TaskStatusDone, TaskStatusFailed:
		return true
	}
	return false
}

// Terminal returns true if the status accepts no further transitions.
func (t TaskStatus) Terminal() bool {
	return t == TaskStatusDone || t == TaskStatusFailed
}

// validTransitions holds the allowed state machine edges.
var validTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:  {TaskStatusBuilding},
	TaskStatusBuilding: {TaskStatusPushing, TaskStatusFailed},
	TaskStatusPushing:  {TaskStatusDone, TaskStatusFailed},
	TaskStatusDone:     {},
	TaskStatusFailed:   {},
}

// CanTransitionTo returns true if moving from the current status to next
// is an allowed edge of the task state machine.
func (t TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, s := range validTransitions[t] {
		if s == next {
			return true
		}
	}
	return false
}

// TaskResult holds the outputs of a successfully finished task.
type TaskResult struct {
	// ArtifactRef is the blob reference of the built artifact.
	ArtifactRef string
	// ImageRef is the pushed image reference.
	ImageRef string
}

// BuildTask represents a build-and-push pipeline task.
type BuildTask struct {
	ID          string
	WorkspaceID string
	// SourceRef is the blob reference of the uploaded source archive.
	SourceRef string
	Status    TaskStatus
	// Result is only set when the task reaches done.
	Result *TaskResult
	// Error holds the stage error message when the task failed.
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the task has the minimum required fields.
func (t BuildTask) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: task id is required", ErrNotValid)
	}

	if t.WorkspaceID == "" {
		return fmt.Errorf("%w: workspace id is required", ErrNotValid)
	}

	if t.SourceRef == "" {
		return fmt.Errorf("%w: source ref is required", ErrNotValid)
	}

	if !t.Status.IsValid() {
		return fmt.Errorf("%w: unknown task status %q", ErrNotValid, t.Status)
	}

	return nil
}

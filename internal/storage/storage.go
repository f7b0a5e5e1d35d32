package storage

import (
	"context"

	"github.com/bluefn/spind/internal/model"
)

// TaskRepository is the interface for build task persistence.
type TaskRepository interface {
	CreateTask(ctx context.Context, t model.BuildTask) error
	GetTask(ctx context.Context, workspaceID, taskID string) (*model.BuildTask, error)
	ListTasks(ctx context.Context, workspaceID string) ([]model.BuildTask, error)
	UpdateTask(ctx context.Context, t model.BuildTask) error
	// AcquireLease atomically claims a task for execution. It returns false
	// when another worker already holds the lease.
	AcquireLease(ctx context.Context, taskID string) (bool, error)
}

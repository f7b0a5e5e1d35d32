package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bluefn/spind/internal/log"
	"github.com/bluefn/spind/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.TaskRepository.
type Repository struct {
	tasks  map[string]model.BuildTask
	leases map[string]bool
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		tasks:  make(map[string]model.BuildTask),
		leases: make(map[string]bool),
		logger: cfg.Logger,
	}, nil
}

// CreateTask creates a new build task in the repository.
func (r *Repository) CreateTask(ctx context.Context, t model.BuildTask) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; ok {
		return fmt.Errorf("task with id %s: %w", t.ID, model.ErrAlreadyExists)
	}

	r.tasks[t.ID] = copyTask(t)
	r.logger.Debugf("Created task in repository: %s", t.ID)

	return nil
}

// GetTask retrieves a task by workspace and id.
func (r *Repository) GetTask(ctx context.Context, workspaceID, taskID string) (*model.BuildTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[taskID]
	if !ok || task.WorkspaceID != workspaceID {
		return nil, fmt.Errorf("task %s in workspace %s: %w", taskID, workspaceID, model.ErrNotFound)
	}

	taskCopy := copyTask(task)
	return &taskCopy, nil
}

// ListTasks returns all tasks of a workspace, most recent first.
func (r *Repository) ListTasks(ctx context.Context, workspaceID string) ([]model.BuildTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tasks []model.BuildTask
	for _, task := range r.tasks {
		if task.WorkspaceID == workspaceID {
			tasks = append(tasks, copyTask(task))
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})

	return tasks, nil
}

// UpdateTask updates an existing task.
func (r *Repository) UpdateTask(ctx context.Context, t model.BuildTask) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[t.ID]
	if !ok || existing.WorkspaceID != t.WorkspaceID {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}

	r.tasks[t.ID] = copyTask(t)
	r.logger.Debugf("Updated task in repository: %s (status: %s)", t.ID, t.Status)

	return nil
}

// AcquireLease claims a task with a compare-and-set on the lease flag.
func (r *Repository) AcquireLease(ctx context.Context, taskID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[taskID]; !ok {
		return false, fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
	}

	if r.leases[taskID] {
		return false, nil
	}

	r.leases[taskID] = true
	return true, nil
}

func copyTask(t model.BuildTask) model.BuildTask {
	if t.Result != nil {
		result := *t.Result
		t.Result = &result
	}
	return t
}

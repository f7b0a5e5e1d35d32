package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bluefn/spind/internal/builder"
	"github.com/bluefn/spind/internal/log"
	"github.com/bluefn/spind/internal/model"
	"github.com/bluefn/spind/internal/storage"
)

// OrchestratorConfig is the configuration for the pipeline orchestrator.
type OrchestratorConfig struct {
	Repository storage.TaskRepository
	Builder    builder.Builder
	Pusher     builder.Pusher
	// Registry is the image registry pushed artifacts end up in.
	Registry string
	// Workers is the size of the worker pool.
	Workers int
	// QueueSize bounds the number of tasks waiting for a worker.
	QueueSize int
	Logger    log.Logger
}

func (c *OrchestratorConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Builder == nil {
		return fmt.Errorf("builder is required")
	}
	if c.Pusher == nil {
		return fmt.Errorf("pusher is required")
	}
	if c.Registry == "" {
		return fmt.Errorf("registry is required")
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 128
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "pipeline.Orchestrator"})
	return nil
}

// Orchestrator runs build-and-push pipelines on a bounded worker pool.
// Every state transition is persisted before the next stage runs, so a
// crash leaves behind the exact stage a task was in.
type Orchestrator struct {
	repo     storage.TaskRepository
	builder  builder.Builder
	pusher   builder.Pusher
	registry string
	workers  int
	taskCh   chan model.BuildTask
	logger   log.Logger
}

// NewOrchestrator creates a new pipeline orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Orchestrator{
		repo:     cfg.Repository,
		builder:  cfg.Builder,
		pusher:   cfg.Pusher,
		registry: cfg.Registry,
		workers:  cfg.Workers,
		taskCh:   make(chan model.BuildTask, cfg.QueueSize),
		logger:   cfg.Logger,
	}, nil
}

// Run starts the worker pool and blocks until ctx is cancelled and all
// workers have returned.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Infof("Starting %d pipeline workers", o.workers)

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.worker(ctx)
		}()
	}
	wg.Wait()

	o.logger.Infof("Pipeline workers stopped")
	return nil
}

// Submit validates and persists a new pending task and schedules it for
// execution. It returns the task id without waiting for the pipeline.
func (o *Orchestrator) Submit(ctx context.Context, workspaceID, sourceRef string) (string, error) {
	if workspaceID == "" {
		return "", fmt.Errorf("%w: workspace id is required", model.ErrNotValid)
	}
	if sourceRef == "" {
		return "", fmt.Errorf("%w: source ref is required", model.ErrNotValid)
	}

	now := time.Now().UTC()
	task := model.BuildTask{
		ID:          ulid.Make().String(),
		WorkspaceID: workspaceID,
		SourceRef:   sourceRef,
		Status:      model.TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := o.repo.CreateTask(ctx, task); err != nil {
		return "", fmt.Errorf("could not create task: %w", err)
	}

	select {
	case o.taskCh <- task:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	o.logger.WithCtxValues(ctx).Infof("Submitted task %s (workspace: %s)", task.ID, workspaceID)
	return task.ID, nil
}

// GetStatus returns a task by workspace and id.
func (o *Orchestrator) GetStatus(ctx context.Context, workspaceID, taskID string) (*model.BuildTask, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", model.ErrNotValid)
	}
	if taskID == "" {
		return nil, fmt.Errorf("%w: task id is required", model.ErrNotValid)
	}

	task, err := o.repo.GetTask(ctx, workspaceID, taskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	return task, nil
}

// List returns all tasks of a workspace, most recent first.
func (o *Orchestrator) List(ctx context.Context, workspaceID string) ([]model.BuildTask, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", model.ErrNotValid)
	}

	tasks, err := o.repo.ListTasks(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	return tasks, nil
}

func (o *Orchestrator) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-o.taskCh:
			o.process(ctx, task)
		}
	}
}

// process runs the build-and-push pipeline for a single task. The lease
// compare-and-set guarantees one executor per task even when the same
// task is enqueued more than once.
func (o *Orchestrator) process(ctx context.Context, task model.BuildTask) {
	logger := o.logger.WithValues(log.Kv{"task": task.ID, "workspace": task.WorkspaceID})

	ok, err := o.repo.AcquireLease(ctx, task.ID)
	if err != nil {
		logger.Errorf("Could not acquire lease: %s", err)
		return
	}
	if !ok {
		logger.Debugf("Lease already held, skipping")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Panic while processing task: %v", r)
			o.fail(ctx, &task, fmt.Sprintf("internal error: %v", r))
		}
	}()

	// Build stage.
	if err := o.transition(ctx, &task, model.TaskStatusBuilding, nil); err != nil {
		logger.Errorf("Could not start build stage: %s", err)
		return
	}
	logger.Infof("Building %s", task.SourceRef)

	artifactRef, err := o.builder.Build(ctx, task.SourceRef)
	if err != nil {
		logger.Errorf("Build failed: %s", err)
		o.fail(ctx, &task, fmt.Sprintf("build failed: %s", err))
		return
	}

	// Push stage.
	if err := o.transition(ctx, &task, model.TaskStatusPushing, nil); err != nil {
		logger.Errorf("Could not start push stage: %s", err)
		return
	}
	logger.Infof("Pushing %s to %s", artifactRef, o.registry)

	imageRef, err := o.pusher.Push(ctx, artifactRef, o.registry)
	if err != nil {
		logger.Errorf("Push failed: %s", err)
		o.fail(ctx, &task, fmt.Sprintf("push failed: %s", err))
		return
	}

	err = o.transition(ctx, &task, model.TaskStatusDone, func(t *model.BuildTask) {
		t.Result = &model.TaskResult{ArtifactRef: artifactRef, ImageRef: imageRef}
	})
	if err != nil {
		logger.Errorf("Could not finish task: %s", err)
		return
	}

	logger.Infof("Task done: %s", imageRef)
}

// transition persists a status change, refusing edges the state machine
// doesn't allow.
func (o *Orchestrator) transition(ctx context.Context, task *model.BuildTask, next model.TaskStatus, mutate func(*model.BuildTask)) error {
	if !task.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: cannot transition from %s to %s", model.ErrConflict, task.Status, next)
	}

	updated := *task
	updated.Status = next
	updated.UpdatedAt = time.Now().UTC()
	if mutate != nil {
		mutate(&updated)
	}

	if err := o.repo.UpdateTask(ctx, updated); err != nil {
		return fmt.Errorf("could not persist transition to %s: %w", next, err)
	}

	*task = updated
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, task *model.BuildTask, msg string) {
	if task.Status.Terminal() {
		return
	}

	err := o.transition(ctx, task, model.TaskStatusFailed, func(t *model.BuildTask) {
		t.Error = msg
	})
	if err != nil {
		o.logger.Errorf("Could not mark task %s as failed: %s", task.ID, err)
	}
}

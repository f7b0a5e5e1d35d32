package list

import (
	"context"
	"fmt"

	"github.com/bluefn/spind/internal/log"
	"github.com/bluefn/spind/internal/model"
	"github.com/bluefn/spind/internal/storage"
)

// ServiceConfig is the configuration for the list service.
type ServiceConfig struct {
	Repository storage.TaskRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service lists the build tasks of a workspace.
type Service struct {
	repo   storage.TaskRepository
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	WorkspaceID string
	// StatusFilter is an optional filter to only show tasks with this status.
	StatusFilter *model.TaskStatus
}

// Run lists the workspace's tasks, most recent first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.BuildTask, error) {
	if req.WorkspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", model.ErrNotValid)
	}
	s.logger.Debugf("listing tasks of workspace %s", req.WorkspaceID)

	tasks, err := s.repo.ListTasks(ctx, req.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	if req.StatusFilter != nil {
		filtered := make([]model.BuildTask, 0, len(tasks))
		for _, t := range tasks {
			if t.Status == *req.StatusFilter {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	s.logger.Debugf("found %d tasks", len(tasks))
	return tasks, nil
}

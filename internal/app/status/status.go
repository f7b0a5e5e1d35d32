package status

import (
	"context"
	"fmt"

	"github.com/bluefn/spind/internal/log"
	"github.com/bluefn/spind/internal/model"
	"github.com/bluefn/spind/internal/storage"
)

// ServiceConfig is the configuration for the status service.
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

// Service reads the status of a single build task.
type Service struct {
	repo   storage.TaskRepository
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	WorkspaceID string
	TaskID      string
}

// Run returns the task, scoped to the workspace.
func (s *Service) Run(ctx context.Context, req Request) (*model.BuildTask, error) {
	if req.WorkspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", model.ErrNotValid)
	}
	if req.TaskID == "" {
		return nil, fmt.Errorf("%w: task id is required", model.ErrNotValid)
	}

	task, err := s.repo.GetTask(ctx, req.WorkspaceID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	return task, nil
}

package submit

import (
	"context"
	"fmt"
	"io"

	"github.com/bluefn/spind/internal/blob"
	"github.com/bluefn/spind/internal/log"
)

// TaskSubmitter schedules a build-and-push task for an uploaded source.
type TaskSubmitter interface {
	Submit(ctx context.Context, workspaceID, sourceRef string) (string, error)
}

// ServiceConfig is the configuration for the submit service.
type ServiceConfig struct {
	Blobs     blob.Store
	Submitter TaskSubmitter
	Logger    log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Blobs == nil {
		return fmt.Errorf("blob store is required")
	}

	if c.Submitter == nil {
		return fmt.Errorf("submitter is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Submit"})

	return nil
}

// Service uploads a source archive and submits its pipeline task.
type Service struct {
	blobs     blob.Store
	submitter TaskSubmitter
	logger    log.Logger
}

// NewService creates a new submit service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		blobs:     cfg.Blobs,
		submitter: cfg.Submitter,
		logger:    cfg.Logger,
	}, nil
}

// Request represents the submit request parameters.
type Request struct {
	WorkspaceID string
	// Source is the source archive content.
	Source io.Reader
}

// Run stores the source archive and submits a new pipeline task. It
// returns the task id without waiting for the pipeline to finish.
func (s *Service) Run(ctx context.Context, req Request) (string, error) {
	sourceRef, err := s.blobs.Store(ctx, req.Source)
	if err != nil {
		return "", fmt.Errorf("could not store source: %w", err)
	}
	s.logger.Debugf("Stored source as %s", sourceRef)

	taskID, err := s.submitter.Submit(ctx, req.WorkspaceID, sourceRef)
	if err != nil {
		return "", fmt.Errorf("could not submit task: %w", err)
	}

	return taskID, nil
}

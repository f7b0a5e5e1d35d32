package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/bluefn/spind/internal/log"
	"github.com/bluefn/spind/internal/model"
)

// ClientConfig is the configuration for the fake cluster client.
type ClientConfig struct {
	// ApplyErr makes every apply fail with this error.
	ApplyErr error
	// ServiceErr makes every service lookup fail with this error.
	ServiceErr error
	// ServiceStatus overrides the status reported for applied apps.
	ServiceStatus model.ServiceStatus
	Logger        log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.ServiceStatus == "" {
		c.ServiceStatus = model.ServiceStatusFound
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "cluster.Fake"})
	return nil
}

// Client is a fake implementation of cluster.Client. Applying an app also
// registers its service, simulating what the operator does on a real
// cluster.
type Client struct {
	applyErr      error
	serviceErr    error
	serviceStatus model.ServiceStatus
	apps          map[string]model.AppManifest
	services      map[string]model.ServiceStatus
	mu            sync.RWMutex
	logger        log.Logger
}

// NewClient creates a new fake cluster client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		applyErr:      cfg.ApplyErr,
		serviceErr:    cfg.ServiceErr,
		serviceStatus: cfg.ServiceStatus,
		apps:          make(map[string]model.AppManifest),
		services:      make(map[string]model.ServiceStatus),
		logger:        cfg.Logger,
	}, nil
}

// GetApp returns a previously applied app.
func (c *Client) GetApp(ctx context.Context, namespace, name string) (*model.AppManifest, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	app, ok := c.apps[key(namespace, name)]
	if !ok {
		return nil, fmt.Errorf("app %s/%s: %w", namespace, name, model.ErrNotFound)
	}

	appCopy := app
	return &appCopy, nil
}

// ApplyApp stores the app and registers its service.
func (c *Client) ApplyApp(ctx context.Context, m model.AppManifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if c.applyErr != nil {
		return c.applyErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.apps[key(m.Namespace, m.Name)] = m
	c.services[key(m.Namespace, m.Name)] = c.serviceStatus
	c.logger.Debugf("Applied fake app %s/%s", m.Namespace, m.Name)

	return nil
}

// ResolveService reports the registered service status.
func (c *Client) ResolveService(ctx context.Context, namespace, name string) (model.ServiceStatus, error) {
	if c.serviceErr != nil {
		return model.ServiceStatusNotFound, c.serviceErr
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	status, ok := c.services[key(namespace, name)]
	if !ok {
		return model.ServiceStatusNotFound, nil
	}

	return status, nil
}

func key(namespace, name string) string { return namespace + "/" + name }

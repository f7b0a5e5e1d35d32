package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluefn/spind/internal/cluster"
	"github.com/bluefn/spind/internal/conventions"
	"github.com/bluefn/spind/internal/log"
	"github.com/bluefn/spind/internal/manifest"
	"github.com/bluefn/spind/internal/model"
)

// ServiceConfig is the configuration for the deploy service.
type ServiceConfig struct {
	Cluster cluster.Client
	Namer   *Namer
	// Domain is the DNS suffix of service endpoints.
	Domain string
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Cluster == nil {
		return fmt.Errorf("cluster client is required")
	}

	if c.Namer == nil {
		c.Namer = NewNamer()
	}

	if c.Domain == "" {
		c.Domain = conventions.DefaultClusterDomain
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Deploy"})

	return nil
}

// Service deploys synthesized app manifests to the cluster, deciding
// between creating a new workload and updating an existing one.
type Service struct {
	cluster cluster.Client
	namer   *Namer
	domain  string
	logger  log.Logger
}

// NewService creates a new deploy service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		cluster: cfg.Cluster,
		namer:   cfg.Namer,
		domain:  cfg.Domain,
		logger:  cfg.Logger,
	}, nil
}

// Run deploys the requested app. With an explicit app name an existing
// workload is updated in place, otherwise a fresh human-readable name is
// generated and a new workload created. Concurrent deploys to the same
// name are last-apply-wins.
func (s *Service) Run(ctx context.Context, req model.DeployRequest) (*model.DeployResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	created := true
	if req.AppName == "" {
		req.AppName = s.namer.Generate()
		s.logger.Debugf("Generated app name %s", req.AppName)
	} else {
		_, err := s.cluster.GetApp(ctx, req.Namespace, req.AppName)
		switch {
		case err == nil:
			created = false
		case errors.Is(err, model.ErrNotFound):
		default:
			return nil, fmt.Errorf("could not look up app: %w", err)
		}
	}

	m, err := manifest.Synthesize(req)
	if err != nil {
		return nil, err
	}

	if err := s.cluster.ApplyApp(ctx, *m); err != nil {
		return nil, fmt.Errorf("could not deploy app %s: %w", req.AppName, err)
	}
	s.logger.Infof("Applied app %s/%s (created: %t)", req.Namespace, req.AppName, created)

	// A deployed workload with an unresolvable service is not a failure,
	// the service may simply not be reconciled yet.
	serviceStatus, err := s.cluster.ResolveService(ctx, req.Namespace, req.AppName)
	if err != nil {
		s.logger.Warningf("Could not resolve service %s/%s: %s", req.Namespace, req.AppName, err)
		serviceStatus = model.ServiceStatusNotFound
	}

	return &model.DeployResult{
		AppName:           req.AppName,
		Namespace:         req.Namespace,
		Created:           created,
		ServiceName:       req.AppName,
		ServiceStatus:     serviceStatus,
		Endpoint:          fmt.Sprintf("%s.%s.%s", req.AppName, req.Namespace, s.domain),
		EnableAutoscaling: req.EnableAutoscaling,
		UseSpot:           req.UseSpot,
	}, nil
}

package cluster

import (
	"context"

	"github.com/bluefn/spind/internal/model"
)

// Client is the interface for cluster operations on SpinApp workloads.
type Client interface {
	// GetApp returns an existing app workload, model.ErrNotFound when the
	// workload doesn't exist.
	GetApp(ctx context.Context, namespace, name string) (*model.AppManifest, error)
	// ApplyApp creates the app workload or updates it when it already
	// exists.
	ApplyApp(ctx context.Context, m model.AppManifest) error
	// ResolveService reports whether the app's service is reachable.
	ResolveService(ctx context.Context, namespace, name string) (model.ServiceStatus, error)
}

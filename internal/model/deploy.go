package model

import "fmt"

// ServiceStatus describes whether the app's service was resolvable after
// a deployment.
type ServiceStatus string

const (
	// ServiceStatusFound means the service exists and has an address.
	ServiceStatusFound ServiceStatus = "found"
	// ServiceStatusPending means the service exists but has no address yet.
	ServiceStatusPending ServiceStatus = "pending"
	// ServiceStatusNotFound means the service could not be resolved.
	ServiceStatusNotFound ServiceStatus = "not-found"
)

// DeployRequest is the input for manifest synthesis and deployment.
type DeployRequest struct {
	// AppName is optional. When empty a human-readable name is generated.
	AppName    string
	Namespace  string
	Image      string
	FunctionID string
	// Replicas is only honored when autoscaling is disabled. Setting it
	// together with autoscaling is a conflict.
	Replicas          *int
	EnableAutoscaling bool
	UseSpot           bool
	ServiceAccount    string
	Resources         ResourceLimits
}

// Validate checks the request before synthesis.
func (r DeployRequest) Validate() error {
	if r.Namespace == "" {
		return fmt.Errorf("%w: namespace is required", ErrNotValid)
	}

	if r.Image == "" {
		return fmt.Errorf("%w: image is required", ErrNotValid)
	}

	if r.AppName != "" && !ValidAppName(r.AppName) {
		return fmt.Errorf("%w: invalid app name %q", ErrNotValid, r.AppName)
	}

	if r.EnableAutoscaling && r.Replicas != nil {
		return fmt.Errorf("%w: replicas cannot be set when autoscaling is enabled", ErrConflict)
	}

	if err := r.Resources.Validate(); err != nil {
		return err
	}

	return nil
}

// DeployResult is the outcome of a deployment.
type DeployResult struct {
	AppName   string
	Namespace string
	// Created is true when the deployment created a new workload instead
	// of updating an existing one.
	Created           bool
	ServiceName       string
	ServiceStatus     ServiceStatus
	Endpoint          string
	EnableAutoscaling bool
	UseSpot           bool
}

package model

import (
	"fmt"
	"regexp"
)

const (
	// ManagedByLabel marks every synthesized workload as owned by spind.
	ManagedByLabel = "app.kubernetes.io/managed-by"
	// ManagedByValue is the fixed value of the managed-by label.
	ManagedByValue = "spind"
	// FunctionIDLabel carries the caller's function id when one is given.
	FunctionIDLabel = "spind.dev/function-id"
	// FaasPodLabel marks synthesized pods for cluster-level selection.
	FaasPodLabel = "faas"
)

// maxAppNameLength is the Kubernetes object name limit for labels/services.
const maxAppNameLength = 63

var (
	appNameRegexp  = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	quantityRegexp = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?(m|Ki|Mi|Gi|Ti|Pi|Ei|k|M|G|T|P|E)?$`)
)

// ValidAppName returns true if name is usable as a Kubernetes app name.
func ValidAppName(name string) bool {
	return len(name) <= maxAppNameLength && appNameRegexp.MatchString(name)
}

// ResourceLimits holds container resource settings in Kubernetes quantity
// format. Empty fields are omitted from the manifest.
type ResourceLimits struct {
	CPULimit      string
	MemoryLimit   string
	CPURequest    string
	MemoryRequest string
}

// Validate checks every set quantity against the Kubernetes quantity format.
func (r ResourceLimits) Validate() error {
	for name, q := range map[string]string{
		"cpu limit":      r.CPULimit,
		"memory limit":   r.MemoryLimit,
		"cpu request":    r.CPURequest,
		"memory request": r.MemoryRequest,
	} {
		if q == "" {
			continue
		}
		if !quantityRegexp.MatchString(q) {
			return fmt.Errorf("%w: invalid %s quantity %q", ErrNotValid, name, q)
		}
	}

	return nil
}

// Empty returns true when no quantity is set.
func (r ResourceLimits) Empty() bool {
	return r == ResourceLimits{}
}

// AppManifest is the synthesized description of a SpinApp workload. It is
// the deterministic output of manifest synthesis, rendered to YAML for the
// cluster.
type AppManifest struct {
	Name      string
	Namespace string
	Image     string
	// Labels apply to the SpinApp object itself.
	Labels map[string]string
	// PodLabels apply to the pods the operator creates for the app.
	PodLabels map[string]string
	// Replicas is only set when autoscaling is disabled.
	Replicas          *int
	EnableAutoscaling bool
	// UseSpot adds a soft scheduling preference for spot nodes.
	UseSpot        bool
	ServiceAccount string
	Resources      ResourceLimits
}

// Validate checks the manifest invariants.
func (m AppManifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: app name is required", ErrNotValid)
	}

	if !ValidAppName(m.Name) {
		return fmt.Errorf("%w: invalid app name %q", ErrNotValid, m.Name)
	}

	if m.Namespace == "" {
		return fmt.Errorf("%w: namespace is required", ErrNotValid)
	}

	if m.Image == "" {
		return fmt.Errorf("%w: image is required", ErrNotValid)
	}

	if m.EnableAutoscaling && m.Replicas != nil {
		return fmt.Errorf("%w: replicas cannot be set when autoscaling is enabled", ErrConflict)
	}

	if err := m.Resources.Validate(); err != nil {
		return err
	}

	return nil
}

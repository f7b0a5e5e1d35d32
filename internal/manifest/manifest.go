package manifest

import (
	"fmt"

	"github.com/bluefn/spind/internal/model"
)

// defaultReplicas is used when autoscaling is off and no replica count
// was requested.
const defaultReplicas = 1

// Synthesize turns a deploy request into an app manifest. It is pure and
// deterministic, the same request always yields the same manifest.
func Synthesize(req model.DeployRequest) (*model.AppManifest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.AppName == "" {
		return nil, fmt.Errorf("%w: app name is required", model.ErrNotValid)
	}

	labels := map[string]string{
		model.ManagedByLabel: model.ManagedByValue,
	}
	if req.FunctionID != "" {
		labels[model.FunctionIDLabel] = req.FunctionID
	}

	m := &model.AppManifest{
		Name:      req.AppName,
		Namespace: req.Namespace,
		Image:     req.Image,
		Labels:    labels,
		PodLabels: map[string]string{
			model.FaasPodLabel: "true",
		},
		EnableAutoscaling: req.EnableAutoscaling,
		UseSpot:           req.UseSpot,
		ServiceAccount:    req.ServiceAccount,
		Resources:         req.Resources,
	}

	// Fixed replicas only make sense without the autoscaler.
	if !req.EnableAutoscaling {
		replicas := defaultReplicas
		if req.Replicas != nil && *req.Replicas > 0 {
			replicas = *req.Replicas
		}
		m.Replicas = &replicas
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/bluefn/spind/internal/model"
)

const (
	apiVersion = "core.spinoperator.dev/v1alpha1"
	kind       = "SpinApp"
	executor   = "containerd-shim-spin"
)

// spotToleration lets pods run on tainted spot nodes.
var spotToleration = tolerationDoc{
	Key:      "spot",
	Operator: "Exists",
	Effect:   "NoSchedule",
}

// spotAffinity is a soft preference for spot nodes. Scheduling must never
// hard-require them, pods fall back to on-demand nodes.
var spotAffinity = &affinityDoc{
	NodeAffinity: nodeAffinityDoc{
		Preferred: []preferredTermDoc{
			{
				Weight: 100,
				Preference: nodeSelectorTermDoc{
					MatchExpressions: []matchExpressionDoc{
						{Key: "spot", Operator: "In", Values: []string{"true"}},
					},
				},
			},
		},
	},
}

type spinAppDoc struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Metadata   metadataDoc `yaml:"metadata"`
	Spec       specDoc     `yaml:"spec"`
}

type metadataDoc struct {
	Name      string            `yaml:"name"`
	Namespace string            `yaml:"namespace"`
	Labels    map[string]string `yaml:"labels,omitempty"`
}

type specDoc struct {
	Image              string            `yaml:"image"`
	Executor           string            `yaml:"executor"`
	Replicas           *int              `yaml:"replicas,omitempty"`
	EnableAutoscaling  bool              `yaml:"enableAutoscaling,omitempty"`
	ServiceAccountName string            `yaml:"serviceAccountName,omitempty"`
	Resources          *resourcesDoc     `yaml:"resources,omitempty"`
	PodLabels          map[string]string `yaml:"podLabels,omitempty"`
	Tolerations        []tolerationDoc   `yaml:"tolerations,omitempty"`
	Affinity           *affinityDoc      `yaml:"affinity,omitempty"`
}

type resourcesDoc struct {
	Limits   map[string]string `yaml:"limits,omitempty"`
	Requests map[string]string `yaml:"requests,omitempty"`
}

type tolerationDoc struct {
	Key      string `yaml:"key"`
	Operator string `yaml:"operator"`
	Effect   string `yaml:"effect"`
}

type affinityDoc struct {
	NodeAffinity nodeAffinityDoc `yaml:"nodeAffinity"`
}

type nodeAffinityDoc struct {
	Preferred []preferredTermDoc `yaml:"preferredDuringSchedulingIgnoredDuringExecution"`
}

type preferredTermDoc struct {
	Weight     int                 `yaml:"weight"`
	Preference nodeSelectorTermDoc `yaml:"preference"`
}

type nodeSelectorTermDoc struct {
	MatchExpressions []matchExpressionDoc `yaml:"matchExpressions"`
}

type matchExpressionDoc struct {
	Key      string   `yaml:"key"`
	Operator string   `yaml:"operator"`
	Values   []string `yaml:"values"`
}

// ToYAML renders the manifest as a SpinApp custom resource. The output is
// deterministic, map keys are emitted sorted.
func ToYAML(m model.AppManifest) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	doc := spinAppDoc{
		APIVersion: apiVersion,
		Kind:       kind,
		Metadata: metadataDoc{
			Name:      m.Name,
			Namespace: m.Namespace,
			Labels:    m.Labels,
		},
		Spec: specDoc{
			Image:              m.Image,
			Executor:           executor,
			Replicas:           m.Replicas,
			EnableAutoscaling:  m.EnableAutoscaling,
			ServiceAccountName: m.ServiceAccount,
			PodLabels:          m.PodLabels,
		},
	}

	if !m.Resources.Empty() {
		doc.Spec.Resources = &resourcesDoc{
			Limits:   quantityMap(m.Resources.CPULimit, m.Resources.MemoryLimit),
			Requests: quantityMap(m.Resources.CPURequest, m.Resources.MemoryRequest),
		}
	}

	if m.UseSpot {
		doc.Spec.Tolerations = []tolerationDoc{spotToleration}
		doc.Spec.Affinity = spotAffinity
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("could not marshal manifest: %w", err)
	}

	return data, nil
}

// FromYAML parses a rendered SpinApp resource back into a manifest.
func FromYAML(data []byte) (*model.AppManifest, error) {
	var doc spinAppDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: could not parse manifest: %s", model.ErrNotValid, err)
	}

	if doc.APIVersion != apiVersion || doc.Kind != kind {
		return nil, fmt.Errorf("%w: not a %s/%s resource", model.ErrNotValid, apiVersion, kind)
	}

	m := &model.AppManifest{
		Name:              doc.Metadata.Name,
		Namespace:         doc.Metadata.Namespace,
		Image:             doc.Spec.Image,
		Labels:            doc.Metadata.Labels,
		PodLabels:         doc.Spec.PodLabels,
		Replicas:          doc.Spec.Replicas,
		EnableAutoscaling: doc.Spec.EnableAutoscaling,
		UseSpot:           len(doc.Spec.Tolerations) > 0,
		ServiceAccount:    doc.Spec.ServiceAccountName,
	}

	if doc.Spec.Resources != nil {
		m.Resources = model.ResourceLimits{
			CPULimit:      doc.Spec.Resources.Limits["cpu"],
			MemoryLimit:   doc.Spec.Resources.Limits["memory"],
			CPURequest:    doc.Spec.Resources.Requests["cpu"],
			MemoryRequest: doc.Spec.Resources.Requests["memory"],
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

func quantityMap(cpu, memory string) map[string]string {
	if cpu == "" && memory == "" {
		return nil
	}

	q := map[string]string{}
	if cpu != "" {
		q["cpu"] = cpu
	}
	if memory != "" {
		q["memory"] = memory
	}
	return q
}

package manifest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluefn/spind/internal/manifest"
	"github.com/bluefn/spind/internal/model"
)

func TestToYAMLSpinApp(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	req := baseRequest()
	req.UseSpot = true
	m, err := manifest.Synthesize(req)
	require.NoError(err)

	data, err := manifest.ToYAML(*m)
	require.NoError(err)
	rendered := string(data)

	assert.Contains(rendered, "apiVersion: core.spinoperator.dev/v1alpha1")
	assert.Contains(rendered, "kind: SpinApp")
	assert.Contains(rendered, "name: spin-bold-otter-4242")
	assert.Contains(rendered, "executor: containerd-shim-spin")
	assert.Contains(rendered, "app.kubernetes.io/managed-by: spind")
	assert.Contains(rendered, `faas: "true"`)
	assert.Contains(rendered, "replicas: 1")

	// Spot is a toleration plus a soft preference, never a hard constraint.
	assert.Contains(rendered, "tolerations:")
	assert.Contains(rendered, "effect: NoSchedule")
	assert.Contains(rendered, "preferredDuringSchedulingIgnoredDuringExecution:")
	assert.Contains(rendered, "weight: 100")
	assert.NotContains(rendered, "requiredDuringScheduling")
}

func TestToYAMLAutoscaling(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	req := baseRequest()
	req.EnableAutoscaling = true
	m, err := manifest.Synthesize(req)
	require.NoError(err)

	data, err := manifest.ToYAML(*m)
	require.NoError(err)
	rendered := string(data)

	assert.Contains(rendered, "enableAutoscaling: true")
	assert.NotContains(rendered, "replicas:")
}

func TestToYAMLNoSpot(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m, err := manifest.Synthesize(baseRequest())
	require.NoError(err)

	data, err := manifest.ToYAML(*m)
	require.NoError(err)
	rendered := string(data)

	assert.NotContains(rendered, "tolerations:")
	assert.NotContains(rendered, "affinity:")
}

func TestYAMLRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	req := baseRequest()
	req.FunctionID = "fn-42"
	req.UseSpot = true
	req.ServiceAccount = "spin-runner"
	req.Resources = model.ResourceLimits{CPULimit: "500m", MemoryLimit: "256Mi", MemoryRequest: "128Mi"}

	m, err := manifest.Synthesize(req)
	require.NoError(err)

	data, err := manifest.ToYAML(*m)
	require.NoError(err)

	parsed, err := manifest.FromYAML(data)
	require.NoError(err)

	assert.Equal(*m, *parsed)
}

func TestFromYAMLErrors(t *testing.T) {
	tests := map[string]struct {
		data string
	}{
		"Garbage input should not parse.": {
			data: "{not yaml::",
		},

		"A different resource kind should be rejected.": {
			data: strings.TrimSpace(`
apiVersion: apps/v1
kind: Deployment
metadata:
  name: something
`),
		},

		"A resource failing validation should be rejected.": {
			data: strings.TrimSpace(`
apiVersion: core.spinoperator.dev/v1alpha1
kind: SpinApp
metadata:
  name: UPPER
  namespace: default
spec:
  image: registry.local/app:v1
`),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := manifest.FromYAML([]byte(test.data))
			assert.ErrorIs(err, model.ErrNotValid)
		})
	}
}

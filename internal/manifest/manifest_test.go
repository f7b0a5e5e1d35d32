package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluefn/spind/internal/manifest"
	"github.com/bluefn/spind/internal/model"
)

func intPtr(i int) *int { return &i }

func baseRequest() model.DeployRequest {
	return model.DeployRequest{
		AppName:   "spin-bold-otter-4242",
		Namespace: "default",
		Image:     "registry.local/spin-app:abc123",
	}
}

func TestSynthesize(t *testing.T) {
	tests := map[string]struct {
		req    func() model.DeployRequest
		expErr error
		check  func(assert *assert.Assertions, m *model.AppManifest)
	}{
		"A minimal request should synthesize with one replica and the managed-by label.": {
			req: baseRequest,
			check: func(assert *assert.Assertions, m *model.AppManifest) {
				assert.Equal("spin-bold-otter-4242", m.Name)
				assert.Equal(map[string]string{"app.kubernetes.io/managed-by": "spind"}, m.Labels)
				assert.Equal(map[string]string{"faas": "true"}, m.PodLabels)
				assert.False(m.EnableAutoscaling)
				if assert.NotNil(m.Replicas) {
					assert.Equal(1, *m.Replicas)
				}
			},
		},

		"A function id should become a label.": {
			req: func() model.DeployRequest {
				r := baseRequest()
				r.FunctionID = "fn-42"
				return r
			},
			check: func(assert *assert.Assertions, m *model.AppManifest) {
				assert.Equal("fn-42", m.Labels["spind.dev/function-id"])
			},
		},

		"Autoscaling should drop the replicas field.": {
			req: func() model.DeployRequest {
				r := baseRequest()
				r.EnableAutoscaling = true
				return r
			},
			check: func(assert *assert.Assertions, m *model.AppManifest) {
				assert.True(m.EnableAutoscaling)
				assert.Nil(m.Replicas)
			},
		},

		"An explicit replica count should be honored.": {
			req: func() model.DeployRequest {
				r := baseRequest()
				r.Replicas = intPtr(5)
				return r
			},
			check: func(assert *assert.Assertions, m *model.AppManifest) {
				if assert.NotNil(m.Replicas) {
					assert.Equal(5, *m.Replicas)
				}
			},
		},

		"A zero replica count should floor to one.": {
			req: func() model.DeployRequest {
				r := baseRequest()
				r.Replicas = intPtr(0)
				return r
			},
			check: func(assert *assert.Assertions, m *model.AppManifest) {
				if assert.NotNil(m.Replicas) {
					assert.Equal(1, *m.Replicas)
				}
			},
		},

		"Resource quantities should pass through verbatim.": {
			req: func() model.DeployRequest {
				r := baseRequest()
				r.Resources = model.ResourceLimits{CPULimit: "500m", MemoryLimit: "256Mi"}
				return r
			},
			check: func(assert *assert.Assertions, m *model.AppManifest) {
				assert.Equal("500m", m.Resources.CPULimit)
				assert.Equal("256Mi", m.Resources.MemoryLimit)
			},
		},

		"A request without an app name should not synthesize.": {
			req: func() model.DeployRequest {
				r := baseRequest()
				r.AppName = ""
				return r
			},
			expErr: model.ErrNotValid,
		},

		"Replicas with autoscaling should be a conflict.": {
			req: func() model.DeployRequest {
				r := baseRequest()
				r.EnableAutoscaling = true
				r.Replicas = intPtr(3)
				return r
			},
			expErr: model.ErrConflict,
		},

		"A bad resource quantity should not synthesize.": {
			req: func() model.DeployRequest {
				r := baseRequest()
				r.Resources.CPULimit = "half a core"
				return r
			},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			m, err := manifest.Synthesize(test.req())
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}

			require.NoError(t, err)
			test.check(assert, m)
		})
	}
}

func TestSynthesizeDeterminism(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	req := baseRequest()
	req.FunctionID = "fn-42"
	req.UseSpot = true
	req.Resources = model.ResourceLimits{CPULimit: "1", MemoryLimit: "512Mi", CPURequest: "250m"}

	m1, err := manifest.Synthesize(req)
	require.NoError(err)
	m2, err := manifest.Synthesize(req)
	require.NoError(err)

	yaml1, err := manifest.ToYAML(*m1)
	require.NoError(err)
	yaml2, err := manifest.ToYAML(*m2)
	require.NoError(err)

	assert.Equal(yaml1, yaml2)
}

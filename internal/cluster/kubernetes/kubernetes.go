package kubernetes

import (
	"context"
	"fmt"
	"os"

	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/bluefn/spind/internal/cluster"
	"github.com/bluefn/spind/internal/log"
	"github.com/bluefn/spind/internal/model"
)

// spinAppGVR identifies the SpinApp custom resource of the spin operator.
var spinAppGVR = schema.GroupVersionResource{
	Group:    "core.spinoperator.dev",
	Version:  "v1alpha1",
	Resource: "spinapps",
}

// ClientConfig is the configuration for the Kubernetes cluster client.
type ClientConfig struct {
	// Kubeconfig is the path of the kubeconfig file. When empty, in-cluster
	// config is tried first, then the KUBECONFIG env var and the default
	// kubeconfig location.
	Kubeconfig string
	// Dynamic and Core can be injected for tests. When nil they are built
	// from the resolved cluster config.
	Dynamic dynamic.Interface
	Core    kubernetes.Interface
	Logger  log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "cluster.Kubernetes"})

	if c.Dynamic != nil && c.Core != nil {
		return nil
	}

	restConfig, err := loadRESTConfig(c.Kubeconfig)
	if err != nil {
		return err
	}

	if c.Dynamic == nil {
		c.Dynamic, err = dynamic.NewForConfig(restConfig)
		if err != nil {
			return fmt.Errorf("could not create dynamic client: %w", err)
		}
	}
	if c.Core == nil {
		c.Core, err = kubernetes.NewForConfig(restConfig)
		if err != nil {
			return fmt.Errorf("could not create clientset: %w", err)
		}
	}

	return nil
}

// Client is a client-go implementation of cluster.Client. SpinApp
// workloads go through the dynamic client, services through the typed
// CoreV1 client.
type Client struct {
	dynamic dynamic.Interface
	core    kubernetes.Interface
	logger  log.Logger
}

var _ cluster.Client = (*Client)(nil)

// NewClient creates a new Kubernetes cluster client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		dynamic: cfg.Dynamic,
		core:    cfg.Core,
		logger:  cfg.Logger,
	}, nil
}

// GetApp returns an existing SpinApp workload.
func (c *Client) GetApp(ctx context.Context, namespace, name string) (*model.AppManifest, error) {
	obj, err := c.dynamic.Resource(spinAppGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return nil, fmt.Errorf("app %s/%s: %w", namespace, name, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get app: %w", err)
	}

	image, _, _ := unstructured.NestedString(obj.Object, "spec", "image")
	m := &model.AppManifest{
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
		Image:     image,
		Labels:    obj.GetLabels(),
	}

	return m, nil
}

// ApplyApp creates the SpinApp workload or updates it in place when it
// already exists.
func (c *Client) ApplyApp(ctx context.Context, m model.AppManifest) error {
	if err := m.Validate(); err != nil {
		return err
	}

	desired := appToUnstructured(m)
	apps := c.dynamic.Resource(spinAppGVR).Namespace(m.Namespace)

	_, err := apps.Create(ctx, desired, metav1.CreateOptions{})
	if err == nil {
		c.logger.Infof("Created SpinApp %s/%s", m.Namespace, m.Name)
		return nil
	}
	if !k8serrors.IsAlreadyExists(err) {
		return fmt.Errorf("could not create app: %w", err)
	}

	existing, err := apps.Get(ctx, m.Name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("could not get existing app: %w", err)
	}

	desired.SetResourceVersion(existing.GetResourceVersion())
	if _, err := apps.Update(ctx, desired, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("could not update app: %w", err)
	}

	c.logger.Infof("Updated SpinApp %s/%s", m.Namespace, m.Name)
	return nil
}

// ResolveService reports whether the app's service is reachable.
func (c *Client) ResolveService(ctx context.Context, namespace, name string) (model.ServiceStatus, error) {
	svc, err := c.core.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return model.ServiceStatusNotFound, nil
		}
		return model.ServiceStatusNotFound, fmt.Errorf("could not get service: %w", err)
	}

	if svc.Spec.ClusterIP == "" || svc.Spec.ClusterIP == "None" {
		return model.ServiceStatusPending, nil
	}

	return model.ServiceStatusFound, nil
}

func appToUnstructured(m model.AppManifest) *unstructured.Unstructured {
	spec := map[string]interface{}{
		"image":    m.Image,
		"executor": "containerd-shim-spin",
	}

	if m.Replicas != nil {
		spec["replicas"] = int64(*m.Replicas)
	}
	if m.EnableAutoscaling {
		spec["enableAutoscaling"] = true
	}
	if m.ServiceAccount != "" {
		spec["serviceAccountName"] = m.ServiceAccount
	}
	if len(m.PodLabels) > 0 {
		podLabels := map[string]interface{}{}
		for k, v := range m.PodLabels {
			podLabels[k] = v
		}
		spec["podLabels"] = podLabels
	}

	if !m.Resources.Empty() {
		resources := map[string]interface{}{}
		if limits := quantityMap(m.Resources.CPULimit, m.Resources.MemoryLimit); limits != nil {
			resources["limits"] = limits
		}
		if requests := quantityMap(m.Resources.CPURequest, m.Resources.MemoryRequest); requests != nil {
			resources["requests"] = requests
		}
		spec["resources"] = resources
	}

	if m.UseSpot {
		spec["tolerations"] = []interface{}{
			map[string]interface{}{
				"key":      "spot",
				"operator": "Exists",
				"effect":   "NoSchedule",
			},
		}
		spec["affinity"] = map[string]interface{}{
			"nodeAffinity": map[string]interface{}{
				"preferredDuringSchedulingIgnoredDuringExecution": []interface{}{
					map[string]interface{}{
						"weight": int64(100),
						"preference": map[string]interface{}{
							"matchExpressions": []interface{}{
								map[string]interface{}{
									"key":      "spot",
									"operator": "In",
									"values":   []interface{}{"true"},
								},
							},
						},
					},
				},
			},
		}
	}

	obj := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "core.spinoperator.dev/v1alpha1",
			"kind":       "SpinApp",
			"metadata": map[string]interface{}{
				"name":      m.Name,
				"namespace": m.Namespace,
			},
			"spec": spec,
		},
	}
	if len(m.Labels) > 0 {
		obj.SetLabels(m.Labels)
	}

	return obj
}

func quantityMap(cpu, memory string) map[string]interface{} {
	if cpu == "" && memory == "" {
		return nil
	}

	q := map[string]interface{}{}
	if cpu != "" {
		q["cpu"] = cpu
	}
	if memory != "" {
		q["memory"] = memory
	}
	return q
}

// loadRESTConfig resolves the cluster config, in-cluster first and
// kubeconfig as fallback.
func loadRESTConfig(kubeconfig string) (*rest.Config, error) {
	if restConfig, err := rest.InClusterConfig(); err == nil {
		return restConfig, nil
	}

	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
	}
	if kubeconfig == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			kubeconfig = home + "/.kube/config"
		}
	}

	restConfig, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("could not load kubeconfig: %w", err)
	}

	return restConfig, nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/bluefn/spind/internal/app/deploy"
	"github.com/bluefn/spind/internal/cluster/kubernetes"
	"github.com/bluefn/spind/internal/conventions"
	"github.com/bluefn/spind/internal/model"
	"github.com/bluefn/spind/internal/printer"
)

// deployFlags holds the flags shared by the deploy and manifest commands.
type deployFlags struct {
	name           string
	namespace      string
	image          string
	functionID     string
	replicas       int
	autoscaling    bool
	spot           bool
	serviceAccount string
	cpuLimit       string
	memoryLimit    string
	cpuRequest     string
	memoryRequest  string
}

func registerDeployFlags(cmd *kingpin.CmdClause, f *deployFlags) {
	cmd.Flag("name", "App name (generated when empty).").StringVar(&f.name)
	cmd.Flag("namespace", "Kubernetes namespace.").Default(conventions.DefaultNamespace).StringVar(&f.namespace)
	cmd.Flag("image", "Image reference of the app.").Required().StringVar(&f.image)
	cmd.Flag("function-id", "Function id to attach as a label.").StringVar(&f.functionID)
	cmd.Flag("replicas", "Fixed replica count (only without autoscaling).").IntVar(&f.replicas)
	cmd.Flag("autoscaling", "Enable autoscaling.").Default("true").BoolVar(&f.autoscaling)
	cmd.Flag("spot", "Prefer spot nodes.").Default("true").BoolVar(&f.spot)
	cmd.Flag("service-account", "Service account of the app pods.").StringVar(&f.serviceAccount)
	cmd.Flag("cpu-limit", "CPU limit (Kubernetes quantity).").StringVar(&f.cpuLimit)
	cmd.Flag("memory-limit", "Memory limit (Kubernetes quantity).").StringVar(&f.memoryLimit)
	cmd.Flag("cpu-request", "CPU request (Kubernetes quantity).").StringVar(&f.cpuRequest)
	cmd.Flag("memory-request", "Memory request (Kubernetes quantity).").StringVar(&f.memoryRequest)
}

func (f deployFlags) request() model.DeployRequest {
	req := model.DeployRequest{
		AppName:           f.name,
		Namespace:         f.namespace,
		Image:             f.image,
		FunctionID:        f.functionID,
		EnableAutoscaling: f.autoscaling,
		UseSpot:           f.spot,
		ServiceAccount:    f.serviceAccount,
		Resources: model.ResourceLimits{
			CPULimit:      f.cpuLimit,
			MemoryLimit:   f.memoryLimit,
			CPURequest:    f.cpuRequest,
			MemoryRequest: f.memoryRequest,
		},
	}

	if f.replicas > 0 {
		replicas := f.replicas
		req.Replicas = &replicas
	}

	return req
}

type DeployCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	flags  deployFlags
	format string
}

// NewDeployCommand returns the deploy command.
func NewDeployCommand(rootCmd *RootCommand, app *kingpin.Application) *DeployCommand {
	c := &DeployCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("deploy", "Deploy an app to the cluster.")
	registerDeployFlags(c.Cmd, &c.flags)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c DeployCommand) Name() string { return c.Cmd.FullCommand() }

func (c DeployCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	clusterClient, err := kubernetes.NewClient(kubernetes.ClientConfig{
		Kubeconfig: c.rootCmd.Kubeconfig,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create cluster client: %w", err)
	}

	svc, err := deploy.NewService(deploy.ServiceConfig{
		Cluster: clusterClient,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	result, err := svc.Run(ctx, c.flags.request())
	if err != nil {
		return fmt.Errorf("could not deploy app: %w", err)
	}

	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintDeployResult(*result); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	return nil
}

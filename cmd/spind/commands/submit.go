package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/bluefn/spind/internal/app/submit"
	"github.com/bluefn/spind/internal/blob"
	blobfs "github.com/bluefn/spind/internal/blob/fs"
	"github.com/bluefn/spind/internal/builder"
	builderdocker "github.com/bluefn/spind/internal/builder/docker"
	builderfake "github.com/bluefn/spind/internal/builder/fake"
	"github.com/bluefn/spind/internal/conventions"
	"github.com/bluefn/spind/internal/pipeline"
	"github.com/bluefn/spind/internal/printer"
	"github.com/bluefn/spind/internal/storage/sqlite"
)

// followInterval is how often a followed task is polled.
const followInterval = 500 * time.Millisecond

type SubmitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	workspace   string
	source      string
	builderType string
	format      string
}

// NewSubmitCommand returns the submit command.
func NewSubmitCommand(rootCmd *RootCommand, app *kingpin.Application) *SubmitCommand {
	c := &SubmitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("submit", "Upload a source archive and run its build-and-push pipeline.")
	c.Cmd.Flag("workspace", "Workspace the task belongs to.").Required().StringVar(&c.workspace)
	c.Cmd.Flag("builder", "Builder implementation (docker, fake).").Default("docker").EnumVar(&c.builderType, "docker", "fake")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")
	c.Cmd.Arg("source", "Path of the source archive (- for stdin).").Required().StringVar(&c.source)

	return c
}

func (c SubmitCommand) Name() string { return c.Cmd.FullCommand() }

func (c SubmitCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Open the source archive.
	var source io.Reader
	if c.source == "-" {
		source = c.rootCmd.Stdin
	} else {
		f, err := os.Open(c.source)
		if err != nil {
			return fmt.Errorf("could not open source archive: %w", err)
		}
		defer f.Close()
		source = f
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	blobs, err := blobfs.NewStore(blobfs.StoreConfig{
		Dir:    conventions.BlobsPath(c.rootCmd.DataPath),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create blob store: %w", err)
	}

	taskBuilder, taskPusher, err := c.newBuilderPusher(blobs)
	if err != nil {
		return err
	}

	orchestrator, err := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		Repository: repo,
		Builder:    taskBuilder,
		Pusher:     taskPusher,
		Registry:   c.rootCmd.Registry,
		Workers:    c.rootCmd.Workers,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create orchestrator: %w", err)
	}

	// Run the worker pool for the lifetime of this command.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	workersDone := make(chan struct{})
	go func() {
		_ = orchestrator.Run(runCtx)
		close(workersDone)
	}()
	defer func() {
		cancel()
		<-workersDone
	}()

	svc, err := submit.NewService(submit.ServiceConfig{
		Blobs:     blobs,
		Submitter: orchestrator,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	taskID, err := svc.Run(ctx, submit.Request{
		WorkspaceID: c.workspace,
		Source:      source,
	})
	if err != nil {
		return fmt.Errorf("could not submit task: %w", err)
	}

	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintMessage(fmt.Sprintf("Task submitted: %s", taskID)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	// Follow the task until it reaches a terminal state.
	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		task, err := orchestrator.GetStatus(ctx, c.workspace, taskID)
		if err != nil {
			return fmt.Errorf("could not get task status: %w", err)
		}
		if !task.Status.Terminal() {
			continue
		}

		if err := p.PrintTaskStatus(*task); err != nil {
			return fmt.Errorf("could not print status: %w", err)
		}
		return nil
	}
}

func (c SubmitCommand) newBuilderPusher(blobs blob.Store) (builder.Builder, builder.Pusher, error) {
	logger := c.rootCmd.Logger

	if c.builderType == "fake" {
		b, err := builderfake.NewBuilder(builderfake.BuilderConfig{Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create builder: %w", err)
		}
		p, err := builderfake.NewPusher(builderfake.PusherConfig{Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create pusher: %w", err)
		}
		return b, p, nil
	}

	b, err := builderdocker.NewBuilder(builderdocker.BuilderConfig{Blobs: blobs, Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create builder: %w", err)
	}
	p, err := builderdocker.NewPusher(builderdocker.PusherConfig{Blobs: blobs, Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create pusher: %w", err)
	}
	return b, p, nil
}

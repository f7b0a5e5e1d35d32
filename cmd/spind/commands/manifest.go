package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/bluefn/spind/internal/app/deploy"
	"github.com/bluefn/spind/internal/manifest"
)

type ManifestCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	flags deployFlags
}

// NewManifestCommand returns the manifest command.
func NewManifestCommand(rootCmd *RootCommand, app *kingpin.Application) *ManifestCommand {
	c := &ManifestCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("manifest", "Render the app manifest without deploying it.")
	registerDeployFlags(c.Cmd, &c.flags)

	return c
}

func (c ManifestCommand) Name() string { return c.Cmd.FullCommand() }

func (c ManifestCommand) Run(ctx context.Context) error {
	req := c.flags.request()
	if req.AppName == "" {
		req.AppName = deploy.NewNamer().Generate()
	}

	m, err := manifest.Synthesize(req)
	if err != nil {
		return fmt.Errorf("could not synthesize manifest: %w", err)
	}

	data, err := manifest.ToYAML(*m)
	if err != nil {
		return fmt.Errorf("could not render manifest: %w", err)
	}

	if _, err := c.rootCmd.Stdout.Write(data); err != nil {
		return fmt.Errorf("could not write manifest: %w", err)
	}

	return nil
}

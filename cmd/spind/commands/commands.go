package commands

import (
	"context"
	"io"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/bluefn/spind/internal/conventions"
	"github.com/bluefn/spind/internal/log"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DBPath     string
	DataPath   string
	Workers    int
	Registry   string
	Kubeconfig string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDataPath := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	app.Flag("data-path", "Path to the spind data directory.").Envar("SPIND_DATA_PATH").Default(defaultDataPath).StringVar(&c.DataPath)
	app.Flag("db-path", "Path to the SQLite database file.").Envar("SPIND_DB_PATH").Default(conventions.DBPath(defaultDataPath)).StringVar(&c.DBPath)
	app.Flag("workers", "Size of the pipeline worker pool.").Default("4").IntVar(&c.Workers)
	app.Flag("registry", "Image registry pushed artifacts end up in.").Envar("SPIND_REGISTRY").Default("localhost:5000").StringVar(&c.Registry)
	app.Flag("kubeconfig", "Path to the kubeconfig file (in-cluster config when empty).").Envar("SPIND_KUBECONFIG").StringVar(&c.Kubeconfig)

	return c
}

package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/bluefn/spind/internal/log"
)

// BuilderConfig is the configuration for the fake builder.
type BuilderConfig struct {
	// BuildErr makes every build fail with this error.
	BuildErr error
	Logger   log.Logger
}

func (c *BuilderConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "builder.Fake"})
	return nil
}

// Builder is a fake implementation of builder.Builder. It derives the
// artifact ref from the source ref without running anything.
type Builder struct {
	buildErr error
	mu       sync.Mutex
	builds   []string
	logger   log.Logger
}

// NewBuilder creates a new fake builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Builder{
		buildErr: cfg.BuildErr,
		logger:   cfg.Logger,
	}, nil
}

// Build records the call and returns a derived artifact ref.
func (b *Builder) Build(ctx context.Context, sourceRef string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.builds = append(b.builds, sourceRef)
	if b.buildErr != nil {
		return "", b.buildErr
	}

	artifactRef := fmt.Sprintf("fake-artifact(%s)", sourceRef)
	b.logger.Debugf("Fake build of %s: %s", sourceRef, artifactRef)

	return artifactRef, nil
}

// Builds returns the source refs of all recorded build calls.
func (b *Builder) Builds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string{}, b.builds...)
}

// PusherConfig is the configuration for the fake pusher.
type PusherConfig struct {
	// PushErr makes every push fail with this error.
	PushErr error
	Logger  log.Logger
}

func (c *PusherConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "pusher.Fake"})
	return nil
}

// Pusher is a fake implementation of builder.Pusher.
type Pusher struct {
	pushErr error
	mu      sync.Mutex
	pushes  []string
	logger  log.Logger
}

// NewPusher creates a new fake pusher.
func NewPusher(cfg PusherConfig) (*Pusher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Pusher{
		pushErr: cfg.PushErr,
		logger:  cfg.Logger,
	}, nil
}

// Push records the call and returns a derived image ref.
func (p *Pusher) Push(ctx context.Context, artifactRef, registry string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pushes = append(p.pushes, artifactRef)
	if p.pushErr != nil {
		return "", p.pushErr
	}

	imageRef := fmt.Sprintf("%s/fake-image(%s)", registry, artifactRef)
	p.logger.Debugf("Fake push of %s: %s", artifactRef, imageRef)

	return imageRef, nil
}

// Pushes returns the artifact refs of all recorded push calls.
func (p *Pusher) Pushes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string{}, p.pushes...)
}

package docker

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/oklog/ulid/v2"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/bluefn/spind/internal/blob"
	"github.com/bluefn/spind/internal/log"
)

// workspaceDir is the directory inside the builder container where the
// source and artifact live.
const workspaceDir = "/workspace"

// DockerClient is the interface for Docker operations that we use.
// This allows us to mock the Docker client for testing.
type DockerClient interface {
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader, options container.CopyToContainerOptions) error
	CopyFromContainer(ctx context.Context, containerID, srcPath string) (io.ReadCloser, container.PathStat, error)
}

// BuilderConfig is the configuration for the Docker builder.
type BuilderConfig struct {
	Client DockerClient
	Blobs  blob.Store
	// SpinImage is the image with the Spin toolchain used to run builds.
	SpinImage string
	Logger    log.Logger
}

func (c *BuilderConfig) defaults() error {
	if c.Blobs == nil {
		return fmt.Errorf("blob store is required")
	}
	if c.Client == nil {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return fmt.Errorf("could not create Docker client: %w", err)
		}
		c.Client = cli
	}
	if c.SpinImage == "" {
		c.SpinImage = "ghcr.io/fermyon/spin:v3.1.2"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "builder.Docker"})
	return nil
}

// Builder runs `spin build` inside a toolchain container. The source
// archive is copied into the container workspace and the built workspace
// is copied back out as the artifact.
type Builder struct {
	client    DockerClient
	blobs     blob.Store
	spinImage string
	logger    log.Logger
}

// NewBuilder creates a new Docker builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Builder{
		client:    cfg.Client,
		blobs:     cfg.Blobs,
		spinImage: cfg.SpinImage,
		logger:    cfg.Logger,
	}, nil
}

// Build compiles the source referenced by sourceRef and returns the blob
// reference of the built workspace.
func (b *Builder) Build(ctx context.Context, sourceRef string) (string, error) {
	source, err := b.blobs.Open(ctx, sourceRef)
	if err != nil {
		return "", fmt.Errorf("could not open source: %w", err)
	}
	defer source.Close()

	run := containerRun{
		client:   b.client,
		image:    b.spinImage,
		cmd:      []string{"spin", "build"},
		namePart: "build",
		input:    source,
		wantOut:  true,
		logger:   b.logger,
	}
	out, err := run.do(ctx)
	if err != nil {
		return "", err
	}
	defer out.Close()

	artifactRef, err := b.blobs.Store(ctx, out)
	if err != nil {
		return "", fmt.Errorf("could not store artifact: %w", err)
	}

	b.logger.Infof("Built artifact %s from source %s", artifactRef, sourceRef)
	return artifactRef, nil
}

// PusherConfig is the configuration for the Docker pusher.
type PusherConfig struct {
	Client DockerClient
	Blobs  blob.Store
	// SpinImage is the image with the Spin toolchain used to push.
	SpinImage string
	Logger    log.Logger
}

func (c *PusherConfig) defaults() error {
	if c.Blobs == nil {
		return fmt.Errorf("blob store is required")
	}
	if c.Client == nil {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return fmt.Errorf("could not create Docker client: %w", err)
		}
		c.Client = cli
	}
	if c.SpinImage == "" {
		c.SpinImage = "ghcr.io/fermyon/spin:v3.1.2"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "pusher.Docker"})
	return nil
}

// Pusher runs `spin registry push` inside a toolchain container against a
// previously built artifact.
type Pusher struct {
	client    DockerClient
	blobs     blob.Store
	spinImage string
	logger    log.Logger
}

// NewPusher creates a new Docker pusher.
func NewPusher(cfg PusherConfig) (*Pusher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Pusher{
		client:    cfg.Client,
		blobs:     cfg.Blobs,
		spinImage: cfg.SpinImage,
		logger:    cfg.Logger,
	}, nil
}

// Push publishes the artifact referenced by artifactRef and returns the
// resulting image reference.
func (p *Pusher) Push(ctx context.Context, artifactRef, registry string) (string, error) {
	if registry == "" {
		return "", fmt.Errorf("registry is required")
	}

	artifact, err := p.blobs.Open(ctx, artifactRef)
	if err != nil {
		return "", fmt.Errorf("could not open artifact: %w", err)
	}
	defer artifact.Close()

	imageRef := ImageRef(registry, artifactRef)

	run := containerRun{
		client:   p.client,
		image:    p.spinImage,
		cmd:      []string{"spin", "registry", "push", imageRef},
		namePart: "push",
		input:    artifact,
		logger:   p.logger,
	}
	out, err := run.do(ctx)
	if err != nil {
		return "", err
	}
	out.Close()

	p.logger.Infof("Pushed artifact %s as %s", artifactRef, imageRef)
	return imageRef, nil
}

// ImageRef derives the image reference of an artifact in a registry. The
// tag is taken from the artifact's content digest so pushes of the same
// artifact are stable.
func ImageRef(registry, artifactRef string) string {
	tag := artifactRef
	if i := strings.LastIndex(tag, ":"); i >= 0 {
		tag = tag[i+1:]
	}
	if len(tag) > 12 {
		tag = tag[:12]
	}
	return fmt.Sprintf("%s/spin-app:%s", registry, tag)
}

// containerRun is a single one-shot container execution with the source
// archive staged into the workspace.
type containerRun struct {
	client   DockerClient
	image    string
	cmd      []string
	namePart string
	// input is a tar (optionally gzipped) archive extracted into the
	// container workspace before start.
	input io.Reader
	// wantOut copies the workspace back out after a successful run.
	wantOut bool
	logger  log.Logger
}

func (c containerRun) do(ctx context.Context) (io.ReadCloser, error) {
	pullResp, err := c.client.ImagePull(ctx, c.image, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("could not pull image %s: %w", c.image, err)
	}
	_, _ = io.Copy(io.Discard, pullResp)
	pullResp.Close()

	containerName := fmt.Sprintf("spind-%s-%s", c.namePart, strings.ToLower(ulid.Make().String()))
	resp, err := c.client.ContainerCreate(ctx, &container.Config{
		Image:      c.image,
		Cmd:        c.cmd,
		WorkingDir: workspaceDir,
	}, nil, nil, nil, containerName)
	if err != nil {
		return nil, fmt.Errorf("could not create container: %w", err)
	}
	containerID := resp.ID
	defer func() {
		err := c.client.ContainerRemove(context.WithoutCancel(ctx), containerID, container.RemoveOptions{Force: true})
		if err != nil {
			c.logger.Warningf("Could not remove container %s: %s", containerName, err)
		}
	}()

	content, err := maybeGunzip(c.input)
	if err != nil {
		return nil, fmt.Errorf("could not read archive: %w", err)
	}
	if err := c.client.CopyToContainer(ctx, containerID, workspaceDir, content, container.CopyToContainerOptions{}); err != nil {
		return nil, fmt.Errorf("could not copy archive into container: %w", err)
	}

	if err := c.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("could not start container: %w", err)
	}

	waitCh, errCh := c.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return nil, fmt.Errorf("could not wait for container: %w", err)
	case status := <-waitCh:
		if status.StatusCode != 0 {
			return nil, fmt.Errorf("%s failed with exit code %d: %s", strings.Join(c.cmd, " "), status.StatusCode, c.logsTail(ctx, containerID))
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if !c.wantOut {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	out, _, err := c.client.CopyFromContainer(ctx, containerID, workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("could not copy workspace out of container: %w", err)
	}

	return out, nil
}

func (c containerRun) logsTail(ctx context.Context, containerID string) string {
	logs, err := c.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       "20",
	})
	if err != nil {
		return "logs unavailable"
	}
	defer logs.Close()

	data, err := io.ReadAll(logs)
	if err != nil {
		return "logs unavailable"
	}

	return strings.TrimSpace(string(data))
}

// maybeGunzip transparently decompresses gzipped archives, Docker's copy
// API only accepts plain tar streams.
func maybeGunzip(r io.Reader) (io.Reader, error) {
	br := newPeekReader(r)
	magic, err := br.peek(2)
	if err != nil {
		// Short or empty input, hand it over as is.
		return br, nil
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}

type peekReader struct {
	r   io.Reader
	buf []byte
}

func newPeekReader(r io.Reader) *peekReader { return &peekReader{r: r} }

func (p *peekReader) peek(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(p.r, buf)
	p.buf = buf[:read]
	if err != nil {
		return nil, err
	}
	return p.buf, nil
}

func (p *peekReader) Read(b []byte) (int, error) {
	if len(p.buf) > 0 {
		n := copy(b, p.buf)
		p.buf = p.buf[n:]
		return n, nil
	}
	return p.r.Read(b)
}

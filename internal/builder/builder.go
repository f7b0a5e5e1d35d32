package builder

import "context"

// Builder turns an uploaded source archive into a build artifact.
type Builder interface {
	// Build compiles the source referenced by sourceRef and returns the
	// blob reference of the resulting artifact.
	Build(ctx context.Context, sourceRef string) (artifactRef string, err error)
}

// Pusher publishes a build artifact to an image registry.
type Pusher interface {
	// Push publishes the artifact referenced by artifactRef and returns
	// the resulting image reference.
	Push(ctx context.Context, artifactRef, registry string) (imageRef string, err error)
}

package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default spind data directory name (relative to home).
	DefaultDataDir = ".spind"
	// DBFile is the SQLite database filename inside the data directory.
	DBFile = "spind.db"
	// BlobsDir is the subdirectory for content-addressed blobs.
	BlobsDir = "blobs"

	// DefaultNamespace is the Kubernetes namespace used when none is given.
	DefaultNamespace = "default"
	// DefaultClusterDomain is the in-cluster DNS suffix for service endpoints.
	DefaultClusterDomain = "svc.cluster.local"
)

// DBPath returns the full path of the SQLite database file.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// BlobsPath returns the directory where blobs are stored.
func BlobsPath(dataDir string) string {
	return filepath.Join(dataDir, BlobsDir)
}

package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/bluefn/spind/internal/log"
	"github.com/bluefn/spind/internal/model"
)

// refPrefix is the scheme of the blob references this store hands out.
const refPrefix = "blob://sha256:"

// StoreConfig is the configuration for the filesystem blob store.
type StoreConfig struct {
	// Dir is the directory blobs are stored under.
	Dir    string
	Logger log.Logger
}

func (c *StoreConfig) defaults() error {
	if c.Dir == "" {
		return fmt.Errorf("blob directory is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "blob.FS"})
	return nil
}

// Store is a content-addressed filesystem implementation of blob.Store.
// Blobs are written to a temp file first and renamed into place once the
// digest is known, so a partially written blob is never addressable.
type Store struct {
	dir    string
	logger log.Logger
}

// NewStore creates a new filesystem blob store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create blob directory: %w", err)
	}

	return &Store{dir: cfg.Dir, logger: cfg.Logger}, nil
}

// Store writes the content of r and returns its blob reference.
func (s *Store) Store(ctx context.Context, r io.Reader) (string, error) {
	tmpPath := filepath.Join(s.dir, fmt.Sprintf(".tmp-%s", ulid.Make().String()))
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("could not create temp blob file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), r); err != nil {
		return "", fmt.Errorf("could not write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("could not close blob file: %w", err)
	}

	digest := hex.EncodeToString(hash.Sum(nil))
	finalPath := filepath.Join(s.dir, digest)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("could not finalize blob: %w", err)
	}

	s.logger.Debugf("Stored blob %s", digest)
	return refPrefix + digest, nil
}

// Open returns a reader for a previously stored blob.
func (s *Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	digest, err := parseRef(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", ref, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not open blob: %w", err)
	}

	return f, nil
}

func parseRef(ref string) (string, error) {
	digest, ok := strings.CutPrefix(ref, refPrefix)
	if !ok || digest == "" || strings.ContainsAny(digest, "/\\.") {
		return "", fmt.Errorf("%w: invalid blob ref %q", model.ErrNotValid, ref)
	}
	return digest, nil
}

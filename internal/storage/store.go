// Package storage persists uploaded product assets under generated,
// collision-free names inside a fixed upload root.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/id"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// DefaultMaxBytes caps a single upload.
	DefaultMaxBytes int64 = 10 << 20

	// DefaultWriteTimeout bounds how long a single write may take.
	DefaultWriteTimeout = 10 * time.Second

	// maxNameAttempts is how many fresh names Store tries before giving up
	// when a generated name is already taken.
	maxNameAttempts = 3
)

// ErrAssetNotFound is returned when no asset exists under a name.
var ErrAssetNotFound = domain.NotFound("asset not found")

// AssetStore defines the interface for uploaded asset persistence
type AssetStore interface {
	Store(ctx context.Context, data []byte, originalName string) (*domain.StoredAsset, error)
	Read(name string) ([]byte, error)
	Exists(name string) bool
}

// Option configures a Store.
type Option func(*Store)

// WithGenerator overrides the identifier generator.
func WithGenerator(g id.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// WithMaxBytes overrides the upload size cap. Non-positive values disable it.
func WithMaxBytes(n int64) Option {
	return func(s *Store) { s.maxBytes = n }
}

// WithWriteTimeout overrides the per-write deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) { s.writeTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Store is a flat directory of generated asset files.
// Files are created exclusively, so an existing asset is never overwritten.
type Store struct {
	fs           afero.Fs
	root         string
	ids          id.Generator
	maxBytes     int64
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewStore creates the upload root on fs if needed and returns a Store
// writing into it.
func NewStore(fs afero.Fs, root string, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("upload root cannot be empty")
	}

	if err := fs.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload root %s: %w", root, err)
	}

	s := &Store{
		fs:           fs,
		root:         root,
		ids:          id.Default,
		maxBytes:     DefaultMaxBytes,
		writeTimeout: DefaultWriteTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Store persists data under "<fresh id><extension>", where the extension is
// taken from the sanitized form of originalName.
func (s *Store) Store(ctx context.Context, data []byte, originalName string) (*domain.StoredAsset, error) {
	if originalName == "" || len(data) == 0 {
		return nil, domain.ErrNoFileProvided
	}

	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, domain.Validation("file exceeds the %d byte upload limit", s.maxBytes).
			WithDetails(map[string]interface{}{"size": len(data), "limit": s.maxBytes})
	}

	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}

	ext := SafeExtension(originalName)

	var lastErr error
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := s.ids.Generate() + ext

		err := s.write(ctx, name, data)
		if err == nil {
			asset := &domain.StoredAsset{
				Name:        name,
				Extension:   ext,
				ContentType: mimetype.Detect(data).String(),
				Size:        int64(len(data)),
			}
			s.logger.Debug("Asset stored",
				zap.String("name", name),
				zap.String("content_type", asset.ContentType),
				zap.Int64("size", asset.Size),
			)
			return asset, nil
		}

		if !errors.Is(err, os.ErrExist) {
			s.logger.Error("Failed to store asset", zap.String("name", name), zap.Error(err))
			return nil, domain.Storage(err, "failed to store asset")
		}

		s.logger.Warn("Generated asset name already taken", zap.String("name", name))
		lastErr = err
	}

	return nil, domain.Storage(lastErr, "failed to find a free asset name")
}

func (s *Store) write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(name)
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}

	_, err = io.Copy(f, &contextReader{ctx: ctx, r: bytes.NewReader(data)})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// Partial files are never left behind.
		_ = s.fs.Remove(path)
		return err
	}

	return nil
}

// Read returns the bytes stored under name.
func (s *Store) Read(name string) ([]byte, error) {
	if !validName(name) {
		return nil, ErrAssetNotFound
	}

	data, err := afero.ReadFile(s.fs, s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrAssetNotFound
		}
		return nil, domain.Storage(err, "failed to read asset")
	}

	return data, nil
}

// Exists reports whether an asset is stored under name.
func (s *Store) Exists(name string) bool {
	if !validName(name) {
		return false
	}
	ok, err := afero.Exists(s.fs, s.Path(name))
	return err == nil && ok
}

// Path returns the location of name inside the upload root.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name && SanitizeFilename(name) == name
}

// contextReader stops a copy once its context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

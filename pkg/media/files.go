// Package media stores photo and cover image files on disk and deletes
// them when the journal lets go of them.
package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/unowned-ai/padnotes/pkg/apperror"
	"github.com/unowned-ai/padnotes/pkg/journal"
)

const fileScheme = "file://"

var _ journal.FileRemover = (*FileStore)(nil)

var extensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// FileStore keeps image files in a single directory.
type FileStore struct {
	dir string
	log *slog.Logger
	now func() time.Time
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if log == nil {
		log = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0750); err != nil {
		return nil, fmt.Errorf("failed to create media directory '%s': %w", abs, err)
	}
	return &FileStore{dir: abs, log: log, now: time.Now}, nil
}

func (f *FileStore) Dir() string {
	return f.dir
}

type imported struct {
	path     string
	filename string
	width    int
	height   int
}

// copyImage validates src as a supported image and copies it into the store
// under a fresh name with the given prefix.
func (f *FileStore) copyImage(ctx context.Context, src, prefix string) (imported, error) {
	if err := ctx.Err(); err != nil {
		return imported{}, err
	}
	in, err := os.Open(src)
	if err != nil {
		return imported{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer in.Close()

	cfg, format, err := image.DecodeConfig(in)
	if err != nil {
		return imported{}, apperror.ValidationFailed("image", fmt.Sprintf("unsupported image %s: %v", filepath.Base(src), err))
	}
	ext, ok := extensions[format]
	if !ok {
		return imported{}, apperror.ValidationFailed("image", "unsupported image format "+format)
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return imported{}, fmt.Errorf("failed to rewind image: %w", err)
	}

	name := prefix + "_" + xid.New().String() + ext
	dst := filepath.Join(f.dir, name)
	tmp, err := os.CreateTemp(f.dir, ".import-*")
	if err != nil {
		return imported{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return imported{}, fmt.Errorf("failed to copy image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return imported{}, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return imported{}, fmt.Errorf("failed to rename temp file: %w", err)
	}

	f.log.Debug("imported image", "src", src, "path", dst, "format", format)
	return imported{path: dst, filename: name, width: cfg.Width, height: cfg.Height}, nil
}

// ImportPhoto copies an image into the store and describes it as a photo.
// The photo id is assigned by the journal.
func (f *FileStore) ImportPhoto(ctx context.Context, src string) (journal.Photo, error) {
	im, err := f.copyImage(ctx, src, "photo")
	if err != nil {
		return journal.Photo{}, err
	}
	return journal.Photo{
		URI:       fileScheme + im.path,
		Filename:  im.filename,
		Width:     im.width,
		Height:    im.height,
		DateAdded: f.now().UTC().Format(time.RFC3339),
	}, nil
}

// ImportCover copies an image into the store as a custom game cover.
func (f *FileStore) ImportCover(ctx context.Context, src string) (*journal.Cover, error) {
	im, err := f.copyImage(ctx, src, "game_cover")
	if err != nil {
		return nil, err
	}
	return journal.NewCustomCover(journal.CustomCover{
		URI:       fileScheme + im.path,
		Filename:  im.filename,
		Width:     im.width,
		Height:    im.height,
		DateAdded: f.now().UTC().Format(time.RFC3339),
	}), nil
}

// RemoveFile deletes the file behind uri if it lives in the store's
// directory. Embedded data uris, foreign paths and missing files are
// ignored.
func (f *FileStore) RemoveFile(ctx context.Context, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, ok := f.localPath(uri)
	if !ok {
		f.log.Debug("not removing file outside media dir", "uri", uri)
		return nil
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	f.log.Debug("removed file", "path", path)
	return nil
}

func (f *FileStore) localPath(uri string) (string, bool) {
	if uri == "" || strings.HasPrefix(uri, "data:") {
		return "", false
	}
	path := strings.TrimPrefix(uri, fileScheme)
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.dir, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(f.dir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

package store

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"bookextract/internal/book"
)

// tempFile is the subset of *os.File used for staged writes.
type tempFile interface {
	io.Writer
	Name() string
	Sync() error
	Close() error
}

// Writer persists artifacts and records under a root directory.
type Writer struct {
	root string
	ext  string // used when the content type has no known extension
	log  *zap.Logger

	createTemp func(dir, pattern string) (tempFile, error)
}

// NewWriter creates a Writer rooted at dir. fallbackExt is used for content
// whose type cannot be sniffed, e.g. "pdf".
func NewWriter(dir, fallbackExt string, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{
		root: dir,
		ext:  strings.TrimPrefix(fallbackExt, "."),
		log:  log,
		createTemp: func(dir, pattern string) (tempFile, error) {
			return os.CreateTemp(dir, pattern)
		},
	}
}

// Root returns the output directory.
func (w *Writer) Root() string { return w.root }

// Artifact describes a written document.
type Artifact struct {
	Path        string
	Size        int64
	ContentType string
}

// WriteArtifact writes data to pdfs/<id>.<ext>, replacing any previous file
// only once the new one is complete.
func (w *Writer) WriteArtifact(id book.Identifier, data []byte) (*Artifact, error) {
	mt := mimetype.Detect(data)
	ext := strings.TrimPrefix(mt.Extension(), ".")
	if ext == "" || mt.Is("application/octet-stream") {
		ext = w.ext
	}

	path, err := w.path(DirArtifacts, string(id)+"."+ext)
	if err != nil {
		return nil, err
	}
	if err := w.writeAtomic(path, data); err != nil {
		return nil, err
	}

	w.log.Debug("artifact written",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.String("content_type", mt.String()),
	)
	return &Artifact{Path: path, Size: int64(len(data)), ContentType: mt.String()}, nil
}

// MetadataPath returns where the record for id is written.
func (w *Writer) MetadataPath(id book.Identifier) (string, error) {
	return w.path(DirMetadata, string(id)+"_metadata.json")
}

// WriteMetadata writes r as indented JSON to metadata/<id>_metadata.json.
func (w *Writer) WriteMetadata(r *book.Result) (string, error) {
	path, err := w.MetadataPath(r.Identifier)
	if err != nil {
		return "", err
	}
	if err := w.writeJSON(path, r); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSummary writes the batch summary to batch_results.json.
func (w *Writer) WriteSummary(s *book.BatchSummary) (string, error) {
	path, err := w.path("", SummaryFile)
	if err != nil {
		return "", err
	}
	if err := w.writeJSON(path, s); err != nil {
		return "", err
	}
	return path, nil
}

// WriteScreenshot stores a PNG captured for a failed item.
func (w *Writer) WriteScreenshot(id book.Identifier, png []byte) (string, error) {
	path, err := w.path(DirScreenshots, string(id)+".png")
	if err != nil {
		return "", err
	}
	if err := w.writeAtomic(path, png); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) path(sub, name string) (string, error) {
	dir := filepath.Join(w.root, sub)
	p, err := SafePath(dir, name)
	if err != nil {
		return "", book.Errorf(book.KindWrite, "%w", err)
	}
	return p, nil
}

func (w *Writer) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return book.Errorf(book.KindWrite, "encoding %s: %w", filepath.Base(path), err)
	}
	return w.writeAtomic(path, append(data, '\n'))
}

// writeAtomic stages data in a temp file beside path and renames it into
// place after it has been synced. On any failure the temp file is removed
// and path is left as it was.
func (w *Writer) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return book.Errorf(book.KindWrite, "creating %s: %w", dir, err)
	}

	tmp, err := w.createTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return book.Errorf(book.KindWrite, "creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	fail := func(op string, err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return book.Errorf(book.KindWrite, "%s %s: %w", op, filepath.Base(path), err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("writing", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return book.Errorf(book.KindWrite, "closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return book.Errorf(book.KindWrite, "renaming into %s: %w", path, err)
	}
	return nil
}

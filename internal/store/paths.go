// Package store writes extracted documents, their metadata records, and
// batch summaries under the output directory.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Output subdirectories.
const (
	DirArtifacts   = "pdfs"
	DirMetadata    = "metadata"
	DirLogs        = "logs"
	DirScreenshots = "screenshots"

	SummaryFile = "batch_results.json"
)

// PrepareDirs creates the output tree under root.
func PrepareDirs(root string) error {
	for _, d := range []string{DirArtifacts, DirMetadata, DirLogs, DirScreenshots} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("creating %s directory: %w", d, err)
		}
	}
	return nil
}

// SanitizeFilename strips directory components and characters that are
// unsafe in file names on common filesystems.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)

	replacer := strings.NewReplacer(
		"..", "_",
		"/", "_",
		"\\", "_",
		"\x00", "",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)

	if name == "" || name == "." || name == ".." || name == "_" {
		return "untitled"
	}
	return name
}

// SafePath joins dir and a sanitized filename, refusing results that
// escape dir.
func SafePath(dir, filename string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	full := filepath.Join(absDir, SanitizeFilename(filename))
	if !strings.HasPrefix(full, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", full, absDir)
	}
	return full, nil
}

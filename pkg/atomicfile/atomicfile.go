// Package atomicfile provides the temp-file-plus-rename write pattern used
// throughout the ingestion pipeline's on-disk artifacts (minister category
// files, the combined vector index, progress.json) so a crash mid-write
// always leaves either the old file or the new one, never partial JSON.
package atomicfile

import (
	"os"
	"path/filepath"
)

// WriteJSON writes data to path via a sibling temp file followed by an
// atomic rename.
func WriteJSON(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, ".atomicfile-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

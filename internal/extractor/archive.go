package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// ArchiveEntry is a single unpacked zip member, routed back through C1 for
// re-classification per spec.md §4.2's archive note.
type ArchiveEntry struct {
	Name string
	Data []byte
}

// WalkArchive enumerates every regular-file entry of a zip archive.
// Nested archives are listed but not recursively expanded here — the
// caller re-classifies each entry and may call WalkArchive again.
func WalkArchive(data []byte) ([]ArchiveEntry, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var entries []ArchiveEntry
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open archive entry %q: %w", f.Name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read archive entry %q: %w", f.Name, err)
		}
		entries = append(entries, ArchiveEntry{Name: f.Name, Data: raw})
	}
	return entries, nil
}

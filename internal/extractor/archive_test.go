package extractor

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildTestZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %q: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %q: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	return buf.Bytes()
}

func TestWalkArchive_ListsRegularFileEntries(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"contract.eml": "Subject: hi\r\nFrom: a@b.com\r\n\r\nbody\r\n",
		"notes.txt":    "plain notes",
	})

	entries, err := WalkArchive(data)
	if err != nil {
		t.Fatalf("WalkArchive: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	byName := make(map[string][]byte, len(entries))
	for _, e := range entries {
		byName[e.Name] = e.Data
	}
	if string(byName["notes.txt"]) != "plain notes" {
		t.Errorf("notes.txt content = %q", byName["notes.txt"])
	}
}

func TestWalkArchive_SkipsDirectoryEntries(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if _, err := w.Create("folder/"); err != nil {
		t.Fatalf("create dir entry: %v", err)
	}
	if f, err := w.Create("folder/file.txt"); err != nil {
		t.Fatalf("create file entry: %v", err)
	} else if _, err := f.Write([]byte("x")); err != nil {
		t.Fatalf("write file entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}

	entries, err := WalkArchive(buf.Bytes())
	if err != nil {
		t.Fatalf("WalkArchive: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "folder/file.txt" {
		t.Errorf("expected only the file entry, got %v", entries)
	}
}

func TestWalkArchive_RejectsCorruptArchive(t *testing.T) {
	if _, err := WalkArchive([]byte("not a zip")); err == nil {
		t.Error("expected an error for a corrupt archive")
	}
}

package classifier

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) []byte {
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

func TestClassify_HashDeterminism(t *testing.T) {
	result, err := Classify("notes.txt", []byte("hello"))
	if err == nil {
		t.Fatal("expected unrecognized-kind error for a .txt file")
	}
	const want = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if result.Hash != want {
		t.Errorf("hash = %q, want %q", result.Hash, want)
	}
	if result.SizeBytes != 5 {
		t.Errorf("size_bytes = %d, want 5", result.SizeBytes)
	}
}

func TestClassify_HashIsContentStable(t *testing.T) {
	a, _ := Classify("a.txt", []byte("same bytes"))
	b, _ := Classify("totally-different-name.txt", []byte("same bytes"))
	if a.Hash != b.Hash {
		t.Errorf("hash should depend only on content, got %q vs %q", a.Hash, b.Hash)
	}
}

func TestClassify_DetectsKindBySignature(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"pdf signature", []byte("%PDF-1.4 rest is ignored for kind detection"), "pdf"},
		{"zip signature", []byte{0x50, 0x4B, 0x03, 0x04, 0, 0}, "zip"},
		{"rfc822 header", []byte("Subject: hello\nFrom: a@b.com\n"), "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectKind("unnamed", tt.data)
			if string(got) != tt.want {
				t.Errorf("detectKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_DiscriminatesZipSubtypes(t *testing.T) {
	docx := buildZip(t, map[string]string{"word/document.xml": "<document/>", "[Content_Types].xml": "<Types/>"})
	if got := detectKind("contract.docx", docx); got != "word-processor" {
		t.Errorf("docx zip detectKind() = %q, want word-processor", got)
	}

	odt := buildZip(t, map[string]string{"mimetype": "application/vnd.oasis.opendocument.text", "content.xml": "<office/>"})
	if got := detectKind("contract.odt", odt); got != "odt" {
		t.Errorf("odt zip detectKind() = %q, want odt", got)
	}

	plain := buildZip(t, map[string]string{"readme.txt": "hello"})
	if got := detectKind("bundle.zip", plain); got != "zip" {
		t.Errorf("plain zip detectKind() = %q, want zip", got)
	}
}

func TestClassify_DetectsLegacyDOCBySignature(t *testing.T) {
	head := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0, 0, 0, 0}
	if got := detectKind("contract.doc", head); got != "legacy-doc" {
		t.Errorf("detectKind() = %q, want legacy-doc", got)
	}
}

func TestClassify_FallsBackToExtension(t *testing.T) {
	got := detectKind("contract.docx", []byte("not a zip, no magic bytes here"))
	if got != "word-processor" {
		t.Errorf("detectKind() = %q, want word-processor", got)
	}
}

func TestQualityFromCoverage(t *testing.T) {
	tests := []struct {
		coverage float64
		total    int
		want     string
	}{
		{0, 0, "none"},
		{0, 10, "none"},
		{35, 10, "poor"},
		{75, 10, "good"},
		{95, 10, "excellent"},
	}
	for _, tt := range tests {
		got := qualityFromCoverage(tt.coverage, tt.total)
		if string(got) != tt.want {
			t.Errorf("qualityFromCoverage(%v, %d) = %q, want %q", tt.coverage, tt.total, got, tt.want)
		}
	}
}

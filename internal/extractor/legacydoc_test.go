package extractor

import (
	"strings"
	"testing"
	"unicode/utf16"
)

func utf16leBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units)*2)
	for _, u := range units {
		out = append(out, byte(u), byte(u>>8))
	}
	return out
}

func TestExtractPrintableUTF16_JoinsRunsAndDropsShortNoise(t *testing.T) {
	raw := append(utf16leBytes("Kuendigungsfrist"), []byte{0, 0, 0, 0}...)
	raw = append(raw, utf16leBytes("xy")...)
	raw = append(raw, []byte{0, 0}...)
	raw = append(raw, utf16leBytes("drei Monate")...)

	got := extractPrintableUTF16(raw)
	if !strings.Contains(got, "Kuendigungsfrist") {
		t.Errorf("expected first run preserved, got %q", got)
	}
	if !strings.Contains(got, "drei Monate") {
		t.Errorf("expected second run preserved, got %q", got)
	}
	if strings.Contains(got, "xy") {
		t.Errorf("expected short run dropped as noise, got %q", got)
	}
}

func TestExtractLegacyDOC_RejectsNonCompoundFile(t *testing.T) {
	if _, err := ExtractLegacyDOC([]byte("not an OLE2 compound file")); err == nil {
		t.Error("expected an error for a non-compound-file input")
	}
}

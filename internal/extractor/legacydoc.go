package extractor

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
)

// ExtractLegacyDOC pulls plain text out of a pre-OOXML (.doc) compound file
// by reading the WordDocument stream of the OLE2 container and keeping
// runs of printable UTF-16LE text — legacy .doc carries no XML body to
// walk, unlike docx/odt. Grounded on the teacher's go.mod dependency on
// richardlehane/mscfb + richardlehane/msoleps (otherwise unused by the
// teacher's own chat/PDF code, carried for exactly this kind of legacy
// office-document reading).
func ExtractLegacyDOC(data []byte) (string, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open compound file: %w", err)
	}

	var wordStream []byte
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry == nil {
			break
		}
		if entry.Name == "WordDocument" {
			buf := make([]byte, entry.Size)
			n, readErr := doc.Read(buf)
			if readErr != nil && readErr != io.EOF {
				return "", fmt.Errorf("read WordDocument stream: %w", readErr)
			}
			wordStream = buf[:n]
			break
		}
	}
	if wordStream == nil {
		return "", fmt.Errorf("WordDocument stream not found")
	}

	return extractPrintableUTF16(wordStream), nil
}

// extractPrintableUTF16 scans for runs of plausible UTF-16LE text and joins
// them with newlines, since legacy .doc interleaves text with binary
// formatting structures we don't attempt to fully parse.
func extractPrintableUTF16(raw []byte) string {
	var b strings.Builder
	var run []uint16

	flush := func() {
		if len(run) < 4 {
			run = run[:0]
			return
		}
		b.WriteString(string(utf16.Decode(run)))
		b.WriteString("\n")
		run = run[:0]
	}

	for i := 0; i+1 < len(raw); i += 2 {
		u := uint16(raw[i]) | uint16(raw[i+1])<<8
		if u >= 0x20 && u < 0x7F {
			run = append(run, u)
		} else if u == 0x0D || u == 0x0A {
			flush()
		} else {
			flush()
		}
	}
	flush()
	return b.String()
}

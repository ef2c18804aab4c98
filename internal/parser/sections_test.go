package parser

import "testing"

func TestParse_EmptyDocumentYieldsZeroChunks(t *testing.T) {
	chunks := Parse("doc1", "", Options{})
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for an empty document, got %d", len(chunks))
	}

	chunks = Parse("doc1", "   \n\n  ", Options{})
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for a whitespace-only document, got %d", len(chunks))
	}
}

func TestParse_BuildsParentChildForest(t *testing.T) {
	text := "§1 Geltungsbereich\nDieser Vertrag regelt die Zusammenarbeit.\n" +
		"Absatz 1 Allgemeines\nDie Parteien vereinbaren Folgendes.\n" +
		"§2 Kündigung\nDie Kündigungsfrist beträgt 3 Monate."

	chunks := Parse("doc1", text, Options{MaxChunkSize: 1000})
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}

	byID := make(map[string]int)
	for i, c := range chunks {
		byID[c.SectionID] = i
	}

	sub, ok := byID["Absatz 1"]
	if !ok {
		t.Fatal("expected an Absatz 1 chunk")
	}
	parentID := chunks[sub].ParentID
	if parentID == nil || *parentID != "§1" {
		t.Errorf("Absatz 1's parent = %v, want §1", parentID)
	}

	// Every non-root chunk's parent must itself exist in the document, and
	// no chunk may be its own ancestor.
	for _, c := range chunks {
		if c.ParentID == nil {
			continue
		}
		if _, exists := byID[*c.ParentID]; !exists {
			t.Errorf("chunk %s has parent_id %s which does not exist in the document", c.SectionID, *c.ParentID)
		}
		if *c.ParentID == c.SectionID {
			t.Errorf("chunk %s is its own parent", c.SectionID)
		}
	}
}

func TestParse_DottedSectionIDsStayDistinct(t *testing.T) {
	text := "§5.1 Kündigungsfrist\nDie Frist beträgt einen Monat.\n" +
		"§5.2 Kündigungsgrund\nEin wichtiger Grund ist erforderlich."

	chunks := Parse("doc1", text, Options{MaxChunkSize: 1000})

	seen := make(map[string]bool)
	for _, c := range chunks {
		if seen[c.SectionID] {
			t.Errorf("section_id %q is not unique within the document", c.SectionID)
		}
		seen[c.SectionID] = true
	}
	if !seen["§5.1"] || !seen["§5.2"] {
		t.Errorf("expected distinct §5.1 and §5.2 section ids, got %v", seen)
	}
}

func TestParse_FallsBackToWindowedParagraphsWithoutHeaders(t *testing.T) {
	text := "Just a plain paragraph of text with no legal section headers at all."
	chunks := Parse("doc1", text, Options{MaxChunkSize: 1000})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ParentID != nil {
		t.Error("a flat paragraph chunk should have no parent")
	}
}

func TestWindowedSplit_OversizedSectionProducesSuffixedIDs(t *testing.T) {
	long := make([]byte, 2500)
	for i := range long {
		long[i] = 'a'
	}
	pieces := windowedSplit(string(long), "§1", Options{MaxChunkSize: 1000, ChunkOverlap: 100})
	if len(pieces) < 3 {
		t.Fatalf("expected at least 3 windows for a 2500-byte section, got %d", len(pieces))
	}
	if pieces[0].sectionID != "§1" {
		t.Errorf("first piece section_id = %q, want §1", pieces[0].sectionID)
	}
	if pieces[1].sectionID != "§1.2" {
		t.Errorf("second piece section_id = %q, want §1.2", pieces[1].sectionID)
	}
}

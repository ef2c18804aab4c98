package verifier

import (
	"testing"

	"legaldoc-pipeline/models"
)

func TestVerify_SupportedCitation(t *testing.T) {
	answer := "According to §5.2: Die Kündigungsfrist beträgt 3 Monate."
	results := []models.RetrievalResult{
		{
			ChunkID:    "c1",
			SectionID:  "§5.2",
			Content:    "Die Kündigungsfrist beträgt 3 Monate.",
			Similarity: 0.88,
		},
	}

	result := Verify(answer, results, 0.4)

	if len(result.Citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(result.Citations))
	}
	c := result.Citations[0]
	if c.SectionID != "§5.2" {
		t.Errorf("section_id = %q, want §5.2", c.SectionID)
	}
	if c.Confidence <= 0.6 {
		t.Errorf("citation confidence = %v, want > 0.6", c.Confidence)
	}
	if len(result.UnsupportedStatements) != 0 {
		t.Errorf("expected no unsupported statements, got %v", result.UnsupportedStatements)
	}
	if result.Confidence <= 0.7 {
		t.Errorf("final confidence = %v, want > 0.7", result.Confidence)
	}
	if !result.IsSupported {
		t.Error("expected IsSupported = true")
	}
}

func TestVerify_HallucinatedCitation(t *testing.T) {
	answer := "According to §99.9, notarization is required."
	results := []models.RetrievalResult{
		{ChunkID: "c1", SectionID: "§5.2", Content: "Die Kündigungsfrist beträgt 3 Monate.", Similarity: 0.5},
		{ChunkID: "c2", SectionID: "§12", Content: "Andere Regelung.", Similarity: 0.4},
	}

	result := Verify(answer, results, 0.4)

	var found *models.Citation
	for i := range result.Citations {
		if result.Citations[i].SectionID == "§99.9" {
			found = &result.Citations[i]
		}
	}
	if found == nil {
		t.Fatal("expected a citation entry for the hallucinated §99.9")
	}
	if found.Confidence >= 0.2 {
		t.Errorf("hallucinated citation confidence = %v, want < 0.2", found.Confidence)
	}
	if len(result.UnsupportedStatements) == 0 {
		t.Error("expected unsupported_statements to be non-empty")
	}
	if result.IsSupported {
		t.Error("expected IsSupported = false")
	}
}

func TestVerify_EmptyContextYieldsLowConfidence(t *testing.T) {
	answer := "The termination notice period is three months."

	result := Verify(answer, nil, 0.4)

	if len(result.UnsupportedStatements) == 0 {
		t.Error("expected every sentence to be unsupported with no retrieved context")
	}
	if result.IsSupported {
		t.Error("expected IsSupported = false with no retrieved context")
	}
	if result.Confidence >= 0.5 {
		t.Errorf("confidence = %v, want a low score with no retrieved context", result.Confidence)
	}
}

func TestJaccard(t *testing.T) {
	a := wordSet("the quick brown fox")
	b := wordSet("the quick brown fox")
	if got := jaccard(a, b); got != 1 {
		t.Errorf("jaccard(identical) = %v, want 1", got)
	}

	empty := wordSet("")
	if got := jaccard(empty, empty); got != 0 {
		t.Errorf("jaccard(empty, empty) = %v, want 0", got)
	}
}

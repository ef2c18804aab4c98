// Package verifier implements C10: scanning a generated answer for section
// citations, resolving them against the retrieved chunks, and scoring how
// well the answer is actually supported. Grounded on
// bbiangul-go-reason/reasoning/citation.go's citationPatterns regex table
// and matchCitationToChunk idiom, adapted from fuzzy filename/heading match
// to the exact section_id match spec.md §4.10 requires.
package verifier

import (
	"regexp"
	"strings"

	"legaldoc-pipeline/models"
)

// mention is a raw citation-like token found in an answer, before resolution.
type mention struct {
	sectionID string
	start     int
	end       int
}

// citationPatterns mirror the header patterns in internal/parser/sections.go
// so a citation and the section it names normalize to the same section_id.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`§\s*(\d+(?:\.\d+)*[a-z]?)`),
	regexp.MustCompile(`(?i)Art\.?\s*(\d+(?:\.\d+)*[a-z]?)`),
	regexp.MustCompile(`(?i)Absatz\s*(\d+(?:\.\d+)*)`),
	regexp.MustCompile(`(?i)(?:Ziffer|Nr\.?)\s*(\d+(?:\.\d+)*)`),
}

var labelPrefix = []string{"§", "Art ", "Absatz ", "Ziffer "}

// extractMentions scans text for every citation-like token, tagging each
// with the byte offsets of its containing match.
func extractMentions(text string) []mention {
	var mentions []mention
	for pIdx, pattern := range citationPatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			num := text[loc[2]:loc[3]]
			sectionID := normalizeSectionID(pIdx, num)
			mentions = append(mentions, mention{sectionID: sectionID, start: loc[0], end: loc[1]})
		}
	}
	return mentions
}

func normalizeSectionID(patternIdx int, num string) string {
	switch patternIdx {
	case 0:
		return "§" + num
	case 1:
		return "§" + num // Art. and § both denote the same top-level section class, per §4.5
	case 2:
		return "Absatz " + num
	default:
		return "Ziffer " + num
	}
}

// Resolve attempts to match every mention to a retrieved result by exact
// section_id. Unmatched mentions are hallucinated citations.
func Resolve(answer string, results []models.RetrievalResult) []models.Citation {
	byID := make(map[string]models.RetrievalResult, len(results))
	for _, r := range results {
		byID[r.SectionID] = r
	}

	seen := make(map[string]bool)
	var citations []models.Citation
	for _, m := range extractMentions(answer) {
		if seen[m.sectionID] {
			continue
		}
		seen[m.sectionID] = true

		if r, ok := byID[m.sectionID]; ok {
			citations = append(citations, models.Citation{
				SectionID: m.sectionID,
				Content:   r.Content,
				ChunkID:   r.ChunkID,
			})
		} else {
			// Hallucinated: named in the answer but absent from retrieval.
			citations = append(citations, models.Citation{SectionID: m.sectionID})
		}
	}
	return citations
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// dottedNumber matches section numerals such as 5.2 or 5.2.1, whose dots do
// not end a sentence.
var dottedNumber = regexp.MustCompile(`\d+(?:\.\d+)+`)

// splitSentences splits on ., !, ? per spec.md §4.10 step 3; the dots inside
// a dotted numeral (§5.2) are not treated as sentence ends.
func splitSentences(text string) []string {
	text = dottedNumber.ReplaceAllStringFunc(text, func(m string) string { return strings.ReplaceAll(m, ".", "\x00") })
	parts := sentenceSplit.Split(text, -1)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\x00", "."))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// wordSet lowercases and strips punctuation into a bag (multiset) of words,
// for Jaccard overlap per spec.md §4.10 step 3.
func wordSet(text string) map[string]int {
	set := make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		set[w]++
	}
	return set
}

// jaccard computes |A ∩ B| / |A ∪ B| over word bags.
func jaccard(a, b map[string]int) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection, union := 0, 0
	for w, ca := range a {
		cb := b[w]
		if ca < cb {
			intersection += ca
		} else {
			intersection += cb
		}
		if ca > cb {
			union += ca
		} else {
			union += cb
		}
	}
	for w, cb := range b {
		if _, ok := a[w]; !ok {
			union += cb
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

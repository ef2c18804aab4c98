package verifier

import (
	"fmt"
	"strings"

	"legaldoc-pipeline/models"
)

// weights implement spec.md §4.10 step 6's fixed split, adapted from
// bbiangul-go-reason/reasoning/confidence.go's ConfidenceWeights idiom
// (reweighted from that file's 0.3/0.3/0.25/0.15 to the spec's 0.5/0.3/0.2).
const (
	weightCitation  = 0.5
	weightRetrieval = 0.3
	weightSentence  = 0.2
)

// Result is C10's full verdict for one generated answer. IsSupported only
// reflects this verifier's own citation/sentence scan — the orchestrator
// ANDs it with C11's independent verdict once that parallel call returns,
// per spec.md §4.13 step 9.
type Result struct {
	Citations             []models.Citation
	UnsupportedStatements []string
	IsSupported           bool
	Confidence            float64
}

// Verify scores an answer against its retrieved context, per spec.md §4.10.
func Verify(answer string, results []models.RetrievalResult, sentenceThreshold float64) Result {
	citations := Resolve(answer, results)
	contentByID := make(map[string]string, len(results))
	for _, r := range results {
		contentByID[r.SectionID] = r.Content
	}

	sentences := splitSentences(answer)

	for i := range citations {
		c := &citations[i]
		if c.ChunkID == "" {
			c.Confidence = 0 // hallucinated: named in the answer, absent from retrieval
			continue
		}
		supporting := sentencesContaining(sentences, c.SectionID)
		answerBag := wordSet(strings.Join(supporting, " "))
		// The citation label itself is not content, so its words are left out.
		for w, n := range wordSet(c.SectionID) {
			answerBag[w] -= n * len(supporting)
			if answerBag[w] <= 0 {
				delete(answerBag, w)
			}
		}
		c.Confidence = jaccard(answerBag, wordSet(contentByID[c.SectionID]))
	}

	var unsupported []string
	hallucinated := make(map[string]bool)
	for _, c := range citations {
		if c.ChunkID == "" {
			hallucinated[c.SectionID] = true
			unsupported = append(unsupported, fmt.Sprintf("fabricated citation: %s", c.SectionID))
		}
	}

	for _, sentence := range sentences {
		mentions := extractMentions(sentence)
		if len(mentions) == 0 {
			unsupported = append(unsupported, sentence)
			continue
		}

		bestOverlap := 0.0
		allHallucinated := true
		for _, m := range mentions {
			if !hallucinated[m.sectionID] {
				allHallucinated = false
			}
			if content, ok := contentByID[m.sectionID]; ok {
				overlap := jaccard(wordSet(sentence), wordSet(content))
				if overlap > bestOverlap {
					bestOverlap = overlap
				}
			}
		}
		if allHallucinated || bestOverlap < sentenceThreshold {
			unsupported = append(unsupported, sentence)
		}
	}

	meanCitation := 0.5 // neutral when no citations are present, matching the "no claim to check" case
	if len(citations) > 0 {
		sum := 0.0
		for _, c := range citations {
			sum += c.Confidence
		}
		meanCitation = sum / float64(len(citations))
	}

	meanSimilarity := 0.0
	if len(results) > 0 {
		sum := 0.0
		for _, r := range results {
			sum += r.Similarity
		}
		meanSimilarity = sum / float64(len(results))
	}

	sentenceCoverage := 1.0
	if len(sentences) > 0 {
		sentenceCoverage = 1 - float64(len(unsupported))/float64(len(sentences))
	}
	if sentenceCoverage < 0 {
		sentenceCoverage = 0
	}

	confidence := weightCitation*meanCitation + weightRetrieval*meanSimilarity + weightSentence*sentenceCoverage
	confidence = clamp01(confidence)

	isSupported := len(unsupported) == 0

	return Result{
		Citations:             citations,
		UnsupportedStatements: unsupported,
		IsSupported:           isSupported,
		Confidence:            confidence,
	}
}

func sentencesContaining(sentences []string, sectionID string) []string {
	var out []string
	for _, s := range sentences {
		for _, m := range extractMentions(s) {
			if m.sectionID == sectionID {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package anonymizer implements C6: reversible PII anonymization with a
// per-request placeholder mapping. Grounded on the Python original's
// pii_anonymizer.py (counter reset, <TYPE_n> placeholder, single-use
// mapping lifecycle) and on other_examples/...laplaque-ai-anonymizing-proxy's
// pattern{re, piiType, confidence} table idiom for the Go-native regex
// recognizer shape.
package anonymizer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// EntityType is the PII category a recognizer detects.
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityOrganization EntityType = "ORG"
	EntityLocation     EntityType = "LOCATION"
	EntityCaseNumber   EntityType = "CASE_NUMBER"
	EntityIBAN         EntityType = "IBAN"
	EntityVATID        EntityType = "VAT_ID"
	EntityContractNum  EntityType = "CONTRACT_NUMBER"
	EntityEmail        EntityType = "EMAIL"
	EntityPhone        EntityType = "PHONE"
)

// Span is a single detected entity occurrence.
type Span struct {
	EntityType EntityType
	Start      int
	End        int
	Confidence float64
	Text       string
}

type recognizer struct {
	entityType EntityType
	re         *regexp.Regexp
	confidence float64
}

// recognizers is the detection table. German legal-domain patterns (case
// number, IBAN, VAT id, contract number) are taken from the Python
// original's pii_anonymizer.py; person/org/location use a lighter
// heuristic since no NER model is available to this Go service (the
// original's Presidio AnalyzerEngine has no direct Go equivalent in the
// pack — capitalized-phrase heuristics substitute, with a lower
// confidence score reflecting that gap).
var recognizers = []recognizer{
	{entityType: EntityCaseNumber, confidence: 0.85, re: regexp.MustCompile(`\b(?:Az\.|Aktenzeichen)?\s*\d{1,4}\s+[A-Z][a-z]?\s+\d+/\d{2,4}\b`)},
	{entityType: EntityIBAN, confidence: 0.90, re: regexp.MustCompile(`\bDE\d{2}\s?(?:\d{4}\s?){4}\d{2}\b`)},
	{entityType: EntityVATID, confidence: 0.85, re: regexp.MustCompile(`\bDE\d{9}\b`)},
	{entityType: EntityContractNum, confidence: 0.75, re: regexp.MustCompile(`\b(?:Vertrag(?:snummer)?|Contract)\s*(?:Nr\.?|#)?\s*[A-Z0-9\-/]{4,}\b`)},
	{entityType: EntityEmail, confidence: 0.95, re: regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[a-zA-Z]{2,}\b`)},
	{entityType: EntityPhone, confidence: 0.80, re: regexp.MustCompile(`\b(?:\+49|0)[1-9]\d{1,4}[\s/-]?\d{3,10}\b`)},
	{entityType: EntityPerson, confidence: 0.75, re: regexp.MustCompile(`\b(?:Herr|Frau|Dr\.|Prof\.)\s+[A-ZÄÖÜ][a-zäöüß]+(?:\s+[A-ZÄÖÜ][a-zäöüß]+)?\b`)},
	{entityType: EntityLocation, confidence: 0.70, re: regexp.MustCompile(`\bin\s+([A-ZÄÖÜ][a-zäöüß]+(?:-[A-ZÄÖÜ][a-zäöüß]+)?)\b`)},
}

// MappingStore is the narrow KV interface C6 needs from C12, kept small so
// this package doesn't depend on the concrete Redis client.
type MappingStore interface {
	StoreMapping(ctx context.Context, requestID string, mapping map[string]string, ttlSeconds int) error
	FetchMapping(ctx context.Context, requestID string) (map[string]string, bool, error)
	DeleteMapping(ctx context.Context, requestID string) error
}

// Anonymizer holds no cross-request state; entity counters are created
// fresh on every call, per spec.md §4.6.
type Anonymizer struct {
	store               MappingStore
	confidenceThreshold float64
	mappingTTL          int
}

func New(store MappingStore, confidenceThreshold float64, mappingTTLSeconds int) *Anonymizer {
	return &Anonymizer{store: store, confidenceThreshold: confidenceThreshold, mappingTTL: mappingTTLSeconds}
}

// Detect runs the recognizer table and drops spans below the confidence
// threshold — the detect-only mode named in spec.md §4.6.
func (a *Anonymizer) Detect(text string) []Span {
	var spans []Span
	for _, r := range recognizers {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			if r.confidence < a.confidenceThreshold {
				continue
			}
			spans = append(spans, Span{
				EntityType: r.entityType,
				Start:      loc[0],
				End:        loc[1],
				Confidence: r.confidence,
				Text:       text[loc[0]:loc[1]],
			})
		}
	}
	return spans
}

// substitute detects entities and replaces each with an <ENTITY_n>
// placeholder, without touching the mapping store. Shared by Anonymize and
// Redact so a pre-retrieval redaction pass and the persisted, generation-bound
// pass use identical substitution logic.
func (a *Anonymizer) substitute(text string) (string, map[string]string) {
	spans := a.Detect(text)
	if len(spans) == 0 {
		return text, nil
	}

	// Replace from highest start index to lowest to avoid offset shifting.
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start > spans[j].Start })

	counters := make(map[EntityType]int)
	mapping := make(map[string]string)
	result := text

	for _, s := range spans {
		counters[s.EntityType]++
		placeholder := fmt.Sprintf("<%s_%d>", s.EntityType, counters[s.EntityType])
		mapping[placeholder] = s.Text
		result = result[:s.Start] + placeholder + result[s.End:]
	}

	return result, mapping
}

// Redact substitutes placeholders without persisting a mapping. Used to
// strip PII from a query before it is embedded for retrieval, per spec.md
// §4.13 step 4 — that step runs before the request_id-scoped mapping this
// query will eventually be anonymized and stored under via Anonymize, so
// nothing here needs to be reversible on its own.
func (a *Anonymizer) Redact(text string) string {
	result, _ := a.substitute(text)
	return result
}

// Anonymize detects entities, substitutes <ENTITY_n> placeholders, and
// persists the reversible mapping under request_id with TTL pii_mapping_ttl.
func (a *Anonymizer) Anonymize(ctx context.Context, text, requestID string) (string, map[string]string, error) {
	result, mapping := a.substitute(text)
	if mapping == nil {
		return result, nil, nil
	}

	if a.store != nil {
		if err := a.store.StoreMapping(ctx, requestID, mapping, a.mappingTTL); err != nil {
			return result, mapping, err
		}
	}

	return result, mapping, nil
}

// Deanonymize restores the original surfaces and deletes the mapping
// (single-use). A missing mapping is not an error — it returns the input
// unchanged but the caller MUST log the drop (TTL expiry or misuse),
// per spec.md §5/§7.
func (a *Anonymizer) Deanonymize(ctx context.Context, text, requestID string) (string, bool, error) {
	if a.store == nil {
		return text, false, nil
	}

	mapping, found, err := a.store.FetchMapping(ctx, requestID)
	if err != nil {
		return text, false, err
	}
	if !found {
		return text, false, nil
	}

	result := text
	for placeholder, original := range mapping {
		result = strings.ReplaceAll(result, placeholder, original)
	}

	if err := a.store.DeleteMapping(ctx, requestID); err != nil {
		return result, true, err
	}
	return result, true, nil
}

// VerifyNoLeakage re-runs the detector and reports whether it found
// nothing, per spec.md §4.6's verification helper.
func (a *Anonymizer) VerifyNoLeakage(text string) bool {
	return len(a.Detect(text)) == 0
}


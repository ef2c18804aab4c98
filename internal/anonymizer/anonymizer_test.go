package anonymizer

import (
	"context"
	"strings"
	"testing"
)

// fakeStore is an in-memory MappingStore, standing in for the Redis-backed
// C12 adapter so this package's tests don't need a live Redis.
type fakeStore struct {
	mappings map[string]map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{mappings: make(map[string]map[string]string)}
}

func (s *fakeStore) StoreMapping(ctx context.Context, requestID string, mapping map[string]string, ttlSeconds int) error {
	s.mappings[requestID] = mapping
	return nil
}

func (s *fakeStore) FetchMapping(ctx context.Context, requestID string) (map[string]string, bool, error) {
	m, ok := s.mappings[requestID]
	return m, ok, nil
}

func (s *fakeStore) DeleteMapping(ctx context.Context, requestID string) error {
	delete(s.mappings, requestID)
	return nil
}

func (s *fakeStore) exists(requestID string) bool {
	_, ok := s.mappings[requestID]
	return ok
}

func TestAnonymize_RoundTrip(t *testing.T) {
	store := newFakeStore()
	a := New(store, 0.7, 300)
	ctx := context.Background()

	input := "Dr. Eva Müller in Berlin."
	anonymized, mapping, err := a.Anonymize(ctx, input, "r1")
	if err != nil {
		t.Fatalf("Anonymize: %v", err)
	}
	if len(mapping) == 0 {
		t.Fatal("expected a non-empty mapping")
	}
	if strings.Contains(anonymized, "Eva Müller") || strings.Contains(anonymized, "Berlin") {
		t.Errorf("anonymized text still leaks PII: %q", anonymized)
	}
	if !strings.Contains(anonymized, "<PERSON_1>") {
		t.Errorf("expected a <PERSON_1> placeholder, got %q", anonymized)
	}
	if !strings.Contains(anonymized, "<LOCATION_1>") {
		t.Errorf("expected a <LOCATION_1> placeholder, got %q", anonymized)
	}
	if !store.exists("r1") {
		t.Fatal("expected mapping to be stored under r1")
	}

	restored, found, err := a.Deanonymize(ctx, anonymized, "r1")
	if err != nil {
		t.Fatalf("Deanonymize: %v", err)
	}
	if !found {
		t.Fatal("expected mapping to be found")
	}
	if restored != input {
		t.Errorf("restored = %q, want %q", restored, input)
	}
	if store.exists("r1") {
		t.Error("mapping should be deleted after deanonymize (single-use)")
	}
}

func TestAnonymize_NoEntitiesIsIdentity(t *testing.T) {
	store := newFakeStore()
	a := New(store, 0.7, 300)
	ctx := context.Background()

	const input = "This sentence has no detectable PII in it."
	anonymized, mapping, err := a.Anonymize(ctx, input, "r2")
	if err != nil {
		t.Fatalf("Anonymize: %v", err)
	}
	if anonymized != input {
		t.Errorf("anonymized = %q, want identity %q", anonymized, input)
	}
	if mapping != nil {
		t.Errorf("expected no mapping, got %v", mapping)
	}
	if store.exists("r2") {
		t.Error("no mapping should be stored when no entities are detected")
	}
}

func TestDeanonymize_MissingMappingReturnsInputUnchanged(t *testing.T) {
	store := newFakeStore()
	a := New(store, 0.7, 300)
	ctx := context.Background()

	text := "<PERSON_1> already expired"
	restored, found, err := a.Deanonymize(ctx, text, "never-anonymized")
	if err != nil {
		t.Fatalf("Deanonymize: %v", err)
	}
	if found {
		t.Error("expected found=false for a request_id with no stored mapping")
	}
	if restored != text {
		t.Errorf("restored = %q, want unchanged %q", restored, text)
	}
}

func TestRedact_DoesNotPersistMapping(t *testing.T) {
	store := newFakeStore()
	a := New(store, 0.7, 300)

	redacted := a.Redact("Dr. Eva Müller in Berlin.")
	if strings.Contains(redacted, "Eva Müller") || strings.Contains(redacted, "Berlin") {
		t.Errorf("redacted text still leaks PII: %q", redacted)
	}
	if !strings.Contains(redacted, "<PERSON_1>") {
		t.Errorf("expected a <PERSON_1> placeholder, got %q", redacted)
	}
	if len(store.mappings) != 0 {
		t.Error("Redact must not persist a mapping to the store")
	}
}

func TestVerifyNoLeakage(t *testing.T) {
	a := New(nil, 0.7, 300)
	if !a.VerifyNoLeakage("nothing sensitive here") {
		t.Error("expected no leakage for plain text")
	}
	if a.VerifyNoLeakage("Dr. Eva Müller in Berlin.") {
		t.Error("expected leakage to be detected in unredacted PII text")
	}
}

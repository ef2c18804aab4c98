package pipeline

import (
	"errors"
	"testing"
)

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindUnsupportedFormat, 400},
		{KindCorruptInput, 400},
		{KindClassificationError, 400},
		{KindQuotaExceeded, 429},
		{KindGenerationError, 502},
		{KindStoreUnavailable, 503},
		{KindOCRTimeout, 500},
	}
	for _, tt := range tests {
		e := New(tt.kind, "", "msg", nil)
		if got := e.HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestError_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("underlying failure")
	e := New(KindStoreUnavailable, "req-1", "store down", cause)

	if !errors.Is(e, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	want := "store_unavailable: store down (request_id=req-1)"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestError_MessageWithoutRequestID(t *testing.T) {
	e := New(KindCorruptInput, "", "bad bytes", nil)
	want := "corrupt_input: bad bytes"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}

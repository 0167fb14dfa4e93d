package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusConflict},
		{CodeBusinessRule, http.StatusUnprocessableEntity},
		{CodeForbidden, http.StatusForbidden},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("row not found")
	err := Wrap(CodeNotFound, cause, "order missing")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable via errors.Is")
	}
	typed := As(err)
	if typed == nil || typed.Code() != CodeNotFound {
		t.Fatalf("expected typed NOT_FOUND, got %+v", typed)
	}
	if typed.Message() != "order missing" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestAsReturnsNilForPlainError(t *testing.T) {
	t.Parallel()

	if typed := As(fmt.Errorf("plain")); typed != nil {
		t.Fatalf("expected nil, got %+v", typed)
	}
	if typed := As(nil); typed != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()

	err := New(CodeConflict, "insufficient stock").WithDetails(map[string]any{"available": 2})
	details, ok := err.Details().(map[string]any)
	if !ok || details["available"] != 2 {
		t.Fatalf("unexpected details: %+v", err.Details())
	}
}

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeAlreadyLocked, "lock held by someone else")
	target := New(CodeAlreadyLocked, "different message")
	if !errors.Is(err, target) {
		t.Fatal("expected errors with the same code to match")
	}
	other := New(CodeNotAuthorized, "lock held by someone else")
	if errors.Is(err, other) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeInternal, "save submission", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "save submission" {
		t.Fatalf("expected message save submission, got %s", err.Error())
	}
}

func TestWithMetadataCarriesContext(t *testing.T) {
	err := WithMetadata(CodeAssessmentIncomplete, "review incomplete", map[string]string{
		"MissingItems": "STD1/1.2",
	})
	if err.Metadata["MissingItems"] != "STD1/1.2" {
		t.Fatal("expected metadata to carry missing item list")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: CodeUnknown},
		{name: "plain error", err: errors.New("boom"), want: CodeUnknown},
		{name: "domain error", err: New(CodeNotFound, "missing"), want: CodeNotFound},
		{name: "wrapped domain error", err: fmt.Errorf("load: %w", New(CodeConflict, "stale write")), want: CodeConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeOf(tc.err); got != tc.want {
				t.Fatalf("CodeOf = %s, want %s", got, tc.want)
			}
		})
	}
}

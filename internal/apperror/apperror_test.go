package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestConstructorStatuses(t *testing.T) {
	cases := []struct {
		name       string
		err        *Error
		wantStatus int
		wantKind   Kind
	}{
		{"bad request", BadRequest("Parameters missing"), 400, KindValidation},
		{"conflict renders as 400", Conflict("duplicate"), 400, KindConflict},
		{"incorrect code renders as 409", IncorrectCode(), 409, KindAuthorization},
		{"not found", NotFound("Question not found"), 404, KindNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Status != tc.wantStatus {
				t.Fatalf("status = %d, want %d", tc.err.Status, tc.wantStatus)
			}
			if tc.err.Kind != tc.wantKind {
				t.Fatalf("kind = %s, want %s", tc.err.Kind, tc.wantKind)
			}
			if tc.err.Error() != tc.err.Message {
				t.Fatalf("Error() = %q, want %q", tc.err.Error(), tc.err.Message)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	base := NotFound("Question not found")

	if got := FromError(base); got != base {
		t.Fatal("FromError should return the error itself")
	}

	wrapped := fmt.Errorf("handling request: %w", base)
	if got := FromError(wrapped); got != base {
		t.Fatal("FromError should unwrap the chain")
	}

	if got := FromError(errors.New("plain")); got != nil {
		t.Fatal("plain errors carry no status")
	}
}

// GO TESTING BASICS:
// 1. Test files MUST end in _test.go — Go's tooling auto-discovers them
// 2. Test functions MUST start with "Test" and take *testing.T as the only param
// 3. Same package as the code being tested (so we can access unexported stuff)
// 4. Run with: go test ./internal/apperror/ -v  (-v = verbose, shows each test name)
package apperror

import (
	"errors"
	"testing"
)

// TABLE-DRIVEN TESTS:
// This is Go's idiomatic pattern for testing multiple cases.
// Instead of writing separate test functions, we define a slice of test cases
// and loop over them. Benefits:
// - Adding a new test case = adding one struct to the slice
// - Every case gets a name (shows up in test output)
// - DRY — the assertion logic is written once

func TestErrorsIs(t *testing.T) {
	// Each test case checks that errors.Is() correctly identifies the error kind
	tests := []struct {
		name      string // Descriptive name for test output
		err       error  // The error to test
		target    error  // What we expect it to match
		wantMatch bool   // Should errors.Is() return true?
	}{
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("email already exists"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("could not find user"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Internal wraps ErrInternal",
			err:       Internal("failed to create user"),
			target:    ErrInternal,
			wantMatch: true,
		},
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("useremail", "email is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Unauthorized does NOT match ErrNotFound",
			err:       Unauthorized("could not find user"),
			target:    ErrNotFound,
			wantMatch: false,
		},
		{
			name:      "Conflict does NOT match ErrInternal",
			err:       Conflict("email already exists"),
			target:    ErrInternal,
			wantMatch: false,
		},
	}

	// t.Run() creates a sub-test for each case.
	// Output looks like: TestErrorsIs/Conflict_wraps_ErrConflict
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "Conflict carries the caller-facing message verbatim",
			err:         Conflict("email already exists"),
			wantMessage: "email already exists",
		},
		{
			name:        "Unauthorized carries the caller-facing message verbatim",
			err:         Unauthorized("could not find user"),
			wantMessage: "could not find user",
		},
		{
			name:        "Internal carries a generic message",
			err:         Internal("failed to create user"),
			wantMessage: "failed to create user",
		},
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("user", "abc123"),
			wantMessage: "user not found with id abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// .Error() should return the human-readable message
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	// Verify that Unwrap() returns the underlying sentinel error.
	// This is what makes errors.Is() work — it "unwraps" the chain.
	err := Unauthorized("invalid password")
	unwrapped := err.Unwrap()

	if unwrapped != ErrUnauthorized {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrUnauthorized)
	}
}

func TestValidationFailedField(t *testing.T) {
	// Verify that the Field is set correctly for validation errors.
	// This lets handlers tell the frontend WHICH field was invalid.
	err := ValidationFailed("useremail", "invalid email format")

	if err.Field != "useremail" {
		t.Errorf("Field = %q, want %q", err.Field, "useremail")
	}
}

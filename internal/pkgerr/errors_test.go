package pkgerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	t.Parallel()
	err := New(NotFound, "package %q missing", "Foo")
	if !errors.Is(err, NotFound) {
		t.Error("errors.Is should match the Kind")
	}
	if errors.Is(err, InvalidSpec) {
		t.Error("errors.Is should not match a different Kind")
	}
}

func TestWrapUnwrap(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("boom")
	err := Wrap(IOFailure, cause, "reading usage ledger")

	if !errors.Is(err, IOFailure) {
		t.Error("wrapped error should still match its Kind")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through to the wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the original cause")
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()
	err := New(InvalidSpec, "julia is not a valid package name")
	want := "invalid_spec: julia is not a valid package name"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

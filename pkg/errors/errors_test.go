package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeDegenerateGeometry, "node %q has no mesh", "DeskTop")

	if err.Code != ErrCodeDegenerateGeometry {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDegenerateGeometry)
	}

	expected := `DEGENERATE_GEOMETRY: node "DeskTop" has no mesh`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInvalidScene, cause, "decode scene")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeSurfaceNotFound, "desk"),
			code:     ErrCodeSurfaceNotFound,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeSurfaceNotFound, "desk"),
			code:     ErrCodeDegenerateGeometry,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeInvalidScene, New(ErrCodeInvalidKind, "inner"), "outer"),
			code:     ErrCodeInvalidScene,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	err := New(ErrCodeSingularSystem, "gram determinant %g", 1e-12)
	if GetCode(err) != ErrCodeSingularSystem {
		t.Errorf("GetCode() = %v", GetCode(err))
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode(plain) should be empty")
	}
	if got := UserMessage(err); got != "gram determinant 1e-12" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidScene, http.StatusBadRequest},
		{ErrCodeDegenerateGeometry, http.StatusUnprocessableEntity},
		{ErrCodeSurfaceNotFound, http.StatusNotFound},
		{ErrCodeUnsupported, http.StatusNotImplemented},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatus(New(tt.code, "x")); got != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidConfig,
		ErrCodeInvalidScene,
		ErrCodeInvalidKind,
		ErrCodeInvalidID,
		ErrCodeInvalidPath,
		ErrCodeDegenerateGeometry,
		ErrCodeSingularSystem,
		ErrCodeNotFound,
		ErrCodeSurfaceNotFound,
		ErrCodeObjectNotFound,
		ErrCodeFileNotFound,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}

package transcription

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestError_Error_WithoutCause(t *testing.T) {
	err := NetworkError("connection reset")
	if err.Error() != "network: connection reset" {
		t.Errorf("unexpected error string: %q", err.Error())
	}
}

func TestError_Error_WithCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := NetworkError("request failed").WithCause(cause)
	if err.Error() != "network: request failed (cause: dial tcp: connection refused)" {
		t.Errorf("unexpected error string: %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to match the wrapped cause")
	}
}

func TestError_Retryable(t *testing.T) {
	cases := []struct {
		kind      ErrorKind
		retryable bool
	}{
		{KindAuthentication, false},
		{KindRateLimited, true},
		{KindNetwork, true},
		{KindInvalidResponse, false},
		{KindProvider, false},
	}
	for _, tc := range cases {
		err := &Error{Kind: tc.kind, Message: "x"}
		if err.Retryable() != tc.retryable {
			t.Errorf("kind %s: expected retryable=%v", tc.kind, tc.retryable)
		}
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if kind := KindOf(fmt.Errorf("boom")); kind != KindProvider {
		t.Errorf("expected plain errors to map to provider, got %s", kind)
	}
}

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", RateLimitedError("slow down"))
	if kind := KindOf(err); kind != KindRateLimited {
		t.Errorf("expected rate_limited through wrapping, got %s", kind)
	}
}

func TestAsError_Match(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", AuthenticationError("Token invalid"))
	terr, ok := AsError(wrapped)
	if !ok {
		t.Fatal("expected AsError to match")
	}
	if terr.Kind != KindAuthentication {
		t.Errorf("expected authentication kind, got %s", terr.Kind)
	}
	if terr.Message != "Token invalid" {
		t.Errorf("expected message preserved, got %q", terr.Message)
	}
}

func TestAsError_NoMatch(t *testing.T) {
	if _, ok := AsError(fmt.Errorf("boom")); ok {
		t.Error("expected no match for a plain error")
	}
}

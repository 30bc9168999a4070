// SPDX-License-Identifier: Apache-2.0
package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("connection refused")
	ve := New(CodeNetwork, "request failed", cause)

	if ve.Code != CodeNetwork {
		t.Errorf("expected CodeNetwork, got %v", ve.Code)
	}
	if ve.Message != "request failed" {
		t.Errorf("expected message 'request failed', got %q", ve.Message)
	}
	if ve.Err != cause {
		t.Errorf("expected cause to be preserved")
	}
	if !errors.Is(ve, cause) {
		t.Errorf("expected errors.Is to work with wrapped error")
	}
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{CodeAuth, 401},
		{CodeNotFound, 404},
		{CodeInvalidInput, 400},
		{CodeRateLimit, 429},
		{CodeServer, 500},
		{CodeNetwork, 500},
		{CodeInternal, 500},
	}
	for _, tt := range tests {
		ve := New(tt.code, "x", nil)
		if ve.StatusCode != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.code, tt.status, ve.StatusCode)
		}
	}
}

func TestRecoverableDefaults(t *testing.T) {
	if !New(CodeNetwork, "x", nil).Recoverable {
		t.Errorf("network errors should default to recoverable")
	}
	if New(CodeAuth, "x", nil).Recoverable {
		t.Errorf("auth errors should not default to recoverable")
	}
	ve := New(CodeAuth, "x", nil).WithRecoverable(true)
	if !ve.Recoverable {
		t.Errorf("expected recoverable after WithRecoverable")
	}
}

func TestWithRedirect(t *testing.T) {
	ve := New(CodeAuth, "session expired", nil)
	if ve.Redirect {
		t.Errorf("redirect should be false by default")
	}
	ve.WithRedirect()
	if !ve.Redirect {
		t.Errorf("expected redirect flag after WithRedirect")
	}
}

func TestWithContext(t *testing.T) {
	ve := New(CodeServer, "update failed", nil)
	ve.WithContext("environment_id", "env-1").
		WithContext("status", 422)

	if ve.Context["environment_id"] != "env-1" {
		t.Errorf("expected context environment_id to be 'env-1'")
	}
	if ve.Context["status"] != 422 {
		t.Errorf("expected context status to be set")
	}
}

func TestAsVibeError(t *testing.T) {
	if AsVibeError(nil) != nil {
		t.Errorf("expected nil for nil error")
	}

	ve := New(CodeAuth, "unauthorized", nil)
	if got := AsVibeError(ve); got != ve {
		t.Errorf("expected same error back")
	}

	plain := errors.New("boom")
	wrapped := AsVibeError(plain)
	if wrapped.Code != CodeInternal {
		t.Errorf("expected plain errors wrapped as internal, got %v", wrapped.Code)
	}
	if !errors.Is(wrapped, plain) {
		t.Errorf("expected cause preserved when wrapping")
	}
}

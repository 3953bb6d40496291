package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
}

func TestAppError_NotFound_Success(t *testing.T) {
	err := NotFound("node", "encoder")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", err.Code)
	}
	if err.Details["resource"] != "node" {
		t.Errorf("expected resource=node, got %v", err.Details["resource"])
	}
	if err.Details["id"] != "encoder" {
		t.Errorf("expected id=encoder, got %v", err.Details["id"])
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("node", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_Internal_Success(t *testing.T) {
	cause := fmt.Errorf("worker panicked")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestAppError_UnexpectedMessage(t *testing.T) {
	err := UnexpectedMessage("reassembler", 42)
	if err.Code != ErrCodeUnexpectedMessage {
		t.Errorf("expected UNEXPECTED_MESSAGE, got %s", err.Code)
	}
	if err.Details["type"] != "int" {
		t.Errorf("expected type=int, got %v", err.Details["type"])
	}
	if !strings.Contains(err.Error(), "reassembler") {
		t.Errorf("expected node name in message, got %q", err.Error())
	}
	if !IsStructuralCode(err.Code) {
		t.Error("unexpected message should be structural")
	}
}

func TestAppError_CycleDetected(t *testing.T) {
	err := CycleDetected(1, 3)
	if err.Details["visited"] != 1 || err.Details["total"] != 3 {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := InvalidConfig("pipeline.queue_capacity", "must be positive")
	if got := err.Error(); got != "INVALID_CONFIG: Invalid configuration: must be positive" {
		t.Errorf("unexpected error string %q", got)
	}
	err.WithCause(fmt.Errorf("zero"))
	if !strings.Contains(err.Error(), "(cause: zero)") {
		t.Errorf("expected cause in error string, got %q", err.Error())
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := InvalidInput("pairs.txt", "bad line").
		WithDetail("line", 3).
		WithDetails(map[string]any{"content": "a b c"})
	if err.Details["source"] != "pairs.txt" || err.Details["line"] != 3 || err.Details["content"] != "a b c" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestIsAndHasCode(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", QueueClosed())
	if !IsAppError(wrapped) {
		t.Fatal("expected wrapped AppError to be detected")
	}
	if !HasCode(wrapped, ErrCodeQueueClosed) {
		t.Error("expected QUEUE_CLOSED code")
	}
	if HasCode(wrapped, ErrCodeNotFound) {
		t.Error("did not expect NOT_FOUND code")
	}
	if !stderrors.Is(wrapped, &AppError{Code: ErrCodeQueueClosed}) {
		t.Error("expected errors.Is to match by code")
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("plain error is not an AppError")
	}
	if IsStructuralCode(ErrCodeInvalidConfig) {
		t.Error("config errors are not structural")
	}
}

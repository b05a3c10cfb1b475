package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(Validationf("bad input")); got != KindValidation {
		t.Errorf("expected KindValidation, got %v", got)
	}
	if got := KindOf(Conflictf("state changed")); got != KindConflict {
		t.Errorf("expected KindConflict, got %v", got)
	}
	if got := KindOf(CapacityExhausted(7)); got != KindCapacityExhausted {
		t.Errorf("expected KindCapacityExhausted, got %v", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("plain error should be KindInternal, got %v", got)
	}
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("decide failed: %w", CapacityExhausted(3))
	if !Is(wrapped, KindCapacityExhausted) {
		t.Error("wrapped capacity error should keep its kind")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validationf("x"), http.StatusBadRequest},
		{Conflictf("x"), http.StatusConflict},
		{CapacityExhausted(1), http.StatusConflict},
		{Authorizationf("not permitted"), http.StatusForbidden},
		{NotFoundf("x"), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCapacityExhaustedMessage(t *testing.T) {
	err := CapacityExhausted(42)
	if err.Error() != "scholarship 42 has no available slots" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindAndCode(t *testing.T) {
	err := Conflict(CodeSlotFull, "slot %s is full", "09:00:00")
	if !IsConflict(err) {
		t.Error("expected conflict kind")
	}
	if CodeOf(err) != CodeSlotFull {
		t.Errorf("expected SLOT_FULL, got %s", CodeOf(err))
	}
}

func TestWrappedErrorsKeepTaxonomy(t *testing.T) {
	inner := NotFound(CodeDoctorNotFound, "doctor does not exist")
	wrapped := fmt.Errorf("check availability: %w", inner)
	if !IsNotFound(wrapped) {
		t.Error("expected not-found kind through wrapping")
	}
	if CodeOf(wrapped) != CodeDoctorNotFound {
		t.Errorf("expected DOCTOR_NOT_FOUND, got %s", CodeOf(wrapped))
	}
}

func TestUnavailableUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable(cause, "acquire connection")
	if !errors.Is(err, cause) {
		t.Error("expected cause to unwrap")
	}
	if !IsUnavailable(err) {
		t.Error("expected unavailable kind")
	}
}

func TestUntaggedError(t *testing.T) {
	err := errors.New("plain")
	if KindOf(err) != 0 {
		t.Error("expected zero kind for untagged error")
	}
	if CodeOf(err) != "" {
		t.Error("expected empty code for untagged error")
	}
}

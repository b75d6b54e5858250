package domain_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

func TestValidationError(t *testing.T) {
	err := &domain.ValidationError{Field: "mensaje", Message: "a return message is required"}
	if !strings.Contains(err.Error(), "mensaje") {
		t.Errorf("error message should contain the field, got: %q", err.Error())
	}

	bare := &domain.ValidationError{Message: "all required fields must be filled in"}
	if strings.HasPrefix(bare.Error(), ":") {
		t.Errorf("field-less error should not have a leading separator, got: %q", bare.Error())
	}
}

func TestInvalidStateTransitionError(t *testing.T) {
	err := &domain.InvalidStateTransitionError{TaskID: 42, From: domain.StatusCancelled, Action: "aprobar"}
	msg := err.Error()
	for _, want := range []string{"42", "cancelada", "aprobar"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message should contain %q, got: %q", want, msg)
		}
	}
}

func TestNotFoundError(t *testing.T) {
	err := &domain.NotFoundError{Kind: "tarea", ID: 99}
	if !strings.Contains(err.Error(), "tarea 99") {
		t.Errorf("error message should name the missing record, got: %q", err.Error())
	}
}

func TestRequestFailure_FallbackMessage(t *testing.T) {
	err := &domain.RequestFailure{StatusCode: 500}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("fallback message should carry the status code, got: %q", err.Error())
	}

	withMsg := &domain.RequestFailure{StatusCode: 400, Message: "el valor del servicio es requerido"}
	if withMsg.Error() != "el valor del servicio es requerido" {
		t.Errorf("server-provided message should surface verbatim, got: %q", withMsg.Error())
	}
}

func TestVersionConflictError(t *testing.T) {
	err := &domain.VersionConflictError{TaskID: 5, Version: 3}
	if !strings.Contains(err.Error(), "stale") {
		t.Errorf("error message should mention staleness, got: %q", err.Error())
	}
}

func TestErrorsMatchWithAs(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", &domain.InvalidStateTransitionError{TaskID: 1, From: domain.StatusApproved, Action: "aprobar"})

	var ist *domain.InvalidStateTransitionError
	if !errors.As(wrapped, &ist) {
		t.Fatal("errors.As should unwrap InvalidStateTransitionError")
	}
	if ist.From != domain.StatusApproved {
		t.Errorf("From = %q, want aprobada", ist.From)
	}
}

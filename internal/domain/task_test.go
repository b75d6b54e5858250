package domain_test

import (
	"testing"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

func TestStatusConstants(t *testing.T) {
	tests := []struct {
		status domain.Status
		want   string
	}{
		{domain.StatusPending, "pendiente"},
		{domain.StatusAssigned, "asignada"},
		{domain.StatusCompleted, "completada"},
		{domain.StatusApproved, "aprobada"},
		{domain.StatusCancelled, "cancelada"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if string(tt.status) != tt.want {
				t.Errorf("Status value = %q, want %q", tt.status, tt.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []domain.Status{domain.StatusApproved, domain.StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("IsTerminal(%q) = false, want true", s)
		}
	}
	for _, s := range []domain.Status{domain.StatusPending, domain.StatusAssigned, domain.StatusCompleted} {
		if s.IsTerminal() {
			t.Errorf("IsTerminal(%q) = true, want false", s)
		}
	}
}

func TestTask_Returned(t *testing.T) {
	task := domain.Task{Status: domain.StatusCompleted}
	if task.Returned() {
		t.Error("completed task without rejection message should not be returned")
	}
	task.RejectionMessage = "falta foto"
	if !task.Returned() {
		t.Error("completed task with rejection message should be returned")
	}
	task.Status = domain.StatusAssigned
	if task.Returned() {
		t.Error("non-completed task can never be returned")
	}
}

func TestTask_HasWorker(t *testing.T) {
	task := domain.Task{Workers: []domain.WorkerAssignment{{WorkerID: 7}, {WorkerID: 9}}}
	if !task.HasWorker(9) {
		t.Error("HasWorker(9) = false, want true")
	}
	if task.HasWorker(3) {
		t.Error("HasWorker(3) = true, want false")
	}
}

func TestTask_Validate_ApprovalIffApproved(t *testing.T) {
	task := domain.Task{Status: domain.StatusCompleted, Approval: &domain.ApprovalRecord{}}
	if err := task.Validate(); err == nil {
		t.Error("approval record on non-approved task should be invalid")
	}

	task = domain.Task{Status: domain.StatusApproved}
	if err := task.Validate(); err == nil {
		t.Error("approved task without approval record should be invalid")
	}

	task = domain.Task{Status: domain.StatusApproved, Approval: &domain.ApprovalRecord{}}
	if err := task.Validate(); err != nil {
		t.Errorf("approved task with approval record should be valid, got %v", err)
	}
}

func TestTask_Validate_UnknownStatus(t *testing.T) {
	task := domain.Task{Status: "en_progreso"}
	if err := task.Validate(); err == nil {
		t.Error("unknown status should be invalid")
	}
}

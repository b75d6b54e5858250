// Package lifecycle is the task state machine: given a task and an attempted
// action it decides legality and produces the next state.
//
// Every function is pure — tasks go in and come out by value, nothing here
// touches storage or session state. The same code drives UI gating in the
// client SDK (AllowedActions) and the authoritative checks in the API
// service, so client and server cannot drift on what is legal.
package lifecycle

import (
	"time"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/hours"
)

// Action names a state-machine transition. Values double as wire/metric labels.
type Action string

const (
	ActionAssign   Action = "asignar"
	ActionUnassign Action = "desasignar"
	ActionSetHours Action = "horas"
	ActionComplete Action = "completar"
	ActionApprove  Action = "aprobar"
	ActionReturn   Action = "devolver"
	ActionCancel   Action = "cancelar"
	ActionMarkPaid Action = "marcar_pagado"
)

// Actor is whoever attempts an action. Admin gates the approval-side
// transitions; ID is matched against assignments for worker actions.
type Actor struct {
	ID    int
	Name  string
	Admin bool
}

// WorkerHours is one admin-entered final hour value for approval.
type WorkerHours struct {
	WorkerID int     `json:"trabajador_id"`
	Hours    float64 `json:"horas"`
}

// clone returns a deep-enough copy of t so transitions never alias the
// caller's slices or approval record.
func clone(t domain.Task) domain.Task {
	out := t
	out.Workers = make([]domain.WorkerAssignment, len(t.Workers))
	copy(out.Workers, t.Workers)
	if t.Approval != nil {
		rec := *t.Approval
		out.Approval = &rec
	}
	return out
}

func invalid(t *domain.Task, a Action) error {
	return &domain.InvalidStateTransitionError{TaskID: t.ID, From: t.Status, Action: string(a)}
}

// Assign adds a worker to a task. Legal while the task is not terminal;
// a pending task becomes asignada once it has at least one worker. The
// assigned hours, when present, must fit the task's estimated-hours cap.
func Assign(t domain.Task, w domain.WorkerAssignment) (domain.Task, error) {
	if t.Status.IsTerminal() {
		return t, invalid(&t, ActionAssign)
	}
	if t.HasWorker(w.WorkerID) {
		return t, &domain.ValidationError{Field: "trabajador_id", Message: "worker already assigned to this task"}
	}
	if w.AssignedHours != nil && !hours.WithinCap(*w.AssignedHours, t.EstimatedHours) {
		return t, &domain.ValidationError{
			Field:   "horas_asignadas",
			Message: "assigned hours exceed the task's estimated hours (" + hours.DecimalToTime(t.EstimatedHours) + ")",
		}
	}

	next := clone(t)
	w.ApprovedHours = nil // approval is the only writer of approved hours
	next.Workers = append(next.Workers, w)
	if next.Status == domain.StatusPending {
		next.Status = domain.StatusAssigned
	}
	return next, nil
}

// Unassign removes a worker. Fails on terminal tasks and on workers whose
// hours are already locked into an approval record. A task left with zero
// workers falls back to pendiente.
func Unassign(t domain.Task, workerID int) (domain.Task, error) {
	if t.Status.IsTerminal() {
		return t, invalid(&t, ActionUnassign)
	}
	w := t.WorkerByID(workerID)
	if w == nil {
		return t, &domain.NotFoundError{Kind: "trabajador", ID: workerID}
	}
	if w.ApprovedHours != nil {
		return t, &domain.ValidationError{
			Field:   "trabajador_id",
			Message: "worker hours are locked by an approval record",
		}
	}

	next := clone(t)
	kept := next.Workers[:0]
	for _, wa := range next.Workers {
		if wa.WorkerID != workerID {
			kept = append(kept, wa)
		}
	}
	next.Workers = kept
	if len(next.Workers) == 0 {
		next.Status = domain.StatusPending
	}
	return next, nil
}

// SetHours updates a worker's assigned hours on a live task. Approved hours
// are untouchable; the new value must fit the estimated-hours cap.
func SetHours(t domain.Task, workerID int, h float64) (domain.Task, error) {
	if t.Status.IsTerminal() {
		return t, invalid(&t, ActionSetHours)
	}
	w := t.WorkerByID(workerID)
	if w == nil {
		return t, &domain.NotFoundError{Kind: "trabajador", ID: workerID}
	}
	if w.ApprovedHours != nil {
		return t, &domain.ValidationError{
			Field:   "horas_asignadas",
			Message: "worker hours are locked by an approval record",
		}
	}
	if h < 0 {
		return t, &domain.ValidationError{Field: "horas_asignadas", Message: "hours cannot be negative"}
	}
	if !hours.WithinCap(h, t.EstimatedHours) {
		return t, &domain.ValidationError{
			Field:   "horas_asignadas",
			Message: "assigned hours exceed the task's estimated hours (" + hours.DecimalToTime(t.EstimatedHours) + ")",
		}
	}

	next := clone(t)
	for i := range next.Workers {
		if next.Workers[i].WorkerID == workerID {
			v := h
			next.Workers[i].AssignedHours = &v
		}
	}
	return next, nil
}

// Complete marks the work done. Legal from asignada, and again from
// completada when the task was returned (mensaje_rechazo set) — that second
// path is the worker re-submitting after correction, which clears the flag.
// Only assigned workers may complete.
func Complete(t domain.Task, workerID int, comments string) (domain.Task, error) {
	resubmit := t.Returned()
	if t.Status != domain.StatusAssigned && !resubmit {
		return t, invalid(&t, ActionComplete)
	}
	if !t.HasWorker(workerID) {
		return t, &domain.ValidationError{Field: "trabajador_id", Message: "worker is not assigned to this task"}
	}

	next := clone(t)
	next.Status = domain.StatusCompleted
	next.RejectionMessage = ""
	if comments != "" {
		next.Comments = comments
	}
	return next, nil
}

// Approve is the single point where ephemeral hour entries become an
// immutable accounting record. Legal only for an admin, on a completada task
// awaiting first review (no rejection message pending).
//
// Final hours per worker resolve as: explicit entry → assigned hours → even
// split of the estimate. Every final value must fit the estimated-hours cap.
func Approve(t domain.Task, actor Actor, notes string, entries []WorkerHours, now time.Time) (domain.Task, error) {
	if t.Status != domain.StatusCompleted || t.Returned() {
		return t, invalid(&t, ActionApprove)
	}
	if !actor.Admin {
		return t, &domain.ValidationError{Field: "admin_id", Message: "only an admin can approve a task"}
	}
	if len(t.Workers) == 0 {
		return t, &domain.ValidationError{Field: "trabajadores", Message: "cannot approve a task with no workers"}
	}

	entered := make(map[int]float64, len(entries))
	for _, e := range entries {
		entered[e.WorkerID] = e.Hours
	}

	next := clone(t)
	var total float64
	for i := range next.Workers {
		w := &next.Workers[i]
		final, ok := entered[w.WorkerID]
		if !ok {
			final = hours.Resolve(w.ApprovedHours, w.AssignedHours, next.EstimatedHours, len(next.Workers))
		}
		if final < 0 {
			return t, &domain.ValidationError{Field: "horas", Message: "hours cannot be negative"}
		}
		if !hours.WithinCap(final, next.EstimatedHours) {
			return t, &domain.ValidationError{
				Field:   "horas",
				Message: "hours for worker " + w.WorkerName + " exceed the estimate (" + hours.DecimalToTime(next.EstimatedHours) + ")",
			}
		}
		h := final
		w.ApprovedHours = &h
		total += final
	}

	next.Status = domain.StatusApproved
	next.Approval = &domain.ApprovalRecord{
		ApprovedBy:       actor.ID,
		ApprovedByName:   actor.Name,
		ApprovedAt:       now,
		Notes:            notes,
		PayrollMonth:     int(now.Month()),
		PayrollYear:      now.Year(),
		TotalWorkedHours: total,
		WorkerCount:      len(next.Workers),
		PaymentStatus:    domain.PaymentPending,
	}
	return next, nil
}

// Return sends a completed task back to its workers with a mandatory
// message. The task stays completada; the message is what distinguishes
// "awaiting re-completion" from "awaiting first review".
func Return(t domain.Task, actor Actor, message string) (domain.Task, error) {
	if t.Status != domain.StatusCompleted || t.Returned() {
		return t, invalid(&t, ActionReturn)
	}
	if !actor.Admin {
		return t, &domain.ValidationError{Field: "admin_id", Message: "only an admin can return a task"}
	}
	if message == "" {
		return t, &domain.ValidationError{Field: "mensaje", Message: "a return message is required"}
	}

	next := clone(t)
	next.RejectionMessage = message
	return next, nil
}

// Cancel irreversibly terminates a non-terminal, not-yet-completed task.
func Cancel(t domain.Task) (domain.Task, error) {
	if t.Status.IsTerminal() || t.Status == domain.StatusCompleted {
		return t, invalid(&t, ActionCancel)
	}
	next := clone(t)
	next.Status = domain.StatusCancelled
	return next, nil
}

// MarkPaid updates the payment sub-fields of an approved task. It is the
// only mutation allowed after approval, and only while payment is pending.
func MarkPaid(t domain.Task, reference string, now time.Time) (domain.Task, error) {
	if t.Status != domain.StatusApproved || t.Approval == nil || t.Approval.PaymentStatus != domain.PaymentPending {
		return t, invalid(&t, ActionMarkPaid)
	}

	next := clone(t)
	next.Approval.PaymentStatus = domain.PaymentPaid
	paid := now
	next.Approval.PaidAt = &paid
	if reference != "" {
		next.Approval.PaymentReference = reference
	}
	return next, nil
}

// AllowedActions lists the actions the actor may currently attempt, in the
// order screens render them. The backend re-checks each one on submission;
// this is advisory gating.
func AllowedActions(t *domain.Task, actor Actor) []Action {
	var out []Action
	switch t.Status {
	case domain.StatusPending, domain.StatusAssigned:
		if actor.Admin {
			out = append(out, ActionAssign)
			if len(t.Workers) > 0 {
				out = append(out, ActionUnassign, ActionSetHours)
			}
			out = append(out, ActionCancel)
		}
		if t.Status == domain.StatusAssigned && t.HasWorker(actor.ID) {
			out = append(out, ActionComplete)
		}
	case domain.StatusCompleted:
		if t.Returned() {
			if t.HasWorker(actor.ID) {
				out = append(out, ActionComplete)
			}
		} else if actor.Admin {
			out = append(out, ActionApprove, ActionReturn)
		}
	case domain.StatusApproved:
		if actor.Admin && t.Approval != nil && t.Approval.PaymentStatus == domain.PaymentPending {
			out = append(out, ActionMarkPaid)
		}
	}
	return out
}

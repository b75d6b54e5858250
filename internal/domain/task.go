package domain

import "time"

// Status represents the states a task (tarea) can be in. The wire values are
// the Spanish names the REST contract uses.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusAssigned  Status = "asignada"
	StatusCompleted Status = "completada"
	StatusApproved  Status = "aprobada"
	StatusCancelled Status = "cancelada"
)

// IsTerminal returns true if no further state transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

// Valid reports whether s is one of the five known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusCompleted, StatusApproved, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment sub-state of an approval record.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pendiente"
	PaymentPaid    PaymentStatus = "pagado"
)

// WorkerAssignment is the (worker, task) relation carrying effort data.
// Hours pointers are nil when not recorded; approved hours are only set by
// the approval transition.
type WorkerAssignment struct {
	WorkerID      int      `json:"trabajador_id"`
	WorkerName    string   `json:"nombre,omitempty"`
	AssignedHours *float64 `json:"horas_asignadas,omitempty"`
	ApprovedHours *float64 `json:"horas_aprobadas,omitempty"`
}

// ApprovalRecord is the immutable accounting record created when a task is
// approved. Only the payment sub-fields (estado_pago, fecha_pago,
// referencia_pago) may change after creation.
type ApprovalRecord struct {
	ApprovedBy       int           `json:"aprobado_por"`
	ApprovedByName   string        `json:"aprobado_por_nombre,omitempty"`
	ApprovedAt       time.Time     `json:"fecha_aprobacion"`
	Notes            string        `json:"notas_aprobacion,omitempty"`
	PayrollMonth     int           `json:"mes_nomina"`
	PayrollYear      int           `json:"anio_nomina"`
	TotalWorkedHours float64       `json:"total_horas_trabajadas"`
	WorkerCount      int           `json:"numero_trabajadores"`
	PaymentStatus    PaymentStatus `json:"estado_pago"`
	PaidAt           *time.Time    `json:"fecha_pago,omitempty"`
	PaymentReference string        `json:"referencia_pago,omitempty"`
}

// Task is the core domain entity: a unit of scheduled cleaning work.
//
// Version is the optimistic-concurrency stamp: every persisted mutation
// compares and increments it, so two racing edits cannot both win.
type Task struct {
	ID               int                `json:"id"`
	ClientID         int                `json:"cliente_id"`
	AddressID        int                `json:"direccion_id"`
	Date             string             `json:"fecha_realizacion"`
	Description      string             `json:"descripcion_general"`
	Details          string             `json:"detalles_especificos,omitempty"`
	EstimatedHours   float64            `json:"numero_horas,omitempty"`
	ServiceValue     float64            `json:"valor_servicio"`
	Status           Status             `json:"estado"`
	Workers          []WorkerAssignment `json:"trabajadores"`
	RejectionMessage string             `json:"mensaje_rechazo,omitempty"`
	Comments         string             `json:"comentarios,omitempty"`
	Approval         *ApprovalRecord    `json:"registro_aprobacion,omitempty"`
	Version          int                `json:"version"`
	CreatedAt        time.Time          `json:"created_at,omitempty"`
	UpdatedAt        time.Time          `json:"updated_at,omitempty"`
}

// HasWorker reports whether the given worker is assigned to the task.
func (t *Task) HasWorker(workerID int) bool {
	for _, w := range t.Workers {
		if w.WorkerID == workerID {
			return true
		}
	}
	return false
}

// WorkerByID returns the assignment for workerID, or nil.
func (t *Task) WorkerByID(workerID int) *WorkerAssignment {
	for i := range t.Workers {
		if t.Workers[i].WorkerID == workerID {
			return &t.Workers[i]
		}
	}
	return nil
}

// Returned reports whether the task was sent back for correction: it stays
// in "completada" but carries a rejection message.
func (t *Task) Returned() bool {
	return t.Status == StatusCompleted && t.RejectionMessage != ""
}

// Validate checks the structural invariants a well-formed task must hold.
// An approval record exists if and only if the task is approved.
func (t *Task) Validate() error {
	if !t.Status.Valid() {
		return &ValidationError{Field: "estado", Message: "unknown status " + string(t.Status)}
	}
	if (t.Approval != nil) != (t.Status == StatusApproved) {
		return &ValidationError{
			Field:   "registro_aprobacion",
			Message: "approval record must exist exactly when estado is aprobada",
		}
	}
	if t.EstimatedHours < 0 {
		return &ValidationError{Field: "numero_horas", Message: "estimated hours cannot be negative"}
	}
	if t.ServiceValue < 0 {
		return &ValidationError{Field: "valor_servicio", Message: "service value cannot be negative"}
	}
	return nil
}

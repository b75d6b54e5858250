package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/forms"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/hours"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/lifecycle"
)

// Task is a task as served by the API, with the actions the authenticated
// user may perform on it. Use AllowedActions for UI gating instead of
// re-deriving legality client-side.
type Task struct {
	domain.Task
	AllowedActions []lifecycle.Action `json:"acciones_permitidas"`
}

// Tasks lists tasks, optionally filtered by state. Workers get their own
// assignments regardless of the filter; admins get everything.
func (c *Client) Tasks(ctx context.Context, status domain.Status) ([]*Task, error) {
	path := "/api/v1/tareas"
	if status != "" {
		path += "?estado=" + url.QueryEscape(string(status))
	}
	var out []*Task
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Task fetches one task by id.
func (c *Client) Task(ctx context.Context, id int) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/tareas/%d", id), nil, &out); err != nil {
		return nil, notFoundAs(err, "tarea", id)
	}
	return &out, nil
}

type taskPayload struct {
	ClientID       int     `json:"cliente_id"`
	AddressID      int     `json:"direccion_id"`
	Date           string  `json:"fecha_realizacion"`
	Description    string  `json:"descripcion_general"`
	Details        string  `json:"detalles_especificos"`
	EstimatedHours float64 `json:"numero_horas"`
	ServiceValue   float64 `json:"valor_servicio"`
	Comments       string  `json:"comentarios,omitempty"`
}

func payloadFrom(form forms.TaskForm) taskPayload {
	return taskPayload{
		ClientID:       form.ClientID,
		AddressID:      form.AddressID,
		Date:           form.Date,
		Description:    strings.TrimSpace(form.Description),
		Details:        strings.TrimSpace(form.Details),
		EstimatedHours: hours.TimeToDecimal(form.EstimatedHoursText),
		ServiceValue:   form.ServiceValue,
	}
}

// CreateTask validates the form, creates the task, then assigns each filled
// worker row. Validation failures never reach the network; an assignment
// error after creation surfaces with the task already created server-side.
func (c *Client) CreateTask(ctx context.Context, form forms.TaskForm) (*Task, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var created Task
	if err := c.do(ctx, http.MethodPost, "/api/v1/tareas", payloadFrom(form), &created); err != nil {
		return nil, err
	}

	out := &created
	for _, w := range form.Workers {
		var err error
		out, err = c.AssignWorker(ctx, created.ID, w)
		if err != nil {
			return nil, fmt.Errorf("task %d created but assigning %s failed: %w", created.ID, w.WorkerName, err)
		}
	}
	return out, nil
}

// UpdateTask validates the form and replaces the task's editable fields.
func (c *Client) UpdateTask(ctx context.Context, id int, form forms.TaskForm, comments string) (*Task, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	body := payloadFrom(form)
	body.Comments = comments

	var out Task
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/tareas/%d", id), body, &out); err != nil {
		return nil, notFoundAs(err, "tarea", id)
	}
	return &out, nil
}

type assignPayload struct {
	WorkerID int      `json:"trabajador_id"`
	Hours    *float64 `json:"horas_asignadas,omitempty"`
}

// AssignWorker adds a worker to the task. The entry's hours text may be
// empty ("hours to be confirmed") or "H:MM".
func (c *Client) AssignWorker(ctx context.Context, taskID int, entry forms.WorkerEntry) (*Task, error) {
	if !hours.IsValidTimeFormat(entry.HoursText) {
		return nil, &domain.ValidationError{Field: "horas_asignadas", Message: "invalid time format, use H:MM"}
	}
	body := assignPayload{WorkerID: entry.WorkerID}
	if entry.HoursText != "" {
		h := hours.TimeToDecimal(entry.HoursText)
		body.Hours = &h
	}

	var out Task
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/tareas/%d/asignar", taskID), body, &out); err != nil {
		return nil, notFoundAs(err, "tarea", taskID)
	}
	return &out, nil
}

// UnassignWorker removes a worker from the task.
func (c *Client) UnassignWorker(ctx context.Context, taskID, workerID int) (*Task, error) {
	body := map[string]int{"trabajador_id": workerID}
	var out Task
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/tareas/%d/desasignar", taskID), body, &out); err != nil {
		return nil, notFoundAs(err, "tarea", taskID)
	}
	return &out, nil
}

type setHoursPayload struct {
	WorkerID int     `json:"trabajador_id"`
	Hours    float64 `json:"horas"`
}

// SetWorkerHours updates one worker's assigned hours from "H:MM" text.
func (c *Client) SetWorkerHours(ctx context.Context, taskID, workerID int, hoursText string) (*Task, error) {
	if hoursText == "" || !hours.IsValidTimeFormat(hoursText) {
		return nil, &domain.ValidationError{Field: "horas", Message: "invalid time format, use H:MM"}
	}
	body := setHoursPayload{WorkerID: workerID, Hours: hours.TimeToDecimal(hoursText)}

	var out Task
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/tareas/%d/horas", taskID), body, &out); err != nil {
		return nil, notFoundAs(err, "tarea", taskID)
	}
	return &out, nil
}

// CompleteTask marks the authenticated worker's task as done.
func (c *Client) CompleteTask(ctx context.Context, taskID int, comments string) (*Task, error) {
	body := map[string]string{"comentarios": comments}
	var out Task
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/tareas/%d/completar", taskID), body, &out); err != nil {
		return nil, notFoundAs(err, "tarea", taskID)
	}
	return &out, nil
}

type approvePayload struct {
	Notes string                  `json:"notas_aprobacion"`
	Hours []lifecycle.WorkerHours `json:"horas"`
}

// ApproveTask approves a completed task with the final per-worker hours,
// given as "H:MM" text per worker row.
func (c *Client) ApproveTask(ctx context.Context, taskID int, notes string, entries []forms.WorkerEntry) (*Task, error) {
	body := approvePayload{Notes: notes}
	for _, e := range entries {
		if e.HoursText == "" || !hours.IsValidTimeFormat(e.HoursText) {
			return nil, &domain.ValidationError{Field: "horas", Message: "invalid time format for " + e.WorkerName}
		}
		body.Hours = append(body.Hours, lifecycle.WorkerHours{
			WorkerID: e.WorkerID,
			Hours:    hours.TimeToDecimal(e.HoursText),
		})
	}

	var out Task
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/tareas/%d/aprobar", taskID), body, &out); err != nil {
		return nil, notFoundAs(err, "tarea", taskID)
	}
	return &out, nil
}

// ReturnTask sends a completed task back to the worker with a reason.
func (c *Client) ReturnTask(ctx context.Context, taskID int, message string) (*Task, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &domain.ValidationError{Field: "mensaje", Message: "a return reason is required"}
	}
	body := map[string]string{"mensaje": message}
	var out Task
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/tareas/%d/devolver", taskID), body, &out); err != nil {
		return nil, notFoundAs(err, "tarea", taskID)
	}
	return &out, nil
}

// CancelTask cancels a task that is not yet approved.
func (c *Client) CancelTask(ctx context.Context, taskID int) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/tareas/%d/cancelar", taskID), nil, &out); err != nil {
		return nil, notFoundAs(err, "tarea", taskID)
	}
	return &out, nil
}

// MarkPaid records payment of an approved task.
func (c *Client) MarkPaid(ctx context.Context, taskID int, reference string) (*Task, error) {
	body := map[string]string{"referencia_pago": reference}
	var out Task
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/tareas/%d/marcar-pagado", taskID), body, &out); err != nil {
		return nil, notFoundAs(err, "tarea", taskID)
	}
	return &out, nil
}

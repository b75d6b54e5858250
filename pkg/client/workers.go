package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

type createWorkerPayload struct {
	Username     string `json:"usuario"`
	Password     string `json:"password"`
	Name         string `json:"nombre"`
	Description  string `json:"descripcion"`
	ProfilePhoto string `json:"foto_perfil"`
}

// CreateWorker registers a worker account.
func (c *Client) CreateWorker(ctx context.Context, username, password, name, description, photo string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(name) == "" {
		return nil, &domain.ValidationError{Message: "username and name are required"}
	}
	if len(password) < 8 {
		return nil, &domain.ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}

	var out domain.User
	body := createWorkerPayload{username, password, name, description, photo}
	if err := c.do(ctx, http.MethodPost, "/api/v1/trabajadores", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Workers lists active workers; includeInactive adds deactivated accounts.
func (c *Client) Workers(ctx context.Context, includeInactive bool) ([]*domain.User, error) {
	path := "/api/v1/trabajadores"
	if includeInactive {
		path += "?todos=true"
	}
	var out []*domain.User
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Worker fetches one worker by id.
func (c *Client) Worker(ctx context.Context, id int) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/trabajadores/%d", id), nil, &out); err != nil {
		return nil, notFoundAs(err, "usuario", id)
	}
	return &out, nil
}

type updateWorkerPayload struct {
	Name         string `json:"nombre"`
	Description  string `json:"descripcion"`
	ProfilePhoto string `json:"foto_perfil"`
	Active       *bool  `json:"activo,omitempty"`
}

// UpdateWorker replaces a worker's profile fields. Active is left unchanged
// when nil.
func (c *Client) UpdateWorker(ctx context.Context, id int, name, description, photo string, active *bool) (*domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &domain.ValidationError{Field: "nombre", Message: "name is required"}
	}
	var out domain.User
	body := updateWorkerPayload{name, description, photo, active}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/trabajadores/%d", id), body, &out); err != nil {
		return nil, notFoundAs(err, "usuario", id)
	}
	return &out, nil
}

// DeactivateWorker soft-deletes a worker account.
func (c *Client) DeactivateWorker(ctx context.Context, id int) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/trabajadores/%d", id), nil, nil)
	return notFoundAs(err, "usuario", id)
}

// HoursSummary is a per-worker hours total, both as a decimal and as the
// "H:MM" display form.
type HoursSummary struct {
	WorkerID  int     `json:"trabajador_id"`
	Month     int     `json:"mes,omitempty"`
	Year      int     `json:"anio,omitempty"`
	Hours     float64 `json:"horas"`
	HoursHHMM string  `json:"horas_hhmm"`
}

// ApprovedHours totals a worker's approved hours in a payroll period.
func (c *Client) ApprovedHours(ctx context.Context, workerID, month, year int) (*HoursSummary, error) {
	path := fmt.Sprintf("/api/v1/trabajadores/%d/horas-aprobadas?mes=%d&anio=%d", workerID, month, year)
	var out HoursSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, notFoundAs(err, "usuario", workerID)
	}
	return &out, nil
}

// AssignedHours totals a worker's currently assigned (open) hours.
func (c *Client) AssignedHours(ctx context.Context, workerID int) (*HoursSummary, error) {
	var out HoursSummary
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/trabajadores/%d/horas-asignadas", workerID), nil, &out); err != nil {
		return nil, notFoundAs(err, "usuario", workerID)
	}
	return &out, nil
}

// ApprovedTasks lists a worker's approved tasks in a payroll period.
func (c *Client) ApprovedTasks(ctx context.Context, workerID, month, year int) ([]*Task, error) {
	path := fmt.Sprintf("/api/v1/trabajadores/%d/tareas-aprobadas?mes=%d&anio=%d", workerID, month, year)
	var out []*Task
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, notFoundAs(err, "usuario", workerID)
	}
	return out, nil
}

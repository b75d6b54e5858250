package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/hours"
)

func workerID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: "id", Message: "invalid worker id"}
	}
	return id, nil
}

// CreateWorkerRequest is the JSON body for POST /api/v1/trabajadores.
type CreateWorkerRequest struct {
	Username     string `json:"usuario"`
	Password     string `json:"password"`
	Name         string `json:"nombre"`
	Description  string `json:"descripcion"`
	ProfilePhoto string `json:"foto_perfil"`
}

// CreateWorker handles POST /api/v1/trabajadores (admin only).
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	switch {
	case req.Username == "":
		h.respondError(w, &domain.ValidationError{Field: "usuario", Message: "username is required"})
		return
	case len(req.Password) < 8:
		h.respondError(w, &domain.ValidationError{Field: "password", Message: "password must be at least 8 characters"})
		return
	case strings.TrimSpace(req.Name) == "":
		h.respondError(w, &domain.ValidationError{Field: "nombre", Message: "name is required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.respondError(w, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		Name:         req.Name,
		Description:  req.Description,
		ProfilePhoto: req.ProfilePhoto,
		Type:         domain.UserWorker,
	}
	if err := h.users.Create(r.Context(), user, string(hash)); err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusCreated, user)
}

// ListWorkers handles GET /api/v1/trabajadores. ?todos=true includes
// deactivated accounts.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("todos") != "true"
	workers, err := h.users.ListWorkers(r.Context(), activeOnly)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, workers)
}

// GetWorker handles GET /api/v1/trabajadores/{id}.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id, err := workerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// UpdateWorkerRequest is the JSON body for PUT /api/v1/trabajadores/{id}.
type UpdateWorkerRequest struct {
	Name         string `json:"nombre"`
	Description  string `json:"descripcion"`
	ProfilePhoto string `json:"foto_perfil"`
	Active       *bool  `json:"activo,omitempty"`
}

// UpdateWorker handles PUT /api/v1/trabajadores/{id} (admin only).
func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	id, err := workerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req UpdateWorkerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.respondError(w, &domain.ValidationError{Field: "nombre", Message: "name is required"})
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	user.Name = req.Name
	user.Description = req.Description
	user.ProfilePhoto = req.ProfilePhoto
	if req.Active != nil {
		user.Active = *req.Active
	}
	if err := h.users.Update(r.Context(), user); err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// DeactivateWorker handles DELETE /api/v1/trabajadores/{id} (admin only).
// Soft delete: history stays, the account just disappears from rosters.
func (h *Handler) DeactivateWorker(w http.ResponseWriter, r *http.Request) {
	id, err := workerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.users.Deactivate(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"id": id})
}

// payrollPeriod reads ?mes= and ?anio=, defaulting to the current month.
func payrollPeriod(r *http.Request) (month, year int, err error) {
	now := time.Now()
	month, year = int(now.Month()), now.Year()
	if raw := r.URL.Query().Get("mes"); raw != "" {
		month, err = strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			return 0, 0, &domain.ValidationError{Field: "mes", Message: "invalid month"}
		}
	}
	if raw := r.URL.Query().Get("anio"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil || year < 2000 {
			return 0, 0, &domain.ValidationError{Field: "anio", Message: "invalid year"}
		}
	}
	return month, year, nil
}

// HoursResponse reports a total both as a decimal and in H:MM display form.
type HoursResponse struct {
	WorkerID  int     `json:"trabajador_id"`
	Month     int     `json:"mes,omitempty"`
	Year      int     `json:"anio,omitempty"`
	Hours     float64 `json:"horas"`
	HoursHHMM string  `json:"horas_hhmm"`
}

// ApprovedHours handles GET /api/v1/trabajadores/{id}/horas-aprobadas.
// Workers may only read their own totals.
func (h *Handler) ApprovedHours(w http.ResponseWriter, r *http.Request) {
	id, err := workerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if actor := actorFrom(r); !actor.Admin && actor.ID != id {
		writeError(w, http.StatusForbidden, "cannot read another worker's hours")
		return
	}
	month, year, err := payrollPeriod(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	total, err := h.tasks.ApprovedHours(r.Context(), id, month, year)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, HoursResponse{
		WorkerID: id, Month: month, Year: year,
		Hours: total, HoursHHMM: hours.DecimalToTime(total),
	})
}

// AssignedHours handles GET /api/v1/trabajadores/{id}/horas-asignadas.
func (h *Handler) AssignedHours(w http.ResponseWriter, r *http.Request) {
	id, err := workerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if actor := actorFrom(r); !actor.Admin && actor.ID != id {
		writeError(w, http.StatusForbidden, "cannot read another worker's hours")
		return
	}

	total, err := h.tasks.AssignedHours(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, HoursResponse{
		WorkerID: id, Hours: total, HoursHHMM: hours.DecimalToTime(total),
	})
}

// ApprovedTasks handles GET /api/v1/trabajadores/{id}/tareas-aprobadas:
// the tasks behind a payroll period's approved total.
func (h *Handler) ApprovedTasks(w http.ResponseWriter, r *http.Request) {
	id, err := workerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if actor := actorFrom(r); !actor.Admin && actor.ID != id {
		writeError(w, http.StatusForbidden, "cannot read another worker's tasks")
		return
	}
	month, year, err := payrollPeriod(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	tasks, err := h.tasks.ApprovedTasks(r.Context(), id, month, year)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, tasks)
}

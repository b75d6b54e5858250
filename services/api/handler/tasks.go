package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/lifecycle"
	"github.com/Alex2744-cyber/Hoff-AppV2/pkg/telemetry"
	"github.com/Alex2744-cyber/Hoff-AppV2/services/api/middleware"
)

const defaultListLimit = 100

func taskID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: "id", Message: "invalid task id"}
	}
	return id, nil
}

func actorFrom(r *http.Request) lifecycle.Actor {
	user, _ := middleware.UserFrom(r.Context())
	if user == nil {
		return lifecycle.Actor{}
	}
	return lifecycle.Actor{ID: user.ID, Name: user.Name, Admin: user.IsAdmin()}
}

// TaskView is a task plus the actions the caller may take on it.
type TaskView struct {
	*domain.Task
	AllowedActions []lifecycle.Action `json:"acciones_permitidas"`
}

func (h *Handler) view(r *http.Request, t *domain.Task) TaskView {
	return TaskView{Task: t, AllowedActions: lifecycle.AllowedActions(t, actorFrom(r))}
}

// ListTasks handles GET /api/v1/tareas. Admins see everything; workers see
// only tasks they are assigned to. Optional filters: ?estado=..., ?limit=N.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(r)

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	var (
		tasks []*domain.Task
		err   error
	)
	if actor.Admin {
		status := domain.Status(r.URL.Query().Get("estado"))
		if status != "" && !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid estado filter")
			return
		}
		tasks, err = h.tasks.List(ctx, status, limit)
	} else {
		tasks, err = h.tasks.ListByWorker(ctx, actor.ID)
	}
	if err != nil {
		h.respondError(w, err)
		return
	}

	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, h.view(r, t))
	}
	writeData(w, http.StatusOK, views)
}

// GetTask handles GET /api/v1/tareas/{id}. Reads go through the cache;
// a miss falls back to Postgres and repopulates it.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	ctx := r.Context()

	task, err := h.cache.GetTask(ctx, id)
	if err == nil {
		telemetry.APICacheHitsTotal.WithLabelValues("hit").Inc()
	} else {
		telemetry.APICacheHitsTotal.WithLabelValues("miss").Inc()
		task, err = h.tasks.GetByID(ctx, id)
		if err != nil {
			h.respondError(w, err)
			return
		}
		if cacheErr := h.cache.SetTask(ctx, task); cacheErr != nil {
			h.logger.Warn("cache set failed", slog.Int("tarea_id", id), slog.String("error", cacheErr.Error()))
		}
	}

	if !actorFrom(r).Admin && !task.HasWorker(actorFrom(r).ID) {
		writeError(w, http.StatusForbidden, "task is not assigned to you")
		return
	}
	writeData(w, http.StatusOK, h.view(r, task))
}

// CreateTaskRequest is the JSON body for POST /api/v1/tareas.
type CreateTaskRequest struct {
	ClientID       int     `json:"cliente_id"`
	AddressID      int     `json:"direccion_id"`
	Date           string  `json:"fecha_realizacion"`
	Description    string  `json:"descripcion_general"`
	Details        string  `json:"detalles_especificos"`
	EstimatedHours float64 `json:"numero_horas"`
	ServiceValue   float64 `json:"valor_servicio"`
}

func (req *CreateTaskRequest) validate() error {
	switch {
	case req.ClientID <= 0:
		return &domain.ValidationError{Field: "cliente_id", Message: "client is required"}
	case req.AddressID <= 0:
		return &domain.ValidationError{Field: "direccion_id", Message: "address is required"}
	case strings.TrimSpace(req.Date) == "":
		return &domain.ValidationError{Field: "fecha_realizacion", Message: "date is required"}
	case strings.TrimSpace(req.Description) == "":
		return &domain.ValidationError{Field: "descripcion_general", Message: "description is required"}
	case req.EstimatedHours < 0:
		return &domain.ValidationError{Field: "numero_horas", Message: "estimated hours cannot be negative"}
	case req.ServiceValue <= 0:
		return &domain.ValidationError{Field: "valor_servicio", Message: "service value must be greater than 0"}
	}
	return nil
}

// CreateTask handles POST /api/v1/tareas (admin only).
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.create_task")
	defer span.End()

	var req CreateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.respondError(w, err)
		return
	}

	task := &domain.Task{
		ClientID:       req.ClientID,
		AddressID:      req.AddressID,
		Date:           req.Date,
		Description:    req.Description,
		Details:        req.Details,
		EstimatedHours: req.EstimatedHours,
		ServiceValue:   req.ServiceValue,
		Status:         domain.StatusPending,
	}
	if err := h.tasks.Create(ctx, task); err != nil {
		telemetry.APITaskActionsTotal.WithLabelValues("crear", "error").Inc()
		h.respondError(w, err)
		return
	}
	span.SetAttributes(attribute.Int("tarea.id", task.ID))

	h.afterMutation(r, task, domain.EventTaskCreated, "")
	telemetry.APITaskActionsTotal.WithLabelValues("crear", "ok").Inc()
	writeData(w, http.StatusCreated, h.view(r, task))
}

// UpdateTaskRequest is the JSON body for PUT /api/v1/tareas/{id}. Only the
// descriptive fields are editable; state moves through the action endpoints.
type UpdateTaskRequest struct {
	Date           string  `json:"fecha_realizacion"`
	Description    string  `json:"descripcion_general"`
	Details        string  `json:"detalles_especificos"`
	EstimatedHours float64 `json:"numero_horas"`
	ServiceValue   float64 `json:"valor_servicio"`
	Comments       string  `json:"comentarios"`
}

// UpdateTask handles PUT /api/v1/tareas/{id} (admin only).
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "editar", domain.EventType(""), func(t domain.Task, _ lifecycle.Actor) (domain.Task, string, error) {
		var req UpdateTaskRequest
		if err := decodeInto(r, &req); err != nil {
			return t, "", err
		}
		if t.Status.IsTerminal() {
			return t, "", &domain.InvalidStateTransitionError{TaskID: t.ID, From: t.Status, Action: "editar"}
		}
		if req.ServiceValue <= 0 {
			return t, "", &domain.ValidationError{Field: "valor_servicio", Message: "service value must be greater than 0"}
		}
		if req.EstimatedHours < 0 {
			return t, "", &domain.ValidationError{Field: "numero_horas", Message: "estimated hours cannot be negative"}
		}
		if strings.TrimSpace(req.Date) != "" {
			t.Date = req.Date
		}
		if strings.TrimSpace(req.Description) != "" {
			t.Description = req.Description
		}
		t.Details = req.Details
		t.EstimatedHours = req.EstimatedHours
		t.ServiceValue = req.ServiceValue
		t.Comments = req.Comments
		return t, "", nil
	})
}

// AssignRequest is the JSON body for POST /api/v1/tareas/{id}/asignar.
type AssignRequest struct {
	WorkerID int      `json:"trabajador_id"`
	Hours    *float64 `json:"horas_asignadas,omitempty"`
}

// AssignWorker handles POST /api/v1/tareas/{id}/asignar (admin only).
func (h *Handler) AssignWorker(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, lifecycle.ActionAssign, domain.EventTaskAssigned, func(t domain.Task, _ lifecycle.Actor) (domain.Task, string, error) {
		var req AssignRequest
		if err := decodeInto(r, &req); err != nil {
			return t, "", err
		}
		worker, err := h.users.GetByID(r.Context(), req.WorkerID)
		if err != nil {
			return t, "", err
		}
		if !worker.Active || worker.IsAdmin() {
			return t, "", &domain.ValidationError{Field: "trabajador_id", Message: "not an active worker"}
		}
		next, err := lifecycle.Assign(t, domain.WorkerAssignment{
			WorkerID:      worker.ID,
			WorkerName:    worker.Name,
			AssignedHours: req.Hours,
		})
		return next, "", err
	})
}

// UnassignRequest is the JSON body for POST /api/v1/tareas/{id}/desasignar.
type UnassignRequest struct {
	WorkerID int `json:"trabajador_id"`
}

// UnassignWorker handles POST /api/v1/tareas/{id}/desasignar (admin only).
func (h *Handler) UnassignWorker(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, lifecycle.ActionUnassign, domain.EventTaskAssigned, func(t domain.Task, _ lifecycle.Actor) (domain.Task, string, error) {
		var req UnassignRequest
		if err := decodeInto(r, &req); err != nil {
			return t, "", err
		}
		next, err := lifecycle.Unassign(t, req.WorkerID)
		return next, "", err
	})
}

// SetHoursRequest is the JSON body for POST /api/v1/tareas/{id}/horas.
type SetHoursRequest struct {
	WorkerID int     `json:"trabajador_id"`
	Hours    float64 `json:"horas"`
}

// SetHours handles POST /api/v1/tareas/{id}/horas (admin only).
func (h *Handler) SetHours(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, lifecycle.ActionSetHours, domain.EventType(""), func(t domain.Task, _ lifecycle.Actor) (domain.Task, string, error) {
		var req SetHoursRequest
		if err := decodeInto(r, &req); err != nil {
			return t, "", err
		}
		next, err := lifecycle.SetHours(t, req.WorkerID, req.Hours)
		return next, "", err
	})
}

// CompleteRequest is the JSON body for POST /api/v1/tareas/{id}/completar.
type CompleteRequest struct {
	Comments string `json:"comentarios"`
}

// CompleteTask handles POST /api/v1/tareas/{id}/completar. Only a worker
// assigned to the task may call it.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, lifecycle.ActionComplete, domain.EventTaskCompleted, func(t domain.Task, actor lifecycle.Actor) (domain.Task, string, error) {
		var req CompleteRequest
		if err := decodeInto(r, &req); err != nil {
			return t, "", err
		}
		next, err := lifecycle.Complete(t, actor.ID, req.Comments)
		return next, "", err
	})
}

// ApproveRequest is the JSON body for POST /api/v1/tareas/{id}/aprobar.
type ApproveRequest struct {
	Notes string                  `json:"notas_aprobacion"`
	Hours []lifecycle.WorkerHours `json:"horas"`
}

// ApproveTask handles POST /api/v1/tareas/{id}/aprobar (admin only).
func (h *Handler) ApproveTask(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, lifecycle.ActionApprove, domain.EventTaskApproved, func(t domain.Task, actor lifecycle.Actor) (domain.Task, string, error) {
		var req ApproveRequest
		if err := decodeInto(r, &req); err != nil {
			return t, "", err
		}
		next, err := lifecycle.Approve(t, actor, req.Notes, req.Hours, time.Now().UTC())
		return next, "", err
	})
}

// ReturnRequest is the JSON body for POST /api/v1/tareas/{id}/devolver.
type ReturnRequest struct {
	Message string `json:"mensaje"`
}

// ReturnTask handles POST /api/v1/tareas/{id}/devolver (admin only).
func (h *Handler) ReturnTask(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, lifecycle.ActionReturn, domain.EventTaskReturned, func(t domain.Task, actor lifecycle.Actor) (domain.Task, string, error) {
		var req ReturnRequest
		if err := decodeInto(r, &req); err != nil {
			return t, "", err
		}
		next, err := lifecycle.Return(t, actor, req.Message)
		return next, req.Message, err
	})
}

// CancelTask handles POST /api/v1/tareas/{id}/cancelar (admin only).
func (h *Handler) CancelTask(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, lifecycle.ActionCancel, domain.EventTaskCancelled, func(t domain.Task, _ lifecycle.Actor) (domain.Task, string, error) {
		next, err := lifecycle.Cancel(t)
		return next, "", err
	})
}

// MarkPaidRequest is the JSON body for POST /api/v1/tareas/{id}/marcar-pagado.
type MarkPaidRequest struct {
	Reference string `json:"referencia_pago"`
}

// MarkPaid handles POST /api/v1/tareas/{id}/marcar-pagado (admin only).
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, lifecycle.ActionMarkPaid, domain.EventTaskPaid, func(t domain.Task, _ lifecycle.Actor) (domain.Task, string, error) {
		var req MarkPaidRequest
		if err := decodeInto(r, &req); err != nil {
			return t, "", err
		}
		next, err := lifecycle.MarkPaid(t, req.Reference, time.Now().UTC())
		return next, "", err
	})
}

// mutate is the shared write path: load the task, run the transition, persist
// under the version guard, refresh the cache, publish the event. A version
// conflict surfaces as 409 so the caller reloads and retries.
func (h *Handler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	action lifecycle.Action,
	evType domain.EventType,
	fn func(t domain.Task, actor lifecycle.Actor) (domain.Task, string, error),
) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.task_"+string(action))
	defer span.End()
	r = r.WithContext(ctx)

	id, err := taskID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	span.SetAttributes(attribute.Int("tarea.id", id), attribute.String("accion", string(action)))

	current, err := h.tasks.GetByID(ctx, id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	next, message, err := fn(*current, actorFrom(r))
	if err != nil {
		telemetry.APITaskActionsTotal.WithLabelValues(string(action), "rejected").Inc()
		h.respondError(w, err)
		return
	}

	if err := h.tasks.Update(ctx, &next); err != nil {
		telemetry.APITaskActionsTotal.WithLabelValues(string(action), "error").Inc()
		h.respondError(w, err)
		return
	}

	if evType != "" {
		h.afterMutation(r, &next, evType, message)
	} else if err := h.cache.SetTask(ctx, &next); err != nil {
		h.logger.Warn("cache set failed", slog.Int("tarea_id", next.ID), slog.String("error", err.Error()))
	}

	telemetry.APITaskActionsTotal.WithLabelValues(string(action), "ok").Inc()
	h.logger.Info("task action",
		slog.Int("tarea_id", next.ID),
		slog.String("accion", string(action)),
		slog.String("estado", string(next.Status)),
	)
	writeData(w, http.StatusOK, h.view(r, &next))
}

// afterMutation refreshes the cache and publishes the task event. Both are
// best-effort: the write already committed, so failures are logged, not
// returned.
func (h *Handler) afterMutation(r *http.Request, task *domain.Task, evType domain.EventType, message string) {
	ctx := r.Context()
	if err := h.cache.SetTask(ctx, task); err != nil {
		h.logger.Warn("cache set failed", slog.Int("tarea_id", task.ID), slog.String("error", err.Error()))
	}

	actor := actorFrom(r)
	workerIDs := make([]int, 0, len(task.Workers))
	for _, wa := range task.Workers {
		workerIDs = append(workerIDs, wa.WorkerID)
	}
	ev := domain.TaskEvent{
		ID:         uuid.New().String(),
		Type:       evType,
		TaskID:     task.ID,
		Status:     task.Status,
		ActorID:    actor.ID,
		WorkerIDs:  workerIDs,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.producer.PublishTaskEvent(ctx, ev); err != nil {
		h.logger.Error("event publish failed",
			slog.Int("tarea_id", task.ID),
			slog.String("tipo", string(evType)),
			slog.String("error", err.Error()),
		)
	}
}

// decodeInto is decodeBody without the response side, for use inside mutate
// closures.
func decodeInto(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Message: "invalid request body"}
	}
	return nil
}

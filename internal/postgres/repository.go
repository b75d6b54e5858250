package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

// TaskRepository abstracts all database access for tasks.
//
// Update performs a compare-and-swap on the task's version: the write only
// lands if nobody else modified the task since it was read, otherwise it
// fails with VersionConflictError. This is how concurrent hour edits and
// double approvals are rejected instead of silently last-write-wins.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id int) (*domain.Task, error)
	List(ctx context.Context, status domain.Status, limit int) ([]*domain.Task, error)
	ListByWorker(ctx context.Context, workerID int) ([]*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	ApprovedHours(ctx context.Context, workerID, month, year int) (float64, error)
	AssignedHours(ctx context.Context, workerID int) (float64, error)
	ApprovedTasks(ctx context.Context, workerID, month, year int) ([]*domain.Task, error)
	UnpaidApproved(ctx context.Context) ([]*domain.Task, error)
	Income(ctx context.Context) (paid, pending float64, err error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository wraps a pgxpool with the TaskRepository interface.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

// NewPool creates a pgxpool and verifies connectivity.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	now := time.Now().UTC()
	task.Version = 1
	task.CreatedAt = now
	task.UpdatedAt = now

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO tareas
			(cliente_id, direccion_id, fecha_realizacion, descripcion_general,
			 detalles_especificos, numero_horas, valor_servicio, estado,
			 mensaje_rechazo, comentarios, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`,
		task.ClientID, task.AddressID, task.Date, task.Description,
		task.Details, task.EstimatedHours, task.ServiceValue, string(task.Status),
		task.RejectionMessage, task.Comments, task.Version, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	if err := writeAssignments(ctx, tx, task); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update rewrites the task row, its assignments, and its approval record in
// one transaction, guarded by the version CAS.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, `
		UPDATE tareas
		SET cliente_id = $1, direccion_id = $2, fecha_realizacion = $3,
		    descripcion_general = $4, detalles_especificos = $5,
		    numero_horas = $6, valor_servicio = $7, estado = $8,
		    mensaje_rechazo = $9, comentarios = $10,
		    version = version + 1, updated_at = $11
		WHERE id = $12 AND version = $13
	`,
		task.ClientID, task.AddressID, task.Date,
		task.Description, task.Details,
		task.EstimatedHours, task.ServiceValue, string(task.Status),
		task.RejectionMessage, task.Comments,
		now, task.ID, task.Version,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", task.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the task vanished or someone else's write won.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tareas WHERE id = $1)`, task.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check task %d: %w", task.ID, err)
		}
		if !exists {
			return &domain.NotFoundError{Kind: "tarea", ID: task.ID}
		}
		return &domain.VersionConflictError{TaskID: task.ID, Version: task.Version}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tarea_trabajadores WHERE tarea_id = $1`, task.ID); err != nil {
		return fmt.Errorf("clear assignments for task %d: %w", task.ID, err)
	}
	if err := writeAssignments(ctx, tx, task); err != nil {
		return err
	}

	if task.Approval != nil {
		if err := upsertApproval(ctx, tx, task.ID, task.Approval); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update task %d: %w", task.ID, err)
	}
	task.Version++
	task.UpdatedAt = now
	return nil
}

func writeAssignments(ctx context.Context, tx pgx.Tx, task *domain.Task) error {
	for _, w := range task.Workers {
		_, err := tx.Exec(ctx, `
			INSERT INTO tarea_trabajadores (tarea_id, trabajador_id, horas_asignadas, horas_aprobadas)
			VALUES ($1, $2, $3, $4)
		`, task.ID, w.WorkerID, w.AssignedHours, w.ApprovedHours)
		if err != nil {
			return fmt.Errorf("write assignment (task %d, worker %d): %w", task.ID, w.WorkerID, err)
		}
	}
	return nil
}

// upsertApproval inserts the approval record on first write and afterwards
// only ever touches the payment sub-fields. The accounting columns are
// immutable once created.
func upsertApproval(ctx context.Context, tx pgx.Tx, taskID int, a *domain.ApprovalRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO registros_aprobacion
			(tarea_id, aprobado_por, aprobado_por_nombre, fecha_aprobacion,
			 notas_aprobacion, mes_nomina, anio_nomina, total_horas_trabajadas,
			 numero_trabajadores, estado_pago, fecha_pago, referencia_pago)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (tarea_id) DO UPDATE
		SET estado_pago = EXCLUDED.estado_pago,
		    fecha_pago = EXCLUDED.fecha_pago,
		    referencia_pago = EXCLUDED.referencia_pago
	`,
		taskID, a.ApprovedBy, a.ApprovedByName, a.ApprovedAt,
		a.Notes, a.PayrollMonth, a.PayrollYear, a.TotalWorkedHours,
		a.WorkerCount, string(a.PaymentStatus), a.PaidAt, a.PaymentReference,
	)
	if err != nil {
		return fmt.Errorf("upsert approval for task %d: %w", taskID, err)
	}
	return nil
}

const taskColumns = `
	t.id, t.cliente_id, t.direccion_id, t.fecha_realizacion, t.descripcion_general,
	t.detalles_especificos, t.numero_horas, t.valor_servicio, t.estado,
	t.mensaje_rechazo, t.comentarios, t.version, t.created_at, t.updated_at`

func (r *taskRepository) GetByID(ctx context.Context, id int) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tareas t WHERE t.id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "tarea", ID: id}
		}
		return nil, err
	}
	if err := r.loadRelations(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) List(ctx context.Context, status domain.Status, limit int) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tareas t`
	args := []any{}
	if status != "" {
		query += ` WHERE t.estado = $1`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY t.fecha_realizacion DESC, t.id DESC LIMIT %d`, limit)

	return r.queryTasks(ctx, query, args...)
}

func (r *taskRepository) ListByWorker(ctx context.Context, workerID int) ([]*domain.Task, error) {
	return r.queryTasks(ctx, `
		SELECT `+taskColumns+`
		FROM tareas t
		JOIN tarea_trabajadores tt ON tt.tarea_id = t.id
		WHERE tt.trabajador_id = $1
		ORDER BY t.fecha_realizacion DESC, t.id DESC
	`, workerID)
}

func (r *taskRepository) ApprovedTasks(ctx context.Context, workerID, month, year int) ([]*domain.Task, error) {
	return r.queryTasks(ctx, `
		SELECT `+taskColumns+`
		FROM tareas t
		JOIN tarea_trabajadores tt ON tt.tarea_id = t.id
		JOIN registros_aprobacion ra ON ra.tarea_id = t.id
		WHERE tt.trabajador_id = $1 AND ra.mes_nomina = $2 AND ra.anio_nomina = $3
		ORDER BY ra.fecha_aprobacion DESC
	`, workerID, month, year)
}

func (r *taskRepository) UnpaidApproved(ctx context.Context) ([]*domain.Task, error) {
	return r.queryTasks(ctx, `
		SELECT `+taskColumns+`
		FROM tareas t
		JOIN registros_aprobacion ra ON ra.tarea_id = t.id
		WHERE ra.estado_pago = 'pendiente'
		ORDER BY ra.anio_nomina, ra.mes_nomina, t.id
	`)
}

func (r *taskRepository) ApprovedHours(ctx context.Context, workerID, month, year int) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(tt.horas_aprobadas), 0)
		FROM tarea_trabajadores tt
		JOIN registros_aprobacion ra ON ra.tarea_id = tt.tarea_id
		WHERE tt.trabajador_id = $1 AND ra.mes_nomina = $2 AND ra.anio_nomina = $3
	`, workerID, month, year).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("approved hours for worker %d: %w", workerID, err)
	}
	return total, nil
}

func (r *taskRepository) AssignedHours(ctx context.Context, workerID int) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(tt.horas_asignadas), 0)
		FROM tarea_trabajadores tt
		JOIN tareas t ON t.id = tt.tarea_id
		WHERE tt.trabajador_id = $1 AND t.estado IN ('pendiente', 'asignada', 'completada')
	`, workerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("assigned hours for worker %d: %w", workerID, err)
	}
	return total, nil
}

func (r *taskRepository) Income(ctx context.Context) (paid, pending float64, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(t.valor_servicio) FILTER (WHERE ra.estado_pago = 'pagado'), 0),
			COALESCE(SUM(t.valor_servicio) FILTER (WHERE ra.estado_pago = 'pendiente'), 0)
		FROM tareas t
		JOIN registros_aprobacion ra ON ra.tarea_id = t.id
	`).Scan(&paid, &pending)
	if err != nil {
		return 0, 0, fmt.Errorf("income totals: %w", err)
	}
	return paid, pending, nil
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if err := r.loadRelations(ctx, t); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// loadRelations fills a task's worker assignments and approval record.
func (r *taskRepository) loadRelations(ctx context.Context, task *domain.Task) error {
	rows, err := r.pool.Query(ctx, `
		SELECT tt.trabajador_id, COALESCE(u.nombre, ''), tt.horas_asignadas, tt.horas_aprobadas
		FROM tarea_trabajadores tt
		LEFT JOIN usuarios u ON u.id = tt.trabajador_id
		WHERE tt.tarea_id = $1
		ORDER BY tt.trabajador_id
	`, task.ID)
	if err != nil {
		return fmt.Errorf("load assignments for task %d: %w", task.ID, err)
	}
	defer rows.Close()

	task.Workers = nil
	for rows.Next() {
		var w domain.WorkerAssignment
		if err := rows.Scan(&w.WorkerID, &w.WorkerName, &w.AssignedHours, &w.ApprovedHours); err != nil {
			return fmt.Errorf("scan assignment: %w", err)
		}
		task.Workers = append(task.Workers, w)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var a domain.ApprovalRecord
	var paymentStatus string
	err = r.pool.QueryRow(ctx, `
		SELECT ra.aprobado_por, COALESCE(ra.aprobado_por_nombre, ''), ra.fecha_aprobacion,
		       COALESCE(ra.notas_aprobacion, ''), ra.mes_nomina, ra.anio_nomina,
		       ra.total_horas_trabajadas, ra.numero_trabajadores, ra.estado_pago,
		       ra.fecha_pago, COALESCE(ra.referencia_pago, '')
		FROM registros_aprobacion ra
		WHERE ra.tarea_id = $1
	`, task.ID).Scan(
		&a.ApprovedBy, &a.ApprovedByName, &a.ApprovedAt,
		&a.Notes, &a.PayrollMonth, &a.PayrollYear,
		&a.TotalWorkedHours, &a.WorkerCount, &paymentStatus,
		&a.PaidAt, &a.PaymentReference,
	)
	switch {
	case err == nil:
		a.PaymentStatus = domain.PaymentStatus(paymentStatus)
		task.Approval = &a
	case errors.Is(err, pgx.ErrNoRows):
		task.Approval = nil
	default:
		return fmt.Errorf("load approval for task %d: %w", task.ID, err)
	}
	return nil
}

// scanTask reads a task row from any pgx row type.
func scanTask(row interface {
	Scan(...any) error
}) (*domain.Task, error) {
	var task domain.Task
	var statusStr string
	err := row.Scan(
		&task.ID, &task.ClientID, &task.AddressID, &task.Date, &task.Description,
		&task.Details, &task.EstimatedHours, &task.ServiceValue, &statusStr,
		&task.RejectionMessage, &task.Comments, &task.Version, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Status = domain.Status(statusStr)
	return &task, nil
}

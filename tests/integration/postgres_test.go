//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/postgres"
)

// newPool connects to the test Postgres container and truncates every table
// on cleanup so tests do not leak into each other.
func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, testPostgresDSN)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(ctx, "TRUNCATE registros_aprobacion, tarea_trabajadores, tareas, direcciones, clientes, usuarios RESTART IDENTITY CASCADE") //nolint:errcheck
		pool.Close()
	})
	return pool
}

func seedWorker(t *testing.T, pool *pgxpool.Pool, username, name string) *domain.User {
	t.Helper()
	users := postgres.NewUserRepository(pool)
	w := &domain.User{Username: username, Name: name, Type: domain.UserWorker, Active: true}
	require.NoError(t, users.Create(context.Background(), w, "irrelevant-hash"))
	return w
}

func seedClientAddress(t *testing.T, pool *pgxpool.Pool) (*domain.Client, *domain.Address) {
	t.Helper()
	ctx := context.Background()
	clients := postgres.NewClientRepository(pool)
	addresses := postgres.NewAddressRepository(pool)

	cl := &domain.Client{Name: "Oficinas Centro", Type: domain.ClientCompany, CompanyName: "Centro SL"}
	require.NoError(t, clients.Create(ctx, cl))
	addr := &domain.Address{ClientID: cl.ID, Full: "Calle Mayor 1", City: "Madrid"}
	require.NoError(t, addresses.Create(ctx, addr))
	return cl, addr
}

func makeTask(clientID, addressID int) *domain.Task {
	return &domain.Task{
		ClientID:       clientID,
		AddressID:      addressID,
		Date:           "2026-09-15",
		Description:    "limpieza general",
		EstimatedHours: 4,
		ServiceValue:   120,
		Status:         domain.StatusPending,
	}
}

func TestPostgres_Create_GetByID(t *testing.T) {
	pool := newPool(t)
	repo := postgres.NewTaskRepository(pool)
	ctx := context.Background()

	cl, addr := seedClientAddress(t, pool)
	task := makeTask(cl.ID, addr.ID)
	require.NoError(t, repo.Create(ctx, task))
	require.NotZero(t, task.ID)

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "limpieza general", got.Description)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, 1, got.Version)
	assert.Empty(t, got.Workers)
}

func TestPostgres_GetByID_NotFound(t *testing.T) {
	pool := newPool(t)
	repo := postgres.NewTaskRepository(pool)

	_, err := repo.GetByID(context.Background(), 424242)
	require.Error(t, err)

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "tarea", notFound.Kind)
}

func TestPostgres_Update_PersistsAssignments(t *testing.T) {
	pool := newPool(t)
	repo := postgres.NewTaskRepository(pool)
	ctx := context.Background()

	cl, addr := seedClientAddress(t, pool)
	worker := seedWorker(t, pool, "luis", "Luis")
	task := makeTask(cl.ID, addr.ID)
	require.NoError(t, repo.Create(ctx, task))

	h := 2.5
	task.Status = domain.StatusAssigned
	task.Workers = []domain.WorkerAssignment{{WorkerID: worker.ID, AssignedHours: &h}}
	require.NoError(t, repo.Update(ctx, task))
	assert.Equal(t, 2, task.Version)

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, got.Status)
	require.Len(t, got.Workers, 1)
	assert.Equal(t, worker.ID, got.Workers[0].WorkerID)
	require.NotNil(t, got.Workers[0].AssignedHours)
	assert.InDelta(t, 2.5, *got.Workers[0].AssignedHours, 1e-9)
	assert.Equal(t, "Luis", got.Workers[0].WorkerName)
}

func TestPostgres_Update_StaleVersionConflicts(t *testing.T) {
	pool := newPool(t)
	repo := postgres.NewTaskRepository(pool)
	ctx := context.Background()

	cl, addr := seedClientAddress(t, pool)
	task := makeTask(cl.ID, addr.ID)
	require.NoError(t, repo.Create(ctx, task))

	stale := *task
	task.Comments = "primera edicion"
	require.NoError(t, repo.Update(ctx, task))

	stale.Comments = "edicion perdedora"
	err := repo.Update(ctx, &stale)

	var conflict *domain.VersionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, task.ID, conflict.TaskID)

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "primera edicion", got.Comments)
}

func TestPostgres_ApprovalAndHoursAggregation(t *testing.T) {
	pool := newPool(t)
	repo := postgres.NewTaskRepository(pool)
	ctx := context.Background()

	cl, addr := seedClientAddress(t, pool)
	worker := seedWorker(t, pool, "marta", "Marta")
	admin := seedWorker(t, pool, "ana", "Ana")

	approve := func(hoursVal float64) *domain.Task {
		task := makeTask(cl.ID, addr.ID)
		require.NoError(t, repo.Create(ctx, task))

		task.Status = domain.StatusApproved
		task.Workers = []domain.WorkerAssignment{{WorkerID: worker.ID, ApprovedHours: &hoursVal}}
		task.Approval = &domain.ApprovalRecord{
			ApprovedBy:       admin.ID,
			ApprovedAt:       time.Now().UTC(),
			PayrollMonth:     9,
			PayrollYear:      2026,
			TotalWorkedHours: hoursVal,
			WorkerCount:      1,
			PaymentStatus:    domain.PaymentPending,
		}
		require.NoError(t, repo.Update(ctx, task))
		return task
	}

	approve(2.5)
	second := approve(1.75)

	total, err := repo.ApprovedHours(ctx, worker.ID, 9, 2026)
	require.NoError(t, err)
	assert.InDelta(t, 4.25, total, 1e-9)

	otherMonth, err := repo.ApprovedHours(ctx, worker.ID, 10, 2026)
	require.NoError(t, err)
	assert.Zero(t, otherMonth)

	unpaid, err := repo.UnpaidApproved(ctx)
	require.NoError(t, err)
	assert.Len(t, unpaid, 2)

	// Paying one task removes it from the unpaid set and moves its value.
	now := time.Now().UTC()
	second.Approval.PaymentStatus = domain.PaymentPaid
	second.Approval.PaidAt = &now
	second.Approval.PaymentReference = "TRANSF-001"
	require.NoError(t, repo.Update(ctx, second))

	unpaid, err = repo.UnpaidApproved(ctx)
	require.NoError(t, err)
	assert.Len(t, unpaid, 1)

	paid, pending, err := repo.Income(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 120, paid, 1e-9)
	assert.InDelta(t, 120, pending, 1e-9)
}

func TestPostgres_Users_LoginRoundTrip(t *testing.T) {
	pool := newPool(t)
	users := postgres.NewUserRepository(pool)
	ctx := context.Background()

	u := &domain.User{Username: "ana", Name: "Ana", Type: domain.UserAdmin, Active: true}
	require.NoError(t, users.Create(ctx, u, "$2a$10$hash"))

	got, hash, err := users.GetByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", hash)
	assert.Equal(t, domain.UserAdmin, got.Type)

	w := seedWorker(t, pool, "luis", "Luis")
	require.NoError(t, users.Deactivate(ctx, w.ID))

	active, err := users.ListWorkers(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := users.ListWorkers(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
}

func TestPostgres_ClientDelete_CascadesAddresses(t *testing.T) {
	pool := newPool(t)
	clients := postgres.NewClientRepository(pool)
	addresses := postgres.NewAddressRepository(pool)
	ctx := context.Background()

	cl, addr := seedClientAddress(t, pool)
	require.NoError(t, clients.Delete(ctx, cl.ID))

	_, err := addresses.GetByID(ctx, addr.ID)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "direccion", notFound.Kind)
}

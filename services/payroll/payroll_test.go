package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/kafka"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/postgres"
)

type fakeTasks struct {
	postgres.TaskRepository
	unpaid []*domain.Task
	err    error
}

func (f *fakeTasks) UnpaidApproved(_ context.Context) ([]*domain.Task, error) {
	return f.unpaid, f.err
}

type published struct {
	topic string
	key   string
	value []byte
}

type fakeProducer struct {
	messages []published
	err      error
}

func (f *fakeProducer) Publish(_ context.Context, topic, key string, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{topic, key, value})
	return nil
}

func (f *fakeProducer) PublishTaskEvent(_ context.Context, _ domain.TaskEvent) error { return nil }
func (f *fakeProducer) Close() error                                                 { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hoursPtr(h float64) *float64 { return &h }

func approvedTask(id, month, year int, value float64, workers ...domain.WorkerAssignment) *domain.Task {
	return &domain.Task{
		ID:           id,
		ServiceValue: value,
		Status:       domain.StatusApproved,
		Workers:      workers,
		Approval: &domain.ApprovalRecord{
			PayrollMonth:     month,
			PayrollYear:      year,
			TotalWorkedHours: totalHours(workers),
			WorkerCount:      len(workers),
			PaymentStatus:    domain.PaymentPending,
		},
	}
}

func totalHours(workers []domain.WorkerAssignment) float64 {
	var sum float64
	for _, w := range workers {
		if w.ApprovedHours != nil {
			sum += *w.ApprovedHours
		}
	}
	return sum
}

func newTestPayroll(t *testing.T, tasks postgres.TaskRepository, producer kafka.Producer) (*Payroll, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	schedule, err := cron.ParseStandard("0 8 1 * *")
	require.NoError(t, err)

	return New(tasks, producer, client, "payroll-test", schedule, discardLogger()), mr
}

func TestBuildDigest_GroupsByPeriodAndWorker(t *testing.T) {
	tasks := []*domain.Task{
		approvedTask(1, 3, 2026, 120,
			domain.WorkerAssignment{WorkerID: 7, WorkerName: "Luis", ApprovedHours: hoursPtr(2.5)},
			domain.WorkerAssignment{WorkerID: 9, WorkerName: "Marta", ApprovedHours: hoursPtr(4)},
		),
		approvedTask(2, 3, 2026, 80,
			domain.WorkerAssignment{WorkerID: 7, WorkerName: "Luis", ApprovedHours: hoursPtr(1.5)},
		),
		approvedTask(3, 4, 2026, 60,
			domain.WorkerAssignment{WorkerID: 9, WorkerName: "Marta", ApprovedHours: hoursPtr(3)},
		),
	}

	d := BuildDigest(tasks, time.Now())

	require.Len(t, d.Periods, 2)
	assert.Equal(t, 3, d.TaskCount)

	march := d.Periods[0]
	assert.Equal(t, 3, march.Month)
	assert.Equal(t, 2, march.TaskCount)
	assert.InDelta(t, 8.0, march.TotalHours, 1e-9)
	assert.InDelta(t, 200.0, march.TotalValue, 1e-9)
	require.Len(t, march.Workers, 2)
	assert.Equal(t, 7, march.Workers[0].WorkerID)
	assert.InDelta(t, 4.0, march.Workers[0].Hours, 1e-9)
	assert.Equal(t, 9, march.Workers[1].WorkerID)
	assert.InDelta(t, 4.0, march.Workers[1].Hours, 1e-9)

	april := d.Periods[1]
	assert.Equal(t, 4, april.Month)
	assert.Equal(t, 1, april.TaskCount)
}

func TestBuildDigest_SkipsTasksWithoutApproval(t *testing.T) {
	tasks := []*domain.Task{
		{ID: 1, Status: domain.StatusApproved},
		approvedTask(2, 5, 2026, 50,
			domain.WorkerAssignment{WorkerID: 7, ApprovedHours: hoursPtr(1)},
		),
	}

	d := BuildDigest(tasks, time.Now())
	assert.Equal(t, 1, d.TaskCount)
	require.Len(t, d.Periods, 1)
}

func TestBuildDigest_Empty(t *testing.T) {
	d := BuildDigest(nil, time.Now())
	assert.Equal(t, 0, d.TaskCount)
	assert.Empty(t, d.Periods)
}

func TestRunDigest_PublishesToPayrollTopic(t *testing.T) {
	repo := &fakeTasks{unpaid: []*domain.Task{
		approvedTask(1, 6, 2026, 90,
			domain.WorkerAssignment{WorkerID: 7, ApprovedHours: hoursPtr(3)},
		),
	}}
	producer := &fakeProducer{}
	p, _ := newTestPayroll(t, repo, producer)

	require.NoError(t, p.RunDigest(context.Background()))
	require.Len(t, producer.messages, 1)
	assert.Equal(t, kafka.TopicPayrollDigest, producer.messages[0].topic)

	var d Digest
	require.NoError(t, json.Unmarshal(producer.messages[0].value, &d))
	assert.Equal(t, 1, d.TaskCount)
	require.Len(t, d.Periods, 1)
	assert.Equal(t, 6, d.Periods[0].Month)
}

func TestRunDigest_RepositoryError(t *testing.T) {
	repo := &fakeTasks{err: errors.New("connection refused")}
	producer := &fakeProducer{}
	p, _ := newTestPayroll(t, repo, producer)

	err := p.RunDigest(context.Background())
	require.Error(t, err)
	assert.Empty(t, producer.messages)
}

func TestLeadership_FirstInstanceWins(t *testing.T) {
	p, mr := newTestPayroll(t, &fakeTasks{}, &fakeProducer{})

	assert.True(t, p.acquireOrRenewLeadership(context.Background()))
	got, err := mr.Get("nomina:leader")
	require.NoError(t, err)
	assert.Equal(t, "payroll-test", got)
}

func TestLeadership_SecondInstanceIsFollower(t *testing.T) {
	p, mr := newTestPayroll(t, &fakeTasks{}, &fakeProducer{})
	require.NoError(t, mr.Set("nomina:leader", "other-instance"))

	assert.False(t, p.acquireOrRenewLeadership(context.Background()))
}

func TestLeadership_LeaderRenewsOwnKey(t *testing.T) {
	p, mr := newTestPayroll(t, &fakeTasks{}, &fakeProducer{})

	require.True(t, p.acquireOrRenewLeadership(context.Background()))
	// Second call hits the renewal path since the key already exists.
	assert.True(t, p.acquireOrRenewLeadership(context.Background()))
	assert.Equal(t, leaderTTL, mr.TTL("nomina:leader"))
}

func TestLeadership_TakesOverAfterExpiry(t *testing.T) {
	p, mr := newTestPayroll(t, &fakeTasks{}, &fakeProducer{})
	require.NoError(t, mr.Set("nomina:leader", "other-instance"))
	mr.SetTTL("nomina:leader", leaderTTL)

	assert.False(t, p.acquireOrRenewLeadership(context.Background()))
	mr.FastForward(leaderTTL + time.Second)
	assert.True(t, p.acquireOrRenewLeadership(context.Background()))
}

//go:build integration

// Package integration contains end-to-end tests that require real
// infrastructure (Kafka, Redis, PostgreSQL) provided by testcontainers-go.
//
// Run with: go test -tags=integration -v ./tests/integration/
package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/kafka"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/lifecycle"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/notify"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/postgres"
	redisstore "github.com/Alex2744-cyber/Hoff-AppV2/internal/redis"
	"github.com/Alex2744-cyber/Hoff-AppV2/services/notifier"
)

// TestE2E_TaskLifecycleWithNotifications walks a task from creation to
// payment against real infrastructure: every transition persists through the
// version CAS, refreshes the Redis cache, and publishes an event that the
// notifier delivers to a webhook.
func TestE2E_TaskLifecycleWithNotifications(t *testing.T) {
	ctx := context.Background()

	pool := newPool(t)
	repo := postgres.NewTaskRepository(pool)
	cache := redisstore.NewTaskCache(newRedisClient(t))

	producer := kafka.NewProducer(testKafkaBrokers)
	t.Cleanup(func() { producer.Close() }) //nolint:errcheck

	eventsTopic := uniqueTopic("e2e-eventos")
	createTopic(t, eventsTopic)

	// Webhook endpoint collecting every delivered notification.
	received := make(chan []byte, 16)
	webhookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(webhookSrv.Close)

	registry := notify.NewRegistry()
	registry.Subscribe(notify.NewWebhookChannel(webhookSrv.URL, "e2e-secret"),
		domain.EventTaskAssigned,
		domain.EventTaskCompleted,
		domain.EventTaskApproved,
	)

	consumer := kafka.NewConsumer(testKafkaBrokers, eventsTopic, "e2e-notifier", slog.Default())
	t.Cleanup(func() { consumer.Close() }) //nolint:errcheck

	notifierCtx, stopNotifier := context.WithTimeout(ctx, 60*time.Second)
	defer stopNotifier()

	n := notifier.New(consumer, producer, registry, notifier.WithLogger(slog.Default()))
	notifierDone := make(chan struct{})
	go func() {
		defer close(notifierDone)
		n.Run(notifierCtx) //nolint:errcheck
	}()

	publish := func(evType domain.EventType, task *domain.Task) {
		ev := domain.TaskEvent{
			ID:         uuid.New().String(),
			Type:       evType,
			TaskID:     task.ID,
			Status:     task.Status,
			OccurredAt: time.Now().UTC(),
		}
		raw, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, producer.Publish(ctx, eventsTopic, uuid.New().String(), raw))
	}

	waitWebhook := func(wantEvent string) {
		t.Helper()
		select {
		case body := <-received:
			var got struct {
				Subject string `json:"asunto"`
				Event   string `json:"evento"`
			}
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, wantEvent, got.Event)
			assert.NotEmpty(t, got.Subject)
		case <-time.After(45 * time.Second):
			t.Fatalf("webhook for %s not delivered in time", wantEvent)
		}
	}

	// Create.
	cl, addr := seedClientAddress(t, pool)
	worker := seedWorker(t, pool, "luis", "Luis")
	admin := seedWorker(t, pool, "ana", "Ana")

	task := makeTask(cl.ID, addr.ID)
	require.NoError(t, repo.Create(ctx, task))

	// Assign.
	h := 2.5
	next, err := lifecycle.Assign(*task, domain.WorkerAssignment{WorkerID: worker.ID, AssignedHours: &h})
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, &next))
	require.NoError(t, cache.SetTask(ctx, &next))
	publish(domain.EventTaskAssigned, &next)
	waitWebhook(string(domain.EventTaskAssigned))

	// Complete.
	next, err = lifecycle.Complete(next, worker.ID, "todo listo")
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, &next))
	require.NoError(t, cache.SetTask(ctx, &next))
	publish(domain.EventTaskCompleted, &next)
	waitWebhook(string(domain.EventTaskCompleted))

	// Approve.
	next, err = lifecycle.Approve(next,
		lifecycle.Actor{ID: admin.ID, Name: admin.Name, Admin: true},
		"bien hecho",
		[]lifecycle.WorkerHours{{WorkerID: worker.ID, Hours: 2.5}},
		time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, &next))
	publish(domain.EventTaskApproved, &next)
	waitWebhook(string(domain.EventTaskApproved))

	// Mark paid.
	next, err = lifecycle.MarkPaid(next, "TRANSF-001", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, &next))

	stopNotifier()
	<-notifierDone
	n.Wait()

	// Final state: approved and paid, hours booked against September 2026.
	final, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, final.Status)
	require.NotNil(t, final.Approval)
	assert.Equal(t, domain.PaymentPaid, final.Approval.PaymentStatus)
	assert.Equal(t, "TRANSF-001", final.Approval.PaymentReference)

	hoursTotal, err := repo.ApprovedHours(ctx, worker.ID, 9, 2026)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, hoursTotal, 1e-9)

	cached, err := cache.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, cached.Status, "cache holds the last refreshed state")
}

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

func newTestClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(s.Close)

	c := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return c, s
}

func TestTaskCache_SetGetRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewTaskCache(client)
	ctx := context.Background()

	h := 2.0
	task := &domain.Task{
		ID:             17,
		Status:         domain.StatusAssigned,
		EstimatedHours: 4,
		Workers: []domain.WorkerAssignment{
			{WorkerID: 7, WorkerName: "Luis", AssignedHours: &h},
		},
		Version: 3,
	}

	if err := cache.SetTask(ctx, task); err != nil {
		t.Fatalf("SetTask: %v", err)
	}

	got, err := cache.GetTask(ctx, 17)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != domain.StatusAssigned || got.Version != 3 {
		t.Errorf("got status %q version %d", got.Status, got.Version)
	}
	if len(got.Workers) != 1 || *got.Workers[0].AssignedHours != 2.0 {
		t.Errorf("worker assignment did not survive the round trip: %+v", got.Workers)
	}
}

func TestTaskCache_MissIsNotFound(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewTaskCache(client)

	_, err := cache.GetTask(context.Background(), 404)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestTaskCache_Invalidate(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewTaskCache(client)
	ctx := context.Background()

	task := &domain.Task{ID: 5, Status: domain.StatusPending}
	if err := cache.SetTask(ctx, task); err != nil {
		t.Fatalf("SetTask: %v", err)
	}
	if err := cache.Invalidate(ctx, 5); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	_, err := cache.GetTask(ctx, 5)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError after invalidation, got %v", err)
	}
}

func TestTaskCache_TTLExpiry(t *testing.T) {
	client, s := newTestClient(t)
	cache := NewTaskCache(client)
	ctx := context.Background()

	if err := cache.SetTask(ctx, &domain.Task{ID: 9, Status: domain.StatusPending}); err != nil {
		t.Fatalf("SetTask: %v", err)
	}

	s.FastForward(taskTTL + time.Minute)

	_, err := cache.GetTask(ctx, 9)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError after TTL, got %v", err)
	}
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	client, _ := newTestClient(t)
	rl := NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "ana")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	ok, err := rl.Allow(ctx, "ana")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Error("fourth attempt in the window should be rejected")
	}

	// A different key has its own window.
	ok, err = rl.Allow(ctx, "luis")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Error("other users should not be throttled")
	}
}

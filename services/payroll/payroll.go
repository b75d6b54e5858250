package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/kafka"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/postgres"
	"github.com/Alex2744-cyber/Hoff-AppV2/pkg/telemetry"
)

const (
	leaderKey     = "nomina:leader"
	leaderTTL     = 30 * time.Second
	checkInterval = 15 * time.Second
)

// WorkerSummary totals one worker's approved hours inside a period.
type WorkerSummary struct {
	WorkerID int     `json:"trabajador_id"`
	Name     string  `json:"nombre,omitempty"`
	Hours    float64 `json:"horas"`
}

// PeriodSummary aggregates the unpaid approved tasks of one payroll period.
type PeriodSummary struct {
	Month      int             `json:"mes"`
	Year       int             `json:"anio"`
	TaskCount  int             `json:"tareas"`
	TotalHours float64         `json:"total_horas"`
	TotalValue float64         `json:"valor_total"`
	Workers    []WorkerSummary `json:"trabajadores"`
}

// Digest is the payload published to the payroll topic on every run.
type Digest struct {
	GeneratedAt time.Time       `json:"generado_en"`
	TaskCount   int             `json:"tareas_pendientes_pago"`
	Periods     []PeriodSummary `json:"periodos"`
}

// Payroll periodically publishes a digest of approved-but-unpaid tasks.
// Multiple instances may run; Redis leader election ensures only one fires.
type Payroll struct {
	tasks      postgres.TaskRepository
	producer   kafka.Producer
	redis      *redis.Client
	instanceID string
	schedule   cron.Schedule
	nextRun    time.Time
	logger     *slog.Logger
}

func New(
	tasks postgres.TaskRepository,
	producer kafka.Producer,
	redisClient *redis.Client,
	instanceID string,
	schedule cron.Schedule,
	logger *slog.Logger,
) *Payroll {
	return &Payroll{
		tasks:      tasks,
		producer:   producer,
		redis:      redisClient,
		instanceID: instanceID,
		schedule:   schedule,
		nextRun:    schedule.Next(time.Now().UTC()),
		logger:     logger,
	}
}

// Run is the main polling loop: renews leadership every tick and fires the
// digest when the schedule comes due. Blocks until ctx is cancelled.
func (p *Payroll) Run(ctx context.Context) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Payroll) tick(ctx context.Context) {
	if !p.acquireOrRenewLeadership(ctx) {
		telemetry.PayrollIsLeader.Set(0)
		return
	}
	telemetry.PayrollIsLeader.Set(1)

	now := time.Now().UTC()
	if now.Before(p.nextRun) {
		return
	}
	if err := p.RunDigest(ctx); err != nil {
		telemetry.PayrollRunsTotal.WithLabelValues("error").Inc()
		p.logger.Error("digest run failed", slog.String("error", err.Error()))
	} else {
		telemetry.PayrollRunsTotal.WithLabelValues("ok").Inc()
	}
	// Advance even after a failure so a broken run cannot fire every tick.
	p.nextRun = p.schedule.Next(now)
	p.logger.Info("next digest scheduled", slog.Time("at", p.nextRun))
}

// acquireOrRenewLeadership attempts SETNX; returns true if this instance is
// the leader. Renewal only touches the key when we still own it.
func (p *Payroll) acquireOrRenewLeadership(ctx context.Context) bool {
	ok, err := p.redis.SetNX(ctx, leaderKey, p.instanceID, leaderTTL).Result()
	if err != nil {
		p.logger.Error("leader election SetNX", slog.String("error", err.Error()))
		return false
	}
	if ok {
		p.logger.Info("acquired payroll leadership", slog.String("instance_id", p.instanceID))
		return true
	}

	renewScript := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		end
		return 0
	`)
	result, err := renewScript.Run(
		ctx, p.redis,
		[]string{leaderKey},
		p.instanceID,
		leaderTTL.Milliseconds(),
	).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		p.logger.Error("leader renewal", slog.String("error", err.Error()))
		return false
	}
	return result == 1
}

// RunDigest scans unpaid approved tasks and publishes one digest event.
func (p *Payroll) RunDigest(ctx context.Context) error {
	tasks, err := p.tasks.UnpaidApproved(ctx)
	if err != nil {
		return fmt.Errorf("load unpaid tasks: %w", err)
	}
	telemetry.PayrollUnpaidTasks.Set(float64(len(tasks)))

	digest := BuildDigest(tasks, time.Now().UTC())
	payload, err := json.Marshal(digest)
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}

	key := uuid.New().String()
	if err := p.producer.Publish(ctx, kafka.TopicPayrollDigest, key, payload); err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}

	p.logger.Info("payroll digest published",
		slog.Int("unpaid_tasks", digest.TaskCount),
		slog.Int("periods", len(digest.Periods)),
	)
	return nil
}

// BuildDigest groups unpaid approved tasks by payroll period and worker.
// Tasks without an approval record are skipped; they should not occur.
func BuildDigest(tasks []*domain.Task, now time.Time) Digest {
	type periodKey struct{ year, month int }

	periods := make(map[periodKey]*PeriodSummary)
	counted := 0
	for _, t := range tasks {
		if t.Approval == nil {
			continue
		}
		counted++
		k := periodKey{t.Approval.PayrollYear, t.Approval.PayrollMonth}
		ps, ok := periods[k]
		if !ok {
			ps = &PeriodSummary{Month: k.month, Year: k.year}
			periods[k] = ps
		}
		ps.TaskCount++
		ps.TotalHours += t.Approval.TotalWorkedHours
		ps.TotalValue += t.ServiceValue

		for _, w := range t.Workers {
			if w.ApprovedHours == nil {
				continue
			}
			found := false
			for i := range ps.Workers {
				if ps.Workers[i].WorkerID == w.WorkerID {
					ps.Workers[i].Hours += *w.ApprovedHours
					found = true
					break
				}
			}
			if !found {
				ps.Workers = append(ps.Workers, WorkerSummary{
					WorkerID: w.WorkerID,
					Name:     w.WorkerName,
					Hours:    *w.ApprovedHours,
				})
			}
		}
	}

	out := Digest{GeneratedAt: now, TaskCount: counted}
	for _, ps := range periods {
		sort.Slice(ps.Workers, func(i, j int) bool {
			return ps.Workers[i].WorkerID < ps.Workers[j].WorkerID
		})
		out.Periods = append(out.Periods, *ps)
	}
	sort.Slice(out.Periods, func(i, j int) bool {
		if out.Periods[i].Year != out.Periods[j].Year {
			return out.Periods[i].Year < out.Periods[j].Year
		}
		return out.Periods[i].Month < out.Periods[j].Month
	})
	return out
}

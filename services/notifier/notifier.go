// Package notifier consumes task events from Kafka and delivers them to the
// subscribed notification channels.
package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/kafka"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/notify"
	"github.com/Alex2744-cyber/Hoff-AppV2/pkg/retry"
	"github.com/Alex2744-cyber/Hoff-AppV2/pkg/telemetry"
)

// TopicDLQ receives events whose delivery exhausted all retries.
const TopicDLQ = kafka.TopicTaskEvents + ".dlq"

// Notifier consumes task events and fans them out to channels.
type Notifier struct {
	consumer kafka.Consumer
	producer kafka.Producer
	registry *notify.Registry

	maxRetries int
	timeout    time.Duration
	baseDelay  time.Duration
	logger     *slog.Logger

	wg sync.WaitGroup
}

// Option configures a Notifier.
type Option func(*Notifier)

func WithRetries(n int) Option             { return func(nf *Notifier) { nf.maxRetries = n } }
func WithTimeout(d time.Duration) Option   { return func(nf *Notifier) { nf.timeout = d } }
func WithBaseDelay(d time.Duration) Option { return func(nf *Notifier) { nf.baseDelay = d } }
func WithLogger(l *slog.Logger) Option     { return func(nf *Notifier) { nf.logger = l } }

// New constructs a Notifier with the given dependencies and options.
func New(consumer kafka.Consumer, producer kafka.Producer, registry *notify.Registry, opts ...Option) *Notifier {
	n := &Notifier{
		consumer:   consumer,
		producer:   producer,
		registry:   registry,
		maxRetries: 3,
		timeout:    30 * time.Second,
		baseDelay:  time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Run starts consuming and delivering events. Blocks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	return n.consumer.Subscribe(ctx, n.processMessage)
}

// Wait blocks until all in-flight deliveries finish. Call after Run returns.
func (n *Notifier) Wait() { n.wg.Wait() }

// processMessage is the Kafka HandlerFunc. It always returns nil so the
// offset is committed: undeliverable events go to the DLQ, never back onto
// the main topic.
func (n *Notifier) processMessage(consumerCtx context.Context, msg kafka.Message) error {
	var ev domain.TaskEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		n.logger.Error("malformed event message, discarding",
			slog.String("error", err.Error()),
			slog.String("raw", string(msg.Value)),
		)
		return nil
	}

	ctx, span := otel.Tracer("notifier").Start(consumerCtx, "notifier.process_event")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", ev.ID),
		attribute.String("event.type", string(ev.Type)),
		attribute.Int("tarea.id", ev.TaskID),
	)

	log := n.logger.With(
		slog.String("event_id", ev.ID),
		slog.String("tipo", string(ev.Type)),
		slog.Int("tarea_id", ev.TaskID),
	)

	channels := n.registry.ChannelsFor(ev.Type)
	if len(channels) == 0 {
		log.Debug("no channels subscribed, skipping")
		telemetry.NotifierEventsTotal.WithLabelValues(string(ev.Type), "skipped").Inc()
		return nil
	}

	n.wg.Add(1)
	defer n.wg.Done()

	notification := notify.Render(ev)
	failed := false
	for _, ch := range channels {
		if err := n.deliver(ctx, span, ch, notification); err != nil {
			failed = true
			log.Error("delivery failed after all retries",
				slog.String("channel", ch.Name()),
				slog.String("error", err.Error()),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "delivery exhausted all retries")
		}
	}

	if failed {
		if err := n.producer.Publish(ctx, TopicDLQ, ev.ID, msg.Value); err != nil {
			log.Error("failed to publish to DLQ", slog.String("error", err.Error()))
		}
		telemetry.NotifierDLQTotal.Inc()
		telemetry.NotifierEventsTotal.WithLabelValues(string(ev.Type), "dead").Inc()
		return nil
	}

	log.Info("event delivered", slog.Int("channels", len(channels)))
	telemetry.NotifierEventsTotal.WithLabelValues(string(ev.Type), "delivered").Inc()
	return nil
}

// deliver runs one channel's delivery under the retry policy.
func (n *Notifier) deliver(ctx context.Context, span trace.Span, ch notify.Channel, notification notify.Notification) error {
	start := time.Now()
	defer func() {
		telemetry.NotifierDeliveryDurationSeconds.WithLabelValues(ch.Name()).Observe(time.Since(start).Seconds())
	}()

	return retry.Do(ctx, retry.Policy{
		Attempts: n.maxRetries + 1,
		Base:     n.baseDelay,
		Notify: func(try int, err error) {
			telemetry.NotifierRetriesTotal.WithLabelValues(ch.Name()).Inc()
			n.logger.Warn("delivery attempt failed, retrying",
				slog.String("channel", ch.Name()),
				slog.Int("attempt", try),
				slog.String("error", err.Error()),
			)
		},
	}, func(context.Context) error {
		// Fresh timeout per attempt; spans stay parented to the event span.
		attemptCtx, cancel := context.WithTimeout(trace.ContextWithSpan(context.Background(), span), n.timeout)
		defer cancel()
		return ch.Deliver(attemptCtx, notification)
	})
}

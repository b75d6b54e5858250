package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/kafka"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/notify"
)

// ── mocks ────────────────────────────────────────────────────────────────────

type fakeProducer struct {
	topics []string
	err    error
}

func (p *fakeProducer) Publish(_ context.Context, topic, _ string, _ []byte) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	return nil
}

func (p *fakeProducer) PublishTaskEvent(context.Context, domain.TaskEvent) error { return nil }
func (p *fakeProducer) Close() error                                             { return nil }

type fakeChannel struct {
	name     string
	callsErr []error // errors to return per call; nil entry = success
	calls    int
}

func (c *fakeChannel) Name() string { return c.name }
func (c *fakeChannel) Deliver(_ context.Context, _ notify.Notification) error {
	var err error
	if c.calls < len(c.callsErr) {
		err = c.callsErr[c.calls]
	}
	c.calls++
	return err
}

// ── helpers ──────────────────────────────────────────────────────────────────

func newTestNotifier(prod *fakeProducer, reg *notify.Registry) *Notifier {
	return New(nil, prod, reg,
		WithLogger(slog.Default()),
		WithRetries(2),
		WithBaseDelay(time.Millisecond),
	)
}

func eventMsg(t *testing.T, evType domain.EventType, taskID int) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(domain.TaskEvent{ID: "ev-1", Type: evType, TaskID: taskID})
	require.NoError(t, err)
	return kafka.Message{Value: raw}
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestNotifier_DeliversToSubscribedChannel(t *testing.T) {
	prod := &fakeProducer{}
	ch := &fakeChannel{name: "email", callsErr: []error{nil}}
	reg := notify.NewRegistry()
	reg.Subscribe(ch, domain.EventTaskApproved)

	n := newTestNotifier(prod, reg)
	err := n.processMessage(context.Background(), eventMsg(t, domain.EventTaskApproved, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, ch.calls)
	assert.Empty(t, prod.topics, "no DLQ publish on success")
}

func TestNotifier_UnsubscribedTypeSkipped(t *testing.T) {
	prod := &fakeProducer{}
	ch := &fakeChannel{name: "email"}
	reg := notify.NewRegistry()
	reg.Subscribe(ch, domain.EventTaskApproved)

	n := newTestNotifier(prod, reg)
	err := n.processMessage(context.Background(), eventMsg(t, domain.EventTaskCreated, 1))
	require.NoError(t, err)

	assert.Equal(t, 0, ch.calls, "channel must not be called for unsubscribed types")
}

func TestNotifier_RetriesThenSucceeds(t *testing.T) {
	prod := &fakeProducer{}
	ch := &fakeChannel{name: "webhook", callsErr: []error{errors.New("transient"), nil}}
	reg := notify.NewRegistry()
	reg.Subscribe(ch, domain.EventTaskReturned)

	n := newTestNotifier(prod, reg)
	err := n.processMessage(context.Background(), eventMsg(t, domain.EventTaskReturned, 2))
	require.NoError(t, err)

	assert.Equal(t, 2, ch.calls)
	assert.Empty(t, prod.topics, "no DLQ when delivery eventually succeeds")
}

func TestNotifier_ExhaustedDeliveryGoesToDLQ(t *testing.T) {
	prod := &fakeProducer{}
	sentinel := errors.New("smtp down")
	ch := &fakeChannel{name: "email", callsErr: []error{sentinel, sentinel, sentinel}}
	reg := notify.NewRegistry()
	reg.Subscribe(ch, domain.EventTaskApproved)

	n := newTestNotifier(prod, reg)
	err := n.processMessage(context.Background(), eventMsg(t, domain.EventTaskApproved, 3))
	require.NoError(t, err, "processMessage always commits; failures go to the DLQ")

	assert.Equal(t, 3, ch.calls, "initial try plus two retries")
	assert.Contains(t, prod.topics, TopicDLQ)
}

func TestNotifier_OneChannelFailingStillDeliversOthers(t *testing.T) {
	prod := &fakeProducer{}
	bad := &fakeChannel{name: "webhook", callsErr: []error{errors.New("x"), errors.New("x"), errors.New("x")}}
	good := &fakeChannel{name: "email", callsErr: []error{nil}}
	reg := notify.NewRegistry()
	reg.Subscribe(bad, domain.EventTaskPaid)
	reg.Subscribe(good, domain.EventTaskPaid)

	n := newTestNotifier(prod, reg)
	err := n.processMessage(context.Background(), eventMsg(t, domain.EventTaskPaid, 4))
	require.NoError(t, err)

	assert.Equal(t, 1, good.calls)
	assert.Contains(t, prod.topics, TopicDLQ, "partial failure still lands in the DLQ")
}

func TestNotifier_MalformedJSONDiscarded(t *testing.T) {
	n := newTestNotifier(&fakeProducer{}, notify.NewRegistry())
	err := n.processMessage(context.Background(), kafka.Message{Value: []byte("not-json")})
	require.NoError(t, err, "malformed message must be silently discarded")
}

package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/notify"
)

func TestWebhookChannel_Name(t *testing.T) {
	ch := notify.NewWebhookChannel("http://localhost:0", "")
	assert.Equal(t, "webhook", ch.Name())
}

func TestWebhookChannel_Deliver_Success(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := notify.NewWebhookChannel(srv.URL, "")
	n := notify.Render(domain.TaskEvent{Type: domain.EventTaskCompleted, TaskID: 12, Status: domain.StatusCompleted})

	err := ch.Deliver(context.Background(), n)
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Contains(t, got, "asunto")
	assert.Contains(t, got, "evento")
}

func TestWebhookChannel_Deliver_SendsSecretHeader(t *testing.T) {
	var secret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret = r.Header.Get("X-Hoff-Secret")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := notify.NewWebhookChannel(srv.URL, "token123")

	err := ch.Deliver(context.Background(), notify.Render(domain.TaskEvent{Type: domain.EventTaskPaid, TaskID: 3}))
	require.NoError(t, err)
	assert.Equal(t, "token123", secret)
}

func TestWebhookChannel_Deliver_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ch := notify.NewWebhookChannel(srv.URL, "")

	err := ch.Deliver(context.Background(), notify.Render(domain.TaskEvent{Type: domain.EventTaskCreated, TaskID: 1}))
	require.Error(t, err, "status 500 should produce an error")
}

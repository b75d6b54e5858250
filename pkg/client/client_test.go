package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/forms"
)

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 400, "data": data})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

func TestLogin_StoresTokenAndSendsBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var req loginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ana", req.Username)
			respond(w, http.StatusOK, loginResponse{
				Token: "tok-123",
				User:  &domain.User{ID: 1, Username: "ana", Type: domain.UserAdmin},
			})
		case "/api/v1/tareas/7":
			gotAuth = r.Header.Get("Authorization")
			respond(w, http.StatusOK, Task{Task: domain.Task{ID: 7, Status: domain.StatusPending}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	user, err := c.Login(context.Background(), "  ana ", "secreto123")
	require.NoError(t, err)
	assert.Equal(t, domain.UserAdmin, user.Type)

	task, err := c.Task(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, task.ID)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestLogin_EmptyCredentialsRejectedLocally(t *testing.T) {
	c := New("http://unused.invalid")
	_, err := c.Login(context.Background(), "", "")

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestTask_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "tarea 99 not found")
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithToken("t")).Task(context.Background(), 99)

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "tarea", nf.Kind)
	assert.Equal(t, 99, nf.ID)
}

func TestCreateTask_InvalidFormNeverHitsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		respond(w, http.StatusCreated, Task{})
	}))
	defer srv.Close()

	form := forms.TaskForm{
		ClientID:           1,
		AddressID:          1,
		Date:               "2026-09-15",
		Description:        "limpieza general",
		EstimatedHoursText: "4:00",
		ServiceValueText:   "120",
		ServiceValue:       120,
		Workers: []forms.WorkerEntry{
			{WorkerID: 2, WorkerName: "Luis", HoursText: "5:00"}, // over the 4:00 estimate
		},
	}

	_, err := New(srv.URL, WithToken("t")).CreateTask(context.Background(), form)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "horas_asignadas", verr.Field)
	assert.Zero(t, calls)
}

func TestCreateTask_AssignsFormWorkers(t *testing.T) {
	var assignBodies []assignPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/tareas":
			respond(w, http.StatusCreated, Task{Task: domain.Task{ID: 5, Status: domain.StatusPending}})
		case "/api/v1/tareas/5/asignar":
			var body assignPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assignBodies = append(assignBodies, body)
			respond(w, http.StatusOK, Task{Task: domain.Task{ID: 5, Status: domain.StatusAssigned}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	form := forms.TaskForm{
		ClientID:           1,
		AddressID:          1,
		Date:               "2026-09-15",
		Description:        "limpieza general",
		EstimatedHoursText: "4:00",
		ServiceValueText:   "120",
		ServiceValue:       120,
		Workers: []forms.WorkerEntry{
			{WorkerID: 2, HoursText: "2:30"},
			{WorkerID: 3, HoursText: ""},
		},
	}

	task, err := New(srv.URL, WithToken("t")).CreateTask(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, task.Status)

	require.Len(t, assignBodies, 2)
	require.NotNil(t, assignBodies[0].Hours)
	assert.InDelta(t, 2.5, *assignBodies[0].Hours, 1e-9) // "2:30"
	assert.Nil(t, assignBodies[1].Hours)
}

func TestSetWorkerHours_ConvertsTimeText(t *testing.T) {
	var got setHoursPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(w, http.StatusOK, Task{Task: domain.Task{ID: 5}})
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithToken("t")).SetWorkerHours(context.Background(), 5, 2, "1:45")
	require.NoError(t, err)
	assert.Equal(t, 2, got.WorkerID)
	assert.InDelta(t, 1.75, got.Hours, 1e-9)

	_, err = New(srv.URL, WithToken("t")).SetWorkerHours(context.Background(), 5, 2, "1:99")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestApproveTask_RejectsBadHoursText(t *testing.T) {
	c := New("http://unused.invalid", WithToken("t"))
	_, err := c.ApproveTask(context.Background(), 5, "ok", []forms.WorkerEntry{
		{WorkerID: 2, WorkerName: "Luis", HoursText: ""},
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "Luis")
}

func TestServerErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusConflict, "the task was modified by someone else, reload and retry")
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithToken("t")).CancelTask(context.Background(), 5)

	var rf *domain.RequestFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, http.StatusConflict, rf.StatusCode)
	assert.Contains(t, rf.Message, "modified by someone else")
}

func TestNetworkErrorIsRequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := New(srv.URL, WithToken("t")).Clients(context.Background())

	var rf *domain.RequestFailure
	require.True(t, errors.As(err, &rf))
	assert.Zero(t, rf.StatusCode)
}

func TestTasks_FilterByStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pendiente", r.URL.Query().Get("estado"))
		respond(w, http.StatusOK, []Task{{Task: domain.Task{ID: 1}}, {Task: domain.Task{ID: 2}}})
	}))
	defer srv.Close()

	tasks, err := New(srv.URL, WithToken("t")).Tasks(context.Background(), domain.StatusPending)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

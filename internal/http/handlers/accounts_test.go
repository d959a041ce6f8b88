package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/tasks-be/internal/account"
	"github.com/hongminglow/tasks-be/internal/models"
	"github.com/hongminglow/tasks-be/internal/storage"
	"github.com/hongminglow/tasks-be/internal/storage/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, svc AccountService) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewAccountHandler(svc, discardLogger()).Register(mux)
	NewHealthHandler(time.Now(), nil).Register(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestAccountFlow(t *testing.T) {
	ts := newTestServer(t, account.NewService(memory.NewStore()))

	status, body := do(t, http.MethodPost, ts.URL+"/api/signup", map[string]string{
		"username": "alice", "name": "Alice A", "password": "pw1",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "Alice A", body["name"])
	assert.Equal(t, map[string]any{}, body["tasks"])
	assert.Equal(t, "auto", body["timezone"])
	assert.NotContains(t, body, "password")

	status, body = do(t, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"username": "alice", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Alice A", body["name"])

	status, body = do(t, http.MethodPut, ts.URL+"/api/tasks", map[string]any{
		"username": "alice",
		"tasks":    map[string]any{"1": map[string]any{"text": "buy milk"}},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"success": true}, body)

	status, body = do(t, http.MethodGet, ts.URL+"/api/tasks?username=alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"1": map[string]any{"text": "buy milk"}}, body["tasks"])
	assert.Equal(t, "auto", body["timezone"])
	assert.NotContains(t, body, "success")

	status, body = do(t, http.MethodDelete, ts.URL+"/api/tasks?username=alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"success": true}, body)

	_, body = do(t, http.MethodGet, ts.URL+"/api/tasks?username=alice", nil)
	assert.Equal(t, map[string]any{}, body["tasks"])
}

func TestTasksRouteAliases(t *testing.T) {
	ts := newTestServer(t, account.NewService(memory.NewStore()))

	status, _ := do(t, http.MethodPost, ts.URL+"/api/tasks/signup", map[string]string{
		"username": "bob", "name": "Bob", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, http.MethodPost, ts.URL+"/api/tasks/login", map[string]string{
		"username": "bob", "password": "pw",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bob", body["name"])
}

func TestUpdateProfileWithExplicitEmptyTasks(t *testing.T) {
	ts := newTestServer(t, account.NewService(memory.NewStore()))
	do(t, http.MethodPost, ts.URL+"/api/signup", map[string]string{"username": "alice", "name": "A", "password": "pw"})
	do(t, http.MethodPut, ts.URL+"/api/tasks", `{"username":"alice","tasks":{"1":{}},"timezone":"UTC"}`)

	status, _ := do(t, http.MethodPut, ts.URL+"/api/tasks", `{"username":"alice","tasks":{}}`)
	require.Equal(t, http.StatusOK, status)

	_, body := do(t, http.MethodGet, ts.URL+"/api/tasks?username=alice", nil)
	assert.Equal(t, map[string]any{}, body["tasks"])
	assert.Equal(t, "UTC", body["timezone"])
}

func TestUpdateProfileNullTimezoneResetsToDefault(t *testing.T) {
	ts := newTestServer(t, account.NewService(memory.NewStore()))
	do(t, http.MethodPost, ts.URL+"/api/signup", map[string]string{"username": "a", "name": "A", "password": "pw"})

	status, _ := do(t, http.MethodPut, ts.URL+"/api/tasks", `{"username":"a","timezone":"UTC"}`)
	require.Equal(t, http.StatusOK, status)
	_, body := do(t, http.MethodGet, ts.URL+"/api/tasks?username=a", nil)
	require.Equal(t, "UTC", body["timezone"])

	status, _ = do(t, http.MethodPut, ts.URL+"/api/tasks", `{"username":"a","timezone":null}`)
	require.Equal(t, http.StatusOK, status)

	_, body = do(t, http.MethodGet, ts.URL+"/api/tasks?username=a", nil)
	assert.Equal(t, "auto", body["timezone"])
	assert.Equal(t, map[string]any{}, body["tasks"])
}

func TestUpdateProfileRejectsNonStringTimezone(t *testing.T) {
	ts := newTestServer(t, account.NewService(memory.NewStore()))
	do(t, http.MethodPost, ts.URL+"/api/signup", map[string]string{"username": "a", "name": "A", "password": "pw"})

	status, body := do(t, http.MethodPut, ts.URL+"/api/tasks", `{"username":"a","timezone":5}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", body["kind"])
}

func TestFalsyTasksReadAsEmpty(t *testing.T) {
	ts := newTestServer(t, account.NewService(memory.NewStore()))
	do(t, http.MethodPost, ts.URL+"/api/signup", map[string]string{"username": "a", "name": "A", "password": "pw"})

	for _, tasks := range []string{`false`, `0`, `""`, `null`} {
		status, _ := do(t, http.MethodPut, ts.URL+"/api/tasks", `{"username":"a","tasks":`+tasks+`}`)
		require.Equal(t, http.StatusOK, status)

		_, body := do(t, http.MethodGet, ts.URL+"/api/tasks?username=a", nil)
		assert.Equal(t, map[string]any{}, body["tasks"], "tasks=%s", tasks)
	}
}

func TestUsernameFromBodyWhenQueryMissing(t *testing.T) {
	ts := newTestServer(t, account.NewService(memory.NewStore()))
	do(t, http.MethodPost, ts.URL+"/api/signup", map[string]string{"username": "alice", "name": "A", "password": "pw"})

	status, body := do(t, http.MethodDelete, ts.URL+"/api/tasks", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t, account.NewService(memory.NewStore()))
	do(t, http.MethodPost, ts.URL+"/api/signup", map[string]string{"username": "alice", "name": "A", "password": "pw"})

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantKind   string
		wantError  string
	}{
		{"signup missing field", http.MethodPost, "/api/signup", map[string]string{"username": "x"}, http.StatusBadRequest, "validation", "Username, name, and password are required"},
		{"signup duplicate", http.MethodPost, "/api/signup", map[string]string{"username": "alice", "name": "B", "password": "pw2"}, http.StatusConflict, "conflict", "Username already exists"},
		{"login wrong password", http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "bad"}, http.StatusUnauthorized, "authentication", "Invalid credentials"},
		{"login unknown user", http.MethodPost, "/api/login", map[string]string{"username": "ghost", "password": "pw"}, http.StatusUnauthorized, "authentication", "Invalid credentials"},
		{"read unknown user", http.MethodGet, "/api/tasks?username=ghost", nil, http.StatusNotFound, "not_found", "User not found"},
		{"read missing username", http.MethodGet, "/api/tasks", nil, http.StatusBadRequest, "validation", "Username is required"},
		{"update missing username", http.MethodPut, "/api/tasks", map[string]any{"tasks": map[string]any{}}, http.StatusBadRequest, "validation", "Username is required"},
		{"clear missing username", http.MethodDelete, "/api/tasks", nil, http.StatusBadRequest, "validation", "Username is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, tt.method, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestMethodNotAllowedAndBadJSON(t *testing.T) {
	ts := newTestServer(t, account.NewService(memory.NewStore()))

	status, body := do(t, http.MethodGet, ts.URL+"/api/signup", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method not allowed", body["error"])

	status, _ = do(t, http.MethodPost, ts.URL+"/api/tasks", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	status, body = do(t, http.MethodPost, ts.URL+"/api/login", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid JSON payload", body["error"])
}

type brokenStore struct{}

func (brokenStore) FindOne(context.Context, storage.Filter) (models.UserRecord, error) {
	return models.UserRecord{}, errors.New("dial tcp: connection refused")
}

func (brokenStore) InsertOne(context.Context, models.UserRecord) error {
	return errors.New("dial tcp: connection refused")
}

func (brokenStore) UpdateOne(context.Context, storage.Filter, storage.Update) error {
	return errors.New("dial tcp: connection refused")
}

func TestStoreFailureIsStructured(t *testing.T) {
	ts := newTestServer(t, account.NewService(brokenStore{}))

	status, body := do(t, http.MethodGet, ts.URL+"/api/tasks?username=alice", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "store", body["kind"])
	assert.Equal(t, "Database error", body["error"])
	assert.Equal(t, "dial tcp: connection refused", body["message"])
}

type lazyStub struct{ connected bool }

func (l lazyStub) Connected() bool { return l.connected }

func TestHealth(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(time.Now(), lazyStub{connected: true}).Register(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	status, body := do(t, http.MethodGet, ts.URL+"/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["store"])

	status, _ = do(t, http.MethodPost, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

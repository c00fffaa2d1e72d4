package ci_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qadash/qa_dashboard_REST_server/internal/clients/ci"
	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

func newClient(t *testing.T, handler http.HandlerFunc) *ci.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	return ci.New(server.URL, 5*time.Second, log)
}

func TestTriggerSpecRerun_Success(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/jenkins/rerun/spec", r.URL.Path)
		assert.Equal(t, "sid=abc", r.Header.Get("Cookie"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SPEC", body["scope"])
		assert.Equal(t, "cypress/e2e/login.cy.js", body["target"])
		assert.Equal(t, "tc1", body["testSpecId"])

		json.NewEncoder(w).Encode(map[string]string{"queueUrl": "queue/42"})
	})

	queueURL, err := client.TriggerSpecRerun(context.Background(), "sid=abc", "cypress/e2e/login.cy.js", "tc1")
	require.NoError(t, err)
	assert.Equal(t, "queue/42", queueURL)
}

func TestTriggerSpecRerun_RejectionCarriesServerMessage(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "concurrent rerun in progress"})
	})

	_, err := client.TriggerSpecRerun(context.Background(), "sid=abc", "spec.js", "tc1")

	var rejected *domain.RerunRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "concurrent rerun in progress", rejected.Reason)
}

func TestTriggerSpecRerun_MissingQueueURLIsProtocolError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := client.TriggerSpecRerun(context.Background(), "sid=abc", "spec.js", "tc1")

	var protocol *domain.ProtocolError
	require.ErrorAs(t, err, &protocol)
	assert.Equal(t, "queueUrl", protocol.Missing)
}

func TestResolveQueue_ReturnsZeroUntilAssigned(t *testing.T) {
	assigned := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jenkins/queue/resolve", r.URL.Path)
		assert.Equal(t, "queue/42", r.URL.Query().Get("queueUrl"))

		if !assigned {
			assigned = true
			json.NewEncoder(w).Encode(map[string]any{})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"buildNumber": 7})
	})

	first, err := client.ResolveQueue(context.Background(), "sid=abc", "queue/42")
	require.NoError(t, err)
	assert.Zero(t, first)

	second, err := client.ResolveQueue(context.Background(), "sid=abc", "queue/42")
	require.NoError(t, err)
	assert.Equal(t, int64(7), second)
}

func TestBuildProgress(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jenkins/build/7/progress", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"progress": 80, "finished": true})
	})

	progress, err := client.BuildProgress(context.Background(), "sid=abc", 7)
	require.NoError(t, err)
	assert.Equal(t, 80, progress.Progress)
	assert.True(t, progress.Finished)
}

func TestBuildProgress_TransportFailureIsNetworkError(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	client := ci.New("http://127.0.0.1:1", time.Second, log)

	_, err := client.BuildProgress(context.Background(), "sid=abc", 7)

	var network *domain.NetworkError
	require.ErrorAs(t, err, &network)
}

package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-reminder-api/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(config.PushConfig{Endpoint: srv.URL, Timeout: 2 * time.Second})
	return client, srv
}

func TestSend_BatchAndTicketMapping(t *testing.T) {
	var received []pushMessage
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/--/api/v2/push/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"status":"ok"},{"status":"error","message":"device gone","details":{"error":"DeviceNotRegistered"}}]}`))
	})
	defer srv.Close()

	results, err := client.Send(context.Background(), []string{"tok-a", "tok-b"}, "Team Sync", "Starts in 15 minutes", map[string]any{"event_id": "x"})
	require.NoError(t, err)

	require.Len(t, received, 2)
	assert.Equal(t, "tok-a", received[0].To)
	assert.Equal(t, "Team Sync", received[0].Title)
	assert.Equal(t, "Starts in 15 minutes", received[0].Body)

	require.Len(t, results, 2)
	assert.True(t, results[0].OK)
	assert.False(t, results[0].Invalid)
	assert.False(t, results[1].OK)
	assert.True(t, results[1].Invalid)
	assert.Equal(t, "device gone", results[1].Reason)
}

func TestSend_NonOkFailureIsNotInvalid(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[{"status":"error","message":"rate limited","details":{"error":"MessageRateExceeded"}}]}`))
	})
	defer srv.Close()

	results, err := client.Send(context.Background(), []string{"tok-a"}, "t", "b", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.False(t, results[0].Invalid)
}

func TestSend_TicketCountMismatchIsAnError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[{"status":"ok"}]}`))
	})
	defer srv.Close()

	_, err := client.Send(context.Background(), []string{"tok-a", "tok-b"}, "t", "b", nil)
	require.Error(t, err)
}

func TestSend_ServerErrorStatus(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	_, err := client.Send(context.Background(), []string{"tok-a"}, "t", "b", nil)
	require.Error(t, err)
}

func TestSend_NoTokensIsANoop(t *testing.T) {
	called := false
	client, srv := newTestClient(func(http.ResponseWriter, *http.Request) { called = true })
	defer srv.Close()

	results, err := client.Send(context.Background(), nil, "t", "b", nil)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.False(t, called)
}

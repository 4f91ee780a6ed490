package travel

import (
	"context"
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
	client := NewClient(config.TravelConfig{Endpoint: srv.URL, Timeout: 2 * time.Second})
	return client, srv
}

func TestGetTravelTime(t *testing.T) {
	var path string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":1234.5}]}`))
	})
	defer srv.Close()

	d, err := client.GetTravelTime(context.Background(),
		Coordinates{Latitude: 52.52, Longitude: 13.405},
		Coordinates{Latitude: 52.5, Longitude: 13.4},
	)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(1234.5*float64(time.Second)), d)
	// OSRM expects lng,lat ordering.
	assert.Equal(t, "/route/v1/driving/13.405000,52.520000;13.400000,52.500000", path)
}

func TestGetTravelTime_NoRoute(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	})
	defer srv.Close()

	_, err := client.GetTravelTime(context.Background(), Coordinates{}, Coordinates{})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestGetTravelTime_EmptyRoutes(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[]}`))
	})
	defer srv.Close()

	_, err := client.GetTravelTime(context.Background(), Coordinates{}, Coordinates{})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestGetTravelTime_ServerError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	_, err := client.GetTravelTime(context.Background(), Coordinates{}, Coordinates{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRoute)
}

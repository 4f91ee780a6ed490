package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-reminder-api/core/config"
)

// ErrNoRoute means the routing backend could not produce a route between the
// two points. Callers treat it as "skip", not as a failure.
var ErrNoRoute = errors.New("no route between origin and destination")

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Estimator returns the expected travel duration from origin to destination.
type Estimator interface {
	GetTravelTime(ctx context.Context, origin, destination Coordinates) (time.Duration, error)
}

// Client talks to an OSRM-compatible routing endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(cfg config.TravelConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

func (c *Client) GetTravelTime(ctx context.Context, origin, destination Coordinates) (time.Duration, error) {
	// OSRM takes coordinates as lng,lat pairs.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		c.endpoint, origin.Longitude, origin.Latitude, destination.Longitude, destination.Latitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("travel time request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("routing endpoint returned status %d", resp.StatusCode)
	}

	var parsed routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode route response: %w", err)
	}
	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return 0, ErrNoRoute
	}

	return time.Duration(parsed.Routes[0].Duration * float64(time.Second)), nil
}

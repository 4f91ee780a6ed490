package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-reminder-api/core/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Location TTL: a report older than this is no longer a useful basis for a
// "time to leave" computation.
const locationTTL = 6 * time.Hour

type LocationCacheInterface interface {
	Set(ctx context.Context, userID uuid.UUID, lat, lng float64) error
	Get(ctx context.Context, userID uuid.UUID) (*UserLocation, error)
}

type UserLocation struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reported_at"`
}

// LocationCache keeps each user's last reported location in Redis. The data
// is ephemeral presence state, not a system of record.
type LocationCache struct {
	rdb *redis.Client
}

func NewLocationCache(rdb *redis.Client) *LocationCache {
	return &LocationCache{rdb: rdb}
}

func locationKey(userID uuid.UUID) string {
	return "user:location:" + userID.String()
}

func (c *LocationCache) Set(ctx context.Context, userID uuid.UUID, lat, lng float64) error {
	loc := UserLocation{Latitude: lat, Longitude: lng, ReportedAt: time.Now()}
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, locationKey(userID), data, locationTTL).Err(); err != nil {
		logger.Error("LocationCache:Set:Error:", err)
		return err
	}
	return nil
}

func (c *LocationCache) Get(ctx context.Context, userID uuid.UUID) (*UserLocation, error) {
	data, err := c.rdb.Get(ctx, locationKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		logger.Error("LocationCache:Get:Error:", err)
		return nil, err
	}

	var loc UserLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

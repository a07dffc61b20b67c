// Package cache holds the optional Redis layer. When Redis is not
// reachable the package degrades to no-ops and every read reports a
// miss; the engine recomputes from the store instead.
package cache

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"lims-backend/internal/models"
)

const (
	dashboardKeyPrefix = "dashboard:"
	dashboardTTL       = 5 * time.Minute
)

var client *redis.Client

// Init initializes the Redis connection
func Init(addr, password string) error {
	if addr == "" {
		host := os.Getenv("REDIS_SERVICE_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("REDIS_SERVICE_PORT")
		if port == "" {
			port = "6379"
		}
		addr = host + ":" + port
	}

	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

func dashboardKey(centerID string) string {
	if centerID == "" {
		return dashboardKeyPrefix + "all"
	}
	return dashboardKeyPrefix + centerID
}

// GetDashboard returns a cached dashboard if present
func GetDashboard(ctx context.Context, centerID string) (*models.Dashboard, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, dashboardKey(centerID)).Bytes()
	if err != nil {
		return nil, false
	}
	var d models.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, false
	}
	return &d, true
}

// SetDashboard caches a computed dashboard
func SetDashboard(ctx context.Context, centerID string, d *models.Dashboard) {
	if client == nil {
		return
	}
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	client.Set(ctx, dashboardKey(centerID), data, dashboardTTL)
}

// InvalidateDashboard drops every cached dashboard variant after a
// mutation
func InvalidateDashboard(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, dashboardKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

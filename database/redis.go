package database

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	config "github.com/wanderpal/tour_guide/configs"
)

var RDB *redis.Client

// ConnectRedis sets up the client used by the PIN-attempt rate limiter.
// A missing REDIS_URL leaves RDB nil and the limiter disabled.
func ConnectRedis() {
	redisURL := config.Config("REDIS_URL")
	if redisURL == "" {
		log.Println("⚠️ REDIS_URL not set, PIN rate limiting disabled")
		return
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("🔥 Invalid REDIS_URL: %v", err)
	}

	RDB = redis.NewClient(opts)
	if err := RDB.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("🔥 Failed to connect to Redis: %v", err)
	}

	log.Println("✅ Redis connected successfully")
}

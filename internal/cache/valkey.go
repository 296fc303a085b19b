// Package cache provides the Valkey (Redis-compatible) client and the
// response cache for the public content API.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds the startup ping; a dead Valkey should fail the
// boot quickly instead of hanging it.
const pingTimeout = 5 * time.Second

// ConnectValkey opens a client on DB 0 and verifies it with a ping.
func ConnectValkey(host, port, password string) (*redis.Client, error) {
	addr := host + ":" + port
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	slog.Info("valkey connected", "addr", addr)
	return client, nil
}

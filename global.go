package odatanode

import (
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	DB     *gorm.DB
	Logger = zerolog.Nop()
	Redis  *redis.Client
	// NATS is nil when the broker is unreachable, progress publishing is then disabled
	NATS *nats.Conn
)

// Close releases the broker and cache connections opened by InitConfig
func Close() {
	if NATS != nil {
		if err := NATS.Drain(); err != nil {
			Logger.Warn().Err(err).Msg("Failed to drain NATS connection")
		}
	}
	if Redis != nil {
		if err := Redis.Close(); err != nil {
			Logger.Warn().Err(err).Msg("Failed to close Redis connection")
		}
	}
}

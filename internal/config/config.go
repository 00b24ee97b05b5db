package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the TeleStack bot. It is loaded
// once at startup and read-only afterwards; no other package consults the
// environment for these values.
type Config struct {
	TelegramToken  string        `env:"TELEGRAM_BOT_TOKEN,required"`
	AllowedChatIDs []int64       `env:"TELEGRAM_ALLOWED_CHAT_IDS,required"`
	Cloud          string        `env:"OS_CLOUD,required"`
	AllowedNames   []string      `env:"ALLOWED_MACHINE_NAMES"`
	Addr           string        `env:"ADDR,default=:8080"`
	NATSURL        string        `env:"NATS_URL"`
	OTLPEndpoint   string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	PollTimeout    time.Duration `env:"POLL_TIMEOUT,default=30s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=15s"`
	TelegramDebug  bool          `env:"TELEGRAM_DEBUG,default=false"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

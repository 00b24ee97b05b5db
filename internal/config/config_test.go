package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, Config)
	}{
		{
			name: "all required fields present",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":        "123456:test-token",
				"TELEGRAM_ALLOWED_CHAT_IDS": "100,-20055",
				"OS_CLOUD":                  "prod",
			},
			check: func(t *testing.T, cfg Config) {
				if cfg.TelegramToken != "123456:test-token" {
					t.Errorf("TelegramToken = %q, want 123456:test-token", cfg.TelegramToken)
				}
				if len(cfg.AllowedChatIDs) != 2 || cfg.AllowedChatIDs[0] != 100 || cfg.AllowedChatIDs[1] != -20055 {
					t.Errorf("AllowedChatIDs = %v, want [100 -20055]", cfg.AllowedChatIDs)
				}
				if cfg.Cloud != "prod" {
					t.Errorf("Cloud = %q, want prod", cfg.Cloud)
				}
				if cfg.Addr != ":8080" {
					t.Errorf("Addr = %q, want :8080", cfg.Addr)
				}
				if cfg.PollTimeout != 30*time.Second {
					t.Errorf("PollTimeout = %s, want 30s", cfg.PollTimeout)
				}
				if cfg.RequestTimeout != 15*time.Second {
					t.Errorf("RequestTimeout = %s, want 15s", cfg.RequestTimeout)
				}
				if cfg.TelegramDebug {
					t.Error("TelegramDebug = true, want false")
				}
				if len(cfg.AllowedNames) != 0 {
					t.Errorf("AllowedNames = %v, want empty", cfg.AllowedNames)
				}
			},
		},
		{
			name: "overrides applied",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":        "tok",
				"TELEGRAM_ALLOWED_CHAT_IDS": "1",
				"OS_CLOUD":                  "staging",
				"ALLOWED_MACHINE_NAMES":     "web1,web2",
				"ADDR":                      ":9100",
				"NATS_URL":                  "nats://127.0.0.1:4222",
				"POLL_TIMEOUT":              "5s",
				"REQUEST_TIMEOUT":           "2s",
				"TELEGRAM_DEBUG":            "true",
			},
			check: func(t *testing.T, cfg Config) {
				if len(cfg.AllowedNames) != 2 || cfg.AllowedNames[0] != "web1" || cfg.AllowedNames[1] != "web2" {
					t.Errorf("AllowedNames = %v, want [web1 web2]", cfg.AllowedNames)
				}
				if cfg.Addr != ":9100" {
					t.Errorf("Addr = %q, want :9100", cfg.Addr)
				}
				if cfg.NATSURL != "nats://127.0.0.1:4222" {
					t.Errorf("NATSURL = %q", cfg.NATSURL)
				}
				if cfg.PollTimeout != 5*time.Second {
					t.Errorf("PollTimeout = %s, want 5s", cfg.PollTimeout)
				}
				if cfg.RequestTimeout != 2*time.Second {
					t.Errorf("RequestTimeout = %s, want 2s", cfg.RequestTimeout)
				}
				if !cfg.TelegramDebug {
					t.Error("TelegramDebug = false, want true")
				}
			},
		},
		{
			name: "missing token",
			env: map[string]string{
				"TELEGRAM_ALLOWED_CHAT_IDS": "1",
				"OS_CLOUD":                  "prod",
			},
			wantErr: true,
		},
		{
			name: "missing chat ids",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"OS_CLOUD":           "prod",
			},
			wantErr: true,
		},
		{
			name: "missing cloud profile",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":        "tok",
				"TELEGRAM_ALLOWED_CHAT_IDS": "1",
			},
			wantErr: true,
		},
		{
			name: "malformed chat id",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":        "tok",
				"TELEGRAM_ALLOWED_CHAT_IDS": "1,abc",
				"OS_CLOUD":                  "prod",
			},
			wantErr: true,
		},
	}

	keys := []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_ALLOWED_CHAT_IDS", "OS_CLOUD",
		"ALLOWED_MACHINE_NAMES", "ADDR", "NATS_URL", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"POLL_TIMEOUT", "REQUEST_TIMEOUT", "TELEGRAM_DEBUG",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range keys {
				// t.Setenv registers the restore; Unsetenv clears the
				// variable so required-field cases see it as absent.
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := Load(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

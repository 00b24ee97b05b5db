package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dwesh163/TeleStack/internal/audit"
	"github.com/dwesh163/TeleStack/internal/bot"
	"github.com/dwesh163/TeleStack/internal/compute"
	"github.com/dwesh163/TeleStack/internal/config"
	"github.com/dwesh163/TeleStack/internal/metrics"
	"github.com/dwesh163/TeleStack/internal/ops"
	"github.com/dwesh163/TeleStack/internal/otelinit"
	"github.com/dwesh163/TeleStack/internal/render"
)

const serviceName = "telestack"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "telestack",
		Short:         "Telegram control panel for allow-listed OpenStack machines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the telestack version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// newCheckCommand builds the preflight command: load config, authenticate
// against the cloud, list machines once and print the counts.
func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify configuration and cloud connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			_ = godotenv.Load()

			cfg, err := config.Load(ctx)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			cloud, err := compute.Connect(ctx, cfg.Cloud, compute.NewAllowlist(cfg.AllowedNames), cfg.RequestTimeout)
			if err != nil {
				return err
			}

			machines, err := cloud.Machines(ctx)
			if err != nil {
				return err
			}

			s := compute.Summarize(machines)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cloud %q reachable, %d machine(s) visible\n", cfg.Cloud, s.Total)
			fmt.Fprintf(out, "active=%d shutoff=%d other=%d\n", s.Active, s.Shutoff, s.Other)
			return nil
		},
	}
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cleanup, err := otelinit.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown otel")
		}
	}()

	cloud, err := compute.Connect(ctx, cfg.Cloud, compute.NewAllowlist(cfg.AllowedNames), cfg.RequestTimeout,
		compute.WithObserver(metrics.ObserveCloudRequest),
		compute.WithLogger(log.With().Str("component", "compute").Logger()),
	)
	if err != nil {
		return fmt.Errorf("connect cloud: %w", err)
	}
	log.Info().Str("cloud", cfg.Cloud).Msg("cloud authenticated")

	var auditor *audit.Publisher
	if cfg.NATSURL != "" {
		auditor, err = audit.Connect(cfg.NATSURL, log.With().Str("component", "audit").Logger())
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer auditor.Close()
	}

	readiness := &ops.Readiness{}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           ops.Router(readiness),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting ops listener")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ops listener")
		}
	}()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("connect telegram: %w", err)
	}
	api.Debug = cfg.TelegramDebug
	log.Info().Str("account", api.Self.UserName).Msg("telegram authorized")

	engine, err := render.New()
	if err != nil {
		return fmt.Errorf("init templates: %w", err)
	}

	readiness.Set()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(cfg.PollTimeout.Seconds())
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	b := bot.New(api, cloud, engine, auditor, cfg.AllowedChatIDs, log.With().Str("component", "bot").Logger())
	b.Run(ctx, updates)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown ops listener")
	}
	return nil
}

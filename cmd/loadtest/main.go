// Entry point for the load-test harness: provision a code pool through the
// booking workflow, spread it across virtual users, fire it at the validation
// endpoint and judge the run against the configured thresholds.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"redemption.loadtest/internal/config"
	"redemption.loadtest/internal/provision"
	"redemption.loadtest/internal/runner"
	"redemption.loadtest/pkg/logger"
	"redemption.loadtest/pkg/telemetry"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	// Configure OpenTelemetry tracing; local runs trace to stderr
	otlpEndpoint := cfg.OTLPEndpoint
	if cfg.IsLocalDev {
		otlpEndpoint = ""
	}
	shutdownTracer, err := telemetry.InitTracer("code-loadtest", otlpEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, span := otel.Tracer("loadtest").Start(ctx, "load_test_run")
	defer span.End()
	ctx = logger.EnrichContextWithLogger(ctx)

	// Provision the code pool before any load is generated. A provisioning
	// failure must prevent the run entirely: firing against an empty or
	// partial pool would measure nothing.
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	bookingClient := provision.NewHTTPClient(cfg.BookingAPIURL, cfg.APIToken, timeout)
	provisioner := provision.NewProvisioner(bookingClient)

	pool, err := provisioner.Provision(ctx, cfg.SessionID, cfg.Orders, cfg.TicketsPerOrder)
	if err != nil {
		log.Fatal().Err(err).Msg("Provisioning failed, load run will not start")
	}

	log.Info().
		Int("virtual_users", cfg.VirtualUsers).
		Int("codes", len(pool)).
		Str("target", cfg.TargetURL).
		Msg("Starting load run")

	r := runner.New(runner.Options{
		TargetURL:    cfg.TargetURL,
		Token:        cfg.APIToken,
		VirtualUsers: cfg.VirtualUsers,
		WorkerRPS:    cfg.WorkerRPS,
		Timeout:      timeout,
	})

	metrics, err := r.Run(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("Load run failed")
	}

	runner.LogSummary(metrics)

	thresholds := runner.Thresholds{
		MinSuccessRate: cfg.MinSuccessRate,
		MaxP95:         time.Duration(cfg.MaxP95Millis) * time.Millisecond,
	}
	if err := thresholds.Evaluate(metrics); err != nil {
		log.Error().Err(err).Msg("Run thresholds violated")
		span.End()
		_ = shutdownTracer(context.Background())
		os.Exit(1)
	}

	log.Info().Msg("All thresholds passed")
}

// Entry point for dry-run provisioning: walk the booking workflow and print
// the resulting code pool without generating any load. Useful for verifying
// credentials and booking-API health before a real run.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"redemption.loadtest/internal/config"
	"redemption.loadtest/internal/provision"
	"redemption.loadtest/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	bookingClient := provision.NewHTTPClient(cfg.BookingAPIURL, cfg.APIToken, timeout)
	provisioner := provision.NewProvisioner(bookingClient)

	pool, err := provisioner.Provision(ctx, cfg.SessionID, cfg.Orders, cfg.TicketsPerOrder)
	if err != nil {
		log.Fatal().Err(err).Msg("Provisioning failed")
	}

	// One code per line so the output can be piped into other tooling.
	for _, code := range pool {
		fmt.Println(code)
	}
}

// Package provision manufactures the pool of redeemable codes a load run fires
// at the validation endpoint. Codes come out of a fixed four-step booking
// workflow: create a cart, prepare it, book it free, read the ticket's codes.
package provision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Provisioner drives the booking workflow once per order and concatenates the
// resulting code lists, in order, into the final pool.
type Provisioner struct {
	api BookingAPI
}

// NewProvisioner creates a provisioner on top of a booking API client.
func NewProvisioner(api BookingAPI) *Provisioner {
	return &Provisioner{api: api}
}

// Provision runs the four-step workflow orders times and returns the combined
// code pool. The workflow is strictly sequential: each step needs the
// identifier returned by the previous one, and orders run one after another to
// keep load on the booking system predictable. The first error aborts the
// whole call; there is no retry and no partial pool.
func (p *Provisioner) Provision(ctx context.Context, sessionID, orders, ticketsPerOrder int) ([]string, error) {
	if orders < 1 {
		return nil, fmt.Errorf("%w: orders must be >= 1, got %d", ErrInvalidArgument, orders)
	}
	if ticketsPerOrder < 1 {
		return nil, fmt.Errorf("%w: ticketsPerOrder must be >= 1, got %d", ErrInvalidArgument, ticketsPerOrder)
	}

	pool := make([]string, 0, orders*ticketsPerOrder)
	for order := 1; order <= orders; order++ {
		codes, err := p.provisionOrder(ctx, order, sessionID, ticketsPerOrder)
		if err != nil {
			return nil, err
		}
		pool = append(pool, codes...)
	}

	log.Ctx(ctx).Info().Int("orders", orders).Int("codes", len(pool)).Msg("Code pool provisioned")
	return pool, nil
}

// provisionOrder walks one order through the booking workflow. Code values are
// never logged, only counts.
func (p *Provisioner) provisionOrder(ctx context.Context, order, sessionID, tickets int) ([]string, error) {
	tracer := otel.Tracer("provision")
	ctx, span := tracer.Start(ctx, "provision_order")
	span.SetAttributes(attribute.Int("order", order), attribute.Int("tickets", tickets))
	defer span.End()

	cartID, err := p.api.CreateCart(ctx, sessionID, tickets)
	if err != nil {
		return nil, &ProvisioningError{Step: "createCart", Order: order, Err: err}
	}

	if err := p.api.PrepareBooking(ctx, cartID); err != nil {
		return nil, &ProvisioningError{Step: "prepareBooking", Order: order, Err: err}
	}

	ticketID, err := p.api.BookCart(ctx, cartID)
	if err != nil {
		return nil, &ProvisioningError{Step: "bookCart", Order: order, Err: err}
	}

	codes, err := p.api.FetchCodes(ctx, ticketID)
	if err != nil {
		return nil, &ProvisioningError{Step: "fetchCodes", Order: order, Err: err}
	}

	log.Ctx(ctx).Debug().Int("order", order).Int("codes", len(codes)).Msg("Order provisioned")
	return codes, nil
}

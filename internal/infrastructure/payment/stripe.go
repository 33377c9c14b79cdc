package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"go.uber.org/zap"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

// StripeProcessor places manual-capture holds on the agreed fare once a
// driver is selected. Capture happens at trip completion through a separate
// settlement job.
type StripeProcessor struct {
	logger *zap.Logger
}

// NewStripeProcessor configures the stripe client with the given API key
func NewStripeProcessor(apiKey string, logger *zap.Logger) (*StripeProcessor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stripe api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	stripe.Key = apiKey
	return &StripeProcessor{logger: logger}, nil
}

// HoldFare creates a PaymentIntent with capture_method=manual for the bid
// amount and returns its ID as the hold reference.
func (p *StripeProcessor) HoldFare(ctx context.Context, rideID, driverID uuid.UUID, amount values.Money) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amount.Cents()),
		Currency:      stripe.String(strings.ToLower(amount.Currency())),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	params.Context = ctx
	params.AddMetadata("ride_id", rideID.String())
	params.AddMetadata("driver_id", driverID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("creating payment intent: %w", err)
	}

	p.logger.Info("fare hold created",
		zap.String("ride_id", rideID.String()),
		zap.String("payment_intent", pi.ID),
		zap.Int64("amount_cents", amount.Cents()))

	return pi.ID, nil
}

// CaptureFare finalizes a previously held fare
func (p *StripeProcessor) CaptureFare(ctx context.Context, holdRef string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	if _, err := paymentintent.Capture(holdRef, params); err != nil {
		return fmt.Errorf("capturing payment intent: %w", err)
	}
	return nil
}

// ReleaseFare cancels a hold, e.g. when the ride is cancelled after matching
func (p *StripeProcessor) ReleaseFare(ctx context.Context, holdRef string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := paymentintent.Cancel(holdRef, params); err != nil {
		return fmt.Errorf("cancelling payment intent: %w", err)
	}
	return nil
}

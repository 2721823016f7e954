package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go"
	stripepayout "github.com/stripe/stripe-go/payout"

	"github.com/mannion007/payouts/pkg/payout"
)

// payoutCreator is the slice of the stripe-go payout client the processor needs
type payoutCreator interface {
	New(params *stripe.PayoutParams) (*stripe.Payout, error)
}

// StripeProcessor is a Processor which pays out from a payee's Stripe connected account
type StripeProcessor struct {
	payouts payoutCreator
}

//Process creates a Stripe payout on the connected account named by the payee, returning an error, if any
func (stripeProc StripeProcessor) Process(ctx context.Context, p *payout.Payout) (*payout.Outcome, error) {
	params := &stripe.PayoutParams{
		Amount:   stripe.Int64(p.Amount.Value),
		Currency: stripe.String(strings.ToLower(p.Amount.Currency)),
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	params.Context = ctx
	params.SetStripeAccount(p.Payee)
	params.SetIdempotencyKey(p.ID.String())
	params.AddMetadata("payout_id", p.ID.String())

	po, err := stripeProc.payouts.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && permanentStatus(stripeErr.HTTPStatusCode) {
			return payout.Failed(p, stripeErr.RequestID, fmt.Sprintf("stripe rejected the payout (%s): %s", stripeErr.Type, stripeErr.Msg)), nil
		}
		return nil, fmt.Errorf("failed to create stripe payout: %w", err)
	}

	switch po.Status {
	case stripe.PayoutStatusFailed, stripe.PayoutStatusCanceled:
		reason := po.FailureMessage
		if reason == "" {
			reason = fmt.Sprintf("stripe payout %s", po.Status)
		}
		return payout.Failed(p, po.ID, reason), nil
	}

	return payout.Succeeded(p, po.ID), nil
}

// NewStripeProcessor is a factory for a StripeProcessor authenticated with the platform's secret key
func NewStripeProcessor(apiKey string) *StripeProcessor {
	client := stripepayout.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: apiKey,
	}

	return &StripeProcessor{payouts: client}
}

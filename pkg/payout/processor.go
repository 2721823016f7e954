package payout

import "context"

// Processor defines the behaviour required of a payout integration: given a Payout it
// moves the money and reports the vendor's view of the result
type Processor interface {
	Process(ctx context.Context, p *Payout) (*Outcome, error)
}

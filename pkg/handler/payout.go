package handler

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mannion007/payouts/pkg/payout"
)

// Resolver finds the Processor for a processor type
type Resolver interface {
	Resolve(t payout.ProcessorType) (payout.Processor, bool)
}

// DispatchPayout is a message handler which routes payouts to the processor registered for their type
type DispatchPayout struct {
	Resolver Resolver
	Logger   watermill.LoggerAdapter
}

//Process handles a payout command, returning an outcome event and an error, if any
func (dp DispatchPayout) Process(msg *message.Message) ([]*message.Message, error) {
	p, err := payout.UnmarshalPayout(msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payout %s: %w", msg.UUID, err)
	}

	fields := watermill.LogFields{
		"payout_id":      p.ID.String(),
		"processor_type": p.ProcessorType.String(),
	}

	var outcome *payout.Outcome

	proc, ok := dp.Resolver.Resolve(p.ProcessorType)
	switch {
	case ok:
		outcome, err = proc.Process(msg.Context(), p)
		if err != nil {
			return nil, fmt.Errorf("error when processing payout %s: %w", p.ID, err)
		}
	case p.ProcessorType.IsRetired():
		outcome = payout.Failed(p, "", fmt.Sprintf("processor type %s is retired", p.ProcessorType))
	default:
		outcome = payout.Failed(p, "", fmt.Sprintf("unknown processor type %q", p.ProcessorType))
	}

	fields["success"] = outcome.Success
	if outcome.Success {
		dp.Logger.Info("payout processed", fields)
	} else {
		fields["reason"] = outcome.Reason
		dp.Logger.Info("payout not processed", fields)
	}

	payload, err := payout.MarshalOutcome(outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to encode outcome: %w", err)
	}

	event := message.NewMessage(watermill.NewUUID(), payload)
	event.Metadata.Set(metadataProcessorType, outcome.ProcessorType.String())
	event.Metadata.Set(metadataPayoutID, outcome.PayoutID.String())

	return message.Messages{event}, nil
}

// NewDispatchPayout is a factory for the handler: DispatchPayout
func NewDispatchPayout(resolver Resolver, logger watermill.LoggerAdapter) *DispatchPayout {
	return &DispatchPayout{
		Resolver: resolver,
		Logger:   logger,
	}
}

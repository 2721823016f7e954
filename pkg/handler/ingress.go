package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ThreeDotsLabs/watermill"
	watermillhttp "github.com/ThreeDotsLabs/watermill-http/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/mannion007/payouts/pkg/payout"
)

const maxRequestBytes = 1 << 16

// UnmarshalRequest turns a POSTed PayoutRequest into a payout command. Requests for
// processor types that cannot take new payouts are rejected, watermill-http answers them
// with a 400.
func UnmarshalRequest(resolver Resolver) watermillhttp.UnmarshalMessageFunc {
	return func(topic string, request *http.Request) (*message.Message, error) {
		var req PayoutRequest

		decoder := json.NewDecoder(io.LimitReader(request.Body, maxRequestBytes))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return nil, fmt.Errorf("failed to decode payout request: %w", err)
		}

		if err := req.Validate(); err != nil {
			return nil, err
		}

		p := req.Payout()
		if _, ok := resolver.Resolve(p.ProcessorType); !ok {
			return nil, fmt.Errorf("processor type %s does not accept new payouts", p.ProcessorType)
		}

		payload, err := payout.MarshalPayout(p)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payout: %w", err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(metadataProcessorType, p.ProcessorType.String())
		msg.Metadata.Set(metadataPayoutID, p.ID.String())

		correlationID := request.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = p.ID.String()
		}
		middleware.SetCorrelationID(correlationID, msg)

		return msg, nil
	}
}

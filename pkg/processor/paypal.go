package processor

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mannion007/payouts/pkg/payout"
)

const payPalPayoutsPath = "/v1/payments/payouts"

type payPalAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type payPalItem struct {
	RecipientType string       `json:"recipient_type"`
	Amount        payPalAmount `json:"amount"`
	Receiver      string       `json:"receiver"`
	Note          string       `json:"note,omitempty"`
	SenderItemID  string       `json:"sender_item_id"`
}

type payPalBatchHeader struct {
	SenderBatchID string `json:"sender_batch_id"`
	EmailSubject  string `json:"email_subject,omitempty"`
}

type payPalPayoutRequest struct {
	SenderBatchHeader payPalBatchHeader `json:"sender_batch_header"`
	Items             []payPalItem      `json:"items"`
}

type payPalPayoutResponse struct {
	BatchHeader struct {
		PayoutBatchID string `json:"payout_batch_id"`
		BatchStatus   string `json:"batch_status"`
	} `json:"batch_header"`
}

// PayPalProcessor is a Processor which sends single item batches through the PayPal Payouts API
type PayPalProcessor struct {
	client      *http.Client
	endpoint    string
	accessToken string
}

//Process sends the payout to the payee's PayPal e-mail, returning an error, if any
func (payPalProc PayPalProcessor) Process(ctx context.Context, p *payout.Payout) (*payout.Outcome, error) {
	value, err := p.Amount.Decimal()
	if err != nil {
		return payout.Failed(p, "", err.Error()), nil
	}

	request := payPalPayoutRequest{
		SenderBatchHeader: payPalBatchHeader{
			SenderBatchID: p.ID.String(),
			EmailSubject:  "You have a payout!",
		},
		Items: []payPalItem{{
			RecipientType: "EMAIL",
			Amount: payPalAmount{
				Value:    value,
				Currency: strings.ToUpper(p.Amount.Currency),
			},
			Receiver:     p.Payee,
			Note:         p.Description,
			SenderItemID: p.ID.String(),
		}},
	}

	var response payPalPayoutResponse
	if err := postJSON(ctx, payPalProc.client, payPalProc.endpoint+payPalPayoutsPath, payPalProc.accessToken, request, &response); err != nil {
		if rejected, ok := rejection(err); ok {
			return payout.Failed(p, "", fmt.Sprintf("paypal rejected the payout (%d): %s", rejected.StatusCode, rejected.Body)), nil
		}
		return nil, fmt.Errorf("failed to create paypal payout: %w", err)
	}

	reference := response.BatchHeader.PayoutBatchID
	if response.BatchHeader.BatchStatus == "DENIED" {
		return payout.Failed(p, reference, "paypal denied the payout batch"), nil
	}

	return payout.Succeeded(p, reference), nil
}

// NewPayPalProcessor is a factory for a PayPalProcessor with sensible defaults
func NewPayPalProcessor(endpoint, accessToken string) *PayPalProcessor {
	return &PayPalProcessor{
		client:      newHTTPClient(),
		endpoint:    strings.TrimRight(endpoint, "/"),
		accessToken: accessToken,
	}
}

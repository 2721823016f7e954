package processor

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mannion007/payouts/pkg/payout"
)

type wiseQuoteRequest struct {
	SourceCurrency string  `json:"sourceCurrency"`
	TargetCurrency string  `json:"targetCurrency"`
	TargetAmount   float64 `json:"targetAmount"`
	TargetAccount  int64   `json:"targetAccount"`
}

type wiseQuoteResponse struct {
	ID string `json:"id"`
}

type wiseTransferDetails struct {
	Reference string `json:"reference,omitempty"`
}

type wiseTransferRequest struct {
	TargetAccount         int64               `json:"targetAccount"`
	QuoteUUID             string              `json:"quoteUuid"`
	CustomerTransactionID string              `json:"customerTransactionId"`
	Details               wiseTransferDetails `json:"details"`
}

type wiseTransferResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// WiseProcessor is a Processor which quotes and then creates a transfer through the Wise API
type WiseProcessor struct {
	client    *http.Client
	endpoint  string
	apiToken  string
	profileID string
}

//Process pays the payee's Wise recipient account, returning an error, if any
func (wiseProc WiseProcessor) Process(ctx context.Context, p *payout.Payout) (*payout.Outcome, error) {
	account, err := strconv.ParseInt(p.Payee, 10, 64)
	if err != nil {
		return payout.Failed(p, "", fmt.Sprintf("invalid wise recipient account %q", p.Payee)), nil
	}

	decimal, err := p.Amount.Decimal()
	if err != nil {
		return payout.Failed(p, "", err.Error()), nil
	}

	target, err := strconv.ParseFloat(decimal, 64)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(p.Amount.Currency)

	var quote wiseQuoteResponse
	quoteURL := fmt.Sprintf("%s/v3/profiles/%s/quotes", wiseProc.endpoint, wiseProc.profileID)
	quoteRequest := wiseQuoteRequest{
		SourceCurrency: currency,
		TargetCurrency: currency,
		TargetAmount:   target,
		TargetAccount:  account,
	}
	if err := postJSON(ctx, wiseProc.client, quoteURL, wiseProc.apiToken, quoteRequest, &quote); err != nil {
		if rejected, ok := rejection(err); ok {
			return payout.Failed(p, "", fmt.Sprintf("wise rejected the quote (%d): %s", rejected.StatusCode, rejected.Body)), nil
		}
		return nil, fmt.Errorf("failed to quote wise transfer: %w", err)
	}

	var transfer wiseTransferResponse
	transferRequest := wiseTransferRequest{
		TargetAccount:         account,
		QuoteUUID:             quote.ID,
		CustomerTransactionID: p.ID.String(),
		Details:               wiseTransferDetails{Reference: p.Description},
	}
	if err := postJSON(ctx, wiseProc.client, wiseProc.endpoint+"/v1/transfers", wiseProc.apiToken, transferRequest, &transfer); err != nil {
		if rejected, ok := rejection(err); ok {
			return payout.Failed(p, quote.ID, fmt.Sprintf("wise rejected the transfer (%d): %s", rejected.StatusCode, rejected.Body)), nil
		}
		return nil, fmt.Errorf("failed to create wise transfer: %w", err)
	}

	reference := strconv.FormatInt(transfer.ID, 10)
	switch transfer.Status {
	case "cancelled", "funds_refunded", "bounced_back":
		return payout.Failed(p, reference, "wise transfer "+transfer.Status), nil
	}

	return payout.Succeeded(p, reference), nil
}

// NewWiseProcessor is a factory for a WiseProcessor with sensible defaults
func NewWiseProcessor(endpoint, apiToken, profileID string) *WiseProcessor {
	return &WiseProcessor{
		client:    newHTTPClient(),
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiToken:  apiToken,
		profileID: profileID,
	}
}

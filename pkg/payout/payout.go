package payout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bojanz/currency"
	"github.com/google/uuid"
)

// idNamespace is a uuidv5 namespace for deriving payout IDs from idempotency tokens
var idNamespace = uuid.MustParse("6c0f6d2e-5b7a-4f0e-9a43-1b2f7d8e9c10")

// ErrUnknownCurrency is returned when an Amount's currency is not an ISO-4217 code
var ErrUnknownCurrency = errors.New("unknown currency")

// Amount is comprised of a currency i.e. "GBP" and a value in the smallest denomination i.e. GBP, 100 = £1.00
type Amount struct {
	Currency string
	Value    int64
}

// Decimal renders the amount in major units using the currency's exponent,
// i.e. GBP 1050 => "10.50", JPY 1050 => "1050", KWD 1050 => "1.050"
func (a Amount) Decimal() (string, error) {
	digits, ok := currency.GetDigits(strings.ToUpper(a.Currency))
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, a.Currency)
	}

	sign := ""
	v := a.Value
	if v < 0 {
		sign = "-"
		v = -v
	}
	if digits == 0 {
		return fmt.Sprintf("%s%d", sign, v), nil
	}

	unit := int64(1)
	for i := uint8(0); i < digits; i++ {
		unit *= 10
	}
	return fmt.Sprintf("%s%d.%0*d", sign, v/unit, int(digits), v%unit), nil
}

// Payout is an aggregate of all the details required to send money to a payee through one processor
type Payout struct {
	ID            uuid.UUID
	ProcessorType ProcessorType
	// Payee is the processor-side destination: an e-mail for PayPal, a connected account for
	// Stripe, a recipient account id for Wise
	Payee       string
	Amount      Amount
	Description string
	RequestedAt time.Time
}

// Outcome is the result of handing a Payout to a Processor
type Outcome struct {
	PayoutID        uuid.UUID
	ProcessorType   ProcessorType
	VendorReference string
	Success         bool
	Reason          string
}

// IDFromToken derives a stable payout ID from a client supplied idempotency token, so
// that a retried request always maps to the same payout
func IDFromToken(token string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(token))
}

// New is a factory for Payout
func New(token string, processorType ProcessorType, payee string, amount Amount, description string) *Payout {
	return &Payout{
		ID:            IDFromToken(token),
		ProcessorType: processorType,
		Payee:         payee,
		Amount:        amount,
		Description:   description,
		RequestedAt:   time.Now().UTC(),
	}
}

// Succeeded is a factory for a successful Outcome
func Succeeded(p *Payout, reference string) *Outcome {
	return &Outcome{
		PayoutID:        p.ID,
		ProcessorType:   p.ProcessorType,
		VendorReference: reference,
		Success:         true,
	}
}

// Failed is a factory for an unsuccessful Outcome
func Failed(p *Payout, reference, reason string) *Outcome {
	return &Outcome{
		PayoutID:        p.ID,
		ProcessorType:   p.ProcessorType,
		VendorReference: reference,
		Reason:          reason,
	}
}

package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mannion007/payouts/pkg/payout"
)

const (
	metadataProcessorType = "processor_type"
	metadataPayoutID      = "payout_id"
)

type Amount struct {
	Currency string `json:"currency" validate:"required,iso4217"`
	Value    int64  `json:"value" validate:"gt=0"`
}

type PayoutRequest struct {
	IdempotencyToken string `json:"idempotency_token" validate:"required,max=255"`
	ProcessorType    string `json:"processor_type" validate:"required,processor_type"`
	Payee            string `json:"payee" validate:"required"`
	Amount           Amount `json:"amount"`
	Description      string `json:"description" validate:"max=140"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("processor_type", func(fl validator.FieldLevel) bool {
		_, ok := payout.ParseProcessorType(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks the request is well formed. Retired processor types are well formed.
func (r PayoutRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	problems := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid payout request: %s", strings.Join(problems, ", "))
}

// Payout converts a validated request into a Payout
func (r PayoutRequest) Payout() *payout.Payout {
	amount := payout.Amount{
		Currency: r.Amount.Currency,
		Value:    r.Amount.Value,
	}
	return payout.New(r.IdempotencyToken, payout.ProcessorType(r.ProcessorType), r.Payee, amount, r.Description)
}

// ValidateRecord checks a processor type read from a historical payout record. Every
// identifier that has ever been valid passes, whether or not it can still take payouts.
func ValidateRecord(processorType string) error {
	if _, ok := payout.ParseProcessorType(processorType); !ok {
		return fmt.Errorf("unrecognised processor type %q", processorType)
	}
	return nil
}

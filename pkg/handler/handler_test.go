package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannion007/payouts/pkg/payout"
	"github.com/mannion007/payouts/pkg/processor"
	"github.com/mannion007/payouts/pkg/registry"
)

type stubProcessor struct {
	calls int
	err   error
}

func (s *stubProcessor) Process(_ context.Context, p *payout.Payout) (*payout.Outcome, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return payout.Succeeded(p, "ref-"+p.ProcessorType.String()), nil
}

func newRegistry(t *testing.T, proc payout.Processor) *registry.Registry {
	t.Helper()

	r, err := registry.New(map[payout.ProcessorType]payout.Processor{
		payout.PayPal: proc,
		payout.Stripe: proc,
		payout.Wise:   proc,
	})
	require.NoError(t, err)
	return r
}

func command(t *testing.T, processorType payout.ProcessorType) *message.Message {
	t.Helper()

	p := payout.New("token-1", processorType, "payee", payout.Amount{Currency: "GBP", Value: 100}, "")
	payload, err := payout.MarshalPayout(p)
	require.NoError(t, err)

	return message.NewMessage(watermill.NewUUID(), payload)
}

func dispatch(t *testing.T, h *DispatchPayout, msg *message.Message) *payout.Outcome {
	t.Helper()

	events, err := h.Process(msg)
	require.NoError(t, err)
	require.Len(t, events, 1)

	outcome, err := payout.UnmarshalOutcome(events[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, outcome.PayoutID.String(), events[0].Metadata.Get(metadataPayoutID))
	return outcome
}

func TestDispatchActive(t *testing.T) {
	proc := &stubProcessor{}
	h := NewDispatchPayout(newRegistry(t, proc), watermill.NopLogger{})

	outcome := dispatch(t, h, command(t, payout.Stripe))

	assert.True(t, outcome.Success)
	assert.Equal(t, "ref-STRIPE", outcome.VendorReference)
	assert.Equal(t, 1, proc.calls)
}

func TestDispatchRetired(t *testing.T) {
	proc := &stubProcessor{}
	h := NewDispatchPayout(newRegistry(t, proc), watermill.NopLogger{})

	outcome := dispatch(t, h, command(t, payout.Zengin))

	assert.False(t, outcome.Success)
	assert.Equal(t, "processor type ZENGIN is retired", outcome.Reason)
	assert.Zero(t, proc.calls)
}

func TestDispatchUnknown(t *testing.T) {
	proc := &stubProcessor{}
	h := NewDispatchPayout(newRegistry(t, proc), watermill.NopLogger{})

	outcome := dispatch(t, h, command(t, "VENMO"))

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Reason, "unknown processor type")
	assert.Zero(t, proc.calls)
}

func TestDispatchProcessorError(t *testing.T) {
	cause := errors.New("vendor unavailable")
	h := NewDispatchPayout(newRegistry(t, &stubProcessor{err: cause}), watermill.NopLogger{})

	events, err := h.Process(command(t, payout.PayPal))
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, events)
}

func TestDispatchPermanentRejection(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"name":"INSUFFICIENT_FUNDS"}`))
	}))
	defer server.Close()

	paypal := processor.NewPayPalProcessor(server.URL, "secret")
	h := NewDispatchPayout(newRegistry(t, paypal), watermill.NopLogger{})

	outcome := dispatch(t, h, command(t, payout.PayPal))

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Reason, "INSUFFICIENT_FUNDS")
	assert.Equal(t, 1, calls)
}

func TestDispatchTransientRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	paypal := processor.NewPayPalProcessor(server.URL, "secret")
	h := NewDispatchPayout(newRegistry(t, paypal), watermill.NopLogger{})

	events, err := h.Process(command(t, payout.PayPal))
	assert.ErrorIs(t, err, processor.ErrUnexpectedStatus)
	assert.Empty(t, events)
}

func TestDispatchMalformed(t *testing.T) {
	h := NewDispatchPayout(newRegistry(t, &stubProcessor{}), watermill.NopLogger{})

	_, err := h.Process(message.NewMessage(watermill.NewUUID(), []byte("garbage")))
	assert.ErrorIs(t, err, payout.ErrMalformed)
}

func TestPayoutRequestValidate(t *testing.T) {
	valid := PayoutRequest{
		IdempotencyToken: "abc",
		ProcessorType:    "PAYPAL",
		Payee:            "someone@example.com",
		Amount:           Amount{Currency: "USD", Value: 100},
	}
	require.NoError(t, valid.Validate())

	retired := valid
	retired.ProcessorType = "ACH"
	assert.NoError(t, retired.Validate())

	tests := []struct {
		name     string
		mutate   func(r *PayoutRequest)
		errorMsg string
	}{
		{"unknown processor", func(r *PayoutRequest) { r.ProcessorType = "VENMO" }, "ProcessorType failed processor_type"},
		{"missing token", func(r *PayoutRequest) { r.IdempotencyToken = "" }, "IdempotencyToken failed required"},
		{"bad currency", func(r *PayoutRequest) { r.Amount.Currency = "XYZ" }, "Currency failed iso4217"},
		{"zero value", func(r *PayoutRequest) { r.Amount.Value = 0 }, "Value failed gt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := req.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestValidateRecord(t *testing.T) {
	for _, typ := range payout.KnownTypes() {
		assert.NoError(t, ValidateRecord(typ.String()), typ)
	}
	assert.Error(t, ValidateRecord("VENMO"))
	assert.Error(t, ValidateRecord(""))
}

func TestUnmarshalRequest(t *testing.T) {
	unmarshal := UnmarshalRequest(newRegistry(t, &stubProcessor{}))

	body := `{"idempotency_token":"abc","processor_type":"WISE","payee":"9876","amount":{"currency":"EUR","value":2500}}`
	req := httptest.NewRequest("POST", "/payouts", strings.NewReader(body))
	req.Header.Set("X-Correlation-ID", "corr-1")

	msg, err := unmarshal("/payouts", req)
	require.NoError(t, err)

	p, err := payout.UnmarshalPayout(msg.Payload)
	require.NoError(t, err)

	assert.Equal(t, payout.IDFromToken("abc"), p.ID)
	assert.Equal(t, payout.Wise, p.ProcessorType)
	assert.Equal(t, payout.Amount{Currency: "EUR", Value: 2500}, p.Amount)
	assert.Equal(t, "WISE", msg.Metadata.Get(metadataProcessorType))
	assert.Equal(t, "corr-1", middleware.MessageCorrelationID(msg))
}

func TestUnmarshalRequestRejects(t *testing.T) {
	unmarshal := UnmarshalRequest(newRegistry(t, &stubProcessor{}))

	tests := []struct {
		name     string
		body     string
		errorMsg string
	}{
		{"retired processor", `{"idempotency_token":"abc","processor_type":"ACH","payee":"x","amount":{"currency":"USD","value":1}}`, "does not accept new payouts"},
		{"invalid request", `{"idempotency_token":"abc","processor_type":"PAYPAL","payee":"","amount":{"currency":"USD","value":1}}`, "Payee failed required"},
		{"unknown field", `{"idempotency_token":"abc","processor":"PAYPAL"}`, "failed to decode payout request"},
		{"not json", `payout please`, "failed to decode payout request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/payouts", strings.NewReader(tt.body))

			msg, err := unmarshal("/payouts", req)
			require.Error(t, err)
			assert.Nil(t, msg)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

package payout

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrMalformed is returned when a payload cannot be decoded into a Payout or Outcome
var ErrMalformed = errors.New("malformed payload")

// MarshalPayout encodes a Payout as a protobuf Struct
func MarshalPayout(p *Payout) ([]byte, error) {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":             structpb.NewStringValue(p.ID.String()),
		"processor_type": structpb.NewStringValue(p.ProcessorType.String()),
		"payee":          structpb.NewStringValue(p.Payee),
		"currency":       structpb.NewStringValue(p.Amount.Currency),
		"value":          structpb.NewStringValue(strconv.FormatInt(p.Amount.Value, 10)),
		"description":    structpb.NewStringValue(p.Description),
		"requested_at":   structpb.NewStringValue(p.RequestedAt.UTC().Format(time.RFC3339Nano)),
	}}

	return proto.Marshal(s)
}

// UnmarshalPayout decodes a payload produced by MarshalPayout
func UnmarshalPayout(payload []byte) (*Payout, error) {
	fields, err := decodeFields(payload)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(fields.get("id"))
	if err != nil {
		return nil, fmt.Errorf("%w: payout id: %s", ErrMalformed, err)
	}

	value, err := strconv.ParseInt(fields.get("value"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: amount value: %s", ErrMalformed, err)
	}

	requestedAt, err := time.Parse(time.RFC3339Nano, fields.get("requested_at"))
	if err != nil {
		return nil, fmt.Errorf("%w: requested at: %s", ErrMalformed, err)
	}

	return &Payout{
		ID:            id,
		ProcessorType: ProcessorType(fields.get("processor_type")),
		Payee:         fields.get("payee"),
		Amount: Amount{
			Currency: fields.get("currency"),
			Value:    value,
		},
		Description: fields.get("description"),
		RequestedAt: requestedAt,
	}, nil
}

// MarshalOutcome encodes an Outcome as a protobuf Struct
func MarshalOutcome(o *Outcome) ([]byte, error) {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		"payout_id":        structpb.NewStringValue(o.PayoutID.String()),
		"processor_type":   structpb.NewStringValue(o.ProcessorType.String()),
		"vendor_reference": structpb.NewStringValue(o.VendorReference),
		"success":          structpb.NewBoolValue(o.Success),
		"reason":           structpb.NewStringValue(o.Reason),
	}}

	return proto.Marshal(s)
}

// UnmarshalOutcome decodes a payload produced by MarshalOutcome
func UnmarshalOutcome(payload []byte) (*Outcome, error) {
	fields, err := decodeFields(payload)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(fields.get("payout_id"))
	if err != nil {
		return nil, fmt.Errorf("%w: payout id: %s", ErrMalformed, err)
	}

	return &Outcome{
		PayoutID:        id,
		ProcessorType:   ProcessorType(fields.get("processor_type")),
		VendorReference: fields.get("vendor_reference"),
		Success:         fields["success"].GetBoolValue(),
		Reason:          fields.get("reason"),
	}, nil
}

type structFields map[string]*structpb.Value

func (f structFields) get(key string) string {
	return f[key].GetStringValue()
}

func decodeFields(payload []byte) (structFields, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	return structFields(s.GetFields()), nil
}

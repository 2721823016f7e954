package payout

// ProcessorType names a payout backend integration. Identifiers are permanent: once a
// type has been written to a payout record it stays known, even after its integration
// is retired.
type ProcessorType string

// String implements stringer interface
func (t ProcessorType) String() string {
	return string(t)
}

const (
	PayPal ProcessorType = "PAYPAL"
	Stripe ProcessorType = "STRIPE"
	Wise   ProcessorType = "WISE"

	// ACH was used for direct bank payouts before they moved to Stripe. Kept for old records.
	ACH ProcessorType = "ACH"
	// Zengin was used for JPY bank payouts. Kept for old records.
	Zengin ProcessorType = "ZENGIN"
)

var (
	knownTypes   = [...]ProcessorType{PayPal, Stripe, Wise, ACH, Zengin}
	retiredTypes = map[ProcessorType]struct{}{
		ACH:    {},
		Zengin: {},
	}
)

// KnownTypes returns every identifier that has ever been valid, active and retired, in
// declaration order
func KnownTypes() []ProcessorType {
	types := make([]ProcessorType, len(knownTypes))
	copy(types, knownTypes[:])
	return types
}

// ParseProcessorType recognises a known identifier, active or retired
func ParseProcessorType(s string) (ProcessorType, bool) {
	t := ProcessorType(s)
	if !t.IsKnown() {
		return "", false
	}
	return t, true
}

// IsKnown reports whether t is one of the historically valid identifiers
func (t ProcessorType) IsKnown() bool {
	return t.order() >= 0
}

// IsRetired reports whether t is known but no longer accepts new payouts
func (t ProcessorType) IsRetired() bool {
	_, ok := retiredTypes[t]
	return ok
}

// order is the declaration index of t, or -1 when t is unknown
func (t ProcessorType) order() int {
	for i, known := range knownTypes {
		if known == t {
			return i
		}
	}
	return -1
}

// Less orders identifiers by declaration; unknown identifiers sort last
func Less(a, b ProcessorType) bool {
	ia, ib := a.order(), b.order()
	if ia < 0 {
		return false
	}
	if ib < 0 {
		return true
	}
	return ia < ib
}

// Package checkout decides whether a shopper may check out and, once they
// may, turns the cart into a purchase summary.
package checkout

// Signals is what the account side knows about the shopper.
type Signals struct {
	Authenticated        bool
	HasAddress           bool
	HasPaymentInstrument bool
}

// Readiness is the outcome of Evaluate. CanCheckout holds only when every
// other field does.
type Readiness struct {
	HasItems             bool `json:"hasItems"`
	IsAuthenticated      bool `json:"isAuthenticated"`
	HasAddress           bool `json:"hasAddress"`
	HasPaymentInstrument bool `json:"hasPaymentInstrument"`
	CanCheckout          bool `json:"canCheckout"`
}

type Step string

const (
	StepAuthenticate Step = "AUTHENTICATE"
	StepAddAddress   Step = "ADD_ADDRESS"
	StepAddPayment   Step = "ADD_PAYMENT"
	StepAddItems     Step = "ADD_ITEMS"
	StepReady        Step = "READY"
)

func (s Step) String() string {
	return string(s)
}

// Evaluate is pure: same inputs, same answer.
func Evaluate(totalItemCount int, signals Signals) Readiness {
	r := Readiness{
		HasItems:             totalItemCount > 0,
		IsAuthenticated:      signals.Authenticated,
		HasAddress:           signals.HasAddress,
		HasPaymentInstrument: signals.HasPaymentInstrument,
	}
	r.CanCheckout = r.HasItems && r.IsAuthenticated && r.HasAddress && r.HasPaymentInstrument
	return r
}

// NextStep names the first unmet condition. Authentication comes first, then
// address, payment instrument and finally items.
func (r Readiness) NextStep() Step {
	switch {
	case !r.IsAuthenticated:
		return StepAuthenticate
	case !r.HasAddress:
		return StepAddAddress
	case !r.HasPaymentInstrument:
		return StepAddPayment
	case !r.HasItems:
		return StepAddItems
	default:
		return StepReady
	}
}

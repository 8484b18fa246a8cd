package domain

// Status is the payment lifecycle of a submission. The zero value is NEW.
type Status string

const (
	StatusNew                  Status = ""
	StatusPaymentPending       Status = "payment_pending"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusPaid                 Status = "paid"
)

var statusRank = map[Status]int{
	StatusNew:                  0,
	StatusPaymentPending:       1,
	StatusAwaitingConfirmation: 2,
	StatusPaid:                 3,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s Status) Terminal() bool { return s == StatusPaid }

func (s Status) String() string {
	if s == StatusNew {
		return "new"
	}
	return string(s)
}

// CanAdvance reports whether a payer driven update may move from s to next.
// Staying in the same state is allowed so repeated submissions are harmless;
// paid is reserved for admin confirmation.
func (s Status) CanAdvance(next Status) bool {
	if s.Terminal() || !next.Valid() || next == StatusNew || next == StatusPaid {
		return false
	}
	return statusRank[next] >= statusRank[s]
}

// CanConfirm reports whether an admin may mark a submission in state s as paid.
func (s Status) CanConfirm() bool {
	return s == StatusAwaitingConfirmation || s == StatusPaid
}

// Step tells the payer facing flow what to show next.
type Step string

const (
	StepSelectMethod         Step = "select_method"
	StepPaymentDetails       Step = "payment_details"
	StepAwaitingConfirmation Step = "awaiting_confirmation"
	StepPaid                 Step = "paid"
)

// NextStep routes a returning payer: once a method is chosen the selection
// screen is skipped.
func NextStep(p Payment) Step {
	switch {
	case p.Status == StatusPaid:
		return StepPaid
	case p.Status == StatusAwaitingConfirmation:
		return StepAwaitingConfirmation
	case p.PaymentMethod != "":
		return StepPaymentDetails
	default:
		return StepSelectMethod
	}
}

package domain

// ConsentState records the visitor's tracking consent decision.
type ConsentState string

const (
	ConsentUndecided ConsentState = "undecided"
	ConsentAccepted  ConsentState = "accepted"
	ConsentRejected  ConsentState = "rejected"
)

// Decided reports whether the visitor accepted or rejected consent.
func (c ConsentState) Decided() bool {
	return c == ConsentAccepted || c == ConsentRejected
}

// Flag returns the numeric consent flag understood by the CDP.
func (c ConsentState) Flag() int {
	if c == ConsentAccepted {
		return 1
	}
	return 0
}

// ConsentFromBool maps an explicit decision to a consent state.
func ConsentFromBool(accepted bool) ConsentState {
	if accepted {
		return ConsentAccepted
	}
	return ConsentRejected
}

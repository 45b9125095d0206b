package domain

// Preferences is the per-visitor consent and persona state.
type Preferences struct {
	Consent ConsentState
	Persona Persona
}

// DefaultPreferences is the state of a first-time visitor.
func DefaultPreferences() Preferences {
	return Preferences{Consent: ConsentUndecided, Persona: PersonaExternal}
}

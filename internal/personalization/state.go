// Package personalization holds the pure consent and persona state machine.
// Nothing here touches cookies, the CDP or HTTP; callers feed it the state they
// read and apply the state it returns.
package personalization

import "github.com/spec-kit/personalisation-service/internal/domain"

// ComputeConsentState returns the consent state for an explicit banner decision.
func ComputeConsentState(accepted bool) domain.ConsentState {
	return domain.ConsentFromBool(accepted)
}

// ComputeNextPersonaState resolves a persona-selector interaction.
//
// removeConsent wins over every other input and yields rejected/external.
// Re-selecting the active persona toggles back to external. Any persona
// selection implies accepted consent.
func ComputeNextPersonaState(selected, previous domain.Persona, removeConsent bool) domain.Preferences {
	if removeConsent {
		return domain.Preferences{Consent: domain.ConsentRejected, Persona: domain.PersonaExternal}
	}
	next := selected
	if normalize(selected) == normalize(previous) {
		next = domain.PersonaExternal
	}
	return domain.Preferences{Consent: domain.ConsentAccepted, Persona: normalize(next)}
}

// InitialState seeds the machine from the values read at page load. Only a
// stored acceptance survives a reload; a stored rejection is undecided again
// so the banner offers the choice once more.
func InitialState(consent domain.ConsentState, persona domain.Persona) domain.Preferences {
	prefs := domain.DefaultPreferences()
	if consent == domain.ConsentAccepted {
		prefs.Consent = domain.ConsentAccepted
	}
	prefs.Persona = normalize(persona)
	return prefs
}

// BannerHidden reports whether the consent banner is hidden for the given state.
func BannerHidden(consent domain.ConsentState) bool {
	return consent.Decided()
}

// ClearPreferencesEnabled reports whether there is anything for clear-preferences to reset.
func ClearPreferencesEnabled(prefs domain.Preferences) bool {
	return prefs.Consent == domain.ConsentAccepted || !prefs.Persona.IsExternal()
}

func normalize(p domain.Persona) domain.Persona {
	if p.IsExternal() {
		return domain.PersonaExternal
	}
	return p
}

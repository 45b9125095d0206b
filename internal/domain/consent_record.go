package domain

import "time"

// ChoiceSource identifies the header control that produced a decision.
type ChoiceSource string

const (
	SourceConsentBanner    ChoiceSource = "consent-banner"
	SourcePersonaSelector  ChoiceSource = "persona-selector"
	SourceClearPreferences ChoiceSource = "clear-preferences"
)

// ConsentRecord is the audit trail entry written for every decision.
type ConsentRecord struct {
	ID          string
	VisitorHash string
	Consent     ConsentState
	Persona     Persona
	Source      ChoiceSource
	CreatedAt   time.Time
}

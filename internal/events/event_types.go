package events

import (
	"time"

	"github.com/spec-kit/personalisation-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPersonaChanged EventType = "personaChange"
	EventConsentChanged EventType = "consentChange"
)

// Event represents a preference change emitted by the coordinator.
type Event struct {
	ID        string              `json:"id"`
	Type      EventType           `json:"type"`
	VisitorID string              `json:"visitor_id"`
	Source    domain.ChoiceSource `json:"source"`
	Timestamp time.Time           `json:"timestamp"`
	Payload   interface{}         `json:"payload"`
}

// PersonaChangedPayload payload.
type PersonaChangedPayload struct {
	Previous domain.Persona      `json:"previous"`
	Persona  domain.Persona      `json:"persona"`
	Consent  domain.ConsentState `json:"consent"`
}

// ConsentChangedPayload payload. Persona is the visitor's persona at the time of the decision.
type ConsentChangedPayload struct {
	Consent domain.ConsentState `json:"consent"`
	Persona domain.Persona      `json:"persona"`
}

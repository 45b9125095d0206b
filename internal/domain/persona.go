package domain

import "strings"

// Persona is the visitor audience segment driving header personalisation.
type Persona string

const (
	PersonaExternal Persona = "external"
	PersonaStudent  Persona = "student"
	PersonaFaculty  Persona = "faculty"
)

// Personas lists every audience in render order.
var Personas = []Persona{PersonaExternal, PersonaStudent, PersonaFaculty}

// ParsePersona normalizes raw input to a known persona.
// Empty, "null" and unknown values resolve to PersonaExternal.
func ParsePersona(raw string) Persona {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.Trim(value, `"`)
	switch value {
	case "student", "students":
		return PersonaStudent
	case "faculty", "staff":
		return PersonaFaculty
	default:
		return PersonaExternal
	}
}

// LookupPersona strictly parses a persona selection. Empty, "null" and
// "external" mean the external persona; anything else unknown is rejected.
func LookupPersona(raw string) (Persona, bool) {
	value := strings.Trim(strings.ToLower(strings.TrimSpace(raw)), `"`)
	switch value {
	case "", "null", string(PersonaExternal):
		return PersonaExternal, true
	case string(PersonaStudent):
		return PersonaStudent, true
	case string(PersonaFaculty):
		return PersonaFaculty, true
	default:
		return "", false
	}
}

// IsExternal reports whether the persona is the default "no persona" state.
func (p Persona) IsExternal() bool {
	return p == "" || p == PersonaExternal
}

// CookieValue returns the value stored in the persona cookie, empty for external.
func (p Persona) CookieValue() string {
	if p.IsExternal() {
		return ""
	}
	return string(p)
}

// Tag returns the persona reported to the CDP, nil for external.
func (p Persona) Tag() *string {
	if p.IsExternal() {
		return nil
	}
	tag := string(p)
	return &tag
}

package dto

import (
	"time"

	"github.com/spec-kit/personalisation-service/internal/domain"
)

// ConsentRequest payload for POST /preferences/consent.
type ConsentRequest struct {
	Accepted *bool `json:"accepted" form:"accepted"`
}

// PersonaRequest payload for POST /preferences/persona.
type PersonaRequest struct {
	Selected string  `json:"selected" form:"selected"`
	Previous *string `json:"previous" form:"previous"`
}

// PreferencesResponse describes the stored preferences and the view derived from them.
type PreferencesResponse struct {
	Consent                 domain.ConsentState `json:"consent"`
	Persona                 domain.Persona      `json:"persona"`
	BannerHidden            bool                `json:"banner_hidden"`
	VisibleAudience         domain.Persona      `json:"visible_audience"`
	StudentPressed          bool                `json:"student_pressed"`
	FacultyPressed          bool                `json:"faculty_pressed"`
	ClearPreferencesEnabled bool                `json:"clear_preferences_enabled"`
	Reload                  bool                `json:"reload,omitempty"`
}

// ConsentRecordResponse is one audit trail entry.
type ConsentRecordResponse struct {
	ID          string              `json:"id"`
	VisitorHash string              `json:"visitor_hash"`
	Consent     domain.ConsentState `json:"consent"`
	Persona     domain.Persona      `json:"persona,omitempty"`
	Source      domain.ChoiceSource `json:"source"`
	CreatedAt   time.Time           `json:"created_at"`
}

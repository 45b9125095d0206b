package personalization

import "github.com/spec-kit/personalisation-service/internal/domain"

// AudienceView is the derived visibility of the audience sections and persona toggles.
type AudienceView struct {
	Visible        domain.Persona
	StudentPressed bool
	FacultyPressed bool
}

// ManageAudience shows the section matching persona and hides the other two.
func ManageAudience(persona domain.Persona) AudienceView {
	persona = normalize(persona)
	return AudienceView{
		Visible:        persona,
		StudentPressed: persona == domain.PersonaStudent,
		FacultyPressed: persona == domain.PersonaFaculty,
	}
}

// IsVisible reports whether the section tagged with audience is shown.
func (v AudienceView) IsVisible(audience domain.Persona) bool {
	return v.Visible == normalize(audience)
}

// Pressed reports the aria-pressed state of the toggle for persona.
func (v AudienceView) Pressed(persona domain.Persona) bool {
	switch persona {
	case domain.PersonaStudent:
		return v.StudentPressed
	case domain.PersonaFaculty:
		return v.FacultyPressed
	default:
		return false
	}
}

// BannerView is the consent banner state. A header without a banner has a nil BannerView.
type BannerView struct {
	Hidden bool
}

// HeaderView bundles everything the header fragment needs to render.
type HeaderView struct {
	Preferences             domain.Preferences
	Audience                AudienceView
	Banner                  *BannerView
	ClearPreferencesEnabled bool
}

// ViewFor derives the header view from preferences. withBanner controls whether
// the page carries a consent banner at all.
func ViewFor(prefs domain.Preferences, withBanner bool) HeaderView {
	view := HeaderView{
		Preferences:             prefs,
		Audience:                ManageAudience(prefs.Persona),
		ClearPreferencesEnabled: ClearPreferencesEnabled(prefs),
	}
	if withBanner {
		view.Banner = &BannerView{Hidden: BannerHidden(prefs.Consent)}
	}
	return view
}

// HideConsentBanner marks the banner hidden. Views without a banner are left alone.
func HideConsentBanner(view *HeaderView) {
	if view == nil || view.Banner == nil {
		return
	}
	view.Banner.Hidden = true
}

package personalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/personalisation-service/internal/domain"
)

func TestComputeNextPersonaState(t *testing.T) {
	cases := []struct {
		name          string
		selected      domain.Persona
		previous      domain.Persona
		removeConsent bool
		want          domain.Preferences
	}{
		{
			name:     "select student from external",
			selected: domain.PersonaStudent,
			previous: domain.PersonaExternal,
			want:     domain.Preferences{Consent: domain.ConsentAccepted, Persona: domain.PersonaStudent},
		},
		{
			name:     "switch faculty to student",
			selected: domain.PersonaStudent,
			previous: domain.PersonaFaculty,
			want:     domain.Preferences{Consent: domain.ConsentAccepted, Persona: domain.PersonaStudent},
		},
		{
			name:     "reselecting student toggles off",
			selected: domain.PersonaStudent,
			previous: domain.PersonaStudent,
			want:     domain.Preferences{Consent: domain.ConsentAccepted, Persona: domain.PersonaExternal},
		},
		{
			name:     "empty previous counts as external",
			selected: domain.PersonaFaculty,
			previous: "",
			want:     domain.Preferences{Consent: domain.ConsentAccepted, Persona: domain.PersonaFaculty},
		},
		{
			name:          "clear preferences ignores selection",
			selected:      domain.PersonaFaculty,
			previous:      domain.PersonaStudent,
			removeConsent: true,
			want:          domain.Preferences{Consent: domain.ConsentRejected, Persona: domain.PersonaExternal},
		},
		{
			name:          "clear preferences with nothing selected",
			selected:      domain.PersonaExternal,
			previous:      domain.PersonaExternal,
			removeConsent: true,
			want:          domain.Preferences{Consent: domain.ConsentRejected, Persona: domain.PersonaExternal},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeNextPersonaState(tc.selected, tc.previous, tc.removeConsent)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeConsentState(t *testing.T) {
	assert.Equal(t, domain.ConsentAccepted, ComputeConsentState(true))
	assert.Equal(t, domain.ConsentRejected, ComputeConsentState(false))
}

func TestInitialState(t *testing.T) {
	t.Run("no cookies", func(t *testing.T) {
		got := InitialState(domain.ConsentUndecided, "")
		assert.Equal(t, domain.DefaultPreferences(), got)
	})

	t.Run("accepted student", func(t *testing.T) {
		got := InitialState(domain.ConsentAccepted, domain.PersonaStudent)
		assert.Equal(t, domain.Preferences{Consent: domain.ConsentAccepted, Persona: domain.PersonaStudent}, got)
	})

	t.Run("stored rejection reopens the banner", func(t *testing.T) {
		got := InitialState(domain.ConsentRejected, domain.PersonaExternal)
		assert.Equal(t, domain.ConsentUndecided, got.Consent)
		assert.False(t, BannerHidden(got.Consent))
		assert.False(t, ClearPreferencesEnabled(got))
	})

	t.Run("unknown consent stays undecided", func(t *testing.T) {
		got := InitialState(domain.ConsentState("maybe"), domain.PersonaFaculty)
		assert.Equal(t, domain.ConsentUndecided, got.Consent)
		assert.Equal(t, domain.PersonaFaculty, got.Persona)
	})
}

func TestManageAudience(t *testing.T) {
	for _, persona := range domain.Personas {
		t.Run(string(persona), func(t *testing.T) {
			view := ManageAudience(persona)

			visible := 0
			for _, audience := range domain.Personas {
				if view.IsVisible(audience) {
					visible++
					assert.Equal(t, persona, audience)
				}
			}
			assert.Equal(t, 1, visible, "exactly one audience section is visible")
			assert.Equal(t, persona == domain.PersonaStudent, view.Pressed(domain.PersonaStudent))
			assert.Equal(t, persona == domain.PersonaFaculty, view.Pressed(domain.PersonaFaculty))
		})
	}
}

func TestManageAudienceFaculty(t *testing.T) {
	view := ManageAudience(domain.PersonaFaculty)

	assert.True(t, view.IsVisible(domain.PersonaFaculty))
	assert.False(t, view.IsVisible(domain.PersonaStudent))
	assert.False(t, view.IsVisible(domain.PersonaExternal))
	assert.True(t, view.FacultyPressed)
	assert.False(t, view.StudentPressed)
}

func TestBannerHidden(t *testing.T) {
	assert.False(t, BannerHidden(domain.ConsentUndecided))
	assert.True(t, BannerHidden(domain.ConsentAccepted))
	assert.True(t, BannerHidden(domain.ConsentRejected))
}

func TestHideConsentBanner(t *testing.T) {
	t.Run("nil view", func(t *testing.T) {
		assert.NotPanics(t, func() { HideConsentBanner(nil) })
	})

	t.Run("view without banner", func(t *testing.T) {
		view := ViewFor(domain.DefaultPreferences(), false)
		assert.NotPanics(t, func() { HideConsentBanner(&view) })
		assert.Nil(t, view.Banner)
	})

	t.Run("hiding is idempotent", func(t *testing.T) {
		view := ViewFor(domain.DefaultPreferences(), true)
		require.NotNil(t, view.Banner)
		require.False(t, view.Banner.Hidden)

		HideConsentBanner(&view)
		HideConsentBanner(&view)
		assert.True(t, view.Banner.Hidden)
	})
}

func TestViewForAcceptedStudent(t *testing.T) {
	view := ViewFor(domain.Preferences{Consent: domain.ConsentAccepted, Persona: domain.PersonaStudent}, true)

	require.NotNil(t, view.Banner)
	assert.True(t, view.Banner.Hidden)
	assert.True(t, view.Audience.StudentPressed)
	assert.True(t, view.Audience.IsVisible(domain.PersonaStudent))
	assert.True(t, view.ClearPreferencesEnabled)
}

func TestClearPreferencesEnabled(t *testing.T) {
	assert.False(t, ClearPreferencesEnabled(domain.DefaultPreferences()))
	assert.False(t, ClearPreferencesEnabled(domain.Preferences{Consent: domain.ConsentRejected, Persona: domain.PersonaExternal}))
	assert.True(t, ClearPreferencesEnabled(domain.Preferences{Consent: domain.ConsentUndecided, Persona: domain.PersonaFaculty}))
}

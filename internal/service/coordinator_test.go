package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/personalisation-service/internal/domain"
	"github.com/spec-kit/personalisation-service/internal/events"
	"github.com/spec-kit/personalisation-service/internal/observability"
)

// memStore is an in-memory PreferenceStore that logs every write.
type memStore struct {
	visitor string
	consent domain.ConsentState
	persona domain.Persona
	log     *[]string
}

func (m *memStore) VisitorID() string            { return m.visitor }
func (m *memStore) Consent() domain.ConsentState { return m.consent }
func (m *memStore) Persona() domain.Persona      { return m.persona }
func (m *memStore) WriteConsent(c domain.ConsentState) {
	m.consent = c
	*m.log = append(*m.log, "cookie:consent:"+string(c))
}
func (m *memStore) WritePersona(p domain.Persona) {
	m.persona = p
	*m.log = append(*m.log, "cookie:persona:"+string(p))
}

type fakeCDP struct {
	log        *[]string
	consentErr error
	personaErr error
	personas   []*string
	source     string
}

func (f *fakeCDP) SetConsent(_ context.Context, _ string, flag int) error {
	*f.log = append(*f.log, map[int]string{0: "cdp:consent:0", 1: "cdp:consent:1"}[flag])
	return f.consentErr
}

func (f *fakeCDP) SetPersona(_ context.Context, _, source string, persona *string) error {
	f.source = source
	f.personas = append(f.personas, persona)
	*f.log = append(*f.log, "cdp:persona")
	return f.personaErr
}

type fakeCommit struct {
	log       *[]string
	committed []domain.Preferences
	err       error
}

func (f *fakeCommit) Commit(prefs domain.Preferences) error {
	f.committed = append(f.committed, prefs)
	*f.log = append(*f.log, "commit")
	return f.err
}

type fixture struct {
	log     []string
	store   *memStore
	cdp     *fakeCDP
	commit  *fakeCommit
	metrics *observability.Metrics
	events  []events.Event
	coord   *Coordinator
}

func newFixture(t *testing.T, consent domain.ConsentState, persona domain.Persona) *fixture {
	t.Helper()
	f := &fixture{metrics: observability.NewMetrics()}
	f.store = &memStore{visitor: "visitor-1", consent: consent, persona: persona, log: &f.log}
	f.cdp = &fakeCDP{log: &f.log}
	f.commit = &fakeCommit{log: &f.log}

	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		f.events = append(f.events, e)
		f.log = append(f.log, "event:"+string(e.Type))
		return nil
	}
	dispatcher.Subscribe(events.EventPersonaChanged, record)
	dispatcher.Subscribe(events.EventConsentChanged, record)

	f.coord = NewCoordinator(CoordinatorDependencies{
		CDP:        f.cdp,
		Dispatcher: dispatcher,
		Metrics:    f.metrics,
		WithBanner: true,
	})
	return f
}

func TestHandlePersonaSelectStudent(t *testing.T) {
	f := newFixture(t, domain.ConsentUndecided, domain.PersonaExternal)

	prefs, err := f.coord.HandlePersona(context.Background(), f.store, f.commit, domain.PersonaStudent, domain.PersonaExternal, false)
	require.NoError(t, err)

	assert.Equal(t, domain.Preferences{Consent: domain.ConsentAccepted, Persona: domain.PersonaStudent}, prefs)
	assert.Equal(t, []string{
		"cdp:consent:1",
		"cdp:persona",
		"cookie:consent:accepted",
		"cookie:persona:student",
		"event:personaChange",
		"commit",
	}, f.log)
	assert.Equal(t, PersonaSource, f.cdp.source)
	require.Len(t, f.cdp.personas, 1)
	require.NotNil(t, f.cdp.personas[0])
	assert.Equal(t, "student", *f.cdp.personas[0])
	assert.Equal(t, []domain.Preferences{prefs}, f.commit.committed)
}

func TestHandlePersonaToggleOff(t *testing.T) {
	f := newFixture(t, domain.ConsentAccepted, domain.PersonaStudent)

	prefs, err := f.coord.HandlePersona(context.Background(), f.store, f.commit, domain.PersonaStudent, domain.PersonaStudent, false)
	require.NoError(t, err)

	assert.Equal(t, domain.PersonaExternal, prefs.Persona)
	assert.Equal(t, domain.ConsentAccepted, prefs.Consent)
	assert.Equal(t, domain.PersonaExternal, f.store.persona)
	require.Len(t, f.cdp.personas, 1)
	assert.Nil(t, f.cdp.personas[0])

	require.Len(t, f.events, 1)
	payload := f.events[0].Payload.(events.PersonaChangedPayload)
	assert.Equal(t, domain.PersonaStudent, payload.Previous)
	assert.Equal(t, domain.PersonaExternal, payload.Persona)
}

func TestHandlePersonaClearPreferences(t *testing.T) {
	for _, prior := range domain.Personas {
		t.Run(string(prior), func(t *testing.T) {
			f := newFixture(t, domain.ConsentAccepted, prior)

			prefs, err := f.coord.HandlePersona(context.Background(), f.store, f.commit, domain.PersonaExternal, domain.PersonaExternal, true)
			require.NoError(t, err)

			assert.Equal(t, domain.Preferences{Consent: domain.ConsentRejected, Persona: domain.PersonaExternal}, prefs)
			assert.Equal(t, domain.ConsentRejected, f.store.consent)
			assert.Equal(t, domain.PersonaExternal, f.store.persona)
			assert.Contains(t, f.log, "cdp:consent:0")
			require.Len(t, f.events, 1)
			assert.Equal(t, domain.SourceClearPreferences, f.events[0].Source)
			assert.Len(t, f.commit.committed, 1)
		})
	}
}

func TestHandlePersonaSwallowsCDPFailures(t *testing.T) {
	f := newFixture(t, domain.ConsentUndecided, domain.PersonaExternal)
	f.cdp.consentErr = errors.New("timeout")
	f.cdp.personaErr = errors.New("timeout")

	prefs, err := f.coord.HandlePersona(context.Background(), f.store, f.commit, domain.PersonaFaculty, domain.PersonaExternal, false)
	require.NoError(t, err)

	assert.Equal(t, domain.PersonaFaculty, prefs.Persona)
	assert.Equal(t, domain.PersonaFaculty, f.store.persona)
	assert.Len(t, f.commit.committed, 1)
	assert.Equal(t, int64(1), f.metrics.CDPFailures("set_consent"))
	assert.Equal(t, int64(1), f.metrics.CDPFailures("set_persona"))
}

func TestHandlePersonaCommitError(t *testing.T) {
	f := newFixture(t, domain.ConsentUndecided, domain.PersonaExternal)
	f.commit.err = errors.New("render failed")

	_, err := f.coord.HandlePersona(context.Background(), f.store, f.commit, domain.PersonaFaculty, domain.PersonaExternal, false)
	assert.ErrorIs(t, err, f.commit.err)
	assert.Equal(t, domain.PersonaFaculty, f.store.persona, "cookies are written before the commit")
}

func TestHandlePersonaWithoutCommit(t *testing.T) {
	f := newFixture(t, domain.ConsentUndecided, domain.PersonaExternal)

	prefs, err := f.coord.HandlePersona(context.Background(), f.store, nil, domain.PersonaStudent, domain.PersonaExternal, false)
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaStudent, prefs.Persona)
}

func TestHandleConsent(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		f := newFixture(t, domain.ConsentUndecided, domain.PersonaExternal)

		view := f.coord.HandleConsent(context.Background(), f.store, true)

		require.NotNil(t, view.Banner)
		assert.True(t, view.Banner.Hidden)
		assert.Equal(t, domain.ConsentAccepted, f.store.consent)
		assert.Equal(t, []string{"cdp:consent:1", "cookie:consent:accepted", "event:consentChange"}, f.log)
		assert.Empty(t, f.commit.committed, "consent alone never commits")
	})

	t.Run("reject keeps persona", func(t *testing.T) {
		f := newFixture(t, domain.ConsentAccepted, domain.PersonaFaculty)

		view := f.coord.HandleConsent(context.Background(), f.store, false)

		assert.True(t, view.Banner.Hidden)
		assert.Equal(t, domain.ConsentRejected, f.store.consent)
		assert.Equal(t, domain.PersonaFaculty, view.Preferences.Persona)
	})

	t.Run("repeated clicks stay hidden", func(t *testing.T) {
		f := newFixture(t, domain.ConsentUndecided, domain.PersonaExternal)
		for _, accepted := range []bool{true, false, false, true} {
			view := f.coord.HandleConsent(context.Background(), f.store, accepted)
			assert.True(t, view.Banner.Hidden)
		}
	})

	t.Run("cdp failure is not surfaced", func(t *testing.T) {
		f := newFixture(t, domain.ConsentUndecided, domain.PersonaExternal)
		f.cdp.consentErr = errors.New("unreachable")

		view := f.coord.HandleConsent(context.Background(), f.store, true)
		assert.True(t, view.Banner.Hidden)
		assert.Equal(t, domain.ConsentAccepted, f.store.consent)
	})

	t.Run("no banner", func(t *testing.T) {
		f := newFixture(t, domain.ConsentUndecided, domain.PersonaExternal)
		f.coord.withBanner = false

		var view = f.coord.HandleConsent(context.Background(), f.store, true)
		assert.Nil(t, view.Banner)
	})
}

func TestViewFromStoredState(t *testing.T) {
	f := newFixture(t, domain.ConsentAccepted, domain.PersonaStudent)

	view := f.coord.View(f.store)

	assert.True(t, view.Banner.Hidden)
	assert.True(t, view.Audience.StudentPressed)
	assert.False(t, view.Audience.FacultyPressed)
	assert.True(t, view.Audience.IsVisible(domain.PersonaStudent))
	assert.True(t, view.ClearPreferencesEnabled)
}

func TestHandleConsentEventCarriesPersona(t *testing.T) {
	f := newFixture(t, domain.ConsentAccepted, domain.PersonaFaculty)

	f.coord.HandleConsent(context.Background(), f.store, false)

	require.Len(t, f.events, 1)
	assert.Equal(t, domain.SourceConsentBanner, f.events[0].Source)
	assert.Equal(t, events.ConsentChangedPayload{Consent: domain.ConsentRejected, Persona: domain.PersonaFaculty}, f.events[0].Payload)
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/personalisation-service/internal/cdp"
	"github.com/spec-kit/personalisation-service/internal/domain"
	"github.com/spec-kit/personalisation-service/internal/events"
	"github.com/spec-kit/personalisation-service/internal/observability"
	"github.com/spec-kit/personalisation-service/internal/personalization"
)

// PersonaSource is the source tag reported to the CDP for every persona change.
const PersonaSource = "persona-selector"

// PreferenceStore is the request-scoped view of the visitor's stored preferences.
type PreferenceStore interface {
	VisitorID() string
	Consent() domain.ConsentState
	Persona() domain.Persona
	WriteConsent(domain.ConsentState)
	WritePersona(domain.Persona)
}

// CommitStrategy makes a persona change visible to the visitor. Personalised
// markup is rendered server side, so the default strategy reloads the page.
type CommitStrategy interface {
	Commit(prefs domain.Preferences) error
}

// Coordinator keeps the preference cookies, the CDP and the rendered header in step.
type Coordinator struct {
	cdp        cdp.Client
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	withBanner bool
}

// CoordinatorDependencies bundles collaborators for the coordinator.
type CoordinatorDependencies struct {
	CDP        cdp.Client
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	// WithBanner controls whether rendered headers carry a consent banner.
	WithBanner bool
}

// NewCoordinator constructs the coordinator.
func NewCoordinator(deps CoordinatorDependencies) *Coordinator {
	client := deps.CDP
	if client == nil {
		client = cdp.Noop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		cdp:        client,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		withBanner: deps.WithBanner,
	}
}

// Current reads the stored preferences.
func (s *Coordinator) Current(store PreferenceStore) domain.Preferences {
	return personalization.InitialState(store.Consent(), store.Persona())
}

// View derives the header view for the stored preferences.
func (s *Coordinator) View(store PreferenceStore) personalization.HeaderView {
	return personalization.ViewFor(s.Current(store), s.withBanner)
}

// HandleConsent records an accept or reject decision from the consent banner.
// It does not fail: CDP errors are logged and the banner is hidden regardless.
func (s *Coordinator) HandleConsent(ctx context.Context, store PreferenceStore, accepted bool) personalization.HeaderView {
	prefs := s.Current(store)
	prefs.Consent = personalization.ComputeConsentState(accepted)
	visitorID := store.VisitorID()

	s.setConsent(ctx, visitorID, prefs.Consent)
	store.WriteConsent(prefs.Consent)

	s.publish(ctx, events.Event{
		Type:      events.EventConsentChanged,
		VisitorID: visitorID,
		Source:    domain.SourceConsentBanner,
		Payload:   events.ConsentChangedPayload{Consent: prefs.Consent, Persona: prefs.Persona},
	})

	view := personalization.ViewFor(prefs, s.withBanner)
	personalization.HideConsentBanner(&view)
	return view
}

// HandlePersona applies a persona-selector or clear-preferences interaction.
//
// Effects run in a fixed order: CDP consent, CDP persona, consent cookie,
// persona cookie, personaChange event, commit. Only the commit can fail.
func (s *Coordinator) HandlePersona(ctx context.Context, store PreferenceStore, commit CommitStrategy, selected, previous domain.Persona, removeConsent bool) (domain.Preferences, error) {
	next := personalization.ComputeNextPersonaState(selected, previous, removeConsent)
	visitorID := store.VisitorID()
	prior := store.Persona()

	s.setConsent(ctx, visitorID, next.Consent)
	s.setPersona(ctx, visitorID, next.Persona)
	store.WriteConsent(next.Consent)
	store.WritePersona(next.Persona)

	source := domain.SourcePersonaSelector
	if removeConsent {
		source = domain.SourceClearPreferences
	}
	s.publish(ctx, events.Event{
		Type:      events.EventPersonaChanged,
		VisitorID: visitorID,
		Source:    source,
		Payload: events.PersonaChangedPayload{
			Previous: prior,
			Persona:  next.Persona,
			Consent:  next.Consent,
		},
	})

	if commit == nil {
		return next, nil
	}
	return next, commit.Commit(next)
}

func (s *Coordinator) setConsent(ctx context.Context, visitorID string, consent domain.ConsentState) {
	if err := s.cdp.SetConsent(ctx, visitorID, consent.Flag()); err != nil {
		s.cdpFailed(cdp.CallSetConsent, err)
	}
}

func (s *Coordinator) setPersona(ctx context.Context, visitorID string, persona domain.Persona) {
	if err := s.cdp.SetPersona(ctx, visitorID, PersonaSource, persona.Tag()); err != nil {
		s.cdpFailed(cdp.CallSetPersona, err)
	}
}

func (s *Coordinator) cdpFailed(kind cdp.CallKind, err error) {
	s.metrics.RecordCDPFailure(string(kind))
	s.logger.Warn("cdp call failed", zap.String("call", string(kind)), zap.Error(err))
}

func (s *Coordinator) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

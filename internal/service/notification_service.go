package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/personalisation-service/internal/events"
)

// NotificationService writes every preference change to the structured log.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	register   sync.Once
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events. Repeated calls attach nothing new.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.register.Do(func() {
		n.dispatcher.Subscribe(events.EventConsentChanged, n.handleConsentChanged)
		n.dispatcher.Subscribe(events.EventPersonaChanged, n.handlePersonaChanged)
	})
}

func (n *NotificationService) handleConsentChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ConsentChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("ConsentChanged",
		zap.String("event_id", event.ID),
		zap.String("source", string(event.Source)),
		zap.String("consent", string(payload.Consent)),
		zap.String("persona", string(payload.Persona)))
	return nil
}

func (n *NotificationService) handlePersonaChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PersonaChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("PersonaChanged",
		zap.String("event_id", event.ID),
		zap.String("source", string(event.Source)),
		zap.String("previous", string(payload.Previous)),
		zap.String("persona", string(payload.Persona)),
		zap.String("consent", string(payload.Consent)))
	return nil
}

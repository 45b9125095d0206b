package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/personalisation-service/internal/auth"
	"github.com/spec-kit/personalisation-service/internal/domain"
	"github.com/spec-kit/personalisation-service/internal/events"
	"github.com/spec-kit/personalisation-service/internal/repository"
	apperrors "github.com/spec-kit/personalisation-service/pkg/util/errorutil"
)

const defaultAuditLimit = 50

// AuditService records every preference change for consent compliance.
type AuditService struct {
	dispatcher events.Dispatcher
	records    repository.ConsentRecordRepository
	hasher     *auth.VisitorHasher
	logger     *zap.Logger
	register   sync.Once
	now        func() time.Time
}

// NewAuditService creates the service. With a nil repository nothing is stored.
func NewAuditService(dispatcher events.Dispatcher, records repository.ConsentRecordRepository, hasher *auth.VisitorHasher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		records:    records,
		hasher:     hasher,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterHandlers subscribes to preference events. Repeated calls attach nothing new.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.register.Do(func() {
		a.dispatcher.Subscribe(events.EventConsentChanged, a.handleConsentChanged)
		a.dispatcher.Subscribe(events.EventPersonaChanged, a.handlePersonaChanged)
	})
}

// ListRecords returns the newest audit records for a visitor id.
func (a *AuditService) ListRecords(ctx context.Context, visitorID string, limit int) ([]domain.ConsentRecord, error) {
	if a.records == nil {
		return nil, apperrors.NewUnavailable("audit store")
	}
	if limit <= 0 || limit > 500 {
		limit = defaultAuditLimit
	}
	return a.records.ListByVisitorHash(ctx, a.hasher.Hash(visitorID), limit)
}

func (a *AuditService) handleConsentChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ConsentChangedPayload)
	if !ok {
		return nil
	}
	return a.store(ctx, event, payload.Consent, payload.Persona)
}

func (a *AuditService) handlePersonaChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PersonaChangedPayload)
	if !ok {
		return nil
	}
	return a.store(ctx, event, payload.Consent, payload.Persona)
}

func (a *AuditService) store(ctx context.Context, event events.Event, consent domain.ConsentState, persona domain.Persona) error {
	if a.records == nil {
		return nil
	}
	record := &domain.ConsentRecord{
		ID:          event.ID,
		VisitorHash: a.hasher.Hash(event.VisitorID),
		Consent:     consent,
		Persona:     persona,
		Source:      event.Source,
		CreatedAt:   event.Timestamp,
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = a.now()
	}
	if err := a.records.Create(ctx, record); err != nil {
		a.logger.Error("store consent record", zap.String("event_id", record.ID), zap.Error(err))
		return err
	}
	return nil
}

package worker

import (
	"github.com/spec-kit/personalisation-service/internal/service"
)

// StartEventSubscribers attaches the audit recorder and the log notifier to
// the event dispatcher. Either may be nil.
func StartEventSubscribers(auditService *service.AuditService, notificationService *service.NotificationService) {
	if auditService != nil {
		auditService.RegisterHandlers()
	}
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
}

package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/personalisation-service/internal/api/dto"
	"github.com/spec-kit/personalisation-service/internal/service"
	apperrors "github.com/spec-kit/personalisation-service/pkg/util/errorutil"
)

// AuditHandler exposes the consent audit trail to authenticated auditors.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListRecords GET /admin/consent-records?visitor=&limit=.
func (h *AuditHandler) ListRecords(c *fiber.Ctx) error {
	visitor := strings.TrimSpace(c.Query("visitor"))
	if visitor == "" {
		return apperrors.NewValidationError("visitor required", map[string]any{"field": "visitor"})
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := h.audit.ListRecords(c.UserContext(), visitor, limit)
	if err != nil {
		return err
	}

	items := make([]dto.ConsentRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.ConsentRecordResponse{
			ID:          record.ID,
			VisitorHash: record.VisitorHash,
			Consent:     record.Consent,
			Persona:     record.Persona,
			Source:      record.Source,
			CreatedAt:   record.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

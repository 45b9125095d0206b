package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/personalisation-service/internal/api/dto"
	"github.com/spec-kit/personalisation-service/internal/content"
	"github.com/spec-kit/personalisation-service/internal/cookies"
	"github.com/spec-kit/personalisation-service/internal/domain"
	"github.com/spec-kit/personalisation-service/internal/render"
	"github.com/spec-kit/personalisation-service/internal/service"
	apperrors "github.com/spec-kit/personalisation-service/pkg/util/errorutil"
)

// PreferencesHandler exposes the consent and persona controls of the header.
type PreferencesHandler struct {
	coordinator *service.Coordinator
	cms         *content.Header
	policy      cookies.Policy
	commitMode  string
	homePath    string
}

// PreferencesConfig bundles PreferencesHandler settings.
type PreferencesConfig struct {
	Coordinator *service.Coordinator
	Content     *content.Header
	Cookies     cookies.Policy
	CommitMode  string
	HomePath    string
}

// NewPreferencesHandler constructs handler.
func NewPreferencesHandler(cfg PreferencesConfig) *PreferencesHandler {
	if cfg.CommitMode == "" {
		cfg.CommitMode = CommitReload
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}
	return &PreferencesHandler{
		coordinator: cfg.Coordinator,
		cms:         cfg.Content,
		policy:      cfg.Cookies,
		commitMode:  cfg.CommitMode,
		homePath:    cfg.HomePath,
	}
}

// Header GET /header renders the personalised header from the stored cookies.
func (h *PreferencesHandler) Header(c *fiber.Ctx) error {
	view := h.coordinator.View(h.jar(c))
	return sendComponent(c, render.Header(view, h.cms))
}

// Get GET /preferences.
func (h *PreferencesHandler) Get(c *fiber.Ctx) error {
	view := h.coordinator.View(h.jar(c))
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.JSON(fiber.Map{"data": preferencesResponse(view)})
}

// Consent POST /preferences/consent.
func (h *PreferencesHandler) Consent(c *fiber.Ctx) error {
	var req dto.ConsentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Accepted == nil {
		return apperrors.NewValidationError("accepted required", map[string]any{"field": "accepted"})
	}

	view := h.coordinator.HandleConsent(c.UserContext(), h.jar(c), *req.Accepted)

	switch {
	case isHTMX(c):
		return sendComponent(c, render.ConsentBanner(view, h.cms))
	case wantsJSON(c):
		return c.JSON(fiber.Map{"data": preferencesResponse(view)})
	default:
		return c.Redirect(backTo(c, h.homePath), fiber.StatusSeeOther)
	}
}

// Persona POST /preferences/persona.
func (h *PreferencesHandler) Persona(c *fiber.Ctx) error {
	var req dto.PersonaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	selected, ok := domain.LookupPersona(req.Selected)
	if !ok {
		return apperrors.NewValidationError("unknown persona", map[string]any{"field": "selected", "value": req.Selected})
	}

	jar := h.jar(c)
	previous := jar.Persona()
	if req.Previous != nil {
		if previous, ok = domain.LookupPersona(*req.Previous); !ok {
			return apperrors.NewValidationError("unknown persona", map[string]any{"field": "previous", "value": *req.Previous})
		}
	}

	_, err := h.coordinator.HandlePersona(c.UserContext(), jar, h.commit(c), selected, previous, false)
	return err
}

// Clear POST /preferences/clear withdraws consent and resets the persona.
func (h *PreferencesHandler) Clear(c *fiber.Ctx) error {
	jar := h.jar(c)
	_, err := h.coordinator.HandlePersona(c.UserContext(), jar, h.commit(c), domain.PersonaExternal, jar.Persona(), true)
	return err
}

func (h *PreferencesHandler) jar(c *fiber.Ctx) *cookies.Jar {
	return cookies.NewJar(c, h.policy)
}

func (h *PreferencesHandler) commit(c *fiber.Ctx) service.CommitStrategy {
	if h.commitMode == CommitFragment {
		return fragmentCommit{c: c, cms: h.cms, withBanner: h.cms.Banner != nil, homePath: h.homePath}
	}
	return reloadCommit{c: c, homePath: h.homePath}
}

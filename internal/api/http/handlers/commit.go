package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/personalisation-service/internal/api/dto"
	"github.com/spec-kit/personalisation-service/internal/content"
	"github.com/spec-kit/personalisation-service/internal/domain"
	"github.com/spec-kit/personalisation-service/internal/personalization"
	"github.com/spec-kit/personalisation-service/internal/render"
)

const (
	// CommitReload answers a persona change with a full page reload.
	CommitReload = "reload"
	// CommitFragment answers a persona change with the re-rendered header.
	CommitFragment = "fragment"

	headerHXRequest = "HX-Request"
	headerHXRefresh = "HX-Refresh"
)

// reloadCommit forces a fresh server render: HX-Refresh for HTMX callers,
// a JSON reload flag for API callers and a 303 back to the page otherwise.
type reloadCommit struct {
	c        *fiber.Ctx
	homePath string
}

func (r reloadCommit) Commit(prefs domain.Preferences) error {
	switch {
	case isHTMX(r.c):
		r.c.Set(headerHXRefresh, "true")
		return r.c.SendStatus(http.StatusNoContent)
	case wantsJSON(r.c):
		resp := preferencesResponse(personalization.ViewFor(prefs, false))
		resp.Reload = true
		return r.c.JSON(fiber.Map{"data": resp})
	default:
		return r.c.Redirect(backTo(r.c, r.homePath), http.StatusSeeOther)
	}
}

// fragmentCommit re-renders the header in place without a reload.
type fragmentCommit struct {
	c          *fiber.Ctx
	cms        *content.Header
	withBanner bool
	homePath   string
}

func (f fragmentCommit) Commit(prefs domain.Preferences) error {
	view := personalization.ViewFor(prefs, f.withBanner)
	switch {
	case isHTMX(f.c):
		return sendComponent(f.c, render.Header(view, f.cms))
	case wantsJSON(f.c):
		return f.c.JSON(fiber.Map{"data": preferencesResponse(view)})
	default:
		return f.c.Redirect(backTo(f.c, f.homePath), http.StatusSeeOther)
	}
}

func isHTMX(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Get(headerHXRequest), "true")
}

func wantsJSON(c *fiber.Ctx) bool {
	return c.Is("json") || strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

// backTo returns the same-host Referer path, or fallback.
func backTo(c *fiber.Ctx, fallback string) string {
	ref := c.Get(fiber.HeaderReferer)
	if ref == "" {
		return fallback
	}
	parsed, err := url.Parse(ref)
	if err != nil || (parsed.Host != "" && !strings.EqualFold(parsed.Host, string(c.Request().Host()))) {
		return fallback
	}
	if !isLocalPath(parsed.Path) {
		return fallback
	}
	if parsed.RawQuery != "" {
		return parsed.Path + "?" + parsed.RawQuery
	}
	return parsed.Path
}

// isLocalPath reports whether path stays on this host when used as a Location.
// Browsers read a leading "/\" like "//", so backslashes are refused outright.
func isLocalPath(path string) bool {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return false
	}
	return !strings.Contains(path, "\\")
}

func preferencesResponse(view personalization.HeaderView) dto.PreferencesResponse {
	return dto.PreferencesResponse{
		Consent:                 view.Preferences.Consent,
		Persona:                 view.Preferences.Persona,
		BannerHidden:            personalization.BannerHidden(view.Preferences.Consent),
		VisibleAudience:         view.Audience.Visible,
		StudentPressed:          view.Audience.StudentPressed,
		FacultyPressed:          view.Audience.FacultyPressed,
		ClearPreferencesEnabled: view.ClearPreferencesEnabled,
	}
}

// Package render produces the personalised header fragments as templ components.
//
// The markup is the contract the front end and its tests rely on:
// data-subcomponent on the banner, data-click on every control, data-audience
// on each section and aria-pressed on the persona toggles.
package render

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/spec-kit/personalisation-service/internal/content"
	"github.com/spec-kit/personalisation-service/internal/domain"
	"github.com/spec-kit/personalisation-service/internal/personalization"
)

const (
	// HiddenClass is the CSS class that hides a header region.
	HiddenClass = "hidden"
	// BannerID is the element id swapped by HTMX consent responses.
	BannerID = "header-cookie-consent-banner"

	consentPath = "/preferences/consent"
	personaPath = "/preferences/persona"
	clearPath   = "/preferences/clear"
)

type writer struct {
	w   io.Writer
	err error
}

func (h *writer) raw(parts ...string) {
	for _, part := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, part)
	}
}

func (h *writer) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *writer) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

func (h *writer) render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func classes(base string, hidden bool) string {
	if hidden {
		return base + " " + HiddenClass
	}
	return base
}

// Header renders the full personalised header block.
func Header(view personalization.HeaderView, cms *content.Header) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &writer{w: w}
		h.raw(`<div class="personalised-header" data-component="header"`)
		h.attr("data-persona", string(view.Preferences.Persona))
		h.attr("data-consent", string(view.Preferences.Consent))
		h.raw(">")
		h.render(ctx, ConsentBanner(view, cms))
		h.render(ctx, PersonaControls(view, cms))
		h.render(ctx, AudienceSections(view, cms))
		h.raw("</div>")
		return h.err
	})
}

// ConsentBanner renders the banner, or nothing when the header has no banner.
func ConsentBanner(view personalization.HeaderView, cms *content.Header) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if view.Banner == nil || cms.Banner == nil {
			return nil
		}
		h := &writer{w: w}
		h.raw(`<section data-subcomponent="header-cookie-consent-banner"`)
		h.attr("id", BannerID)
		h.attr("class", classes("header-cookie-consent-banner", view.Banner.Hidden))
		if view.Banner.Hidden {
			h.raw(` aria-hidden="true"`)
		}
		h.raw(`><h2>`)
		h.text(cms.Banner.Heading)
		h.raw(`</h2><p>`)
		h.text(cms.Banner.Body)
		h.raw(`</p><form method="post"`)
		h.attr("action", consentPath)
		h.attr("hx-post", consentPath)
		h.attr("hx-target", "#"+BannerID)
		h.raw(` hx-swap="outerHTML">`)
		h.raw(`<button type="submit" name="accepted" value="true" data-click="accept-consent">`)
		h.text(cms.Banner.AcceptLabel)
		h.raw(`</button><button type="submit" name="accepted" value="false" data-click="reject-consent">`)
		h.text(cms.Banner.RejectLabel)
		h.raw(`</button></form></section>`)
		return h.err
	})
}

// PersonaControls renders the persona toggles and the clear-preferences control.
func PersonaControls(view personalization.HeaderView, cms *content.Header) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &writer{w: w}
		h.raw(`<nav class="persona-selector" aria-label="Personalise news">`)
		h.raw(`<form method="post"`)
		h.attr("action", personaPath)
		h.attr("hx-post", personaPath)
		h.raw(`><input type="hidden" name="previous"`)
		h.attr("value", string(view.Audience.Visible))
		h.raw(">")
		personaButton(h, domain.PersonaStudent, cms.Controls.StudentLabel, view.Audience.StudentPressed)
		personaButton(h, domain.PersonaFaculty, cms.Controls.FacultyLabel, view.Audience.FacultyPressed)
		h.raw(`</form><form method="post"`)
		h.attr("action", clearPath)
		h.attr("hx-post", clearPath)
		h.raw(`><button type="submit" data-click="clear-preferences"`)
		if !view.ClearPreferencesEnabled {
			h.raw(" disabled")
		}
		h.raw(">")
		h.text(cms.Controls.ClearLabel)
		h.raw(`</button></form></nav>`)
		return h.err
	})
}

func personaButton(h *writer, persona domain.Persona, label string, pressed bool) {
	h.raw(`<button type="submit" name="selected"`)
	h.attr("value", string(persona))
	h.attr("data-click", string(persona)+"-persona")
	h.attr("aria-pressed", strconv.FormatBool(pressed))
	h.raw(">")
	h.text(label)
	h.raw("</button>")
}

// AudienceSections renders all three audience sections with exactly one visible.
func AudienceSections(view personalization.HeaderView, cms *content.Header) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &writer{w: w}
		for _, persona := range domain.Personas {
			hidden := !view.Audience.IsVisible(persona)
			section := cms.Audience(persona)
			h.raw("<div")
			h.attr("data-audience", string(persona))
			h.attr("class", classes("audience-section", hidden))
			if hidden {
				h.raw(" hidden")
			}
			h.raw("><h3>")
			h.text(section.Heading)
			h.raw("</h3><ul>")
			for _, link := range section.Links {
				h.raw("<li><a")
				h.attr("href", string(templ.URL(link.URL)))
				h.raw(">")
				h.text(link.Title)
				h.raw("</a></li>")
			}
			h.raw("</ul></div>")
		}
		return h.err
	})
}

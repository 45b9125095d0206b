// Package cookies reads and writes the personalisation cookies on a fiber request.
package cookies

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/personalisation-service/internal/config"
	"github.com/spec-kit/personalisation-service/internal/domain"
)

const (
	// ConsentName stores the CDP consent decision as JSON.
	ConsentName = "squiz.cdp.consent"
	// PersonaName stores the selected persona as a bare string.
	PersonaName = "preferences_personalisation"
	// VisitorName stores the anonymous visitor id.
	VisitorName = "personalisation_visitor"
)

type consentPayload struct {
	CDPConsent *bool `json:"CDPConsent"`
}

// Policy carries the cookie attributes shared by every write.
type Policy struct {
	Domain              string
	MaxAge              time.Duration
	TrustForwardedProto bool
}

// PolicyFromConfig builds a Policy from cookie configuration.
func PolicyFromConfig(cfg config.CookieConfig) Policy {
	return Policy{Domain: cfg.Domain, MaxAge: cfg.MaxAge(), TrustForwardedProto: cfg.TrustForwards}
}

// Jar is a request-scoped view over the personalisation cookies.
type Jar struct {
	c       *fiber.Ctx
	policy  Policy
	now     func() time.Time
	visitor string
}

// NewJar binds a Jar to the current request.
func NewJar(c *fiber.Ctx, policy Policy) *Jar {
	return &Jar{c: c, policy: policy, now: time.Now}
}

// Get returns the trimmed cookie value when present.
func (j *Jar) Get(name string) (string, bool) {
	value := strings.TrimSpace(j.c.Cookies(name))
	if value == "" {
		return "", false
	}
	return value, true
}

// Set writes a cookie with the jar policy.
func (j *Jar) Set(name, value string, httpOnly bool) {
	j.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   j.policy.Domain,
		MaxAge:   int(j.policy.MaxAge.Seconds()),
		Expires:  j.now().Add(j.policy.MaxAge),
		Secure:   j.secure(),
		HTTPOnly: httpOnly,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Clear expires a cookie. fiber writes no max-age for a negative MaxAge, so
// the epoch Expires is what reaches the browser.
func (j *Jar) Clear(name string, httpOnly bool) {
	j.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   j.policy.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   j.secure(),
		HTTPOnly: httpOnly,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Consent reads the CDP consent cookie. Missing or malformed values are undecided.
func (j *Jar) Consent() domain.ConsentState {
	raw, ok := j.Get(ConsentName)
	if !ok {
		return domain.ConsentUndecided
	}
	return DecodeConsent(raw)
}

// Persona reads the persona cookie, defaulting to external.
func (j *Jar) Persona() domain.Persona {
	raw, ok := j.Get(PersonaName)
	if !ok {
		return domain.PersonaExternal
	}
	return domain.ParsePersona(raw)
}

// WriteConsent stores the consent decision. Undecided clears the cookie.
func (j *Jar) WriteConsent(state domain.ConsentState) {
	if !state.Decided() {
		j.Clear(ConsentName, false)
		return
	}
	// Left readable by script: the CDP browser snippet reads it.
	j.Set(ConsentName, EncodeConsent(state), false)
}

// WritePersona stores the persona. External clears the cookie.
func (j *Jar) WritePersona(persona domain.Persona) {
	if persona.IsExternal() {
		j.Clear(PersonaName, true)
		return
	}
	j.Set(PersonaName, persona.CookieValue(), true)
}

// VisitorID returns the anonymous visitor id, issuing one on first use.
func (j *Jar) VisitorID() string {
	if j.visitor != "" {
		return j.visitor
	}
	if raw, ok := j.Get(VisitorName); ok {
		if id, err := uuid.Parse(raw); err == nil {
			j.visitor = id.String()
			return j.visitor
		}
	}
	j.visitor = uuid.NewString()
	j.Set(VisitorName, j.visitor, true)
	return j.visitor
}

// EncodeConsent renders the consent cookie value.
func EncodeConsent(state domain.ConsentState) string {
	accepted := state == domain.ConsentAccepted
	payload, _ := json.Marshal(consentPayload{CDPConsent: &accepted})
	return url.QueryEscape(string(payload))
}

// DecodeConsent parses a consent cookie value, escaped or not.
func DecodeConsent(raw string) domain.ConsentState {
	value := strings.TrimSpace(raw)
	if unescaped, err := url.QueryUnescape(value); err == nil {
		value = unescaped
	}
	var payload consentPayload
	if err := json.Unmarshal([]byte(value), &payload); err != nil || payload.CDPConsent == nil {
		return domain.ConsentUndecided
	}
	return domain.ConsentFromBool(*payload.CDPConsent)
}

func (j *Jar) secure() bool {
	if j.policy.TrustForwardedProto {
		if proto := j.c.Get(fiber.HeaderXForwardedProto); proto != "" {
			return strings.EqualFold(strings.TrimSpace(strings.Split(proto, ",")[0]), "https")
		}
	}
	return j.c.Context().IsTLS()
}

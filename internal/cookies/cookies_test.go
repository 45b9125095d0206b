package cookies

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/personalisation-service/internal/domain"
)

var testPolicy = Policy{MaxAge: 130 * 24 * time.Hour}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestConsentCodec(t *testing.T) {
	assert.Equal(t, domain.ConsentAccepted, DecodeConsent(EncodeConsent(domain.ConsentAccepted)))
	assert.Equal(t, domain.ConsentRejected, DecodeConsent(EncodeConsent(domain.ConsentRejected)))
	assert.Equal(t, domain.ConsentAccepted, DecodeConsent(`{"CDPConsent":true}`))
	assert.Equal(t, domain.ConsentUndecided, DecodeConsent(`{}`))
	assert.Equal(t, domain.ConsentUndecided, DecodeConsent(`not-json`))
}

func TestWritePersonaRoundTrip(t *testing.T) {
	app := fiber.New()
	app.Get("/write", func(c *fiber.Ctx) error {
		NewJar(c, testPolicy).WritePersona(domain.PersonaStudent)
		return c.SendStatus(http.StatusNoContent)
	})
	app.Get("/read", func(c *fiber.Ctx) error {
		return c.SendString(string(NewJar(c, testPolicy).Persona()))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/write", nil))
	require.NoError(t, err)
	cookie := findCookie(resp, PersonaName)
	require.NotNil(t, cookie)
	assert.Equal(t, "student", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int((130 * 24 * time.Hour).Seconds()), cookie.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(&http.Cookie{Name: PersonaName, Value: cookie.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "student", string(body))
}

func TestWritePersonaExternalClears(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		NewJar(c, testPolicy).WritePersona(domain.PersonaExternal)
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	cookie := findCookie(resp, PersonaName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()))
}

func TestClearExpiresImmediately(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		NewJar(c, testPolicy).WriteConsent(domain.ConsentUndecided)
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	raw := resp.Header.Get("Set-Cookie")
	assert.Contains(t, raw, "expires=Thu, 01 Jan 1970 00:00:00 GMT")
	assert.NotContains(t, raw, "max-age=")

	cookie := findCookie(resp, ConsentName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, time.Unix(0, 0).UTC(), cookie.Expires)
}

func TestReadDefaults(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		jar := NewJar(c, testPolicy)
		return c.JSON(fiber.Map{"consent": jar.Consent(), "persona": jar.Persona()})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"consent":"undecided","persona":"external"}`, string(body))
}

func TestQuotedPersonaCookie(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(string(NewJar(c, testPolicy).Persona()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", PersonaName+`="faculty"`)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "faculty", string(body))
}

func TestSecureFollowsForwardedProto(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		NewJar(c, Policy{MaxAge: time.Hour, TrustForwardedProto: true}).WriteConsent(domain.ConsentAccepted)
		return c.SendStatus(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	resp, err := app.Test(req)
	require.NoError(t, err)
	cookie := findCookie(resp, ConsentName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
	assert.False(t, cookie.HttpOnly)
	assert.Equal(t, domain.ConsentAccepted, DecodeConsent(cookie.Value))
}

func TestVisitorIDIsStable(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		jar := NewJar(c, testPolicy)
		first := jar.VisitorID()
		if jar.VisitorID() != first {
			return fiber.NewError(http.StatusInternalServerError, "visitor id changed")
		}
		return c.SendString(first)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	issued := findCookie(resp, VisitorName)
	require.NotNil(t, issued)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: VisitorName, Value: issued.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Nil(t, findCookie(resp, VisitorName), "existing visitor id is not reissued")
}

package cdp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/personalisation-service/internal/auth"
	"github.com/spec-kit/personalisation-service/internal/domain"
)

// HTTPClient sends calls straight to the CDP REST API.
type HTTPClient struct {
	baseURL string
	tokens  *auth.TokenManager
	timeout time.Duration
	now     func() time.Time
}

// NewHTTPClient builds a client for baseURL. Requests carry a short-lived
// bearer token signed with the CDP secret.
func NewHTTPClient(baseURL string, tokens *auth.TokenManager, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		timeout: timeout,
		now:     time.Now,
	}
}

// SetConsent implements Client.
func (h *HTTPClient) SetConsent(ctx context.Context, visitorID string, flag int) error {
	return h.send(ctx, "/consent", Call{Kind: CallSetConsent, VisitorID: visitorID, Consent: flag, At: h.now()})
}

// SetPersona implements Client.
func (h *HTTPClient) SetPersona(ctx context.Context, visitorID, source string, persona *string) error {
	return h.send(ctx, "/persona", Call{Kind: CallSetPersona, VisitorID: visitorID, Source: source, Persona: persona, At: h.now()})
}

func (h *HTTPClient) send(ctx context.Context, path string, call Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := h.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 && h.timeout > 0 {
		return context.DeadlineExceeded
	}

	token, _, err := h.tokens.GenerateToken(call.VisitorID, domain.SubjectTypeService)
	if err != nil {
		return fmt.Errorf("cdp: sign request: %w", err)
	}

	agent := fiber.Post(h.baseURL + path)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	agent.JSON(call)
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("cdp: build request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("cdp: %s: %w", path, errors.Join(errs...))
	}
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		return &StatusError{Path: path, Code: code, Body: string(body)}
	}
	return nil
}

// StatusError reports a non-2xx CDP response.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cdp: %s returned %d", e.Path, e.Code)
}

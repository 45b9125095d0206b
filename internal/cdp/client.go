// Package cdp talks to the customer data platform that mirrors consent and persona choices.
package cdp

import (
	"context"
	"time"
)

// CallKind names the CDP operation a Call carries.
type CallKind string

const (
	CallSetConsent CallKind = "set_consent"
	CallSetPersona CallKind = "set_persona"
)

// Client is the CDP surface the coordinator depends on.
type Client interface {
	SetConsent(ctx context.Context, visitorID string, flag int) error
	SetPersona(ctx context.Context, visitorID, source string, persona *string) error
}

// Call is one CDP invocation, in the shape it is queued and sent.
type Call struct {
	Kind      CallKind  `json:"kind"`
	VisitorID string    `json:"visitor_id"`
	Consent   int       `json:"consent"`
	Source    string    `json:"source,omitempty"`
	Persona   *string   `json:"persona"`
	At        time.Time `json:"at"`
}

// Noop discards every call. It is used when no CDP endpoint is configured.
type Noop struct{}

func (Noop) SetConsent(context.Context, string, int) error { return nil }

func (Noop) SetPersona(context.Context, string, string, *string) error { return nil }

// Deliver replays a Call against a Client.
func Deliver(ctx context.Context, client Client, call Call) error {
	switch call.Kind {
	case CallSetConsent:
		return client.SetConsent(ctx, call.VisitorID, call.Consent)
	case CallSetPersona:
		return client.SetPersona(ctx, call.VisitorID, call.Source, call.Persona)
	default:
		return &UnknownCallError{Kind: call.Kind}
	}
}

// UnknownCallError is returned for calls with an unrecognised kind.
type UnknownCallError struct {
	Kind CallKind
}

func (e *UnknownCallError) Error() string {
	return "cdp: unknown call kind " + string(e.Kind)
}

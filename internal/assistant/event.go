package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Variant identifies which upstream shape an event arrived in.
type Variant string

const (
	// VariantPayload events nest everything under Payload:
	// Payload.OriginalInput.text and Payload.SessionData.messages.
	VariantPayload Variant = "payload"
	// VariantSession events carry OriginalInput.text and
	// SessionData.result.messages at the top level.
	VariantSession Variant = "session"
)

// DefaultSessionText replaces a missing message in session events.
const DefaultSessionText = "Hola"

// Request is the canonical form of an invocation, independent of event shape.
type Request struct {
	Variant Variant
	Text    string
	History []ConversationTurn
	// StampTimestamp prefixes the user turn with the invocation time.
	StampTimestamp bool
}

// eventAdapter maps one event shape onto Request.
type eventAdapter interface {
	variant() Variant
	matches(keys map[string]json.RawMessage) bool
	normalize(data []byte) (Request, error)
}

var eventAdapters = []eventAdapter{payloadAdapter{}, sessionAdapter{}}

// NormalizeEvent detects the event shape and converts it to a Request.
// It fails with *InvalidEventError before any external call is made.
func NormalizeEvent(data []byte) (Request, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Request{}, &InvalidEventError{Reason: "event is empty"}
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return Request{}, &InvalidEventError{Reason: fmt.Sprintf("event is not a JSON object: %v", err)}
	}

	for _, adapter := range eventAdapters {
		if adapter.matches(keys) {
			return adapter.normalize(trimmed)
		}
	}
	return Request{}, &InvalidEventError{Reason: "event has neither Payload nor OriginalInput/SessionData"}
}

type originalInput struct {
	Text    *string `json:"text"`
	Message *struct {
		Text *string `json:"text"`
	} `json:"message"`
}

// text prefers OriginalInput.text and falls back to OriginalInput.message.text.
func (o *originalInput) text() (string, bool) {
	if o == nil {
		return "", false
	}
	if o.Text != nil {
		return *o.Text, true
	}
	if o.Message != nil && o.Message.Text != nil {
		return *o.Message.Text, true
	}
	return "", false
}

type payloadAdapter struct{}

type payloadEvent struct {
	Payload *struct {
		OriginalInput *originalInput `json:"OriginalInput"`
		SessionData   *struct {
			Messages []ConversationTurn `json:"messages"`
		} `json:"SessionData"`
	} `json:"Payload"`
}

func (payloadAdapter) variant() Variant { return VariantPayload }

func (payloadAdapter) matches(keys map[string]json.RawMessage) bool {
	_, ok := keys["Payload"]
	return ok
}

func (a payloadAdapter) normalize(data []byte) (Request, error) {
	var evt payloadEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return Request{}, &InvalidEventError{Variant: a.variant(), Path: "Payload", Reason: fmt.Sprintf("could not be decoded: %v", err)}
	}
	if evt.Payload == nil {
		return Request{}, &InvalidEventError{Variant: a.variant(), Path: "Payload", Reason: "is missing"}
	}
	if evt.Payload.OriginalInput == nil {
		return Request{}, &InvalidEventError{Variant: a.variant(), Path: "Payload.OriginalInput", Reason: "is missing"}
	}
	text, ok := evt.Payload.OriginalInput.text()
	if !ok {
		return Request{}, &InvalidEventError{Variant: a.variant(), Path: "Payload.OriginalInput.text", Reason: "is missing"}
	}

	var history []ConversationTurn
	if evt.Payload.SessionData != nil {
		history = evt.Payload.SessionData.Messages
	}
	return Request{
		Variant: a.variant(),
		Text:    text,
		History: nonNil(history),
	}, nil
}

type sessionAdapter struct{}

type sessionEvent struct {
	OriginalInput *originalInput `json:"OriginalInput"`
	SessionData   *struct {
		Result *struct {
			Messages *[]ConversationTurn `json:"messages"`
		} `json:"result"`
	} `json:"SessionData"`
}

func (sessionAdapter) variant() Variant { return VariantSession }

func (sessionAdapter) matches(keys map[string]json.RawMessage) bool {
	_, hasInput := keys["OriginalInput"]
	_, hasSession := keys["SessionData"]
	return hasInput || hasSession
}

func (a sessionAdapter) normalize(data []byte) (Request, error) {
	var evt sessionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return Request{}, &InvalidEventError{Variant: a.variant(), Path: "SessionData", Reason: fmt.Sprintf("could not be decoded: %v", err)}
	}
	switch {
	case evt.SessionData == nil:
		return Request{}, &InvalidEventError{Variant: a.variant(), Path: "SessionData", Reason: "is missing"}
	case evt.SessionData.Result == nil:
		return Request{}, &InvalidEventError{Variant: a.variant(), Path: "SessionData.result", Reason: "is missing"}
	case evt.SessionData.Result.Messages == nil:
		return Request{}, &InvalidEventError{Variant: a.variant(), Path: "SessionData.result.messages", Reason: "is missing"}
	}

	text, ok := evt.OriginalInput.text()
	if !ok || strings.TrimSpace(text) == "" {
		text = DefaultSessionText
	}
	return Request{
		Variant:        a.variant(),
		Text:           text,
		History:        nonNil(*evt.SessionData.Result.Messages),
		StampTimestamp: true,
	}, nil
}

func nonNil(turns []ConversationTurn) []ConversationTurn {
	if turns == nil {
		return []ConversationTurn{}
	}
	return turns
}

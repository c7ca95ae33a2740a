// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package uia2

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AleutianAI/traverse/pkg/driver"
)

// WireError is a decoded WebDriver error response. The server reports
// failures as an HTTP error status with a JSON body naming a W3C error
// code such as "no such element" or "invalid session id".
type WireError struct {
	// HTTPStatus is the response status code.
	HTTPStatus int

	// Code is the W3C error identifier, empty when the body could not be
	// decoded.
	Code string

	// Message is the human readable explanation from the server.
	Message string

	// Stacktrace is the server-side trace, when provided.
	Stacktrace string
}

func (e *WireError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error %q: %s (http %d)", e.Code, e.Message, e.HTTPStatus)
	}
	if e.Message != "" {
		return fmt.Sprintf("server error: %s (http %d)", e.Message, e.HTTPStatus)
	}
	return fmt.Sprintf("server error: http %d", e.HTTPStatus)
}

// decodeWireError builds a WireError from an error response body. Bodies
// that are not valid W3C error envelopes keep the raw text as the message.
func decodeWireError(status int, body []byte) *WireError {
	var envelope struct {
		Value struct {
			Error      string `json:"error"`
			Message    string `json:"message"`
			Stacktrace string `json:"stacktrace"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && (envelope.Value.Error != "" || envelope.Value.Message != "") {
		return &WireError{
			HTTPStatus: status,
			Code:       envelope.Value.Error,
			Message:    envelope.Value.Message,
			Stacktrace: envelope.Value.Stacktrace,
		}
	}
	return &WireError{HTTPStatus: status, Message: string(body)}
}

// stringValue is the envelope for endpoints that return a bare string,
// such as /source and /screenshot.
type stringValue struct {
	Value string `json:"value"`
}

// sessionResponse is the envelope returned by POST /session.
type sessionResponse struct {
	Value struct {
		SessionID    string         `json:"sessionId"`
		Capabilities map[string]any `json:"capabilities"`
	} `json:"value"`
}

// statusResponse is the envelope returned by GET /status.
type statusResponse struct {
	Value struct {
		Ready   bool   `json:"ready"`
		Message string `json:"message"`
		Build   struct {
			Version string `json:"version"`
		} `json:"build"`
	} `json:"value"`
}

// rectResponse is the envelope returned by GET /window/rect. The server
// reports dimensions as floats.
type rectResponse struct {
	Value struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"value"`
}

// newSessionRequest is the W3C session creation payload.
type newSessionRequest struct {
	Capabilities struct {
		AlwaysMatch map[string]any `json:"alwaysMatch"`
	} `json:"capabilities"`
}

// actionsRequest is the payload for POST /session/{id}/actions.
type actionsRequest struct {
	Actions []pointerSequence `json:"actions"`
}

// pointerSequence is one input source in a W3C actions payload. Gestures
// here always use a single touch pointer named "touch".
type pointerSequence struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Parameters pointerParameters `json:"parameters"`
	Actions    []pointerAction   `json:"actions"`
}

type pointerParameters struct {
	PointerType string `json:"pointerType"`
}

// pointerAction is a single step within a pointer sequence. Fields are
// pointers so that legitimate zero values, a tap at x=0 in particular,
// survive marshalling while absent fields stay off the wire.
type pointerAction struct {
	Type     string `json:"type"`
	Duration *int   `json:"duration,omitempty"`
	X        *int   `json:"x,omitempty"`
	Y        *int   `json:"y,omitempty"`
	Button   *int   `json:"button,omitempty"`
	Origin   string `json:"origin,omitempty"`
}

func intp(v int) *int { return &v }

func pointerMove(p driver.Point, duration time.Duration) pointerAction {
	return pointerAction{
		Type:     "pointerMove",
		Duration: intp(int(duration.Milliseconds())),
		X:        intp(p.X),
		Y:        intp(p.Y),
		Origin:   "viewport",
	}
}

func pointerDown() pointerAction {
	return pointerAction{Type: "pointerDown", Button: intp(0)}
}

func pointerUp() pointerAction {
	return pointerAction{Type: "pointerUp", Button: intp(0)}
}

func pauseAction(d time.Duration) pointerAction {
	return pointerAction{Type: "pause", Duration: intp(int(d.Milliseconds()))}
}

func touchSequence(actions []pointerAction) pointerSequence {
	return pointerSequence{
		Type:       "pointer",
		ID:         "touch",
		Parameters: pointerParameters{PointerType: "touch"},
		Actions:    actions,
	}
}

// tapSequence presses and releases at p. A positive hold inserts a pause
// between press and release, which the server interprets as a long press.
func tapSequence(p driver.Point, hold time.Duration) pointerSequence {
	actions := []pointerAction{
		pointerMove(p, 0),
		pointerDown(),
	}
	if hold > 0 {
		actions = append(actions, pauseAction(hold))
	}
	actions = append(actions, pointerUp())
	return touchSequence(actions)
}

// swipeSequence presses at start, drags to end over the given duration,
// and releases.
func swipeSequence(start, end driver.Point, duration time.Duration) pointerSequence {
	return touchSequence([]pointerAction{
		pointerMove(start, 0),
		pointerDown(),
		pointerMove(end, duration),
		pointerUp(),
	})
}

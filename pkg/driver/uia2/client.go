// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package uia2 implements driver.Driver over the WebDriver wire protocol
// as spoken by the Appium UiAutomator2 server.
//
// The client keeps one session per Client value. Gestures go through the
// W3C /actions endpoint with a single touch pointer, matching what the
// server expects from modern Appium clients. Every request carries an
// X-Request-ID header so device-side logs can be correlated with the
// navigation run that produced them.
package uia2

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/traverse/pkg/driver"
	"github.com/AleutianAI/traverse/pkg/logging"
)

const (
	// DefaultRequestTimeout bounds a single wire call. Navigation timeouts
	// span many calls; this guards against a hung device connection.
	DefaultRequestTimeout = 30 * time.Second

	// defaultSwipeDuration is used when Swipe is called with a zero
	// duration. Fast enough to register as a fling on stock Android.
	defaultSwipeDuration = 250 * time.Millisecond

	// maxErrorBody caps how much of an error response is read when
	// decoding a server failure.
	maxErrorBody = 64 * 1024
)

// ErrNoSession is returned by session-scoped calls before NewSession has
// succeeded or after DeleteSession.
var ErrNoSession = errors.New("no active session")

// Capabilities describes the session to request from the server. Zero
// values for PlatformName and AutomationName default to Android and
// UiAutomator2.
type Capabilities struct {
	PlatformName      string
	AutomationName    string
	DeviceName        string
	UDID              string
	AppPackage        string
	AppActivity       string
	NewCommandTimeout time.Duration
	NoReset           bool
}

// wire renders the capabilities as a W3C alwaysMatch map. Appium-specific
// entries carry the "appium:" vendor prefix.
func (c Capabilities) wire() map[string]any {
	m := map[string]any{
		"platformName":          defaultString(c.PlatformName, "Android"),
		"appium:automationName": defaultString(c.AutomationName, "UiAutomator2"),
	}
	if c.DeviceName != "" {
		m["appium:deviceName"] = c.DeviceName
	}
	if c.UDID != "" {
		m["appium:udid"] = c.UDID
	}
	if c.AppPackage != "" {
		m["appium:appPackage"] = c.AppPackage
	}
	if c.AppActivity != "" {
		m["appium:appActivity"] = c.AppActivity
	}
	if c.NewCommandTimeout > 0 {
		m["appium:newCommandTimeout"] = int(c.NewCommandTimeout.Seconds())
	}
	if c.NoReset {
		m["appium:noReset"] = true
	}
	return m
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Status reports server health as returned by GET /status.
type Status struct {
	Ready   bool
	Message string
	Version string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the HTTP client, e.g. one with custom
// transport settings for a device farm proxy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestTimeout bounds each wire call. Defaults to
// DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithRateLimit caps outgoing wire calls at rps requests per second with
// the given burst. Useful against emulator farms that throttle aggressive
// clients. Non-positive rps leaves the client unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithLogger sets the logger. Defaults to logging.Default().
func WithLogger(log *logging.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client talks to one UiAutomator2 server. Safe for concurrent use; the
// session identifier is guarded so polling goroutines may share a Client
// with the goroutine driving gestures.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	limiter        *rate.Limiter
	log            *logging.Logger

	mu        sync.RWMutex
	sessionID string
}

var _ driver.Driver = (*Client)(nil)

// NewClient creates a client for the server at baseURL, e.g.
// "http://127.0.0.1:4723". No connection is made until NewSession or
// Status is called.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		requestTimeout: DefaultRequestTimeout,
		log:            logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionID returns the active session identifier, or empty when no
// session is open.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// NewSession opens a WebDriver session with the given capabilities. An
// existing session is replaced without being closed; call DeleteSession
// first to end it cleanly.
func (c *Client) NewSession(ctx context.Context, caps Capabilities) error {
	var req newSessionRequest
	req.Capabilities.AlwaysMatch = caps.wire()

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/session", req, &resp); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if resp.Value.SessionID == "" {
		return fmt.Errorf("create session: server returned no session id")
	}

	c.mu.Lock()
	c.sessionID = resp.Value.SessionID
	c.mu.Unlock()

	c.log.Info("session created", "session_id", resp.Value.SessionID, "server", c.baseURL)
	return nil
}

// DeleteSession ends the active session. Calling it without a session is
// a no-op.
func (c *Client) DeleteSession(ctx context.Context) error {
	id := c.SessionID()
	if id == "" {
		return nil
	}

	err := c.do(ctx, http.MethodDelete, "/session/"+id, nil, nil)

	c.mu.Lock()
	c.sessionID = ""
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	c.log.Info("session deleted", "session_id", id)
	return nil
}

// Status fetches server health. Works without a session.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return &Status{
		Ready:   resp.Value.Ready,
		Message: resp.Value.Message,
		Version: resp.Value.Build.Version,
	}, nil
}

// RequireVersion fails unless the server reports a semantic version at
// least min, e.g. "2.29.0". Servers that omit a version are rejected so
// callers never proceed against an unknown build.
func (c *Client) RequireVersion(ctx context.Context, min string) error {
	minCanonical := canonicalVersion(min)
	if !semver.IsValid(minCanonical) {
		return fmt.Errorf("require version: invalid minimum %q", min)
	}

	status, err := c.Status(ctx)
	if err != nil {
		return fmt.Errorf("require version: %w", err)
	}
	if status.Version == "" {
		return fmt.Errorf("require version: server did not report a version")
	}

	got := canonicalVersion(status.Version)
	if !semver.IsValid(got) {
		return fmt.Errorf("require version: server reported unparseable version %q", status.Version)
	}
	if semver.Compare(got, minCanonical) < 0 {
		return fmt.Errorf("require version: server %s is below minimum %s", status.Version, min)
	}
	return nil
}

// canonicalVersion prefixes the leading "v" that x/mod/semver expects.
// Appium servers report bare versions like "2.29.4".
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// Tap presses and releases the touch pointer at p.
func (c *Client) Tap(ctx context.Context, p driver.Point) error {
	if err := c.performActions(ctx, tapSequence(p, 0)); err != nil {
		return fmt.Errorf("tap %d,%d: %w", p.X, p.Y, err)
	}
	return nil
}

// LongPress holds the touch pointer at p for the given duration before
// releasing. Durations at or below zero degrade to a plain tap.
func (c *Client) LongPress(ctx context.Context, p driver.Point, hold time.Duration) error {
	if err := c.performActions(ctx, tapSequence(p, hold)); err != nil {
		return fmt.Errorf("long press %d,%d: %w", p.X, p.Y, err)
	}
	return nil
}

// Swipe drags from start to end over the given duration. Zero duration
// uses a fling-speed default.
func (c *Client) Swipe(ctx context.Context, start, end driver.Point, duration time.Duration) error {
	if duration <= 0 {
		duration = defaultSwipeDuration
	}
	if err := c.performActions(ctx, swipeSequence(start, end, duration)); err != nil {
		return fmt.Errorf("swipe %d,%d -> %d,%d: %w", start.X, start.Y, end.X, end.Y, err)
	}
	return nil
}

func (c *Client) performActions(ctx context.Context, seq pointerSequence) error {
	path, err := c.sessionPath("/actions")
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, actionsRequest{Actions: []pointerSequence{seq}}, nil)
}

// Back triggers the Android back button.
func (c *Client) Back(ctx context.Context) error {
	path, err := c.sessionPath("/back")
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("back: %w", err)
	}
	return nil
}

// Source returns the current UI hierarchy XML.
func (c *Client) Source(ctx context.Context) (string, error) {
	path, err := c.sessionPath("/source")
	if err != nil {
		return "", err
	}
	var resp stringValue
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("source: %w", err)
	}
	return resp.Value, nil
}

// WindowSize returns the device viewport dimensions.
func (c *Client) WindowSize(ctx context.Context) (driver.Size, error) {
	path, err := c.sessionPath("/window/rect")
	if err != nil {
		return driver.Size{}, err
	}
	var resp rectResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return driver.Size{}, fmt.Errorf("window size: %w", err)
	}
	return driver.Size{
		Width:  int(resp.Value.Width),
		Height: int(resp.Value.Height),
	}, nil
}

// CurrentPackage returns the package name of the foreground application.
func (c *Client) CurrentPackage(ctx context.Context) (string, error) {
	path, err := c.sessionPath("/appium/device/current_package")
	if err != nil {
		return "", err
	}
	var resp stringValue
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("current package: %w", err)
	}
	return resp.Value, nil
}

// Screenshot captures the display and returns decoded PNG bytes.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	path, err := c.sessionPath("/screenshot")
	if err != nil {
		return nil, err
	}
	var resp stringValue
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Value)
	if err != nil {
		return nil, fmt.Errorf("screenshot: decode base64: %w", err)
	}
	return data, nil
}

// ExecuteScript runs an Appium mobile command, e.g. "mobile: deviceInfo".
// The raw value payload is returned for callers that need the result.
func (c *Client) ExecuteScript(ctx context.Context, script string, args []any) (json.RawMessage, error) {
	path, err := c.sessionPath("/execute/sync")
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = []any{}
	}
	req := struct {
		Script string `json:"script"`
		Args   []any  `json:"args"`
	}{Script: script, Args: args}

	var resp struct {
		Value json.RawMessage `json:"value"`
	}
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("execute %q: %w", script, err)
	}
	return resp.Value, nil
}

// StartLogsBroadcast asks the server to begin publishing device logs on
// its logcat websocket endpoint. Pair with the logcat package to consume
// the stream.
func (c *Client) StartLogsBroadcast(ctx context.Context) error {
	_, err := c.ExecuteScript(ctx, "mobile: startLogsBroadcast", nil)
	return err
}

// StopLogsBroadcast stops the device log broadcast.
func (c *Client) StopLogsBroadcast(ctx context.Context) error {
	_, err := c.ExecuteScript(ctx, "mobile: stopLogsBroadcast", nil)
	return err
}

// sessionPath prefixes a session-scoped endpoint with the active session.
func (c *Client) sessionPath(suffix string) (string, error) {
	id := c.SessionID()
	if id == "" {
		return "", ErrNoSession
	}
	return "/session/" + id + suffix, nil
}

// do executes one wire call. The body, when non-nil, is marshalled as
// JSON; out, when non-nil, receives the decoded response. Error statuses
// decode into *WireError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("wire call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID,
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return decodeWireError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

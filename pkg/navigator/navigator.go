// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package navigator bridges the page registry, the page graph, and live
// path execution.
//
// The navigator resolves a shortest path between two pages and walks it step
// by step: resolve the step's source page, invoke its edge action for the
// next page, then poll the landing page's IsCurrent until it confirms or the
// step's timeout elapses. Unreachability is a normal negative result;
// execution failure after a path was found is an error naming the failing
// step.
package navigator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/traverse/pkg/discovery"
	"github.com/AleutianAI/traverse/pkg/graph"
	"github.com/AleutianAI/traverse/pkg/logging"
	"github.com/AleutianAI/traverse/pkg/page"
)

// DefaultTimeout is the per-step navigation timeout used when callers have
// no opinion. UI transitions on slow emulators routinely take tens of
// seconds, hence the generous default.
const DefaultTimeout = 55 * time.Second

// defaultPollInterval is the sleep between IsCurrent checks.
const defaultPollInterval = 500 * time.Millisecond

var tracer = otel.Tracer("traverse.navigator")

// Status classifies the outcome of one Navigate call.
type Status string

const (
	// StatusCompleted means the full path was walked and verified.
	StatusCompleted Status = "completed"

	// StatusFailed means a path existed but a step did not complete.
	StatusFailed Status = "failed"

	// StatusNoPath means no route exists between the endpoints.
	StatusNoPath Status = "no_path"

	// StatusNoop means source and target were the same page.
	StatusNoop Status = "noop"
)

// Outcome summarizes one Navigate call for recording.
type Outcome struct {
	From      string
	To        string
	Path      []string
	Status    Status
	Reason    string
	StartedAt time.Time
	Duration  time.Duration
}

// RecordFunc receives navigation outcomes. Recording is best-effort: the
// navigator never lets it affect results.
type RecordFunc func(ctx context.Context, o Outcome)

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger sets the logger. Defaults to logging.Default().
func WithLogger(log *logging.Logger) Option {
	return func(n *Navigator) {
		if log != nil {
			n.log = log
		}
	}
}

// WithGraph substitutes the page graph, e.g. one constructed with
// graph.WithPathFinder to select the fallback search.
func WithGraph(g *graph.Graph) Option {
	return func(n *Navigator) {
		if g != nil {
			n.graph = g
		}
	}
}

// WithPollInterval sets the sleep between IsCurrent checks.
func WithPollInterval(d time.Duration) Option {
	return func(n *Navigator) {
		if d > 0 {
			n.poll = d
		}
	}
}

// WithRecorder registers a sink for navigation outcomes, typically backed by
// the history store.
func WithRecorder(fn RecordFunc) Option {
	return func(n *Navigator) {
		n.record = fn
	}
}

// Navigator resolves and executes paths through the page graph.
type Navigator struct {
	registry *page.Registry
	graph    *graph.Graph
	log      *logging.Logger
	poll     time.Duration
	record   RecordFunc

	mu         sync.Mutex
	discovered bool
}

// New returns a Navigator over the given registry. A nil registry gets a
// fresh empty one.
func New(registry *page.Registry, opts ...Option) *Navigator {
	if registry == nil {
		registry = page.NewRegistry()
	}
	n := &Navigator{
		registry: registry,
		graph:    graph.New(),
		log:      logging.Default(),
		poll:     defaultPollInterval,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Graph returns the underlying page graph.
func (n *Navigator) Graph() *graph.Graph {
	return n.graph
}

// Registry returns the underlying page registry.
func (n *Navigator) Registry() *page.Registry {
	return n.registry
}

// AddPage registers the page and its edges into the graph. Same nil-page
// contract as graph.AddPage.
func (n *Navigator) AddPage(p page.Page, edges page.Edges) error {
	if err := n.graph.AddPage(p, edges); err != nil {
		return err
	}
	n.log.Debug("page added to graph", "page", page.Key(p), "edges", len(edges))
	return nil
}

// Page returns the live singleton for the identifier. An unregistered
// identifier yields an error naming it.
func (n *Navigator) Page(id string) (page.Page, error) {
	return n.registry.GetOrCreate(id)
}

// resolvePage is Page's internal twin, used by path execution. Identical
// semantics; the separate name keeps execution call sites distinct from the
// public lookup surface.
func (n *Navigator) resolvePage(id string) (page.Page, error) {
	return n.registry.GetOrCreate(id)
}

// FindPath resolves both arguments to identifiers and returns a shortest
// path between them, or nil when none exists. Arguments may be identifier
// strings or page instances.
func (n *Navigator) FindPath(from, to any) []string {
	return n.graph.ShortestPath(from, to)
}

// RegisteredPages returns the sorted identifiers known to the registry.
func (n *Navigator) RegisteredPages() []string {
	return n.registry.IDs()
}

// Navigate drives the UI from one page to another.
//
// It returns (true, nil) when the target was reached (or the endpoints are
// the same page, which costs zero UI actions), (false, nil) when no path
// exists, and (false, err) for invalid arguments or a failed execution. The
// timeout bounds each step's verification wait, not the whole walk.
func (n *Navigator) Navigate(ctx context.Context, from, to page.Page, timeout time.Duration) (bool, error) {
	if from == nil {
		return false, ErrNilFromPage
	}
	if to == nil {
		return false, ErrNilToPage
	}
	if timeout < 0 {
		return false, ErrNegativeTimeout
	}

	fromID, toID := page.Key(from), page.Key(to)
	ctx, span := tracer.Start(ctx, "navigator.navigate",
		trace.WithAttributes(
			attribute.String("page.from", fromID),
			attribute.String("page.to", toID),
		),
	)
	defer span.End()
	start := time.Now()

	if fromID == toID {
		n.finish(ctx, Outcome{From: fromID, To: toID, Status: StatusNoop, StartedAt: start})
		return true, nil
	}

	path := n.FindPath(fromID, toID)
	if path == nil {
		n.log.Warn("no navigation path", "from", fromID, "to", toID)
		n.finish(ctx, Outcome{From: fromID, To: toID, Status: StatusNoPath, StartedAt: start})
		return false, nil
	}
	span.SetAttributes(attribute.Int("page.path_length", len(path)))
	navigationPathLength.Observe(float64(len(path)))

	if err := n.PerformNavigation(ctx, path, timeout); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.finish(ctx, Outcome{
			From: fromID, To: toID, Path: path,
			Status: StatusFailed, Reason: err.Error(), StartedAt: start,
		})
		return false, err
	}

	n.finish(ctx, Outcome{From: fromID, To: toID, Path: path, Status: StatusCompleted, StartedAt: start})
	return true, nil
}

// finish stamps the outcome, updates metrics, and hands it to the recorder.
func (n *Navigator) finish(ctx context.Context, o Outcome) {
	o.Duration = time.Since(o.StartedAt)
	navigationTotal.WithLabelValues(string(o.Status)).Inc()
	if o.Status == StatusCompleted || o.Status == StatusFailed {
		navigationDuration.Observe(o.Duration.Seconds())
	}
	n.log.Info("navigation finished",
		"from", o.From, "to", o.To,
		"status", string(o.Status), "duration", o.Duration,
	)
	if n.record != nil {
		n.record(ctx, o)
	}
}

// PerformNavigation executes a resolved path step by step. The path must
// contain at least two pages; the timeout bounds each step's verification
// wait. Partial completion is always reported as failure.
func (n *Navigator) PerformNavigation(ctx context.Context, path []string, timeout time.Duration) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if len(path) < 2 {
		return ErrPathTooShort
	}
	if timeout < 0 {
		return ErrNegativeTimeout
	}

	ctx, span := tracer.Start(ctx, "navigator.perform",
		trace.WithAttributes(
			attribute.StringSlice("page.path", path),
			attribute.Int("page.steps", len(path)-1),
		),
	)
	defer span.End()

	for i := 0; i < len(path)-1; i++ {
		if err := n.step(ctx, path[i], path[i+1], timeout); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return nil
}

// step executes one transition and verifies the landing page.
func (n *Navigator) step(ctx context.Context, current, next string, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, "navigator.step",
		trace.WithAttributes(
			attribute.String("page.from", current),
			attribute.String("page.to", next),
		),
	)
	defer span.End()

	p, err := n.resolvePage(current)
	if err != nil {
		stepFailureTotal.WithLabelValues("resolve").Inc()
		return &NavigationError{From: current, To: next, Err: err}
	}

	// The live edge set decides, not the snapshot the page registered
	// with: pages may narrow their edges with app state.
	action, ok := p.Edges()[next]
	if !ok || action == nil {
		stepFailureTotal.WithLabelValues("missing_edge").Inc()
		return &NavigationError{From: current, To: next, Err: ErrEdgeNotDeclared}
	}

	n.log.Debug("executing transition", "from", current, "to", next)
	landed, err := action(ctx)
	if err != nil {
		stepFailureTotal.WithLabelValues("transition").Inc()
		return &NavigationError{From: current, To: next, Err: err}
	}

	target := landed
	if target == nil {
		if target, err = n.resolvePage(next); err != nil {
			stepFailureTotal.WithLabelValues("resolve").Inc()
			return &NavigationError{From: current, To: next, Err: err}
		}
	}

	if err := n.waitForCurrent(ctx, target, next, timeout); err != nil {
		return &NavigationError{From: current, To: next, Err: err}
	}
	return nil
}

// waitForCurrent polls the page's IsCurrent in a bounded check-and-sleep
// loop. It checks at least once, respects ctx cancellation, and fails once
// the timeout is exhausted rather than hanging.
func (n *Navigator) waitForCurrent(ctx context.Context, target page.Page, id string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if target.IsCurrent(ctx) {
			return nil
		}
		if !time.Now().Before(deadline) {
			stepFailureTotal.WithLabelValues("verify_timeout").Inc()
			return fmt.Errorf("page %q did not become current within %v", id, timeout)
		}

		wait := n.poll
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			stepFailureTotal.WithLabelValues("canceled").Inc()
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// AutoDiscover registers every page the source provides: the factory goes
// into the registry, the instance and its declared edges into the graph.
//
// Discovery is idempotent. A flag set on the first call makes later calls
// no-ops, and the flag is set even when individual registrations fail:
// per-entry failures are logged and skipped, never propagated, and a
// skipped entry is unregistered again so the registry only lists pages
// that made it into the graph. Filtering by naming convention or source
// path belongs to the discovery adapter, not here.
func (n *Navigator) AutoDiscover(src discovery.Source) error {
	if src == nil {
		return ErrNilSource
	}

	n.mu.Lock()
	if n.discovered {
		n.mu.Unlock()
		n.log.Debug("page discovery already ran; skipping")
		return nil
	}
	n.discovered = true
	n.mu.Unlock()

	regs := src.Pages()
	added := 0
	for _, reg := range regs {
		if err := n.registry.Register(reg.ID, reg.Build); err != nil {
			n.log.Warn("skipping page registration", "page", reg.ID, "error", err)
			continue
		}
		p, err := n.registry.GetOrCreate(reg.ID)
		if err != nil {
			// A skipped entry leaves no half-registered factory behind.
			n.registry.Unregister(reg.ID)
			n.log.Warn("skipping page, constructor failed", "page", reg.ID, "error", err)
			continue
		}
		if err := n.AddPage(p, p.Edges()); err != nil {
			n.registry.Unregister(reg.ID)
			n.log.Warn("skipping page, graph rejected it", "page", reg.ID, "error", err)
			continue
		}
		added++
	}

	n.log.Info("page discovery complete", "registered", added, "candidates", len(regs))
	return nil
}

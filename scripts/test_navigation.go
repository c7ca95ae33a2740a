//go:build ignore

// Test script to exercise the full navigation pipeline in-process.
// Run with: go run scripts/test_navigation.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AleutianAI/traverse/pkg/history"
	"github.com/AleutianAI/traverse/pkg/logging"
	"github.com/AleutianAI/traverse/pkg/navigator"
	"github.com/AleutianAI/traverse/pkg/page"
)

// The demo app: a shared screen variable stands in for the device.
var screen = "PageHome"

func transitionTo(id string, p page.Page) page.Transition {
	return func(ctx context.Context) (page.Page, error) {
		screen = id
		return p, nil
	}
}

type PageHome struct{}

func (PageHome) Edges() page.Edges {
	return page.Edges{"PageSearch": transitionTo("PageSearch", PageSearch{})}
}
func (PageHome) IsCurrent(ctx context.Context) bool { return screen == "PageHome" }

type PageSearch struct{}

func (PageSearch) Edges() page.Edges {
	return page.Edges{
		"PageHome":    transitionTo("PageHome", PageHome{}),
		"PageResults": transitionTo("PageResults", PageResults{}),
	}
}
func (PageSearch) IsCurrent(ctx context.Context) bool { return screen == "PageSearch" }

type PageResults struct{}

func (PageResults) Edges() page.Edges {
	return page.Edges{
		"PageSearch":  transitionTo("PageSearch", PageSearch{}),
		"PageDetails": transitionTo("PageDetails", PageDetails{}),
	}
}
func (PageResults) IsCurrent(ctx context.Context) bool { return screen == "PageResults" }

type PageDetails struct{}

func (PageDetails) Edges() page.Edges {
	return page.Edges{"PageHome": transitionTo("PageHome", PageHome{})}
}
func (PageDetails) IsCurrent(ctx context.Context) bool { return screen == "PageDetails" }

// PageOrphan has no edges in either direction.
type PageOrphan struct{}

func (PageOrphan) Edges() page.Edges                  { return nil }
func (PageOrphan) IsCurrent(ctx context.Context) bool { return screen == "PageOrphan" }

func step(title string) {
	fmt.Println("\n┌─────────────────────────────────────────────────────────────────┐")
	fmt.Printf("│ %-63s │\n", title)
	fmt.Println("└─────────────────────────────────────────────────────────────────┘")
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║              NAVIGATION PIPELINE INTEGRATION TEST                 ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")

	quiet := logging.New(logging.Config{Level: logging.LevelError, Quiet: true})

	// 1. Open the journal
	step("Step 1: Opening an in-memory journal")
	journal, err := history.OpenInMemory(history.WithLogger(quiet))
	if err != nil {
		log.Fatalf("  ✗ OpenInMemory failed: %v", err)
	}
	defer journal.Close()
	fmt.Println("  ✓ Journal open")

	// 2. Register the demo pages
	step("Step 2: Registering 5 demo pages")
	nav := navigator.New(nil,
		navigator.WithLogger(quiet),
		navigator.WithPollInterval(time.Millisecond),
		navigator.WithRecorder(journal.Recorder()),
	)
	factories := []struct {
		id    string
		build page.Factory
	}{
		{"PageHome", func() (page.Page, error) { return PageHome{}, nil }},
		{"PageSearch", func() (page.Page, error) { return PageSearch{}, nil }},
		{"PageResults", func() (page.Page, error) { return PageResults{}, nil }},
		{"PageDetails", func() (page.Page, error) { return PageDetails{}, nil }},
		{"PageOrphan", func() (page.Page, error) { return PageOrphan{}, nil }},
	}
	for _, f := range factories {
		if err := nav.Registry().Register(f.id, f.build); err != nil {
			log.Fatalf("  ✗ Register %s failed: %v", f.id, err)
		}
		p, err := nav.Registry().GetOrCreate(f.id)
		if err != nil {
			log.Fatalf("  ✗ GetOrCreate %s failed: %v", f.id, err)
		}
		nav.Graph().AddPage(p, p.Edges())
		targets := nav.Graph().Edges(f.id)
		fmt.Printf("  ✓ %s → targets: %v\n", f.id, targets)
	}

	// 3. Inspect the graph
	step("Step 3: Inspecting the page graph")
	fmt.Printf("  Nodes: %d\n", nav.Graph().Len())
	fmt.Printf("  Edges: %d\n", nav.Graph().EdgeCount())

	// 4. Plan routes
	step("Step 4: Planning routes")
	path := nav.FindPath("PageHome", "PageDetails")
	if path == nil {
		log.Fatalf("  ✗ expected a route from PageHome to PageDetails")
	}
	fmt.Printf("  ✓ PageHome → PageDetails: %v (%d hops)\n", path, len(path)-1)
	if orphanPath := nav.FindPath("PageHome", "PageOrphan"); orphanPath == nil {
		fmt.Println("  ✓ PageHome → PageOrphan: no route, as declared")
	} else {
		log.Fatalf("  ✗ unexpected route to PageOrphan: %v", orphanPath)
	}

	// 5. Execute the navigation
	step("Step 5: Executing PageHome → PageDetails")
	home, err := nav.Page("PageHome")
	if err != nil {
		log.Fatalf("  ✗ %v", err)
	}
	details, err := nav.Page("PageDetails")
	if err != nil {
		log.Fatalf("  ✗ %v", err)
	}
	start := time.Now()
	arrived, err := nav.Navigate(ctx, home, details, 5*time.Second)
	duration := time.Since(start)
	if err != nil {
		log.Fatalf("  ✗ Navigate failed: %v", err)
	}
	if !arrived {
		log.Fatalf("  ✗ did not arrive, screen is %s", screen)
	}
	fmt.Printf("  ✓ Arrived in %v, screen is %s\n", duration, screen)

	// 6. Exercise the degenerate outcomes
	step("Step 6: Exercising noop and no-path outcomes")
	arrived, err = nav.Navigate(ctx, details, details, 5*time.Second)
	if err != nil || !arrived {
		log.Fatalf("  ✗ same-page navigation should be a noop: arrived=%v err=%v", arrived, err)
	}
	fmt.Println("  ✓ Same page: noop")
	orphan, err := nav.Page("PageOrphan")
	if err != nil {
		log.Fatalf("  ✗ %v", err)
	}
	arrived, err = nav.Navigate(ctx, details, orphan, 5*time.Second)
	if err != nil || arrived {
		log.Fatalf("  ✗ unreachable target should report no path: arrived=%v err=%v", arrived, err)
	}
	fmt.Println("  ✓ Unreachable target: no path, no error")

	// 7. Read the journal back
	step("Step 7: Reading the journal")
	records, err := journal.List(ctx, 10)
	if err != nil {
		log.Fatalf("  ✗ List failed: %v", err)
	}
	fmt.Printf("  ✓ Journal holds %d runs (newest first):\n", len(records))
	for _, r := range records {
		fmt.Printf("    - %s → %s: %s (%v)\n", r.From, r.To, r.Status, r.Duration)
	}

	// Summary
	fmt.Println("\n╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    TEST SUMMARY                                   ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════════╣")
	fmt.Println("║  Registry:         ✓ 5 pages registered                           ║")
	fmt.Println("║  Graph:            ✓ Built from live edges                        ║")
	fmt.Println("║  Pathfinder:       ✓ Routes and no-route both detected            ║")
	fmt.Println("║  Navigator:        ✓ Completed, noop, no_path outcomes            ║")
	fmt.Println("║  Journal:          ✓ Runs recorded and listed                     ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════════╣")
	fmt.Println("║  Navigation:       ✓ FULLY OPERATIONAL                            ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
}

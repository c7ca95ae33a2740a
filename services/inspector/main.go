// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/traverse/pkg/discovery"
	"github.com/AleutianAI/traverse/pkg/driver"
	"github.com/AleutianAI/traverse/pkg/driver/uia2"
	"github.com/AleutianAI/traverse/pkg/history"
	"github.com/AleutianAI/traverse/pkg/navigator"
	"github.com/AleutianAI/traverse/pkg/page"
	"github.com/AleutianAI/traverse/services/inspector/observability"
	"github.com/AleutianAI/traverse/services/inspector/routes"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	// Get the collector URL from the env var we set in podman-compose.yml
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "traverse-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("inspector-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// deviceSession lazily opens one UiAutomator2 session and shares it across
// all navigate requests. The mutex serializes opens so concurrent first
// requests do not race to create two sessions.
type deviceSession struct {
	mu     sync.Mutex
	client *uia2.Client
	caps   uia2.Capabilities
}

func newDeviceSession() *deviceSession {
	serverURL := os.Getenv("TRAVERSE_DRIVER_URL")
	if serverURL == "" {
		serverURL = "http://127.0.0.1:4723"
	}
	return &deviceSession{
		client: uia2.NewClient(serverURL),
		caps: uia2.Capabilities{
			UDID:        os.Getenv("TRAVERSE_DEVICE_UDID"),
			AppPackage:  os.Getenv("TRAVERSE_APP_PACKAGE"),
			AppActivity: os.Getenv("TRAVERSE_APP_ACTIVITY"),
			// Idle gaps between API calls are routine for a server, so
			// stretch the command timeout well past the Appium default.
			NewCommandTimeout: 5 * time.Minute,
			NoReset:           true,
		},
	}
}

// EnsureSession opens the device session on first use and installs the
// client as the process driver so page objects can reach it.
//
// TODO: reopen the session when the server expires it between requests
// (invalid session id).
func (s *deviceSession) EnsureSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client.SessionID() != "" {
		return nil
	}
	if err := s.client.NewSession(ctx, s.caps); err != nil {
		return err
	}
	driver.SetDefault(s.client)
	slog.Info("Opened a device session", "session_id", s.client.SessionID())
	if m := observability.DefaultMetrics; m != nil {
		m.RecordSessionStarted()
	}
	return nil
}

func (s *deviceSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.SessionID() != ""
}

func main() {
	port := os.Getenv("INSPECTOR_PORT")
	if port == "" {
		port = "12310"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	var navOpts []navigator.Option

	historyDir := os.Getenv("TRAVERSE_HISTORY_DIR")
	if historyDir != "" {
		journal, err := history.Open(historyDir)
		if err != nil {
			slog.Error("Failed to open the history journal. Runs will not be recorded.",
				"dir", historyDir, "error", err)
		} else {
			defer journal.Close()
			navOpts = append(navOpts, navigator.WithRecorder(journal.Recorder()))
		}
	} else {
		slog.Info("TRAVERSE_HISTORY_DIR not set. Running without navigation history.")
	}

	log.Println("Discovering registered pages")
	src := discovery.Filtered(discovery.Default, discovery.DefaultFilterOptions())
	nav := navigator.New(page.NewRegistry(), navOpts...)
	if err := nav.AutoDiscover(src); err != nil {
		log.Fatalf("FATAL: Could not build the page graph %v", err)
	}
	if len(nav.RegisteredPages()) == 0 {
		slog.Warn("No pages are linked into this binary. The API will serve an empty graph.")
	}

	sessions := newDeviceSession()

	router := gin.Default()
	router.Use(otelgin.Middleware("inspector-service"))

	routes.SetupRoutes(router, nav, src, sessions)
	log.Println("started up the container")

	log.Println("Starting the inspector server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/drey/pkg/ledger"
)

// TestHealthCheckEndpoint_MethodNotAllowed verifies non-GET requests are rejected.
func TestHealthCheckEndpoint_MethodNotAllowed(t *testing.T) {
	server := NewHealthServer(nil, NewStats())

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w := httptest.NewRecorder()

	server.healthCheckHandler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

// TestHealthCheckResponse verifies the JSON response structure.
func TestHealthCheckResponse(t *testing.T) {
	t.Run("unhealthy when Redis unavailable", func(t *testing.T) {
		// Use an address that definitely won't have Redis running
		// Port 9 is the discard protocol - connections will fail immediately
		client, err := ledger.NewClient(&redis.Options{
			Addr:         "localhost:9",
			DialTimeout:  50 * time.Millisecond,
			ReadTimeout:  50 * time.Millisecond,
			WriteTimeout: 50 * time.Millisecond,
		}, "test")
		if err != nil {
			t.Fatalf("Failed to create client: %v", err)
		}
		defer client.Close()

		server := NewHealthServer(client, NewStats())

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		// Use context with timeout to prevent hanging
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		req = req.WithContext(ctx)

		w := httptest.NewRecorder()

		server.healthCheckHandler(w, req)

		var response HealthResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if response.Status != "unhealthy" {
			t.Errorf("Expected unhealthy status (Redis not running), got %s", response.Status)
		}

		if response.Redis != "disconnected" {
			t.Errorf("Expected redis=disconnected, got %s", response.Redis)
		}

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}

		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", ct)
		}
	})
}

// TestStatsEndpoint verifies the /statz response carries recorded counters.
func TestStatsEndpoint(t *testing.T) {
	stats := NewStats()
	stats.Record(&ledger.Event{Seq: 0, Kind: ledger.EventBondFormed, CharacterID: 3})

	server := NewHealthServer(nil, stats)

	req := httptest.NewRequest(http.MethodGet, "/statz", nil)
	w := httptest.NewRecorder()

	server.statsHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var snapshot Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snapshot); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if snapshot.EventsObserved != 1 {
		t.Errorf("Expected 1 observed event, got %d", snapshot.EventsObserved)
	}
	if snapshot.ByKind[string(ledger.EventBondFormed)] != 1 {
		t.Errorf("Expected one bond.formed event, got %d", snapshot.ByKind[string(ledger.EventBondFormed)])
	}

	req = httptest.NewRequest(http.MethodDelete, "/statz", nil)
	w = httptest.NewRecorder()
	server.statsHandler(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

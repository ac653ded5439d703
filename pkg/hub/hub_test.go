package hub

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	time.Sleep(20 * time.Millisecond)
	return h, cancel
}

func TestNew(t *testing.T) {
	h := New("progress", nil)

	if h == nil {
		t.Fatal("New returned nil")
	}
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("hub should not be running before Run")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h, cancel := startHub(t)

	if !h.IsRunning() {
		t.Fatal("hub should be running")
	}

	cancel()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	if h.IsRunning() {
		t.Error("hub should not be running after cancel")
	}
}

func TestPublishWithoutClients(t *testing.T) {
	h, cancel := startHub(t)
	defer cancel()

	// Should not block or panic
	for i := 0; i < 10; i++ {
		h.Publish(Event{Job: "job-1", Stage: StageRendering, Progress: float64(i) / 10})
	}
}

func TestNilTracker(t *testing.T) {
	var h *Hub
	tr := h.Track("job-1")

	// Should not panic
	tr.Stage(StageAnalyzing, "")
	tr.Progress(StageRendering, "", 0.5)

	if tr.Job() != "job-1" {
		t.Errorf("Job = %s, want job-1", tr.Job())
	}
}

func TestUpgradeRejectsPlainRequests(t *testing.T) {
	h := New("test", nil)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use("/ws", Upgrade)
	app.Get("/ws/progress", h.Handler())

	req := httptest.NewRequest("GET", "/ws/progress", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusUpgradeRequired)
	}
}

func TestWebSocketProgress(t *testing.T) {
	h, cancel := startHub(t)
	defer cancel()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use("/ws", Upgrade)
	app.Get("/ws/progress", h.Handler())

	go app.Listen(":18090")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18090/ws/progress", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	// Wait for connection to be registered
	time.Sleep(50 * time.Millisecond)

	if h.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1", h.ClientCount())
	}

	tr := h.Track("abc123")
	tr.Stage(StageAnalyzing, "song.mp3")
	tr.Progress(StageRendering, "", 0.5)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first Event
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatalf("invalid event JSON %s: %v", data, err)
	}
	if first.Job != "abc123" || first.Stage != StageAnalyzing || first.Message != "song.mp3" {
		t.Errorf("unexpected event %+v", first)
	}
	if first.Time.IsZero() {
		t.Error("event time should be set")
	}

	var second Event
	_, data, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	json.Unmarshal(data, &second)
	if second.Stage != StageRendering || second.Progress != 0.5 {
		t.Errorf("unexpected event %+v", second)
	}

	// Close and verify disconnect
	ws.Close()
	time.Sleep(100 * time.Millisecond)

	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0 after disconnect", h.ClientCount())
	}
}

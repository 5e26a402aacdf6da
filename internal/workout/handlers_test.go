package workout

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func testAuth(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	}
}

func newTestApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/workouts"), svc, testAuth("user-1"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestWorkoutHandlersLifecycle(t *testing.T) {
	app := newTestApp(NewService(nil, nil))

	resp := postJSON(t, app, "/workouts/sessions", fiber.Map{"workout_type": "running"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status %d", resp.StatusCode)
	}
	var started Session
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if started.Type != TypeRunning || started.UserID != "user-1" {
		t.Fatalf("unexpected session %+v", started)
	}

	resp = postJSON(t, app, "/workouts/sessions", fiber.Map{"workout_type": "cycling"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for second start, got %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/workouts/sessions/fixes", fiber.Map{"lat": 37.7749, "lng": -122.4194, "captured_at": 0})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fix status %d", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/workouts/sessions/current", nil)
	getResp, err := app.Test(req)
	if err != nil || getResp.StatusCode != http.StatusOK {
		t.Fatalf("current status: %v", err)
	}
	var current Session
	if err := json.NewDecoder(getResp.Body).Decode(&current); err != nil {
		t.Fatalf("decode current: %v", err)
	}
	if len(current.Path) != 1 {
		t.Fatalf("expected one path point, got %d", len(current.Path))
	}

	resp = postJSON(t, app, "/workouts/sessions/end", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end status %d", resp.StatusCode)
	}
	var ended Session
	if err := json.NewDecoder(resp.Body).Decode(&ended); err != nil {
		t.Fatalf("decode ended: %v", err)
	}
	if ended.Active() {
		t.Fatalf("expected terminal session")
	}

	resp = postJSON(t, app, "/workouts/sessions/end", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for second end, got %d", resp.StatusCode)
	}
}

func TestWorkoutHandlersIdleFixAccepted(t *testing.T) {
	app := newTestApp(NewService(nil, nil))

	resp := postJSON(t, app, "/workouts/sessions/fixes", fiber.Map{"lat": 37.7749, "lng": -122.4194})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202 for dropped fix, got %d", resp.StatusCode)
	}
	var body map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || !body["dropped"] {
		t.Fatalf("expected dropped flag, err %v", err)
	}
}

func TestWorkoutHandlersCurrentIdle(t *testing.T) {
	app := newTestApp(NewService(nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/workouts/sessions/current", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 while idle: %v", err)
	}
}

func TestWorkoutHandlersBadRequests(t *testing.T) {
	app := newTestApp(NewService(nil, nil))

	resp := postJSON(t, app, "/workouts/sessions", fiber.Map{"workout_type": "swimming"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodPost, "/workouts/sessions", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for parse error: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/workouts/sessions/fixes", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for fix parse error: %v", err)
	}
}

func TestWorkoutHandlersIngestSocket(t *testing.T) {
	svc := NewService(nil, nil)
	app := newTestApp(svc)

	if _, err := svc.Start("user-1", TypeRunning); err != nil {
		t.Fatalf("start: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()

	go func() {
		_ = app.Listener(ln)
	}()
	defer func() { _ = app.Shutdown() }()

	wsURL := "ws://" + ln.Addr().String() + "/workouts/ws/ingest"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}

	frames := []string{
		`{"lat":37.7749,"lng":-122.4194,"captured_at":0}`,
		`not-json`,
		`{"lat":37.7750,"lng":-122.4194,"captured_at":1000}`,
	}
	for _, frame := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("write error: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		current, ok := svc.Current("user-1")
		if ok && len(current.Path) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for fixes, have %d", len(current.Path))
		}
		time.Sleep(10 * time.Millisecond)
	}

	// closing the socket cancels the stream but must not end the session
	conn.Close()
	time.Sleep(50 * time.Millisecond)

	if _, ok := svc.Current("user-1"); !ok {
		t.Fatalf("session must survive socket close")
	}
}

package relay

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestServer(t *testing.T, srvURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srvURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func readEvent(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wireMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func TestServeWS_KioskJoinAndUserConnected(t *testing.T) {
	hub := NewHub()
	reg := NewRegistry()
	srv := httptest.NewServer(ServeWS(hub, reg))
	defer srv.Close()

	kiosk := dialTestServer(t, srv.URL)
	defer kiosk.Close()

	if err := kiosk.WriteJSON(map[string]any{"event": "joinKiosk", "data": "KIOSK1"}); err != nil {
		t.Fatalf("joinKiosk failed: %v", err)
	}
	waitFor(t, "kiosk registration", func() bool { return reg.Online("KIOSK1") })

	phone := dialTestServer(t, srv.URL)
	defer phone.Close()

	err := phone.WriteJSON(map[string]any{
		"event": "userConnected",
		"data":  map[string]string{"kioskId": "KIOSK1", "userId": "u1"},
	})
	if err != nil {
		t.Fatalf("userConnected failed: %v", err)
	}

	msg := readEvent(t, kiosk)
	if msg.Event != "userConnectedMessage" {
		t.Fatalf("expected userConnectedMessage, got %q", msg.Event)
	}
	var payload UserJoinedPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.KioskID != "KIOSK1" || payload.UserID != "u1" {
		t.Errorf("unexpected payload: %+v", payload)
	}

	// The phone joined the room too: a room publish reaches both.
	waitFor(t, "phone room membership", func() bool { return hub.RoomSize("KIOSK1") == 2 })
}

func TestServeWS_DirectPrintDelivery(t *testing.T) {
	hub := NewHub()
	reg := NewRegistry()
	srv := httptest.NewServer(ServeWS(hub, reg))
	defer srv.Close()

	kiosk := dialTestServer(t, srv.URL)
	defer kiosk.Close()

	kiosk.WriteJSON(map[string]any{"event": "joinKiosk", "data": "KIOSK1"})
	waitFor(t, "kiosk registration", func() bool { return reg.Online("KIOSK1") })

	handle, ok := reg.Resolve("KIOSK1")
	if !ok {
		t.Fatal("kiosk should resolve")
	}

	handle.Deliver(NewPrintEvent("KIOSK1", PrintJobPayload{
		JobID:    "job1",
		FileID:   "f1",
		Filename: "report.pdf",
		Color:    "color",
		Copies:   2,
	}))

	msg := readEvent(t, kiosk)
	if msg.Event != "printFile" {
		t.Fatalf("expected printFile, got %q", msg.Event)
	}
	var job PrintJobPayload
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		t.Fatalf("failed to decode job: %v", err)
	}
	if job.Filename != "report.pdf" || job.Copies != 2 {
		t.Errorf("unexpected job payload: %+v", job)
	}
}

func TestServeWS_DisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	reg := NewRegistry()
	srv := httptest.NewServer(ServeWS(hub, reg))
	defer srv.Close()

	kiosk := dialTestServer(t, srv.URL)
	kiosk.WriteJSON(map[string]any{"event": "joinKiosk", "data": "KIOSK1"})
	waitFor(t, "kiosk registration", func() bool { return reg.Online("KIOSK1") })

	kiosk.Close()
	waitFor(t, "kiosk unregistration", func() bool { return !reg.Online("KIOSK1") })
}

func TestServeWS_StaleDisconnectKeepsNewSession(t *testing.T) {
	hub := NewHub()
	reg := NewRegistry()
	srv := httptest.NewServer(ServeWS(hub, reg))
	defer srv.Close()

	first := dialTestServer(t, srv.URL)
	first.WriteJSON(map[string]any{"event": "joinKiosk", "data": "KIOSK1"})
	waitFor(t, "first registration", func() bool { return reg.Online("KIOSK1") })
	oldHandle, _ := reg.Resolve("KIOSK1")

	second := dialTestServer(t, srv.URL)
	defer second.Close()
	second.WriteJSON(map[string]any{"event": "joinKiosk", "data": "KIOSK1"})
	waitFor(t, "second registration", func() bool {
		h, ok := reg.Resolve("KIOSK1")
		return ok && h != oldHandle
	})

	// The old connection's disconnect fires after the rejoin; the owner
	// guard must keep the new session registered.
	first.Close()
	time.Sleep(100 * time.Millisecond)

	if !reg.Online("KIOSK1") {
		t.Error("stale disconnect evicted the newer kiosk session")
	}
}

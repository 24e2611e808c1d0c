package relay

import (
	"testing"
)

// fakeHandle records delivered events.
type fakeHandle struct {
	events []Event
}

func (f *fakeHandle) Deliver(evt Event) {
	f.events = append(f.events, evt)
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	handle := &fakeHandle{}

	hub.Join(handle, "KIOSK1")
	hub.Join(handle, "KIOSK1")

	if got := hub.RoomSize("KIOSK1"); got != 1 {
		t.Errorf("expected room size 1 after double join, got %d", got)
	}

	hub.Publish("KIOSK1", NewUserJoinedEvent("KIOSK1", "u1"))
	if len(handle.events) != 1 {
		t.Errorf("expected exactly one delivery after double join, got %d", len(handle.events))
	}
}

func TestHub_PublishEmptyRoom(t *testing.T) {
	hub := NewHub()

	// No one joined: event is dropped, not queued.
	if delivered := hub.Publish("KIOSK9", NewUserJoinedEvent("KIOSK9", "u1")); delivered != 0 {
		t.Errorf("expected 0 deliveries to empty room, got %d", delivered)
	}

	// A later joiner must not receive the earlier event.
	late := &fakeHandle{}
	hub.Join(late, "KIOSK9")
	if len(late.events) != 0 {
		t.Errorf("late joiner received %d replayed events, want 0", len(late.events))
	}
}

func TestHub_PublishFansOutToAllMembers(t *testing.T) {
	hub := NewHub()
	kiosk := &fakeHandle{}
	phone := &fakeHandle{}

	hub.Join(kiosk, "KIOSK1")
	hub.Join(phone, "KIOSK1")

	evt := NewFileReadyEvent("KIOSK1", FileReadyPayload{FileID: "f1", Filename: "report.pdf"})
	if delivered := hub.Publish("KIOSK1", evt); delivered != 2 {
		t.Fatalf("expected 2 deliveries, got %d", delivered)
	}

	for _, h := range []*fakeHandle{kiosk, phone} {
		if len(h.events) != 1 {
			t.Fatalf("expected 1 event per member, got %d", len(h.events))
		}
		payload, ok := h.events[0].Payload.(FileReadyPayload)
		if !ok {
			t.Fatalf("unexpected payload type %T", h.events[0].Payload)
		}
		if payload.Filename != "report.pdf" {
			t.Errorf("expected filename report.pdf, got %q", payload.Filename)
		}
	}
}

func TestHub_PublishOrder(t *testing.T) {
	hub := NewHub()
	handle := &fakeHandle{}
	hub.Join(handle, "KIOSK1")

	for i := 0; i < 10; i++ {
		hub.Publish("KIOSK1", NewFileReadyEvent("KIOSK1", FileReadyPayload{FileID: string(rune('a' + i))}))
	}

	if len(handle.events) != 10 {
		t.Fatalf("expected 10 events, got %d", len(handle.events))
	}
	for i, evt := range handle.events {
		payload := evt.Payload.(FileReadyPayload)
		if payload.FileID != string(rune('a'+i)) {
			t.Fatalf("event %d out of order: got file id %q", i, payload.FileID)
		}
	}
}

func TestHub_LeaveDestroysEmptyRoom(t *testing.T) {
	hub := NewHub()
	handle := &fakeHandle{}

	hub.Join(handle, "KIOSK1")
	hub.Leave(handle, "KIOSK1")

	if got := hub.RoomSize("KIOSK1"); got != 0 {
		t.Errorf("expected empty room after leave, got size %d", got)
	}

	// Publishing after the room is gone delivers nothing and does not error.
	if delivered := hub.Publish("KIOSK1", NewUserJoinedEvent("KIOSK1", "u1")); delivered != 0 {
		t.Errorf("expected 0 deliveries, got %d", delivered)
	}
}

func TestHub_LeaveAll(t *testing.T) {
	hub := NewHub()
	handle := &fakeHandle{}
	other := &fakeHandle{}

	hub.Join(handle, "KIOSK1")
	hub.Join(handle, "KIOSK2")
	hub.Join(other, "KIOSK1")

	hub.LeaveAll(handle)

	if got := hub.RoomSize("KIOSK1"); got != 1 {
		t.Errorf("expected KIOSK1 to keep its other member, got size %d", got)
	}
	if got := hub.RoomSize("KIOSK2"); got != 0 {
		t.Errorf("expected KIOSK2 destroyed, got size %d", got)
	}

	hub.Publish("KIOSK1", NewUserJoinedEvent("KIOSK1", "u1"))
	if len(handle.events) != 0 {
		t.Errorf("departed handle received %d events, want 0", len(handle.events))
	}
	if len(other.events) != 1 {
		t.Errorf("remaining member received %d events, want 1", len(other.events))
	}
}

func TestHub_JoinEmptyRoomName(t *testing.T) {
	hub := NewHub()
	handle := &fakeHandle{}

	hub.Join(handle, "")
	if got := hub.RoomSize(""); got != 0 {
		t.Errorf("empty room name should be ignored, got size %d", got)
	}
}

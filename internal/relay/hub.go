package relay

import (
	"sync"
)

// Handle is a live, per-connection reference used to push events to one
// connected participant. Deliver must not block; a slow consumer drops
// the event rather than stalling the publisher.
type Handle interface {
	Deliver(evt Event)
}

// Hub groups connected handles into rooms named by kiosk identifier and
// fans events out to the current members. Delivery is at-most-once: there
// is no queueing, no acknowledgement, and publishing into an empty room
// drops the event.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Handle]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Handle]struct{})}
}

// Join adds the handle to the room, creating the room on first join.
// Idempotent: joining twice has no additional effect. Empty room names
// are ignored.
func (h *Hub) Join(handle Handle, room string) {
	if room == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[Handle]struct{})
		h.rooms[room] = members
	}
	members[handle] = struct{}{}
}

// Leave removes the handle from the room. The room is destroyed when its
// last member leaves.
func (h *Hub) Leave(handle Handle, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(handle, room)
}

// LeaveAll removes the handle from every room it has joined. Called on
// disconnect.
func (h *Hub) LeaveAll(handle Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, members := range h.rooms {
		if _, ok := members[handle]; ok {
			h.leaveLocked(handle, room)
		}
	}
}

func (h *Hub) leaveLocked(handle Handle, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, handle)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Publish delivers the event to every handle currently joined to the room
// and returns how many handles it was handed to. Events published from one
// goroutine reach each member's queue in publish order; nothing is ordered
// across rooms or across concurrent publishers.
func (h *Hub) Publish(room string, evt Event) int {
	h.mu.RLock()
	members := make([]Handle, 0, len(h.rooms[room]))
	for handle := range h.rooms[room] {
		members = append(members, handle)
	}
	h.mu.RUnlock()

	for _, handle := range members {
		handle.Deliver(evt)
	}
	return len(members)
}

// RoomSize returns the number of handles joined to the room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

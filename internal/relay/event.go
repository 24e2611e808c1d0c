package relay

import "time"

// EventType enumerates the events relayed between a kiosk and its users.
type EventType int

const (
	EventUserJoined EventType = iota
	EventFileReady
	EventPrintRequested
)

// String returns the wire name of the event. These match what the deployed
// kiosk and phone clients already listen for.
func (t EventType) String() string {
	switch t {
	case EventUserJoined:
		return "userConnectedMessage"
	case EventFileReady:
		return "fileReceived"
	case EventPrintRequested:
		return "printFile"
	default:
		return "unknown"
	}
}

// Event is a single relayed message with a typed payload.
type Event struct {
	Type    EventType
	Room    string
	Payload any
}

// UserJoinedPayload announces a phone joining a kiosk's room.
type UserJoinedPayload struct {
	Message string `json:"message"`
	KioskID string `json:"kioskId"`
	UserID  string `json:"userId"`
}

// FileReadyPayload tells the kiosk a file has been stored and where to fetch it.
type FileReadyPayload struct {
	FileID      string `json:"fileId"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	UserID      string `json:"userId"`
}

// PrintJobPayload carries a print command and its job parameters.
type PrintJobPayload struct {
	JobID       string    `json:"jobId"`
	FileID      string    `json:"fileId"`
	Filename    string    `json:"filename"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Color       string    `json:"color"`
	Copies      int       `json:"copies"`
	PageRange   string    `json:"pageRange,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewUserJoinedEvent(kioskID, userID string) Event {
	return Event{
		Type: EventUserJoined,
		Room: kioskID,
		Payload: UserJoinedPayload{
			Message: "A user has connected to this kiosk",
			KioskID: kioskID,
			UserID:  userID,
		},
	}
}

func NewFileReadyEvent(kioskID string, payload FileReadyPayload) Event {
	return Event{Type: EventFileReady, Room: kioskID, Payload: payload}
}

func NewPrintEvent(kioskID string, payload PrintJobPayload) Event {
	return Event{Type: EventPrintRequested, Room: kioskID, Payload: payload}
}

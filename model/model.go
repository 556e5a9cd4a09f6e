package model

import "encoding/json"

// Event names sent by clients. Names and payload shapes mirror the browser
// client and must not change.
const (
	EventJoinRoom     = "join-room"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
	EventMuteStatus   = "mute-status-changed"
	EventDraw         = "whiteboard-draw"
	EventClear        = "whiteboard-clear"
)

// Event names sent by server.
const (
	EventConnected  = "connected" // carries the identity assigned to the connection
	EventUserJoined = "user-joined"
	EventUserLeft   = "user-left"
	EventPeerMute   = "peer-mute-status"
)

// Event is the websocket frame: a named event plus an event-specific payload.
// Payload bodies stay raw until a handler needs them.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Negotiation is the payload of offer/answer/ice-candidate events. The relay
// re-assigns Caller from the sending connection's identity and forwards the
// rest untouched.
type Negotiation struct {
	Target    string          `json:"target"`
	Caller    string          `json:"caller"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type MuteStatus struct {
	Muted bool `json:"muted"`
}

type PeerMuteStatus struct {
	SocketID string `json:"socketId"`
	Muted    bool   `json:"muted"`
}

// Stroke is one whiteboard line segment as broadcast to room members.
type Stroke struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
}

// Draw is the inbound whiteboard-draw payload: a stroke plus the room the
// client wants it broadcast to.
type Draw struct {
	RoomID string `json:"roomId"`
	Stroke
}

type Wire struct {
	RX chan Event
	TX chan Event
}

func NewWire() Wire {
	return Wire{
		RX: make(chan Event),
		TX: make(chan Event),
	}
}

// Marshal wraps a payload into a named event. Payload types above cannot fail
// to marshal, so errors collapse into an empty Data.
func Marshal(event string, payload any) Event {
	if payload == nil {
		return Event{Event: event}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{Event: event}
	}
	return Event{Event: event, Data: b}
}

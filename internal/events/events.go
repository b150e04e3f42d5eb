// Package events fans named, server-pushed notifications out to the browser sessions listening for them.
//
// Publishing never blocks: each subscriber owns a buffered channel and events that do not fit are dropped
// for that subscriber only.
package events

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Event names understood by the page.
const (
	LoadIcon       = "loadicon"
	ClearOutput    = "clearoutput"
	LogTool        = "logTool"
	ToolAR         = "toolAR"
	LogError       = "logerror"
	ToolPhoto      = "toolphoto"
	ShowZip        = "showzip"
	UploadComplete = "uploadcomplete"
)

// DefaultBuffer is the per-subscriber queue depth.
const DefaultBuffer = 256

// Event is a named notification with an ad hoc payload.
type Event struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Info builds an event whose payload carries text under "loginfo".
func Info(name, text string) Event {
	return Event{Name: name, Payload: map[string]any{"loginfo": text}}
}

// Error builds a logerror event with a short title and the user-facing text.
func Error(title, text string) Event {
	return Event{Name: LogError, Payload: map[string]any{"errormessage": title, "loginfo": text + "<br>"}}
}

// Publisher is the sending side of a [Hub].
type Publisher interface {
	Publish(session string, ev Event)
}

// Hub delivers events to the subscribers of a session.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	buffer int
}

type subscription struct {
	ch   chan Event
	once sync.Once
}

// NewHub creates a [Hub] with the given subscriber buffer; non-positive means [DefaultBuffer].
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[string]map[*subscription]struct{}), buffer: buffer}
}

// Subscribe registers a listener for session. The returned cancel func is idempotent and closes the channel.
func (h *Hub) Subscribe(session string) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.subs[session] == nil {
		h.subs[session] = make(map[*subscription]struct{})
	}
	h.subs[session][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			h.mu.Lock()
			delete(h.subs[session], sub)
			if len(h.subs[session]) == 0 {
				delete(h.subs, session)
			}
			close(sub.ch)
			h.mu.Unlock()
		})
	}

	return sub.ch, cancel
}

// Publish sends ev to every current subscriber of session without blocking.
func (h *Hub) Publish(session string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[session] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of listeners on session.
func (h *Hub) Subscribers(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[session])
}

// WriteSSE writes ev in Server-Sent Events framing.
//
// The payload is JSON-encoded on a single data line; an empty payload is sent as {}.
func WriteSSE(w io.Writer, ev Event) error {
	if ev.Name == "" || strings.ContainsAny(ev.Name, "\r\n") {
		return fmt.Errorf("invalid event name %q", ev.Name)
	}

	payload := ev.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", ev.Name, err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

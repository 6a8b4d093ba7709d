package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// streamBacklog is how many recent events a reconnecting client can
	// catch up on with Last-Event-ID.
	streamBacklog = 1000

	streamHeartbeat = 15 * time.Second

	// listenerBuffer bounds each client's queue; a client that falls this
	// far behind misses events.
	listenerBuffer = 64
)

// hubEvent is one published event in stream order.
type hubEvent struct {
	Seq     uint64
	Topic   string
	Session string
	Data    []byte
}

// streamFilter selects events for one client. Zero value accepts all.
type streamFilter struct {
	topics  []string
	session string
}

func (f streamFilter) accepts(e *hubEvent) bool {
	if f.session != "" && f.session != e.Session {
		return false
	}
	if len(f.topics) == 0 {
		return true
	}
	for _, p := range f.topics {
		if topicMatches(p, e.Topic) {
			return true
		}
	}
	return false
}

type listener struct {
	filter streamFilter
	ch     chan *hubEvent
}

// EventHub is an events.Publisher that feeds the /v1/events/stream endpoint.
// It keeps a bounded backlog so clients can resume after a reconnect.
type EventHub struct {
	mu        sync.Mutex
	seq       uint64
	backlog   []*hubEvent
	listeners map[*listener]struct{}
}

// NewEventHub returns a hub with no listeners.
func NewEventHub() *EventHub {
	return &EventHub{listeners: make(map[*listener]struct{})}
}

// Publish encodes event as JSON and hands it to every matching listener.
func (h *EventHub) Publish(_ context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", topic, err)
	}
	h.append(topic, sessionOf(data), data)
	return nil
}

// Close is a no-op; streams end with their requests.
func (h *EventHub) Close() error { return nil }

// sessionOf reads the session_id every event payload carries.
func sessionOf(data []byte) string {
	var p struct {
		SessionID string `json:"session_id"`
	}
	_ = json.Unmarshal(data, &p)
	return p.SessionID
}

func (h *EventHub) append(topic, session string, data []byte) *hubEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	e := &hubEvent{Seq: h.seq, Topic: topic, Session: session, Data: data}
	if len(h.backlog) == streamBacklog {
		copy(h.backlog, h.backlog[1:])
		h.backlog[len(h.backlog)-1] = e
	} else {
		h.backlog = append(h.backlog, e)
	}

	for l := range h.listeners {
		if !l.filter.accepts(e) {
			continue
		}
		select {
		case l.ch <- e:
		default:
		}
	}
	return e
}

// listen registers a listener. When after is non-zero it also returns the
// backlog events past that sequence number, so nothing is lost or doubled
// between replay and live delivery.
func (h *EventHub) listen(f streamFilter, after uint64) (*listener, []*hubEvent) {
	l := &listener{filter: f, ch: make(chan *hubEvent, listenerBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[l] = struct{}{}
	if after == 0 {
		return l, nil
	}
	var missed []*hubEvent
	for _, e := range h.since(after) {
		if f.accepts(e) {
			missed = append(missed, e)
		}
	}
	return l, missed
}

func (h *EventHub) stopListening(l *listener) {
	h.mu.Lock()
	delete(h.listeners, l)
	h.mu.Unlock()
}

// since returns backlog events with Seq > after, oldest first. Callers
// hold h.mu.
func (h *EventHub) since(after uint64) []*hubEvent {
	i := len(h.backlog)
	for i > 0 && h.backlog[i-1].Seq > after {
		i--
	}
	return append([]*hubEvent(nil), h.backlog[i:]...)
}

// topicMatches reports whether a dot-separated topic matches pattern, where
// "*" stands for one segment and a final ">" for one or more.
func topicMatches(pattern, topic string) bool {
	for {
		p, prest, pmore := strings.Cut(pattern, ".")
		if p == ">" && !pmore {
			return topic != ""
		}
		t, trest, tmore := strings.Cut(topic, ".")
		if topic == "" || (p != "*" && p != t) {
			return false
		}
		if !pmore || !tmore {
			return pmore == tmore
		}
		pattern, topic = prest, trest
	}
}

// handleEventStream handles GET /v1/events/stream. Query parameters:
// topics (comma-separated patterns) and session (one session ID).
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	q := r.URL.Query()
	filter := streamFilter{session: q.Get("session")}
	for _, t := range strings.Split(q.Get("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter.topics = append(filter.topics, t)
		}
	}
	var after uint64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Last-Event-ID must be a sequence number")
			return
		}
		after = n
	}

	l, missed := s.hub.listen(filter, after)
	defer s.hub.stopListening(l)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	for _, e := range missed {
		writeStreamEvent(w, e)
	}
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-l.ch:
			writeStreamEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w http.ResponseWriter, e *hubEvent) {
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Topic, e.Data)
}

package server

import (
	"bufio"
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/admatrix/internal/events"
)

func receive(t *testing.T, l *listener) *hubEvent {
	t.Helper()
	select {
	case e := <-l.ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func expectQuiet(t *testing.T, l *listener) {
	t.Helper()
	select {
	case e := <-l.ch:
		t.Fatalf("unexpected event %s", e.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventHub_PublishRecordsSession(t *testing.T) {
	hub := NewEventHub()
	l, missed := hub.listen(streamFilter{}, 0)
	defer hub.stopListening(l)
	if missed != nil {
		t.Fatalf("missed = %v, want nil without Last-Event-ID", missed)
	}

	err := hub.Publish(context.Background(), events.TopicDependencyRemoved, events.DependencyRemoved{SessionID: "mx-1", Index: 2})
	if err != nil {
		t.Fatal(err)
	}
	e := receive(t, l)
	if e.Seq != 1 || e.Topic != events.TopicDependencyRemoved || e.Session != "mx-1" {
		t.Errorf("event = %+v", e)
	}
	if !strings.Contains(string(e.Data), `"index":2`) {
		t.Errorf("data = %s", e.Data)
	}
}

func TestEventHub_Filters(t *testing.T) {
	hub := NewEventHub()
	byTopic, _ := hub.listen(streamFilter{topics: []string{"admatrix.dependency.*"}}, 0)
	bySession, _ := hub.listen(streamFilter{session: "mx-2"}, 0)
	defer hub.stopListening(byTopic)
	defer hub.stopListening(bySession)

	ctx := context.Background()
	_ = hub.Publish(ctx, events.TopicSessionCreated, events.SessionCreated{SessionID: "mx-1"})
	_ = hub.Publish(ctx, events.TopicDependencyAdded, events.DependencyAdded{SessionID: "mx-1"})
	_ = hub.Publish(ctx, events.TopicSessionCreated, events.SessionCreated{SessionID: "mx-2"})

	if e := receive(t, byTopic); e.Topic != events.TopicDependencyAdded {
		t.Errorf("topic listener got %s", e.Topic)
	}
	expectQuiet(t, byTopic)

	if e := receive(t, bySession); e.Session != "mx-2" {
		t.Errorf("session listener got %+v", e)
	}
	expectQuiet(t, bySession)
}

func TestEventHub_StopListening(t *testing.T) {
	hub := NewEventHub()
	l, _ := hub.listen(streamFilter{}, 0)
	hub.stopListening(l)

	hub.append(events.TopicSessionCreated, "", []byte(`{}`))
	expectQuiet(t, l)
}

func TestEventHub_ListenReplaysBacklog(t *testing.T) {
	hub := NewEventHub()
	for i := range 5 {
		hub.append(events.TopicDependencyAdded, fmt.Sprintf("mx-%d", i%2), []byte(`{}`))
	}

	seqs := func(es []*hubEvent) []uint64 {
		var out []uint64
		for _, e := range es {
			out = append(out, e.Seq)
		}
		return out
	}

	_, missed := hub.listen(streamFilter{}, 2)
	if got := seqs(missed); fmt.Sprint(got) != "[3 4 5]" {
		t.Errorf("replay = %v, want [3 4 5]", got)
	}

	_, missed = hub.listen(streamFilter{session: "mx-0"}, 2)
	if got := seqs(missed); fmt.Sprint(got) != "[3 5]" {
		t.Errorf("filtered replay = %v, want [3 5]", got)
	}
}

func TestEventHub_BacklogIsBounded(t *testing.T) {
	hub := NewEventHub()
	for range streamBacklog + 100 {
		hub.append(events.TopicDependencyAdded, "", []byte(`{}`))
	}

	hub.mu.Lock()
	all := hub.since(0)
	hub.mu.Unlock()
	if len(all) != streamBacklog {
		t.Fatalf("backlog = %d, want %d", len(all), streamBacklog)
	}
	if all[0].Seq != 101 || all[len(all)-1].Seq != streamBacklog+100 {
		t.Errorf("backlog spans %d..%d", all[0].Seq, all[len(all)-1].Seq)
	}
}

func TestTopicMatches(t *testing.T) {
	for _, tc := range []struct {
		pattern, topic string
		want           bool
	}{
		{"admatrix.session.created", "admatrix.session.created", true},
		{"admatrix.session.created", "admatrix.session.deleted", false},
		{"admatrix.session.*", "admatrix.session.expired", true},
		{"admatrix.session.*", "admatrix.dependency.added", false},
		{"admatrix.>", "admatrix.matrix.exported", true},
		{"admatrix.>", "other.topic", false},
		{"admatrix.>", "admatrix", false},
		{"*.*.*", "admatrix.dependency.added", true},
		{"*.*.*", "admatrix.dependency", false},
		{"admatrix.session", "admatrix.session.created", false},
	} {
		t.Run(tc.pattern+"_"+tc.topic, func(t *testing.T) {
			if got := topicMatches(tc.pattern, tc.topic); got != tc.want {
				t.Errorf("topicMatches(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
			}
		})
	}
}

// serveStream runs the stream endpoint for target while fn runs, then
// returns the response body.
func serveStream(t *testing.T, srv *Server, target, lastEventID string, fn func()) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", target, nil).WithContext(ctx)
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	rec := httptest.NewRecorder()
	handler := srv.NewHTTPHandler("")

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	fn()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	return rec.Body.String()
}

func TestEventStream_SessionActivity(t *testing.T) {
	srv, _ := newTestServer(t, "")
	body := serveStream(t, srv, "/v1/events/stream", "", func() {
		s, err := srv.sessions.Create(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := srv.sessions.Add(context.Background(), s.ID, eventualImplication("A", "B")); err != nil {
			t.Fatal(err)
		}
	})

	for _, want := range []string{"event: " + events.TopicSessionCreated, "event: " + events.TopicDependencyAdded, `"from":"A"`} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}

func TestEventStream_SessionFilter(t *testing.T) {
	srv, _ := newTestServer(t, "")
	ctx := context.Background()
	keep, _ := srv.sessions.Create(ctx)
	other, _ := srv.sessions.Create(ctx)

	body := serveStream(t, srv, "/v1/events/stream?session="+keep.ID+"&topics=admatrix.dependency.>", "", func() {
		_, _, _ = srv.sessions.Add(ctx, other.ID, eventualImplication("X", "Y"))
		_, _, _ = srv.sessions.Add(ctx, keep.ID, eventualImplication("A", "B"))
	})

	if strings.Contains(body, other.ID) || strings.Contains(body, events.TopicSessionCreated) {
		t.Errorf("filtered events leaked:\n%s", body)
	}
	if !strings.Contains(body, `"session_id":"`+keep.ID+`"`) {
		t.Errorf("missing event for %s:\n%s", keep.ID, body)
	}
}

func TestEventStream_Replay(t *testing.T) {
	srv, _ := newTestServer(t, "")
	srv.hub.append(events.TopicSessionCreated, "", []byte(`{"n":1}`))
	srv.hub.append(events.TopicDependencyAdded, "", []byte(`{"n":2}`))
	srv.hub.append(events.TopicDependencyRemoved, "", []byte(`{"n":3}`))

	body := serveStream(t, srv, "/v1/events/stream", "1", func() {})

	if strings.Contains(body, `data: {"n":1}`) {
		t.Errorf("event 1 replayed:\n%s", body)
	}
	if !strings.Contains(body, `data: {"n":2}`) || !strings.Contains(body, `data: {"n":3}`) {
		t.Errorf("events 2 and 3 not replayed:\n%s", body)
	}
}

func TestEventStream_BadLastEventID(t *testing.T) {
	_, h := newTestServer(t, "")
	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req.Header.Set("Last-Event-ID", "yesterday")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEventStream_WireFormat(t *testing.T) {
	srv, _ := newTestServer(t, "")
	body := serveStream(t, srv, "/v1/events/stream", "", func() {
		srv.hub.append(events.TopicMatrixExported, "mx-fmt", []byte(`{"session_id":"mx-fmt"}`))
	})

	fields := map[string]string{}
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		if k, v, ok := strings.Cut(scanner.Text(), ": "); ok {
			fields[k] = v
		}
	}
	want := map[string]string{"id": "1", "event": events.TopicMatrixExported, "data": `{"session_id":"mx-fmt"}`}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("%s = %q, want %q", k, fields[k], v)
		}
	}
}

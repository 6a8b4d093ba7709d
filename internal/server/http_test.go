package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alfredjeanlab/admatrix/internal/events"
	"github.com/alfredjeanlab/admatrix/internal/matrix"
	"github.com/alfredjeanlab/admatrix/internal/model"
	"github.com/alfredjeanlab/admatrix/internal/registry"
	"github.com/alfredjeanlab/admatrix/internal/session"
)

func newTestServer(t *testing.T, token string) (*Server, http.Handler) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewEventHub()
	srv := New(session.NewManager(hub, logger), hub, logger)
	return srv, srv.NewHTTPHandler(token)
}

func eventualImplication(from, to string) model.Dependency {
	return model.Dependency{
		From: from, To: to,
		Temporal: model.TemporalEventual, TemporalDirection: model.DirectionForward,
		Existential: model.ExistentialImplication, ExistentialDirection: model.DirectionForward,
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = strings.NewReader(b)
		default:
			data, err := json.Marshal(body)
			if err != nil {
				t.Fatal(err)
			}
			r = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", rec.Code, rec.Body.String())
	}
	var sum session.Summary
	decode(t, rec, &sum)
	return sum.ID
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t, "secret")
	rec := do(t, h, http.MethodGet, "/v1/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	_, h := newTestServer(t, "secret")
	rec := do(t, h, http.MethodGet, "/v1/sessions", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	_, h := newTestServer(t, "")
	id := createSession(t, h)

	rec := do(t, h, http.MethodGet, "/v1/sessions", nil)
	var list struct {
		Sessions []session.Summary `json:"sessions"`
	}
	decode(t, rec, &list)
	if len(list.Sessions) != 1 || list.Sessions[0].ID != id {
		t.Fatalf("sessions = %+v", list.Sessions)
	}

	if rec := do(t, h, http.MethodDelete, "/v1/sessions/"+id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/v1/sessions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/sessions/"+id+"/dependencies", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("deps of deleted session: %d", rec.Code)
	}
}

func TestAddDependency_Defaults(t *testing.T) {
	_, h := newTestServer(t, "")
	id := createSession(t, h)

	rec := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/dependencies", map[string]string{
		"from": "A", "to": "B", "temporal": "direct", "existential": "nand",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", rec.Code, rec.Body.String())
	}
	var resp addDependencyResponse
	decode(t, rec, &resp)
	if resp.Index != 0 {
		t.Errorf("index = %d, want 0", resp.Index)
	}
	if resp.Dependency.TemporalDirection != model.DirectionForward {
		t.Errorf("temporal direction = %q, want forward", resp.Dependency.TemporalDirection)
	}
	if resp.Dependency.ExistentialDirection != model.DirectionBoth {
		t.Errorf("existential direction = %q, want both", resp.Dependency.ExistentialDirection)
	}

	rec = do(t, h, http.MethodPost, "/v1/sessions/"+id+"/dependencies", map[string]string{"from": "B", "to": "C"})
	decode(t, rec, &resp)
	if resp.Index != 1 || resp.Dependency.Temporal != model.TemporalNone || resp.Dependency.Existential != model.ExistentialIndependence {
		t.Errorf("defaulted dependency = %+v", resp)
	}
}

func TestAddDependency_Errors(t *testing.T) {
	_, h := newTestServer(t, "")
	id := createSession(t, h)
	path := "/v1/sessions/" + id + "/dependencies"

	if rec := do(t, h, http.MethodPost, path, map[string]string{"from": "A", "to": "B"}); rec.Code != http.StatusCreated {
		t.Fatalf("seed: %d", rec.Code)
	}

	for _, tc := range []struct {
		name string
		path string
		body any
		want int
	}{
		{"duplicate", path, map[string]string{"from": "A", "to": "B", "temporal": "direct"}, http.StatusConflict},
		{"missing to", path, map[string]string{"from": "A", "to": "  "}, http.StatusBadRequest},
		{"unknown temporal", path, map[string]string{"from": "A", "to": "C", "temporal": "later"}, http.StatusBadRequest},
		{"unknown direction", path, map[string]string{"from": "A", "to": "C", "existential_direction": "up"}, http.StatusBadRequest},
		{"bad json", path, "{", http.StatusBadRequest},
		{"unknown session", "/v1/sessions/mx-none/dependencies", map[string]string{"from": "A", "to": "B"}, http.StatusNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d; body: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}

	rec := do(t, h, http.MethodGet, path, nil)
	var list struct {
		Dependencies []model.Dependency `json:"dependencies"`
	}
	decode(t, rec, &list)
	if len(list.Dependencies) != 1 {
		t.Errorf("rejected adds changed the list: %+v", list.Dependencies)
	}
}

func TestSetDirectionsAndRemove(t *testing.T) {
	_, h := newTestServer(t, "")
	id := createSession(t, h)
	base := "/v1/sessions/" + id + "/dependencies"
	for _, p := range [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}} {
		do(t, h, http.MethodPost, base, map[string]string{"from": p[0], "to": p[1], "temporal": "eventual"})
	}

	rec := do(t, h, http.MethodPatch, base+"/1", map[string]string{"temporal_direction": "backward"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body.String())
	}
	var updated model.Dependency
	decode(t, rec, &updated)
	if updated.TemporalDirection != model.DirectionBackward || updated.ExistentialDirection != model.DirectionBoth {
		t.Errorf("updated = %+v", updated)
	}

	for _, tc := range []struct {
		method, path string
		body         any
		want         int
	}{
		{http.MethodPatch, base + "/9", map[string]string{"temporal_direction": "both"}, http.StatusNotFound},
		{http.MethodPatch, base + "/x", map[string]string{}, http.StatusBadRequest},
		{http.MethodPatch, base + "/0", map[string]string{}, http.StatusBadRequest},
		{http.MethodPatch, base + "/0", map[string]string{"temporal_direction": "sideways"}, http.StatusBadRequest},
		{http.MethodDelete, base + "/-1", nil, http.StatusNotFound},
		{http.MethodDelete, base + "/0", nil, http.StatusNoContent},
	} {
		if rec := do(t, h, tc.method, tc.path, tc.body); rec.Code != tc.want {
			t.Errorf("%s %s: expected %d, got %d; body: %s", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
		}
	}

	rec = do(t, h, http.MethodGet, base, nil)
	var list struct {
		Dependencies []model.Dependency `json:"dependencies"`
	}
	decode(t, rec, &list)
	if len(list.Dependencies) != 2 || list.Dependencies[0].From != "B" || list.Dependencies[1].From != "C" {
		t.Errorf("after remove: %+v", list.Dependencies)
	}

	rec = do(t, h, http.MethodGet, "/v1/sessions/"+id+"/activities", nil)
	var acts struct {
		Activities []string `json:"activities"`
	}
	decode(t, rec, &acts)
	if strings.Join(acts.Activities, ",") != "B,C,D" {
		t.Errorf("activities = %v", acts.Activities)
	}
}

func TestMatrix(t *testing.T) {
	_, h := newTestServer(t, "")
	id := createSession(t, h)
	path := "/v1/sessions/" + id + "/matrix"

	rec := do(t, h, http.MethodGet, path, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty matrix: expected 422, got %d", rec.Code)
	}

	do(t, h, http.MethodPost, "/v1/sessions/"+id+"/dependencies", map[string]string{
		"from": "A", "to": "B", "temporal": "direct", "temporal_direction": "forward",
	})

	rec = do(t, h, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("matrix: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/yaml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="matrix.yaml"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	doc, err := matrix.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Dependencies[0].Temporal == nil || doc.Dependencies[0].Temporal.Symbol != "≺_d" {
		t.Errorf("temporal relation = %+v", doc.Dependencies[0].Temporal)
	}

	rec = do(t, h, http.MethodGet, path+"?format=json", nil)
	var jdoc matrix.Document
	decode(t, rec, &jdoc)
	if strings.Join(jdoc.Metadata.Activities, ",") != "A,B" {
		t.Errorf("json activities = %v", jdoc.Metadata.Activities)
	}

	if rec := do(t, h, http.MethodGet, path+"?format=xml", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("format=xml: expected 400, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{session.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", &model.ValidationError{}), http.StatusBadRequest},
		{&registry.DuplicateError{From: "A", To: "B"}, http.StatusConflict},
		{&registry.IndexError{Index: 3, Len: 1}, http.StatusNotFound},
		{matrix.ErrEmptyRegistry, http.StatusUnprocessableEntity},
		{&matrix.SerializationError{Err: errors.New("x")}, http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	} {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestSetDirections_EmptyBodyChangesNothing(t *testing.T) {
	srv, h := newTestServer(t, "")
	id := createSession(t, h)
	base := "/v1/sessions/" + id + "/dependencies"
	do(t, h, http.MethodPost, base, map[string]string{"from": "A", "to": "B", "temporal": "direct"})

	rec := do(t, h, http.MethodPatch, base+"/0", map[string]string{"temporal_direction": "", "existential_direction": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d; body: %s", rec.Code, rec.Body.String())
	}
	srv.hub.mu.Lock()
	published := srv.hub.since(0)
	srv.hub.mu.Unlock()
	for _, evt := range published {
		if evt.Topic == events.TopicDependencyUpdated {
			t.Errorf("published %s for a rejected update", evt.Topic)
		}
	}
}

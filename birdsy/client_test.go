package birdsy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAuthenticate(t *testing.T) {
	f := newFakeService()
	c := newTestClient(t, f)

	token, err := c.Authenticate(context.Background(), "owl@example.com", "hoot")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if token != testToken {
		t.Errorf("token = %q, want %q", token, testToken)
	}
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	f := newFakeService()
	c := newTestClient(t, f)

	_, err := c.Authenticate(context.Background(), "owl@example.com", "wrong")
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("Authenticate() error = %v, want ErrAuthFailed", err)
	}
	if strings.Contains(err.Error(), "wrong") {
		t.Error("error message leaks the password")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Op != "auth" {
		t.Errorf("want APIError for op auth, got %v", err)
	}
	if f.authCalls != 1 {
		t.Errorf("auth calls = %d, want 1 (no retries)", f.authCalls)
	}
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"attributes":{}}}`))
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})
	if _, err := c.Authenticate(context.Background(), "a", "b"); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Authenticate() error = %v, want ErrAuthFailed", err)
	}
}

func TestDeleteEpisode(t *testing.T) {
	f := newFakeService()
	c := newTestClient(t, f)

	var listed []Episode
	if err := json.Unmarshal([]byte(`[{"id":"42"},{"id":"007"},{"id":9}]`), &listed); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	ids := []EpisodeID{NumberID(1234), StringID("abc-9")}
	for _, e := range listed {
		ids = append(ids, e.ID)
	}
	for _, id := range ids {
		if err := c.DeleteEpisode(context.Background(), testToken, id); err != nil {
			t.Fatalf("DeleteEpisode(%s) error = %v", id, err)
		}
	}

	want := []string{`{"ids":[1234]}`, `{"ids":["abc-9"]}`, `{"ids":["42"]}`, `{"ids":["007"]}`, `{"ids":[9]}`}
	if len(f.deleteBodies) != len(want) {
		t.Fatalf("delete calls = %d, want %d", len(f.deleteBodies), len(want))
	}
	for i := range want {
		if f.deleteBodies[i] != want[i] {
			t.Errorf("delete body %d = %s, want %s", i, f.deleteBodies[i], want[i])
		}
	}
}

func TestDeleteEpisode_Unauthorized(t *testing.T) {
	f := newFakeService()
	c := newTestClient(t, f)

	err := c.DeleteEpisode(context.Background(), "stale", NumberID(1))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Op != "delete" {
		t.Errorf("DeleteEpisode() error = %v, want APIError for op delete", err)
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") != "" {
			t.Error("artifact fetch must not send the token")
		}
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})
	var buf bytes.Buffer
	n, err := c.Fetch(context.Background(), server.URL+"/thumb.jpg", &buf)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if n != int64(len("jpeg-bytes")) || buf.String() != "jpeg-bytes" {
		t.Errorf("Fetch() = %d, %q", n, buf.String())
	}
}

func TestFetch_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})
	if _, err := c.Fetch(context.Background(), server.URL+"/gone.mp4", &bytes.Buffer{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
	if _, err := c.Fetch(context.Background(), "", &bytes.Buffer{}); err == nil {
		t.Error("Fetch() with an empty url should fail")
	}
}

func TestEpisodeDecoding(t *testing.T) {
	raw := `{"id": 42, "type": "episode", "attributes": {
		"favorite": true, "title": "Backyard", "formatted_recorded_at": "2024-01-01 10:00",
		"duration": 30, "image_url": "http://x/i.jpg", "video_url": "http://x/v.mp4"}}`

	var e Episode
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := Episode{
		ID:         NumberID(42),
		Favorite:   true,
		Title:      "Backyard",
		RecordedAt: "2024-01-01 10:00",
		Duration:   30,
		ImageURL:   "http://x/i.jpg",
		VideoURL:   "http://x/v.mp4",
	}
	if e != want {
		t.Errorf("Episode = %+v, want %+v", e, want)
	}
}

func TestEpisodeIDJSON(t *testing.T) {
	tests := []struct {
		in         string
		want       EpisodeID
		wantString string
	}{
		{`17`, NumberID(17), "17"},
		{`"17"`, StringID("17"), "17"},
		{`"42"`, StringID("42"), "42"},
		{`"007"`, StringID("007"), "007"},
		{`"ep-17"`, StringID("ep-17"), "ep-17"},
		{`""`, StringID(""), ""},
		{`12345678901234567890`, EpisodeID{value: "12345678901234567890", numeric: true}, "12345678901234567890"},
	}
	for _, tt := range tests {
		var id EpisodeID
		if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
		}
		if id != tt.want {
			t.Errorf("Unmarshal(%s) = %#v, want %#v", tt.in, id, tt.want)
		}
		if id.String() != tt.wantString {
			t.Errorf("Unmarshal(%s).String() = %q, want %q", tt.in, id.String(), tt.wantString)
		}

		// The encoded form is the decoded one, kind included.
		out, err := json.Marshal(id)
		if err != nil {
			t.Fatalf("Marshal(%#v) error = %v", id, err)
		}
		if string(out) != tt.in {
			t.Errorf("Marshal(%#v) = %s, want %s", id, out, tt.in)
		}
	}

	if NumberID(42) == StringID("42") {
		t.Error("a numeric and a string ID with the same text should differ")
	}

	var id EpisodeID
	if err := json.Unmarshal([]byte(`true`), &id); err == nil {
		t.Error("Unmarshal(true) should fail")
	}
}

func TestSameDay(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"2024-01-01T00:00:00", "2024-01-01T00:00:00", true},
		{"2024-01-01", "2024-01-01T00:00:00", true},
		{"2024-01-01T00:00:00.000Z", "2024-01-01", true},
		{"2024-01-02", "2024-01-01", false},
		{"", "2024-01-01", false},
	}
	for _, tt := range tests {
		if got := SameDay(tt.a, tt.b); got != tt.want {
			t.Errorf("SameDay(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

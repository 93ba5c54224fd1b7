package uplink

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientPostSendsBrowserHeaders(t *testing.T) {
	var gotPath string
	var gotHeaders http.Header
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(testLogger(), srv.URL+"/", "secret-token")
	if err := c.Post(PathMessages, map[string]any{"text": "hi"}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if gotPath != PathMessages {
		t.Fatalf("path = %q, want %q", gotPath, PathMessages)
	}
	if gotBody["text"] != "hi" {
		t.Fatalf("body = %v", gotBody)
	}

	checks := map[string]string{
		"Content-Type":    "application/json",
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"Origin":          srv.URL,
		"Referer":         srv.URL + "/",
		"Authorization":   "Bearer secret-token",
	}
	for key, want := range checks {
		if got := gotHeaders.Get(key); got != want {
			t.Fatalf("header %s = %q, want %q", key, got, want)
		}
	}
	if ua := gotHeaders.Get("User-Agent"); !strings.Contains(ua, "Chrome/") {
		t.Fatalf("User-Agent %q does not look like a browser", ua)
	}
}

func TestClientPostOmitsAuthWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := NewClient(testLogger(), srv.URL, "")
	if err := c.Post(PathNodes, map[string]any{}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("Authorization = %q, want empty", gotAuth)
	}
}

func TestClientPostReportsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(testLogger(), srv.URL, "")
	err := c.Post(PathTelemetry, map[string]any{})
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("error %q does not mention status", err)
	}
}

func TestClientDisabledWithoutBaseURL(t *testing.T) {
	c := NewClient(testLogger(), "   ", "token")
	if c.Enabled() {
		t.Fatal("client with blank base URL reports enabled")
	}
	if err := c.Post(PathMessages, map[string]any{"text": "hi"}); err != nil {
		t.Fatalf("disabled Post returned %v", err)
	}
}

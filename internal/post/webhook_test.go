package post

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestToWebhook(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Errorf("bad payload: %s", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	send := ToWebhook(srv.Client())
	if err := send(context.Background(), srv.URL, "deadline message"); err != nil {
		t.Fatalf("send: %s", err)
	}
	if got["content"] != "deadline message" {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestToWebhookURLIgnoresChannel(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// the configured URL wins over whatever channel is stored
	send := ToWebhookURL(srv.Client(), srv.URL)
	if err := send(context.Background(), "https://hooks.example.com/elsewhere", "message"); err != nil {
		t.Fatalf("send: %s", err)
	}
	if hits != 1 {
		t.Fatalf("expected the configured URL to receive the post, got %d hits", hits)
	}
}

func TestToWebhookErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	send := ToWebhook(srv.Client())
	if err := send(context.Background(), srv.URL, "message"); err == nil {
		t.Fatalf("expected an error for a non-2xx response")
	}
	if err := send(context.Background(), "not-a-url", "message"); err == nil {
		t.Fatalf("expected an error for an invalid channel")
	}
}

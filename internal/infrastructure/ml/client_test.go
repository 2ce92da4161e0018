package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"NewsAlerter/internal/config"
	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/sentiment"
)

func TestClientScore(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sentiment" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["text"] != "rates hold steady" {
			t.Errorf("unexpected text %q", body["text"])
		}
		_, _ = w.Write([]byte(`{"compound": -0.42}`))
	}))
	defer server.Close()

	client := NewClient(config.SentimentConfig{Endpoint: server.URL, APIKey: "secret"})
	score, err := client.Score(context.Background(), "rates hold steady")
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if score != -0.42 {
		t.Fatalf("unexpected score %v", score)
	}
}

func TestClientBackendErrorDegradesToNeutral(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(config.SentimentConfig{Endpoint: server.URL})
	if _, err := client.Score(context.Background(), "text"); err == nil {
		t.Fatalf("expected error on 502")
	}

	classifier := sentiment.NewClassifier(client, nil)
	got := classifier.Classify(context.Background(), "a great win")
	if got != domain.NeutralSentiment() {
		t.Fatalf("expected neutral fallback, got %+v", got)
	}
}

func TestClientMissingCompound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(config.SentimentConfig{Endpoint: server.URL})
	if _, err := client.Score(context.Background(), "text"); err == nil {
		t.Fatalf("expected error for missing compound")
	}
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"tone-monitor-service/internal/service/tone"
)

type fakeModelServer struct {
	reply      string
	modelReady bool
	modelHits  atomic.Int32
	chatHits   atomic.Int32
	lastPrompt atomic.Value
}

func (f *fakeModelServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models/", func(w http.ResponseWriter, r *http.Request) {
		f.modelHits.Add(1)
		if !f.modelReady {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"test-model","object":"model","created":0,"owned_by":"test"}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.chatHits.Add(1)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			f.lastPrompt.Store(req.Messages[0].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": f.reply},
			}},
		})
	})
	return mux
}

func newTestClassifier(t *testing.T, f *fakeModelServer) *Classifier {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Model = "test-model"
	return New(cfg)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != "openai" {
		t.Errorf("expected default backend 'openai', got %s", cfg.Backend)
	}
	if cfg.Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", cfg.Temperature)
	}
	if cfg.MaxTokens != 48 {
		t.Errorf("expected max tokens 48, got %d", cfg.MaxTokens)
	}
}

func TestClassifier_Availability(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected tone.Availability
	}{
		{"no backend", Config{Backend: "none", Enabled: true, APIKey: "k"}, tone.DeviceNotEligible},
		{"unknown backend", Config{Backend: "coreml", Enabled: true, APIKey: "k"}, tone.DeviceNotEligible},
		{"disabled", Config{Backend: "openai", Enabled: false, APIKey: "k"}, tone.FeatureDisabled},
		{"no credentials", Config{Backend: "openai", Enabled: true}, tone.FeatureDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.cfg)
			if got := c.Availability(context.Background()); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}

			_, err := c.Classify(context.Background(), "hello", "kind?")
			if !errors.Is(err, tone.ErrClassifierUnavailable) {
				t.Errorf("expected ErrClassifierUnavailable, got %v", err)
			}
			if tone.StatusMessage(err) != tt.expected.Message() {
				t.Errorf("expected status %q, got %q", tt.expected.Message(), tone.StatusMessage(err))
			}
		})
	}
}

func TestClassifier_ModelNotReady(t *testing.T) {
	f := &fakeModelServer{modelReady: false, reply: "Yes"}
	c := newTestClassifier(t, f)

	_, err := c.Classify(context.Background(), "hello", "kind?")
	var ue *tone.UnavailableError
	if !errors.As(err, &ue) || ue.Reason != tone.ModelNotReady {
		t.Fatalf("expected ModelNotReady, got %v", err)
	}
	if f.chatHits.Load() != 0 {
		t.Error("expected no completion request when model is not ready")
	}
}

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		reply     string
		agreeable bool
		reason    string
	}{
		{"Yes", true, ""},
		{"No — confrontational phrasing", false, "confrontational phrasing"},
		{"No", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			f := &fakeModelServer{modelReady: true, reply: tt.reply}
			c := newTestClassifier(t, f)

			res, err := c.Classify(context.Background(), "fix it now", "Is it kind?")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Agreeable != tt.agreeable || res.Reason != tt.reason {
				t.Errorf("expected {%v %q}, got {%v %q}", tt.agreeable, tt.reason, res.Agreeable, res.Reason)
			}

			prompt, _ := f.lastPrompt.Load().(string)
			if !strings.Contains(prompt, "Question: Is it kind?") || !strings.Contains(prompt, "Text: fix it now") {
				t.Errorf("unexpected prompt sent: %q", prompt)
			}
		})
	}
}

func TestClassifier_UnparseableReply(t *testing.T) {
	f := &fakeModelServer{modelReady: true, reply: "It depends on context."}
	c := newTestClassifier(t, f)

	_, err := c.Classify(context.Background(), "hmm", "kind?")
	if !errors.Is(err, tone.ErrUnparseableResponse) {
		t.Errorf("expected ErrUnparseableResponse, got %v", err)
	}
}

func TestClassifier_ReadinessIsCached(t *testing.T) {
	f := &fakeModelServer{modelReady: true, reply: "Yes"}
	c := newTestClassifier(t, f)

	for i := 0; i < 3; i++ {
		if _, err := c.Classify(context.Background(), "thanks", "kind?"); err != nil {
			t.Fatalf("classify %d: unexpected error: %v", i, err)
		}
	}
	if got := f.modelHits.Load(); got != 1 {
		t.Errorf("expected 1 model check, got %d", got)
	}
	if got := f.chatHits.Load(); got != 3 {
		t.Errorf("expected 3 completions, got %d", got)
	}
}

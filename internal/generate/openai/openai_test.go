package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/imagematch/internal/generate"
)

func TestGenerateURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["prompt"] != "a red square" || body["model"] != "dall-e-3" || body["size"] != "1024x1024" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"data":[{"url":"https://img.example/1.png","revised_prompt":"A red square."}]}`))
	}))
	defer srv.Close()

	c := New("sk-test", srv.URL+"/", "", "", time.Second)
	res, err := c.Generate(context.Background(), "a red square")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.ImageURL != "https://img.example/1.png" || res.RevisedPrompt != "A red square." {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestGenerateBase64(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"aGVsbG8="}]}`))
	}))
	defer srv.Close()

	res, err := New("sk-test", srv.URL, "gpt-image-1", "512x512", time.Second).Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.ImageURL != "data:image/png;base64,aGVsbG8=" {
		t.Fatalf("unexpected url %q", res.ImageURL)
	}
}

func TestGenerateErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Your request was rejected by the safety system."}}`))
	}))
	defer srv.Close()

	_, err := New("sk-test", srv.URL, "", "", time.Second).Generate(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "safety system") {
		t.Fatalf("expected provider message, got %v", err)
	}
}

func TestGenerateStatusWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New("sk-test", srv.URL, "", "", time.Second).Generate(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestGenerateEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	if _, err := New("sk-test", srv.URL, "", "", time.Second).Generate(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty data")
	}
}

func TestGenerateMissingKey(t *testing.T) {
	_, err := New("", "", "", "", time.Second).Generate(context.Background(), "x")
	if !errors.Is(err, generate.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

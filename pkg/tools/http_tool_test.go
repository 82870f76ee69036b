package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPToolGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "pong")
	}))
	defer srv.Close()

	tool := NewHTTPTool(5 * time.Second)
	out, err := tool.Execute(context.Background(), map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out["status_code"] != http.StatusOK {
		t.Errorf("status_code = %v", out["status_code"])
	}
	if out["body"] != "pong" {
		t.Errorf("body = %q", out["body"])
	}
	if out["truncated"] != false {
		t.Errorf("truncated = %v", out["truncated"])
	}
}

func TestHTTPToolPostBody(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		received = string(data)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tool := NewHTTPTool(5 * time.Second)
	out, err := tool.Execute(context.Background(), map[string]any{
		"url":    srv.URL,
		"method": "post",
		"body":   `{"k":"v"}`,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out["status_code"] != http.StatusCreated {
		t.Errorf("status_code = %v", out["status_code"])
	}
	if received != `{"k":"v"}` {
		t.Errorf("server received %q", received)
	}
}

func TestHTTPToolTruncatesLongBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("x", maxResponseBytes+100))
	}))
	defer srv.Close()

	tool := NewHTTPTool(5 * time.Second)
	out, err := tool.Execute(context.Background(), map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out["truncated"] != true {
		t.Error("expected truncated = true")
	}
	if len(out["body"].(string)) != maxResponseBytes {
		t.Errorf("body length = %d, want %d", len(out["body"].(string)), maxResponseBytes)
	}
}

func TestHTTPToolRejectsBadInput(t *testing.T) {
	tool := NewHTTPTool(time.Second)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing url", map[string]any{}},
		{"bad scheme", map[string]any{"url": "ftp://example.com"}},
		{"bad method", map[string]any{"url": "http://example.com", "method": "TRACE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tool.Execute(ctx, tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

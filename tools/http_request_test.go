package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPRequestTool_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"forecast":"sunny"}`)
	}))
	defer srv.Close()

	tool := NewHTTPRequestTool(srv.Client())
	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"method": "GET",
		"url":    srv.URL,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("unexpected failure: %s", result.Error)
	}

	data := result.Data.(map[string]interface{})
	if data["status_code"] != 200 {
		t.Errorf("unexpected status %v", data["status_code"])
	}
	if data["body"] != `{"forecast":"sunny"}` {
		t.Errorf("unexpected body %q", data["body"])
	}
}

func TestHTTPRequestTool_PostWithHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Error("expected custom header to be forwarded")
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"q":1}` {
			t.Errorf("unexpected body %q", body)
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	tool := NewHTTPRequestTool(srv.Client())
	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"method":  "post",
		"url":     srv.URL,
		"body":    `{"q":1}`,
		"headers": map[string]interface{}{"X-Api-Key": "secret"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
}

func TestHTTPRequestTool_HTMLReducedToText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<html><head><script>var x=1;</script><style>p{}</style></head><body><p>Hello</p><p>World</p></body></html>`)
	}))
	defer srv.Close()

	tool := NewHTTPRequestTool(srv.Client())
	result, _ := tool.Execute(context.Background(), map[string]interface{}{
		"method": "GET",
		"url":    srv.URL,
	})

	body := result.Data.(map[string]interface{})["body"].(string)
	if body != "Hello World" {
		t.Errorf("expected visible text only, got %q", body)
	}
	if strings.Contains(body, "var x") {
		t.Error("script content leaked into the extracted text")
	}
}

func TestHTTPRequestTool_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	tool := NewHTTPRequestTool(srv.Client())
	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"method": "GET",
		"url":    srv.URL,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Fatal("expected error result for 404")
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(result.Error), &payload); err != nil {
		t.Fatalf("error payload is not JSON: %v", err)
	}
	if payload["status_code"] != float64(404) {
		t.Errorf("unexpected status %v", payload["status_code"])
	}
}

func TestHTTPRequestTool_BadInput(t *testing.T) {
	tool := NewHTTPRequestTool(nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		params  map[string]interface{}
		wantErr string
	}{
		{"missing url", map[string]interface{}{"method": "GET"}, "missing required parameter: url"},
		{"bad method", map[string]interface{}{"method": "DELETE", "url": "http://example.com"}, "unsupported method: DELETE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Execute(ctx, tt.params)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if result.Success {
				t.Fatal("expected failure")
			}
			if result.Error != tt.wantErr {
				t.Errorf("got %q, want %q", result.Error, tt.wantErr)
			}
		})
	}
}

func TestHTTPRequestTool_TransportError(t *testing.T) {
	tool := NewHTTPRequestTool(&http.Client{})
	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"method": "GET",
		"url":    "http://127.0.0.1:1", // nothing listens here
	})
	if err != nil {
		t.Fatalf("transport errors must come back as tool results, got %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "request failed") {
		t.Errorf("unexpected error %q", result.Error)
	}
}

func TestExtractHTMLText(t *testing.T) {
	text, err := extractHTMLText(`<div>one<span> two</span></div><noscript>hidden</noscript>`)
	if err != nil {
		t.Fatalf("extractHTMLText failed: %v", err)
	}
	if text != "one two" {
		t.Errorf("got %q, want %q", text, "one two")
	}
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/tfelder/agentware/agent"
)

// maxResponseBytes caps how much of a response body is handed to the
// model.
const maxResponseBytes = 512 * 1024

// HTTPRequestTool lets an agent make HTTP requests against arbitrary
// APIs, e.g. the National Weather Service two-step points/forecast flow.
//
// JSON responses pass through verbatim; HTML responses are reduced to
// their visible text so the model is not fed markup.
type HTTPRequestTool struct {
	client *http.Client
}

// NewHTTPRequestTool creates the tool. A nil client gets a 30s-timeout
// default.
func NewHTTPRequestTool(client *http.Client) *HTTPRequestTool {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRequestTool{client: client}
}

func (h *HTTPRequestTool) Name() string { return "http_request" }

func (h *HTTPRequestTool) Description() string {
	return "Make an HTTP request to a URL and return the response body. Supports GET and POST with optional headers and body."
}

func (h *HTTPRequestTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"method": map[string]interface{}{
				"type":        "string",
				"description": "HTTP method (GET or POST)",
				"enum":        []string{"GET", "POST"},
			},
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to request",
			},
			"headers": map[string]interface{}{
				"type":        "object",
				"description": "Optional request headers",
			},
			"body": map[string]interface{}{
				"type":        "string",
				"description": "Optional request body (POST only)",
			},
		},
		"required": []string{"method", "url"},
	}
}

// Execute performs the request. Transport failures come back as error
// tool results so the model can adjust rather than abort.
func (h *HTTPRequestTool) Execute(ctx context.Context, params map[string]interface{}) (*agent.ToolResult, error) {
	method, _ := params["method"].(string)
	url, _ := params["url"].(string)
	if url == "" {
		return agent.NewToolError("missing required parameter: url"), nil
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return agent.NewToolError(fmt.Sprintf("unsupported method: %s", method)), nil
	}

	var body io.Reader
	if raw, ok := params["body"].(string); ok && raw != "" {
		body = strings.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return agent.NewToolError(fmt.Sprintf("invalid request: %v", err)), nil
	}
	req.Header.Set("User-Agent", "agentware/0.1 (agent demo)")
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	if headers, ok := params["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return agent.NewToolError(fmt.Sprintf("request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return agent.NewToolError(fmt.Sprintf("read response: %v", err)), nil
	}

	text := string(raw)
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		if extracted, err := extractHTMLText(text); err == nil {
			text = extracted
		}
	}

	result := map[string]interface{}{
		"status_code": resp.StatusCode,
		"body":        text,
	}
	if resp.StatusCode >= 400 {
		encoded, _ := json.Marshal(result)
		return agent.NewToolError(string(encoded)), nil
	}
	return agent.NewToolResult(result), nil
}

// extractHTMLText strips tags, scripts, and styles from an HTML document
// and returns the visible text.
func extractHTMLText(source string) (string, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				sb.WriteString(trimmed)
				sb.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return strings.TrimSpace(sb.String()), nil
}

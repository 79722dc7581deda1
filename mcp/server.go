package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/tfelder/agentware/agent"
)

// Server exposes agent tools over the MCP stdio transport.
//
// Example:
//
//	srv := mcp.NewServer("hello-world-server", tools.CalculatorTools())
//	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil { ... }
type Server struct {
	name    string
	version string
	tools   map[string]agent.Tool
	order   []string
	logger  *slog.Logger
}

// NewServer creates an MCP server offering the given tools.
func NewServer(name string, toolList []agent.Tool) *Server {
	s := &Server{
		name:    name,
		version: "0.1.0",
		tools:   make(map[string]agent.Tool),
		logger:  slog.Default(),
	}
	for _, t := range toolList {
		if _, exists := s.tools[t.Name()]; exists {
			continue
		}
		s.tools[t.Name()] = t
		s.order = append(s.order, t.Name())
	}
	return s
}

// SetLogger replaces the server's logger.
func (s *Server) SetLogger(logger *slog.Logger) { s.logger = logger }

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w until EOF or context cancellation.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("skipping malformed mcp frame", "err", err)
			continue
		}

		resp := s.handle(ctx, &req)
		if resp == nil {
			continue // notification, nothing to send
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

func (s *Server) handle(ctx context.Context, req *request) *response {
	switch req.Method {
	case "initialize":
		return s.result(req, initializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      serverInfo{Name: s.name, Version: s.version},
			Capabilities:    serverCapabilities{Tools: map[string]interface{}{}},
		})

	case "notifications/initialized":
		return nil

	case "tools/list":
		infos := make([]ToolInfo, 0, len(s.order))
		for _, name := range s.order {
			t := s.tools[name]
			infos = append(infos, ToolInfo{
				Name:        t.Name(),
				Description: t.Description(),
				InputSchema: agent.SpecFor(t).InputSchema,
			})
		}
		return s.result(req, listToolsResult{Tools: infos})

	case "tools/call":
		return s.handleCall(ctx, req)

	default:
		if req.ID == nil {
			return nil // unknown notification
		}
		return s.errorResponse(req, codeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) handleCall(ctx context.Context, req *request) *response {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req, codeInvalidParams, fmt.Sprintf("invalid tools/call params: %v", err))
	}
	tool, ok := s.tools[params.Name]
	if !ok {
		return s.errorResponse(req, codeInvalidParams, fmt.Sprintf("unknown tool: %s", params.Name))
	}

	result, err := tool.Execute(ctx, params.Arguments)
	if err != nil {
		// Tool failures travel as tool results, not protocol errors,
		// so the model can see and react to them.
		return s.result(req, callToolResult{
			Content: []contentBlock{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
	}
	if !result.Success {
		return s.result(req, callToolResult{
			Content: []contentBlock{{Type: "text", Text: result.Error}},
			IsError: true,
		})
	}
	return s.result(req, callToolResult{
		Content: []contentBlock{{Type: "text", Text: renderData(result.Data)}},
	})
}

func renderData(data interface{}) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

func (s *Server) result(req *request, payload interface{}) *response {
	data, err := json.Marshal(payload)
	if err != nil {
		return s.errorResponse(req, codeInternalError, err.Error())
	}
	return &response{JSONRPC: "2.0", ID: req.ID, Result: data}
}

func (s *Server) errorResponse(req *request, code int, message string) *response {
	return &response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: code, Message: message}}
}

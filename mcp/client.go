package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/tfelder/agentware/agent"
)

// Client is an MCP client over a stdio transport.
//
// Typical use spawns a server subprocess, initializes the session, and
// adapts the discovered tools for an agent:
//
//	client := mcp.NewStdioClient("uvx", []string{"awslabs.cost-explorer-mcp-server@latest"}, nil)
//	if err := client.Start(ctx); err != nil { ... }
//	defer client.Close()
//	tools, err := client.Tools(ctx)
//	a := agent.New(agent.Config{Model: model, Tools: tools, ...})
type Client struct {
	command string
	args    []string
	env     map[string]string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader

	mu     sync.Mutex // serializes request/response pairs
	nextID int64
}

// NewStdioClient creates a client that will spawn the given command as an
// MCP server subprocess. env entries are added to the inherited
// environment.
func NewStdioClient(command string, args []string, env map[string]string) *Client {
	return &Client{command: command, args: args, env: env}
}

// Start launches the server subprocess and performs the initialize
// handshake.
func (c *Client) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Env = os.Environ()
	for k, v := range c.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("mcp server stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("mcp server stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mcp server %q: %w", c.command, err)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.reader = bufio.NewReaderSize(stdout, 1<<20)

	return c.initialize(ctx)
}

func (c *Client) initialize(ctx context.Context) error {
	params := map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"clientInfo":      map[string]string{"name": "agentware", "version": "0.1.0"},
		"capabilities":    map[string]interface{}{},
	}
	if _, err := c.call(ctx, "initialize", params); err != nil {
		return fmt.Errorf("mcp initialize: %w", err)
	}
	// initialized is a notification: no ID, no reply expected.
	return c.send(request{JSONRPC: "2.0", Method: "notifications/initialized"})
}

// ListTools returns the tools offered by the server.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	raw, err := c.call(ctx, "tools/list", map[string]interface{}{})
	if err != nil {
		return nil, fmt.Errorf("mcp tools/list: %w", err)
	}
	var result listToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode tools/list result: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a server tool and returns the concatenated text
// content. A tool-level failure is reported via isError, not a transport
// error.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (string, bool, error) {
	raw, err := c.call(ctx, "tools/call", callToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return "", false, fmt.Errorf("mcp tools/call %s: %w", name, err)
	}
	var result callToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", false, fmt.Errorf("decode tools/call result: %w", err)
	}
	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), result.IsError, nil
}

// Tools discovers the server's tools and adapts each into an agent.Tool.
func (c *Client) Tools(ctx context.Context) ([]agent.Tool, error) {
	infos, err := c.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	tools := make([]agent.Tool, 0, len(infos))
	for _, info := range infos {
		tools = append(tools, &remoteTool{client: c, info: info})
	}
	return tools, nil
}

// Close shuts down the server subprocess.
func (c *Client) Close() error {
	if c.stdin != nil {
		c.stdin.Close()
	}
	if c.cmd != nil {
		return c.cmd.Wait()
	}
	return nil
}

// call sends one request and reads frames until its response arrives,
// discarding server notifications in between.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	if err := c.send(request{JSONRPC: "2.0", ID: &id, Method: method, Params: encoded}); err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read mcp response: %w", err)
		}
		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			continue // not a frame we understand, skip
		}
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("mcp server error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	}
}

func (c *Client) send(req request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	data = append(data, '\n')
	if _, err := c.stdin.Write(data); err != nil {
		return fmt.Errorf("write to mcp server: %w", err)
	}
	return nil
}

// remoteTool adapts one MCP server tool to the agent.Tool interface.
type remoteTool struct {
	client *Client
	info   ToolInfo
}

func (r *remoteTool) Name() string        { return r.info.Name }
func (r *remoteTool) Description() string { return r.info.Description }

func (r *remoteTool) InputSchema() map[string]interface{} { return r.info.InputSchema }

func (r *remoteTool) Execute(ctx context.Context, params map[string]interface{}) (*agent.ToolResult, error) {
	text, isError, err := r.client.CallTool(ctx, r.info.Name, params)
	if err != nil {
		return nil, err
	}
	if isError {
		return agent.NewToolError(text), nil
	}
	return agent.NewToolResult(text), nil
}

package main

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/web"
)

const webChatSystemPrompt = `You are a helpful assistant chatting through a web interface.
Answer clearly and concisely. Use the conversation history for context.`

// chatSession pairs an agent with a lock serializing its runs. Two
// WebSocket connections may present the same chat_id; Agent.Run mutates
// shared history, so calls into one session must not overlap.
type chatSession struct {
	mu sync.Mutex
	a  *agent.Agent
}

// sessionAgents hands out one agent per chat session so histories stay
// separate.
type sessionAgents struct {
	mu       sync.Mutex
	sessions map[string]*chatSession
	newAgent func() *agent.Agent
}

func newSessionAgents(newAgent func() *agent.Agent) *sessionAgents {
	return &sessionAgents{
		sessions: make(map[string]*chatSession),
		newAgent: newAgent,
	}
}

func (s *sessionAgents) sessionFor(sessionID string) *chatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		return sess
	}
	sess := &chatSession{a: s.newAgent()}
	s.sessions[sessionID] = sess
	return sess
}

// run executes one turn against the session's agent, serialized per
// session.
func (s *sessionAgents) run(ctx context.Context, sessionID, text string) (string, error) {
	sess := s.sessionFor(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.a.Run(ctx, text)
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Serve a browser chat UI backed by an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			model, err := newModel(ctx, cfg, nil)
			if err != nil {
				return err
			}

			sessions := newSessionAgents(func() *agent.Agent {
				return agent.New(agent.Config{
					Name:         "web-chat",
					Model:        asAgentModel(model),
					SystemPrompt: webChatSystemPrompt,
				})
			})

			server := web.NewServer(web.ServerConfig{
				Host:    cfg.Web.Host,
				Port:    cfg.Web.Port,
				Respond: sessions.run,
			})
			return server.Start(ctx)
		},
	}
}

package main

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tfelder/agentware/agent"
)

// slowModel records how many Converse calls overlap.
type slowModel struct {
	inFlight int32
	peak     int32
	delay    time.Duration
}

func (m *slowModel) Converse(ctx context.Context, messages []*agent.Message, tools []agent.ToolSpec) (*agent.ModelOutput, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	for {
		p := atomic.LoadInt32(&m.peak)
		if n <= p || atomic.CompareAndSwapInt32(&m.peak, p, n) {
			break
		}
	}
	time.Sleep(m.delay)
	atomic.AddInt32(&m.inFlight, -1)
	return &agent.ModelOutput{
		Message:    agent.NewMessage("assistant", "ok"),
		StopReason: agent.StopEndTurn,
	}, nil
}

func (m *slowModel) ModelID() string { return "slow" }

func TestSessionAgents_SerializesPerSession(t *testing.T) {
	model := &slowModel{delay: 20 * time.Millisecond}
	sessions := newSessionAgents(func() *agent.Agent {
		return agent.New(agent.Config{Name: "chat", Model: model})
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sessions.run(context.Background(), "shared-chat", "hello"); err != nil {
				t.Errorf("run: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak := atomic.LoadInt32(&model.peak); peak != 1 {
		t.Errorf("expected serialized model calls within a session, saw %d in flight", peak)
	}

	sess := sessions.sessionFor("shared-chat")
	// Each turn appends one user and one assistant message.
	if got := len(sess.a.Messages()); got != 8 {
		t.Errorf("expected 8 history messages after 4 turns, got %d", got)
	}
}

func TestSessionAgents_ReusesAgentPerSession(t *testing.T) {
	sessions := newSessionAgents(func() *agent.Agent {
		return agent.New(agent.Config{Name: "chat", Model: &slowModel{}})
	})

	first := sessions.sessionFor("alpha")
	if again := sessions.sessionFor("alpha"); again != first {
		t.Error("expected the same session on repeat lookup")
	}
	if other := sessions.sessionFor("beta"); other == first {
		t.Error("expected distinct sessions per chat id")
	}
}

func TestSessionAgents_HistoriesIsolated(t *testing.T) {
	sessions := newSessionAgents(func() *agent.Agent {
		return agent.New(agent.Config{Name: "chat", Model: &slowModel{}})
	})

	if _, err := sessions.run(context.Background(), "alpha", "remember me"); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := len(sessions.sessionFor("beta").a.Messages()); got != 0 {
		t.Errorf("expected empty history for untouched session, got %d messages", got)
	}
}

package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/llm"
	"github.com/tfelder/agentware/memory"
)

// scriptedLLM returns canned replies in order and records what it saw.
type scriptedLLM struct {
	replies []string
	err     error
	calls   int
	systems []string
}

func (s *scriptedLLM) ModelID() string     { return "scripted" }
func (s *scriptedLLM) Unwrap() interface{} { return nil }

func (s *scriptedLLM) Complete(_ context.Context, messages []*agent.Message, _ ...llm.CallOption) (*agent.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(messages) > 0 && messages[0].Role == "system" {
		s.systems = append(s.systems, messages[0].Content)
	}
	reply := s.replies[s.calls%len(s.replies)]
	s.calls++
	return agent.NewMessage("assistant", reply), nil
}

func (s *scriptedLLM) Stream(context.Context, []*agent.Message, ...llm.CallOption) (<-chan *agent.Message, error) {
	return nil, errors.New("not implemented")
}

func TestRouter_DetermineAction(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Action
	}{
		{"teacher", "teacher", ActionTeacher},
		{"teacher with noise", `The answer is "teacher".`, ActionTeacher},
		{"knowledgebase", "knowledgebase", ActionKnowledgeBase},
		{"unclear defaults to knowledgebase", "I am not sure", ActionKnowledgeBase},
		{"mixed case", "TEACHER", ActionTeacher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&scriptedLLM{replies: []string{tt.reply}})
			got, err := r.DetermineAction(context.Background(), "What is 2+2?")
			if err != nil {
				t.Fatalf("DetermineAction failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouter_DetermineActionError(t *testing.T) {
	r := New(&scriptedLLM{err: errors.New("throttled")})
	_, err := r.DetermineAction(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "action classification") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRouter_ClassifyKBAction(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  KBAction
	}{
		{"store", "store", KBActionStore},
		{"retrieve", "retrieve", KBActionRetrieve},
		{"unclear defaults to retrieve", "hmm", KBActionRetrieve},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&scriptedLLM{replies: []string{tt.reply}})
			got, err := r.ClassifyKBAction(context.Background(), "My name is John")
			if err != nil {
				t.Fatalf("ClassifyKBAction failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouter_RunKBStore(t *testing.T) {
	model := &scriptedLLM{replies: []string{"store"}}
	r := New(model)
	mem := memory.NewInMemory(0)

	reply, err := r.RunKB(context.Background(), mem, "s1", "My favorite color is blue")
	if err != nil {
		t.Fatalf("RunKB failed: %v", err)
	}
	if reply != StoredReply {
		t.Errorf("got %q, want %q", reply, StoredReply)
	}

	stored, _ := mem.List(context.Background(), "s1")
	if len(stored) != 1 || stored[0].Content != "My favorite color is blue" {
		t.Error("expected the query text stored verbatim")
	}
}

func TestRouter_RunKBRetrieve(t *testing.T) {
	model := &scriptedLLM{replies: []string{"retrieve", "Your favorite color is blue."}}
	r := New(model)
	mem := memory.NewInMemory(0)
	_ = mem.Store(context.Background(), "s1", agent.NewMessage("user", "my favorite color is blue"), nil)

	reply, err := r.RunKB(context.Background(), mem, "s1", "What is my favorite color?")
	if err != nil {
		t.Fatalf("RunKB failed: %v", err)
	}
	if reply != "Your favorite color is blue." {
		t.Errorf("unexpected reply %q", reply)
	}
	if len(model.systems) != 2 || model.systems[1] != AnswerSystemPrompt {
		t.Error("expected answer synthesis under the answer system prompt")
	}
}

func TestRouter_RunKBRetrieveFallsBackToList(t *testing.T) {
	model := &scriptedLLM{replies: []string{"retrieve", "You mentioned a dog named Max."}}
	r := New(model)
	mem := memory.NewInMemory(0)
	// No token overlap with the query, so ranked retrieval comes back empty
	// and the full listing is used instead.
	_ = mem.Store(context.Background(), "s1", agent.NewMessage("user", "dog named Max"), nil)

	reply, err := r.RunKB(context.Background(), mem, "s1", "zzz qqq www")
	if err != nil {
		t.Fatalf("RunKB failed: %v", err)
	}
	if reply != "You mentioned a dog named Max." {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestRouter_Answer(t *testing.T) {
	model := &scriptedLLM{replies: []string{"Paris."}}
	r := New(model)

	results := []*agent.Message{
		agent.NewMessage("user", "The capital of France is Paris").WithMetadata("score", 0.92),
	}
	reply, err := r.Answer(context.Background(), "What is the capital of France?", results)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if reply != "Paris." {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestRouter_AnswerNoResults(t *testing.T) {
	model := &scriptedLLM{replies: []string{"I don't have that information."}}
	r := New(model)

	if _, err := r.Answer(context.Background(), "Who am I?", nil); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
}

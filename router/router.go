// Package router classifies user queries and routes them between a
// teacher agent and a knowledge-base memory flow.
//
// Classification is delegated to the model with fixed single-word
// prompts; the free-text reply is matched by case-insensitive substring,
// with a documented default branch when nothing matches. There is
// deliberately no engineered fallback beyond that.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/llm"
	"github.com/tfelder/agentware/memory"
)

// Action is the top-level routing decision for a query.
type Action string

// KBAction is the knowledge-base sub-decision for a query.
type KBAction string

const (
	ActionTeacher       Action = "teacher"
	ActionKnowledgeBase Action = "knowledgebase"

	KBActionStore    KBAction = "store"
	KBActionRetrieve KBAction = "retrieve"
)

// ActionSystemPrompt steers the model to a single-word teacher vs
// knowledgebase classification.
const ActionSystemPrompt = `You are an assistant that determines whether a query should be handled by:
1. A teacher agent for educational questions (math, language, English, computer science, general knowledge)
2. A knowledge base agent for personal information storage and retrieval

Reply with EXACTLY ONE WORD - either "teacher" or "knowledgebase".
DO NOT include any explanations or other text.

Examples:
- "What is the capital of France?" -> "teacher"
- "How do I solve this equation: 2x + 5 = 15?" -> "teacher"
- "Translate 'hello' to Spanish" -> "teacher"
- "Remember that my birthday is July 4" -> "knowledgebase"
- "What's my birthday?" -> "knowledgebase"
- "My favorite color is blue" -> "knowledgebase"
- "What is my favorite color?" -> "knowledgebase"

Only respond with "teacher" or "knowledgebase" - no explanation, prefix, or any other text.`

// KBActionSystemPrompt steers the model to a single-word store vs
// retrieve classification.
const KBActionSystemPrompt = `You are a knowledge base assistant focusing ONLY on classifying user queries.
Your task is to determine whether a user query requires STORING information to a knowledge base
or RETRIEVING information from a knowledge base.

Reply with EXACTLY ONE WORD - either "store" or "retrieve".
DO NOT include any explanations or other text.

Examples:
- "Remember that my birthday is July 4" -> "store"
- "What's my birthday?" -> "retrieve"
- "The capital of France is Paris" -> "store"
- "What is the capital of France?" -> "retrieve"
- "My name is John" -> "store"
- "Who am I?" -> "retrieve"
- "I live in Seattle" -> "store"
- "Where do I live?" -> "retrieve"

Only respond with "store" or "retrieve" - no explanation, prefix, or any other text.`

// AnswerSystemPrompt shapes the final answer synthesized from retrieved
// knowledge-base results.
const AnswerSystemPrompt = `You are a helpful knowledge assistant that provides clear, concise answers
based on information retrieved from a knowledge base.

The information from the knowledge base contains document IDs, titles,
content previews and relevance scores. Focus on the actual content and
ignore the metadata.

Your responses should:
1. Be direct and to the point
2. Not mention the source of information (like document IDs or scores)
3. Not include any metadata or technical details
4. Be conversational but brief
5. Acknowledge when information is conflicting or missing

When analyzing the knowledge base results:
- Higher scores (closer to 1.0) indicate more relevant results
- Look for patterns across multiple results
- Prioritize information from results with higher scores
- Ignore any JSON formatting or technical elements in the content`

// StoredReply is returned after a successful store action.
const StoredReply = "I've stored this information."

// Router drives the two-step query classification and the knowledge-base
// store/retrieve flow.
type Router struct {
	model llm.LLM
}

// New creates a Router on the given model.
func New(model llm.LLM) *Router {
	return &Router{model: model}
}

// DetermineAction classifies a query as teacher or knowledgebase.
//
// The model's free-text reply is matched by substring: anything
// containing "teacher" routes to the teacher agent, everything else
// defaults to the knowledge base.
func (r *Router) DetermineAction(ctx context.Context, query string) (Action, error) {
	reply, err := r.classify(ctx, ActionSystemPrompt, query)
	if err != nil {
		return "", fmt.Errorf("action classification: %w", err)
	}
	if strings.Contains(reply, "teacher") {
		return ActionTeacher, nil
	}
	return ActionKnowledgeBase, nil
}

// ClassifyKBAction classifies a query as store or retrieve. Unclear
// replies default to retrieve.
func (r *Router) ClassifyKBAction(ctx context.Context, query string) (KBAction, error) {
	reply, err := r.classify(ctx, KBActionSystemPrompt, query)
	if err != nil {
		return "", fmt.Errorf("kb action classification: %w", err)
	}
	if strings.Contains(reply, "store") {
		return KBActionStore, nil
	}
	return KBActionRetrieve, nil
}

func (r *Router) classify(ctx context.Context, systemPrompt, query string) (string, error) {
	messages := []*agent.Message{
		agent.NewMessage("system", systemPrompt),
		agent.NewMessage("user", fmt.Sprintf("Query: %s", query)),
	}
	response, err := r.model.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(response.Content)), nil
}

// RunKB processes a query against a memory backend: store actions save
// the full query text; retrieve actions fetch matches (falling back to a
// full listing when nothing matches and the backend supports it) and
// synthesize a conversational answer.
func (r *Router) RunKB(ctx context.Context, mem memory.Memory, sessionID, query string) (string, error) {
	action, err := r.ClassifyKBAction(ctx, query)
	if err != nil {
		return "", err
	}

	if action == KBActionStore {
		if err := mem.Store(ctx, sessionID, agent.NewMessage("user", query), nil); err != nil {
			return "", fmt.Errorf("store memory: %w", err)
		}
		return StoredReply, nil
	}

	results, err := mem.Retrieve(ctx, sessionID, memory.RetrieveOptions{
		Query:    query,
		Limit:    memory.DefaultKBMaxResults,
		MinScore: memory.DefaultKBMinScore,
	})
	if err != nil {
		return "", fmt.Errorf("retrieve memory: %w", err)
	}
	if len(results) == 0 {
		listed, err := mem.List(ctx, sessionID)
		if err != nil && !errors.Is(err, memory.ErrNotSupported) {
			return "", fmt.Errorf("list memory: %w", err)
		}
		results = listed
	}

	return r.Answer(ctx, query, results)
}

// Answer renders the retrieved results and asks the model for a clear,
// conversational answer grounded on them.
func (r *Router) Answer(ctx context.Context, query string, results []*agent.Message) (string, error) {
	var sb strings.Builder
	for i, res := range results {
		fmt.Fprintf(&sb, "%d. %s", i+1, res.Content)
		if score, ok := res.Metadata["score"]; ok {
			fmt.Fprintf(&sb, " (score: %v)", score)
		}
		sb.WriteString("\n")
	}
	retrieved := sb.String()
	if retrieved == "" {
		retrieved = "(no results)"
	}

	prompt := fmt.Sprintf("User question: %q\n\nInformation from knowledge base:\n%s\nProvide a helpful answer based on this information:", query, retrieved)
	messages := []*agent.Message{
		agent.NewMessage("system", AnswerSystemPrompt),
		agent.NewMessage("user", prompt),
	}
	response, err := r.model.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("answer synthesis: %w", err)
	}
	return response.Content, nil
}

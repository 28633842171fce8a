// Package agent turns one user chat message into a reply: it prompts the
// LLM, recovers a command from the completion text, dispatches it to a task
// tool, and synthesizes the structured outcome back into a sentence.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"taskflow/internal/domain"
	"taskflow/internal/extract"
)

// historyTurn is one prior conversation turn replayed into the prompt.
type historyTurn struct {
	role    string
	content string
}

// Option is a functional option for configuring Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a structured logger. If l is nil it is ignored and the
// default slog logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHistoryBudget bounds replayed history to budget tokens, counted by tok.
// Oldest turns are dropped first. Ignored when tok is nil or budget <= 0.
func WithHistoryBudget(tok domain.Tokenizer, budget int) Option {
	return func(o *Orchestrator) {
		if tok != nil && budget > 0 {
			o.tokenizer = tok
			o.historyBudget = budget
		}
	}
}

// Orchestrator is the top-level chat entry point. Each Process call executes
// one pass: prompt, generate, extract, dispatch, synthesize. There is no
// multi-turn loop within a single call.
type Orchestrator struct {
	provider      domain.LLMProvider
	dispatcher    *ToolDispatcher
	logger        *slog.Logger
	tokenizer     domain.Tokenizer
	historyBudget int
}

// NewOrchestrator wires the orchestrator. Provider and dispatcher must not
// be nil.
func NewOrchestrator(provider domain.LLMProvider, dispatcher *ToolDispatcher, opts ...Option) *Orchestrator {
	if provider == nil {
		panic("orchestrator: provider must not be nil")
	}
	if dispatcher == nil {
		panic("orchestrator: dispatcher must not be nil")
	}
	o := &Orchestrator{provider: provider, dispatcher: dispatcher, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process handles one user message for one owner. history carries prior
// turns of the conversation (may be nil). The returned invocations are the
// audit trail of tool calls made while answering, with the injected owner id
// stripped from the logged arguments.
//
// Extraction failure is never an error: the raw completion (or a static help
// string when it is empty) becomes the reply. An LLM failure is fatal and
// propagates to the caller, as does a store failure inside a dispatched tool.
func (o *Orchestrator) Process(ctx context.Context, ownerID, message string, history []domain.Message) (string, []domain.ToolInvocation, error) {
	turns := o.fitHistory(toTurns(history), message)
	prompt := buildPrompt(turns, message)

	completion, err := o.provider.Generate(ctx, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("llm generate: %w", err)
	}
	o.logger.Debug("llm completion", "owner", ownerID, "chars", len(completion))

	cmd, ok := extract.Extract(completion)
	if !ok {
		// Passthrough: the model chose to answer in plain text.
		reply := strings.TrimSpace(completion)
		if reply == "" {
			reply = HelpMessage
		}
		return reply, nil, nil
	}

	result, err := o.dispatcher.Dispatch(ctx, ownerID, cmd)
	if err != nil {
		return "", nil, fmt.Errorf("dispatch: %w", err)
	}
	o.logger.Info("tool dispatched",
		"owner", ownerID, "tool", cmd.Function, "status", result.Status)

	invocation := domain.ToolInvocation{
		Name:      cmd.Function,
		Arguments: scrubOwner(cmd.Arguments),
		Result:    result,
	}
	return Synthesize(cmd.Function, result), []domain.ToolInvocation{invocation}, nil
}

// Catalog exposes the registered tool definitions (for the catalog endpoint).
func (o *Orchestrator) Catalog() []domain.ToolDefinition {
	return o.dispatcher.Definitions()
}

func toTurns(history []domain.Message) []historyTurn {
	turns := make([]historyTurn, 0, len(history))
	for _, m := range history {
		turns = append(turns, historyTurn{role: m.Role, content: m.Content})
	}
	return turns
}

// fitHistory drops the oldest turns until the replayed history fits the
// token budget. The system prompt and current message are always kept.
func (o *Orchestrator) fitHistory(turns []historyTurn, message string) []historyTurn {
	if o.tokenizer == nil || o.historyBudget <= 0 || len(turns) == 0 {
		return turns
	}
	budget := o.historyBudget
	if n, err := o.tokenizer.CountTokens(message); err == nil {
		budget -= n
	}
	// Count from newest to oldest, keeping the suffix that fits.
	kept := len(turns)
	used := 0
	for i := len(turns) - 1; i >= 0; i-- {
		n, err := o.tokenizer.CountTokens(turns[i].content)
		if err != nil {
			o.logger.Warn("token count failed, replaying full history", "err", err)
			return turns
		}
		if used+n > budget {
			break
		}
		used += n
		kept = i
	}
	return turns[kept:]
}

// scrubOwner returns the arguments without the injected user_id key. The
// audit trail must never echo the owner back out.
func scrubOwner(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if k == "user_id" {
			continue
		}
		out[k] = v
	}
	return out
}

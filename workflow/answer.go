package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/retrieval"
)

// Answer is the direct path: plan from query keywords, retrieve, answer
// with a label-specific prompt, enforce the language and remember the
// turn. A generation failure on retrieved context is retried once with
// the raw file fallback.
func (w *Workflow) Answer(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", ErrQueryRequired
	}
	if req.FilePath == "" {
		return "", ErrFileRequired
	}

	plan := w.planner.Plan(req.Query, core.TaskQuestionAnswer)
	logger := w.logger.With("session", req.SessionID, "label", plan.Label)

	var history string
	if req.SessionID != "" {
		history = w.memory.Session(req.SessionID).Formatted()
	}

	docContext, err := w.gatherContext(ctx, req, plan)
	if err != nil {
		return "", err
	}

	var answer string
	if docContext.fallback {
		answer, err = w.answerFromFile(ctx, req, docContext.text, history, plan)
	} else {
		answer, err = w.answerFromContext(ctx, req, docContext.text, history, plan)
		if err != nil {
			logger.Warn("direct generation failed, retrying from raw file", "err", err)
			var text string
			if text, err = retrieval.ReadFallback(req.FilePath); err == nil {
				answer, err = w.answerFromFile(ctx, req, text, history, plan)
			}
		}
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(answer) == "" {
		return "", core.ErrEmptyResponse
	}
	outcome, err := w.enforcer.Enforce(ctx, answer)
	if err != nil {
		return "", err
	}
	if req.SessionID != "" {
		w.memory.Session(req.SessionID).Append(req.Query, outcome.Text)
	}
	return outcome.Text, nil
}

func (w *Workflow) answerFromContext(ctx context.Context, req Request, text, history string, plan retrieval.Plan) (string, error) {
	prompt, err := directPrompt(plan.Label, req.Query, text, history)
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}
	return w.generate(ctx, prompt, plan.TokenBudget)
}

func (w *Workflow) answerFromFile(ctx context.Context, req Request, text, history string, plan retrieval.Plan) (string, error) {
	prompt, err := fallbackPrompt(req.Query, text, history)
	if err != nil {
		return "", err
	}
	return w.generate(ctx, prompt, retrieval.FallbackTokens(plan.TokenBudget))
}

func (w *Workflow) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := withTimeout(ctx, w.timeouts.Generate)
	defer cancel()
	out, err := w.generator.Generate(ctx, prompt, ai.GenerateOptions{System: SystemPrompt, MaxTokens: maxTokens})
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrGenerationFailure, err)
	}
	return out, nil
}

// Package analysis runs the per-stage AI routines: each chat turn produces a
// structured analysis document and a conversational reply from two
// independent model calls.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"ventureline/internal/ai"
	"ventureline/internal/domain"
)

// Result is the outcome of one stage routine turn.
type Result struct {
	Response string
	Analysis json.RawMessage
}

// HasRoutine reports whether the stage has a dedicated analysis routine.
// pitchReport does not; its turns get a generic acknowledgement.
func HasRoutine(stage domain.Stage) bool {
	_, ok := promptsByStage[stage]
	return ok
}

// Run executes the routine for the given stage: one structured-analysis call
// and one chat call, issued concurrently. Either failing fails the turn.
func Run(ctx context.Context, c ai.Collaborator, stage domain.Stage, message string, history []domain.ChatMessage) (Result, error) {
	prompts, ok := promptsByStage[stage]
	if !ok {
		return Result{}, fmt.Errorf("analysis: stage %s has no routine", stage)
	}

	var res Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := c.AnalyzeStructured(gctx, prompts.analysis, analysisContext(stage, message, history))
		if err != nil {
			return fmt.Errorf("analysis: structured call for %s: %w", stage, err)
		}
		res.Analysis = raw
		return nil
	})
	g.Go(func() error {
		reply, err := c.ChatCompletion(gctx, chatContext(prompts.chat, message, history))
		if err != nil {
			return fmt.Errorf("analysis: chat call for %s: %w", stage, err)
		}
		res.Response = reply
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// analysisContext flattens the conversation for the structured call. The
// initial idea stage only cares about what the user said; later stages feed
// the full role-tagged transcript so the model sees its own prior feedback.
func analysisContext(stage domain.Stage, message string, history []domain.ChatMessage) string {
	var parts []string
	if stage == domain.StageInitialIdea {
		for _, m := range history {
			if m.Role == domain.RoleUser {
				parts = append(parts, m.Content)
			}
		}
		parts = append(parts, message)
	} else {
		for _, m := range history {
			parts = append(parts, fmt.Sprintf("%s: %s", m.Role, m.Content))
		}
		parts = append(parts, fmt.Sprintf("user: %s", message))
	}
	return strings.Join(parts, "\n\n")
}

func chatContext(systemPrompt, message string, history []domain.ChatMessage) []ai.Message {
	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		role := "assistant"
		if m.Role == domain.RoleUser {
			role = "user"
		}
		msgs = append(msgs, ai.Message{Role: role, Content: m.Content})
	}
	return append(msgs, ai.Message{Role: "user", Content: message})
}

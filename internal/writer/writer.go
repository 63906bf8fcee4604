// Package writer turns assembled story context into chapter drafts by
// prompting an LLM provider and persisting the result.
package writer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkfall/storyloom/internal/assembly"
	"github.com/inkfall/storyloom/internal/bible"
	"github.com/inkfall/storyloom/internal/notify"
	"github.com/inkfall/storyloom/internal/provider"
)

const systemPrompt = `You are a novelist's writing partner. Continue the story ` +
	`using only the facts in the story context block. Keep every character's ` +
	`voice, stay inside the established world rules, and do not resolve plot ` +
	`threads the outline leaves open.`

// Publisher emits writing-session events. The bus is optional at
// runtime, so the writer takes the interface rather than *notify.Bus.
type Publisher interface {
	Publish(ctx context.Context, ev *notify.Event) error
}

// Request asks for one chapter draft.
type Request struct {
	ProjectID   string  `json:"project_id,omitempty"`
	ChapterID   string  `json:"chapter_id"`
	Model       string  `json:"model"`
	Instruction string  `json:"instruction,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Writer generates chapter drafts from assembled context.
type Writer struct {
	builder *assembly.ChapterBuilder
	router  *provider.Router
	drafts  bible.DraftStore
	bus     Publisher
	logger  *zap.Logger
}

// New creates a writer. bus may be nil when no event stream is
// configured.
func New(builder *assembly.ChapterBuilder, router *provider.Router, drafts bible.DraftStore, bus Publisher, logger *zap.Logger) *Writer {
	return &Writer{
		builder: builder,
		router:  router,
		drafts:  drafts,
		bus:     bus,
		logger:  logger,
	}
}

// GenerateDraft assembles the chapter's context, prompts the provider,
// and saves the draft. Truncated context is reported on the draft, not
// treated as an error.
func (w *Writer) GenerateDraft(ctx context.Context, req *Request) (*bible.Draft, error) {
	result := w.builder.Build(ctx, req.ChapterID)

	if result.Truncated {
		w.publish(ctx, &notify.Event{
			ID:        uuid.New().String(),
			ProjectID: req.ProjectID,
			Type:      notify.EventContextTruncated,
			ChapterID: req.ChapterID,
			Payload:   fmt.Sprintf("context tokens: %d", result.TotalTokens),
		})
	}

	chatReq := &provider.ChatRequest{
		Model: req.Model,
		Messages: []provider.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: composeUserPrompt(result.Text, req.Instruction)},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	resp, err := w.router.Route(ctx, req.ProjectID, chatReq)
	if err != nil {
		return nil, fmt.Errorf("generate draft for chapter %s: %w", req.ChapterID, err)
	}

	draft := &bible.Draft{
		ID:            uuid.New().String(),
		ChapterID:     req.ChapterID,
		Model:         resp.Model,
		Instruction:   req.Instruction,
		Content:       resp.Content,
		ContextTokens: result.TotalTokens,
		Truncated:     result.Truncated,
		CreatedAt:     time.Now().UTC(),
	}
	if err := w.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	w.logger.Info("draft generated",
		zap.String("chapter", req.ChapterID),
		zap.String("model", resp.Model),
		zap.Int("context_tokens", result.TotalTokens),
		zap.Int("instruction_tokens", EstimateInstruction(req.Instruction)),
		zap.Bool("truncated", result.Truncated),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	w.publish(ctx, &notify.Event{
		ID:        uuid.New().String(),
		ProjectID: req.ProjectID,
		Type:      notify.EventDraftGenerated,
		ChapterID: req.ChapterID,
		Payload:   draft.ID,
	})
	return draft, nil
}

// composeUserPrompt sandwiches the context block above the writing
// instruction.
func composeUserPrompt(contextBlock, instruction string) string {
	if instruction == "" {
		instruction = "Write the next section of this chapter, following the outline."
	}
	var sb strings.Builder
	sb.WriteString(contextBlock)
	sb.WriteString("\n\n")
	sb.WriteString(instruction)
	return sb.String()
}

// EstimateInstruction reports how many tokens an instruction adds on
// top of the assembled context.
func EstimateInstruction(instruction string) int {
	return assembly.CountTokens(instruction)
}

func (w *Writer) publish(ctx context.Context, ev *notify.Event) {
	if w.bus == nil {
		return
	}
	if err := w.bus.Publish(ctx, ev); err != nil {
		w.logger.Warn("event publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
}

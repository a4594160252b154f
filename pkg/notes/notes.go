// Package notes turns scribe tool payloads into operative notes using a
// generative model backend.
package notes

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/medvoice-ai/medvoice/pkg/core"
)

const systemPrompt = `
You assist in writing complex surgical reports.
You act as an experienced orthopaedic surgeon. First, you collect patient data: gender, age, diagnosis, brief history, risk factors, and details such as anesthesia used and tourniquet information. Do NOT proceed before collecting all necessary data. Ask follow-up questions if the data is incomplete. Then, write a very detailed, thorough, and extensive operative note in one go without subtitles or subdivisions and without any initial identifiers (such as patient or doctor name). After the operative note is written, include:
1. Pathological and normal findings during surgery.
2. A postoperative physician note.
3. Pre-operative and post-operative orders for the floor nurses.
4. Extensive education for the patient including psychological support.
5. A brief history leading to the surgical decision.
6. A plan before surgery including measurable, actionable goals.
7. Admission and post-operation diagnosis.
8. Extensive hospital course summary.
9. Discharge physical examination.
10. Procedure summary.
11. Condition at discharge.
12. Health education and instructions at home.
13. A list of reasons to visit the hospital immediately after discharge.
`

type Note struct {
	Markdown  string    `json:"markdown"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// textModel is the generation backend. The shipped implementation is Gemini;
// tests substitute a scripted one.
type textModel interface {
	generate(ctx context.Context, system, prompt string) (string, error)
}

type Service struct {
	model  textModel
	name   string
	logger *slog.Logger
}

func NewService(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backend, err := newGeminiModel(ctx, apiKey, model)
	if err != nil {
		return nil, err
	}
	return &Service{model: backend, name: model, logger: logger}, nil
}

// Generate produces a fresh operative note from the scribe payload.
func (s *Service) Generate(ctx context.Context, prompt string) (Note, error) {
	if s == nil || s.model == nil {
		return Note{}, core.NewPreconditionError("note service not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return Note{}, core.NewInvalidRequestError("empty note prompt")
	}

	text, err := s.model.generate(ctx, systemPrompt, prompt)
	if err != nil {
		return Note{}, core.NewUpstreamError("generate note", err)
	}
	s.logger.Info("note generated", "model", s.name, "chars", len(text))
	return Note{Markdown: text, Model: s.name, CreatedAt: time.Now()}, nil
}

// Update revises an existing note according to the editor's instructions.
func (s *Service) Update(ctx context.Context, current, instructions string) (Note, error) {
	if s == nil || s.model == nil {
		return Note{}, core.NewPreconditionError("note service not configured")
	}
	if strings.TrimSpace(instructions) == "" {
		return Note{}, core.NewInvalidRequestError("empty update instructions")
	}

	var b strings.Builder
	b.WriteString("Revise the following operative note.\n\n")
	if strings.TrimSpace(current) != "" {
		b.WriteString("Current note:\n")
		b.WriteString(current)
		b.WriteString("\n\n")
	}
	b.WriteString("Requested changes:\n")
	b.WriteString(instructions)

	text, err := s.model.generate(ctx, systemPrompt, b.String())
	if err != nil {
		return Note{}, core.NewUpstreamError("update note", err)
	}
	s.logger.Info("note updated", "model", s.name, "chars", len(text))
	return Note{Markdown: text, Model: s.name, CreatedAt: time.Now()}, nil
}

package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/medvoice-ai/medvoice/pkg/core"
	"github.com/medvoice-ai/medvoice/pkg/core/agent"
	"github.com/medvoice-ai/medvoice/pkg/core/language"
	"github.com/medvoice-ai/medvoice/pkg/realtime/protocol"
)

// NoteSink receives operative note work produced by the scribe tools.
type NoteSink interface {
	Generate(ctx context.Context, prompt string) error
	Update(ctx context.Context, updateText string) error
}

// Mailer delivers the finished report when the editor agent emits the email
// trigger. Delivery itself lives outside the session layer.
type Mailer interface {
	SendReport(ctx context.Context) error
}

// RouterConfig wires the session router.
type RouterConfig struct {
	Graph     *agent.Graph
	Session   *Session
	Languages *language.State

	// Interpreter handles the parallel pair. Nil disables the
	// interpretation tools.
	Interpreter *Interpreter

	Notes  NoteSink // optional
	Mailer Mailer   // optional

	// OnTranscript observes every transcript append and update, for
	// persistence.
	OnTranscript func(item agent.HistoryItem)

	Logger *slog.Logger

	Voice      string // default "sage"
	PushToTalk bool

	// Greet sends a simulated user greeting once the provider session is
	// created, so the root agent speaks first.
	Greet bool
}

// Router owns the primary session's conversation: it consumes provider
// events, keeps the transcript, tracks the active agent, and dispatches
// every function call the model makes.
type Router struct {
	cfg      RouterConfig
	logger   *slog.Logger
	detector *language.Detector

	mu      sync.Mutex
	active  agent.Agent
	history []agent.HistoryItem
	index   map[string]int
}

// NewRouter validates cfg and positions the active agent at the graph root.
func NewRouter(cfg RouterConfig) (*Router, error) {
	if cfg.Graph == nil {
		return nil, core.NewInvalidRequestErrorWithParam("agent graph required", "graph")
	}
	if cfg.Session == nil {
		return nil, core.NewInvalidRequestErrorWithParam("primary session required", "session")
	}
	if cfg.Languages == nil {
		return nil, core.NewInvalidRequestErrorWithParam("language state required", "languages")
	}
	if cfg.Voice == "" {
		cfg.Voice = "sage"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{
		cfg:    cfg,
		logger: logger,
		active: cfg.Graph.Root(),
		index:  make(map[string]int),
	}
	r.detector = language.NewDetector(cfg.Languages, logger, func(l language.Language) {
		if cfg.Interpreter != nil {
			cfg.Interpreter.Route(context.Background(), l)
		}
	})
	return r, nil
}

// Active returns the agent currently driving the conversation.
func (r *Router) Active() agent.Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// History returns a snapshot of the transcript.
func (r *Router) History() []agent.HistoryItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]agent.HistoryItem, len(r.history))
	copy(out, r.history)
	return out
}

// Run consumes the primary session's event stream until it closes or ctx is
// canceled, then forces the session down.
func (r *Router) Run(ctx context.Context) {
	events := r.cfg.Session.Events()
	for {
		select {
		case <-ctx.Done():
			r.cfg.Session.Close()
			return
		case frame, ok := <-events:
			if !ok {
				r.cfg.Session.Close()
				return
			}
			ev, derr := protocol.DecodeServerEvent(frame)
			if derr != nil {
				r.logger.Warn("dropping undecodable frame", "error", derr)
				continue
			}
			r.HandleServerEvent(ctx, ev)
		}
	}
}

// HandleServerEvent applies one provider event.
func (r *Router) HandleServerEvent(ctx context.Context, ev protocol.ServerEvent) {
	switch ev.Type {
	case protocol.TypeSessionCreated:
		r.logger.Info("provider session created")
		r.UpdateSession(ctx, r.cfg.Greet)

	case protocol.TypeItemCreated:
		if ev.Item == nil {
			return
		}
		text := ev.Item.Text()
		if ev.Item.Role == protocol.RoleAssistant && isEmailTrigger(text) {
			r.fireMailer(ctx)
			return
		}
		r.appendHistory(ev.Item.ID, ev.Item.Role, text)

	case protocol.TypeInputTranscriptDone:
		r.setHistoryText(ev.ItemID, strings.TrimSpace(ev.Transcript))

	case protocol.TypeOutputTranscriptDelta:
		r.appendHistoryText(ev.ItemID, ev.Delta)

	case protocol.TypeSpeechStarted:
		r.detector.SpeechStarted()

	case protocol.TypeResponseDone:
		for _, call := range ev.Response.FunctionCalls() {
			r.Dispatch(ctx, call.Name, call.CallID, call.Arguments)
		}

	case protocol.TypeResponseOutputItemDone:
		if ev.Item == nil || ev.Item.Role != protocol.RoleAssistant {
			return
		}
		if isEmailTrigger(r.historyText(ev.Item.ID)) {
			r.removeHistory(ev.Item.ID)
			r.fireMailer(ctx)
		}

	case protocol.TypeError:
		if ev.Error != nil {
			r.logger.Warn("provider error", "code", ev.Error.Code, "message", ev.Error.Message)
		}

	default:
		r.logger.Debug("unhandled event", "type", ev.Type)
	}
}

// Dispatch resolves one function call. Transfers are checked first, then
// the active agent's tool table; anything else is acknowledged with
// {"result":true} so the model never stalls on an unknown tool.
func (r *Router) Dispatch(ctx context.Context, name, callID, rawArgs string) {
	r.logger.Info("function call", "name", name, "call_id", callID)
	args := json.RawMessage(rawArgs)

	var result any
	switch {
	case name == agent.TransferToolName:
		result = r.handleTransfer(ctx, args)
	default:
		if tool, ok := r.Active().FindTool(name); ok {
			result = r.invokeTool(ctx, tool, args)
		} else {
			result = map[string]bool{"result": true}
		}
	}

	// The active-agent switch and tool side effects are settled before
	// the acknowledgment goes out.
	r.respond(callID, result)
}

func (r *Router) handleTransfer(ctx context.Context, args json.RawMessage) agent.TransferResult {
	var ta agent.TransferArgs
	if err := json.Unmarshal(args, &ta); err != nil {
		r.logger.Warn("malformed transfer arguments", "error", err)
		return agent.TransferResult{DidTransfer: false}
	}

	// Destinations resolve against the full agent set, not just the
	// caller's downstream list.
	dest, ok := r.cfg.Graph.Lookup(ta.DestinationAgent)
	if !ok {
		r.logger.Warn("transfer to unknown agent", "destination", ta.DestinationAgent)
		return agent.TransferResult{DestinationAgent: ta.DestinationAgent, DidTransfer: false}
	}

	r.mu.Lock()
	from := r.active.Name
	r.active = dest
	r.mu.Unlock()

	r.logger.Info("agent transfer", "from", from, "to", dest.Name,
		"rationale", ta.RationaleForTransfer)
	r.UpdateSession(ctx, false)
	return agent.TransferResult{DestinationAgent: dest.Name, DidTransfer: true}
}

func (r *Router) invokeTool(ctx context.Context, tool agent.Tool, args json.RawMessage) any {
	switch tool.Name {
	case agent.ToolSetLanguageContext:
		var p struct {
			DoctorLanguage  string `json:"doctorLanguage"`
			PatientLanguage string `json:"patientLanguage"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			r.logger.Warn("malformed language context", "error", err)
			return map[string]bool{"result": false}
		}
		doctor := language.Parse(p.DoctorLanguage)
		patient := language.Parse(p.PatientLanguage)
		if !doctor.Known() || !patient.Known() {
			r.logger.Warn("unsupported language in context",
				"doctor", p.DoctorLanguage, "patient", p.PatientLanguage)
			return map[string]bool{"result": false}
		}
		r.cfg.Languages.SetContext(doctor, patient)
		r.logger.Info("language context set", "doctor", doctor, "patient", patient)
		return map[string]bool{"result": true}

	case agent.ToolSetLanguageFlag:
		var p struct {
			Language   string  `json:"language"`
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			r.logger.Warn("malformed language flag", "error", err)
			return map[string]bool{"result": false}
		}
		r.detector.Observe(language.Parse(p.Language), p.Confidence)
		return map[string]bool{"result": true}

	case agent.ToolStartParallelAgents:
		if r.cfg.Interpreter == nil {
			r.logger.Warn("parallel agents requested with no interpreter wired")
			return map[string]bool{"result": false}
		}
		if err := r.cfg.Interpreter.SetParallelConnection(ctx, true); err != nil {
			r.logger.Warn("parallel start failed", "error", err)
			return map[string]bool{"result": false}
		}
		return map[string]bool{"result": true}
	}

	if tool.Handler == nil {
		return map[string]bool{"result": true}
	}

	res, err := tool.Handler(ctx, args, r.History())
	if err != nil {
		r.logger.Warn("tool handler failed", "tool", tool.Name, "error", err)
		return map[string]any{"success": false, "error": err.Error()}
	}

	if mr, ok := res.(agent.MessagesResult); ok && r.cfg.Notes != nil && len(mr.Messages) > 0 {
		content := mr.Messages[0].Content
		switch tool.Name {
		case agent.ToolSurgicalScribe:
			if err := r.cfg.Notes.Generate(ctx, content); err != nil {
				r.logger.Warn("note generation failed", "error", err)
			}
		case agent.ToolUpdateSurgicalReport:
			if err := r.cfg.Notes.Update(ctx, content); err != nil {
				r.logger.Warn("note update failed", "error", err)
			}
		}
	}
	return res
}

func (r *Router) respond(callID string, result any) {
	out, err := json.Marshal(result)
	if err != nil {
		r.logger.Warn("tool result not marshalable", "error", err)
		out = []byte(`{"result":true}`)
	}
	if err := r.cfg.Session.Send(protocol.NewFunctionCallOutput(callID, string(out))); err != nil {
		r.logger.Warn("function call output dropped", "call_id", callID, "error", err)
		return
	}
	if err := r.cfg.Session.Send(protocol.NewResponseCreate()); err != nil {
		r.logger.Warn("response.create dropped", "error", err)
	}
}

// UpdateSession pushes the active agent's instructions and tools to the
// provider. Server VAD is configured unless the client runs push-to-talk,
// in which case turn detection serializes as null.
func (r *Router) UpdateSession(ctx context.Context, greet bool) {
	active := r.Active()

	var vad *protocol.TurnDetection
	if !r.cfg.PushToTalk {
		vad = protocol.ServerVAD()
	}

	cfg := protocol.SessionConfig{
		Modalities:         []string{"text", "audio"},
		Instructions:       active.Instructions,
		Voice:              r.cfg.Voice,
		InputAudioFormat:   "pcm16",
		OutputAudioFormat:  "pcm16",
		InputTranscription: &protocol.Transcription{Model: "whisper-1"},
		TurnDetection:      vad,
		Tools:              toolDefs(active.Tools),
		ToolChoice:         "auto",
	}
	if err := r.cfg.Session.Send(protocol.NewSessionUpdate(cfg)); err != nil {
		r.logger.Warn("session update dropped", "agent", active.Name, "error", err)
		return
	}
	if greet {
		r.SendUserText(ctx, "hi")
	}
}

// SendUserText injects a typed or simulated user message and asks for the
// next assistant turn.
func (r *Router) SendUserText(_ context.Context, text string) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := r.cfg.Session.Send(protocol.NewUserTextItem(id, text)); err != nil {
		r.logger.Warn("user text dropped", "error", err)
		return
	}
	r.appendHistory(id, protocol.RoleUser, text)
	if err := r.cfg.Session.Send(protocol.NewResponseCreate()); err != nil {
		r.logger.Warn("response.create dropped", "error", err)
	}
}

// CancelAssistantSpeech truncates the in-flight assistant item at the
// played position and cancels the rest of the turn, used when the user
// talks over the assistant.
func (r *Router) CancelAssistantSpeech(itemID string, playedMs int) {
	if itemID == "" {
		return
	}
	if err := r.cfg.Session.Send(protocol.NewItemTruncate(itemID, playedMs)); err != nil {
		r.logger.Warn("truncate dropped", "error", err)
		return
	}
	if err := r.cfg.Session.Send(protocol.NewResponseCancel()); err != nil {
		r.logger.Warn("response.cancel dropped", "error", err)
	}
}

// PushToTalkStart drops any buffered input audio at the top of a press.
func (r *Router) PushToTalkStart() {
	if err := r.cfg.Session.Send(protocol.NewInputAudioClear()); err != nil {
		r.logger.Warn("input clear dropped", "error", err)
	}
}

// PushToTalkStop commits the captured press as one user turn.
func (r *Router) PushToTalkStop() {
	if err := r.cfg.Session.Send(protocol.NewInputAudioCommit()); err != nil {
		r.logger.Warn("input commit dropped", "error", err)
		return
	}
	if err := r.cfg.Session.Send(protocol.NewResponseCreate()); err != nil {
		r.logger.Warn("response.create dropped", "error", err)
	}
}

func (r *Router) fireMailer(ctx context.Context) {
	r.logger.Info("email trigger detected")
	if r.cfg.Mailer == nil {
		return
	}
	if err := r.cfg.Mailer.SendReport(ctx); err != nil {
		r.logger.Warn("report email failed", "error", err)
	}
}

func (r *Router) appendHistory(id, role, text string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	if _, exists := r.index[id]; exists {
		r.mu.Unlock()
		return
	}
	item := agent.HistoryItem{ItemID: id, Role: role, Text: text}
	r.index[id] = len(r.history)
	r.history = append(r.history, item)
	r.mu.Unlock()
	r.emitTranscript(item)
}

func (r *Router) setHistoryText(id, text string) {
	r.mutateHistory(id, func(item *agent.HistoryItem) {
		item.Text = text
	})
}

func (r *Router) appendHistoryText(id, delta string) {
	r.mutateHistory(id, func(item *agent.HistoryItem) {
		item.Text += delta
	})
}

func (r *Router) mutateHistory(id string, fn func(*agent.HistoryItem)) {
	if id == "" {
		return
	}
	r.mu.Lock()
	i, ok := r.index[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	fn(&r.history[i])
	item := r.history[i]
	r.mu.Unlock()
	r.emitTranscript(item)
}

func (r *Router) historyText(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[id]; ok {
		return r.history[i].Text
	}
	return ""
}

func (r *Router) removeHistory(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return
	}
	r.history = append(r.history[:i], r.history[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.history); j++ {
		r.index[r.history[j].ItemID] = j
	}
}

func (r *Router) emitTranscript(item agent.HistoryItem) {
	if r.cfg.OnTranscript != nil {
		r.cfg.OnTranscript(item)
	}
}

func toolDefs(tools []agent.Tool) []protocol.ToolDef {
	defs := make([]protocol.ToolDef, 0, len(tools))
	for _, t := range tools {
		params, err := json.Marshal(t.Parameters)
		if err != nil {
			continue
		}
		defs = append(defs, protocol.ToolDef{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		})
	}
	return defs
}

// isEmailTrigger matches the editor agent's send-email payload by parsed
// field equality, so whitespace differences in the model output do not
// break the trigger.
func isEmailTrigger(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || !strings.HasPrefix(text, "{") {
		return false
	}
	var p struct {
		Type   string `json:"type"`
		Action string `json:"action"`
	}
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return false
	}
	return p.Type == "string" && p.Action == "you have to send an email now"
}

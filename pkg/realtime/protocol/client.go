package protocol

import "encoding/json"

// SessionUpdate reconfigures the live session for the active agent.
type SessionUpdate struct {
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

// SessionConfig carries the mutable session settings.
type SessionConfig struct {
	Modalities         []string       `json:"modalities,omitempty"`
	Instructions       string         `json:"instructions,omitempty"`
	Voice              string         `json:"voice,omitempty"`
	InputAudioFormat   string         `json:"input_audio_format,omitempty"`
	OutputAudioFormat  string         `json:"output_audio_format,omitempty"`
	InputTranscription *Transcription `json:"input_audio_transcription,omitempty"`
	TurnDetection      *TurnDetection `json:"turn_detection"`
	Tools              []ToolDef      `json:"tools,omitempty"`
	ToolChoice         string         `json:"tool_choice,omitempty"`
}

// Transcription selects the model transcribing inbound speech.
type Transcription struct {
	Model string `json:"model"`
}

// TurnDetection configures server-side voice activity detection. A nil
// TurnDetection in SessionConfig serializes as null, which disables VAD for
// push-to-talk operation.
type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
	CreateResponse    bool    `json:"create_response,omitempty"`
}

// ServerVAD returns the turn detection profile used for hands-free clinic
// conversations.
func ServerVAD() *TurnDetection {
	return &TurnDetection{
		Type:              "server_vad",
		Threshold:         0.8,
		PrefixPaddingMs:   200,
		SilenceDurationMs: 800,
		CreateResponse:    true,
	}
}

// ToolDef is the provider-facing tool declaration.
type ToolDef struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// NewSessionUpdate wraps a config in its envelope.
func NewSessionUpdate(cfg SessionConfig) SessionUpdate {
	return SessionUpdate{Type: TypeSessionUpdate, Session: cfg}
}

// ItemCreate appends an item to the provider-side conversation.
type ItemCreate struct {
	Type string `json:"type"`
	Item Item   `json:"item"`
}

// Item is a conversation item in either direction.
type Item struct {
	ID        string        `json:"id,omitempty"`
	Type      string        `json:"type,omitempty"`
	Status    string        `json:"status,omitempty"`
	Role      string        `json:"role,omitempty"`
	Content   []ContentPart `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Output    string        `json:"output,omitempty"`
}

// ContentPart is one chunk of item content.
type ContentPart struct {
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// NewFunctionCallOutput acknowledges a function call back to the provider.
func NewFunctionCallOutput(callID, output string) ItemCreate {
	return ItemCreate{
		Type: TypeItemCreate,
		Item: Item{
			Type:   ItemTypeFunctionCallOutput,
			CallID: callID,
			Output: output,
		},
	}
}

// NewUserTextItem injects a typed user message into the conversation.
func NewUserTextItem(id, text string) ItemCreate {
	return ItemCreate{
		Type: TypeItemCreate,
		Item: Item{
			ID:   id,
			Type: ItemTypeMessage,
			Role: RoleUser,
			Content: []ContentPart{
				{Type: "input_text", Text: text},
			},
		},
	}
}

// ItemTruncate cuts assistant audio that the user talked over.
type ItemTruncate struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int    `json:"audio_end_ms"`
}

// NewItemTruncate builds a truncate event for the given item.
func NewItemTruncate(itemID string, audioEndMs int) ItemTruncate {
	return ItemTruncate{
		Type:       TypeItemTruncate,
		ItemID:     itemID,
		AudioEndMs: audioEndMs,
	}
}

// ResponseCreate asks the provider to produce the next assistant turn.
type ResponseCreate struct {
	Type string `json:"type"`
}

// NewResponseCreate builds a response.create event.
func NewResponseCreate() ResponseCreate {
	return ResponseCreate{Type: TypeResponseCreate}
}

// ResponseCancel interrupts the in-flight assistant turn.
type ResponseCancel struct {
	Type string `json:"type"`
}

// NewResponseCancel builds a response.cancel event.
func NewResponseCancel() ResponseCancel {
	return ResponseCancel{Type: TypeResponseCancel}
}

// InputAudioClear drops buffered input audio on the provider side.
type InputAudioClear struct {
	Type string `json:"type"`
}

// NewInputAudioClear builds an input_audio_buffer.clear event.
func NewInputAudioClear() InputAudioClear {
	return InputAudioClear{Type: TypeInputAudioClear}
}

// InputAudioCommit finalizes buffered input audio as one user turn, used in
// push-to-talk mode where server VAD is off.
type InputAudioCommit struct {
	Type string `json:"type"`
}

// NewInputAudioCommit builds an input_audio_buffer.commit event.
func NewInputAudioCommit() InputAudioCommit {
	return InputAudioCommit{Type: TypeInputAudioCommit}
}

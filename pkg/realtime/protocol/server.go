package protocol

import "encoding/json"

// ServerEvent is the decoded shape of any provider event. Fields are
// populated per event type; unrecognized types still decode so callers can
// log and skip them.
type ServerEvent struct {
	Type         string       `json:"type"`
	EventID      string       `json:"event_id,omitempty"`
	ItemID       string       `json:"item_id,omitempty"`
	Delta        string       `json:"delta,omitempty"`
	Transcript   string       `json:"transcript,omitempty"`
	ContentIndex int          `json:"content_index,omitempty"`
	AudioStartMs int          `json:"audio_start_ms,omitempty"`
	Session      *SessionInfo `json:"session,omitempty"`
	Item         *Item        `json:"item,omitempty"`
	Response     *Response    `json:"response,omitempty"`
	Error        *ErrorInfo   `json:"error,omitempty"`
}

// SessionInfo identifies the provider-side session.
type SessionInfo struct {
	ID    string `json:"id,omitempty"`
	Model string `json:"model,omitempty"`
}

// Response is the terminal payload of a model turn. Output items of type
// function_call carry the tool dispatches.
type Response struct {
	ID            string         `json:"id,omitempty"`
	Status        string         `json:"status,omitempty"`
	StatusDetails *StatusDetails `json:"status_details,omitempty"`
	Output        []Item         `json:"output,omitempty"`
}

// StatusDetails explains why a response ended early.
type StatusDetails struct {
	Type   string     `json:"type,omitempty"`
	Reason string     `json:"reason,omitempty"`
	Error  *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is the provider error payload.
type ErrorInfo struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// DecodeServerEvent parses one control-channel frame. Frames that are not
// JSON objects or lack a type are rejected; the caller drops them with a
// log rather than failing the session.
func DecodeServerEvent(data []byte) (ServerEvent, *DecodeError) {
	var ev ServerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ServerEvent{}, badPayload("frame is not a JSON object", "")
	}
	if ev.Type == "" {
		return ServerEvent{}, badPayload("frame missing type", "type")
	}
	return ev, nil
}

// FunctionCalls extracts the function_call items from a completed response.
func (r *Response) FunctionCalls() []Item {
	if r == nil {
		return nil
	}
	var calls []Item
	for _, item := range r.Output {
		if item.Type == ItemTypeFunctionCall {
			calls = append(calls, item)
		}
	}
	return calls
}

// Text flattens an item's textual content, preferring text parts and falling
// back to transcripts.
func (i Item) Text() string {
	var out string
	for _, part := range i.Content {
		switch {
		case part.Text != "":
			out += part.Text
		case part.Transcript != "":
			out += part.Transcript
		}
	}
	return out
}

// Package agent defines assistant personas, their tools, and the transfer
// graph that links them.
package agent

import (
	"context"
	"encoding/json"
)

// TransferToolName is the synthetic tool injected on every agent that
// declares downstream agents.
const TransferToolName = "transferAgents"

// HistoryItem is a snapshot row of the conversation handed to tool handlers.
type HistoryItem struct {
	ItemID string
	Role   string
	Text   string
}

// Handler runs a tool's local logic. args is the raw JSON argument object
// produced by the model; history is a read-only snapshot of the transcript
// at dispatch time. The returned value is marshaled verbatim into the
// function call output.
type Handler func(ctx context.Context, args json.RawMessage, history []HistoryItem) (any, error)

// Tool is one callable exposed to the model. Handler may be nil for tools
// whose effects are handled entirely by the session router.
type Tool struct {
	Name        string
	Description string
	Parameters  Schema
	Handler     Handler
}

// Schema is the JSON-schema object describing a tool's parameters.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property is one schema property, recursively.
type Property struct {
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

// Agent is one persona: its instructions are opaque prompt text, its tools
// are what the model may call while this agent is active, and Downstream
// names the agents it is allowed to hand the session to.
type Agent struct {
	Name              string
	PublicDescription string
	Instructions      string
	Tools             []Tool
	Downstream        []string
}

// FindTool returns the agent's tool with the given name.
func (a Agent) FindTool(name string) (Tool, bool) {
	for _, t := range a.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// TransferArgs is the argument payload of the injected transfer tool.
type TransferArgs struct {
	RationaleForTransfer string `json:"rationale_for_transfer,omitempty"`
	ConversationContext  string `json:"conversation_context,omitempty"`
	DestinationAgent     string `json:"destination_agent"`
}

// TransferResult acknowledges a transfer attempt back to the model.
type TransferResult struct {
	DestinationAgent string `json:"destination_agent"`
	DidTransfer      bool   `json:"did_transfer"`
}

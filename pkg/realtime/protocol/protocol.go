// Package protocol types the JSON envelopes exchanged with the realtime
// provider over the session control channel.
package protocol

import (
	"fmt"
	"strings"
)

// Client event types.
const (
	TypeSessionUpdate    = "session.update"
	TypeItemCreate       = "conversation.item.create"
	TypeItemTruncate     = "conversation.item.truncate"
	TypeResponseCreate   = "response.create"
	TypeResponseCancel   = "response.cancel"
	TypeInputAudioClear  = "input_audio_buffer.clear"
	TypeInputAudioCommit = "input_audio_buffer.commit"
)

// Server event types.
const (
	TypeSessionCreated         = "session.created"
	TypeSessionUpdated         = "session.updated"
	TypeItemCreated            = "conversation.item.created"
	TypeItemTruncated          = "conversation.item.truncated"
	TypeInputTranscriptDone    = "conversation.item.input_audio_transcription.completed"
	TypeOutputTranscriptDelta  = "response.audio_transcript.delta"
	TypeSpeechStarted          = "input_audio_buffer.speech_started"
	TypeSpeechStopped          = "input_audio_buffer.speech_stopped"
	TypeResponseDone           = "response.done"
	TypeResponseOutputItemDone = "response.output_item.done"
	TypeError                  = "error"
)

// Item types and roles.
const (
	ItemTypeMessage            = "message"
	ItemTypeFunctionCall       = "function_call"
	ItemTypeFunctionCallOutput = "function_call_output"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badPayload(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_payload", Message: message, Param: param}
}

// Package realtime manages the live sessions between the clinic client and
// the realtime voice provider: the primary conversation session and the two
// parallel interpretation sessions.
package realtime

import (
	"context"
	"time"
)

// Role distinguishes the live sessions a client may hold. At most one
// session per role is ever live.
type Role string

const (
	RolePrimary         Role = "primary"
	RoleDoctorToPatient Role = "doctorToPatient"
	RolePatientToDoctor Role = "patientToDoctor"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RolePrimary, RoleDoctorToPatient, RolePatientToDoctor:
		return true
	}
	return false
}

// Status is the connection lifecycle of one session.
type Status string

const (
	StatusDisconnected Status = "DISCONNECTED"
	StatusConnecting   Status = "CONNECTING"
	StatusConnected    Status = "CONNECTED"
)

// MediaTrack is an audio track handle attached to a peer. SetEnabled is the
// mute toggle; a disabled track keeps its slot on the peer but carries
// silence.
type MediaTrack interface {
	ID() string
	SetEnabled(enabled bool)
	Stop()
}

// RemoteTrack is an inbound track delivered by the peer. Record captures its
// audio as fixed-interval chunks until the track ends or the returned stop
// function runs; onEnded fires exactly once either way.
type RemoteTrack interface {
	MediaTrack
	Record(interval time.Duration, onChunk func([]byte), onEnded func()) (stop func())
}

// ControlChannel is the session's single labeled event channel. Send
// marshals v to JSON and rejects delivery once the channel is closed or
// before it is open; nothing is ever queued. Events yields raw inbound
// frames and closes when the channel dies, at which point Err reports why.
type ControlChannel interface {
	Label() string
	Send(v any) error
	Events() <-chan []byte
	Close() error
	Err() error
}

// Peer is the peer-connection handle behind one session. Implementations
// wrap whatever media stack the process links; tests use scripted fakes.
type Peer interface {
	AddTrack(t MediaTrack) error
	Tracks() []MediaTrack
	OpenControlChannel(label string) (ControlChannel, error)
	CreateOffer(ctx context.Context) (string, error)
	ApplyAnswer(ctx context.Context, answerSDP string) error
	OnRemoteTrack(fn func(RemoteTrack))
	Close() error
}

// PeerFactory creates a fresh peer per connect attempt.
type PeerFactory func(ctx context.Context) (Peer, error)

// CredentialSource mints the short-lived token a session dials with.
type CredentialSource interface {
	Ephemeral(ctx context.Context) (string, error)
}

// SDPExchanger trades the local offer for the provider's answer.
type SDPExchanger interface {
	Exchange(ctx context.Context, offerSDP, token string) (string, error)
}

// Player renders one materialized audio blob exactly once. done fires when
// playback finishes so the caller can release the handle.
type Player interface {
	Play(ctx context.Context, blob []byte, done func()) error
}

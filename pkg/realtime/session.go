package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/medvoice-ai/medvoice/pkg/core"
	"github.com/medvoice-ai/medvoice/pkg/core/audio"
)

const (
	defaultConnectTimeout = 15 * time.Second
	defaultChannelLabel   = "oai-events"
	defaultRecordInterval = 100 * time.Millisecond
)

// SessionConfig wires one session's collaborators.
type SessionConfig struct {
	Role        Role
	Credentials CredentialSource
	NewPeer     PeerFactory
	Exchange    SDPExchanger

	// Mic is the local audio track attached before the offer. Connect
	// refuses to start without one.
	Mic MediaTrack

	// Registry provides the one-session-per-role guard. Nil disables the
	// guard, which only tests should do.
	Registry *Registry

	// Buffer receives inbound audio chunks on interpretation sessions.
	// Nil means inbound audio is not captured.
	Buffer *audio.Buffer

	// OnStatus observes lifecycle transitions. Called outside the
	// session lock.
	OnStatus func(Role, Status)

	Logger         *slog.Logger
	ConnectTimeout time.Duration
	ChannelLabel   string
	RecordInterval time.Duration
}

// Session is one live link to the realtime provider: a peer connection plus
// its single labeled control channel. The zero status is disconnected; all
// connect failures collapse back to it with every handle released.
type Session struct {
	cfg    SessionConfig
	logger *slog.Logger

	mu         sync.Mutex
	status     Status
	peer       Peer
	channel    ControlChannel
	release    func()
	stopRecord func()
}

// NewSession validates cfg and returns a disconnected session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if !cfg.Role.Valid() {
		return nil, core.NewInvalidRequestErrorWithParam("unknown session role", "role")
	}
	if cfg.Credentials == nil {
		return nil, core.NewInvalidRequestErrorWithParam("credential source required", "credentials")
	}
	if cfg.NewPeer == nil {
		return nil, core.NewInvalidRequestErrorWithParam("peer factory required", "new_peer")
	}
	if cfg.Exchange == nil {
		return nil, core.NewInvalidRequestErrorWithParam("sdp exchanger required", "exchange")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ChannelLabel == "" {
		cfg.ChannelLabel = defaultChannelLabel
	}
	if cfg.RecordInterval <= 0 {
		cfg.RecordInterval = defaultRecordInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("role", cfg.Role)

	return &Session{
		cfg:    cfg,
		logger: logger,
		status: StatusDisconnected,
	}, nil
}

// Role returns the session's role.
func (s *Session) Role() Role {
	return s.cfg.Role
}

// Status returns the current lifecycle status.
func (s *Session) Status() Status {
	if s == nil {
		return StatusDisconnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Connect dials the provider: mint credential, build peer, attach mic, open
// the control channel, then trade SDP. The whole sequence runs under a
// bounded timeout. On any failure the session tears down completely before
// the error returns, so a retry starts from a clean disconnected state.
func (s *Session) Connect(ctx context.Context) (err error) {
	if s == nil {
		return core.NewPreconditionError("nil session")
	}
	if s.cfg.Mic == nil {
		return core.NewPreconditionError("no local audio track")
	}

	s.mu.Lock()
	if s.status != StatusDisconnected {
		st := s.status
		s.mu.Unlock()
		return core.NewPreconditionError("session is " + string(st))
	}
	release, aerr := s.cfg.Registry.acquire(s.cfg.Role, s)
	if aerr != nil {
		s.mu.Unlock()
		return aerr
	}
	s.release = release
	s.status = StatusConnecting
	s.mu.Unlock()
	s.emitStatus(StatusConnecting)

	defer func() {
		if err != nil {
			s.logger.Warn("connect failed", "error", err)
			s.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	token, err := s.cfg.Credentials.Ephemeral(ctx)
	if err != nil {
		return core.NewConnectionError("mint ephemeral credential", err)
	}

	peer, err := s.cfg.NewPeer(ctx)
	if err != nil {
		return core.NewConnectionError("create peer", err)
	}
	s.mu.Lock()
	s.peer = peer
	s.mu.Unlock()

	if err = peer.AddTrack(s.cfg.Mic); err != nil {
		return core.NewConnectionError("attach local track", err)
	}

	// Inbound capture is installed before signaling so the first remote
	// chunk cannot slip past the recorder.
	if s.cfg.Buffer != nil {
		peer.OnRemoteTrack(func(rt RemoteTrack) {
			stop := rt.Record(s.cfg.RecordInterval, s.cfg.Buffer.Append, func() {
				s.logger.Debug("remote track ended")
			})
			s.mu.Lock()
			s.stopRecord = stop
			s.mu.Unlock()
		})
	}

	ch, err := peer.OpenControlChannel(s.cfg.ChannelLabel)
	if err != nil {
		return core.NewConnectionError("open control channel", err)
	}
	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()

	offer, err := peer.CreateOffer(ctx)
	if err != nil {
		return core.NewConnectionError("create offer", err)
	}
	answer, err := s.cfg.Exchange.Exchange(ctx, offer, token)
	if err != nil {
		return core.NewConnectionError("sdp exchange", err)
	}
	if err = peer.ApplyAnswer(ctx, answer); err != nil {
		return core.NewConnectionError("apply answer", err)
	}

	s.mu.Lock()
	s.status = StatusConnected
	s.mu.Unlock()
	s.emitStatus(StatusConnected)
	s.logger.Info("session connected")
	return nil
}

// Send delivers one control event. Events are never queued: before the
// channel is open, or after teardown, delivery fails immediately.
func (s *Session) Send(v any) error {
	if s == nil {
		return core.NewPreconditionError("nil session")
	}
	s.mu.Lock()
	ch := s.channel
	st := s.status
	s.mu.Unlock()

	if st != StatusConnected || ch == nil {
		return core.NewPreconditionError("control channel not open")
	}
	return ch.Send(v)
}

// Events exposes the inbound control-channel frames. Before connect it
// returns an already-closed channel.
func (s *Session) Events() <-chan []byte {
	s.mu.Lock()
	ch := s.channel
	s.mu.Unlock()
	if ch == nil {
		done := make(chan []byte)
		close(done)
		return done
	}
	return ch.Events()
}

// DrainEvents consumes frames until the channel dies, then tears the
// session down. Interpretation sessions run this; the primary session's
// frames go to the router instead.
func (s *Session) DrainEvents() {
	for range s.Events() {
	}
	s.Close()
}

// SetMicEnabled toggles every local track, so muting reaches the provider
// as silence without renegotiation.
func (s *Session) SetMicEnabled(enabled bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	peer := s.peer
	s.mu.Unlock()
	if peer == nil {
		return
	}
	for _, t := range peer.Tracks() {
		t.SetEnabled(enabled)
	}
}

// Close force-disconnects: it synchronously nils the peer and channel
// handles, releases the role claim, and settles on disconnected. Safe to
// call repeatedly and from any state.
func (s *Session) Close() {
	if s == nil {
		return
	}

	s.mu.Lock()
	changed := s.status != StatusDisconnected
	peer := s.peer
	ch := s.channel
	stop := s.stopRecord
	release := s.release
	s.peer = nil
	s.channel = nil
	s.stopRecord = nil
	s.release = nil
	s.status = StatusDisconnected
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if ch != nil {
		_ = ch.Close()
	}
	if peer != nil {
		_ = peer.Close()
	}
	if release != nil {
		release()
	}
	if changed {
		s.emitStatus(StatusDisconnected)
		s.logger.Info("session closed")
	}
}

func (s *Session) emitStatus(st Status) {
	if s.cfg.OnStatus != nil {
		s.cfg.OnStatus(s.cfg.Role, st)
	}
}

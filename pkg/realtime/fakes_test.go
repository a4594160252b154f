package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/medvoice-ai/medvoice/pkg/core/audio"
)

// deadline polls a condition with a hard cap, for tests that wait on
// goroutines.
type deadline struct {
	t     *testing.T
	until time.Time
}

func newDeadline(t *testing.T) *deadline {
	t.Helper()
	return &deadline{t: t, until: time.Now().Add(2 * time.Second)}
}

func (d *deadline) tick() {
	d.t.Helper()
	if time.Now().After(d.until) {
		d.t.Fatal("timed out waiting for condition")
	}
	time.Sleep(5 * time.Millisecond)
}

type fakeTrack struct {
	mu      sync.Mutex
	id      string
	enabled bool
	stopped bool
}

func newFakeTrack(id string) *fakeTrack {
	return &fakeTrack{id: id, enabled: true}
}

func (t *fakeTrack) ID() string { return t.id }

func (t *fakeTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

func (t *fakeTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *fakeTrack) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// fakeRemote replays scripted chunks synchronously on Record.
type fakeRemote struct {
	fakeTrack
	chunks [][]byte
}

func (t *fakeRemote) Record(_ time.Duration, onChunk func([]byte), onEnded func()) (stop func()) {
	for _, c := range t.chunks {
		onChunk(c)
	}
	if onEnded != nil {
		onEnded()
	}
	return func() {}
}

type fakeChannel struct {
	label  string
	events chan []byte

	mu        sync.Mutex
	sent      []any
	sendErr   error
	closed    bool
	closeOnce sync.Once
	err       error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{label: "oai-events", events: make(chan []byte, 16)}
}

func (c *fakeChannel) Label() string { return c.label }

func (c *fakeChannel) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("channel closed")
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, v)
	return nil
}

func (c *fakeChannel) Sent() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.sent))
	copy(out, c.sent)
	return out
}

// sentJSON marshals every sent event for payload assertions.
func (c *fakeChannel) sentJSON() []map[string]any {
	var out []map[string]any
	for _, v := range c.Sent() {
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeChannel) Events() <-chan []byte { return c.events }

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.events) })
	return nil
}

func (c *fakeChannel) Err() error { return c.err }

type fakePeer struct {
	mu       sync.Mutex
	tracks   []MediaTrack
	channel  *fakeChannel
	remoteFn func(RemoteTrack)
	closed   bool

	addTrackErr error
	openErr     error
	offerErr    error
	answerErr   error

	gotAnswer string
}

func newFakePeer() *fakePeer {
	return &fakePeer{channel: newFakeChannel()}
}

func (p *fakePeer) AddTrack(t MediaTrack) error {
	if p.addTrackErr != nil {
		return p.addTrackErr
	}
	p.mu.Lock()
	p.tracks = append(p.tracks, t)
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) Tracks() []MediaTrack {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MediaTrack, len(p.tracks))
	copy(out, p.tracks)
	return out
}

func (p *fakePeer) OpenControlChannel(label string) (ControlChannel, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}
	p.channel.label = label
	return p.channel, nil
}

func (p *fakePeer) CreateOffer(context.Context) (string, error) {
	if p.offerErr != nil {
		return "", p.offerErr
	}
	return "v=0 offer", nil
}

func (p *fakePeer) ApplyAnswer(_ context.Context, answer string) error {
	if p.answerErr != nil {
		return p.answerErr
	}
	p.mu.Lock()
	p.gotAnswer = answer
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) OnRemoteTrack(fn func(RemoteTrack)) {
	p.mu.Lock()
	p.remoteFn = fn
	p.mu.Unlock()
}

func (p *fakePeer) deliverRemote(t RemoteTrack) {
	p.mu.Lock()
	fn := p.remoteFn
	p.mu.Unlock()
	if fn != nil {
		fn(t)
	}
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.channel.Close()
	return nil
}

type fakeCreds struct {
	token string
	err   error

	// block makes Ephemeral wait for ctx cancellation, for timeout tests.
	block bool
}

func (c *fakeCreds) Ephemeral(ctx context.Context) (string, error) {
	if c.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if c.err != nil {
		return "", c.err
	}
	return c.token, nil
}

type fakeExchange struct {
	answer string
	err    error

	mu       sync.Mutex
	gotOffer string
	gotToken string
}

func (e *fakeExchange) Exchange(_ context.Context, offerSDP, token string) (string, error) {
	e.mu.Lock()
	e.gotOffer = offerSDP
	e.gotToken = token
	e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	return e.answer, nil
}

type fakePlayer struct {
	mu     sync.Mutex
	played [][]byte
	err    error
}

func (p *fakePlayer) Play(_ context.Context, blob []byte, done func()) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.played = append(p.played, append([]byte(nil), blob...))
	p.mu.Unlock()
	if done != nil {
		done()
	}
	return nil
}

func (p *fakePlayer) Played() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.played))
	copy(out, p.played)
	return out
}

type sessionFixture struct {
	peer     *fakePeer
	creds    *fakeCreds
	exchange *fakeExchange
	mic      *fakeTrack
	registry *Registry
	buffer   *audio.Buffer
	statuses []Status
	mu       sync.Mutex
}

func newSessionFixture() *sessionFixture {
	return &sessionFixture{
		peer:     newFakePeer(),
		creds:    &fakeCreds{token: "eph_test"},
		exchange: &fakeExchange{answer: "v=0 answer"},
		mic:      newFakeTrack("mic"),
		registry: NewRegistry(),
	}
}

func (f *sessionFixture) config(role Role) SessionConfig {
	return SessionConfig{
		Role:        role,
		Credentials: f.creds,
		NewPeer: func(context.Context) (Peer, error) {
			return f.peer, nil
		},
		Exchange: f.exchange,
		Mic:      f.mic,
		Registry: f.registry,
		Buffer:   f.buffer,
		OnStatus: func(_ Role, st Status) {
			f.mu.Lock()
			f.statuses = append(f.statuses, st)
			f.mu.Unlock()
		},
	}
}

func (f *sessionFixture) session(role Role) (*Session, error) {
	return NewSession(f.config(role))
}

func (f *sessionFixture) Statuses() []Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Status, len(f.statuses))
	copy(out, f.statuses)
	return out
}

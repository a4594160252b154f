package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/medvoice-ai/medvoice/pkg/core"
	"github.com/medvoice-ai/medvoice/pkg/core/audio"
	"github.com/medvoice-ai/medvoice/pkg/core/language"
	"github.com/medvoice-ai/medvoice/pkg/realtime/protocol"
)

// InterpreterConfig wires the parallel interpretation pair.
type InterpreterConfig struct {
	Languages *language.State
	Player    Player
	Logger    *slog.Logger

	// NewLeg builds one interpretation session whose inbound audio lands
	// in buf. Called once per role at construction.
	NewLeg func(role Role, buf *audio.Buffer) (*Session, error)
}

// Interpreter owns the doctor-to-patient and patient-to-doctor sessions and
// their capture buffers. Both legs start and stop as a pair behind a single
// flag; routing picks one buffer per decided utterance and always clears
// both afterwards.
type Interpreter struct {
	languages *language.State
	player    Player
	logger    *slog.Logger

	d2p    *Session
	p2d    *Session
	d2pBuf *audio.Buffer
	p2dBuf *audio.Buffer

	mu      sync.Mutex
	enabled bool
}

// NewInterpreter validates cfg and builds both legs disconnected.
func NewInterpreter(cfg InterpreterConfig) (*Interpreter, error) {
	if cfg.Languages == nil {
		return nil, core.NewInvalidRequestErrorWithParam("language state required", "languages")
	}
	if cfg.Player == nil {
		return nil, core.NewInvalidRequestErrorWithParam("player required", "player")
	}
	if cfg.NewLeg == nil {
		return nil, core.NewInvalidRequestErrorWithParam("leg factory required", "new_leg")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d2pBuf := audio.NewBuffer()
	p2dBuf := audio.NewBuffer()
	d2p, err := cfg.NewLeg(RoleDoctorToPatient, d2pBuf)
	if err != nil {
		return nil, err
	}
	p2d, err := cfg.NewLeg(RolePatientToDoctor, p2dBuf)
	if err != nil {
		return nil, err
	}

	return &Interpreter{
		languages: cfg.Languages,
		player:    cfg.Player,
		logger:    logger,
		d2p:       d2p,
		p2d:       p2d,
		d2pBuf:    d2pBuf,
		p2dBuf:    p2dBuf,
	}, nil
}

// Enabled reports whether the pair is live.
func (ip *Interpreter) Enabled() bool {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.enabled
}

// Buffer returns the capture buffer for an interpretation role, nil for any
// other role.
func (ip *Interpreter) Buffer(role Role) *audio.Buffer {
	switch role {
	case RoleDoctorToPatient:
		return ip.d2pBuf
	case RolePatientToDoctor:
		return ip.p2dBuf
	}
	return nil
}

// SetParallelConnection flips the pair. Enabling requires both encounter
// languages and starts the legs concurrently; one leg failing to connect
// does not roll back the other, but a startup panic tears both down so the
// pair is never half-open. Disabling is unconditional and idempotent.
func (ip *Interpreter) SetParallelConnection(ctx context.Context, on bool) error {
	if !on {
		ip.teardown()
		return nil
	}

	ip.mu.Lock()
	if ip.enabled {
		ip.mu.Unlock()
		return nil
	}
	ip.mu.Unlock()

	if !ip.languages.ContextKnown() {
		return core.NewPreconditionError("encounter languages not set")
	}
	return ip.startPair(ctx)
}

func (ip *Interpreter) startPair(ctx context.Context) error {
	doctor, patient := ip.languages.Context()

	type legResult struct {
		err      error
		panicked any
	}
	results := make([]legResult, 2)
	legs := []struct {
		session  *Session
		from, to language.Language
	}{
		{ip.d2p, doctor, patient},
		{ip.p2d, patient, doctor},
	}

	var wg sync.WaitGroup
	for i := range legs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i].panicked = r
				}
			}()
			leg := legs[i]
			if err := leg.session.Connect(ctx); err != nil {
				results[i].err = err
				return
			}
			if err := leg.session.Send(legSessionUpdate(leg.from, leg.to)); err != nil {
				ip.logger.Warn("leg configuration failed",
					"role", leg.session.Role(), "error", err)
			}
			go leg.session.DrainEvents()
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if r.panicked != nil {
			ip.teardown()
			return core.NewConnectionError(
				fmt.Sprintf("interpretation startup panic: %v", r.panicked), nil)
		}
	}

	errs := errors.Join(results[0].err, results[1].err)
	if results[0].err != nil && results[1].err != nil {
		ip.teardown()
		return core.NewConnectionError("both interpretation legs failed", errs)
	}
	if errs != nil {
		ip.logger.Warn("interpretation leg failed, pair continues", "error", errs)
	}

	ip.mu.Lock()
	ip.enabled = true
	ip.mu.Unlock()
	ip.logger.Info("parallel interpretation started", "doctor", doctor, "patient", patient)
	return nil
}

func (ip *Interpreter) teardown() {
	ip.mu.Lock()
	ip.enabled = false
	ip.mu.Unlock()

	ip.d2p.Close()
	ip.p2d.Close()
	ip.d2pBuf.Clear()
	ip.p2dBuf.Clear()
}

// Route plays back the interpretation captured for one decided utterance.
// Preconditions are checked in order: a concrete spoken language, both
// encounter languages set, and the pair enabled; any miss is a logged no-op
// that touches no buffer. When preconditions hold, the spoken language is
// matched against the doctor first, then the patient. A match plays that
// leg's buffer once; either way both buffers are cleared before the next
// utterance accumulates.
func (ip *Interpreter) Route(ctx context.Context, spoken language.Language) {
	if !spoken.Known() {
		ip.logger.Debug("route skipped, spoken language unknown")
		return
	}
	if !ip.languages.ContextKnown() {
		ip.logger.Debug("route skipped, encounter languages not set")
		return
	}
	if !ip.Enabled() {
		ip.logger.Debug("route skipped, parallel connection off")
		return
	}

	doctor, patient := ip.languages.Context()
	var buf *audio.Buffer
	switch {
	case spoken.Equal(doctor):
		buf = ip.d2pBuf
	case spoken.Equal(patient):
		buf = ip.p2dBuf
	}

	if buf == nil {
		ip.logger.Warn("spoken language matches neither participant",
			"spoken", spoken, "doctor", doctor, "patient", patient)
		ip.clearBuffers()
		return
	}

	blob := buf.Bytes()
	if len(blob) == 0 {
		ip.clearBuffers()
		return
	}
	if err := ip.player.Play(ctx, blob, ip.clearBuffers); err != nil {
		ip.logger.Warn("interpretation playback failed", "error", err)
		ip.clearBuffers()
	}
}

func (ip *Interpreter) clearBuffers() {
	ip.d2pBuf.Clear()
	ip.p2dBuf.Clear()
}

func legSessionUpdate(from, to language.Language) protocol.SessionUpdate {
	instructions := fmt.Sprintf(
		"You are a live medical interpreter in a clinic encounter. "+
			"Listen to speech in %s and render it faithfully in %s. "+
			"Translate exactly what was said, keep medical terms precise, "+
			"and add no commentary of your own.", from, to)

	return protocol.NewSessionUpdate(protocol.SessionConfig{
		Modalities:         []string{"audio", "text"},
		Instructions:       instructions,
		Voice:              "sage",
		InputAudioFormat:   "pcm16",
		OutputAudioFormat:  "pcm16",
		InputTranscription: &protocol.Transcription{Model: "whisper-1"},
		TurnDetection:      protocol.ServerVAD(),
	})
}

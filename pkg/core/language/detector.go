package language

import (
	"log/slog"
	"sync"
)

// MinConfidence is the floor a detection report must meet before it can
// decide the utterance.
const MinConfidence = 0.90

// Phase is the per-utterance detection state.
type Phase string

const (
	// PhaseAwaiting means no confident detection has landed for the
	// current utterance yet.
	PhaseAwaiting Phase = "awaiting"
	// PhaseDecided means the utterance's spoken language is latched until
	// the next speech start.
	PhaseDecided Phase = "decided"
)

// Detector latches at most one spoken-language decision per utterance. The
// assistant may report detections repeatedly while a speaker talks; only the
// first confident report wins, and the latch resets when the next utterance
// begins.
type Detector struct {
	mu     sync.Mutex
	phase  Phase
	state  *State
	logger *slog.Logger

	// onDecided fires once per utterance with the latched language.
	onDecided func(Language)
}

// NewDetector wires a detector over the shared state. onDecided may be nil.
func NewDetector(state *State, logger *slog.Logger, onDecided func(Language)) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		phase:     PhaseAwaiting,
		state:     state,
		logger:    logger,
		onDecided: onDecided,
	}
}

// Phase returns the current per-utterance phase.
func (d *Detector) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// SpeechStarted resets the latch for a new utterance and clears the spoken
// language back to the sentinel.
func (d *Detector) SpeechStarted() {
	d.mu.Lock()
	d.phase = PhaseAwaiting
	d.mu.Unlock()
	d.state.setSpoken(Unknown, 0)
}

// Observe applies one detection report. Reports after the utterance is
// decided are dropped. Low-confidence reports are dropped without consuming
// the latch, so a later confident report on the same utterance can still
// land. Unknown is never accepted as a decision.
func (d *Detector) Observe(lang Language, confidence float64) {
	d.mu.Lock()
	if d.phase == PhaseDecided {
		d.mu.Unlock()
		d.logger.Debug("language detection ignored, utterance already decided",
			"language", lang, "confidence", confidence)
		return
	}
	if !lang.Known() {
		d.mu.Unlock()
		d.logger.Debug("language detection ignored, unrecognized language",
			"confidence", confidence)
		return
	}
	if confidence < MinConfidence {
		d.mu.Unlock()
		d.logger.Debug("language detection below confidence floor",
			"language", lang, "confidence", confidence, "floor", MinConfidence)
		return
	}
	d.phase = PhaseDecided
	d.mu.Unlock()

	d.state.setSpoken(lang, confidence)
	d.logger.Info("spoken language decided", "language", lang, "confidence", confidence)
	if d.onDecided != nil {
		d.onDecided(lang)
	}
}

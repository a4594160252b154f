package language

import "sync"

// State is the shared language context for one encounter: which language the
// doctor speaks, which the patient speaks, and what was last detected on the
// live utterance. The detector is the only writer of the spoken fields; the
// interpreter only reads.
type State struct {
	mu         sync.Mutex
	doctor     Language
	patient    Language
	spoken     Language
	confidence float64
}

// NewState returns a State with every language unset.
func NewState() *State {
	return &State{
		doctor:  Unknown,
		patient: Unknown,
		spoken:  Unknown,
	}
}

// SetContext records the doctor and patient languages for the encounter.
func (s *State) SetContext(doctor, patient Language) {
	s.mu.Lock()
	s.doctor = doctor
	s.patient = patient
	s.mu.Unlock()
}

// Context returns the configured doctor and patient languages.
func (s *State) Context() (doctor, patient Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doctor, s.patient
}

// ContextKnown reports whether both encounter languages have been set.
func (s *State) ContextKnown() bool {
	doctor, patient := s.Context()
	return doctor.Known() && patient.Known()
}

// Spoken returns the last detected spoken language and its confidence.
func (s *State) Spoken() (Language, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spoken, s.confidence
}

func (s *State) setSpoken(l Language, confidence float64) {
	s.mu.Lock()
	s.spoken = l
	s.confidence = confidence
	s.mu.Unlock()
}

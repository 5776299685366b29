package dashboard

import (
	"sync"

	"analyzeit.org/internal/predict"
)

// PredictionPhase is the lifecycle of one forecast request.
type PredictionPhase int

const (
	PhaseIdle PredictionPhase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p PredictionPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// PredictionState is the observable state of the prediction panel.
type PredictionState struct {
	Phase    PredictionPhase
	Document *predict.Document
	Err      error
}

// PredictionTracker serializes the prediction lifecycle. Each Begin bumps a
// generation counter; completions carrying a stale generation are discarded,
// so a slow earlier response can never overwrite a newer request's outcome.
type PredictionTracker struct {
	mu         sync.Mutex
	state      PredictionState
	generation uint64
}

// NewPredictionTracker starts in the idle phase.
func NewPredictionTracker() *PredictionTracker {
	return &PredictionTracker{state: PredictionState{Phase: PhaseIdle}}
}

// State returns the current observable state.
func (t *PredictionTracker) State() PredictionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Begin transitions to loading and returns the generation the caller must
// hand back on completion.
func (t *PredictionTracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.state = PredictionState{Phase: PhaseLoading}
	return t.generation
}

// Succeed records a successful document for the given generation. It reports
// false when the result was stale and discarded.
func (t *PredictionTracker) Succeed(generation uint64, doc *predict.Document) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if generation != t.generation {
		return false
	}
	t.state = PredictionState{Phase: PhaseSuccess, Document: doc}
	return true
}

// Fail records a failure for the given generation, discarding stale ones.
func (t *PredictionTracker) Fail(generation uint64, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if generation != t.generation {
		return false
	}
	t.state = PredictionState{Phase: PhaseError, Err: err}
	return true
}

// Reset returns to idle, invalidating any in-flight generation.
func (t *PredictionTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.state = PredictionState{Phase: PhaseIdle}
}

package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	StatusRunning       = "running"
	StatusCompleted     = "completed"
	StatusTestsFailing  = "tests_failing"
	StatusCompileFailed = "compile_failed"
	StatusInterrupted   = "interrupted"
)

// Pipeline phases in execution order.
const (
	PhaseDevelop      = "develop"
	PhaseTroubleshoot = "troubleshoot"
	PhaseTestFix      = "testfix"
	PhaseDone         = "done"
)

// State is the persisted snapshot of one generation run.
type State struct {
	RunID          string         `json:"run_id"`
	Module         string         `json:"module"`
	Description    string         `json:"description"`
	Phase          string         `json:"phase"`
	Status         string         `json:"status"`
	Attempts       map[string]int `json:"attempts"`
	Migration      string         `json:"migration,omitempty"`
	Missing        []string       `json:"missing,omitempty"`
	GeneratedFiles []string       `json:"generated_files,omitempty"`
	InputTokens    int            `json:"input_tokens"`
	OutputTokens   int            `json:"output_tokens"`
	StartedAt      time.Time      `json:"started_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// New returns a fresh running state positioned at the develop phase.
func New(runID, module, description string) *State {
	return &State{
		RunID:       runID,
		Module:      module,
		Description: description,
		Phase:       PhaseDevelop,
		Status:      StatusRunning,
		Attempts:    make(map[string]int),
		StartedAt:   time.Now().UTC(),
	}
}

func statePath(artifactsDir string) string {
	return filepath.Join(artifactsDir, "state.json")
}

// Load reads the state from the artifacts directory. Returns nil, nil when no
// run has been recorded there yet.
func Load(artifactsDir string) (*State, error) {
	data, err := os.ReadFile(statePath(artifactsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Attempts == nil {
		s.Attempts = make(map[string]int)
	}
	return &s, nil
}

// Save writes the state to the artifacts directory.
func (s *State) Save(artifactsDir string) error {
	s.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(statePath(artifactsDir), data, 0644)
}

// Enter moves the run into phase and resets nothing else; attempts are
// tracked per phase name.
func (s *State) Enter(phase string) {
	s.Phase = phase
}

// Finished reports whether the run reached a terminal status.
func (s *State) Finished() bool {
	return s.Status != StatusRunning
}

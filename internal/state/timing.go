package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimingEntry records one phase or round.
type TimingEntry struct {
	Phase    string    `json:"phase"`
	Attempt  int       `json:"attempt,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end,omitempty"`
	Duration string    `json:"duration,omitempty"`
}

type Timing struct {
	mu      sync.Mutex
	Entries []TimingEntry `json:"entries"`
}

func timingPath(artifactsDir string) string {
	return filepath.Join(artifactsDir, "timing.json")
}

// LoadTiming reads timing data from the artifacts directory.
func LoadTiming(artifactsDir string) (*Timing, error) {
	data, err := os.ReadFile(timingPath(artifactsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Timing{}, nil
		}
		return nil, err
	}
	var t Timing
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// AddStart appends a new timing entry for the given phase round.
func (t *Timing) AddStart(phase string, attempt int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Entries = append(t.Entries, TimingEntry{
		Phase:   phase,
		Attempt: attempt,
		Start:   time.Now(),
	})
}

// AddEnd closes the most recent open entry for phase.
func (t *Timing) AddEnd(phase string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.Entries) - 1; i >= 0; i-- {
		if t.Entries[i].Phase == phase && t.Entries[i].End.IsZero() {
			t.Entries[i].End = time.Now()
			t.Entries[i].Duration = FormatDuration(t.Entries[i].End.Sub(t.Entries[i].Start))
			break
		}
	}
}

// Total sums the durations of the closed entries for phase.
func (t *Timing) Total(phase string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var d time.Duration
	for _, e := range t.Entries {
		if e.Phase == phase && !e.End.IsZero() {
			d += e.End.Sub(e.Start)
		}
	}
	return d
}

// Flush writes the in-memory timing data to disk.
func (t *Timing) Flush(artifactsDir string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(timingPath(artifactsDir), data, 0644)
}

// FormatDuration renders d as "1m 05s".
func FormatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", m, s)
}

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/domevents/internal/trace"
)

// DefaultDataDir is where snapshots live unless configured otherwise.
const DefaultDataDir = "~/.local/share/domevents"

// Storage handles persistence of trace snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

// getSnapshotPath returns the path to the snapshot file of a scenario
func (s *Storage) getSnapshotPath(scenario string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("trace_%s.json", fileSafe(scenario)))
}

// fileSafe keeps letters, digits, dash and underscore.
func fileSafe(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" {
		return "default"
	}
	return name
}

// LoadSnapshot loads the snapshot of a scenario. A missing file yields an
// empty snapshot.
func (s *Storage) LoadSnapshot(scenario string) (*trace.Snapshot, error) {
	path := s.getSnapshotPath(scenario)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return trace.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot trace.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Records == nil {
		snapshot.Records = make(map[string]*trace.Record)
	}

	return &snapshot, nil
}

// SaveSnapshot saves the snapshot of a scenario
func (s *Storage) SaveSnapshot(snapshot *trace.Snapshot, scenario string) error {
	path := s.getSnapshotPath(scenario)

	snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// SaveTrace creates and saves a snapshot from a trace
func (s *Storage) SaveTrace(t *trace.Trace) error {
	snapshot := trace.CreateSnapshot(t, time.Now().UTC().Format(time.RFC3339))
	return s.SaveSnapshot(snapshot, t.Scenario)
}

// GetRecordByID retrieves a record by ID from a scenario snapshot
func (s *Storage) GetRecordByID(scenario, recordID string) (*trace.Record, error) {
	snapshot, err := s.LoadSnapshot(scenario)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	if rec, exists := snapshot.Records[recordID]; exists {
		return rec, nil
	}

	return nil, fmt.Errorf("record not found: %s", recordID)
}

// Scenarios lists the scenario names that have a stored snapshot, sorted.
func (s *Storage) Scenarios() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dataDir, "trace_*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(base, "trace_"), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

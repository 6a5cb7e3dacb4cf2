package trace

import (
	"sort"
)

// Snapshot is a stored trace.
type Snapshot struct {
	RunID     string             `json:"run_id"`
	Scenario  string             `json:"scenario"`
	Records   map[string]*Record `json:"records"` // keyed by Record.ID
	UpdatedAt string             `json:"updated_at"`
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Records: make(map[string]*Record),
	}
}

// Recorded reports whether the snapshot came from a saved run.
func (s *Snapshot) Recorded() bool {
	return s != nil && s.UpdatedAt != ""
}

// Ordered returns the records sorted by sequence number.
func (s *Snapshot) Ordered() []*Record {
	out := make([]*Record, 0, len(s.Records))
	for _, r := range s.Records {
		out = append(out, r)
	}
	sortRecords(out)
	return out
}

// CreateSnapshot creates a snapshot from a trace.
func CreateSnapshot(t *Trace, updatedAt string) *Snapshot {
	snap := NewSnapshot()
	snap.RunID = t.RunID
	snap.Scenario = t.Scenario
	snap.UpdatedAt = updatedAt
	for _, r := range t.Records {
		snap.Records[r.ID] = r
	}
	return snap
}

// DiffResult holds the records that appeared or disappeared between two
// snapshots.
type DiffResult struct {
	Added   []*Record
	Removed []*Record
}

// Changed reports whether the snapshots differ.
func (d *DiffResult) Changed() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// Diff compares current against previous. A nil previous counts as empty.
func Diff(previous, current *Snapshot) *DiffResult {
	result := &DiffResult{
		Added:   make([]*Record, 0),
		Removed: make([]*Record, 0),
	}
	if previous == nil {
		previous = NewSnapshot()
	}
	if current == nil {
		current = NewSnapshot()
	}

	for id, r := range current.Records {
		if _, exists := previous.Records[id]; !exists {
			result.Added = append(result.Added, r)
		}
	}
	for id, r := range previous.Records {
		if _, exists := current.Records[id]; !exists {
			result.Removed = append(result.Removed, r)
		}
	}

	sortRecords(result.Added)
	sortRecords(result.Removed)
	return result
}

func sortRecords(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Seq != records[j].Seq {
			return records[i].Seq < records[j].Seq
		}
		return records[i].ID < records[j].ID
	})
}

package trace

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Record is one handler invocation.
type Record struct {
	ID      string `json:"id"`
	Seq     int    `json:"seq"`
	Step    string `json:"step"`
	Handler string `json:"handler"`
	Type    string `json:"type"`
	This    string `json:"this"`
	Target  string `json:"target"`
	Error   string `json:"error,omitempty"`
}

// String renders the record on one line.
func (r *Record) String() string {
	s := fmt.Sprintf("%s: %s %s this=%s target=%s", r.Step, r.Handler, r.Type, r.This, r.Target)
	if r.Error != "" {
		s += " error=" + r.Error
	}
	return s
}

// GenerateID creates a deterministic ID for a record. position is the
// record's index within its step, so the same invocations in another order
// produce other IDs.
func GenerateID(r *Record, position int) string {
	h := sha1.New()
	h.Write([]byte(strings.Join([]string{
		r.Step, fmt.Sprint(position),
		r.Handler, r.Type, r.This, r.Target, r.Error,
	}, "|")))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Trace collects records in invocation order.
type Trace struct {
	RunID    string
	Scenario string
	Records  []*Record

	perStep map[string]int
}

// New starts an empty trace for the named scenario.
func New(scenario string) *Trace {
	return &Trace{
		RunID:    uuid.NewString(),
		Scenario: scenario,
		perStep:  make(map[string]int),
	}
}

// Add appends a record, filling in its ID and sequence number.
func (t *Trace) Add(r Record) *Record {
	if t.perStep == nil {
		t.perStep = make(map[string]int)
	}
	rec := r
	rec.ID = GenerateID(&rec, t.perStep[rec.Step])
	t.perStep[rec.Step]++
	rec.Seq = len(t.Records) + 1
	t.Records = append(t.Records, &rec)
	return &rec
}

// Len returns the number of records.
func (t *Trace) Len() int {
	return len(t.Records)
}

// Failures returns the records of handlers that failed.
func (t *Trace) Failures() []*Record {
	var out []*Record
	for _, r := range t.Records {
		if r.Error != "" {
			out = append(out, r)
		}
	}
	return out
}

// ByStep groups records by step name.
func (t *Trace) ByStep() map[string][]*Record {
	out := make(map[string][]*Record)
	for _, r := range t.Records {
		out[r.Step] = append(out[r.Step], r)
	}
	return out
}

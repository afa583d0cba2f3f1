// Package trace records one structured entry per attempted plan step.
package trace

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Entry kinds
const (
	KindStep    = "step"
	KindFailure = "failure"
)

// Entry is one trace record. Entries are never mutated after they are written.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Agent     string
	Kind      string
	Step      int
	Tool      string
	Args      []any
	Result    any
	Error     string
	Reasoning string
}

// Failed reports whether the entry records an error
func (e Entry) Failed() bool {
	return e.Error != ""
}

// MarshalJSON renders result only on success and error only on failure
func (e Entry) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339Nano),
		"kind":      e.Kind,
		"step":      e.Step,
		"tool":      e.Tool,
		"args":      e.Args,
	}
	if e.Args == nil {
		out["args"] = []any{}
	}
	if e.RunID != "" {
		out["run_id"] = e.RunID
	}
	if e.Agent != "" {
		out["agent"] = e.Agent
	}
	if e.Reasoning != "" {
		out["reasoning"] = e.Reasoning
	}
	if e.Failed() {
		out["error"] = e.Error
	} else {
		out["result"] = e.Result
	}
	return json.Marshal(out)
}

// Sink receives trace entries
type Sink interface {
	Write(ctx context.Context, entry Entry) error
	Close() error
}

// NewRunID returns a fresh identifier for one request cycle
func NewRunID() string {
	return uuid.NewString()
}

type multi []Sink

// Multi writes every entry to all sinks. Errors are joined; one failing sink
// does not stop the others.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Write(ctx context.Context, entry Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every entry
var Discard Sink = discard{}

type discard struct{}

func (discard) Write(context.Context, Entry) error { return nil }

func (discard) Close() error { return nil }

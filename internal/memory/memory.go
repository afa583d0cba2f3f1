// Package memory holds the per-session conversation memory: an append-only
// log of (question, answer) pairs that plans can query through the reserved
// "memory" tool and that the router feeds back into routing prompts.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Record is one completed request
type Record struct {
	Question string `json:"question" msgpack:"question"`
	Answer   any    `json:"answer" msgpack:"answer"`
}

// Store persists records for a session. Implementations only ever append
// and own the ordering of what they persist: a record whose append failed
// leaves no gap that a later append could land in.
type Store interface {
	Load(ctx context.Context, session string) ([]Record, error)
	Append(ctx context.Context, session string, rec Record) error
	Close() error
}

// Log is the memory of one session. Records are never reordered or removed.
type Log struct {
	mu      sync.RWMutex
	records []Record
	store   Store
	session string
}

// NewLog creates an empty, unpersisted log
func NewLog() *Log {
	return &Log{}
}

// Open loads a session's records from store and keeps appending to it
func Open(ctx context.Context, store Store, session string) (*Log, error) {
	records, err := store.Load(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("load memory for session %s: %w", session, err)
	}
	return &Log{
		records: records,
		store:   store,
		session: session,
	}, nil
}

// Append adds a record. When a store is attached the record is persisted
// first; a store failure still leaves the record in memory and is reported.
func (l *Log) Append(ctx context.Context, question string, answer any) error {
	rec := Record{Question: question, Answer: answer}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)

	if l.store != nil {
		if err := l.store.Append(ctx, l.session, rec); err != nil {
			return fmt.Errorf("persist memory record %d: %w", len(l.records)-1, err)
		}
	}
	return nil
}

// Records returns a copy of all records, oldest first
func (l *Log) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Recent returns up to n of the newest records, oldest first
func (l *Log) Recent(n int) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	start := max(len(l.records)-n, 0)
	out := make([]Record, len(l.records)-start)
	copy(out, l.records[start:])
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Session returns the session the log persists under, empty when unpersisted
func (l *Log) Session() string {
	return l.session
}

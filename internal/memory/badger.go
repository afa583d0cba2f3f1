package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// seqBandwidth is how many sequence numbers badger leases at a time.
// Unused leased numbers are skipped after a restart, which only leaves
// gaps between keys.
const seqBandwidth = 64

// BadgerStore persists memory records in BadgerDB, msgpack-encoded, under
// "memory:<session>:<seq>" keys. Sequence numbers come from a per-session
// badger.Sequence and are zero-padded so that lexicographic iteration is
// append order.
type BadgerStore struct {
	db *badger.DB

	mu   sync.Mutex
	seqs map[string]*badger.Sequence
}

// BadgerOptions configures the BadgerDB store
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence (tests)
	InMemory bool
}

// NewBadgerStore opens a BadgerDB-backed Store
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("memory: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, seqs: make(map[string]*badger.Sequence)}, nil
}

func checkSession(session string) error {
	if strings.Contains(session, ":") {
		return fmt.Errorf("memory: session %q must not contain ':'", session)
	}
	return nil
}

func sessionPrefix(session string) []byte {
	return []byte("memory:" + session + ":")
}

func recordKey(session string, seq uint64) []byte {
	return fmt.Appendf(sessionPrefix(session), "%020d", seq)
}

func (s *BadgerStore) Load(_ context.Context, session string) ([]Record, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	prefix := sessionPrefix(session)

	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			rec, err := decodeRecord(val)
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// decodeRecord reads answers back as int64/float64 whatever width msgpack
// chose for them on write
func decodeRecord(data []byte) (Record, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var rec Record
	err := dec.Decode(&rec)
	return rec, err
}

func (s *BadgerStore) Append(_ context.Context, session string, rec Record) error {
	if err := checkSession(session); err != nil {
		return err
	}
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return err
	}
	seq, err := s.nextSeq(session)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(session, seq), data)
	})
}

func (s *BadgerStore) nextSeq(session string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.seqs[session]
	if !ok {
		var err error
		seq, err = s.db.GetSequence([]byte("memseq:"+session), seqBandwidth)
		if err != nil {
			return 0, fmt.Errorf("memory sequence for %s: %w", session, err)
		}
		s.seqs[session] = seq
	}
	return seq.Next()
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	var errs []error
	for _, seq := range s.seqs {
		if err := seq.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	s.seqs = nil
	s.mu.Unlock()

	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

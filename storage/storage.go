// Package storage persists the protocol state as CBOR artifacts in a
// prefixed key-value store. Three keyed stores are kept:
//   - 'c/' coordinators, keyed by address
//   - 'p/' polls, keyed by big-endian poll id
//   - 'm/' metadata (the monotonic poll id counter)
//
// Every mutating operation of the engine is committed through a single write
// transaction, so a failed call never leaves partially-mutated state.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	coordinatorPrefix = []byte("c/")
	pollPrefix        = []byte("p/")
	metadataPrefix    = []byte("m/")

	pollCountKey = []byte("pollCount")

	// ErrNotFound is returned when the requested artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
)

// Storage wraps the key-value database holding all protocol state.
type Storage struct {
	db db.Database
}

// New creates a new Storage instance backed by the given database.
func New(database db.Database) *Storage {
	return &Storage{db: database}
}

// Close closes the underlying database.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		panic(err)
	}
}

// WriteTx opens a write transaction scoped to the whole storage. The caller
// must either Commit or Discard it.
func (s *Storage) WriteTx() db.WriteTx {
	return s.db.WriteTx()
}

// Coordinator loads a coordinator record. Returns ErrNotFound if the address
// was never registered.
func (s *Storage) Coordinator(address common.Address) (*Coordinator, error) {
	c := &Coordinator{}
	if err := s.getArtifact(coordinatorPrefix, address.Bytes(), c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetCoordinatorTx stores a coordinator record within the given transaction.
func (s *Storage) SetCoordinatorTx(wtx db.WriteTx, c *Coordinator) error {
	if c == nil {
		return fmt.Errorf("nil coordinator")
	}
	return s.setArtifactTx(wtx, coordinatorPrefix, c.Address.Bytes(), c)
}

// Poll loads a poll by id. Returns ErrNotFound if it does not exist.
func (s *Storage) Poll(id uint64) (*Poll, error) {
	p := &Poll{}
	if err := s.getArtifact(pollPrefix, pollKey(id), p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPollTx stores a poll within the given transaction.
func (s *Storage) SetPollTx(wtx db.WriteTx, p *Poll) error {
	if p == nil {
		return fmt.Errorf("nil poll")
	}
	return s.setArtifactTx(wtx, pollPrefix, pollKey(p.ID), p)
}

// PollCount returns the number of polls created so far; poll ids are assigned
// from this monotonically increasing counter.
func (s *Storage) PollCount() (uint64, error) {
	rtx := prefixeddb.NewPrefixedReader(s.db, metadataPrefix)
	data, err := rtx.Get(pollCountKey)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

// SetPollCountTx stores the poll id counter within the given transaction.
func (s *Storage) SetPollCountTx(wtx db.WriteTx, count uint64) error {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, count)
	return prefixeddb.NewPrefixedWriteTx(wtx, metadataPrefix).Set(pollCountKey, data)
}

// ListPollIDs returns the ids of all stored polls in ascending order.
func (s *Storage) ListPollIDs() ([]uint64, error) {
	var ids []uint64
	pdb := prefixeddb.NewPrefixedDatabase(s.db, pollPrefix)
	err := pdb.Iterate(nil, func(k, _ []byte) bool {
		if len(k) == 8 {
			ids = append(ids, binary.BigEndian.Uint64(k))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func pollKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	rtx := prefixeddb.NewPrefixedReader(s.db, prefix)
	data, err := rtx.Get(key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return decodeArtifact(data, out)
}

func (s *Storage) setArtifactTx(wtx db.WriteTx, prefix, key []byte, artifact any) error {
	data, err := encodeArtifact(artifact)
	if err != nil {
		return err
	}
	return prefixeddb.NewPrefixedWriteTx(wtx, prefix).Set(key, data)
}

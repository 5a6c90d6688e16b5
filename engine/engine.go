// Package engine implements the poll lifecycle: coordinator registry, poll
// creation and time-windowed participation, state merging and the batched
// outcome commitment protocol. Every operation is a synchronous all-or-nothing
// state transition; effects are written to storage in a single transaction and
// events are emitted only after the transaction has committed.
package engine

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/infimum-dao/infimum-node/crypto/hash/poseidon"
	"github.com/infimum-dao/infimum-node/crypto/zk"
	"github.com/infimum-dao/infimum-node/log"
	"github.com/infimum-dao/infimum-node/storage"
	"github.com/infimum-dao/infimum-node/tree"
	"github.com/infimum-dao/infimum-node/types"
	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
)

// TimeSource reports the current block height of the hosting ledger. All time
// windows are evaluated against it at the instant of each call.
type TimeSource interface {
	Now() uint64
}

// Config carries the per-deployment protocol bounds.
type Config struct {
	MaxCoordinatorPolls uint64
	MaxVoteOptions      int
	MaxTreeDepth        uint8
	MaxBatchDepth       uint8
}

// DefaultConfig returns the bounds used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxCoordinatorPolls: 16,
		MaxVoteOptions:      32,
		MaxTreeDepth:        32,
		MaxBatchDepth:       8,
	}
}

// Engine executes protocol operations against persistent storage. It performs
// no internal locking; calls are expected to be serialized by the caller, in
// the manner of a ledger's single-writer execution model.
type Engine struct {
	cfg      Config
	store    *storage.Storage
	clock    TimeSource
	verifier zk.Verifier
	hash     arbo.HashFunction
	notifier Notifier
}

// New creates an engine over the given storage. The notifier may be nil, in
// which case events are only logged.
func New(cfg Config, store *storage.Storage, clock TimeSource, verifier zk.Verifier, notifier Notifier) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		clock:    clock,
		verifier: verifier,
		hash:     poseidon.HashFunc,
		notifier: notifier,
	}
}

func (e *Engine) notify(ev Event) {
	log.Debugw("event emitted", "event", ev.Name())
	if e.notifier != nil {
		e.notifier.HandleEvent(ev)
	}
}

// Coordinator returns the stored coordinator record for the address.
func (e *Engine) Coordinator(address common.Address) (*storage.Coordinator, error) {
	c, err := e.store.Coordinator(address)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrCoordinatorNotRegistered
	}
	return c, err
}

// Poll returns the stored poll with its accumulators rebound to the engine
// hash function.
func (e *Engine) Poll(pollID uint64) (*storage.Poll, error) {
	p, err := e.store.Poll(pollID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPollDoesNotExist
	}
	if err != nil {
		return nil, err
	}
	p.RegistrationTree.Hydrate(e.hash)
	p.InteractionTree.Hydrate(e.hash)
	return p, nil
}

// ListPollIDs returns the ids of all polls in creation order.
func (e *Engine) ListPollIDs() ([]uint64, error) {
	return e.store.ListPollIDs()
}

// RegisterCoordinator creates a coordinator record for the address with its
// communication key and the verifying keys of its two circuits.
func (e *Engine) RegisterCoordinator(address common.Address, pk types.PublicKey, keys types.VerifyingKeys) error {
	if !pk.Valid() || !keys.Valid() {
		return ErrMalformedKeys
	}
	_, err := e.store.Coordinator(address)
	if err == nil {
		return ErrCoordinatorAlreadyRegistered
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	coord := &storage.Coordinator{
		Address:   address,
		PublicKey: pk,
		Keys:      keys,
	}
	if err := e.storeTx(func(wtx writeTx) error {
		return e.store.SetCoordinatorTx(wtx, coord)
	}); err != nil {
		return err
	}
	log.Infow("coordinator registered", "address", address.Hex())
	e.notify(CoordinatorRegistered{Address: address})
	return nil
}

// RotateKeys atomically replaces a coordinator's communication and verifying
// keys. It fails while any of its polls is still in a non-terminal state,
// since proofs already committed were produced against the old keys.
func (e *Engine) RotateKeys(address common.Address, pk types.PublicKey, keys types.VerifyingKeys) error {
	if !pk.Valid() || !keys.Valid() {
		return ErrMalformedKeys
	}
	coord, err := e.Coordinator(address)
	if err != nil {
		return err
	}
	for _, id := range coord.PollIDs {
		poll, err := e.Poll(id)
		if err != nil {
			return err
		}
		if !poll.State.Terminal() {
			return ErrPollCurrentlyActive
		}
	}
	coord.PublicKey = pk
	coord.Keys = keys
	if err := e.storeTx(func(wtx writeTx) error {
		return e.store.SetCoordinatorTx(wtx, coord)
	}); err != nil {
		return err
	}
	log.Infow("coordinator keys rotated", "address", address.Hex())
	e.notify(CoordinatorKeysChanged{Address: address})
	return nil
}

// CreatePoll allocates the next poll id for the coordinator and opens the
// registration window at the current block.
func (e *Engine) CreatePoll(coordinator common.Address, cfg types.PollConfig) (uint64, error) {
	coord, err := e.Coordinator(coordinator)
	if err != nil {
		return 0, err
	}
	if err := e.validatePollConfig(cfg); err != nil {
		return 0, err
	}
	if uint64(len(coord.PollIDs)) >= e.cfg.MaxCoordinatorPolls {
		return 0, ErrCoordinatorPollLimitReached
	}
	if n := len(coord.PollIDs); n > 0 {
		last, err := e.Poll(coord.PollIDs[n-1])
		if err != nil {
			return 0, err
		}
		if !last.State.Terminal() {
			return 0, ErrPollCurrentlyActive
		}
	}
	id, err := e.store.PollCount()
	if err != nil {
		return 0, err
	}
	now := e.clock.Now()
	poll := &storage.Poll{
		ID:               id,
		Coordinator:      coordinator,
		CreatedAt:        now,
		SignupDeadline:   now + cfg.SignupPeriod,
		VotingDeadline:   now + cfg.SignupPeriod + cfg.VotingPeriod,
		Config:           cfg,
		State:            types.PollStateCreated,
		RegistrationTree: tree.New(cfg.RegistrationDepth, e.hash),
		InteractionTree:  tree.New(cfg.InteractionDepth, e.hash),
	}
	coord.PollIDs = append(coord.PollIDs, id)
	if err := e.storeTx(func(wtx writeTx) error {
		if err := e.store.SetPollTx(wtx, poll); err != nil {
			return err
		}
		if err := e.store.SetCoordinatorTx(wtx, coord); err != nil {
			return err
		}
		return e.store.SetPollCountTx(wtx, id+1)
	}); err != nil {
		return 0, err
	}
	log.Infow("poll created", "pollId", id, "coordinator", coordinator.Hex(),
		"signupDeadline", poll.SignupDeadline, "votingDeadline", poll.VotingDeadline)
	e.notify(PollCreated{
		PollID:      id,
		Coordinator: coordinator,
		StartsAt:    now,
		EndsAt:      poll.VotingDeadline,
	})
	return id, nil
}

func (e *Engine) validatePollConfig(cfg types.PollConfig) error {
	if cfg.SignupPeriod == 0 || cfg.VotingPeriod == 0 {
		return ErrPollConfigInvalid
	}
	for _, depth := range []uint8{cfg.RegistrationDepth, cfg.InteractionDepth, cfg.VoteOptionDepth} {
		if depth == 0 || depth > e.cfg.MaxTreeDepth {
			return ErrPollConfigInvalid
		}
	}
	for _, depth := range []uint8{cfg.ProcessBatchDepth, cfg.TallyBatchDepth} {
		if depth == 0 || depth > e.cfg.MaxBatchDepth {
			return ErrPollConfigInvalid
		}
	}
	if len(cfg.VoteOptions) == 0 || len(cfg.VoteOptions) > e.cfg.MaxVoteOptions {
		return ErrPollConfigInvalid
	}
	if uint64(len(cfg.VoteOptions)) > uint64(1)<<cfg.VoteOptionDepth {
		return ErrPollConfigInvalid
	}
	return nil
}

// RegisterParticipant appends a participant leaf to the poll's registration
// tree and returns its index.
func (e *Engine) RegisterParticipant(pollID uint64, pk types.PublicKey) (uint64, error) {
	if !pk.Valid() {
		return 0, ErrMalformedKeys
	}
	poll, err := e.Poll(pollID)
	if err != nil {
		return 0, err
	}
	now := e.clock.Now()
	if now >= poll.SignupDeadline {
		return 0, ErrPollRegistrationHasEnded
	}
	if poll.RegistrationTree.Full() {
		return 0, ErrParticipantRegistrationLimitReached
	}
	leaf, err := registrationLeaf(e.hash, pk, now)
	if err != nil {
		return 0, err
	}
	index, err := poll.RegistrationTree.Append(leaf)
	if err != nil {
		return 0, err
	}
	if err := e.storeTx(func(wtx writeTx) error {
		return e.store.SetPollTx(wtx, poll)
	}); err != nil {
		return 0, err
	}
	log.Debugw("participant registered", "pollId", pollID, "leafIndex", index, "block", now)
	e.notify(ParticipantRegistered{
		PollID:    pollID,
		LeafIndex: index,
		Block:     now,
		PublicKey: pk,
	})
	return index, nil
}

// InteractWithPoll appends an interaction leaf carrying the encrypted payload
// and the ephemeral key it was encrypted to. Repeated calls from the same
// logical voter are accepted as independent leaves; override semantics belong
// to the external circuit's interpretation of leaf order.
func (e *Engine) InteractWithPoll(pollID uint64, ephemeralKey types.PublicKey, data []types.HexBytes) (uint64, error) {
	if !ephemeralKey.Valid() {
		return 0, ErrMalformedKeys
	}
	if len(data) != types.InteractionDataWords {
		return 0, ErrMalformedInput
	}
	poll, err := e.Poll(pollID)
	if err != nil {
		return 0, err
	}
	now := e.clock.Now()
	if now < poll.SignupDeadline {
		return 0, ErrPollRegistrationInProgress
	}
	if now >= poll.VotingDeadline {
		return 0, ErrPollVotingHasEnded
	}
	if poll.InteractionTree.Full() {
		return 0, ErrParticipantInteractionLimitReached
	}
	leaf, err := interactionLeaf(e.hash, ephemeralKey, data)
	if err != nil {
		return 0, err
	}
	index, err := poll.InteractionTree.Append(leaf)
	if err != nil {
		return 0, err
	}
	if err := e.storeTx(func(wtx writeTx) error {
		return e.store.SetPollTx(wtx, poll)
	}); err != nil {
		return 0, err
	}
	log.Debugw("poll interaction", "pollId", pollID, "leafIndex", index, "block", now)
	e.notify(PollInteraction{
		PollID:    pollID,
		LeafIndex: index,
		PublicKey: ephemeralKey,
		Data:      data,
	})
	return index, nil
}

// MergePollState finalizes whichever of the poll's trees is not yet merged.
// Once both roots exist the poll moves to the merged state and the running
// commitments are seeded from the roots.
func (e *Engine) MergePollState(coordinator common.Address, pollID uint64) error {
	poll, err := e.ownedPoll(coordinator, pollID)
	if err != nil {
		return err
	}
	if poll.State.Terminal() {
		return ErrPollOutcomeAlreadyDetermined
	}
	if e.clock.Now() < poll.VotingDeadline {
		return ErrPollVotingInProgress
	}
	if poll.RegistrationTree.Merged() && poll.InteractionTree.Merged() {
		return tree.ErrTreeMerged
	}
	ev := PollStateMerged{PollID: pollID}
	if !poll.RegistrationTree.Merged() {
		root, err := poll.RegistrationTree.Finalize()
		if err != nil {
			return err
		}
		ev.RegistrationRoot = root
	}
	if !poll.InteractionTree.Merged() {
		root, err := poll.InteractionTree.Finalize()
		if err != nil {
			return err
		}
		ev.InteractionRoot = root
	}
	poll.State = types.PollStateMerged
	poll.ProcessCommitment = &types.Commitment{Data: types.HexBytes(poll.InteractionTree.Root)}
	poll.TallyCommitment = &types.Commitment{Data: types.HexBytes(poll.RegistrationTree.Root)}
	if err := e.storeTx(func(wtx writeTx) error {
		return e.store.SetPollTx(wtx, poll)
	}); err != nil {
		return err
	}
	log.Infow("poll state merged", "pollId", pollID,
		"registrationRoot", ev.RegistrationRoot.String(),
		"interactionRoot", ev.InteractionRoot.String())
	e.notify(ev)
	return nil
}

// NullifyPoll closes a poll that received no interactions, without a tally.
func (e *Engine) NullifyPoll(coordinator common.Address, pollID uint64) error {
	poll, err := e.ownedPoll(coordinator, pollID)
	if err != nil {
		return err
	}
	if poll.State.Terminal() {
		return ErrPollOutcomeAlreadyDetermined
	}
	if e.clock.Now() < poll.VotingDeadline {
		return ErrPollVotingInProgress
	}
	if poll.State == types.PollStateProcessing || poll.InteractionTree.Count > 0 {
		return ErrPollCurrentlyActive
	}
	poll.State = types.PollStateNullified
	if err := e.storeTx(func(wtx writeTx) error {
		return e.store.SetPollTx(wtx, poll)
	}); err != nil {
		return err
	}
	log.Infow("poll nullified", "pollId", pollID)
	e.notify(PollNullified{PollID: pollID})
	return nil
}

// ownedPoll loads a poll on behalf of its owning coordinator.
func (e *Engine) ownedPoll(coordinator common.Address, pollID uint64) (*storage.Poll, error) {
	if _, err := e.Coordinator(coordinator); err != nil {
		return nil, err
	}
	poll, err := e.Poll(pollID)
	if err != nil {
		return nil, err
	}
	if poll.Coordinator != coordinator {
		return nil, ErrPollDoesNotExist
	}
	return poll, nil
}

type writeTx = db.WriteTx

// storeTx runs fn against a fresh write transaction and commits it, so every
// operation's effects land atomically.
func (e *Engine) storeTx(fn func(wtx writeTx) error) error {
	wtx := e.store.WriteTx()
	defer wtx.Discard()
	if err := fn(wtx); err != nil {
		return err
	}
	if err := wtx.Commit(); err != nil {
		return fmt.Errorf("could not commit state transition: %w", err)
	}
	return nil
}

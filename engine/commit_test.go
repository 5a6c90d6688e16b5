package engine

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/infimum-dao/infimum-node/crypto/hash/poseidon"
	"github.com/infimum-dao/infimum-node/tree"
	"github.com/infimum-dao/infimum-node/types"
)

func testProof() types.Proof {
	return types.Proof{
		PiA: make(types.HexBytes, types.G1PointSize),
		PiB: make(types.HexBytes, types.G2PointSize),
		PiC: make(types.HexBytes, types.G1PointSize),
	}
}

// merkleSiblings computes the inclusion path for the leaf at index in a tree
// of the given depth, padded like the accumulator pads it.
func merkleSiblings(c *qt.C, depth uint8, leaves [][]byte, index uint64) []types.HexBytes {
	level := make([][]byte, uint64(1)<<depth)
	for i := range level {
		if i < len(leaves) {
			level[i] = leaves[i]
		} else {
			level[i] = tree.NilLeaf()
		}
	}
	var siblings []types.HexBytes
	idx := index
	for d := uint8(0); d < depth; d++ {
		siblings = append(siblings, types.HexBytes(level[idx^1]))
		next := make([][]byte, len(level)/2)
		for i := range next {
			h, err := poseidon.HashFunc.Hash(level[2*i], level[2*i+1])
			c.Assert(err, qt.IsNil)
			next[i] = h
		}
		level = next
		idx >>= 1
	}
	return siblings
}

// buildOutcome derives a self-consistent outcome payload for the results
// vector and returns it along with the tally commitment it binds to.
func buildOutcome(c *qt.C, cfg types.PollConfig, results []uint64) (*types.PollOutcome, types.HexBytes) {
	hash := poseidon.HashFunc
	leaves := make([][]byte, len(results))
	var spent uint64
	for i, r := range results {
		leaves[i] = field(r)
		spent += r
	}
	root, err := tree.RootOf(hash, cfg.VoteOptionDepth, leaves)
	c.Assert(err, qt.IsNil)

	proofs := make([][]types.HexBytes, len(results))
	for i := range results {
		proofs[i] = merkleSiblings(c, cfg.VoteOptionDepth, leaves, uint64(i))
	}

	totalSpent := field(spent)
	totalSpentSalt := field(12345)
	tallyResultSalt := field(67890)
	spentVotesHash, err := hash.Hash(totalSpent, totalSpentSalt)
	c.Assert(err, qt.IsNil)
	newResultsCommitment, err := hash.Hash(root, tallyResultSalt)
	c.Assert(err, qt.IsNil)
	finalCommitment, err := hash.Hash(newResultsCommitment, spentVotesHash, field(0))
	c.Assert(err, qt.IsNil)

	return &types.PollOutcome{
		TallyResults:         results,
		TallyResultProofs:    proofs,
		TotalSpent:           totalSpent,
		TotalSpentSalt:       totalSpentSalt,
		TallyResultSalt:      tallyResultSalt,
		NewResultsCommitment: newResultsCommitment,
		SpentVotesHash:       spentVotesHash,
	}, finalCommitment
}

// mergedPoll drives a fresh poll through registration, one interaction and a
// state merge, leaving the clock one block past the voting deadline.
func mergedPoll(c *qt.C, e *Engine, clock *testClock) uint64 {
	clock.now = 100
	c.Assert(e.RegisterCoordinator(coordAddr, testPublicKey(1), testVerifyingKeys()), qt.IsNil)
	id, err := e.CreatePoll(coordAddr, testPollConfig())
	c.Assert(err, qt.IsNil)

	clock.now = 102
	index, err := e.RegisterParticipant(id, testPublicKey(3))
	c.Assert(err, qt.IsNil)
	c.Assert(index, qt.Equals, uint64(0))

	clock.now = 105
	_, err = e.InteractWithPoll(id, testPublicKey(5), interactionData())
	c.Assert(err, qt.IsNil)

	clock.now = 109
	c.Assert(e.MergePollState(coordAddr, id), qt.IsNil)
	return id
}

func TestCommitOutcomeRequiresMergedState(t *testing.T) {
	c := qt.New(t)
	clock := &testClock{now: 100}
	e, _ := newTestEngine(t, clock, &stubVerifier{})
	c.Assert(e.RegisterCoordinator(coordAddr, testPublicKey(1), testVerifyingKeys()), qt.IsNil)
	id, err := e.CreatePoll(coordAddr, testPollConfig())
	c.Assert(err, qt.IsNil)

	err = e.CommitOutcome(coordAddr, id, []types.ProofBatch{{Proof: testProof(), NewCommitment: field(1)}}, nil)
	c.Assert(err, qt.Equals, ErrPollStateNotMerged)
}

func TestCommitOutcomeEndToEnd(t *testing.T) {
	c := qt.New(t)
	clock := &testClock{}
	verifier := &stubVerifier{}
	e, rec := newTestEngine(t, clock, verifier)
	id := mergedPoll(c, e, clock)

	outcome, finalCommitment := buildOutcome(c, testPollConfig(), []uint64{1, 5, 2})
	// one process batch then one tally batch
	batches := []types.ProofBatch{
		{Proof: testProof(), NewCommitment: field(777)},
		{Proof: testProof(), NewCommitment: finalCommitment},
	}
	c.Assert(e.CommitOutcome(coordAddr, id, batches, outcome), qt.IsNil)
	c.Assert(verifier.calls, qt.Equals, 2)

	poll, err := e.Poll(id)
	c.Assert(err, qt.IsNil)
	c.Assert(poll.State, qt.Equals, types.PollStateTallied)
	c.Assert(poll.OutcomeIndex, qt.Equals, uint64(1))
	c.Assert(poll.ProcessCommitment.Index, qt.Equals, uint64(1))
	c.Assert(poll.TallyCommitment.Index, qt.Equals, uint64(1))
	c.Assert(poll.ProcessCommitment.Data.String(), qt.Equals, field(777).String())
	c.Assert(poll.TallyCommitment.Data.String(), qt.Equals, finalCommitment.String())
	c.Assert(poll.Outcome, qt.IsNotNil)

	names := rec.names()
	c.Assert(names[len(names)-1], qt.Equals, "pollOutcome")
	c.Assert(rec.events[len(rec.events)-1].(PollOutcome).OutcomeIndex, qt.Equals, uint64(1))

	// the poll is immutable once tallied
	err = e.CommitOutcome(coordAddr, id, nil, outcome)
	c.Assert(err, qt.Equals, ErrPollOutcomeAlreadyDetermined)
}

func TestCommitOutcomeTieBreak(t *testing.T) {
	c := qt.New(t)
	clock := &testClock{}
	e, _ := newTestEngine(t, clock, &stubVerifier{})
	id := mergedPoll(c, e, clock)

	outcome, finalCommitment := buildOutcome(c, testPollConfig(), []uint64{0, 4, 4})
	batches := []types.ProofBatch{
		{Proof: testProof(), NewCommitment: field(777)},
		{Proof: testProof(), NewCommitment: finalCommitment},
	}
	c.Assert(e.CommitOutcome(coordAddr, id, batches, outcome), qt.IsNil)

	poll, err := e.Poll(id)
	c.Assert(err, qt.IsNil)
	c.Assert(poll.OutcomeIndex, qt.Equals, uint64(1))
}

func TestCommitOutcomeIncremental(t *testing.T) {
	c := qt.New(t)
	clock := &testClock{}
	e, rec := newTestEngine(t, clock, &stubVerifier{})
	id := mergedPoll(c, e, clock)

	// the process batch alone leaves the poll processing
	batch := []types.ProofBatch{{Proof: testProof(), NewCommitment: field(777)}}
	c.Assert(e.CommitOutcome(coordAddr, id, batch, nil), qt.IsNil)

	poll, err := e.Poll(id)
	c.Assert(err, qt.IsNil)
	c.Assert(poll.State, qt.Equals, types.PollStateProcessing)
	c.Assert(poll.ProcessCommitment.Index, qt.Equals, uint64(1))
	c.Assert(poll.TallyCommitment.Index, qt.Equals, uint64(0))
	c.Assert(rec.names()[len(rec.names())-1], qt.Equals, "pollCommitmentUpdated")

	// an outcome may not be supplied before both phases complete
	outcome, finalCommitment := buildOutcome(c, testPollConfig(), []uint64{1, 5, 2})
	err = e.CommitOutcome(coordAddr, id, nil, outcome)
	c.Assert(err, qt.Equals, ErrMalformedInput)

	tally := []types.ProofBatch{{Proof: testProof(), NewCommitment: finalCommitment}}
	c.Assert(e.CommitOutcome(coordAddr, id, tally, outcome), qt.IsNil)

	poll, err = e.Poll(id)
	c.Assert(err, qt.IsNil)
	c.Assert(poll.State, qt.Equals, types.PollStateTallied)
}

func TestCommitOutcomeRollbackOnBadProof(t *testing.T) {
	c := qt.New(t)
	clock := &testClock{}
	verifier := &stubVerifier{failAt: map[int]bool{2: true}}
	e, _ := newTestEngine(t, clock, verifier)
	id := mergedPoll(c, e, clock)

	before, err := e.Poll(id)
	c.Assert(err, qt.IsNil)

	outcome, finalCommitment := buildOutcome(c, testPollConfig(), []uint64{1, 5, 2})
	batches := []types.ProofBatch{
		{Proof: testProof(), NewCommitment: field(777)},
		{Proof: testProof(), NewCommitment: finalCommitment},
	}
	err = e.CommitOutcome(coordAddr, id, batches, outcome)
	c.Assert(errors.Is(err, ErrMalformedProof), qt.IsTrue)

	// the first batch of the failed call must not have been retained
	after, err := e.Poll(id)
	c.Assert(err, qt.IsNil)
	c.Assert(after.State, qt.Equals, types.PollStateMerged)
	c.Assert(after.ProcessCommitment.Index, qt.Equals, uint64(0))
	c.Assert(after.ProcessCommitment.Data.String(), qt.Equals, before.ProcessCommitment.Data.String())
	c.Assert(after.TallyCommitment.Data.String(), qt.Equals, before.TallyCommitment.Data.String())
}

func TestCommitOutcomeMismatch(t *testing.T) {
	c := qt.New(t)
	clock := &testClock{}
	e, _ := newTestEngine(t, clock, &stubVerifier{})
	id := mergedPoll(c, e, clock)

	outcome, finalCommitment := buildOutcome(c, testPollConfig(), []uint64{1, 5, 2})
	outcome.SpentVotesHash = field(9999)
	batches := []types.ProofBatch{
		{Proof: testProof(), NewCommitment: field(777)},
		{Proof: testProof(), NewCommitment: finalCommitment},
	}
	err := e.CommitOutcome(coordAddr, id, batches, outcome)
	c.Assert(err, qt.Equals, ErrMalformedInput)

	poll, err := e.Poll(id)
	c.Assert(err, qt.IsNil)
	c.Assert(poll.State, qt.Equals, types.PollStateMerged)
	c.Assert(poll.ProcessCommitment.Index, qt.Equals, uint64(0))
}

func TestCommitOutcomeTooManyBatches(t *testing.T) {
	c := qt.New(t)
	clock := &testClock{}
	e, _ := newTestEngine(t, clock, &stubVerifier{})
	id := mergedPoll(c, e, clock)

	outcome, finalCommitment := buildOutcome(c, testPollConfig(), []uint64{1, 5, 2})
	batches := []types.ProofBatch{
		{Proof: testProof(), NewCommitment: field(777)},
		{Proof: testProof(), NewCommitment: finalCommitment},
		{Proof: testProof(), NewCommitment: field(888)},
	}
	err := e.CommitOutcome(coordAddr, id, batches, outcome)
	c.Assert(err, qt.Equals, ErrMalformedInput)
}

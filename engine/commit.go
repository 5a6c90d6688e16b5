package engine

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/infimum-dao/infimum-node/log"
	"github.com/infimum-dao/infimum-node/storage"
	"github.com/infimum-dao/infimum-node/tree"
	"github.com/infimum-dao/infimum-node/types"
)

// CommitOutcome applies an ordered sequence of proof batches to a merged
// poll's running commitments: the remaining process batches first, walking
// interaction leaves newest to oldest, then the tally batches walking
// registration leaves in insertion order. When both phases complete the call
// must carry the final outcome payload, which is checked against the running
// tally commitment before the poll moves to the tallied state.
//
// A single verification failure aborts the whole call and persists nothing.
func (e *Engine) CommitOutcome(coordinator common.Address, pollID uint64, batches []types.ProofBatch, outcome *types.PollOutcome) error {
	coord, err := e.Coordinator(coordinator)
	if err != nil {
		return err
	}
	poll, err := e.ownedPoll(coordinator, pollID)
	if err != nil {
		return err
	}
	switch poll.State {
	case types.PollStateMerged, types.PollStateProcessing:
	case types.PollStateTallied:
		return ErrPollOutcomeAlreadyDetermined
	default:
		return ErrPollStateNotMerged
	}

	processTotal := batchCount(poll.InteractionTree.Count, poll.Config.ProcessBatchDepth)
	tallyTotal := batchCount(poll.RegistrationTree.Count, poll.Config.TallyBatchDepth)

	// All mutations below land on the decoded copy; storage is only touched
	// once every batch and the outcome have been accepted.
	var updated []types.Commitment
	for i := range batches {
		batch := &batches[i]
		if err := batch.Proof.Valid(); err != nil {
			return ErrMalformedProof
		}
		if len(batch.NewCommitment) != types.FieldSize {
			return ErrMalformedInput
		}
		switch {
		case poll.ProcessCommitment.Index < processTotal:
			if err := e.applyBatch(batch, &coord.Keys.Process, poll.ProcessCommitment, poll.InteractionTree.Root); err != nil {
				return err
			}
			updated = append(updated, *poll.ProcessCommitment)
		case poll.TallyCommitment.Index < tallyTotal:
			if err := e.applyBatch(batch, &coord.Keys.Tally, poll.TallyCommitment, poll.RegistrationTree.Root); err != nil {
				return err
			}
			updated = append(updated, *poll.TallyCommitment)
		default:
			return ErrMalformedInput
		}
	}
	poll.ProcessedBatches = poll.ProcessCommitment.Index
	poll.TalliedBatches = poll.TallyCommitment.Index

	complete := poll.ProcessCommitment.Index >= processTotal && poll.TallyCommitment.Index >= tallyTotal
	if !complete {
		if outcome != nil {
			return ErrMalformedInput
		}
		poll.State = types.PollStateProcessing
	} else {
		if outcome == nil {
			return ErrMalformedInput
		}
		index, err := e.checkOutcome(poll, outcome)
		if err != nil {
			return err
		}
		poll.Outcome = outcome
		poll.OutcomeIndex = index
		poll.State = types.PollStateTallied
	}

	if err := e.storeTx(func(wtx writeTx) error {
		return e.store.SetPollTx(wtx, poll)
	}); err != nil {
		return err
	}
	for _, c := range updated {
		e.notify(PollCommitmentUpdated{PollID: pollID, Commitment: c})
	}
	if poll.State == types.PollStateTallied {
		log.Infow("poll tallied", "pollId", pollID, "outcomeIndex", poll.OutcomeIndex)
		e.notify(PollOutcome{PollID: pollID, OutcomeIndex: poll.OutcomeIndex})
	}
	return nil
}

// applyBatch verifies one proof against the running commitment and, on
// success, replaces the commitment with the declared new value.
func (e *Engine) applyBatch(batch *types.ProofBatch, vk *types.VerifyingKey, commitment *types.Commitment, root []byte) error {
	publicInputs := []*big.Int{
		commitment.Data.BigInt(),
		batch.NewCommitment.BigInt(),
		new(big.Int).SetBytes(root),
		new(big.Int).SetUint64(commitment.Index),
	}
	if err := e.verifier.Verify(&batch.Proof, vk, publicInputs); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	commitment.Index++
	commitment.Data = append(types.HexBytes(nil), batch.NewCommitment...)
	return nil
}

// checkOutcome recomputes the commitments the outcome payload claims and
// matches them against the running tally commitment. Returns the index of the
// winning option, ties broken by the lowest index.
func (e *Engine) checkOutcome(poll *storage.Poll, outcome *types.PollOutcome) (uint64, error) {
	nopts := len(poll.Config.VoteOptions)
	if len(outcome.TallyResults) != nopts || len(outcome.TallyResultProofs) != nopts {
		return 0, ErrMalformedInput
	}
	for _, f := range []types.HexBytes{
		outcome.TotalSpent, outcome.TotalSpentSalt, outcome.TallyResultSalt,
		outcome.NewResultsCommitment, outcome.SpentVotesHash,
	} {
		if len(f) != types.FieldSize {
			return 0, ErrMalformedInput
		}
	}

	spentHash, err := e.hash.Hash(outcome.TotalSpent, outcome.TotalSpentSalt)
	if err != nil {
		return 0, err
	}
	if !bytesEq(spentHash, outcome.SpentVotesHash) {
		return 0, ErrMalformedInput
	}

	leaves := make([][]byte, nopts)
	for i, result := range outcome.TallyResults {
		leaves[i] = types.FieldFromBigInt(new(big.Int).SetUint64(result))
	}
	resultsRoot, err := tree.RootOf(e.hash, poll.Config.VoteOptionDepth, leaves)
	if err != nil {
		return 0, err
	}
	for i, proof := range outcome.TallyResultProofs {
		siblings := make([][]byte, len(proof))
		for j, s := range proof {
			siblings[j] = s
		}
		ok, err := tree.VerifyProof(e.hash, resultsRoot, leaves[i], uint64(i), siblings)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrMalformedInput
		}
	}

	resultsCommitment, err := e.hash.Hash(resultsRoot, outcome.TallyResultSalt)
	if err != nil {
		return 0, err
	}
	if !bytesEq(resultsCommitment, outcome.NewResultsCommitment) {
		return 0, ErrMalformedInput
	}

	expected, err := e.hash.Hash(outcome.NewResultsCommitment, outcome.SpentVotesHash, make([]byte, types.FieldSize))
	if err != nil {
		return 0, err
	}
	if !bytesEq(expected, poll.TallyCommitment.Data) {
		return 0, ErrMalformedInput
	}

	var index uint64
	for i, result := range outcome.TallyResults {
		if result > outcome.TallyResults[index] {
			index = uint64(i)
		}
	}
	return index, nil
}

// batchCount is the number of proof batches needed to cover count leaves with
// batches of 2^depth.
func batchCount(count uint64, depth uint8) uint64 {
	size := uint64(1) << depth
	return (count + size - 1) / size
}

func bytesEq(a, b []byte) bool { return string(a) == string(b) }

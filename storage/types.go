package storage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/infimum-dao/infimum-node/tree"
	"github.com/infimum-dao/infimum-node/types"
)

// Coordinator is the persisted record of a registered coordinator.
type Coordinator struct {
	Address   common.Address      `cbor:"0,keyasint"`
	PublicKey types.PublicKey     `cbor:"1,keyasint"`
	Keys      types.VerifyingKeys `cbor:"2,keyasint"`
	PollIDs   []uint64            `cbor:"3,keyasint"`
}

// Poll is the persisted record of a poll and all of its evolving state. The
// accumulators are stored inline; callers must re-bind the hash function with
// tree.Accumulator.Hydrate after decoding.
type Poll struct {
	ID             uint64           `cbor:"0,keyasint"`
	Coordinator    common.Address   `cbor:"1,keyasint"`
	CreatedAt      uint64           `cbor:"2,keyasint"`
	SignupDeadline uint64           `cbor:"3,keyasint"`
	VotingDeadline uint64           `cbor:"4,keyasint"`
	Config         types.PollConfig `cbor:"5,keyasint"`
	State          types.PollState  `cbor:"6,keyasint"`

	RegistrationTree *tree.Accumulator `cbor:"7,keyasint"`
	InteractionTree  *tree.Accumulator `cbor:"8,keyasint"`

	ProcessCommitment *types.Commitment `cbor:"9,keyasint"`
	TallyCommitment   *types.Commitment `cbor:"10,keyasint"`

	ProcessedBatches uint64 `cbor:"11,keyasint"`
	TalliedBatches   uint64 `cbor:"12,keyasint"`

	Outcome      *types.PollOutcome `cbor:"13,keyasint"`
	OutcomeIndex uint64             `cbor:"14,keyasint"`
}

package api

import (
	"encoding/json"

	"github.com/infimum-dao/infimum-node/types"
)

// CoordinatorRequest is the body of a coordinator registration.
type CoordinatorRequest struct {
	Address   string              `json:"address"`
	PublicKey types.PublicKey     `json:"publicKey"`
	Keys      types.VerifyingKeys `json:"verifyingKeys"`
}

// RotateKeysRequest is the body of a coordinator key rotation.
type RotateKeysRequest struct {
	PublicKey types.PublicKey     `json:"publicKey"`
	Keys      types.VerifyingKeys `json:"verifyingKeys"`
}

// CoordinatorResponse is the public view of a coordinator record.
type CoordinatorResponse struct {
	Address   string              `json:"address"`
	PublicKey types.PublicKey     `json:"publicKey"`
	Keys      types.VerifyingKeys `json:"verifyingKeys"`
	PollIDs   []uint64            `json:"pollIds"`
}

// CreatePollRequest is the body of a poll creation.
type CreatePollRequest struct {
	Coordinator string           `json:"coordinator"`
	Config      types.PollConfig `json:"config"`
}

// CreatePollResponse returns the allocated poll id and its deadlines.
type CreatePollResponse struct {
	PollID         uint64 `json:"pollId"`
	SignupDeadline uint64 `json:"signupDeadline"`
	VotingDeadline uint64 `json:"votingDeadline"`
}

// PollResponse is the public view of a poll.
type PollResponse struct {
	PollID            uint64             `json:"pollId"`
	Coordinator       string             `json:"coordinator"`
	State             string             `json:"state"`
	CreatedAt         uint64             `json:"createdAt"`
	SignupDeadline    uint64             `json:"signupDeadline"`
	VotingDeadline    uint64             `json:"votingDeadline"`
	Config            types.PollConfig   `json:"config"`
	RegistrationCount uint64             `json:"registrationCount"`
	InteractionCount  uint64             `json:"interactionCount"`
	RegistrationRoot  types.HexBytes     `json:"registrationRoot,omitempty"`
	InteractionRoot   types.HexBytes     `json:"interactionRoot,omitempty"`
	ProcessCommitment *types.Commitment  `json:"processCommitment,omitempty"`
	TallyCommitment   *types.Commitment  `json:"tallyCommitment,omitempty"`
	Outcome           *types.PollOutcome `json:"outcome,omitempty"`
	OutcomeIndex      uint64             `json:"outcomeIndex"`
}

// PollListResponse lists poll ids in creation order.
type PollListResponse struct {
	Polls []uint64 `json:"polls"`
}

// RegistrationRequest is the body of a participant registration.
type RegistrationRequest struct {
	PublicKey types.PublicKey `json:"publicKey"`
}

// InteractionRequest is the body of a poll interaction.
type InteractionRequest struct {
	EphemeralKey types.PublicKey  `json:"ephemeralKey"`
	Data         []types.HexBytes `json:"data"`
}

// LeafResponse returns the index assigned to an appended leaf.
type LeafResponse struct {
	LeafIndex uint64 `json:"leafIndex"`
}

// OwnerRequest carries the coordinator address for owner-gated operations.
type OwnerRequest struct {
	Coordinator string `json:"coordinator"`
}

// OutcomeBatch is one proof batch. The proof may be given either as raw
// uncompressed points or as a snarkjs proof JSON document.
type OutcomeBatch struct {
	Proof         *types.Proof    `json:"proof,omitempty"`
	CircomProof   json.RawMessage `json:"circomProof,omitempty"`
	NewCommitment types.HexBytes  `json:"newCommitment"`
}

// CommitOutcomeRequest is the body of an outcome commitment call.
type CommitOutcomeRequest struct {
	Coordinator string             `json:"coordinator"`
	Batches     []OutcomeBatch     `json:"batches"`
	Outcome     *types.PollOutcome `json:"outcome,omitempty"`
}

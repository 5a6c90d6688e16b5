package types

// PollState is the lifecycle phase of a poll. The transition graph is linear
// with a single alternate terminal:
//
//	Created -> Merged -> Processing -> Tallied
//	Created/Merged -> Nullified (only with an empty interaction tree)
type PollState uint8

const (
	PollStateCreated PollState = iota
	PollStateMerged
	PollStateProcessing
	PollStateTallied
	PollStateNullified
)

// Terminal reports whether no further transitions are possible.
func (s PollState) Terminal() bool {
	return s == PollStateTallied || s == PollStateNullified
}

func (s PollState) String() string {
	switch s {
	case PollStateCreated:
		return "created"
	case PollStateMerged:
		return "merged"
	case PollStateProcessing:
		return "processing"
	case PollStateTallied:
		return "tallied"
	case PollStateNullified:
		return "nullified"
	}
	return "unknown"
}

// PollConfig is the immutable configuration a poll is created with. Periods
// are expressed in blocks, depths in tree levels.
type PollConfig struct {
	SignupPeriod      uint64   `json:"signupPeriod"      cbor:"0,keyasint"`
	VotingPeriod      uint64   `json:"votingPeriod"      cbor:"1,keyasint"`
	RegistrationDepth uint8    `json:"registrationDepth" cbor:"2,keyasint"`
	InteractionDepth  uint8    `json:"interactionDepth"  cbor:"3,keyasint"`
	ProcessBatchDepth uint8    `json:"processBatchDepth" cbor:"4,keyasint"`
	TallyBatchDepth   uint8    `json:"tallyBatchDepth"   cbor:"5,keyasint"`
	VoteOptionDepth   uint8    `json:"voteOptionDepth"   cbor:"6,keyasint"`
	VoteOptions       []uint64 `json:"voteOptions"       cbor:"7,keyasint"`
}

// Commitment is a running proof-chain commitment: the number of proof batches
// folded into it so far, plus the current commitment value.
type Commitment struct {
	Index uint64   `json:"index" cbor:"0,keyasint"`
	Data  HexBytes `json:"data"  cbor:"1,keyasint"`
}

// ProofBatch is one zero-knowledge proof attesting that a bounded chunk of
// interactions or registrations was folded into NewCommitment. Batches are
// applied strictly in submission order.
type ProofBatch struct {
	Proof         Proof    `json:"proof"         cbor:"0,keyasint"`
	NewCommitment HexBytes `json:"newCommitment" cbor:"1,keyasint"`
}

// PollOutcome is the payload that closes a poll: the final tally vector, a
// Merkle inclusion proof per result, the blinding salts and the re-derived
// commitments the protocol checks against its running tally commitment.
type PollOutcome struct {
	TallyResults         []uint64     `json:"tallyResults"         cbor:"0,keyasint"`
	TallyResultProofs    [][]HexBytes `json:"tallyResultProofs"    cbor:"1,keyasint"`
	TotalSpent           HexBytes     `json:"totalSpent"           cbor:"2,keyasint"`
	TotalSpentSalt       HexBytes     `json:"totalSpentSalt"       cbor:"3,keyasint"`
	TallyResultSalt      HexBytes     `json:"tallyResultSalt"      cbor:"4,keyasint"`
	NewResultsCommitment HexBytes     `json:"newResultsCommitment" cbor:"5,keyasint"`
	SpentVotesHash       HexBytes     `json:"spentVotesHash"       cbor:"6,keyasint"`
}

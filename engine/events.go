package engine

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/infimum-dao/infimum-node/types"
)

// Event is a notification emitted after a successful state transition. Events
// are delivered synchronously, after the transition has been committed to
// storage.
type Event interface {
	Name() string
}

// Notifier receives engine events. Implementations must not block.
type Notifier interface {
	HandleEvent(e Event)
}

// CoordinatorRegistered is emitted when a new coordinator joins.
type CoordinatorRegistered struct {
	Address common.Address `json:"address"`
}

func (CoordinatorRegistered) Name() string { return "coordinatorRegistered" }

// CoordinatorKeysChanged is emitted when a coordinator rotates its keys.
type CoordinatorKeysChanged struct {
	Address common.Address `json:"address"`
}

func (CoordinatorKeysChanged) Name() string { return "coordinatorKeysChanged" }

// PollCreated is emitted when a poll opens for registration.
type PollCreated struct {
	PollID      uint64         `json:"pollId"`
	Coordinator common.Address `json:"coordinator"`
	StartsAt    uint64         `json:"startsAt"`
	EndsAt      uint64         `json:"endsAt"`
}

func (PollCreated) Name() string { return "pollCreated" }

// ParticipantRegistered is emitted when a participant leaf is appended to the
// registration tree.
type ParticipantRegistered struct {
	PollID    uint64          `json:"pollId"`
	LeafIndex uint64          `json:"leafIndex"`
	Block     uint64          `json:"block"`
	PublicKey types.PublicKey `json:"publicKey"`
}

func (ParticipantRegistered) Name() string { return "participantRegistered" }

// PollInteraction is emitted when an interaction leaf is appended.
type PollInteraction struct {
	PollID    uint64           `json:"pollId"`
	LeafIndex uint64           `json:"leafIndex"`
	PublicKey types.PublicKey  `json:"publicKey"`
	Data      []types.HexBytes `json:"data"`
}

func (PollInteraction) Name() string { return "pollInteraction" }

// PollCommitmentUpdated is emitted for every running commitment advanced by a
// commitOutcome call.
type PollCommitmentUpdated struct {
	PollID     uint64           `json:"pollId"`
	Commitment types.Commitment `json:"commitment"`
}

func (PollCommitmentUpdated) Name() string { return "pollCommitmentUpdated" }

// PollStateMerged is emitted with the root(s) finalized by a mergePollState
// call; a root not produced by that call is nil.
type PollStateMerged struct {
	PollID           uint64         `json:"pollId"`
	RegistrationRoot types.HexBytes `json:"registrationRoot,omitempty"`
	InteractionRoot  types.HexBytes `json:"interactionRoot,omitempty"`
}

func (PollStateMerged) Name() string { return "pollStateMerged" }

// PollOutcome is emitted when a poll reaches the tallied state.
type PollOutcome struct {
	PollID       uint64 `json:"pollId"`
	OutcomeIndex uint64 `json:"outcomeIndex"`
}

func (PollOutcome) Name() string { return "pollOutcome" }

// PollNullified is emitted when an empty poll is closed without a tally.
type PollNullified struct {
	PollID uint64 `json:"pollId"`
}

func (PollNullified) Name() string { return "pollNullified" }

package engine

import "errors"

// Operation errors. Every error is terminal for the call that raised it and
// never leaves partially-mutated state; where a time window is involved the
// caller may retry once the relevant window opens.
var (
	// configuration errors
	ErrPollConfigInvalid = errors.New("poll config invalid")
	ErrMalformedInput    = errors.New("malformed input")

	// capacity errors
	ErrCoordinatorPollLimitReached         = errors.New("coordinator poll limit reached")
	ErrParticipantRegistrationLimitReached = errors.New("participant registration limit reached")
	ErrParticipantInteractionLimitReached  = errors.New("participant interaction limit reached")

	// phase violation errors
	ErrPollRegistrationInProgress   = errors.New("poll registration in progress")
	ErrPollRegistrationHasEnded     = errors.New("poll registration has ended")
	ErrPollVotingInProgress         = errors.New("poll voting in progress")
	ErrPollVotingHasEnded           = errors.New("poll voting has ended")
	ErrPollStateNotMerged           = errors.New("poll state not merged")
	ErrPollOutcomeAlreadyDetermined = errors.New("poll outcome already determined")
	ErrPollCurrentlyActive          = errors.New("poll currently active")

	// identity errors
	ErrCoordinatorAlreadyRegistered = errors.New("coordinator already registered")
	ErrCoordinatorNotRegistered     = errors.New("coordinator not registered")
	ErrPollDoesNotExist             = errors.New("poll does not exist")

	// cryptographic errors
	ErrMalformedKeys  = errors.New("malformed keys")
	ErrMalformedProof = errors.New("malformed proof")
)

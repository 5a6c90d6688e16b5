//nolint:lll
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/infimum-dao/infimum-node/engine"
	"github.com/infimum-dao/infimum-node/tree"
)

// Error codes in the 40001-49999 range are the user's fault and return HTTP
// Status 400 or 404. Error codes 50001-59999 are the server's fault and
// return HTTP Status 500 or 503.
//
// NEVER change any of the current error codes, only append new errors after
// the current last 4XXX or 5XXX.
var (
	ErrResourceNotFound    = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody       = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedAddress    = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed address")}
	ErrMalformedPollID     = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed poll ID")}
	ErrPollNotFound        = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("poll not found")}
	ErrCoordinatorNotFound = Error{Code: 40008, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("coordinator not found")}
	ErrCoordinatorExists   = Error{Code: 40009, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("coordinator already registered")}
	ErrInvalidPollConfig   = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("poll config invalid")}
	ErrInvalidKeys         = Error{Code: 40011, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed keys")}
	ErrInvalidProof        = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed proof")}
	ErrPhaseViolation      = Error{Code: 40013, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("operation not allowed in the current poll phase")}
	ErrCapacityReached     = Error{Code: 40014, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("capacity limit reached")}
	ErrMalformedInput      = Error{Code: 40015, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed input")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)

// fromEngineError maps an engine error onto the API error taxonomy.
func fromEngineError(err error) Error {
	switch {
	case errors.Is(err, engine.ErrPollDoesNotExist):
		return ErrPollNotFound.WithErr(err)
	case errors.Is(err, engine.ErrCoordinatorNotRegistered):
		return ErrCoordinatorNotFound.WithErr(err)
	case errors.Is(err, engine.ErrCoordinatorAlreadyRegistered):
		return ErrCoordinatorExists.WithErr(err)
	case errors.Is(err, engine.ErrPollConfigInvalid):
		return ErrInvalidPollConfig.WithErr(err)
	case errors.Is(err, engine.ErrMalformedKeys):
		return ErrInvalidKeys.WithErr(err)
	case errors.Is(err, engine.ErrMalformedProof):
		return ErrInvalidProof.WithErr(err)
	case errors.Is(err, engine.ErrMalformedInput):
		return ErrMalformedInput.WithErr(err)
	case errors.Is(err, engine.ErrCoordinatorPollLimitReached),
		errors.Is(err, engine.ErrParticipantRegistrationLimitReached),
		errors.Is(err, engine.ErrParticipantInteractionLimitReached):
		return ErrCapacityReached.WithErr(err)
	case errors.Is(err, engine.ErrPollRegistrationInProgress),
		errors.Is(err, engine.ErrPollRegistrationHasEnded),
		errors.Is(err, engine.ErrPollVotingInProgress),
		errors.Is(err, engine.ErrPollVotingHasEnded),
		errors.Is(err, engine.ErrPollStateNotMerged),
		errors.Is(err, engine.ErrPollOutcomeAlreadyDetermined),
		errors.Is(err, engine.ErrPollCurrentlyActive),
		errors.Is(err, tree.ErrTreeMerged):
		return ErrPhaseViolation.WithErr(err)
	}
	return ErrGenericInternalServerError.WithErr(err)
}

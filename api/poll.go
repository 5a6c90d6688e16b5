package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/infimum-dao/infimum-node/log"
	"github.com/infimum-dao/infimum-node/storage"
)

// createPoll opens a new poll for the coordinator
// POST /polls
func (a *API) createPoll(w http.ResponseWriter, r *http.Request) {
	req := &CreatePollRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if !common.IsHexAddress(req.Coordinator) {
		ErrMalformedAddress.With(req.Coordinator).Write(w)
		return
	}
	id, err := a.engine.CreatePoll(common.HexToAddress(req.Coordinator), req.Config)
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	poll, err := a.engine.Poll(id)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	log.Infow("new poll", "pollId", id, "coordinator", req.Coordinator)
	httpWriteJSON(w, &CreatePollResponse{
		PollID:         id,
		SignupDeadline: poll.SignupDeadline,
		VotingDeadline: poll.VotingDeadline,
	})
}

// listPolls returns all poll ids in creation order
// GET /polls
func (a *API) listPolls(w http.ResponseWriter, r *http.Request) {
	ids, err := a.engine.ListPollIDs()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &PollListResponse{Polls: ids})
}

// poll returns the poll info
// GET /polls/{pollId}
func (a *API) poll(w http.ResponseWriter, r *http.Request) {
	poll, ok := a.urlParamPoll(w, r)
	if !ok {
		return
	}
	httpWriteJSON(w, pollResponse(poll))
}

// registerParticipant appends a participant to the poll registration tree
// POST /polls/{pollId}/registrations
func (a *API) registerParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlParamPollID(w, r)
	if !ok {
		return
	}
	req := &RegistrationRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	index, err := a.engine.RegisterParticipant(id, req.PublicKey)
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, &LeafResponse{LeafIndex: index})
}

// interactWithPoll appends an interaction to the poll interaction tree
// POST /polls/{pollId}/interactions
func (a *API) interactWithPoll(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlParamPollID(w, r)
	if !ok {
		return
	}
	req := &InteractionRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	index, err := a.engine.InteractWithPoll(id, req.EphemeralKey, req.Data)
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, &LeafResponse{LeafIndex: index})
}

// mergePollState finalizes the poll trees
// POST /polls/{pollId}/merge
func (a *API) mergePollState(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlParamPollID(w, r)
	if !ok {
		return
	}
	owner, ok := a.decodeOwner(w, r)
	if !ok {
		return
	}
	if err := a.engine.MergePollState(owner, id); err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// nullifyPoll closes an empty poll without a tally
// POST /polls/{pollId}/nullify
func (a *API) nullifyPoll(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlParamPollID(w, r)
	if !ok {
		return
	}
	owner, ok := a.decodeOwner(w, r)
	if !ok {
		return
	}
	if err := a.engine.NullifyPoll(owner, id); err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

func (a *API) urlParamPollID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, PollURLParam)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		ErrMalformedPollID.With(raw).Write(w)
		return 0, false
	}
	return id, true
}

func (a *API) urlParamPoll(w http.ResponseWriter, r *http.Request) (*storage.Poll, bool) {
	id, ok := a.urlParamPollID(w, r)
	if !ok {
		return nil, false
	}
	poll, err := a.engine.Poll(id)
	if err != nil {
		fromEngineError(err).Write(w)
		return nil, false
	}
	return poll, true
}

func (a *API) decodeOwner(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	req := &OwnerRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return common.Address{}, false
	}
	if !common.IsHexAddress(req.Coordinator) {
		ErrMalformedAddress.With(req.Coordinator).Write(w)
		return common.Address{}, false
	}
	return common.HexToAddress(req.Coordinator), true
}

func pollResponse(poll *storage.Poll) *PollResponse {
	return &PollResponse{
		PollID:            poll.ID,
		Coordinator:       poll.Coordinator.Hex(),
		State:             poll.State.String(),
		CreatedAt:         poll.CreatedAt,
		SignupDeadline:    poll.SignupDeadline,
		VotingDeadline:    poll.VotingDeadline,
		Config:            poll.Config,
		RegistrationCount: poll.RegistrationTree.Count,
		InteractionCount:  poll.InteractionTree.Count,
		RegistrationRoot:  poll.RegistrationTree.Root,
		InteractionRoot:   poll.InteractionTree.Root,
		ProcessCommitment: poll.ProcessCommitment,
		TallyCommitment:   poll.TallyCommitment,
		Outcome:           poll.Outcome,
		OutcomeIndex:      poll.OutcomeIndex,
	}
}

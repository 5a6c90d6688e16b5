package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/infimum-dao/infimum-node/crypto/zk"
	"github.com/infimum-dao/infimum-node/log"
	"github.com/infimum-dao/infimum-node/types"
)

// commitOutcome applies proof batches to a merged poll and, when both phases
// complete, the final outcome payload
// POST /polls/{pollId}/outcome
func (a *API) commitOutcome(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlParamPollID(w, r)
	if !ok {
		return
	}
	req := &CommitOutcomeRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if !common.IsHexAddress(req.Coordinator) {
		ErrMalformedAddress.With(req.Coordinator).Write(w)
		return
	}
	batches := make([]types.ProofBatch, len(req.Batches))
	for i, b := range req.Batches {
		proof := b.Proof
		if proof == nil {
			if len(b.CircomProof) == 0 {
				ErrInvalidProof.With("missing proof").Write(w)
				return
			}
			var err error
			proof, err = zk.ProofFromCircomJSON(b.CircomProof)
			if err != nil {
				ErrInvalidProof.Withf("could not parse snarkjs proof: %v", err).Write(w)
				return
			}
		}
		batches[i] = types.ProofBatch{Proof: *proof, NewCommitment: b.NewCommitment}
	}
	err := a.engine.CommitOutcome(common.HexToAddress(req.Coordinator), id, batches, req.Outcome)
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	log.Infow("outcome batches committed", "pollId", id, "batches", len(batches), "final", req.Outcome != nil)
	poll, err := a.engine.Poll(id)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, pollResponse(poll))
}

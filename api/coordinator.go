package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/infimum-dao/infimum-node/log"
)

// registerCoordinator creates a new coordinator record
// POST /coordinators
func (a *API) registerCoordinator(w http.ResponseWriter, r *http.Request) {
	req := &CoordinatorRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if !common.IsHexAddress(req.Address) {
		ErrMalformedAddress.With(req.Address).Write(w)
		return
	}
	address := common.HexToAddress(req.Address)
	if err := a.engine.RegisterCoordinator(address, req.PublicKey, req.Keys); err != nil {
		fromEngineError(err).Write(w)
		return
	}
	log.Infow("new coordinator", "address", address.Hex())
	httpWriteOK(w)
}

// rotateKeys replaces a coordinator's communication and verifying keys
// POST /coordinators/{address}/keys
func (a *API) rotateKeys(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, CoordinatorURLParam)
	if !common.IsHexAddress(raw) {
		ErrMalformedAddress.With(raw).Write(w)
		return
	}
	req := &RotateKeysRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.engine.RotateKeys(common.HexToAddress(raw), req.PublicKey, req.Keys); err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// coordinator returns the coordinator record
// GET /coordinators/{address}
func (a *API) coordinator(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, CoordinatorURLParam)
	if !common.IsHexAddress(raw) {
		ErrMalformedAddress.With(raw).Write(w)
		return
	}
	coord, err := a.engine.Coordinator(common.HexToAddress(raw))
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, &CoordinatorResponse{
		Address:   coord.Address.Hex(),
		PublicKey: coord.PublicKey,
		Keys:      coord.Keys,
		PollIDs:   coord.PollIDs,
	})
}

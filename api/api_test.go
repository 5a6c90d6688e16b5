package api

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/infimum-dao/infimum-node/engine"
	"github.com/infimum-dao/infimum-node/storage"
	"github.com/infimum-dao/infimum-node/types"
	"go.vocdoni.io/dvote/db/metadb"
)

type fixedClock struct {
	now uint64
}

func (c *fixedClock) Now() uint64 { return c.now }

type okVerifier struct{}

func (okVerifier) Verify(*types.Proof, *types.VerifyingKey, []*big.Int) error { return nil }

func newTestAPI(t *testing.T) (*API, *fixedClock) {
	clock := &fixedClock{now: 100}
	store := storage.New(metadb.NewTest(t))
	e := engine.New(engine.DefaultConfig(), store, clock, okVerifier{}, nil)
	return NewRouter(e), clock
}

func doRequest(c *qt.C, a *API, method, path string, body, out any) int {
	var buf bytes.Buffer
	if body != nil {
		c.Assert(json.NewEncoder(&buf).Encode(body), qt.IsNil)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		c.Assert(json.NewDecoder(rec.Body).Decode(out), qt.IsNil)
	}
	return rec.Code
}

func field(x uint64) types.HexBytes {
	return types.FieldFromBigInt(new(big.Int).SetUint64(x))
}

func testKeys() types.VerifyingKeys {
	vk := types.VerifyingKey{
		AlphaG1:    make(types.HexBytes, types.G1PointSize),
		BetaG2:     make(types.HexBytes, types.G2PointSize),
		GammaG2:    make(types.HexBytes, types.G2PointSize),
		DeltaG2:    make(types.HexBytes, types.G2PointSize),
		GammaABCG1: []types.HexBytes{make(types.HexBytes, types.G1PointSize)},
	}
	return types.VerifyingKeys{Process: vk, Tally: vk}
}

const testCoordinator = "0x00000000000000000000000000000000000000c1"

func registerTestCoordinator(c *qt.C, a *API) {
	code := doRequest(c, a, http.MethodPost, "/coordinators", &CoordinatorRequest{
		Address:   testCoordinator,
		PublicKey: types.PublicKey{X: field(1), Y: field(2)},
		Keys:      testKeys(),
	}, nil)
	c.Assert(code, qt.Equals, http.StatusOK)
}

func TestPing(t *testing.T) {
	c := qt.New(t)
	a, _ := newTestAPI(t)
	c.Assert(doRequest(c, a, http.MethodGet, "/ping", nil, nil), qt.Equals, http.StatusOK)
}

func TestCoordinatorEndpoints(t *testing.T) {
	c := qt.New(t)
	a, _ := newTestAPI(t)

	code := doRequest(c, a, http.MethodPost, "/coordinators", &CoordinatorRequest{Address: "nope"}, nil)
	c.Assert(code, qt.Equals, http.StatusBadRequest)

	registerTestCoordinator(c, a)

	// duplicate registration
	code = doRequest(c, a, http.MethodPost, "/coordinators", &CoordinatorRequest{
		Address:   testCoordinator,
		PublicKey: types.PublicKey{X: field(1), Y: field(2)},
		Keys:      testKeys(),
	}, nil)
	c.Assert(code, qt.Equals, http.StatusConflict)

	var coord CoordinatorResponse
	code = doRequest(c, a, http.MethodGet, "/coordinators/"+testCoordinator, nil, &coord)
	c.Assert(code, qt.Equals, http.StatusOK)
	c.Assert(coord.PublicKey.X.String(), qt.Equals, field(1).String())

	code = doRequest(c, a, http.MethodGet, "/coordinators/0x00000000000000000000000000000000000000ff", nil, nil)
	c.Assert(code, qt.Equals, http.StatusNotFound)
}

func TestPollLifecycleEndpoints(t *testing.T) {
	c := qt.New(t)
	a, clock := newTestAPI(t)
	registerTestCoordinator(c, a)

	var created CreatePollResponse
	code := doRequest(c, a, http.MethodPost, "/polls", &CreatePollRequest{
		Coordinator: testCoordinator,
		Config: types.PollConfig{
			SignupPeriod:      4,
			VotingPeriod:      4,
			RegistrationDepth: 2,
			InteractionDepth:  2,
			ProcessBatchDepth: 1,
			TallyBatchDepth:   1,
			VoteOptionDepth:   1,
			VoteOptions:       []uint64{1, 2},
		},
	}, &created)
	c.Assert(code, qt.Equals, http.StatusOK)
	c.Assert(created.SignupDeadline, qt.Equals, uint64(104))
	c.Assert(created.VotingDeadline, qt.Equals, uint64(108))

	var list PollListResponse
	code = doRequest(c, a, http.MethodGet, "/polls", nil, &list)
	c.Assert(code, qt.Equals, http.StatusOK)
	c.Assert(list.Polls, qt.DeepEquals, []uint64{0})

	clock.now = 102
	var leaf LeafResponse
	code = doRequest(c, a, http.MethodPost, "/polls/0/registrations", &RegistrationRequest{
		PublicKey: types.PublicKey{X: field(3), Y: field(4)},
	}, &leaf)
	c.Assert(code, qt.Equals, http.StatusOK)
	c.Assert(leaf.LeafIndex, qt.Equals, uint64(0))

	// interactions are rejected during the registration window
	data := make([]types.HexBytes, types.InteractionDataWords)
	for i := range data {
		data[i] = field(uint64(i))
	}
	code = doRequest(c, a, http.MethodPost, "/polls/0/interactions", &InteractionRequest{
		EphemeralKey: types.PublicKey{X: field(5), Y: field(6)},
		Data:         data,
	}, nil)
	c.Assert(code, qt.Equals, http.StatusConflict)

	clock.now = 105
	code = doRequest(c, a, http.MethodPost, "/polls/0/interactions", &InteractionRequest{
		EphemeralKey: types.PublicKey{X: field(5), Y: field(6)},
		Data:         data,
	}, &leaf)
	c.Assert(code, qt.Equals, http.StatusOK)

	// merge is owner-gated and window-gated
	code = doRequest(c, a, http.MethodPost, "/polls/0/merge", &OwnerRequest{Coordinator: testCoordinator}, nil)
	c.Assert(code, qt.Equals, http.StatusConflict)

	clock.now = 108
	code = doRequest(c, a, http.MethodPost, "/polls/0/merge", &OwnerRequest{Coordinator: testCoordinator}, nil)
	c.Assert(code, qt.Equals, http.StatusOK)

	var poll PollResponse
	code = doRequest(c, a, http.MethodGet, "/polls/0", nil, &poll)
	c.Assert(code, qt.Equals, http.StatusOK)
	c.Assert(poll.State, qt.Equals, "merged")
	c.Assert(poll.RegistrationCount, qt.Equals, uint64(1))
	c.Assert(poll.InteractionCount, qt.Equals, uint64(1))
	c.Assert(len(poll.RegistrationRoot), qt.Equals, types.FieldSize)

	code = doRequest(c, a, http.MethodGet, "/polls/notanumber", nil, nil)
	c.Assert(code, qt.Equals, http.StatusBadRequest)
	code = doRequest(c, a, http.MethodGet, "/polls/42", nil, nil)
	c.Assert(code, qt.Equals, http.StatusNotFound)
}

package storage

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/infimum-dao/infimum-node/crypto/hash/poseidon"
	"github.com/infimum-dao/infimum-node/tree"
	"github.com/infimum-dao/infimum-node/types"
	"github.com/infimum-dao/infimum-node/util"
	"go.vocdoni.io/dvote/db/metadb"
)

func testStorage(t *testing.T) *Storage {
	return New(metadb.NewTest(t))
}

func TestCoordinatorRoundTrip(t *testing.T) {
	c := qt.New(t)
	s := testStorage(t)

	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	_, err := s.Coordinator(addr)
	c.Assert(err, qt.Equals, ErrNotFound)

	coord := &Coordinator{
		Address: addr,
		PublicKey: types.PublicKey{
			X: types.HexStringToHexBytes("0x01"),
			Y: types.HexStringToHexBytes("0x02"),
		},
		PollIDs: []uint64{0, 3},
	}
	wtx := s.WriteTx()
	c.Assert(s.SetCoordinatorTx(wtx, coord), qt.IsNil)
	c.Assert(wtx.Commit(), qt.IsNil)

	got, err := s.Coordinator(addr)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Address, qt.Equals, addr)
	c.Assert(got.PublicKey.X.String(), qt.Equals, coord.PublicKey.X.String())
	c.Assert(got.PollIDs, qt.DeepEquals, []uint64{0, 3})
}

func TestPollRoundTrip(t *testing.T) {
	c := qt.New(t)
	s := testStorage(t)

	reg := tree.New(4, poseidon.HashFunc)
	_, err := reg.Append(types.HexStringToHexBytes("0x07"))
	c.Assert(err, qt.IsNil)

	poll := &Poll{
		ID:               1,
		Coordinator:      common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		CreatedAt:        100,
		SignupDeadline:   104,
		VotingDeadline:   108,
		State:            types.PollStateCreated,
		RegistrationTree: reg,
		InteractionTree:  tree.New(4, poseidon.HashFunc),
		ProcessCommitment: &types.Commitment{
			Index: 1,
			Data:  util.RandomBytes(32),
		},
	}
	wtx := s.WriteTx()
	c.Assert(s.SetPollTx(wtx, poll), qt.IsNil)
	c.Assert(wtx.Commit(), qt.IsNil)

	got, err := s.Poll(1)
	c.Assert(err, qt.IsNil)
	c.Assert(got.State, qt.Equals, types.PollStateCreated)
	c.Assert(got.RegistrationTree.Count, qt.Equals, uint64(1))
	c.Assert(got.ProcessCommitment.Index, qt.Equals, uint64(1))
	c.Assert(got.ProcessCommitment.Data, qt.DeepEquals, poll.ProcessCommitment.Data)

	// The decoded accumulator keeps its frontier but not its hash binding.
	got.RegistrationTree.Hydrate(poseidon.HashFunc)
	_, err = got.RegistrationTree.Append(types.HexStringToHexBytes("0x08"))
	c.Assert(err, qt.IsNil)
	c.Assert(got.RegistrationTree.Count, qt.Equals, uint64(2))

	_, err = s.Poll(42)
	c.Assert(err, qt.Equals, ErrNotFound)
}

func TestPollCountAndList(t *testing.T) {
	c := qt.New(t)
	s := testStorage(t)

	count, err := s.PollCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(0))

	for i := range uint64(3) {
		wtx := s.WriteTx()
		poll := &Poll{ID: i, State: types.PollStateCreated}
		c.Assert(s.SetPollTx(wtx, poll), qt.IsNil)
		c.Assert(s.SetPollCountTx(wtx, i+1), qt.IsNil)
		c.Assert(wtx.Commit(), qt.IsNil)
	}

	count, err = s.PollCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(3))

	ids, err := s.ListPollIDs()
	c.Assert(err, qt.IsNil)
	c.Assert(ids, qt.DeepEquals, []uint64{0, 1, 2})
}

func TestDiscardedTxLeavesNoState(t *testing.T) {
	c := qt.New(t)
	s := testStorage(t)

	wtx := s.WriteTx()
	c.Assert(s.SetPollTx(wtx, &Poll{ID: 9}), qt.IsNil)
	wtx.Discard()

	_, err := s.Poll(9)
	c.Assert(err, qt.Equals, ErrNotFound)
}

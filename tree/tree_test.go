package tree

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/infimum-dao/infimum-node/crypto/hash/poseidon"
)

func leaf(b byte) []byte {
	l := make([]byte, 32)
	l[31] = b
	return l
}

func TestAppendAndFinalize(t *testing.T) {
	c := qt.New(t)

	a := New(2, poseidon.HashFunc)
	for i := byte(0); i < 4; i++ {
		index, err := a.Append(leaf(i + 1))
		c.Assert(err, qt.IsNil)
		c.Assert(index, qt.Equals, uint64(i))
	}
	_, err := a.Append(leaf(9))
	c.Assert(err, qt.Equals, ErrTreeFull)

	root, err := a.Finalize()
	c.Assert(err, qt.IsNil)
	c.Assert(root, qt.HasLen, 32)

	// a full tree root must equal the explicitly hashed one
	h01, err := poseidon.HashFunc.Hash(leaf(1), leaf(2))
	c.Assert(err, qt.IsNil)
	h23, err := poseidon.HashFunc.Hash(leaf(3), leaf(4))
	c.Assert(err, qt.IsNil)
	want, err := poseidon.HashFunc.Hash(h01, h23)
	c.Assert(err, qt.IsNil)
	c.Assert(root, qt.DeepEquals, want)

	// finalization is one-shot
	_, err = a.Finalize()
	c.Assert(err, qt.Equals, ErrTreeMerged)
	_, err = a.Append(leaf(9))
	c.Assert(err, qt.Equals, ErrTreeMerged)
}

func TestRootIsOrderSensitive(t *testing.T) {
	c := qt.New(t)

	ab, err := RootOf(poseidon.HashFunc, 4, [][]byte{leaf(1), leaf(2)})
	c.Assert(err, qt.IsNil)
	ba, err := RootOf(poseidon.HashFunc, 4, [][]byte{leaf(2), leaf(1)})
	c.Assert(err, qt.IsNil)
	c.Assert(ab, qt.Not(qt.DeepEquals), ba)
}

func TestEmptyTreeRootIsZeroRoot(t *testing.T) {
	c := qt.New(t)

	zeros, err := Zeros(poseidon.HashFunc, 5)
	c.Assert(err, qt.IsNil)

	root, err := New(5, poseidon.HashFunc).Finalize()
	c.Assert(err, qt.IsNil)
	c.Assert(root, qt.DeepEquals, zeros[5])
}

func TestPartialFillMatchesExplicitPadding(t *testing.T) {
	c := qt.New(t)

	// three leaves in a depth-3 tree, remaining slots padded with nil
	leaves := [][]byte{leaf(7), leaf(8), leaf(9)}
	root, err := RootOf(poseidon.HashFunc, 3, leaves)
	c.Assert(err, qt.IsNil)

	level := make([][]byte, 8)
	for i := range level {
		if i < len(leaves) {
			level[i] = leaves[i]
		} else {
			level[i] = NilLeaf()
		}
	}
	for len(level) > 1 {
		next := make([][]byte, len(level)/2)
		for i := range next {
			h, err := poseidon.HashFunc.Hash(level[2*i], level[2*i+1])
			c.Assert(err, qt.IsNil)
			next[i] = h
		}
		level = next
	}
	c.Assert(root, qt.DeepEquals, level[0])
}

func TestVerifyProof(t *testing.T) {
	c := qt.New(t)

	leaves := [][]byte{leaf(1), leaf(2), leaf(3)}
	root, err := RootOf(poseidon.HashFunc, 2, leaves)
	c.Assert(err, qt.IsNil)

	// siblings for index 2: right neighbour is padding, then the subtree of
	// leaves 0 and 1
	h01, err := poseidon.HashFunc.Hash(leaf(1), leaf(2))
	c.Assert(err, qt.IsNil)
	ok, err := VerifyProof(poseidon.HashFunc, root, leaf(3), 2, [][]byte{NilLeaf(), h01})
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	ok, err = VerifyProof(poseidon.HashFunc, root, leaf(4), 2, [][]byte{NilLeaf(), h01})
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

// Package tree implements the append-only incremental Merkle accumulator
// backing a poll's registration and interaction state. Leaves are keyed by
// insertion order, the frontier keeps one pending subtree hash per level, and
// finalization pads the unfilled slots with a domain-separated nil value.
package tree

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/arbo"
)

var (
	// ErrTreeFull is returned by Append once the tree holds 2^depth leaves.
	ErrTreeFull = errors.New("tree is full")
	// ErrTreeMerged is returned when appending to or re-finalizing an
	// already finalized tree.
	ErrTreeMerged = errors.New("tree is already merged")
	// ErrTreeNotMerged is returned when the root is requested before
	// finalization.
	ErrTreeNotMerged = errors.New("tree is not merged")
)

// nilLeaf is the padding value for unfilled leaf slots. It is derived from a
// domain string rather than any valid leaf encoding, so no participant can
// craft a leaf colliding with padding ("nothing up my sleeve").
var nilLeaf = func() []byte {
	h := new(big.Int).SetBytes(ethcrypto.Keccak256([]byte("infimum.tree.nil")))
	return h.Mod(h, fr.Modulus()).FillBytes(make([]byte, fr.Bytes))
}()

// NilLeaf returns the padding leaf value.
func NilLeaf() []byte {
	return append([]byte(nil), nilLeaf...)
}

// Zeros returns the padding node value for every level from leaf (index 0)
// up to and including the root of a tree of the given depth.
func Zeros(hash arbo.HashFunction, depth uint8) ([][]byte, error) {
	zeros := make([][]byte, depth+1)
	zeros[0] = NilLeaf()
	for i := uint8(0); i < depth; i++ {
		z, err := hash.Hash(zeros[i], zeros[i])
		if err != nil {
			return nil, err
		}
		zeros[i+1] = z
	}
	return zeros, nil
}

// Accumulator is an incremental Merkle tree of fixed depth. The zero value is
// not usable; create it with New and, after decoding from storage, reattach
// the hash function with Hydrate.
type Accumulator struct {
	Depth    uint8    `json:"depth"          cbor:"0,keyasint"`
	Count    uint64   `json:"count"          cbor:"1,keyasint"`
	Frontier [][]byte `json:"frontier"       cbor:"2,keyasint"`
	Root     []byte   `json:"root,omitempty" cbor:"3,keyasint,omitempty"`

	hash arbo.HashFunction
}

// New creates an empty accumulator of the given depth.
func New(depth uint8, hash arbo.HashFunction) *Accumulator {
	return &Accumulator{
		Depth: depth,
		// one slot per level plus one for the root of a full tree
		Frontier: make([][]byte, depth+1),
		hash:     hash,
	}
}

// Hydrate reattaches the hash function after the accumulator has been
// decoded from storage.
func (a *Accumulator) Hydrate(hash arbo.HashFunction) { a.hash = hash }

// Merged reports whether the accumulator has been finalized into a root.
func (a *Accumulator) Merged() bool { return a.Root != nil }

// Full reports whether no further leaves fit.
func (a *Accumulator) Full() bool { return a.Count >= uint64(1)<<a.Depth }

// Append inserts a new right-most leaf and returns its index. The frontier
// is updated in O(depth): left children are cached as the pending sibling of
// their level, right children are combined with the cached sibling and the
// result propagates upward.
func (a *Accumulator) Append(leaf []byte) (uint64, error) {
	if a.Merged() {
		return 0, ErrTreeMerged
	}
	if a.Full() {
		return 0, ErrTreeFull
	}
	index := a.Count
	cur := append([]byte(nil), leaf...)
	idx := index
	for level := uint8(0); ; level++ {
		if idx&1 == 0 {
			a.Frontier[level] = cur
			break
		}
		h, err := a.hash.Hash(a.Frontier[level], cur)
		if err != nil {
			return 0, err
		}
		a.Frontier[level] = nil
		cur = h
		idx >>= 1
	}
	a.Count++
	return index, nil
}

// Finalize computes the root by conceptually padding every unfilled leaf slot
// with the nil leaf. It can be called once; the root is immutable afterwards
// and must be reproducible by the external prover from the identical ordered
// leaf sequence.
func (a *Accumulator) Finalize() ([]byte, error) {
	if a.Merged() {
		return nil, ErrTreeMerged
	}
	if a.Full() {
		// every slot is occupied, the frontier already carries the root
		a.Root = a.Frontier[a.Depth]
		return a.Root, nil
	}
	zeros, err := Zeros(a.hash, a.Depth)
	if err != nil {
		return nil, err
	}
	cur := zeros[0]
	idx := a.Count
	for level := uint8(0); level < a.Depth; level++ {
		if idx&1 == 1 {
			cur, err = a.hash.Hash(a.Frontier[level], cur)
		} else {
			cur, err = a.hash.Hash(cur, zeros[level])
		}
		if err != nil {
			return nil, err
		}
		idx >>= 1
	}
	a.Root = cur
	return a.Root, nil
}

// RootOf computes the root of a tree of the given depth over the exact leaf
// sequence, padded with the nil leaf.
func RootOf(hash arbo.HashFunction, depth uint8, leaves [][]byte) ([]byte, error) {
	t := New(depth, hash)
	for _, leaf := range leaves {
		if _, err := t.Append(leaf); err != nil {
			return nil, err
		}
	}
	return t.Finalize()
}

// VerifyProof checks a Merkle inclusion path for the leaf at the given
// insertion index against a root. Siblings are ordered from the leaf level
// upward; their number fixes the tree depth.
func VerifyProof(hash arbo.HashFunction, root, leaf []byte, index uint64, siblings [][]byte) (bool, error) {
	cur := leaf
	var err error
	for _, sibling := range siblings {
		if index&1 == 1 {
			cur, err = hash.Hash(sibling, cur)
		} else {
			cur, err = hash.Hash(cur, sibling)
		}
		if err != nil {
			return false, err
		}
		index >>= 1
	}
	return string(cur) == string(root), nil
}

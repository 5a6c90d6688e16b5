// Package poseidon implements the field hash capability used by the poll
// state trees: Poseidon over the BN254 scalar field with big-endian byte
// encoding at the boundary.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/vocdoni/arbo"
)

// HashFunc is the production hash function for the poll state trees.
var HashFunc arbo.HashFunction = BigEndianPoseidon{}

// BigEndianPoseidon implements arbo.HashFunction. Unlike arbo's stock
// Poseidon it interprets every input as a big-endian field value reduced
// modulo the BN254 scalar field, matching the encoding of the proving
// circuits.
type BigEndianPoseidon struct{}

func (BigEndianPoseidon) Type() []byte { return []byte("poseidon_be") }

func (BigEndianPoseidon) Len() int { return fr.Bytes }

func (f BigEndianPoseidon) Hash(inputs ...[]byte) ([]byte, error) {
	elems := make([]*big.Int, len(inputs))
	for i, b := range inputs {
		elems[i] = new(big.Int).Mod(new(big.Int).SetBytes(b), fr.Modulus())
	}
	h, err := MultiPoseidon(elems...)
	if err != nil {
		return nil, err
	}
	return h.FillBytes(make([]byte, f.Len())), nil
}

// MultiPoseidon hashes an arbitrary number of field elements by chunking
// them into Poseidon permutations of width 16 and hashing the chunk results
// together. Up to 256 inputs are supported.
func MultiPoseidon(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) > 256 {
		return nil, fmt.Errorf("too many inputs")
	} else if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs provided")
	}
	// calculate chunk hashes
	hashes := []*big.Int{}
	chunk := []*big.Int{}
	for _, input := range inputs {
		if len(chunk) == 16 {
			hash, err := poseidon.Hash(chunk)
			if err != nil {
				return nil, err
			}
			hashes = append(hashes, hash)
			chunk = []*big.Int{}
		}
		chunk = append(chunk, input)
	}
	// if the final chunk is not empty, hash it to get the last chunk hash
	if len(chunk) > 0 {
		hash, err := poseidon.Hash(chunk)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	// if there is only one chunk hash, return it
	if len(hashes) == 1 {
		return hashes[0], nil
	}
	// return the hash of all chunk hashes
	return poseidon.Hash(hashes)
}

package engine

import (
	"math/big"

	"github.com/infimum-dao/infimum-node/types"
	"github.com/vocdoni/arbo"
)

// registrationLeaf commits a participant to the registration tree as
// Poseidon(pk.x, pk.y, credit, block) with a fixed voice credit of one. The
// encoding must match the one the tally circuit reconstructs.
func registrationLeaf(hash arbo.HashFunction, pk types.PublicKey, block uint64) ([]byte, error) {
	one := types.FieldFromBigInt(big.NewInt(1))
	blockField := types.FieldFromBigInt(new(big.Int).SetUint64(block))
	return hash.Hash(pk.X, pk.Y, one, blockField)
}

// interactionLeaf commits an encrypted interaction as
// Poseidon(Poseidon(data[0:5]), Poseidon(data[5:10]), epk.x, epk.y). Only the
// first ten payload words enter the leaf; the remaining words ride along for
// the processing circuit and are bound by the commitment chain instead.
func interactionLeaf(hash arbo.HashFunction, epk types.PublicKey, data []types.HexBytes) ([]byte, error) {
	left, err := hash.Hash(data[0], data[1], data[2], data[3], data[4])
	if err != nil {
		return nil, err
	}
	right, err := hash.Hash(data[5], data[6], data[7], data[8], data[9])
	if err != nil {
		return nil, err
	}
	return hash.Hash(left, right, epk.X, epk.Y)
}

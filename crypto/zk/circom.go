package zk

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/vocdoni/circom2gnark/parser"

	"github.com/infimum-dao/infimum-node/types"
	"github.com/infimum-dao/infimum-node/util"
)

// This file adapts snarkjs artifacts to the protocol wire format. Coordinator
// tooling built on circom produces proofs and verification keys as JSON with
// decimal coordinate strings; here they are parsed with circom2gnark and
// re-encoded as uncompressed points.

// ProofFromCircomJSON converts a snarkjs proof JSON document into the
// protocol proof encoding.
func ProofFromCircomJSON(data []byte) (*types.Proof, error) {
	circomProof, err := parser.UnmarshalCircomProofJSON(data)
	if err != nil {
		return nil, err
	}
	piA, err := g1FromDecimal(circomProof.PiA)
	if err != nil {
		return nil, fmt.Errorf("pi_a: %w", err)
	}
	piB, err := g2FromDecimal(circomProof.PiB)
	if err != nil {
		return nil, fmt.Errorf("pi_b: %w", err)
	}
	piC, err := g1FromDecimal(circomProof.PiC)
	if err != nil {
		return nil, fmt.Errorf("pi_c: %w", err)
	}
	return &types.Proof{PiA: piA, PiB: piB, PiC: piC}, nil
}

// VerifyingKeyFromCircomJSON converts a snarkjs verification key JSON
// document into the protocol verifying key encoding.
func VerifyingKeyFromCircomJSON(data []byte) (*types.VerifyingKey, error) {
	circomVk, err := parser.UnmarshalCircomVerificationKeyJSON(data)
	if err != nil {
		return nil, err
	}
	alpha, err := g1FromDecimal(circomVk.VkAlpha1)
	if err != nil {
		return nil, fmt.Errorf("vk_alpha_1: %w", err)
	}
	beta, err := g2FromDecimal(circomVk.VkBeta2)
	if err != nil {
		return nil, fmt.Errorf("vk_beta_2: %w", err)
	}
	gamma, err := g2FromDecimal(circomVk.VkGamma2)
	if err != nil {
		return nil, fmt.Errorf("vk_gamma_2: %w", err)
	}
	delta, err := g2FromDecimal(circomVk.VkDelta2)
	if err != nil {
		return nil, fmt.Errorf("vk_delta_2: %w", err)
	}
	ic := make([]types.HexBytes, len(circomVk.IC))
	for i, point := range circomVk.IC {
		p, err := g1FromDecimal(point)
		if err != nil {
			return nil, fmt.Errorf("IC[%d]: %w", i, err)
		}
		ic[i] = p
	}
	return &types.VerifyingKey{
		AlphaG1:    alpha,
		BetaG2:     beta,
		GammaG2:    gamma,
		DeltaG2:    delta,
		GammaABCG1: ic,
	}, nil
}

// PublicSignalsFromCircomJSON parses a snarkjs public signals JSON document
// into field elements.
func PublicSignalsFromCircomJSON(data []byte) ([]*big.Int, error) {
	signals, err := parser.UnmarshalCircomPublicSignalsJSON(data)
	if err != nil {
		return nil, err
	}
	out := make([]*big.Int, len(signals))
	for i, s := range signals {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid public signal %q", s)
		}
		out[i] = util.BigToFF(v)
	}
	return out, nil
}

// snarkjs represents G1 points as projective [x, y, z] decimal strings with
// z equal to 1, or z equal to 0 for the point at infinity.
func g1FromDecimal(coords []string) (types.HexBytes, error) {
	if len(coords) != 3 {
		return nil, fmt.Errorf("expected 3 coordinates, got %d", len(coords))
	}
	var p bn254.G1Affine
	if coords[2] == "0" {
		raw := p.RawBytes() // infinity
		return raw[:], nil
	}
	if coords[2] != "1" {
		return nil, fmt.Errorf("unexpected projective z coordinate %q", coords[2])
	}
	if _, err := p.X.SetString(coords[0]); err != nil {
		return nil, err
	}
	if _, err := p.Y.SetString(coords[1]); err != nil {
		return nil, err
	}
	if !p.IsOnCurve() {
		return nil, fmt.Errorf("point is not on the curve")
	}
	raw := p.RawBytes()
	return raw[:], nil
}

func g2FromDecimal(coords [][]string) (types.HexBytes, error) {
	if len(coords) != 3 {
		return nil, fmt.Errorf("expected 3 coordinate pairs, got %d", len(coords))
	}
	for i, pair := range coords {
		if len(pair) != 2 {
			return nil, fmt.Errorf("coordinate pair %d has %d elements", i, len(pair))
		}
	}
	var p bn254.G2Affine
	if coords[2][0] == "0" && coords[2][1] == "0" {
		raw := p.RawBytes() // infinity
		return raw[:], nil
	}
	if coords[2][0] != "1" || coords[2][1] != "0" {
		return nil, fmt.Errorf("unexpected projective z coordinate")
	}
	var err error
	if err = setFq2(&p.X, coords[0]); err != nil {
		return nil, err
	}
	if err = setFq2(&p.Y, coords[1]); err != nil {
		return nil, err
	}
	if !p.IsOnCurve() {
		return nil, fmt.Errorf("point is not on the curve")
	}
	raw := p.RawBytes()
	return raw[:], nil
}

func setFq2(e *bn254.E2, pair []string) error {
	if _, err := e.A0.SetString(pair[0]); err != nil {
		return err
	}
	if _, err := e.A1.SetString(pair[1]); err != nil {
		return err
	}
	return nil
}

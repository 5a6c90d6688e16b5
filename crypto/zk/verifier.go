// Package zk implements the proof verifier capability of the poll engine:
// Groth16 over BN254. Proofs and verification keys cross the boundary as
// uncompressed big-endian curve points, the format produced by the client
// tooling.
package zk

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/infimum-dao/infimum-node/types"
)

// ErrProofInvalid is returned when a well-formed proof does not verify.
var ErrProofInvalid = errors.New("proof verification failed")

// Verifier is the capability interface consumed by the poll engine. Implementations
// must treat publicInputs as field elements in the proof system's scalar field.
type Verifier interface {
	Verify(proof *types.Proof, vk *types.VerifyingKey, publicInputs []*big.Int) error
}

// VerifierFunc adapts a plain function to the Verifier interface.
type VerifierFunc func(proof *types.Proof, vk *types.VerifyingKey, publicInputs []*big.Int) error

func (f VerifierFunc) Verify(proof *types.Proof, vk *types.VerifyingKey, publicInputs []*big.Int) error {
	return f(proof, vk, publicInputs)
}

// Groth16Verifier verifies Groth16 proofs with a BN254 pairing check:
//
//	e(A, B) == e(alpha, beta) * e(sum_i input_i*K_i, gamma) * e(C, delta)
type Groth16Verifier struct{}

func (Groth16Verifier) Verify(proof *types.Proof, vk *types.VerifyingKey, publicInputs []*big.Int) error {
	if err := proof.Valid(); err != nil {
		return err
	}
	if !vk.Valid() {
		return fmt.Errorf("malformed verifying key")
	}
	if len(publicInputs)+1 != len(vk.GammaABCG1) {
		return fmt.Errorf("got %d public inputs, verifying key expects %d",
			len(publicInputs), len(vk.GammaABCG1)-1)
	}

	var a, c bn254.G1Affine
	var b bn254.G2Affine
	if err := decodeG1(&a, proof.PiA); err != nil {
		return fmt.Errorf("pi_a: %w", err)
	}
	if err := decodeG2(&b, proof.PiB); err != nil {
		return fmt.Errorf("pi_b: %w", err)
	}
	if err := decodeG1(&c, proof.PiC); err != nil {
		return fmt.Errorf("pi_c: %w", err)
	}

	var alpha bn254.G1Affine
	var beta, gamma, delta bn254.G2Affine
	if err := decodeG1(&alpha, vk.AlphaG1); err != nil {
		return fmt.Errorf("alpha_g1: %w", err)
	}
	if err := decodeG2(&beta, vk.BetaG2); err != nil {
		return fmt.Errorf("beta_g2: %w", err)
	}
	if err := decodeG2(&gamma, vk.GammaG2); err != nil {
		return fmt.Errorf("gamma_g2: %w", err)
	}
	if err := decodeG2(&delta, vk.DeltaG2); err != nil {
		return fmt.Errorf("delta_g2: %w", err)
	}

	// fold the public inputs into the gamma_abc linear combination
	var acc bn254.G1Affine
	if err := decodeG1(&acc, vk.GammaABCG1[0]); err != nil {
		return fmt.Errorf("gamma_abc_g1[0]: %w", err)
	}
	for i, input := range publicInputs {
		var k, term bn254.G1Affine
		if err := decodeG1(&k, vk.GammaABCG1[i+1]); err != nil {
			return fmt.Errorf("gamma_abc_g1[%d]: %w", i+1, err)
		}
		term.ScalarMultiplication(&k, new(big.Int).Mod(input, fr.Modulus()))
		acc.Add(&acc, &term)
	}

	var negA bn254.G1Affine
	negA.Neg(&a)
	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{negA, alpha, acc, c},
		[]bn254.G2Affine{b, beta, gamma, delta},
	)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProofInvalid
	}
	return nil
}

func decodeG1(p *bn254.G1Affine, raw []byte) error {
	if len(raw) != bn254.SizeOfG1AffineUncompressed {
		return fmt.Errorf("invalid G1 point length %d", len(raw))
	}
	if _, err := p.SetBytes(raw); err != nil {
		return fmt.Errorf("invalid G1 point: %w", err)
	}
	return nil
}

func decodeG2(p *bn254.G2Affine, raw []byte) error {
	if len(raw) != bn254.SizeOfG2AffineUncompressed {
		return fmt.Errorf("invalid G2 point length %d", len(raw))
	}
	if _, err := p.SetBytes(raw); err != nil {
		return fmt.Errorf("invalid G2 point: %w", err)
	}
	return nil
}

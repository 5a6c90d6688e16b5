package types

import "fmt"

// PublicKey is a point on the protocol curve used to facilitate secret
// sharing between participants and coordinators. Both coordinates are
// 32-byte big-endian field values.
type PublicKey struct {
	X HexBytes `json:"x" cbor:"0,keyasint"`
	Y HexBytes `json:"y" cbor:"1,keyasint"`
}

// Valid reports whether both coordinates have the expected width.
func (pk *PublicKey) Valid() bool {
	return pk != nil && len(pk.X) == FieldSize && len(pk.Y) == FieldSize
}

// VerifyingKey is a Groth16 verification key. The points are uncompressed
// BN254 group elements with big-endian coordinates.
type VerifyingKey struct {
	AlphaG1    HexBytes   `json:"alpha_g1"     cbor:"0,keyasint"`
	BetaG2     HexBytes   `json:"beta_g2"      cbor:"1,keyasint"`
	GammaG2    HexBytes   `json:"gamma_g2"     cbor:"2,keyasint"`
	DeltaG2    HexBytes   `json:"delta_g2"     cbor:"3,keyasint"`
	GammaABCG1 []HexBytes `json:"gamma_abc_g1" cbor:"4,keyasint"`
}

// Valid performs a shallow shape check of the key material. Curve membership
// is checked when the key is actually deserialized by the verifier.
func (vk *VerifyingKey) Valid() bool {
	if vk == nil {
		return false
	}
	if len(vk.AlphaG1) != G1PointSize ||
		len(vk.BetaG2) != G2PointSize ||
		len(vk.GammaG2) != G2PointSize ||
		len(vk.DeltaG2) != G2PointSize {
		return false
	}
	if len(vk.GammaABCG1) == 0 {
		return false
	}
	for _, p := range vk.GammaABCG1 {
		if len(p) != G1PointSize {
			return false
		}
	}
	return true
}

// VerifyingKeys groups the two verification keys a coordinator commits to:
// one for the interaction processing circuit and one for the tally circuit.
type VerifyingKeys struct {
	Process VerifyingKey `json:"processKey" cbor:"0,keyasint"`
	Tally   VerifyingKey `json:"tallyKey"   cbor:"1,keyasint"`
}

func (vks *VerifyingKeys) Valid() bool {
	return vks != nil && vks.Process.Valid() && vks.Tally.Valid()
}

// Proof is a serialized Groth16 proof: PiA and PiC are uncompressed G1
// points, PiB an uncompressed G2 point.
type Proof struct {
	PiA HexBytes `json:"pi_a" cbor:"0,keyasint"`
	PiB HexBytes `json:"pi_b" cbor:"1,keyasint"`
	PiC HexBytes `json:"pi_c" cbor:"2,keyasint"`
}

func (p *Proof) Valid() error {
	if p == nil {
		return fmt.Errorf("nil proof")
	}
	if len(p.PiA) != G1PointSize || len(p.PiC) != G1PointSize {
		return fmt.Errorf("malformed G1 point length")
	}
	if len(p.PiB) != G2PointSize {
		return fmt.Errorf("malformed G2 point length")
	}
	return nil
}

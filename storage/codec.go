package storage

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encodeArtifact encodes the artifact using deterministic CBOR, so identical
// state always serializes to identical bytes.
func encodeArtifact(artifact any) ([]byte, error) {
	opts := cbor.CoreDetEncOptions()
	enc, err := opts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("could not create CBOR encoder: %w", err)
	}
	data, err := enc.Marshal(artifact)
	if err != nil {
		return nil, fmt.Errorf("could not encode artifact: %w", err)
	}
	return data, nil
}

func decodeArtifact(data []byte, out any) error {
	if err := cbor.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode artifact: %w", err)
	}
	return nil
}

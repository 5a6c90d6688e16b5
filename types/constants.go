package types

const (
	// FieldSize is the width in bytes of a serialized field element. All
	// numeric field values at the protocol boundary are big-endian and
	// zero-padded on the left to this width.
	FieldSize = 32

	// G1PointSize and G2PointSize are the widths of uncompressed BN254
	// curve points at the protocol boundary.
	G1PointSize = 64
	G2PointSize = 128

	// InteractionDataWords is the number of field words carried by a poll
	// interaction payload (the encrypted message plus its MAC, as produced
	// by the client tooling).
	InteractionDataWords = 16
)

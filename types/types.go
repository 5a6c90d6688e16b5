package types

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/infimum-dao/infimum-node/util"
)

// HexBytes is a []byte which encodes as hexadecimal in json, as opposed to the
// base64 default.
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

// BigInt interprets the bytes as a big-endian unsigned integer.
func (b HexBytes) BigInt() *big.Int {
	return new(big.Int).SetBytes(b)
}

func (b HexBytes) MarshalJSON() ([]byte, error) {
	enc := make([]byte, hex.EncodedLen(len(b))+4)
	enc[0] = '"'
	enc[1] = '0'
	enc[2] = 'x'
	hex.Encode(enc[3:], b)
	enc[len(enc)-1] = '"'
	return enc, nil
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid JSON string: %q", data)
	}
	data = data[1 : len(data)-1]
	// strip optional "0x" prefix
	if len(data) >= 2 && data[0] == '0' && (data[1] == 'x' || data[1] == 'X') {
		data = data[2:]
	}
	decLen := hex.DecodedLen(len(data))
	if cap(*b) < decLen {
		*b = make([]byte, decLen)
	}
	if _, err := hex.Decode(*b, data); err != nil {
		return err
	}
	return nil
}

// HexStringToHexBytes converts a hex string to a HexBytes. It strips a leading
// '0x' or '0X' if present and returns nil for invalid hex strings.
func HexStringToHexBytes(s string) HexBytes {
	b, err := hex.DecodeString(util.TrimHex(s))
	if err != nil {
		return nil
	}
	return b
}

// FieldFromBigInt encodes a big integer as a fixed 32-byte big-endian field
// value, zero-padded on the left.
func FieldFromBigInt(i *big.Int) HexBytes {
	return i.FillBytes(make([]byte, FieldSize))
}

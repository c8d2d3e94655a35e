package metadata

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
)

// FeeSize is the width of a fixed-point fee in bytes.
const FeeSize = 16

// Fee is an unsigned 128-bit amount in minor units, stored as its
// little-endian byte layout. The JSON form is the hex of those raw bytes.
type Fee [FeeSize]byte

// ZeroFee is the encoding used when an optional fee is absent.
var ZeroFee Fee

var maxFee = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// FeeFromUint64 encodes v as a 128-bit little-endian fee.
func FeeFromUint64(v uint64) Fee {
	var f Fee
	binary.LittleEndian.PutUint64(f[:8], v)
	return f
}

// FeeFromBig encodes v, which must fit in 128 unsigned bits.
func FeeFromBig(v *big.Int) (Fee, error) {
	var f Fee
	if v.Sign() < 0 || v.Cmp(maxFee) > 0 {
		return f, fmt.Errorf("fee %s out of u128 range", v)
	}
	be := v.Bytes()
	for i, b := range be {
		f[len(be)-1-i] = b
	}
	return f, nil
}

// Big decodes the fee into an integer.
func (f Fee) Big() *big.Int {
	be := make([]byte, FeeSize)
	for i := range f {
		be[FeeSize-1-i] = f[i]
	}
	return new(big.Int).SetBytes(be)
}

// Lo and Hi return the low and high 64-bit halves.
func (f Fee) Lo() uint64 { return binary.LittleEndian.Uint64(f[:8]) }
func (f Fee) Hi() uint64 { return binary.LittleEndian.Uint64(f[8:]) }

func (f Fee) IsZero() bool {
	return f == ZeroFee
}

func (f Fee) String() string {
	return f.Big().String()
}

func (f Fee) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(f[:])), nil
}

func (f *Fee) UnmarshalText(text []byte) error {
	return decodeFixedHex(text, f[:], "fee")
}

// Hash is a 32-byte content hash.
type Hash [32]byte

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h[:])), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	return decodeFixedHex(text, h[:], "hash")
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func decodeFixedHex(text []byte, dst []byte, what string) error {
	if len(text) >= 2 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X') {
		text = text[2:]
	}
	if hex.DecodedLen(len(text)) != len(dst) {
		return fmt.Errorf("%s: expected %d hex bytes, got %d characters", what, len(dst), len(text))
	}
	if _, err := hex.Decode(dst, text); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

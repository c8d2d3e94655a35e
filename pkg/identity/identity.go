// Package identity holds the 32-byte public keys that identify files and
// accounts, and their SS58 text form.
package identity

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// KeySize is the length of a public key and of a chain account id.
const KeySize = 32

// DefaultPrefix is the generic Substrate SS58 network prefix used when keys
// are rendered as text.
const DefaultPrefix byte = 42

// ErrInvalidKey is returned when bytes or text cannot be reconstructed into a key.
var ErrInvalidKey = errors.New("invalid public key")

var ss58Preimage = []byte("SS58PRE")

// PublicKey is an opaque 32-byte public key.
type PublicKey [KeySize]byte

// AccountID is the chain's native representation of a PublicKey.
type AccountID [KeySize]byte

// AccountID reinterprets the key as a chain account id. The bytes are unchanged.
func (k PublicKey) AccountID() AccountID {
	return AccountID(k)
}

// PublicKey reinterprets the account id as a public key.
func (a AccountID) PublicKey() PublicKey {
	return PublicKey(a)
}

func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// FromAccountBytes reconstructs a key from raw account bytes.
func FromAccountBytes(b []byte) (PublicKey, error) {
	var k PublicKey
	if len(b) != KeySize {
		return k, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(b), KeySize)
	}
	copy(k[:], b)
	return k, nil
}

// IsZero reports whether all key bytes are zero.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// Hex returns the 0x-prefixed hex form of the key.
func (k PublicKey) Hex() string {
	return "0x" + hex.EncodeToString(k[:])
}

// SS58 encodes the key as an SS58 address with the given network prefix.
// Only single-byte prefixes (0..63) are supported.
func (k PublicKey) SS58(prefix byte) string {
	payload := make([]byte, 0, 1+KeySize+2)
	payload = append(payload, prefix)
	payload = append(payload, k[:]...)
	sum := ss58Checksum(payload)
	payload = append(payload, sum[:2]...)
	return base58.Encode(payload)
}

func (k PublicKey) String() string {
	return k.SS58(DefaultPrefix)
}

// Parse accepts an SS58 address or 0x-prefixed hex.
func Parse(s string) (PublicKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		raw, err := hex.DecodeString(s[2:])
		if err != nil {
			return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return FromAccountBytes(raw)
	}
	return parseSS58(s)
}

func parseSS58(s string) (PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != 1+KeySize+2 {
		return PublicKey{}, fmt.Errorf("%w: unexpected ss58 length %d", ErrInvalidKey, len(raw))
	}
	if raw[0] > 63 {
		return PublicKey{}, fmt.Errorf("%w: unsupported ss58 prefix %d", ErrInvalidKey, raw[0])
	}
	body := raw[:1+KeySize]
	sum := ss58Checksum(body)
	if !bytes.Equal(sum[:2], raw[1+KeySize:]) {
		return PublicKey{}, fmt.Errorf("%w: ss58 checksum mismatch", ErrInvalidKey)
	}
	return FromAccountBytes(raw[1 : 1+KeySize])
}

func ss58Checksum(payload []byte) [blake2b.Size]byte {
	buf := make([]byte, 0, len(ss58Preimage)+len(payload))
	buf = append(buf, ss58Preimage...)
	buf = append(buf, payload...)
	return blake2b.Sum512(buf)
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

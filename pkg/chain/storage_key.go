package chain

import (
	"encoding/binary"

	"github.com/nagara-network/metaquery/pkg/identity"
	"github.com/pierrec/xxHash/xxHash64"
	"golang.org/x/crypto/blake2b"
)

// twox128 is the Substrate storage hasher used for pallet and item names:
// two xxHash64 rounds with seeds 0 and 1, each little-endian.
func twox128(data []byte) []byte {
	out := make([]byte, 16)
	for seed := 0; seed < 2; seed++ {
		h := xxHash64.New(uint64(seed))
		_, _ = h.Write(data)
		binary.LittleEndian.PutUint64(out[seed*8:], h.Sum64())
	}
	return out
}

func blake2_128(data []byte) []byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// only fails for invalid sizes or keys
		panic(err)
	}
	_, _ = h.Write(data)
	return h.Sum(nil)
}

// StoragePrefix returns the key prefix of a storage map.
func StoragePrefix(pallet, item string) []byte {
	prefix := make([]byte, 0, 32)
	prefix = append(prefix, twox128([]byte(pallet))...)
	prefix = append(prefix, twox128([]byte(item))...)
	return prefix
}

// StorageKey builds the blake2_128_concat map key for id under prefix.
func StorageKey(prefix []byte, id identity.AccountID) []byte {
	key := make([]byte, 0, len(prefix)+16+identity.KeySize)
	key = append(key, prefix...)
	key = append(key, blake2_128(id[:])...)
	key = append(key, id[:]...)
	return key
}

package metadata

import (
	"encoding/json"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeeRoundTrip(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(255),
		big.NewInt(256),
		new(big.Int).SetUint64(^uint64(0)),
		new(big.Int).Lsh(big.NewInt(1), 64),
		max,
	}

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 64; i++ {
		values = append(values, new(big.Int).Rand(r, max))
	}

	for _, v := range values {
		f, err := FeeFromBig(v)
		require.NoError(t, err)
		require.Equal(t, 0, v.Cmp(f.Big()), "value %s", v)

		text, err := f.MarshalText()
		require.NoError(t, err)
		var back Fee
		require.NoError(t, back.UnmarshalText(text))
		require.Equal(t, f, back)
	}
}

func TestFeeLittleEndianLayout(t *testing.T) {
	f := FeeFromUint64(1)
	text, err := f.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "01000000000000000000000000000000", string(text))
	require.Equal(t, uint64(1), f.Lo())
	require.Equal(t, uint64(0), f.Hi())

	hi, err := FeeFromBig(new(big.Int).Lsh(big.NewInt(1), 120))
	require.NoError(t, err)
	text, err = hi.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "00000000000000000000000000000001", string(text))
}

func TestFeeMaxValue(t *testing.T) {
	var f Fee
	require.NoError(t, f.UnmarshalText([]byte("ffffffffffffffffffffffffffffffff")))
	require.Equal(t, "340282366920938463463374607431768211455", f.String())
	require.Equal(t, ^uint64(0), f.Lo())
	require.Equal(t, ^uint64(0), f.Hi())
}

func TestFeeFromBigOutOfRange(t *testing.T) {
	_, err := FeeFromBig(new(big.Int).Lsh(big.NewInt(1), 128))
	require.Error(t, err)

	_, err = FeeFromBig(big.NewInt(-1))
	require.Error(t, err)
}

func TestFeeUnmarshalRejectsBadInput(t *testing.T) {
	var f Fee
	require.Error(t, f.UnmarshalText([]byte("0100")))
	require.Error(t, f.UnmarshalText([]byte("zz000000000000000000000000000000")))
	require.NoError(t, f.UnmarshalText([]byte("0x01000000000000000000000000000000")))
	require.Equal(t, uint64(1), f.Lo())
}

func TestHashJSON(t *testing.T) {
	var h Hash
	for i := range h {
		h[i] = byte(i)
	}
	data, err := json.Marshal(h)
	require.NoError(t, err)
	require.Equal(t, `"000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"`, string(data))

	var back Hash
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, h, back)

	require.Error(t, json.Unmarshal([]byte(`"abcd"`), &back))
}

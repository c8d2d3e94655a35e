package chain

import (
	"encoding/hex"
	"testing"

	"github.com/nagara-network/metaquery/pkg/identity"
	"github.com/stretchr/testify/require"
)

func TestTwox128(t *testing.T) {
	require.Equal(t, "26aa394eea5630e07c48ae0c9558cef7", hex.EncodeToString(twox128([]byte("System"))))
	require.Equal(t, "b99d880ec681799c0cf30e8886371da9", hex.EncodeToString(twox128([]byte("Account"))))
}

func TestStoragePrefix(t *testing.T) {
	got := hex.EncodeToString(StoragePrefix(DefaultPallet, DefaultStorageItem))
	require.Equal(t, "84025e2a23c18e34a73b7d6cd9360461b5f3822e35ca2f31ce3526eab1363fd2", got)
}

func TestStorageKey(t *testing.T) {
	alice, err := identity.Parse("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY")
	require.NoError(t, err)

	// System.Account(alice), a well known key
	want := "26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9" +
		"de1e86a9a8c739864cf3cc5ec2bea59f" +
		"d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

	got := StorageKey(StoragePrefix("System", "Account"), alice.AccountID())
	require.Equal(t, want, hex.EncodeToString(got))
}

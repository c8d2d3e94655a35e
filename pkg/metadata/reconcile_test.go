package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nagara-network/metaquery/pkg/identity"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	records map[identity.AccountID]OnchainRecord
	err     error
	calls   []identity.AccountID
}

func (f *fakeFetcher) FetchFile(ctx context.Context, id identity.AccountID) (OnchainRecord, bool, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return OnchainRecord{}, false, f.err
	}
	rec, ok := f.records[id]
	return rec, ok, nil
}

func key(b byte) identity.PublicKey {
	var k identity.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func ptr[T any](v T) *T { return &v }

func sampleOffchain() OffchainRecord {
	return OffchainRecord{
		ID:              key(1),
		Filename:        "invoice-2024.pdf",
		ContentType:     "application/pdf",
		UploadedAt:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		DownloadCounter: 42,
		Descriptions:    "march invoice",
		// stale copies that must lose against the ledger
		Uploader: ptr(key(0xee)),
		Size:     ptr(uint64(1)),
		Hash:     &Hash{0xee},
	}
}

func sampleOnchain() OnchainRecord {
	return OnchainRecord{
		Uploader:    key(2),
		BigBrother:  key(3),
		Servicer:    key(4),
		Owner:       key(5),
		TransferFee: FeeFromUint64(1),
		Size:        2048,
		Hash:        Hash{0xaa, 0xbb},
	}
}

func TestMergePrecedence(t *testing.T) {
	off := sampleOffchain()
	on := sampleOnchain()
	on.Attester = ptr(key(6))
	on.DownloadFee = ptr(FeeFromUint64(500))

	got := Merge(off, on)

	require.Equal(t, off.ID, got.ID)
	require.Equal(t, on.Uploader, got.Uploader)
	require.Equal(t, on.BigBrother, got.BigBrother)
	require.Equal(t, on.Servicer, got.Servicer)
	require.Equal(t, on.Owner, got.Owner)
	require.Equal(t, key(6), *got.Attester)
	require.Equal(t, on.TransferFee, got.TransferFee)
	require.Equal(t, FeeFromUint64(500), got.DownloadFee)
	require.Equal(t, on.Size, got.Size)
	require.Equal(t, on.Hash, got.Hash)

	require.Equal(t, off.Filename, got.Filename)
	require.Equal(t, off.ContentType, got.ContentType)
	require.Equal(t, off.UploadedAt, got.UploadedAt)
	require.Equal(t, off.DownloadCounter, got.DownloadCounter)
	require.Equal(t, off.Descriptions, got.Descriptions)
}

func TestMergeAbsentOptionalFields(t *testing.T) {
	got := Merge(sampleOffchain(), sampleOnchain())

	require.Equal(t, ZeroFee, got.DownloadFee)
	require.Equal(t, [FeeSize]byte{}, [FeeSize]byte(got.DownloadFee))
	require.Nil(t, got.Attester)

	data, err := json.Marshal(got)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	require.Equal(t, "00000000000000000000000000000000", fields["download_fee"])
	require.Equal(t, "01000000000000000000000000000000", fields["transfer_fee"])
	require.Nil(t, fields["attester"])
	require.Equal(t, "2024-03-01T10:00:00Z", fields["uploaded_at"])
	require.EqualValues(t, 2048, fields["size"])
}

func TestMergeDoesNotAliasAttester(t *testing.T) {
	on := sampleOnchain()
	on.Attester = ptr(key(9))

	got := Merge(sampleOffchain(), on)
	*on.Attester = key(8)

	require.Equal(t, key(9), *got.Attester)
}

func TestReconcile(t *testing.T) {
	off := sampleOffchain()
	f := &fakeFetcher{records: map[identity.AccountID]OnchainRecord{
		off.ID.AccountID(): sampleOnchain(),
	}}

	got, err := Reconcile(context.Background(), off, f)
	require.NoError(t, err)
	require.Equal(t, key(2), got.Uploader)
	require.Equal(t, []identity.AccountID{off.ID.AccountID()}, f.calls)

	// no caching between calls
	_, err = Reconcile(context.Background(), off, f)
	require.NoError(t, err)
	require.Len(t, f.calls, 2)
}

func TestReconcileMissing(t *testing.T) {
	f := &fakeFetcher{records: map[identity.AccountID]OnchainRecord{}}

	_, err := Reconcile(context.Background(), sampleOffchain(), f)
	require.ErrorIs(t, err, ErrMissingOnchainRecord)
}

func TestReconcileFetchError(t *testing.T) {
	boom := errors.New("connection reset")
	f := &fakeFetcher{err: boom}

	_, err := Reconcile(context.Background(), sampleOffchain(), f)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrMissingOnchainRecord)
}

func TestFromOffchain(t *testing.T) {
	off := sampleOffchain()
	off.BigBrother = ptr(key(3))
	off.Servicer = ptr(key(4))
	off.Owner = ptr(key(5))
	off.TransferFee = ptr(FeeFromUint64(9))

	got, err := FromOffchain(off)
	require.NoError(t, err)
	require.Equal(t, key(0xee), got.Uploader)
	require.Equal(t, uint64(1), got.Size)
	require.Equal(t, ZeroFee, got.DownloadFee)
	require.Equal(t, FeeFromUint64(9), got.TransferFee)

	off.Owner = nil
	_, err = FromOffchain(off)
	require.ErrorIs(t, err, ErrIncompleteRecord)
}

func TestOffchainRecordDecode(t *testing.T) {
	doc := `{
		"id": "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		"filename": "a.txt",
		"content_type": "text/plain",
		"uploaded_at": "2024-01-02T03:04:05Z",
		"download_counter": 3,
		"descriptions": "notes",
		"download_fee": "02000000000000000000000000000000"
	}`

	var off OffchainRecord
	require.NoError(t, json.Unmarshal([]byte(doc), &off))
	require.Equal(t, "a.txt", off.Filename)
	require.Equal(t, uint64(3), off.DownloadCounter)
	require.NotNil(t, off.DownloadFee)
	require.Equal(t, uint64(2), off.DownloadFee.Lo())
	require.Nil(t, off.Uploader)
	require.Nil(t, off.Size)
}

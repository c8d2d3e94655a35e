package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/nagara-network/metaquery/pkg/identity"
)

var (
	// ErrMissingOnchainRecord means an indexed file has no ledger entry.
	ErrMissingOnchainRecord = errors.New("bad metadata processing: no on-chain record")

	// ErrIncompleteRecord means an off-chain document lacks a field that only
	// the ledger could have supplied.
	ErrIncompleteRecord = errors.New("incomplete off-chain record")
)

// Fetcher reads one on-chain record. found is false when the ledger has no
// entry for the account.
type Fetcher interface {
	FetchFile(ctx context.Context, id identity.AccountID) (rec OnchainRecord, found bool, err error)
}

// Reconcile fetches the ledger entry for off and merges the two. Every call
// performs exactly one fetch.
func Reconcile(ctx context.Context, off OffchainRecord, f Fetcher) (NormalizedRecord, error) {
	on, found, err := f.FetchFile(ctx, off.ID.AccountID())
	if err != nil {
		return NormalizedRecord{}, fmt.Errorf("fetching %s: %w", off.ID, err)
	}
	if !found {
		return NormalizedRecord{}, fmt.Errorf("%w: %s", ErrMissingOnchainRecord, off.ID)
	}
	return Merge(off, on), nil
}

// Merge combines both sources. Ledger values win for every field the ledger
// holds; descriptive fields come from the index; the id is always the
// off-chain join key.
func Merge(off OffchainRecord, on OnchainRecord) NormalizedRecord {
	downloadFee := ZeroFee
	if on.DownloadFee != nil {
		downloadFee = *on.DownloadFee
	}

	var attester *identity.PublicKey
	if on.Attester != nil {
		a := *on.Attester
		attester = &a
	}

	return NormalizedRecord{
		ID:              off.ID,
		Uploader:        on.Uploader,
		BigBrother:      on.BigBrother,
		Servicer:        on.Servicer,
		Owner:           on.Owner,
		Attester:        attester,
		TransferFee:     on.TransferFee,
		DownloadFee:     downloadFee,
		Size:            on.Size,
		Hash:            on.Hash,
		Filename:        off.Filename,
		ContentType:     off.ContentType,
		UploadedAt:      off.UploadedAt,
		DownloadCounter: off.DownloadCounter,
		Descriptions:    off.Descriptions,
	}
}

// FromOffchain builds the output record from the index document alone, for
// deployments that do not consult the ledger. Chain-side fields must be
// present except download_fee, which defaults to zero.
func FromOffchain(off OffchainRecord) (NormalizedRecord, error) {
	var missing []string
	req := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	req("uploader", off.Uploader != nil)
	req("big_brother", off.BigBrother != nil)
	req("servicer", off.Servicer != nil)
	req("owner", off.Owner != nil)
	req("transfer_fee", off.TransferFee != nil)
	req("size", off.Size != nil)
	req("hash", off.Hash != nil)
	if len(missing) > 0 {
		return NormalizedRecord{}, fmt.Errorf("%w: %s lacks %v", ErrIncompleteRecord, off.ID, missing)
	}

	return Merge(off, OnchainRecord{
		Uploader:    *off.Uploader,
		BigBrother:  *off.BigBrother,
		Servicer:    *off.Servicer,
		Owner:       *off.Owner,
		Attester:    off.Attester,
		TransferFee: *off.TransferFee,
		DownloadFee: off.DownloadFee,
		Size:        *off.Size,
		Hash:        *off.Hash,
	}), nil
}

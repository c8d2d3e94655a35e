// Package metadata defines the off-chain, on-chain and normalized file
// metadata records and the reconciliation that merges them.
package metadata

import (
	"time"

	"github.com/nagara-network/metaquery/pkg/identity"
)

// OffchainRecord is a file document as stored in the search index. Only ID is
// guaranteed; the chain-side fields were written by older index revisions and
// may be missing or stale.
type OffchainRecord struct {
	ID              identity.PublicKey `json:"id"`
	Filename        string             `json:"filename"`
	ContentType     string             `json:"content_type"`
	UploadedAt      time.Time          `json:"uploaded_at"`
	DownloadCounter uint64             `json:"download_counter"`
	Descriptions    string             `json:"descriptions"`

	Uploader    *identity.PublicKey `json:"uploader,omitempty"`
	BigBrother  *identity.PublicKey `json:"big_brother,omitempty"`
	Servicer    *identity.PublicKey `json:"servicer,omitempty"`
	Owner       *identity.PublicKey `json:"owner,omitempty"`
	Attester    *identity.PublicKey `json:"attester,omitempty"`
	TransferFee *Fee                `json:"transfer_fee,omitempty"`
	DownloadFee *Fee                `json:"download_fee,omitempty"`
	Size        *uint64             `json:"size,omitempty"`
	Hash        *Hash               `json:"hash,omitempty"`
}

// OnchainRecord is the authoritative file entry read from the ledger.
type OnchainRecord struct {
	Uploader    identity.PublicKey
	BigBrother  identity.PublicKey
	Servicer    identity.PublicKey
	Owner       identity.PublicKey
	Attester    *identity.PublicKey
	TransferFee Fee
	DownloadFee *Fee
	Size        uint64
	Hash        Hash
}

// NormalizedRecord is the record returned to API callers.
type NormalizedRecord struct {
	ID              identity.PublicKey  `json:"id"`
	Uploader        identity.PublicKey  `json:"uploader"`
	BigBrother      identity.PublicKey  `json:"big_brother"`
	Servicer        identity.PublicKey  `json:"servicer"`
	Owner           identity.PublicKey  `json:"owner"`
	Attester        *identity.PublicKey `json:"attester"`
	TransferFee     Fee                 `json:"transfer_fee"`
	DownloadFee     Fee                 `json:"download_fee"`
	Size            uint64              `json:"size"`
	Hash            Hash                `json:"hash"`
	Filename        string              `json:"filename"`
	ContentType     string              `json:"content_type"`
	UploadedAt      time.Time           `json:"uploaded_at"`
	DownloadCounter uint64              `json:"download_counter"`
	Descriptions    string              `json:"descriptions"`
}

package chain

import (
	"encoding/binary"
	"fmt"

	"github.com/nagara-network/metaquery/pkg/identity"
	"github.com/nagara-network/metaquery/pkg/metadata"
)

// decoder reads the SCALE encoding of the file metadata storage value.
type decoder struct {
	buf []byte
	off int
}

func (d *decoder) take(n int) ([]byte, error) {
	if len(d.buf)-d.off < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrDecode, n, d.off, len(d.buf)-d.off)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) option() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: invalid option tag %#x at offset %d", ErrDecode, b[0], d.off-1)
	}
}

func (d *decoder) account() (identity.PublicKey, error) {
	b, err := d.take(identity.KeySize)
	if err != nil {
		return identity.PublicKey{}, err
	}
	k, err := identity.FromAccountBytes(b)
	if err != nil {
		return identity.PublicKey{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return k, nil
}

func (d *decoder) u128() (metadata.Fee, error) {
	var f metadata.Fee
	b, err := d.take(metadata.FeeSize)
	if err != nil {
		return f, err
	}
	copy(f[:], b)
	return f, nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) hash() (metadata.Hash, error) {
	var h metadata.Hash
	b, err := d.take(len(h))
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// decodeFileRecord decodes
//
//	uploader, big_brother, servicer, owner: AccountId32
//	attester: Option<AccountId32>
//	transfer_fee: u128
//	download_fee: Option<u128>
//	size: u64
//	hash: [u8; 32]
func decodeFileRecord(data []byte) (metadata.OnchainRecord, error) {
	var (
		rec metadata.OnchainRecord
		err error
	)
	d := &decoder{buf: data}

	for _, dst := range []*identity.PublicKey{&rec.Uploader, &rec.BigBrother, &rec.Servicer, &rec.Owner} {
		if *dst, err = d.account(); err != nil {
			return rec, err
		}
	}

	some, err := d.option()
	if err != nil {
		return rec, err
	}
	if some {
		a, err := d.account()
		if err != nil {
			return rec, err
		}
		rec.Attester = &a
	}

	if rec.TransferFee, err = d.u128(); err != nil {
		return rec, err
	}

	some, err = d.option()
	if err != nil {
		return rec, err
	}
	if some {
		fee, err := d.u128()
		if err != nil {
			return rec, err
		}
		rec.DownloadFee = &fee
	}

	if rec.Size, err = d.u64(); err != nil {
		return rec, err
	}
	if rec.Hash, err = d.hash(); err != nil {
		return rec, err
	}

	if d.off != len(d.buf) {
		return rec, fmt.Errorf("%w: %d trailing bytes", ErrDecode, len(d.buf)-d.off)
	}
	return rec, nil
}

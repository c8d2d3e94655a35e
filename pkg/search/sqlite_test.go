package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nagara-network/metaquery/pkg/identity"
	"github.com/nagara-network/metaquery/pkg/metadata"
)

func openTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLiteIndex(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func record(b byte, filename, desc string) metadata.OffchainRecord {
	var id identity.PublicKey
	for i := range id {
		id[i] = b
	}
	return metadata.OffchainRecord{
		ID:           id,
		Filename:     filename,
		ContentType:  "application/pdf",
		UploadedAt:   time.Date(2024, 1, int(b), 0, 0, 0, 0, time.UTC),
		Descriptions: desc,
	}
}

func TestSQLiteIndexSearch(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	err := idx.Add(ctx, DefaultTestnetIndex,
		record(1, "invoice-march.pdf", "monthly invoice"),
		record(2, "holiday.jpg", "beach photos"),
		record(3, "invoices-2023.zip", "archive"),
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Add(ctx, DefaultMainnetIndex, record(4, "invoice-main.pdf", "")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	recs, err := idx.Search(ctx, DefaultTestnetIndex, "invoice")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 testnet hits, got %d", len(recs))
	}
	for _, r := range recs {
		if r.Filename == "holiday.jpg" || r.Filename == "invoice-main.pdf" {
			t.Fatalf("unexpected hit %q", r.Filename)
		}
	}

	recs, err = idx.Search(ctx, DefaultTestnetIndex, "beach")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recs) != 1 || recs[0].Filename != "holiday.jpg" {
		t.Fatalf("expected holiday.jpg, got %+v", recs)
	}
	if !recs[0].UploadedAt.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("uploaded_at did not survive storage: %v", recs[0].UploadedAt)
	}

	recs, err = idx.Search(ctx, DefaultMainnetIndex, "nothing-matches-this")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", recs)
	}
}

func TestSQLiteIndexEmptyQueryKeepsOrder(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	if err := idx.Add(ctx, DefaultTestnetIndex, record(3, "c", ""), record(1, "a", ""), record(2, "b", "")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	recs, err := idx.Search(ctx, DefaultTestnetIndex, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := ""
	for _, r := range recs {
		got += r.Filename
	}
	if got != "cab" {
		t.Fatalf("expected insertion order cab, got %q", got)
	}
}

func TestSQLiteIndexReplace(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	if err := idx.Add(ctx, DefaultTestnetIndex, record(1, "old-name.txt", "")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Add(ctx, DefaultTestnetIndex, record(1, "new-name.txt", "")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	n, err := idx.Count(ctx, DefaultTestnetIndex)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 document after replace, got %d", n)
	}

	recs, err := idx.Search(ctx, DefaultTestnetIndex, "old")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("stale document still searchable")
	}
}

func TestSQLiteIndexLoadedAt(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	_, ok, err := idx.LoadedAt(ctx, DefaultMainnetIndex)
	if err != nil {
		t.Fatalf("LoadedAt: %v", err)
	}
	if ok {
		t.Fatalf("expected no load time for an empty index")
	}

	if err := idx.Add(ctx, DefaultMainnetIndex, record(1, "a.txt", "")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	loaded, ok, err := idx.LoadedAt(ctx, DefaultMainnetIndex)
	if err != nil {
		t.Fatalf("LoadedAt: %v", err)
	}
	if !ok || loaded.IsZero() {
		t.Fatalf("expected a load time after Add")
	}
}

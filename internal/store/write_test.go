package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roach88/namereg/internal/ir"
)

func testConfig() ir.Config {
	return ir.Config{
		UnitPrice:    ir.Coin{Denom: "juno", Amount: 1},
		FeeRecipient: "juno1fee",
		MaxNameLen:   64,
	}
}

func TestWriteInit_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	version := ir.ContractVersion{Contract: "namereg", Version: "0.1.0"}
	if err := s.WriteInit(ctx, testConfig(), version); err != nil {
		t.Fatalf("WriteInit() failed: %v", err)
	}

	cfg, err := s.ReadConfig(ctx)
	if err != nil {
		t.Fatalf("ReadConfig() failed: %v", err)
	}
	if cfg != testConfig() {
		t.Errorf("ReadConfig() = %+v, want %+v", cfg, testConfig())
	}

	got, err := s.ReadVersion(ctx)
	if err != nil {
		t.Fatalf("ReadVersion() failed: %v", err)
	}
	if got != version {
		t.Errorf("ReadVersion() = %+v, want %+v", got, version)
	}
}

func TestWriteInit_WriteOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteInit(ctx, testConfig(), ir.ContractVersion{Contract: "namereg", Version: "0.1.0"}); err != nil {
		t.Fatalf("first WriteInit() failed: %v", err)
	}

	other := testConfig()
	other.UnitPrice.Amount = 99
	err := s.WriteInit(ctx, other, ir.ContractVersion{Contract: "namereg", Version: "9.9.9"})
	if !errors.Is(err, ErrConfigExists) {
		t.Fatalf("second WriteInit() error = %v, want ErrConfigExists", err)
	}

	cfg, _ := s.ReadConfig(ctx)
	if cfg.UnitPrice.Amount != 1 {
		t.Errorf("config was overwritten: %+v", cfg)
	}
	v, _ := s.ReadVersion(ctx)
	if v.Version != "0.1.0" {
		t.Errorf("version was overwritten by failed init: %+v", v)
	}
}

func TestWriteInit_LargeAmount(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	cfg := testConfig()
	cfg.UnitPrice.Amount = 18446744073709551615
	if err := s.WriteInit(ctx, cfg, ir.ContractVersion{}); err != nil {
		t.Fatalf("WriteInit() failed: %v", err)
	}
	got, err := s.ReadConfig(ctx)
	if err != nil {
		t.Fatalf("ReadConfig() failed: %v", err)
	}
	if got.UnitPrice.Amount != cfg.UnitPrice.Amount {
		t.Errorf("amount = %d, want %d", got.UnitPrice.Amount, cfg.UnitPrice.Amount)
	}
}

func TestWriteVersion_Replaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteVersion(ctx, ir.ContractVersion{Contract: "namereg", Version: "0.0.1"}); err != nil {
		t.Fatalf("WriteVersion() failed: %v", err)
	}
	if err := s.WriteVersion(ctx, ir.ContractVersion{Contract: "namereg", Version: "0.1.0"}); err != nil {
		t.Fatalf("WriteVersion() failed: %v", err)
	}
	v, err := s.ReadVersion(ctx)
	if err != nil {
		t.Fatalf("ReadVersion() failed: %v", err)
	}
	if v.Version != "0.1.0" {
		t.Errorf("version = %q, want 0.1.0", v.Version)
	}
	if n := countRows(t, s.db, "contract_version"); n != 1 {
		t.Errorf("contract_version rows = %d, want 1", n)
	}
}

func TestInsertName_WritesAllRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestRecord("owner-1", "juno1target", 1700000000)
	meta := ir.NameMetadata{Title: ir.StringPtr("Example"), Keywords: []string{"a", "b"}}
	if err := s.InsertName(ctx, "example", rec, meta); err != nil {
		t.Fatalf("InsertName() failed: %v", err)
	}

	gotRec, err := s.ReadRecord(ctx, "example")
	if err != nil {
		t.Fatalf("ReadRecord() failed: %v", err)
	}
	if gotRec.Owner != rec.Owner || gotRec.TargetAddress != rec.TargetAddress || !gotRec.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("ReadRecord() = %+v, want %+v", gotRec, rec)
	}

	gotMeta, err := s.ReadMetadata(ctx, "example")
	if err != nil {
		t.Fatalf("ReadMetadata() failed: %v", err)
	}
	if gotMeta.Title == nil || *gotMeta.Title != "Example" {
		t.Errorf("title = %v, want Example", gotMeta.Title)
	}
	if len(gotMeta.Keywords) != 2 {
		t.Errorf("keywords = %v, want [a b]", gotMeta.Keywords)
	}

	name, err := s.ReverseLookup(ctx, "juno1target")
	if err != nil {
		t.Fatalf("ReverseLookup() failed: %v", err)
	}
	if name != "example" {
		t.Errorf("ReverseLookup() = %q, want example", name)
	}
}

func TestInsertName_DuplicateWritesNothing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustInsertName(t, s, "example", "juno1first")

	var before string
	if err := s.db.QueryRow(`SELECT metadata FROM name_metadata WHERE canonical_name = 'example'`).Scan(&before); err != nil {
		t.Fatalf("read metadata: %v", err)
	}

	rec := createTestRecord("intruder", "juno1second", 1800000000)
	err := s.InsertName(ctx, "example", rec, ir.NameMetadata{Title: ir.StringPtr("hijack")})
	if !errors.Is(err, ErrNameExists) {
		t.Fatalf("InsertName() duplicate error = %v, want ErrNameExists", err)
	}

	got, _ := s.ReadRecord(ctx, "example")
	if got.Owner != "owner" || got.TargetAddress != "juno1first" {
		t.Errorf("record changed after failed insert: %+v", got)
	}

	var after string
	if err := s.db.QueryRow(`SELECT metadata FROM name_metadata WHERE canonical_name = 'example'`).Scan(&after); err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if before != after {
		t.Errorf("metadata bytes changed: %q -> %q", before, after)
	}

	if _, err := s.ReverseLookup(ctx, "juno1second"); !errors.Is(err, ErrNotFound) {
		t.Errorf("reverse index written for failed insert: %v", err)
	}
	if n := countRows(t, s.db, "address_index"); n != 1 {
		t.Errorf("address_index rows = %d, want 1", n)
	}
}

func TestInsertName_CanceledContextLeavesNoRows(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.InsertName(ctx, "example", createTestRecord("o", "juno1t", 0), ir.NameMetadata{})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	for _, table := range []string{"name_records", "name_metadata", "address_index"} {
		if n := countRows(t, s.db, table); n != 0 {
			t.Errorf("%s rows = %d, want 0", table, n)
		}
	}
}

func TestWriteMetadata(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsertName(t, s, "example", "juno1target")

	meta := ir.NameMetadata{Description: ir.StringPtr("desc"), Keywords: []string{}}
	if err := s.WriteMetadata(ctx, "example", meta); err != nil {
		t.Fatalf("WriteMetadata() failed: %v", err)
	}

	got, err := s.ReadMetadata(ctx, "example")
	if err != nil {
		t.Fatalf("ReadMetadata() failed: %v", err)
	}
	if got.Description == nil || *got.Description != "desc" {
		t.Errorf("description = %v", got.Description)
	}
	if got.Keywords == nil || len(got.Keywords) != 0 {
		t.Errorf("keywords = %#v, want empty non-nil", got.Keywords)
	}
}

func TestWriteMetadata_MissingName(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteMetadata(context.Background(), "ghost", ir.NameMetadata{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("WriteMetadata() error = %v, want ErrNotFound", err)
	}
}

func TestWriteTransfer_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tr := ir.Transfer{
		ID:         "op-1",
		Recipient:  "juno1fee",
		Amount:     ir.Coin{Denom: "juno", Amount: 1},
		Memo:       "register example",
		ExecutedAt: time.Unix(1700000000, 0).UTC(),
	}

	inserted, err := s.WriteTransfer(ctx, tr)
	if err != nil {
		t.Fatalf("WriteTransfer() failed: %v", err)
	}
	if !inserted {
		t.Error("first WriteTransfer() inserted = false")
	}

	inserted, err = s.WriteTransfer(ctx, tr)
	if err != nil {
		t.Fatalf("second WriteTransfer() failed: %v", err)
	}
	if inserted {
		t.Error("duplicate WriteTransfer() inserted = true")
	}

	got, err := s.ReadTransfers(ctx)
	if err != nil {
		t.Fatalf("ReadTransfers() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ReadTransfers() len = %d, want 1", len(got))
	}
	if got[0].ID != tr.ID || got[0].Amount != tr.Amount || got[0].Memo != tr.Memo || !got[0].ExecutedAt.Equal(tr.ExecutedAt) {
		t.Errorf("ReadTransfers()[0] = %+v, want %+v", got[0], tr)
	}
}

package registry

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/namereg/internal/address"
	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/store"
	"github.com/roach88/namereg/internal/testutil"
)

var (
	juno1 = ir.Coin{Denom: "juno", Amount: 1}

	feeRecipient = addr(0xFE)
	blockTime    = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

// addr returns a valid bech32 account address derived from b.
func addr(b byte) string {
	return address.MustEncode("juno", bytes.Repeat([]byte{b}, 20))
}

func testConfig() ir.Config {
	return ir.Config{UnitPrice: juno1, FeeRecipient: feeRecipient, MaxNameLen: 32}
}

// tb is the subset of testing.TB that *rapid.T also implements.
type tb interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

var storeSeq atomic.Int64

// openScratchStore opens a fresh store under dir. The caller closes it.
func openScratchStore(t tb, dir string) *store.Store {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("registry-%d.db", storeSeq.Add(1)))
	st, err := store.Open(path)
	require.NoError(t, err)
	return st
}

// openTestStore opens a fresh store closed at test cleanup.
func openTestStore(t *testing.T, dir string) *store.Store {
	t.Helper()
	st := openScratchStore(t, dir)
	t.Cleanup(func() { st.Close() })
	return st
}

// newTestRegistry initializes a store with testConfig and opens a
// Registry over it with deterministic effect tokens.
func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *store.Store) {
	t.Helper()
	st := openTestStore(t, t.TempDir())
	return initRegistry(t, st, opts...), st
}

func initRegistry(t tb, st *store.Store, opts ...Option) *Registry {
	t.Helper()
	ctx := context.Background()
	_, err := Init(ctx, st, testConfig())
	require.NoError(t, err)

	opts = append([]Option{WithTokenGenerator(testutil.NewSequenceTokenGenerator("op"))}, opts...)
	r, err := Open(ctx, st, opts...)
	require.NoError(t, err)
	return r
}

func paid(r *Registry, sender string) Context {
	return r.NewContext(sender, []ir.Coin{juno1}, blockTime)
}

// mustRegister registers name -> target owned by "alice".
func mustRegister(t tb, r *Registry, name, target string) RegisterResult {
	t.Helper()
	res, err := r.Register(context.Background(), paid(r, "alice"), RegisterRequest{
		Name:          name,
		Owner:         "alice",
		TargetAddress: target,
	})
	require.NoError(t, err)
	return res
}

func names(items []ir.PublicNameRecord) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.CanonicalName
	}
	return out
}

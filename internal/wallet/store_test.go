package wallet_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"wallet-watch/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "known_wallets.json")
}

func TestStore_OpenMissingFileStartsEmpty(t *testing.T) {
	st, err := wallet.Open(storePath(t))
	require.NoError(t, err)
	assert.Equal(t, 0, st.Len())
}

func TestStore_ReloadIsIdempotent(t *testing.T) {
	path := storePath(t)

	st, err := wallet.Open(path)
	require.NoError(t, err)
	records := []wallet.Record{
		{Address: "0xAAA", Chain: "ETH", FirstSeen: time.Now().UTC().Truncate(time.Second)},
		{Address: "0xBBB", Chain: "BTC"},
	}
	require.NoError(t, st.Append(records))

	reloaded, err := wallet.Open(path)
	require.NoError(t, err)
	assert.Equal(t, st.Len(), reloaded.Len())
	assert.True(t, reloaded.Contains("0xAAA"))
	assert.True(t, reloaded.Contains("0xBBB"))

	again, err := wallet.Open(path)
	require.NoError(t, err)
	assert.Equal(t, reloaded.Set().Records(), again.Set().Records())
}

func TestStore_AppendExistingAddressIsNoOp(t *testing.T) {
	path := storePath(t)
	st, err := wallet.Open(path)
	require.NoError(t, err)

	require.NoError(t, st.Append([]wallet.Record{{Address: "0xAAA"}}))
	before := st.Len()

	require.NoError(t, st.Append([]wallet.Record{{Address: "0xAAA", Label: "relabeled"}}))
	assert.Equal(t, before, st.Len())

	reloaded, err := wallet.Open(path)
	require.NoError(t, err)
	assert.Equal(t, before, reloaded.Len())
}

func TestStore_MonotonicGrowth(t *testing.T) {
	st, err := wallet.Open(storePath(t))
	require.NoError(t, err)

	sizes := []int{st.Len()}
	batches := [][]wallet.Record{
		{{Address: "0xAAA"}},
		{{Address: "0xAAA"}, {Address: "0xBBB"}},
		{},
		{{Address: "0xCCC"}},
	}
	for _, batch := range batches {
		require.NoError(t, st.Append(batch))
		sizes = append(sizes, st.Len())
	}

	for i := 1; i < len(sizes); i++ {
		assert.GreaterOrEqual(t, sizes[i], sizes[i-1])
	}
	assert.Equal(t, 3, st.Len())
}

func TestStore_LeftoverTempFileIgnoredOnReload(t *testing.T) {
	path := storePath(t)
	st, err := wallet.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Append([]wallet.Record{{Address: "0xAAA"}}))

	// Simulate a crash that left a half-written temp file behind.
	require.NoError(t, os.WriteFile(path+".tmp", []byte(`{"wallets":[{"addr`), 0644))

	reloaded, err := wallet.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())
	assert.True(t, reloaded.Contains("0xAAA"))
}

func TestStore_FailedWriteRollsBackMemory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "known_wallets.json")

	st, err := wallet.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Append([]wallet.Record{{Address: "0xAAA"}}))

	// Make the directory unwritable so the temp-file write fails.
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	err = st.Append([]wallet.Record{{Address: "0xBBB"}})
	require.Error(t, err)

	var se *wallet.StoreError
	require.ErrorAs(t, err, &se)

	// The record must not be marked seen, so it is re-detected next cycle.
	assert.False(t, st.Contains("0xBBB"))
	assert.Equal(t, 1, st.Len())

	require.NoError(t, os.Chmod(dir, 0755))
	reloaded, err := wallet.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())
}

func TestStore_CorruptFileSurfacesStoreError(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := wallet.Open(path)
	require.Error(t, err)

	var se *wallet.StoreError
	assert.ErrorAs(t, err, &se)
}

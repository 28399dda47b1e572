package wallet_test

import (
	"testing"

	"wallet-watch/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(addr string) wallet.Record {
	return wallet.Record{Address: addr}
}

func TestDiff_NewAddressesInFetchOrder(t *testing.T) {
	known := wallet.NewKnownSet(rec("0xAAA"))
	fetched := []wallet.Record{rec("0xAAA"), rec("0xBBB"), rec("0xCCC")}

	got := wallet.Diff(fetched, known)

	require.Len(t, got, 2)
	assert.Equal(t, "0xBBB", got[0].Address)
	assert.Equal(t, "0xCCC", got[1].Address)
}

func TestDiff_IsIdempotent(t *testing.T) {
	known := wallet.NewKnownSet(rec("0xAAA"))
	fetched := []wallet.Record{rec("0xAAA"), rec("0xBBB")}

	first := wallet.Diff(fetched, known)
	second := wallet.Diff(fetched, known)

	assert.Equal(t, first, second)
	// Diffing must not grow the known set as a side effect.
	assert.Equal(t, 1, known.Len())
}

func TestDiff_DuplicateInFetchReportedOnce(t *testing.T) {
	known := wallet.NewKnownSet()
	fetched := []wallet.Record{rec("0xAAA"), rec("0xAAA"), rec("0xBBB")}

	got := wallet.Diff(fetched, known)

	require.Len(t, got, 2)
	assert.Equal(t, "0xAAA", got[0].Address)
	assert.Equal(t, "0xBBB", got[1].Address)
}

func TestDiff_AbsenceIsNotAnEvent(t *testing.T) {
	known := wallet.NewKnownSet(rec("0xAAA"), rec("0xBBB"))

	got := wallet.Diff([]wallet.Record{rec("0xBBB")}, known)

	assert.Empty(t, got)
	assert.Equal(t, 2, known.Len())
}

func TestDiff_EmptyAddressSkipped(t *testing.T) {
	got := wallet.Diff([]wallet.Record{rec(""), rec("0xAAA")}, wallet.NewKnownSet())

	require.Len(t, got, 1)
	assert.Equal(t, "0xAAA", got[0].Address)
}

func TestKnownSet_AppendDeduplicates(t *testing.T) {
	s := wallet.NewKnownSet(rec("0xAAA"))

	added := s.Append(rec("0xAAA"), rec("0xBBB"))

	assert.Equal(t, 1, added)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("0xBBB"))
}

func TestKnownSet_MetadataDoesNotChangeIdentity(t *testing.T) {
	s := wallet.NewKnownSet(wallet.Record{Address: "0xAAA", Chain: "ETH"})

	added := s.Append(wallet.Record{Address: "0xAAA", Chain: "BTC", Label: "other"})

	assert.Equal(t, 0, added)
	assert.Equal(t, 1, s.Len())
}

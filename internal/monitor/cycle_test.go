package monitor_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wallet-watch/internal/arkm"
	"wallet-watch/internal/monitor"
	"wallet-watch/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	page []byte
	err  error
}

func (f *fakeFetcher) FetchEntityPage(context.Context, string) ([]byte, error) {
	return f.page, f.err
}

type fakeExtractor struct {
	records []wallet.Record
	err     error
}

func (f *fakeExtractor) Extract([]byte, time.Time) ([]wallet.Record, error) {
	return f.records, f.err
}

type fakeNotifier struct {
	calls   int
	batches [][]wallet.Record
	err     error
}

func (f *fakeNotifier) Notify(_ context.Context, records []wallet.Record) error {
	f.calls++
	f.batches = append(f.batches, records)
	return f.err
}

type failingStore struct {
	set *wallet.KnownSet
}

func (s *failingStore) Set() *wallet.KnownSet { return s.set }
func (s *failingStore) Len() int              { return s.set.Len() }
func (s *failingStore) Append([]wallet.Record) error {
	return &wallet.StoreError{Path: "x", Err: errors.New("disk full")}
}

func recs(addrs ...string) []wallet.Record {
	out := make([]wallet.Record, len(addrs))
	for i, a := range addrs {
		out[i] = wallet.Record{Address: a}
	}
	return out
}

func openStore(t *testing.T) *wallet.Store {
	t.Helper()
	st, err := wallet.Open(filepath.Join(t.TempDir(), "known.json"))
	require.NoError(t, err)
	return st
}

func TestRunCycle_NewWalletsDetectedAndPersisted(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Append(recs("0xAAA")))

	notifier := &fakeNotifier{}
	m := &monitor.Monitor{
		EntityID: "usg",
		Fetcher:  &fakeFetcher{page: []byte("<html/>")},
		Extract:  &fakeExtractor{records: recs("0xAAA", "0xBBB", "0xCCC")},
		Store:    store,
		Notifier: notifier,
	}

	res, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, res.NewRecords, 2)
	assert.Equal(t, "0xBBB", res.NewRecords[0].Address)
	assert.Equal(t, "0xCCC", res.NewRecords[1].Address)

	assert.Equal(t, 3, store.Len())
	assert.True(t, store.Contains("0xBBB"))
	assert.True(t, store.Contains("0xCCC"))

	// One batched notification for the whole cycle.
	require.Equal(t, 1, notifier.calls)
	assert.Len(t, notifier.batches[0], 2)
}

func TestRunCycle_NoNewWalletsSkipsNotifier(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Append(recs("0xAAA")))

	notifier := &fakeNotifier{}
	m := &monitor.Monitor{
		EntityID: "usg",
		Fetcher:  &fakeFetcher{page: []byte("<html/>")},
		Extract:  &fakeExtractor{records: recs("0xAAA")},
		Store:    store,
		Notifier: notifier,
	}

	res, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.NewRecords)
	assert.Equal(t, 0, notifier.calls)
}

func TestRunCycle_ParseErrorLeavesStoreUntouched(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Append(recs("0xAAA")))

	notifier := &fakeNotifier{}
	m := &monitor.Monitor{
		EntityID: "usg",
		Fetcher:  &fakeFetcher{page: []byte("garbage")},
		Extract:  &fakeExtractor{err: &arkm.ParseError{Reason: "markers gone"}},
		Store:    store,
		Notifier: notifier,
	}

	_, err := m.RunCycle(context.Background())
	require.Error(t, err)

	var pe *arkm.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 0, notifier.calls)
}

func TestRunCycle_FetchErrorAbortsBeforeExtraction(t *testing.T) {
	store := openStore(t)
	m := &monitor.Monitor{
		EntityID: "usg",
		Fetcher:  &fakeFetcher{err: &arkm.FetchError{URL: "x", StatusCode: 503}},
		Extract:  &fakeExtractor{records: recs("0xAAA")},
		Store:    store,
		Notifier: &fakeNotifier{},
	}

	_, err := m.RunCycle(context.Background())
	require.Error(t, err)

	var fe *arkm.FetchError
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, store.Len())
}

func TestRunCycle_NotifyFailureDoesNotUndoPersistence(t *testing.T) {
	store := openStore(t)
	notifier := &fakeNotifier{err: errors.New("webhook down")}
	m := &monitor.Monitor{
		EntityID: "usg",
		Fetcher:  &fakeFetcher{page: []byte("<html/>")},
		Extract:  &fakeExtractor{records: recs("0xBBB")},
		Store:    store,
		Notifier: notifier,
	}

	res, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, res.NewRecords, 1)
	assert.True(t, store.Contains("0xBBB"))
	assert.Equal(t, 1, notifier.calls)
}

func TestRunCycle_StoreFailureAbortsWithoutNotifying(t *testing.T) {
	notifier := &fakeNotifier{}
	m := &monitor.Monitor{
		EntityID: "usg",
		Fetcher:  &fakeFetcher{page: []byte("<html/>")},
		Extract:  &fakeExtractor{records: recs("0xBBB")},
		Store:    &failingStore{set: wallet.NewKnownSet()},
		Notifier: notifier,
	}

	_, err := m.RunCycle(context.Background())
	require.Error(t, err)

	var se *wallet.StoreError
	assert.ErrorAs(t, err, &se)
	// Not persisted, not notified: re-detected next cycle instead of lost.
	assert.Equal(t, 0, notifier.calls)
}

func TestRunCycle_SecondPassFindsNothingNew(t *testing.T) {
	store := openStore(t)
	notifier := &fakeNotifier{}
	m := &monitor.Monitor{
		EntityID: "usg",
		Fetcher:  &fakeFetcher{page: []byte("<html/>")},
		Extract:  &fakeExtractor{records: recs("0xAAA", "0xBBB")},
		Store:    store,
		Notifier: notifier,
	}

	first, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.NewRecords, 2)

	second, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.NewRecords)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, 2, store.Len())
}

// Package monitor drives the fetch-extract-diff-store-notify cycle.
package monitor

import (
	"context"
	"errors"
	"time"

	"wallet-watch/internal/arkm"
	"wallet-watch/internal/infra/log"
	"wallet-watch/internal/wallet"

	"go.uber.org/zap"
)

// Fetcher retrieves the raw entity page.
type Fetcher interface {
	FetchEntityPage(ctx context.Context, entityID string) ([]byte, error)
}

// Extractor turns a raw page into wallet records.
type Extractor interface {
	Extract(page []byte, now time.Time) ([]wallet.Record, error)
}

// Store is the durable known-set the cycle diffs against and updates.
type Store interface {
	Set() *wallet.KnownSet
	Append(records []wallet.Record) error
	Len() int
}

// Notifier delivers one batch of new records.
type Notifier interface {
	Notify(ctx context.Context, records []wallet.Record) error
}

// Archiver records raw fetch payloads. Optional, best effort.
type Archiver interface {
	SaveResponse(endpoint string, payload []byte) error
}

// CycleResult is what one pass produced. Transient; it exists for logging
// and tests, never persisted.
type CycleResult struct {
	Fetched    []wallet.Record
	NewRecords []wallet.Record
	Timestamp  time.Time
}

// Monitor owns one monitored entity and the collaborators of its cycle.
// The known-set store is passed in explicitly; there is no ambient state.
type Monitor struct {
	EntityID string

	Fetcher  Fetcher
	Extract  Extractor
	Store    Store
	Notifier Notifier
	Archive  Archiver

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// RunCycle executes one fetch-extract-diff-store-notify pass.
//
// Error policy:
//   - fetch or parse failure aborts the cycle before the store is touched,
//     so extraction trouble can never corrupt the baseline;
//   - a store failure aborts the cycle without marking records seen, so
//     they are re-detected (and notified) next cycle rather than lost;
//   - notification failures are logged per channel and do NOT undo
//     persistence or fail the cycle: the baseline reflects what was
//     observed, and the error log stays loud until the sink recovers.
func (m *Monitor) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := m.now()
	log.LogInfo("Running wallet monitor check", zap.String("entity_id", m.EntityID))

	page, err := m.Fetcher.FetchEntityPage(ctx, m.EntityID)
	if err != nil {
		return nil, err
	}

	if m.Archive != nil {
		if err := m.Archive.SaveResponse(arkm.EntityPath(m.EntityID), page); err != nil {
			log.LogWarn("Failed to archive fetch response", zap.Error(err))
		}
	}

	fetched, err := m.Extract.Extract(page, start)
	if err != nil {
		var pe *arkm.ParseError
		if errors.As(err, &pe) {
			log.LogError("Entity page no longer parses, keeping known set unchanged",
				zap.String("entity_id", m.EntityID),
				zap.String("reason", pe.Reason))
		}
		return nil, err
	}

	newRecords := wallet.Diff(fetched, m.Store.Set())

	result := &CycleResult{
		Fetched:    fetched,
		NewRecords: newRecords,
		Timestamp:  start,
	}

	if len(newRecords) == 0 {
		log.LogSuccess("No new wallets detected",
			zap.String("entity_id", m.EntityID),
			zap.Int("fetched", len(fetched)),
			zap.Int("known", m.Store.Len()))
		return result, nil
	}

	for _, rec := range newRecords {
		log.LogInfo("New wallet detected",
			zap.String("address", rec.Address),
			zap.String("chain", rec.Chain))
	}

	if err := m.Store.Append(newRecords); err != nil {
		log.LogError("Failed to persist known set, records stay unseen",
			zap.Int("records", len(newRecords)),
			zap.Error(err))
		return nil, err
	}

	if m.Notifier != nil {
		if err := m.Notifier.Notify(ctx, newRecords); err != nil {
			// Already logged per channel; the baseline stays updated.
			log.LogWarn("One or more notification channels failed", zap.Error(err))
		}
	}

	log.LogSuccess("Cycle completed",
		zap.String("entity_id", m.EntityID),
		zap.Int("fetched", len(fetched)),
		zap.Int("new", len(newRecords)),
		zap.Int("known", m.Store.Len()))

	return result, nil
}

package wallet

import (
	"errors"
	"fmt"
	"os"

	"wallet-watch/internal/infra/fs"
	logging "wallet-watch/internal/infra/log"

	"go.uber.org/zap"
)

// StoreError marks a persistence failure. A cycle that hits one must not
// treat its records as seen.
type StoreError struct {
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("wallet store %s: %v", e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// storeFile is the on-disk shape of the known-set: a flat record list.
type storeFile struct {
	Wallets []Record `json:"wallets"`
}

// Store persists the known-set as a flat JSON record list. Updates are
// written to a temporary file and renamed into place, so a crash mid-save
// leaves either the previous or the fully updated state on disk.
type Store struct {
	path string
	set  *KnownSet
}

// Open loads the known-set from path. A missing file yields an empty set.
func Open(path string) (*Store, error) {
	var file storeFile
	err := fs.ReadJSON(path, &file)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		logging.LogDebug("Known-set file does not exist, starting empty", zap.String("file", path))
	default:
		return nil, &StoreError{Path: path, Err: err}
	}

	st := &Store{path: path, set: NewKnownSet(file.Wallets...)}
	logging.LogInfo("Loaded known wallet set",
		zap.String("file", path),
		zap.Int("count", st.set.Len()))
	return st, nil
}

func (st *Store) Contains(address string) bool {
	return st.set.Contains(address)
}

func (st *Store) Len() int {
	return st.set.Len()
}

// Set exposes the in-memory known-set for diffing.
func (st *Store) Set() *KnownSet {
	return st.set
}

// Append adds the records to the known-set and persists the new baseline.
// Records whose address is already stored are skipped; when nothing new is
// added the file is left untouched. On a write failure the in-memory set is
// rolled back so the records are re-detected next cycle.
func (st *Store) Append(records []Record) error {
	before := st.set.Len()
	added := st.set.Append(records...)
	if added == 0 {
		return nil
	}

	if err := fs.WriteJSONAtomic(st.path, storeFile{Wallets: st.set.records}); err != nil {
		st.set.records = st.set.records[:before]
		st.set.index = make(map[string]struct{}, before)
		for _, r := range st.set.records {
			st.set.index[r.Address] = struct{}{}
		}
		return &StoreError{Path: st.path, Err: err}
	}

	logging.LogInfo("Persisted known wallet set",
		zap.String("file", st.path),
		zap.Int("added", added),
		zap.Int("total", st.set.Len()))
	return nil
}

package wallet

import "time"

// Record is a single tracked wallet address with its scraped metadata.
// Address is the sole identity key: two records with the same address are
// the same wallet regardless of metadata differences.
type Record struct {
	Address          string            `json:"address"`
	Chain            string            `json:"chain,omitempty"`
	Label            string            `json:"label,omitempty"`
	Balance          float64           `json:"balance,omitempty"`
	FirstSeen        time.Time         `json:"first_seen"`
	FirstTransaction string            `json:"first_transaction,omitempty"`
	Raw              map[string]string `json:"raw,omitempty"`
}

// KnownSet is the collection of wallets observed so far, keyed by address.
// It only ever grows: wallets are never removed once seen.
type KnownSet struct {
	records []Record
	index   map[string]struct{}
}

func NewKnownSet(records ...Record) *KnownSet {
	s := &KnownSet{index: make(map[string]struct{})}
	s.Append(records...)
	return s
}

func (s *KnownSet) Contains(address string) bool {
	_, ok := s.index[address]
	return ok
}

// Append adds records whose address is not yet present and returns how many
// were actually added. Appending a known address is a no-op.
func (s *KnownSet) Append(records ...Record) int {
	added := 0
	for _, r := range records {
		if r.Address == "" {
			continue
		}
		if _, ok := s.index[r.Address]; ok {
			continue
		}
		s.index[r.Address] = struct{}{}
		s.records = append(s.records, r)
		added++
	}
	return added
}

func (s *KnownSet) Len() int {
	return len(s.records)
}

// Records returns a copy of the stored records in insertion order.
func (s *KnownSet) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

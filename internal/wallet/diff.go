package wallet

// Diff returns the fetched records whose address is absent from known,
// preserving fetch order. A duplicate address inside fetched is reported
// once, on its first occurrence. Neither input is mutated; absence of a
// known address from fetched is not an event.
func Diff(fetched []Record, known *KnownSet) []Record {
	var out []Record
	seen := make(map[string]struct{}, len(fetched))
	for _, r := range fetched {
		if r.Address == "" {
			continue
		}
		if known != nil && known.Contains(r.Address) {
			continue
		}
		if _, dup := seen[r.Address]; dup {
			continue
		}
		seen[r.Address] = struct{}{}
		out = append(out, r)
	}
	return out
}

package notify

import (
	"fmt"
	"strings"
	"time"

	"wallet-watch/internal/wallet"
)

// BuildMessage renders the batched alert text for one cycle, in the
// markdown dialect Discord and Telegram both accept.
func BuildMessage(records []wallet.Record, explorerBaseURL string, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🚨 **NEW WALLET ALERT** 🚨\n\n")
	fmt.Fprintf(&b, "Detected %d new wallet(s) at %s\n\n", len(records), now.Format("2006-01-02 15:04:05"))

	for i, rec := range records {
		b.WriteString(FormatRecord(i+1, rec, explorerBaseURL))
	}

	return b.String()
}

// FormatRecord renders one wallet entry of the alert.
func FormatRecord(n int, rec wallet.Record, explorerBaseURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Wallet #%d**\n", n)
	fmt.Fprintf(&b, "• Address: `%s`\n", rec.Address)
	if rec.Chain != "" {
		fmt.Fprintf(&b, "• Chain: %s\n", rec.Chain)
	}
	if rec.FirstTransaction != "" {
		fmt.Fprintf(&b, "• First Transaction: %s\n", rec.FirstTransaction)
	}
	if rec.Label != "" {
		fmt.Fprintf(&b, "• Label: %s\n", rec.Label)
	}
	if rec.Balance != 0 {
		fmt.Fprintf(&b, "• Balance: %.2f\n", rec.Balance)
	}
	if !rec.FirstSeen.IsZero() {
		fmt.Fprintf(&b, "• First Seen: %s\n", rec.FirstSeen.Format("2006-01-02 15:04:05"))
	}
	if explorerBaseURL != "" {
		fmt.Fprintf(&b, "• Link: %s/explorer/address/%s\n", strings.TrimRight(explorerBaseURL, "/"), rec.Address)
	}
	b.WriteString("\n")

	return b.String()
}

// SplitBatch renders per-record messages for sinks whose size limit the
// batched message exceeds. Each returned message fits within limit as long
// as a single record entry does.
func SplitBatch(records []wallet.Record, explorerBaseURL string, now time.Time, limit int) []string {
	full := BuildMessage(records, explorerBaseURL, now)
	if limit <= 0 || len(full) <= limit {
		return []string{full}
	}

	out := make([]string, 0, len(records))
	for i, rec := range records {
		header := fmt.Sprintf("🚨 **NEW WALLET ALERT** (%d/%d)\n\n", i+1, len(records))
		out = append(out, header+FormatRecord(i+1, rec, explorerBaseURL))
	}
	return out
}

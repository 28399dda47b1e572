package arkm

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wallet-watch/internal/infra/log"
	"wallet-watch/internal/wallet"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ParseError signals that the expected structural markers are missing from
// a fetched page, which usually means the explorer layout changed. It is
// distinct from a valid extraction that found zero wallets, so operators
// never mistake breakage for quiet.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse entity page: " + e.Reason
}

const addressPathMarker = "/explorer/address/"

var (
	chainRe       = regexp.MustCompile(`(?i)\b(ETH|BTC|USDT|USDC|SOL|TRX)\b`)
	balanceRe     = regexp.MustCompile(`\$([\d,]+(?:\.\d+)?)`)
	scriptAddrRe  = regexp.MustCompile(`"address"\s*:\s*"([^"]+)"`)
	cardClassAttr = "div[class*=card]"
)

// Extractor turns a fetched entity page into wallet records.
type Extractor struct {
	// Label is stamped on every extracted record (e.g. "USG Wallet").
	Label string
}

// Extract parses the page HTML and returns the wallet records it lists, in
// document order, de-duplicated by address. Anchors without a usable
// address are dropped, never fabricated. now becomes the first-seen time of
// every record, since the explorer page does not carry one.
func (e *Extractor) Extract(page []byte, now time.Time) ([]wallet.Record, error) {
	if len(bytes.TrimSpace(page)) == 0 {
		return nil, &ParseError{Reason: "empty page body"}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid HTML: %v", err)}
	}

	// Structural marker: a real explorer page links into /explorer/
	// somewhere, even when the entity currently has zero tagged wallets.
	if doc.Find(`a[href*="/explorer/"]`).Length() == 0 && !scriptsMentionWallets(doc) {
		return nil, &ParseError{Reason: "no explorer markers found, page layout may have changed"}
	}

	records := e.extractFromAnchors(doc, now)

	// The explorer sometimes renders the wallet list only through inline
	// script data; fall back to scanning script tags like the page itself
	// does on hydration.
	if len(records) == 0 {
		records = e.extractFromScripts(doc, now)
	}

	log.LogDebug("Extracted wallet records from page", zap.Int("count", len(records)))
	return records, nil
}

func (e *Extractor) extractFromAnchors(doc *goquery.Document, now time.Time) []wallet.Record {
	var records []wallet.Record
	seen := make(map[string]struct{})

	doc.Find(`a[href*="` + addressPathMarker + `"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		idx := strings.LastIndex(href, addressPathMarker)
		if idx < 0 {
			return
		}
		address := strings.Trim(strings.SplitN(href[idx+len(addressPathMarker):], "?", 2)[0], "/")
		if address == "" {
			return
		}
		if _, dup := seen[address]; dup {
			return
		}
		seen[address] = struct{}{}

		rec := wallet.Record{
			Address:   address,
			Chain:     "unknown",
			Label:     e.Label,
			FirstSeen: now,
		}

		// Chain and balance live somewhere in the surrounding card, when
		// the page renders one.
		card := sel.Closest(cardClassAttr)
		if card.Length() > 0 {
			text := card.Text()
			if m := chainRe.FindString(text); m != "" {
				rec.Chain = strings.ToUpper(m)
			}
			if m := balanceRe.FindStringSubmatch(text); m != nil {
				if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
					rec.Balance = v
				}
			}
		}

		records = append(records, rec)
	})

	return records
}

func (e *Extractor) extractFromScripts(doc *goquery.Document, now time.Time) []wallet.Record {
	var records []wallet.Record
	seen := make(map[string]struct{})

	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		text := sel.Text()
		if !strings.Contains(text, "wallets") {
			return
		}
		for _, m := range scriptAddrRe.FindAllStringSubmatch(text, -1) {
			address := m[1]
			if address == "" {
				continue
			}
			if _, dup := seen[address]; dup {
				continue
			}
			seen[address] = struct{}{}
			records = append(records, wallet.Record{
				Address:   address,
				Chain:     "unknown",
				Label:     e.Label,
				FirstSeen: now,
			})
		}
	})

	return records
}

func scriptsMentionWallets(doc *goquery.Document) bool {
	found := false
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.Contains(sel.Text(), "wallets") {
			found = true
			return false
		}
		return true
	})
	return found
}

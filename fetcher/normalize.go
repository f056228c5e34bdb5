package fetcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// contentFields are the record keys that may carry HTML from upstream
// channels and get reduced to plain text.
var contentFields = []string{"content", "message", "text", "body"}

// normalizeRecord strips markup from known content fields in place.
func normalizeRecord(r state.Record) {
	for _, field := range contentFields {
		raw, ok := r[field].(string)
		if !ok || raw == "" {
			continue
		}
		if cleaned := StripHTML(raw); cleaned != raw {
			r[field] = cleaned
		}
	}
}

// StripHTML removes tags from a fragment and collapses the remaining
// whitespace. Input that fails to parse is returned unchanged.
func StripHTML(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

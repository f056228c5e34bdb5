package classifier

import (
	"context"
	"sort"
	"strings"

	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// ThemeRule maps a theme name to the keywords that place a record in it.
type ThemeRule struct {
	Name     string
	Keywords []string
}

// DefaultRules cover the recurring social-listening themes. Records matching
// none of them land in the catch-all "general discussion" theme.
func DefaultRules() []ThemeRule {
	return []ThemeRule{
		{Name: "praise", Keywords: []string{"love", "great", "amazing", "excellent", "awesome", "best"}},
		{Name: "complaints", Keywords: []string{"broken", "terrible", "worst", "awful", "disappointed", "refund", "fail"}},
		{Name: "support requests", Keywords: []string{"help", "how do i", "issue", "problem", "support", "not working"}},
		{Name: "pricing", Keywords: []string{"price", "expensive", "cheap", "cost", "discount", "deal"}},
		{Name: "feature requests", Keywords: []string{"wish", "should add", "feature", "would be nice", "missing"}},
	}
}

const fallbackTheme = "general discussion"

// Keyword is a deterministic classifier that buckets records by keyword
// occurrence in their content fields. It backs local development and acts as
// the fallback when no model-backed classifier is configured.
type Keyword struct {
	rules []ThemeRule
}

// NewKeyword builds a keyword classifier, defaulting to DefaultRules when
// none are given.
func NewKeyword(rules ...ThemeRule) *Keyword {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Keyword{rules: rules}
}

// Classify assigns each record to every rule whose keywords appear in its
// content. Themes come back sorted by member count, relevance being the
// matched share of the record set.
func (k *Keyword) Classify(_ context.Context, _ string, records []state.Record) ([]state.Theme, error) {
	if len(records) == 0 {
		return nil, nil
	}

	members := make(map[string][]string, len(k.rules))
	keywords := make(map[string]map[string]bool)
	for _, rec := range records {
		content := strings.ToLower(recordContent(rec))
		matched := false
		for _, rule := range k.rules {
			for _, kw := range rule.Keywords {
				if strings.Contains(content, kw) {
					members[rule.Name] = append(members[rule.Name], rec.ID())
					if keywords[rule.Name] == nil {
						keywords[rule.Name] = make(map[string]bool)
					}
					keywords[rule.Name][kw] = true
					matched = true
					break
				}
			}
		}
		if !matched {
			members[fallbackTheme] = append(members[fallbackTheme], rec.ID())
		}
	}

	themes := make([]state.Theme, 0, len(members))
	for name, ids := range members {
		themes = append(themes, state.Theme{
			Name:      name,
			Keywords:  sortedKeys(keywords[name]),
			Relevance: float64(len(ids)) / float64(len(records)),
			MemberIDs: ids,
		})
	}
	sort.Slice(themes, func(i, j int) bool {
		if len(themes[i].MemberIDs) != len(themes[j].MemberIDs) {
			return len(themes[i].MemberIDs) > len(themes[j].MemberIDs)
		}
		return themes[i].Name < themes[j].Name
	})
	return themes, nil
}

// recordContent concatenates the text-bearing fields of a record.
func recordContent(r state.Record) string {
	var parts []string
	for _, field := range []string{"content", "message", "text", "body", "title"} {
		if s, ok := r[field].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

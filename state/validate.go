package state

import (
	"fmt"
	"regexp"
	"strings"

	inserr "github.com/Pratham2403/insights-dashboard-sub001/errors"
)

// channelAliases maps user spellings to canonical channel names.
var channelAliases = map[string]string{
	"twitter":   "twitter",
	"x":         "twitter",
	"instagram": "instagram",
	"insta":     "instagram",
	"facebook":  "facebook",
	"fb":        "facebook",
	"youtube":   "youtube",
	"tiktok":    "tiktok",
	"linkedin":  "linkedin",
	"reddit":    "reddit",
	"news":      "news",
	"blogs":     "blogs",
	"blog":      "blogs",
	"forums":    "forums",
	"forum":     "forums",
	"reviews":   "reviews",
	"review":    "reviews",
}

// KnownChannels lists the canonical channel names accepted by validation.
var KnownChannels = []string{
	"twitter", "instagram", "facebook", "youtube", "tiktok",
	"linkedin", "reddit", "news", "blogs", "forums", "reviews",
}

// CanonicalChannel normalizes a channel name, reporting whether it is known.
func CanonicalChannel(name string) (string, bool) {
	canon, ok := channelAliases[strings.ToLower(strings.TrimSpace(name))]
	return canon, ok
}

var (
	relativePeriodRe = regexp.MustCompile(`(?i)^last\s+(\d+)\s+(day|week|month|year)s?$`)
	absolutePeriodRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.\.\d{4}-\d{2}-\d{2}$`)
)

// ValidTimePeriod accepts "last N days|weeks|months|years" or an absolute
// "YYYY-MM-DD..YYYY-MM-DD" range.
func ValidTimePeriod(period string) bool {
	period = strings.TrimSpace(period)
	return relativePeriodRe.MatchString(period) || absolutePeriodRe.MatchString(period)
}

// FieldError describes a single requirement field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks every required field against its domain constraint and
// returns one FieldError per failure. Unpopulated required fields fail with a
// "missing" reason so callers can fold them into MissingFields directly.
func Validate(r *Requirements, required []string) []FieldError {
	var errs []FieldError
	for _, field := range required {
		if !r.Populated(field) {
			errs = append(errs, FieldError{Field: field, Reason: "missing"})
			continue
		}
		if err := validateField(r, field); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

func validateField(r *Requirements, field string) *FieldError {
	switch field {
	case FieldChannels:
		for _, ch := range r.Channels {
			if _, ok := CanonicalChannel(ch); !ok {
				return &FieldError{Field: field, Reason: fmt.Sprintf("unrecognized channel %q", ch)}
			}
		}
	case FieldTimePeriod:
		if !ValidTimePeriod(r.TimePeriod) {
			return &FieldError{Field: field, Reason: fmt.Sprintf("unparseable time period %q", r.TimePeriod)}
		}
	case FieldProducts:
		for _, p := range r.Products {
			if strings.TrimSpace(p) == "" {
				return &FieldError{Field: field, Reason: "empty product name"}
			}
		}
	case FieldGoals:
		for _, g := range r.Goals {
			if strings.TrimSpace(g) == "" {
				return &FieldError{Field: field, Reason: "empty goal"}
			}
		}
	}
	return nil
}

// ValidationError folds field errors into a single wrapped sentinel error.
func ValidationError(errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return fmt.Errorf("%w: %s", inserr.ErrValidation, strings.Join(parts, "; "))
}

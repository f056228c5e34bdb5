package workflow

import (
	"regexp"
	"strings"
)

// Decision is the interpretation of a user reply at a confirmation point.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionRefine  Decision = "refine"
	DecisionUnclear Decision = "unclear"
)

var (
	approvalRe = regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|yup|sure|ok|okay|fine|approved?|confirm(ed)?|correct|perfect|great|proceed|go ahead|looks good|lgtm|sounds good|do it)\b`)

	rejectionRe = regexp.MustCompile(`(?i)^\s*(no|nope|nah|wrong|incorrect|not (right|correct|what i)|don'?t)\b`)

	refinementRe = regexp.MustCompile(`(?i)\b(change|modify|instead|actually|remove|add|drop|replace|different|refine|update|adjust|rather|also include|exclude|swap|but)\b`)
)

// Classify maps a confirmation reply to a decision. Approval phrases win
// unless the reply also asks for a change, refinement or rejection phrases
// send the conversation back to gathering, anything else is unclear and gets
// re-asked.
func Classify(input string) Decision {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return DecisionUnclear
	}

	if approvalRe.MatchString(trimmed) {
		// "yes, but change the channel" is a refinement, not an approval.
		if refinementRe.MatchString(trimmed) {
			return DecisionRefine
		}
		return DecisionApprove
	}
	if rejectionRe.MatchString(trimmed) || refinementRe.MatchString(trimmed) {
		return DecisionRefine
	}
	return DecisionUnclear
}

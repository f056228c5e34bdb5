package workflow

import (
	"fmt"
	"strings"

	"github.com/Pratham2403/insights-dashboard-sub001/message"
	"github.com/Pratham2403/insights-dashboard-sub001/prompt"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

func messageFromUser(input string) *message.Message {
	return message.New(message.RoleUser, input)
}

// fieldLabels map requirement field names to how they read in a reply.
var fieldLabels = map[string]string{
	state.FieldProducts:   "the products or brands to analyze",
	state.FieldChannels:   "the social channels to cover",
	state.FieldGoals:      "what you want to learn from the data",
	state.FieldTimePeriod: "the time period",
	state.FieldLocation:   "the location",
	state.FieldPersona:    "your role or team",
}

func (e *Engine) askMissingMessage(missing []string) string {
	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		if label, ok := fieldLabels[f]; ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, f)
		}
	}
	out, err := e.prompts.Render(prompt.AskMissing, map[string]interface{}{
		"fields": strings.Join(labels, "; "),
	})
	if err != nil {
		return "I still need a bit more information: " + strings.Join(labels, "; ") + "."
	}
	return out
}

func validationMessage(errs []state.FieldError) string {
	var sb strings.Builder
	sb.WriteString("Before I can run this, a few details need fixing:")
	for _, fe := range errs {
		fmt.Fprintf(&sb, "\n- %s: %s", fe.Field, fe.Reason)
	}
	return sb.String()
}

func summaryMessage(st *state.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I analyzed %d records across %d queries and found %d themes:",
		len(st.Records), len(st.Queries), len(st.Themes))
	for _, th := range st.Themes {
		fmt.Fprintf(&sb, "\n- %s (%d records, %.0f%% of the data)",
			th.Name, len(th.MemberIDs), th.Relevance*100)
	}
	if len(st.DefaultsApplied) > 0 {
		fmt.Fprintf(&sb, "\nDefaults applied: %s.", strings.Join(st.DefaultsApplied, ", "))
	}
	sb.WriteString("\nDoes this look right, or should I change anything?")
	return sb.String()
}

package workflow

import "testing"

func TestClassifyDecision(t *testing.T) {
	cases := []struct {
		input string
		want  Decision
	}{
		{"yes", DecisionApprove},
		{"Yes, looks good", DecisionApprove},
		{"lgtm", DecisionApprove},
		{"go ahead and finalize", DecisionApprove},
		{"ok proceed", DecisionApprove},
		{"perfect", DecisionApprove},

		{"yes but change the channel to reddit", DecisionRefine},
		{"no, that's wrong", DecisionRefine},
		{"actually add instagram too", DecisionRefine},
		{"remove the pricing theme", DecisionRefine},
		{"can you use a different time period", DecisionRefine},
		{"update the product to Pixel 9", DecisionRefine},

		{"", DecisionUnclear},
		{"   ", DecisionUnclear},
		{"the weather is nice", DecisionUnclear},
		{"what does relevance mean", DecisionUnclear},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			if got := Classify(tc.input); got != tc.want {
				t.Errorf("Classify(%q) = %s, want %s", tc.input, got, tc.want)
			}
		})
	}
}

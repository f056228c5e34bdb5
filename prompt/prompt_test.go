package prompt

import (
	"strings"
	"testing"
)

func TestManagerBuiltins(t *testing.T) {
	m := NewManager()
	for _, name := range []string{RefineQuery, ClassifyThemes, AskMissing} {
		if _, err := m.Get(name); err != nil {
			t.Errorf("Get(%s) error = %v", name, err)
		}
	}
}

func TestRenderRefineQuery(t *testing.T) {
	m := NewManager()
	out, err := m.Render(RefineQuery, map[string]interface{}{
		"input": "sentiment for Pixel on twitter",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "sentiment for Pixel on twitter") {
		t.Errorf("rendered prompt missing input: %s", out)
	}
	if strings.Contains(out, "Conversation so far") {
		t.Errorf("history section rendered without history")
	}
}

func TestRenderAskMissing(t *testing.T) {
	m := NewManager()
	out, err := m.Render(AskMissing, map[string]interface{}{
		"fields": "products, channels",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "products, channels") {
		t.Errorf("rendered prompt = %q", out)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	m := NewManager()
	if err := m.RegisterString("custom", "hello {{.name}}"); err != nil {
		t.Fatalf("RegisterString() error = %v", err)
	}
	if err := m.RegisterString("custom", "again"); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestRegisterInvalidTemplate(t *testing.T) {
	m := NewManager()
	if err := m.RegisterString("bad", "{{.unclosed"); err == nil {
		t.Error("expected parse error")
	}
}

func TestBudgetCountAndTruncate(t *testing.T) {
	b, err := NewBudget("gpt-4o", 100)
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}

	text := "analyze customer sentiment across social channels"
	n := b.Count(text)
	if n == 0 {
		t.Fatal("Count() = 0 for non-empty text")
	}
	if !b.Fits(text) {
		t.Errorf("short text should fit a 100 token budget")
	}

	truncated := b.Truncate(text, n-1)
	if got := b.Count(truncated); got > n-1 {
		t.Errorf("truncated text counts %d tokens, want <= %d", got, n-1)
	}
	if b.Truncate(text, n) != text {
		t.Errorf("truncating to exact size should return text unchanged")
	}
}

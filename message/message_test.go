package message

import "testing"

func TestNew(t *testing.T) {
	msg := New(RoleUser, "hello")
	if msg.ID == "" {
		t.Error("New() should assign an ID")
	}
	if msg.Role != RoleUser || msg.Content != "hello" {
		t.Errorf("message = %+v", msg)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("New() should set CreatedAt")
	}
	if msg.Metadata == nil {
		t.Error("New() should initialize Metadata")
	}

	other := New(RoleAssistant, "hi")
	if other.ID == msg.ID {
		t.Error("IDs should be unique")
	}
}

func TestClone(t *testing.T) {
	msg := New(RoleUser, "hello")
	msg.Metadata["stage"] = "collecting"

	cloned := Clone(msg)
	if cloned == msg {
		t.Fatal("Clone() returned the same pointer")
	}
	if cloned.ID != msg.ID || cloned.Content != msg.Content {
		t.Errorf("clone = %+v, want copy of %+v", cloned, msg)
	}

	cloned.Metadata["stage"] = "end"
	if msg.Metadata["stage"] != "collecting" {
		t.Error("Clone() shares metadata with the original")
	}

	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}

func TestCloneAll(t *testing.T) {
	msgs := []*Message{New(RoleUser, "a"), New(RoleAssistant, "b")}
	clones := CloneAll(msgs)
	if len(clones) != 2 {
		t.Fatalf("clones = %d, want 2", len(clones))
	}
	for i := range msgs {
		if clones[i] == msgs[i] {
			t.Errorf("clone %d aliases the original", i)
		}
		if clones[i].Content != msgs[i].Content {
			t.Errorf("clone %d content = %q", i, clones[i].Content)
		}
	}
	if CloneAll(nil) != nil {
		t.Error("CloneAll(nil) should be nil")
	}
}

package domain

import "testing"

func TestConversationAppendOrder(t *testing.T) {
	c := NewConversation()
	c.Append(RoleUser, "first")
	c.Append(RoleAssistant, "second")
	c.Append(RoleSystem, "third")

	entries := c.Entries()
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	for i, want := range []string{"first", "second", "third"} {
		if entries[i].Text != want {
			t.Errorf("entries[%d].Text = %q, want %q", i, entries[i].Text, want)
		}
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("entries should be timestamped")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	c := NewConversation()
	c.Append(RoleUser, "original")

	got := c.Entries()
	got[0].Text = "mutated"

	if c.Entries()[0].Text != "original" {
		t.Error("mutating the returned slice must not change history")
	}
}

func TestTail(t *testing.T) {
	c := NewConversation()
	for _, text := range []string{"a", "b", "c", "d"} {
		c.Append(RoleUser, text)
	}

	tail := c.Tail(2)
	if len(tail) != 2 || tail[0].Text != "c" || tail[1].Text != "d" {
		t.Fatalf("Tail(2) = %+v, want the two most recent entries", tail)
	}
	if got := c.Tail(10); len(got) != 4 {
		t.Errorf("Tail(10) len = %d, want all 4", len(got))
	}
	if got := c.Tail(0); got != nil {
		t.Errorf("Tail(0) = %v, want nil", got)
	}
}

package cursor

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/devyuvraj7/telegram-drive/internal/transport"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cursor.bolt"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOffsetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	offset, err := s.Offset()
	if err != nil {
		t.Fatalf("Offset: %v", err)
	}
	if offset != 0 {
		t.Errorf("fresh store offset = %d, want 0", offset)
	}

	if err := s.SetOffset(12345); err != nil {
		t.Fatalf("SetOffset: %v", err)
	}
	offset, err = s.Offset()
	if err != nil {
		t.Fatalf("Offset: %v", err)
	}
	if offset != 12345 {
		t.Errorf("offset = %d, want 12345", offset)
	}
}

func TestRecentEntriesOrderAndLimit(t *testing.T) {
	s := openTestStore(t)

	for seq := int64(1); seq <= 10; seq++ {
		entry := transport.RawEntry{
			Kind: transport.KindText,
			ID:   string(rune('a' + seq - 1)),
			Text: "folder:F",
		}
		if err := s.PutEntry(seq, entry); err != nil {
			t.Fatalf("PutEntry(%d): %v", seq, err)
		}
	}

	entries, err := s.RecentEntries(3)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.ID)
	}
	// The three highest sequences, oldest first.
	want := []string{"h", "i", "j"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RecentEntries order mismatch (-want +got):\n%s", diff)
	}

	all, err := s.RecentEntries(100)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(all) != 10 {
		t.Errorf("RecentEntries(100) returned %d entries, want all 10", len(all))
	}
}

func TestPutEntryOverwriteIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	entry := transport.RawEntry{Kind: transport.KindBinary, ID: "42", Name: "a.png", BlobRef: "b"}
	if err := s.PutEntry(7, entry); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}
	if err := s.PutEntry(7, entry); err != nil {
		t.Fatalf("PutEntry again: %v", err)
	}

	n, err := s.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
}

func TestReopenKeepsState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cursor.bolt")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SetOffset(99); err != nil {
		t.Fatalf("SetOffset: %v", err)
	}
	if err := s.PutEntry(1, transport.RawEntry{Kind: transport.KindText, ID: "1", Text: "folder:X"}); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	offset, err := s.Offset()
	if err != nil {
		t.Fatalf("Offset: %v", err)
	}
	if offset != 99 {
		t.Errorf("offset after reopen = %d, want 99", offset)
	}
	entries, err := s.RecentEntries(10)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "1" {
		t.Errorf("entries after reopen = %v, want the one persisted entry", entries)
	}
}

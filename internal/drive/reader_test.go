package drive

import (
	"context"
	"errors"
	"testing"

	"github.com/devyuvraj7/telegram-drive/internal/record"
	"github.com/devyuvraj7/telegram-drive/internal/transport"
)

func names(records []record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.DisplayName()
	}
	return out
}

func TestReaderListFiltersByParent(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	coord := NewCoordinator(tr)

	photos, err := coord.CreateFolder(ctx, "Photos", "")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if _, err := coord.CreateFolder(ctx, "Videos", ""); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if _, err := coord.CreateFile(ctx, payload("x"), 1, "a.png", photos.ID, nil); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := coord.CreateFile(ctx, payload("y"), 1, "root.txt", "", nil); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	reader := NewReader(tr, 100)

	inPhotos, err := reader.List(ctx, photos.ID)
	if err != nil {
		t.Fatalf("List(Photos): %v", err)
	}
	if got := names(inPhotos); len(got) != 1 || got[0] != "a.png" {
		t.Errorf("List(Photos) = %v, want [a.png]", got)
	}
	file, ok := inPhotos[0].(*record.File)
	if !ok {
		t.Fatalf("List(Photos)[0] = %T, want *record.File", inPhotos[0])
	}
	if file.ParentID != photos.ID {
		t.Errorf("file parent = %q, want %q", file.ParentID, photos.ID)
	}
	if file.URL == "" {
		t.Error("file URL was not resolved")
	}

	atRoot, err := reader.List(ctx, "")
	if err != nil {
		t.Fatalf("List(root): %v", err)
	}
	if got := names(atRoot); len(got) != 3 {
		t.Errorf("List(root) = %v, want Photos, Videos and root.txt", got)
	}
}

func TestReaderListOrphanClassifiesAsRoot(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	// A file whose declared parent never appears in the page.
	tr.addRaw(transport.RawEntry{
		Kind:    transport.KindBinary,
		Name:    "lost.png",
		Caption: "parent:9999",
		BlobRef: "blob-lost",
	})

	reader := NewReader(tr, 100)
	atRoot, err := reader.List(ctx, "")
	if err != nil {
		t.Fatalf("List(root): %v", err)
	}
	if got := names(atRoot); len(got) != 1 || got[0] != "lost.png" {
		t.Errorf("List(root) = %v, want the orphan [lost.png]", got)
	}

	// The phantom parent itself lists empty, not an error.
	inPhantom, err := reader.List(ctx, "9999")
	if err != nil {
		t.Fatalf("List(9999): %v", err)
	}
	if len(inPhantom) != 0 {
		t.Errorf("List(9999) = %v, want empty", names(inPhantom))
	}
}

func TestReaderListSkipsUnrelatedTraffic(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	tr.addRaw(transport.RawEntry{Kind: transport.KindText, Text: "just chatting"})
	tr.addRaw(transport.RawEntry{Kind: transport.KindText, Text: "folder:Docs"})
	tr.addRaw(transport.RawEntry{Kind: transport.KindText, Text: "not-a-folder:Docs"})

	reader := NewReader(tr, 100)
	atRoot, err := reader.List(ctx, "")
	if err != nil {
		t.Fatalf("List(root): %v", err)
	}
	if got := names(atRoot); len(got) != 1 || got[0] != "Docs" {
		t.Errorf("List(root) = %v, want [Docs]", got)
	}
}

func TestReaderListPreservesPageOrder(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	for _, name := range []string{"c", "a", "b"} {
		tr.addRaw(transport.RawEntry{Kind: transport.KindBinary, Name: name, BlobRef: "blob-" + name})
	}

	reader := NewReader(tr, 100)
	atRoot, err := reader.List(ctx, "")
	if err != nil {
		t.Fatalf("List(root): %v", err)
	}
	want := []string{"c", "a", "b"}
	got := names(atRoot)
	if len(got) != len(want) {
		t.Fatalf("List(root) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List(root) = %v, want transport order %v", got, want)
		}
	}
}

func TestReaderListFetchFailureIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	tr.fetchErr = transport.NewError("fetchRecentEntries", transport.KindNetwork, errors.New("connection reset"))

	reader := NewReader(tr, 100)
	records, err := reader.List(ctx, "")
	if err == nil {
		t.Fatal("List returned nil error")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("List error = %T, want *FetchError", err)
	}
	if records != nil {
		t.Errorf("List returned partial results alongside error: %v", names(records))
	}
}

func TestReaderListResolveFailureAbortsPage(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	tr.addRaw(transport.RawEntry{Kind: transport.KindBinary, Name: "a", BlobRef: "blob-a"})
	tr.resolveErr = transport.NewError("resolveBlobURL", transport.KindNetwork, errors.New("timeout"))

	reader := NewReader(tr, 100)
	if _, err := reader.List(ctx, ""); err == nil {
		t.Fatal("List returned nil error despite resolve failure")
	}
}

func TestReaderBoundedWindowHidesOldRecords(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	tr.addRaw(transport.RawEntry{Kind: transport.KindText, Text: "folder:Ancient"})
	for i := 0; i < 5; i++ {
		tr.addRaw(transport.RawEntry{Kind: transport.KindBinary, Name: "recent", BlobRef: "blob-recent"})
	}

	reader := NewReader(tr, 5)
	atRoot, err := reader.List(ctx, "")
	if err != nil {
		t.Fatalf("List(root): %v", err)
	}
	for _, name := range names(atRoot) {
		if name == "Ancient" {
			t.Error("record beyond the page window was listed")
		}
	}
}

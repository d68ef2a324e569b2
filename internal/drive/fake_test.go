package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/devyuvraj7/telegram-drive/internal/transport"
)

// fakeTransport is an in-memory log for tests. Appends assign sequential ids;
// FetchRecentEntries returns the tail of the log up to the limit, oldest
// first, like the real transport.
type fakeTransport struct {
	mu      sync.Mutex
	entries []transport.RawEntry
	nextID  int

	fetchErr   error
	appendErr  error
	resolveErr error

	// fetchGate, when set, is received from before each fetch returns, so a
	// test can hold a fetch in flight.
	fetchGate chan struct{}

	// progressSteps drives synthetic progress callbacks during binary
	// appends, as raw percentages.
	progressSteps []int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextID: 1}
}

func (f *fakeTransport) assignID() string {
	id := strconv.Itoa(f.nextID)
	f.nextID++
	return id
}

func (f *fakeTransport) addRaw(e transport.RawEntry) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = f.assignID()
	f.entries = append(f.entries, e)
	return e.ID
}

func (f *fakeTransport) AppendBinaryEntry(ctx context.Context, payload io.Reader, size int64, name, caption string, onProgress transport.ProgressFunc) (transport.Appended, error) {
	if f.appendErr != nil {
		for _, p := range f.progressSteps {
			if onProgress != nil {
				onProgress(p)
			}
		}
		return transport.Appended{}, f.appendErr
	}
	if _, err := io.Copy(io.Discard, payload); err != nil {
		return transport.Appended{}, err
	}
	for _, p := range f.progressSteps {
		if onProgress != nil {
			onProgress(p)
		}
	}
	id := f.addRaw(transport.RawEntry{
		Kind:    transport.KindBinary,
		Name:    name,
		Caption: caption,
		BlobRef: "blob-" + name,
		Size:    size,
	})
	return transport.Appended{
		EntryID:  id,
		BlobRef:  "blob-" + name,
		MimeType: "application/octet-stream",
		Size:     size,
	}, nil
}

func (f *fakeTransport) AppendTextEntry(ctx context.Context, text string) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	return f.addRaw(transport.RawEntry{Kind: transport.KindText, Text: text}), nil
}

func (f *fakeTransport) FetchRecentEntries(ctx context.Context, limit int) ([]transport.RawEntry, error) {
	if f.fetchGate != nil {
		select {
		case <-f.fetchGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	start := 0
	if len(f.entries) > limit {
		start = len(f.entries) - limit
	}
	page := make([]transport.RawEntry, len(f.entries)-start)
	copy(page, f.entries[start:])
	return page, nil
}

func (f *fakeTransport) ResolveBlobURL(ctx context.Context, ref string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	if ref == "" {
		return "", errors.New("empty blob ref")
	}
	return fmt.Sprintf("https://blobs.example/%s", ref), nil
}

// Package drive derives a hierarchical file store from an append-only message
// log. There is no native notion of folders or listings in the log: the
// Reader reconstructs them by decoding a bounded window of recent entries,
// the Navigator turns listings into a folder-at-a-time view, and the
// Coordinator places new records by appending entries.
//
// The page window is the contract, not a bug: records older than the most
// recent page are invisible until the transport grows an offset-tracking
// fetch (see the cursor package for the extension point). Creates and
// listings are therefore eventually consistent, never immediate.
package drive

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/devyuvraj7/telegram-drive/internal/codec"
	"github.com/devyuvraj7/telegram-drive/internal/logging"
	"github.com/devyuvraj7/telegram-drive/internal/metrics"
	"github.com/devyuvraj7/telegram-drive/internal/record"
	"github.com/devyuvraj7/telegram-drive/internal/transport"
)

// DefaultPageSize matches the ceiling most log transports enforce.
const DefaultPageSize = 100

// Reader lists one folder at a time out of the visible page of the log.
type Reader struct {
	tr       transport.Transport
	pageSize int
}

// NewReader creates a Reader. pageSize <= 0 selects DefaultPageSize.
func NewReader(tr transport.Transport, pageSize int) *Reader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Reader{tr: tr, pageSize: pageSize}
}

// List fetches the current page, decodes it, and returns the records whose
// effective parent is folderID ("" = root), in transport page order. Blob
// URLs are resolved only for file records that pass the filter. Any transport
// failure aborts the whole call with a *FetchError and no partial results.
//
// A record whose parent is not visible in the same page (an orphan) is
// classified as root-level rather than dropped.
func (r *Reader) List(ctx context.Context, folderID string) ([]record.Record, error) {
	start := time.Now()

	entries, err := r.tr.FetchRecentEntries(ctx, r.pageSize)
	if err != nil {
		return nil, &FetchError{FolderID: folderID, Err: err}
	}

	decoded := make([]record.Record, 0, len(entries))
	visible := make(map[string]struct{}, len(entries))
	for _, raw := range entries {
		rec, ok := codec.Decode(raw)
		if !ok {
			metrics.RecordDecodeSkip()
			continue
		}
		switch rec.(type) {
		case *record.File:
			metrics.RecordEntryDecoded("file")
		case *record.Folder:
			metrics.RecordEntryDecoded("folder")
		}
		decoded = append(decoded, rec)
		visible[rec.RecordID()] = struct{}{}
	}

	var result []record.Record
	for _, rec := range decoded {
		if effectiveParent(rec, visible) != folderID {
			continue
		}
		if f, ok := rec.(*record.File); ok {
			if err := r.resolve(ctx, f); err != nil {
				return nil, &FetchError{FolderID: folderID, Err: err}
			}
		}
		result = append(result, rec)
	}

	metrics.RecordPageFetch(time.Since(start))
	logging.Debug("listed folder",
		zap.String("folder_id", folderID),
		zap.Int("page_entries", len(entries)),
		zap.Int("matched", len(result)))
	return result, nil
}

// effectiveParent maps orphans (parent not visible in this page) to root.
func effectiveParent(rec record.Record, visible map[string]struct{}) string {
	parent := rec.Parent()
	if parent == "" {
		return ""
	}
	if _, ok := visible[parent]; !ok {
		return ""
	}
	return parent
}

func (r *Reader) resolve(ctx context.Context, f *record.File) error {
	url, err := r.tr.ResolveBlobURL(ctx, f.BlobRef)
	if err != nil {
		return err
	}
	f.URL = url
	if f.PreviewRef != "" {
		preview, err := r.tr.ResolveBlobURL(ctx, f.PreviewRef)
		if err != nil {
			return err
		}
		f.PreviewURL = preview
	}
	return nil
}

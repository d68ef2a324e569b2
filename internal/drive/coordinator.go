package drive

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/devyuvraj7/telegram-drive/internal/codec"
	"github.com/devyuvraj7/telegram-drive/internal/logging"
	"github.com/devyuvraj7/telegram-drive/internal/metrics"
	"github.com/devyuvraj7/telegram-drive/internal/record"
	"github.com/devyuvraj7/telegram-drive/internal/transport"
)

// Coordinator places new file and folder records by appending entries to the
// log. It performs no automatic retry: retry policy is a caller concern, and
// the typed errors keep failures distinguishable so one can be layered on.
//
// A retried append that actually succeeded the first time creates a duplicate
// record under a fresh id; nothing deduplicates by name and parent. That is a
// property of the log, observable and deliberate.
type Coordinator struct {
	tr transport.Transport
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(tr transport.Transport) *Coordinator {
	return &Coordinator{tr: tr}
}

// CreateFile appends payload as a binary entry under parentID ("" = root),
// resolves the resulting blob reference, and returns the fully-populated file
// record. onProgress (may be nil) receives non-decreasing percentages; 100 is
// delivered exactly once, after the whole create succeeded, and never after a
// failure.
func (c *Coordinator) CreateFile(ctx context.Context, payload io.Reader, size int64, name, parentID string, onProgress transport.ProgressFunc) (*record.File, error) {
	caption := codec.EncodeFileCaption(parentID)

	appended, err := c.tr.AppendBinaryEntry(ctx, payload, size, name, caption, transferProgress(onProgress))
	if err != nil {
		return nil, &UploadError{Name: name, Err: err}
	}

	url, err := c.tr.ResolveBlobURL(ctx, appended.BlobRef)
	if err != nil {
		return nil, &UploadError{Name: name, Err: err}
	}

	f := &record.File{
		ID:       appended.EntryID,
		Name:     name,
		ParentID: parentID,
		MimeType: appended.MimeType,
		BlobRef:  appended.BlobRef,
		URL:      url,
		Size:     appended.Size,
	}
	if f.MimeType == "" {
		f.MimeType = "application/octet-stream"
	}
	if appended.PreviewRef != "" {
		f.PreviewRef = appended.PreviewRef
		if preview, err := c.tr.ResolveBlobURL(ctx, appended.PreviewRef); err == nil {
			f.PreviewURL = preview
		}
	}

	if onProgress != nil {
		onProgress(100)
	}
	metrics.RecordBytesUploaded(size)
	logging.Info("file created",
		zap.String("id", f.ID),
		zap.String("name", name),
		zap.String("parent_id", parentID),
		zap.Int64("size", size))
	return f, nil
}

// CreateFolder appends the folder declaration text entry and returns the
// folder record under the id the log assigned to that entry. Names containing
// the wire separator are rejected before any network traffic.
func (c *Coordinator) CreateFolder(ctx context.Context, name, parentID string) (*record.Folder, error) {
	text, err := codec.EncodeFolderText(name, parentID)
	if err != nil {
		return nil, &CreateError{Name: name, Err: err}
	}

	id, err := c.tr.AppendTextEntry(ctx, text)
	if err != nil {
		return nil, &CreateError{Name: name, Err: err}
	}

	logging.Info("folder created",
		zap.String("id", id),
		zap.String("name", name),
		zap.String("parent_id", parentID))
	return &record.Folder{ID: id, Name: name, ParentID: parentID}, nil
}

// transferProgress clamps raw transfer percentages to [0, 99], monotonically
// non-decreasing. The terminal 100 is reserved for CreateFile so that a
// failure after the last byte never reports completion.
func transferProgress(onProgress transport.ProgressFunc) transport.ProgressFunc {
	if onProgress == nil {
		return nil
	}
	last := -1
	return func(percent int) {
		if percent > 99 {
			percent = 99
		}
		if percent <= last {
			return
		}
		last = percent
		onProgress(percent)
	}
}

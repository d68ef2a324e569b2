// Package transport defines the append-only log boundary the drive is built
// on. Implementations append entries to an external message log and fetch a
// bounded window of recent entries back; they never expose folders, parents,
// or listings, which are derived by the drive layer.
package transport

import (
	"context"
	"fmt"
	"io"
)

// EntryKind discriminates the two wire shapes the log accepts.
type EntryKind int

const (
	// KindBinary is an attachment entry with an optional caption.
	KindBinary EntryKind = iota
	// KindText is a plain text entry.
	KindText
)

// RawEntry is one unit of the external log, as returned by FetchRecentEntries.
// Fields other than Kind and ID are best-effort: the log carries unrelated
// traffic and partially-populated entries, and decoding must tolerate both.
type RawEntry struct {
	Kind       EntryKind
	ID         string
	MimeType   string
	Name       string
	Caption    string
	Text       string
	BlobRef    string
	PreviewRef string
	Size       int64
}

// ProgressFunc receives upload progress as a percentage in [0, 100]. Values
// are non-decreasing; 100 is delivered exactly once, on success.
type ProgressFunc func(percent int)

// Appended describes a binary entry after a successful append. Both the entry
// id and the blob reference are assigned by the log, so neither can be known
// before the append succeeds.
type Appended struct {
	EntryID    string
	BlobRef    string
	PreviewRef string
	MimeType   string
	Size       int64
}

// Transport is the external collaborator the drive core depends on. Every
// method is one network round trip and honors ctx cancellation.
type Transport interface {
	// AppendBinaryEntry appends an attachment entry. onProgress may be nil.
	AppendBinaryEntry(ctx context.Context, payload io.Reader, size int64, name, caption string, onProgress ProgressFunc) (Appended, error)

	// AppendTextEntry appends a text entry and returns its assigned id.
	AppendTextEntry(ctx context.Context, text string) (string, error)

	// FetchRecentEntries returns the most recent entries, oldest first, up to
	// the given limit. The log enforces its own ceiling; callers must not
	// assume they ever see full history.
	FetchRecentEntries(ctx context.Context, limit int) ([]RawEntry, error)

	// ResolveBlobURL turns an opaque blob reference into a fetchable URL.
	ResolveBlobURL(ctx context.Context, ref string) (string, error)
}

// ErrorKind classifies transport failures so retry policy can be layered on
// by callers without inspecting provider-specific errors.
type ErrorKind int

const (
	// KindNetwork covers connection, DNS and timeout failures.
	KindNetwork ErrorKind = iota
	// KindQuota covers rate-limit rejections (e.g. HTTP 429).
	KindQuota
	// KindRejected covers payloads the log refused (4xx class).
	KindRejected
	// KindDecode covers responses the client could not interpret.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindQuota:
		return "quota"
	case KindRejected:
		return "rejected"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error wraps a transport failure with the operation that failed and a
// coarse classification. The original cause is preserved for errors.Is/As.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a transport Error.
func NewError(op string, kind ErrorKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

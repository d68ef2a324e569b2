// Package record defines the typed view of log entries as files and folders.
package record

import "strings"

// Record is a decoded drive entry: either a *File or a *Folder. The two kinds
// share one identifier space and one parent relation; consumers switch on the
// concrete type rather than probing fields.
type Record interface {
	// RecordID returns the transport-assigned identifier.
	RecordID() string

	// Parent returns the parent folder id, or "" for root-level records.
	Parent() string

	// DisplayName returns the name shown in listings.
	DisplayName() string

	isRecord()
}

// File is a binary entry stored in the log.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	MimeType string `json:"mime_type"`

	// BlobRef and PreviewRef are opaque transport references; URL and
	// PreviewURL are their resolved forms, populated only after a separate
	// resolution round trip.
	BlobRef    string `json:"blob_ref"`
	PreviewRef string `json:"preview_ref,omitempty"`
	URL        string `json:"url,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`

	Size int64 `json:"size,omitempty"`
}

// Folder is declared by a specially-formatted text entry. Its ID is the id the
// transport assigned to that entry, known only after the append succeeded.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

func (f *File) RecordID() string      { return f.ID }
func (f *File) Parent() string        { return f.ParentID }
func (f *File) DisplayName() string   { return f.Name }
func (f *File) isRecord()             {}
func (d *Folder) RecordID() string    { return d.ID }
func (d *Folder) Parent() string      { return d.ParentID }
func (d *Folder) DisplayName() string { return d.Name }
func (d *Folder) isRecord()           {}

// Class buckets a file by MIME prefix for renderer selection.
type Class string

const (
	ClassImage Class = "image"
	ClassVideo Class = "video"
	ClassAudio Class = "audio"
	ClassOther Class = "other"
)

// Class returns the renderer class for the file's MIME type.
func (f *File) Class() Class {
	switch {
	case strings.HasPrefix(f.MimeType, "image/"):
		return ClassImage
	case strings.HasPrefix(f.MimeType, "video/"):
		return ClassVideo
	case strings.HasPrefix(f.MimeType, "audio/"):
		return ClassAudio
	default:
		return ClassOther
	}
}

// Package codec maps logical file and folder records to and from the two wire
// shapes the log transport understands: a binary attachment with a caption,
// and a plain text entry.
//
// Wire formats (bit-exact, required for interop with existing logs):
//
//	folder declaration:  "folder:<name>"  or  "folder:<name>:<parentID>"
//	file parent caption: "parent:<parentID>", omitted for root
package codec

import (
	"errors"
	"strings"

	"github.com/devyuvraj7/telegram-drive/internal/record"
	"github.com/devyuvraj7/telegram-drive/internal/transport"
)

const (
	folderPrefix = "folder:"
	parentPrefix = "parent:"
	separator    = ":"
)

// ErrInvalidFolderName is returned when a folder name is empty or contains the
// wire separator. Rejecting the separator at creation time keeps decoding
// unambiguous instead of relying on a parsing heuristic.
var ErrInvalidFolderName = errors.New("folder name must be non-empty and must not contain ':'")

// ValidFolderName reports whether name can be encoded unambiguously.
func ValidFolderName(name string) bool {
	return name != "" && !strings.Contains(name, separator)
}

// EncodeFileCaption builds the caption carried alongside a binary attachment.
// The payload and display name travel as transport-native attachment metadata,
// not through this codec.
func EncodeFileCaption(parentID string) string {
	if parentID == "" {
		return ""
	}
	return parentPrefix + parentID
}

// EncodeFolderText builds the text entry that declares a folder.
func EncodeFolderText(name, parentID string) (string, error) {
	if !ValidFolderName(name) {
		return "", ErrInvalidFolderName
	}
	if parentID == "" {
		return folderPrefix + name, nil
	}
	return folderPrefix + name + separator + parentID, nil
}

// Decode turns a raw log entry into a typed record. The second return value
// is false for entries that are neither files nor folder declarations
// (unrelated log traffic); such entries are skipped, never an error, so one
// malformed entry cannot abort a page decode.
func Decode(raw transport.RawEntry) (record.Record, bool) {
	switch raw.Kind {
	case transport.KindBinary:
		return decodeFile(raw), true
	case transport.KindText:
		return decodeFolder(raw)
	default:
		return nil, false
	}
}

func decodeFile(raw transport.RawEntry) *record.File {
	f := &record.File{
		ID:         raw.ID,
		Name:       raw.Name,
		MimeType:   raw.MimeType,
		BlobRef:    raw.BlobRef,
		PreviewRef: raw.PreviewRef,
		Size:       raw.Size,
	}
	if f.Name == "" {
		f.Name = "file-" + raw.ID
	}
	if f.MimeType == "" {
		f.MimeType = "application/octet-stream"
	}
	// A malformed caption degrades to a root-level file, never an error.
	if rest, ok := strings.CutPrefix(raw.Caption, parentPrefix); ok && rest != "" {
		f.ParentID = rest
	}
	return f
}

// decodeFolder parses "folder:<name>" or "folder:<name>:<parentID>". Only the
// first two separators are significant: anything after the second lands in
// the parent id verbatim. Names cannot contain the separator because
// EncodeFolderText rejects them at creation time.
func decodeFolder(raw transport.RawEntry) (record.Record, bool) {
	rest, ok := strings.CutPrefix(raw.Text, folderPrefix)
	if !ok {
		return nil, false
	}
	name, parentID, _ := strings.Cut(rest, separator)
	if name == "" {
		return nil, false
	}
	return &record.Folder{
		ID:       raw.ID,
		Name:     name,
		ParentID: parentID,
	}, true
}

package drive

import (
	"errors"
	"fmt"

	"github.com/devyuvraj7/telegram-drive/internal/transport"
)

// FetchError is returned when a page fetch failed. No partial results are
// returned alongside it: page reads are all-or-nothing.
type FetchError struct {
	FolderID string
	Err      error
}

func (e *FetchError) Error() string {
	if e.FolderID == "" {
		return fmt.Sprintf("fetch root listing: %v", e.Err)
	}
	return fmt.Sprintf("fetch folder %s: %v", e.FolderID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UploadError is returned when a file create failed. The transport's original
// error detail is preserved so callers can distinguish network, quota and
// rejected-payload failures and layer a retry policy on top; the coordinator
// itself never retries.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Kind returns the transport failure classification, or KindNetwork if the
// cause was not a transport error.
func (e *UploadError) Kind() transport.ErrorKind {
	var te *transport.Error
	if errors.As(e.Err, &te) {
		return te.Kind
	}
	return transport.KindNetwork
}

// CreateError is returned when a folder create failed.
type CreateError struct {
	Name string
	Err  error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("create folder %s: %v", e.Name, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

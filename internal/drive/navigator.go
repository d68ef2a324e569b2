package drive

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/devyuvraj7/telegram-drive/internal/logging"
	"github.com/devyuvraj7/telegram-drive/internal/metrics"
	"github.com/devyuvraj7/telegram-drive/internal/record"
)

// Update carries one applied listing to the Navigator's consumer.
type Update struct {
	FolderID string
	Records  []record.Record
}

// Navigator is the folder-at-a-time view over the Reader: a current folder,
// a back stack, and in-flight fetch bookkeeping. Each fetch is tagged with
// the generation it was issued under; a result arriving after the user has
// navigated elsewhere is discarded rather than applied to the wrong folder.
//
// The view is long-lived for the session; there is no terminal state.
type Navigator struct {
	reader   *Reader
	onUpdate func(Update)
	onError  func(folderID string, err error)

	mu      sync.Mutex
	current string
	history []string
	gen     uint64

	wg sync.WaitGroup
}

// NewNavigator creates a Navigator rooted at the top level. onUpdate receives
// every applied listing; onError receives fetch failures (may be nil).
func NewNavigator(reader *Reader, onUpdate func(Update), onError func(folderID string, err error)) *Navigator {
	return &Navigator{reader: reader, onUpdate: onUpdate, onError: onError}
}

// Current returns the current folder id ("" = root).
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Depth returns the size of the back stack.
func (n *Navigator) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.history)
}

// Navigate descends into a folder: the current folder is pushed onto the
// back stack and a fetch for the new folder starts.
func (n *Navigator) Navigate(ctx context.Context, into string) {
	n.mu.Lock()
	n.history = append(n.history, n.current)
	n.current = into
	n.gen++
	gen := n.gen
	n.mu.Unlock()

	n.startFetch(ctx, into, gen)
}

// Back pops the back stack into the current folder and refreshes. At root
// with an empty stack it is a no-op: no state change, no fetch.
func (n *Navigator) Back(ctx context.Context) {
	n.mu.Lock()
	if len(n.history) == 0 {
		n.mu.Unlock()
		return
	}
	n.current = n.history[len(n.history)-1]
	n.history = n.history[:len(n.history)-1]
	n.gen++
	folderID, gen := n.current, n.gen
	n.mu.Unlock()

	n.startFetch(ctx, folderID, gen)
}

// Refresh re-fetches the current folder without changing navigation state.
func (n *Navigator) Refresh(ctx context.Context) {
	n.mu.Lock()
	n.gen++
	folderID, gen := n.current, n.gen
	n.mu.Unlock()

	n.startFetch(ctx, folderID, gen)
}

// Wait blocks until all in-flight fetches have completed or been discarded.
func (n *Navigator) Wait() {
	n.wg.Wait()
}

func (n *Navigator) startFetch(ctx context.Context, folderID string, gen uint64) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		records, err := n.reader.List(ctx, folderID)

		n.mu.Lock()
		stale := gen != n.gen
		n.mu.Unlock()
		if stale {
			metrics.RecordStaleResultDropped()
			logging.Debug("dropped stale fetch result", zap.String("folder_id", folderID))
			return
		}

		if err != nil {
			if n.onError != nil {
				n.onError(folderID, err)
			}
			return
		}
		n.onUpdate(Update{FolderID: folderID, Records: records})
	}()
}

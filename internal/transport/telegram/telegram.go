// Package telegram implements the log transport over the Telegram Bot HTTP
// API. One chat is the log: documents are binary entries, messages are text
// entries, and message ids are the entry ids.
//
// The Bot API never replays a bot's own messages through getUpdates, so every
// successful append is also recorded in the local cursor store; fetches drain
// new updates into the store and serve the most recent window out of it.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/devyuvraj7/telegram-drive/internal/cursor"
	"github.com/devyuvraj7/telegram-drive/internal/metrics"
	"github.com/devyuvraj7/telegram-drive/internal/transport"
)

const defaultAPIBase = "https://api.telegram.org"

// Config holds Telegram transport configuration.
type Config struct {
	Token   string
	ChatID  int64
	APIBase string // defaults to the public Bot API endpoint

	// Cursor persists the getUpdates offset and the entries seen so far.
	Cursor *cursor.Store

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client is a transport.Transport over the Telegram Bot API.
type Client struct {
	token      string
	chatID     int64
	apiBase    string
	cursor     *cursor.Store
	httpClient *http.Client
}

var _ transport.Transport = (*Client)(nil)

// New creates a Telegram transport client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram: token is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram: chat id is required")
	}
	if cfg.Cursor == nil {
		return nil, fmt.Errorf("telegram: cursor store is required")
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 90 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	return &Client{
		token:      cfg.Token,
		chatID:     cfg.ChatID,
		apiBase:    strings.TrimRight(apiBase, "/"),
		cursor:     cfg.Cursor,
		httpClient: httpClient,
	}, nil
}

// AppendBinaryEntry implements transport.Transport via sendDocument.
func (c *Client) AppendBinaryEntry(ctx context.Context, payload io.Reader, size int64, name, caption string, onProgress transport.ProgressFunc) (transport.Appended, error) {
	const op = "sendDocument"
	start := time.Now()
	appended, err := c.sendDocument(ctx, payload, size, name, caption, onProgress)
	metrics.RecordTransportRequest(op, err, time.Since(start))
	if err != nil {
		return transport.Appended{}, err
	}
	return appended, nil
}

func (c *Client) sendDocument(ctx context.Context, payload io.Reader, size int64, name, caption string, onProgress transport.ProgressFunc) (transport.Appended, error) {
	const op = "sendDocument"

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := func() error {
			if err := mw.WriteField("chat_id", strconv.FormatInt(c.chatID, 10)); err != nil {
				return err
			}
			if caption != "" {
				if err := mw.WriteField("caption", caption); err != nil {
					return err
				}
			}
			part, err := mw.CreateFormFile("document", name)
			if err != nil {
				return err
			}
			counted := &progressReader{r: payload, total: size, onProgress: onProgress}
			if _, err := io.Copy(part, counted); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(op), pr)
	if err != nil {
		return transport.Appended{}, transport.NewError(op, transport.KindNetwork, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var msg message
	if err := c.do(op, req, &msg); err != nil {
		return transport.Appended{}, err
	}
	if msg.Document == nil {
		return transport.Appended{}, transport.NewError(op, transport.KindDecode,
			fmt.Errorf("response message %d carries no document", msg.MessageID))
	}

	appended := transport.Appended{
		EntryID:  strconv.FormatInt(msg.MessageID, 10),
		BlobRef:  msg.Document.FileID,
		MimeType: msg.Document.MimeType,
		Size:     msg.Document.FileSize,
	}
	if msg.Document.Thumbnail != nil {
		appended.PreviewRef = msg.Document.Thumbnail.FileID
	}
	if appended.Size == 0 {
		appended.Size = size
	}

	// Our own messages never come back through getUpdates; record the entry
	// locally so the next fetch can see it.
	if err := c.cursor.PutEntry(msg.MessageID, rawFromMessage(&msg)); err != nil {
		return transport.Appended{}, transport.NewError(op, transport.KindNetwork, err)
	}
	return appended, nil
}

// AppendTextEntry implements transport.Transport via sendMessage.
func (c *Client) AppendTextEntry(ctx context.Context, text string) (string, error) {
	const op = "sendMessage"
	start := time.Now()

	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(c.chatID, 10))
	params.Set("text", text)

	var msg message
	err := c.callForm(ctx, op, params, &msg)
	metrics.RecordTransportRequest(op, err, time.Since(start))
	if err != nil {
		return "", err
	}
	if err := c.cursor.PutEntry(msg.MessageID, rawFromMessage(&msg)); err != nil {
		return "", transport.NewError(op, transport.KindNetwork, err)
	}
	return strconv.FormatInt(msg.MessageID, 10), nil
}

// FetchRecentEntries implements transport.Transport. New updates are drained
// through getUpdates into the cursor store, then the most recent window is
// served from the store, oldest first.
func (c *Client) FetchRecentEntries(ctx context.Context, limit int) ([]transport.RawEntry, error) {
	const op = "getUpdates"
	start := time.Now()
	err := c.drainUpdates(ctx)
	metrics.RecordTransportRequest(op, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	entries, err := c.cursor.RecentEntries(limit)
	if err != nil {
		return nil, transport.NewError(op, transport.KindNetwork, err)
	}
	return entries, nil
}

func (c *Client) drainUpdates(ctx context.Context) error {
	const op = "getUpdates"
	for {
		offset, err := c.cursor.Offset()
		if err != nil {
			return transport.NewError(op, transport.KindNetwork, err)
		}

		params := url.Values{}
		if offset > 0 {
			params.Set("offset", strconv.FormatInt(offset, 10))
		}
		params.Set("limit", "100")

		var updates []update
		if err := c.callForm(ctx, op, params, &updates); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}

		next := offset
		for _, u := range updates {
			if u.UpdateID >= next {
				next = u.UpdateID + 1
			}
			msg := u.Message
			if msg == nil {
				msg = u.ChannelPost
			}
			if msg == nil || msg.Chat.ID != c.chatID {
				continue
			}
			if err := c.cursor.PutEntry(msg.MessageID, rawFromMessage(msg)); err != nil {
				return transport.NewError(op, transport.KindNetwork, err)
			}
		}
		if err := c.cursor.SetOffset(next); err != nil {
			return transport.NewError(op, transport.KindNetwork, err)
		}
		if len(updates) < 100 {
			return nil
		}
	}
}

// ResolveBlobURL implements transport.Transport via getFile.
func (c *Client) ResolveBlobURL(ctx context.Context, ref string) (string, error) {
	const op = "getFile"
	start := time.Now()

	params := url.Values{}
	params.Set("file_id", ref)

	var f file
	err := c.callForm(ctx, op, params, &f)
	metrics.RecordTransportRequest(op, err, time.Since(start))
	if err != nil {
		return "", err
	}
	if f.FilePath == "" {
		return "", transport.NewError(op, transport.KindDecode,
			fmt.Errorf("getFile for %s returned no file path", ref))
	}
	return fmt.Sprintf("%s/file/bot%s/%s", c.apiBase, c.token, f.FilePath), nil
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
}

// callForm issues a form-encoded Bot API call and decodes result into out.
func (c *Client) callForm(ctx context.Context, op string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(op), strings.NewReader(params.Encode()))
	if err != nil {
		return transport.NewError(op, transport.KindNetwork, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(op, req, out)
}

// do executes a prepared request and decodes the Bot API envelope, mapping
// failures onto the transport error taxonomy: connection problems are
// Network, 429 is Quota, other API rejections are Rejected, and responses we
// cannot interpret are Decode.
func (c *Client) do(op string, req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transport.NewError(op, transport.KindNetwork, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if resp.StatusCode >= 500 {
			return transport.NewError(op, transport.KindNetwork, fmt.Errorf("server returned %d", resp.StatusCode))
		}
		return transport.NewError(op, transport.KindDecode, err)
	}

	if !envelope.OK {
		apiErr := fmt.Errorf("api error %d: %s", envelope.ErrorCode, envelope.Description)
		switch {
		case envelope.ErrorCode == http.StatusTooManyRequests:
			return transport.NewError(op, transport.KindQuota, &RateLimitError{
				RetryAfter: envelope.Parameters.RetryAfter,
				Err:        apiErr,
			})
		case envelope.ErrorCode >= 500:
			return transport.NewError(op, transport.KindNetwork, apiErr)
		default:
			return transport.NewError(op, transport.KindRejected, apiErr)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return transport.NewError(op, transport.KindDecode, err)
	}
	return nil
}

// RateLimitError carries the server-suggested wait for 429 responses.
type RateLimitError struct {
	RetryAfter int // seconds
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds: %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err is a Bot API rate-limit rejection.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// rawFromMessage converts a Bot API message to the transport's entry shape.
func rawFromMessage(msg *message) transport.RawEntry {
	id := strconv.FormatInt(msg.MessageID, 10)
	if msg.Document != nil {
		raw := transport.RawEntry{
			Kind:     transport.KindBinary,
			ID:       id,
			MimeType: msg.Document.MimeType,
			Name:     msg.Document.FileName,
			Caption:  msg.Caption,
			BlobRef:  msg.Document.FileID,
			Size:     msg.Document.FileSize,
		}
		if msg.Document.Thumbnail != nil {
			raw.PreviewRef = msg.Document.Thumbnail.FileID
		}
		return raw
	}
	return transport.RawEntry{
		Kind: transport.KindText,
		ID:   id,
		Text: msg.Text,
	}
}

// progressReader reports read progress as a raw percentage of total.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	onProgress transport.ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 && p.onProgress != nil && p.total > 0 {
		p.read += int64(n)
		p.onProgress(int(p.read * 100 / p.total))
	}
	return n, err
}

// Package transport implements the JSON-RPC 2.0 base protocol used by
// language servers: Content-Length framed messages over a byte stream,
// with asynchronous request completion and notification dispatch.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"

	"github.com/dshills/huestorm/internal/log"
)

// ErrConnClosed is returned by operations on a closed connection.
var ErrConnClosed = fmt.Errorf("transport: connection closed")

// ResultFunc receives the completion of an asynchronous request. Exactly
// one of err and result is meaningful. It is invoked from the connection's
// read goroutine and must not block.
type ResultFunc func(id int64, err error, result json.RawMessage)

// NotificationHandler handles an incoming notification from the server.
type NotificationHandler func(method string, params json.RawMessage)

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type cancelParams struct {
	ID int64 `json:"id"`
}

// Conn is a JSON-RPC 2.0 connection over a reader/writer pair, typically
// a child process's stdout/stdin. Requests complete asynchronously via a
// caller-supplied callback; there is no per-request waiting goroutine.
type Conn struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer
	logger *log.Logger

	mu      sync.Mutex
	nextID  atomic.Int64
	pending map[int64]ResultFunc

	handlers map[string]NotificationHandler

	closed atomic.Bool
	done   chan struct{}
}

// NewConn creates a connection over the given streams. The closer, if
// non-nil, is closed when the connection shuts down.
func NewConn(r io.Reader, w io.Writer, c io.Closer, logger *log.Logger) *Conn {
	if logger == nil {
		logger = log.Discard()
	}
	return &Conn{
		reader:   bufio.NewReaderSize(r, 64*1024),
		writer:   w,
		closer:   c,
		logger:   logger.WithComponent("transport"),
		pending:  make(map[int64]ResultFunc),
		handlers: make(map[string]NotificationHandler),
		done:     make(chan struct{}),
	}
}

// Start begins reading messages from the connection.
func (c *Conn) Start(ctx context.Context) {
	go c.readLoop(ctx)
}

// Close closes the connection. Pending requests complete with ErrConnClosed.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int64]ResultFunc)
	c.mu.Unlock()

	for id, fn := range pending {
		fn(id, ErrConnClosed, nil)
	}

	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Closed reports whether the connection has been closed.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// Request sends a request and registers a completion callback. It returns
// the assigned request ID and whether the request was actually sent. The
// callback is never invoked when the second return value is false.
func (c *Conn) Request(method string, params any, result ResultFunc) (int64, bool) {
	if c.closed.Load() {
		return 0, false
	}

	id := c.nextID.Add(1)

	c.mu.Lock()
	c.pending[id] = result
	c.mu.Unlock()

	req := &request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := c.send(req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		c.logger.Warn("send %s failed: %v", method, err)
		return 0, false
	}

	return id, true
}

// Cancel abandons an in-flight request. The completion callback is
// unregistered and a $/cancelRequest notification tells the server to
// stop working on it; any late response for the ID is discarded.
func (c *Conn) Cancel(id int64) {
	c.mu.Lock()
	_, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	if !ok || c.closed.Load() {
		return
	}
	_ = c.Notify("$/cancelRequest", cancelParams{ID: id})
}

// Call sends a request and waits for its response, honoring ctx.
func (c *Conn) Call(ctx context.Context, method string, params any, result any) error {
	type outcome struct {
		err error
		raw json.RawMessage
	}
	ch := make(chan outcome, 1)

	id, ok := c.Request(method, params, func(_ int64, err error, raw json.RawMessage) {
		ch <- outcome{err: err, raw: raw}
	})
	if !ok {
		return ErrConnClosed
	}

	select {
	case <-ctx.Done():
		c.Cancel(id)
		return ctx.Err()
	case out := <-ch:
		if out.err != nil {
			return out.err
		}
		if result != nil && len(out.raw) > 0 {
			if err := json.Unmarshal(out.raw, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}
}

// Notify sends a notification (no response expected).
func (c *Conn) Notify(method string, params any) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	return c.send(&request{JSONRPC: "2.0", Method: method, Params: params})
}

// OnNotification registers a handler for server notifications. The method
// "*" registers a fallback for otherwise unhandled notifications.
func (c *Conn) OnNotification(method string, handler NotificationHandler) {
	c.mu.Lock()
	c.handlers[method] = handler
	c.mu.Unlock()
}

// send writes a message with the Content-Length framing header.
func (c *Conn) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := io.WriteString(c.writer, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

func (c *Conn) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		msg, err := c.readMessage()
		if err != nil {
			if c.closed.Load() || err == io.EOF || err == io.ErrClosedPipe {
				return
			}
			c.logger.Warn("read message: %v", err)
			continue
		}

		c.dispatch(msg)
	}
}

// readMessage reads one Content-Length framed message.
func (c *Conn) readMessage() (json.RawMessage, error) {
	var contentLength int
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
					contentLength = n
				}
			}
		}
		// Content-Type and unknown headers are ignored.
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(c.reader, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// dispatch routes a message to a pending request or notification handler.
func (c *Conn) dispatch(data json.RawMessage) {
	id := gjson.GetBytes(data, "id")
	if id.Exists() && (gjson.GetBytes(data, "result").Exists() || gjson.GetBytes(data, "error").Exists()) {
		c.handleResponse(id.Int(), data)
		return
	}
	if method := gjson.GetBytes(data, "method"); method.Exists() {
		c.handleNotification(method.String(), data)
	}
}

func (c *Conn) handleResponse(id int64, data json.RawMessage) {
	c.mu.Lock()
	fn, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	if !ok {
		// Cancelled or unknown; the server's answer is stale.
		c.logger.Debug("dropping response for unknown request %d", id)
		return
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		fn(id, fmt.Errorf("malformed response: %w", err), nil)
		return
	}
	if resp.Error != nil {
		fn(id, resp.Error, nil)
		return
	}
	fn(id, nil, resp.Result)
}

func (c *Conn) handleNotification(method string, data json.RawMessage) {
	var params json.RawMessage
	if p := gjson.GetBytes(data, "params"); p.Exists() {
		params = json.RawMessage(p.Raw)
	}

	c.mu.Lock()
	handler, ok := c.handlers[method]
	if !ok {
		handler, ok = c.handlers["*"]
	}
	c.mu.Unlock()

	if ok && handler != nil {
		// Run handlers off the read goroutine so they cannot stall it.
		go handler(method, params)
	}
}

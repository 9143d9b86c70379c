package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/huestorm/internal/colorsync"
	"github.com/dshills/huestorm/internal/config"
	"github.com/dshills/huestorm/internal/log"
	"github.com/dshills/huestorm/internal/protocol"
)

// LangClient is a connection to one language server process. It performs
// the initialize handshake, keeps documents synchronized, and issues
// asynchronous color queries. It satisfies colorsync.Client.
type LangClient struct {
	name       colorsync.ClientID
	languageID string
	logger     *log.Logger

	cmd  *exec.Cmd
	conn *Conn

	// Raw initialize result, probed lazily for capabilities.
	caps []byte

	mu       sync.Mutex
	versions map[protocol.DocumentURI]int

	exited atomic.Bool
	exitCh chan error
}

// Spawn starts a language server process per cfg, wires a connection over
// its stdio, and runs the initialize handshake. The returned client is
// ready for document synchronization and color queries.
func Spawn(ctx context.Context, name, languageID string, cfg config.ServerConfig, rootPath string, logger *log.Logger) (*LangClient, error) {
	if logger == nil {
		logger = log.Discard()
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Env = os.Environ()
	cmd.Stderr = io.Discard

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("start %s: %w", cfg.Command, err)
	}

	c := &LangClient{
		name:       colorsync.ClientID(name),
		languageID: languageID,
		logger:     logger.WithComponent("client").WithField("server", name),
		cmd:        cmd,
		conn:       NewConn(stdout, stdin, stdin, logger),
		versions:   make(map[protocol.DocumentURI]int),
		exitCh:     make(chan error, 1),
	}
	c.conn.Start(ctx)
	go c.monitor()

	if err := c.initialize(ctx, rootPath); err != nil {
		c.conn.Close()
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("initialize %s: %w", name, err)
	}

	c.logger.Info("server ready")
	return c, nil
}

func (c *LangClient) initialize(ctx context.Context, rootPath string) error {
	params := protocol.InitializeParams{
		ProcessID: os.Getpid(),
		Capabilities: protocol.ClientCapabilities{
			TextDocument: protocol.TextDocumentClientCapabilities{
				ColorProvider: protocol.DocumentColorClientCapabilities{},
			},
		},
	}
	if rootPath != "" {
		params.RootURI = protocol.FilePathToURI(rootPath)
	}

	var result json.RawMessage
	if err := c.conn.Call(ctx, protocol.MethodInitialize, params, &result); err != nil {
		return err
	}
	c.caps = result

	return c.conn.Notify(protocol.MethodInitialized, struct{}{})
}

func (c *LangClient) monitor() {
	err := c.cmd.Wait()
	c.exited.Store(true)
	if err != nil {
		c.logger.Warn("server exited: %v", err)
	}
	select {
	case c.exitCh <- err:
	default:
	}
}

// ID returns the client's stable identity.
func (c *LangClient) ID() colorsync.ClientID { return c.name }

// Connected reports whether the server is still reachable.
func (c *LangClient) Connected() bool {
	return !c.conn.Closed() && !c.exited.Load()
}

// SupportsColor reports whether the server advertised a documentColor
// provider during initialize. Per the protocol the capability may be a
// boolean or an options object; an object counts as support.
func (c *LangClient) SupportsColor(protocol.DocumentURI) bool {
	cap := gjson.GetBytes(c.caps, "capabilities.colorProvider")
	if !cap.Exists() {
		return false
	}
	if cap.Type == gjson.True || cap.Type == gjson.False {
		return cap.Bool()
	}
	return cap.IsObject()
}

// RequestColors issues an asynchronous textDocument/documentColor query.
// The reply callback fires on the connection's read goroutine.
func (c *LangClient) RequestColors(uri protocol.DocumentURI, reply colorsync.ReplyFunc) (colorsync.RequestID, bool) {
	params := protocol.DocumentColorParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}
	id, ok := c.conn.Request(protocol.MethodDocumentColor, params, func(id int64, err error, raw json.RawMessage) {
		if err != nil {
			reply(colorsync.RequestID(id), err, nil)
			return
		}
		var infos []protocol.ColorInformation
		if len(raw) > 0 {
			if uerr := json.Unmarshal(raw, &infos); uerr != nil {
				reply(colorsync.RequestID(id), fmt.Errorf("malformed documentColor result: %w", uerr), nil)
				return
			}
		}
		reply(colorsync.RequestID(id), nil, infos)
	})
	return colorsync.RequestID(id), ok
}

// CancelRequest abandons an in-flight color query.
func (c *LangClient) CancelRequest(id colorsync.RequestID) {
	c.conn.Cancel(int64(id))
}

// OpenDocument announces a document and its full content to the server.
func (c *LangClient) OpenDocument(path, content string) error {
	uri := protocol.FilePathToURI(path)

	c.mu.Lock()
	c.versions[uri] = 1
	c.mu.Unlock()

	return c.conn.Notify(protocol.MethodDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: c.languageID,
			Version:    1,
			Text:       content,
		},
	})
}

// ChangeDocument sends the document's new full content (full sync).
func (c *LangClient) ChangeDocument(uri protocol.DocumentURI, content string) error {
	c.mu.Lock()
	c.versions[uri]++
	version := c.versions[uri]
	c.mu.Unlock()

	return c.conn.Notify(protocol.MethodDidChange, protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{URI: uri, Version: version},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: content}},
	})
}

// CloseDocument tells the server the document is no longer tracked.
func (c *LangClient) CloseDocument(uri protocol.DocumentURI) error {
	c.mu.Lock()
	delete(c.versions, uri)
	c.mu.Unlock()

	return c.conn.Notify(protocol.MethodDidClose, protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
}

// Shutdown runs the shutdown/exit sequence and reaps the process. The
// server gets until ctx expires, then is killed.
func (c *LangClient) Shutdown(ctx context.Context) error {
	if err := c.conn.Call(ctx, protocol.MethodShutdown, nil, nil); err != nil && err != ErrConnClosed {
		c.logger.Debug("shutdown request: %v", err)
	}
	_ = c.conn.Notify(protocol.MethodExit, nil)
	_ = c.conn.Close()

	select {
	case <-ctx.Done():
		_ = c.cmd.Process.Kill()
		<-c.exitCh
		return ctx.Err()
	case <-c.exitCh:
		return nil
	case <-time.After(3 * time.Second):
		_ = c.cmd.Process.Kill()
		<-c.exitCh
		return nil
	}
}

package colorsync

import (
	"context"
	"sync/atomic"

	"github.com/dshills/huestorm/internal/log"
	"github.com/dshills/huestorm/internal/protocol"
)

// Service coordinates requests, cache, and notifications for all attached
// documents. Construct one per editing session and pass it by reference to
// every call site; there is no package-level state.
type Service struct {
	host   DocumentHost
	styles StyleSource
	logger *log.Logger

	refreshWhileTyping bool

	ops     chan loopOp
	stopped chan struct{}
	running atomic.Bool

	// Loop-owned state. Touched only by closures executing on the loop.
	enabled  bool
	typing   bool
	docs     map[protocol.DocumentURI]*documentState
	clients  map[ClientID]Client
	deferred map[protocol.DocumentURI]bool
}

type loopOp struct {
	fn   func()
	done chan struct{}
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.logger = l.WithComponent("colorsync")
	}
}

// WithRefreshWhileTyping controls whether edits during fast-typing mode
// refresh immediately (true) or are deferred until the mode ends (false,
// the default).
func WithRefreshWhileTyping(enable bool) Option {
	return func(s *Service) {
		s.refreshWhileTyping = enable
	}
}

// New creates a service using host to observe documents and styles to
// resolve style descriptors for accepted colors.
func New(host DocumentHost, styles StyleSource, opts ...Option) *Service {
	s := &Service{
		host:     host,
		styles:   styles,
		logger:   log.Discard(),
		docs:     make(map[protocol.DocumentURI]*documentState),
		clients:  make(map[ClientID]Client),
		deferred: make(map[protocol.DocumentURI]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the control loop and enables the service.
func (s *Service) Start(ctx context.Context) error {
	if s.running.Swap(true) {
		return ErrAlreadyStarted
	}

	s.ops = make(chan loopOp, 64)
	s.stopped = make(chan struct{})
	go s.run()

	s.do(func() { s.enabled = true })
	return nil
}

// Shutdown disables the service, tears down all document state, and stops
// the control loop. Responses arriving afterwards are dropped.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.running.Load() {
		return ErrNotStarted
	}

	s.do(func() { s.teardown() })

	close(s.stopped)
	s.running.Store(false)
	return nil
}

// run is the control loop. All state mutation happens here, one operation
// at a time, to completion.
func (s *Service) run() {
	for {
		select {
		case op := <-s.ops:
			op.fn()
			close(op.done)
		case <-s.stopped:
			return
		}
	}
}

// do posts fn to the control loop and waits for it to execute. Returns
// false without running fn when the service is not running.
func (s *Service) do(fn func()) bool {
	if !s.running.Load() {
		return false
	}

	op := loopOp{fn: fn, done: make(chan struct{})}
	select {
	case s.ops <- op:
	case <-s.stopped:
		return false
	}

	select {
	case <-op.done:
		return true
	case <-s.stopped:
		return false
	}
}

// Enable reactivates the service after a Disable. Documents must be
// re-attached; Disable dropped their state.
func (s *Service) Enable() {
	s.do(func() { s.enabled = true })
}

// Disable cancels every outstanding request, drops all document state, and
// ignores responses until Enable. Unconditional and synchronous.
func (s *Service) Disable() {
	s.do(func() { s.teardown() })
}

func (s *Service) teardown() {
	for _, st := range s.docs {
		s.cancelAll(st)
	}
	s.docs = make(map[protocol.DocumentURI]*documentState)
	s.deferred = make(map[protocol.DocumentURI]bool)
	s.enabled = false
}

// RegisterClient makes a client available for color queries and
// immediately requests colors for every attached document it can serve.
// This covers a client connecting after a document was attached but before
// its next edit.
func (s *Service) RegisterClient(c Client) {
	s.do(func() {
		s.clients[c.ID()] = c
		if !s.enabled {
			return
		}
		for _, st := range s.docs {
			if c.Connected() && c.SupportsColor(st.uri) {
				s.issueRequest(st, c)
			}
		}
	})
}

// UnregisterClient disconnects a client: outstanding requests are
// cancelled, each attached document's observer receives one tombstone, and
// the client's cache entries are removed.
func (s *Service) UnregisterClient(id ClientID) {
	s.do(func() {
		c := s.clients[id]
		for _, st := range s.docs {
			s.dropClient(st, id, c)
		}
		delete(s.clients, id)
	})
}

// SetTyping toggles the fast-typing editing mode. While active (and unless
// configured otherwise) edits do not refresh; leaving the mode issues one
// coalesced update per document edited in the interim.
func (s *Service) SetTyping(active bool) {
	s.do(func() {
		s.typing = active
		if active {
			return
		}
		for uri := range s.deferred {
			if st := s.docs[uri]; st != nil {
				s.refresh(st)
			}
		}
		s.deferred = make(map[protocol.DocumentURI]bool)
	})
}

// capableClients returns the connected clients serving the color-query
// capability for the document.
func (s *Service) capableClients(uri protocol.DocumentURI) []Client {
	var out []Client
	for _, c := range s.clients {
		if c.Connected() && c.SupportsColor(uri) {
			out = append(out, c)
		}
	}
	return out
}

package colorsync

import (
	"github.com/dshills/huestorm/internal/protocol"
)

// Attach starts tracking a document and performs an initial full refresh.
// A no-op when already attached. When the document is not in a valid open
// state, any stale state for it is torn down instead.
func (s *Service) Attach(uri protocol.DocumentURI) {
	s.do(func() { s.attach(uri) })
}

func (s *Service) attach(uri protocol.DocumentURI) {
	if !s.enabled {
		return
	}

	if !s.host.IsOpen(uri) {
		if st := s.docs[uri]; st != nil {
			s.cancelAll(st)
			delete(s.docs, uri)
		}
		return
	}

	if s.docs[uri] != nil {
		return
	}

	st := newDocumentState(uri)
	s.docs[uri] = st
	s.logger.Debug("attached %s", uri)

	s.host.Watch(uri, WatchHooks{
		OnEdit:   func(changed protocol.Range) { s.edited(uri, changed) },
		OnDetach: func() { s.Detach(uri) },
	})

	s.refresh(st)
}

// Detach stops tracking a document: every outstanding request is cancelled
// and its state is wiped.
func (s *Service) Detach(uri protocol.DocumentURI) {
	s.do(func() {
		st := s.docs[uri]
		if st == nil {
			return
		}
		s.cancelAll(st)
		delete(s.docs, uri)
		delete(s.deferred, uri)
		s.logger.Debug("detached %s", uri)
	})
}

// Update forces a full re-request from every capable client. There is no
// incremental form; each call fans out one request per client.
func (s *Service) Update(uri protocol.DocumentURI) {
	s.do(func() {
		if !s.enabled {
			return
		}
		if st := s.docs[uri]; st != nil {
			s.refresh(st)
		}
	})
}

// refresh issues one request per capable client. Runs on the loop.
func (s *Service) refresh(st *documentState) {
	for _, c := range s.capableClients(st.uri) {
		s.issueRequest(st, c)
	}
}

// edited handles a document-change event from the host. Edits during
// fast-typing mode are deferred unless configured otherwise; request
// cancellation keeps only the latest request's result alive either way.
func (s *Service) edited(uri protocol.DocumentURI, _ protocol.Range) {
	s.do(func() {
		if !s.enabled {
			return
		}
		st := s.docs[uri]
		if st == nil {
			return
		}
		if s.typing && !s.refreshWhileTyping {
			s.deferred[uri] = true
			return
		}
		s.refresh(st)
	})
}

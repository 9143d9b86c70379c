package colorsync

import (
	"github.com/dshills/huestorm/internal/protocol"
)

// Subscribe registers cb as the document's sole observer, attaching the
// document first when needed. Before returning, cb is invoked exactly once
// per client already present in the cache, so no update is silently missed.
// Any previous observer is replaced without being notified.
//
// cb runs on the service's control loop and must not call back into the
// Service.
func (s *Service) Subscribe(uri protocol.DocumentURI, cb Observer) {
	s.do(func() {
		if s.docs[uri] == nil {
			s.attach(uri)
		}
		st := s.docs[uri]
		if st == nil {
			// Attach refused (service disabled or document invalid).
			return
		}

		for cid, entries := range st.cached {
			cb(cid, entries)
		}
		st.observer = cb
	})
}

// Unsubscribe clears the document's observer. Safe to call when none is
// registered or the document is not attached.
func (s *Service) Unsubscribe(uri protocol.DocumentURI) {
	s.do(func() {
		if st := s.docs[uri]; st != nil {
			st.observer = nil
		}
	})
}

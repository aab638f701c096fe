package tm

// Event is broadcast after every successful persist and after every
// reconciliation that adopted newer external state. It carries a full
// document copy so consumers re-render from it instead of re-reading the
// store.
type Event struct {
	Document *Document
}

// Subscribe registers an event channel and returns it with a cancel func.
// The channel is buffered; if a subscriber stops draining it, further events
// for that subscriber are dropped rather than blocking the save path.
func (s *Service) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Event, 8)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *Service) publish(doc *Document) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- Event{Document: doc}:
		default:
			s.logger.Warn("dropping change event for slow subscriber")
		}
	}
}

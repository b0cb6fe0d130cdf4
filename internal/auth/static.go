package auth

import "sync"

// Static is an in-memory Provider whose user is set directly. It backs tests
// and non-interactive runs where the user id comes from configuration.
type Static struct {
	subs    subscribers
	session Session
	mu      sync.RWMutex
	ok      bool
}

// NewStatic returns a provider signed in as userID, or signed out if userID
// is empty.
func NewStatic(userID string) *Static {
	s := &Static{}
	if userID != "" {
		s.session = Session{UserID: userID}
		s.ok = true
	}
	return s
}

// CurrentUserID implements Identity.
func (s *Static) CurrentUserID() string {
	session, ok := s.Session()
	if !ok {
		return ""
	}
	return session.UserID
}

// Session implements Provider.
func (s *Static) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.ok
}

// Subscribe implements Provider.
func (s *Static) Subscribe(fn func(Session, bool)) func() {
	return s.subs.add(fn)
}

// SetUser switches to userID and notifies subscribers. An empty userID signs out.
func (s *Static) SetUser(userID string) {
	s.mu.Lock()
	s.session = Session{UserID: userID}
	s.ok = userID != ""
	session, ok := s.session, s.ok
	s.mu.Unlock()

	s.subs.notify(session, ok)
}

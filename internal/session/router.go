package session

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Router owns the user→session table and dispatches every inbound
// event to the right session. Sessions are created lazily on dialog-
// starting commands and evicted only on logout; there is no idle-
// session expiry, so the table grows until users log out.
type Router struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	cfg      Config
	log      *logrus.Entry
}

// NewRouter creates a router that builds sessions from the given
// config.
func NewRouter(cfg Config) *Router {
	return &Router{
		sessions: make(map[int64]*Session),
		cfg:      cfg,
		log:      logrus.WithField("component", "router"),
	}
}

// Dispatch routes one inbound event. Events from unknown users are
// dropped unless the event is a dialog-starting command.
func (r *Router) Dispatch(ev Event) {
	switch ev := ev.(type) {
	case Command:
		sess := r.lookup(ev.User)
		if sess == nil {
			if !startsDialog(ev.Name) {
				r.log.WithField("user_id", ev.User).Debug("Dropping command for unknown user")
				return
			}
			sess = r.create(ev.User)
		}

		if evict := sess.HandleCommand(ev); evict {
			r.evict(ev.User)
		}
	case TextMessage:
		if sess := r.lookup(ev.User); sess != nil {
			sess.HandleText(ev)
		}
	case ButtonCallback:
		if sess := r.lookup(ev.User); sess != nil {
			sess.HandleCallback(ev)
		}
	}
}

// Lookup returns the session for a user, or nil.
func (r *Router) Lookup(user int64) *Session {
	return r.lookup(user)
}

// Len returns the number of live sessions.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Router) lookup(user int64) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[user]
}

// create inserts a session if absent. The re-check under the write lock
// keeps a racing first contact from the same user down to one session.
func (r *Router) create(user int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[user]; ok {
		return sess
	}

	sess := New(user, r.cfg)
	r.sessions[user] = sess
	r.log.WithField("user_id", user).Info("Session created")

	return sess
}

func (r *Router) evict(user int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, user)
	r.log.WithField("user_id", user).Info("Session evicted")
}

// startsDialog reports whether a command may create a session for a
// previously unseen user.
func startsDialog(name string) bool {
	switch name {
	case "start", "help", "auth":
		return true
	default:
		return false
	}
}

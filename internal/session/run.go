package session

import "github.com/gcbaptista/imagination-concordance/model"

// Run is one search in progress. Exactly one of Succeed, Fail or Reject must
// be called to settle it; settling releases the session's search slot.
type Run struct {
	manager  *Manager
	id       string
	previous model.LifecycleState
	settled  bool
}

// Requesting marks the network call as in flight.
func (r *Run) Requesting() error {
	return r.manager.transition(r.id, model.StateRequesting, nil)
}

// Succeed moves through rendering back to idle.
func (r *Run) Succeed() {
	if r.settled {
		return
	}
	r.settled = true
	_ = r.manager.transition(r.id, model.StateRendering, nil)
	_ = r.manager.transition(r.id, model.StateIdle, func(info *model.SessionInfo) {
		info.LastError = ""
		info.Searches++
	})
	r.manager.release(r.id)
}

// Fail records err and leaves the session in the error state, from which a
// new search may start.
func (r *Run) Fail(err error) {
	if r.settled {
		return
	}
	r.settled = true
	_ = r.manager.transition(r.id, model.StateError, func(info *model.SessionInfo) {
		info.LastError = err.Error()
		info.Searches++
	})
	r.manager.release(r.id)
}

// Reject settles a search that failed its local precondition checks.
// The session returns to the state it had before the search began.
func (r *Run) Reject() {
	if r.settled {
		return
	}
	r.settled = true

	r.manager.mu.Lock()
	if s, exists := r.manager.sessions[r.id]; exists {
		s.info.State = r.previous
	}
	r.manager.mu.Unlock()

	r.manager.release(r.id)
}

// Skip settles a search that was answered without a network call, either
// because no identifier survived filtering or because the result was cached.
func (r *Run) Skip() {
	if r.settled {
		return
	}
	r.settled = true
	_ = r.manager.transition(r.id, model.StateIdle, func(info *model.SessionInfo) {
		info.LastError = ""
		info.Searches++
	})
	r.manager.release(r.id)
}

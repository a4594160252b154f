package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/medvoice-ai/medvoice/pkg/core"
)

// Registry enforces one live session per role. A connect attempt claims its
// role before dialing and keeps the claim until the session fully tears
// down, so a second connect on the same role short-circuits instead of
// racing the first. Different roles never block each other.
type Registry struct {
	mu    sync.Mutex
	roles map[Role]*claim
	wg    sync.WaitGroup
}

type claim struct {
	session *Session
	once    sync.Once
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		roles: make(map[Role]*claim),
	}
}

// acquire claims role for s. It fails with a precondition error while any
// other session holds the role, whether that holder is still connecting or
// fully connected.
func (r *Registry) acquire(role Role, s *Session) (release func(), err error) {
	if r == nil {
		return func() {}, nil
	}
	if !role.Valid() {
		return nil, core.NewInvalidRequestError(fmt.Sprintf("unknown session role %q", role))
	}

	r.mu.Lock()
	if r.roles == nil {
		r.roles = make(map[Role]*claim)
	}
	if existing := r.roles[role]; existing != nil {
		r.mu.Unlock()
		return nil, core.NewPreconditionError(fmt.Sprintf("session for role %q already live", role))
	}
	entry := &claim{session: s}
	r.roles[role] = entry
	r.wg.Add(1)
	r.mu.Unlock()

	return func() { r.release(role, entry) }, nil
}

func (r *Registry) release(role Role, entry *claim) {
	if r == nil || entry == nil {
		return
	}
	entry.once.Do(func() {
		r.mu.Lock()
		if r.roles != nil && r.roles[role] == entry {
			delete(r.roles, role)
		}
		r.mu.Unlock()
		r.wg.Done()
	})
}

// Get returns the session holding role, or nil.
func (r *Registry) Get(role Role) *Session {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry := r.roles[role]; entry != nil {
		return entry.session
	}
	return nil
}

// Count reports how many roles are currently claimed.
func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roles)
}

// CloseAll closes every live session, used on process shutdown.
func (r *Registry) CloseAll() (closed int) {
	if r == nil {
		return 0
	}

	var sessions []*Session
	r.mu.Lock()
	for _, entry := range r.roles {
		if entry != nil && entry.session != nil {
			sessions = append(sessions, entry.session)
		}
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		closed++
	}
	return closed
}

// Wait blocks until every claim is released or ctx expires.
func (r *Registry) Wait(ctx context.Context) bool {
	if r == nil {
		return true
	}
	if ctx == nil {
		r.wg.Wait()
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// Package impersonation manages short-lived OS impersonation contexts bound
// to in-flight requests.
//
// The Registry owns the only mutable shared state in the subsystem: the
// pending-context map. Its mutex is held strictly around map insertion and
// removal — never across the OS logon call and never across handle disposal,
// both of which can block on slow OS or I/O operations.
package impersonation

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Handle is the native OS security handle owned by a context. Closing it
// revokes the impersonation rights.
type Handle interface {
	Close() error
}

// Context is an OS-level security context derived from a username/password
// credential. It must be released exactly once, which the Registry guarantees
// through the mandatory request-completion hook; Close itself is additionally
// idempotent so a defensive double release cannot double-free the handle.
type Context struct {
	user   string
	handle Handle
	once   sync.Once
}

// NewContext wraps an OS handle. Used by LogonProvider implementations.
func NewContext(user string, handle Handle) *Context {
	return &Context{user: user, handle: handle}
}

// User returns the account the context impersonates.
func (c *Context) User() string { return c.user }

// Handle exposes the native handle to the write handler that consumes the
// context.
func (c *Context) Handle() Handle { return c.handle }

// Close releases the OS handle. Only the first call has effect.
func (c *Context) Close() error {
	var err error
	c.once.Do(func() {
		if c.handle != nil {
			err = c.handle.Close()
		}
	})
	return err
}

// LogonProvider performs the OS logon for a username/password pair. The call
// may block on the OS; it runs on the request's own worker and outside the
// registry lock.
type LogonProvider interface {
	Logon(ctx context.Context, username, password string) (*Context, error)
}

// Registry is the process-wide pending-context map, keyed by request id.
// Invariant: at most one entry per request id; an entry's presence implies a
// prior, not-yet-completed, successful acquisition.
type Registry struct {
	provider LogonProvider

	mu      sync.Mutex
	pending map[string]*Context
}

// NewRegistry creates a registry backed by the given logon provider.
func NewRegistry(provider LogonProvider) *Registry {
	return &Registry{
		provider: provider,
		pending:  make(map[string]*Context),
	}
}

// Acquire performs the OS logon and registers the resulting context under the
// request id. The logon happens before the lock is taken so unrelated
// requests never wait behind it.
//
// Calling Acquire with a request id that is already pending violates the
// acquire/release contract and panics; the fresh handle is closed first so
// the violation cannot leak it.
func (r *Registry) Acquire(ctx context.Context, requestID, username, password string) error {
	c, err := r.provider.Logon(ctx, username, password)
	if err != nil {
		return fmt.Errorf("logon %q: %w", username, err)
	}

	r.mu.Lock()
	if _, dup := r.pending[requestID]; dup {
		r.mu.Unlock()
		if cerr := c.Close(); cerr != nil {
			log.Printf("impersonation: closing duplicate context for request %s: %v", requestID, cerr)
		}
		panic(fmt.Sprintf("impersonation: request %s already holds a pending context", requestID))
	}
	r.pending[requestID] = c
	r.mu.Unlock()
	return nil
}

// Pending returns the context registered for a request id, if any. The write
// handler uses it to run OS-level actions under the caller's identity.
func (r *Registry) Pending(requestID string) (*Context, bool) {
	r.mu.Lock()
	c, ok := r.pending[requestID]
	r.mu.Unlock()
	return c, ok
}

// Release removes and disposes the context for a request id. Completion hooks
// run even when validation failed before any acquisition, so an absent entry
// is a no-op. Disposal happens outside the lock.
func (r *Registry) Release(requestID string) {
	r.mu.Lock()
	c, ok := r.pending[requestID]
	if ok {
		delete(r.pending, requestID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.Printf("impersonation: releasing context for request %s: %v", requestID, err)
	}
}

// Len returns the number of pending contexts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

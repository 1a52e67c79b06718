package impersonation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandle struct {
	mu     sync.Mutex
	closed int
}

func (h *countingHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

func (h *countingHandle) closes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// trackingProvider hands out counting handles so tests can observe disposal.
type trackingProvider struct {
	mu      sync.Mutex
	handles []*countingHandle
	err     error
}

func (p *trackingProvider) Logon(_ context.Context, username, _ string) (*Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	h := &countingHandle{}
	p.handles = append(p.handles, h)
	return NewContext(username, h), nil
}

func TestAcquireReleaseLifecycle(t *testing.T) {
	provider := &trackingProvider{}
	r := NewRegistry(provider)

	require.NoError(t, r.Acquire(context.Background(), "req-1", "alice", "secret"))

	c, ok := r.Pending("req-1")
	require.True(t, ok)
	assert.Equal(t, "alice", c.User())
	assert.Equal(t, 1, r.Len())

	r.Release("req-1")

	_, ok = r.Pending("req-1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
	require.Len(t, provider.handles, 1)
	assert.Equal(t, 1, provider.handles[0].closes())
}

func TestAcquireLogonFailureRegistersNothing(t *testing.T) {
	r := NewRegistry(&trackingProvider{err: errors.New("account locked")})

	err := r.Acquire(context.Background(), "req-1", "alice", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alice")
	assert.Equal(t, 0, r.Len())
}

func TestReleaseWithoutAcquireIsNoOp(t *testing.T) {
	r := NewRegistry(&trackingProvider{})

	assert.NotPanics(t, func() { r.Release("never-acquired") })
	assert.Equal(t, 0, r.Len())
}

func TestReleaseIsIdempotent(t *testing.T) {
	provider := &trackingProvider{}
	r := NewRegistry(provider)

	require.NoError(t, r.Acquire(context.Background(), "req-1", "alice", "secret"))
	r.Release("req-1")
	r.Release("req-1")

	require.Len(t, provider.handles, 1)
	assert.Equal(t, 1, provider.handles[0].closes())
}

func TestDuplicateAcquirePanicsAndClosesFreshHandle(t *testing.T) {
	provider := &trackingProvider{}
	r := NewRegistry(provider)

	require.NoError(t, r.Acquire(context.Background(), "req-1", "alice", "secret"))

	assert.Panics(t, func() {
		_ = r.Acquire(context.Background(), "req-1", "alice", "secret")
	})

	// The first context stays pending; the duplicate's handle is closed.
	require.Len(t, provider.handles, 2)
	assert.Equal(t, 0, provider.handles[0].closes())
	assert.Equal(t, 1, provider.handles[1].closes())
	assert.Equal(t, 1, r.Len())
}

func TestConcurrentDistinctRequests(t *testing.T) {
	provider := &trackingProvider{}
	r := NewRegistry(provider)

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("req-%d", i)
			if err := r.Acquire(context.Background(), id, "alice", "secret"); err != nil {
				t.Error(err)
				return
			}
			if _, ok := r.Pending(id); !ok {
				t.Errorf("context for %s not pending", id)
				return
			}
			r.Release(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
	require.Len(t, provider.handles, n)
	for i, h := range provider.handles {
		assert.Equal(t, 1, h.closes(), "handle %d", i)
	}
}

func TestContextCloseOnlyOnce(t *testing.T) {
	h := &countingHandle{}
	c := NewContext("alice", h)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, h.closes())
}

func TestLocalProviderChecksAccounts(t *testing.T) {
	p := NewLocalProvider(map[string]string{"alice": "secret"})

	c, err := p.Logon(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", c.User())
	require.NoError(t, c.Close())

	_, err = p.Logon(context.Background(), "alice", "wrong")
	assert.Error(t, err)

	_, err = p.Logon(context.Background(), "mallory", "secret")
	assert.Error(t, err)
}

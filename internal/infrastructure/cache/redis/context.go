package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
)

// connContext owns the go-redis client of a Backend.
type connContext interface {
	cache.Context

	// Acquire returns the live client, creating it if needed. The release func must be
	// called exactly once when the caller's scope ends.
	Acquire(ctx context.Context) (redis.UniversalClient, func(), error)

	// Pooled reports whether the client outlives acquisition scopes.
	Pooled() bool
}

// handle is the bookkeeping shared by both contexts. mu is never held across I/O.
type handle struct {
	opts Options

	mu        sync.Mutex
	client    redis.UniversalClient
	refs      int
	destroyed bool
}

// acquire fails with cache.ErrContextDestroyed once Destroy ran: a destroyed context never
// dials again, CreateCacheContext builds a new one.
func (h *handle) acquire() (redis.UniversalClient, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return nil, cache.ErrContextDestroyed
	}
	if h.client == nil {
		client, err := h.opts.newClient()
		if err != nil {
			return nil, err
		}
		h.client = client
		log.Debug().
			Str("addr", h.opts.Host).
			Bool("pool", h.opts.UsePool).
			Bool("cluster", h.opts.UseCluster).
			Msg("redis client created")
	}
	h.refs++
	return h.client, nil
}

// release drops one reference to client. With closeIdle the client is closed once no scope
// holds it any longer.
func (h *handle) release(client redis.UniversalClient, closeIdle bool) {
	h.mu.Lock()
	if h.client != client {
		// destroyed while the scope was running
		h.mu.Unlock()
		return
	}
	h.refs--
	if !closeIdle || h.refs > 0 {
		h.mu.Unlock()
		return
	}
	h.client = nil
	h.mu.Unlock()

	if err := client.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close redis client")
	}
}

// Active implements cache.Context.
func (h *handle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client != nil
}

// Destroy implements cache.Context.
func (h *handle) Destroy(_ context.Context) error {
	h.mu.Lock()
	client := h.client
	h.client = nil
	h.refs = 0
	h.destroyed = true
	h.mu.Unlock()

	if client == nil {
		return nil
	}
	log.Debug().Str("addr", h.opts.Host).Msg("redis client closed")
	return client.Close()
}

// singleContext holds one connection per acquisition scope: the client is closed when the
// last concurrent scope releases it, trading reconnects for a bounded resource lifetime.
type singleContext struct {
	handle
}

func newSingleContext(opts Options) *singleContext {
	return &singleContext{handle: handle{opts: opts}}
}

// Acquire implements connContext.
func (c *singleContext) Acquire(_ context.Context) (redis.UniversalClient, func(), error) {
	client, err := c.acquire()
	if err != nil {
		return nil, nil, err
	}
	return client, func() { c.release(client, true) }, nil
}

// Pooled implements connContext.
func (c *singleContext) Pooled() bool { return false }

// poolContext keeps the go-redis pool alive across scopes until Destroy.
type poolContext struct {
	handle
}

func newPoolContext(opts Options) *poolContext {
	return &poolContext{handle: handle{opts: opts}}
}

// Acquire implements connContext.
func (c *poolContext) Acquire(_ context.Context) (redis.UniversalClient, func(), error) {
	client, err := c.acquire()
	if err != nil {
		return nil, nil, err
	}
	return client, func() { c.release(client, false) }, nil
}

// Pooled implements connContext.
func (c *poolContext) Pooled() bool { return true }

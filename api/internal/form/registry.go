package form

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry keeps one Session per chat.
type Registry struct {
	ctx    context.Context
	client Submitter
	log    *slog.Logger
	m      sync.Map // chatID -> *Session
}

func NewRegistry(ctx context.Context, client Submitter, log *slog.Logger) *Registry {
	return &Registry{ctx: ctx, client: client, log: log}
}

func (r *Registry) Get(chatID int64) *Session {
	if v, ok := r.m.Load(chatID); ok {
		return v.(*Session)
	}
	s := NewSession(r.ctx, r.client, r.log.With("chat_id", chatID))
	v, loaded := r.m.LoadOrStore(chatID, s)
	if loaded {
		s.Close()
	}
	return v.(*Session)
}

// Reset closes the chat's session; the next Get starts from scratch.
func (r *Registry) Reset(chatID int64) {
	if v, ok := r.m.LoadAndDelete(chatID); ok {
		v.(*Session).Close()
	}
}

// Close resets every session.
func (r *Registry) Close() {
	r.m.Range(func(k, v any) bool {
		v.(*Session).Close()
		r.m.Delete(k)
		return true
	})
}

// Evict closes every session that has not been touched for at least ttl and
// is not waiting on a submission. It returns how many were removed.
func (r *Registry) Evict(ttl time.Duration) int {
	now := time.Now()
	n := 0
	r.m.Range(func(k, v any) bool {
		s := v.(*Session)
		if d, ok := s.idle(now); ok && d >= ttl {
			if r.m.CompareAndDelete(k, v) {
				s.Close()
				n++
			}
		}
		return true
	})
	if n > 0 {
		r.log.Debug("Evicted idle forms", "count", n)
	}
	return n
}

// Sweep calls Evict every interval until ctx is done.
func (r *Registry) Sweep(ctx context.Context, ttl, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Evict(ttl)
		}
	}
}

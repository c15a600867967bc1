package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/approvalflow/workflow-client/internal/system/utils"
)

// Factory builds a fresh workspace with its own session
type Factory func() *Workspace

type entry struct {
	workspace *Workspace
	lastSeen  time.Time
}

// Registry keeps one workspace per browser session id and evicts idle ones
type Registry struct {
	mu          sync.Mutex
	entries     map[string]*entry
	factory     Factory
	idleTimeout time.Duration
	now         func() time.Time
	logger      *logrus.Logger
}

// NewRegistry creates an empty registry. A non-positive idleTimeout disables eviction.
func NewRegistry(factory Factory, idleTimeout time.Duration, logger *logrus.Logger) *Registry {
	return &Registry{
		entries:     make(map[string]*entry),
		factory:     factory,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

// Get returns the workspace of session id and marks it as used
func (r *Registry) Get(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if r.expired(e, now) {
		delete(r.entries, id)
		return nil, false
	}
	e.lastSeen = now
	return e.workspace, true
}

// Create registers a new workspace under a fresh session id
func (r *Registry) Create() (string, *Workspace) {
	id := utils.GenerateUUID()
	ws := r.factory()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{workspace: ws, lastSeen: r.now()}
	return id, ws
}

// Remove forgets session id
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts idle sessions and returns how many were removed
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, e := range r.entries {
		if r.expired(e, now) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	if r.idleTimeout <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(); removed > 0 {
				r.logger.WithField("removed", removed).Debug("Evicted idle sessions")
			}
		}
	}
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.idleTimeout > 0 && now.Sub(e.lastSeen) > r.idleTimeout
}

package engine

import (
	"sync"

	"ventureline/internal/domain"
)

// stageLocks serializes writers per (ventureId, stage). Chat turns and
// content upserts against the same pair run one at a time; different pairs
// never contend.
type stageLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *stageLocks) lock(ventureID string, stage domain.Stage) func() {
	key := ventureID + "/" + string(stage)
	l.mu.Lock()
	if l.locks == nil {
		l.locks = map[string]*sync.Mutex{}
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

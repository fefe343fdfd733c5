package service

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// pairLock serializes start/submit transitions per (user, exam) pair.
// The underlying store's conflict checks stay authoritative across
// processes; this lock just removes in-process races.
type pairLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPairLock() *pairLock {
	return &pairLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the pair, creating it on first use.
// Entries are retained for the process lifetime; the keyspace is bounded by
// users x exams.
func (l *pairLock) Lock(userID int, examID uuid.UUID) func() {
	key := fmt.Sprintf("%d:%s", userID, examID)

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

package task

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned for unknown task ids.
var ErrNotFound = errors.New("task: not found")

// Store is the in-memory registry of communication tasks. The id-to-task
// mapping is guarded by a coarse lock; per-task result mutation happens under
// each task's own lock so callbacks for different tasks never serialize here.
type Store struct {
	mu     sync.RWMutex
	tasks  map[int]*CommunicationTask
	nextID int
}

// NewStore returns an initialized store.
func NewStore() *Store {
	return &Store{tasks: make(map[int]*CommunicationTask)}
}

// Register assigns a fresh id to the task and retains it.
func (s *Store) Register(t *CommunicationTask) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.id = s.nextID
	s.tasks[t.id] = t
	return t.id
}

// Get looks up a task by id.
func (s *Store) Get(taskID int) (*CommunicationTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// Overview lists task summaries ordered by id ascending.
func (s *Store) Overview() []Overview {
	s.mu.RLock()
	out := make([]Overview, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Overview())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

// ClearFinished removes every completed task and retains in-flight ones.
// Idempotent.
func (s *Store) ClearFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tasks {
		if t.Completed() {
			delete(s.tasks, id)
		}
	}
}

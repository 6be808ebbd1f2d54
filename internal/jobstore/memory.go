package jobstore

import (
	"fmt"
	"sync"

	"github.com/lucidlink/syncd/internal/model"
)

// MemoryStore is a non-durable Store for tests that don't want file I/O
// side effects. Save and Load are no-ops: the collection only ever lives
// in the map.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.Job)}
}

// Load is a no-op; a MemoryStore has no backing file to read.
func (s *MemoryStore) Load() error { return nil }

// Save is a no-op; a MemoryStore has no backing file to write.
func (s *MemoryStore) Save() error { return nil }

// Create adds a new job.
func (s *MemoryStore) Create(job *model.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

// Update replaces an existing job by id.
func (s *MemoryStore) Update(job *model.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; !exists {
		return fmt.Errorf("job %s not found", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

// Delete removes a job by id.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[id]; !exists {
		return fmt.Errorf("job %s not found", id)
	}
	delete(s.jobs, id)
	return nil
}

// Get returns a job by id.
func (s *MemoryStore) Get(id string) (*model.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

// List returns all jobs in no particular order.
func (s *MemoryStore) List() []*model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

var _ Store = (*MemoryStore)(nil)

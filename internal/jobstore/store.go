// Package jobstore implements durable persistence of job definitions and
// run history: a single JSON document, written atomically with a backup
// sibling, and recovered from that backup (or preserved for forensics)
// when the canonical file is missing or unparseable.
package jobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/lucidlink/syncd/internal/logging"
	"github.com/lucidlink/syncd/internal/model"
)

// Store is the contract the engine and CLI depend on. FileStore is the
// only production implementation; MemoryStore backs unit tests that
// don't want file I/O side effects.
type Store interface {
	Load() error
	Create(job *model.Job) error
	Update(job *model.Job) error
	Delete(id string) error
	Get(id string) (*model.Job, bool)
	List() []*model.Job
	Save() error
}

type document struct {
	Jobs []*model.Job `json:"jobs"`
}

// FileStore is the durable job collection, persisted as a single JSON
// document alongside a backup sibling.
type FileStore struct {
	path string

	mu   sync.RWMutex
	jobs map[string]*model.Job
	log  zerolog.Logger
}

// NewFileStore creates a FileStore backed by path. Load must be called
// before use to populate the in-memory collection from disk.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		jobs: make(map[string]*model.Job),
		log:  logging.WithComponent("jobstore"),
	}
}

func (s *FileStore) backupPath() string    { return s.path + ".backup" }
func (s *FileStore) corruptedPath() string { return s.path + ".corrupted" }

// Load attempts the canonical file first, falling back to the backup
// sibling if the canonical file is absent or fails to parse. Jobs loaded
// from either file are forced to idle, since a persisted "running" state
// is necessarily stale from a prior crash. A load error on both files
// falls through to an empty job set rather than blocking startup.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err == nil {
		doc, parseErr := parseDocument(data)
		if parseErr == nil {
			s.setJobsLocked(doc.Jobs)
			return nil
		}
		s.log.Error().Err(parseErr).Str("path", s.path).Msg("job file failed to parse, preserving for forensics")
		s.preserveCorrupted(data)
	} else if !os.IsNotExist(err) {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to read job file")
	}

	backup, err := os.ReadFile(s.backupPath())
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Error().Err(err).Msg("failed to read job backup file")
		}
		s.jobs = make(map[string]*model.Job)
		return nil
	}
	doc, parseErr := parseDocument(backup)
	if parseErr != nil {
		s.log.Error().Err(parseErr).Msg("job backup file also failed to parse")
		s.jobs = make(map[string]*model.Job)
		return nil
	}
	s.log.Warn().Msg("recovered job collection from backup file")
	s.setJobsLocked(doc.Jobs)
	return nil
}

func (s *FileStore) setJobsLocked(jobs []*model.Job) {
	s.jobs = make(map[string]*model.Job, len(jobs))
	for _, j := range jobs {
		j.Status = model.StatusIdle
		s.jobs[j.ID] = j
	}
}

func parseDocument(data []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, err
	}
	return doc, nil
}

// preserveCorrupted copies unparseable bytes aside for forensics. This is
// best-effort and must never block recovery from the backup file.
func (s *FileStore) preserveCorrupted(data []byte) {
	if err := os.WriteFile(s.corruptedPath(), data, 0o644); err != nil {
		s.log.Warn().Err(err).Msg("failed to preserve corrupted job file")
	}
}

// Save persists the entire in-memory collection. If the canonical file
// already exists it is copied to the backup sibling first, then the new
// document is written atomically (temp file in the same directory,
// fsync, rename-over). Save failures are logged and swallowed: the
// in-memory state remains authoritative for the rest of the process.
func (s *FileStore) Save() error {
	s.mu.RLock()
	jobs := make([]*model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.RUnlock()

	if err := s.backupCanonical(); err != nil {
		s.log.Warn().Err(err).Msg("failed to write job backup file")
	}

	data, err := json.MarshalIndent(document{Jobs: jobs}, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode job collection")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Error().Err(err).Msg("failed to create job file directory")
		return nil
	}

	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to atomically write job file")
		return nil
	}
	return nil
}

func (s *FileStore) backupCanonical() error {
	src, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	dst, err := os.Create(s.backupPath())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// Create adds a new job and persists the collection.
func (s *FileStore) Create(job *model.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, exists := s.jobs[job.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return s.Save()
}

// Update replaces an existing job by id and persists the collection.
func (s *FileStore) Update(job *model.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, exists := s.jobs[job.ID]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("job %s not found", job.ID)
	}
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return s.Save()
}

// Delete removes a job by id and persists the collection.
func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	if _, exists := s.jobs[id]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("job %s not found", id)
	}
	delete(s.jobs, id)
	s.mu.Unlock()
	return s.Save()
}

// Get returns a job by id.
func (s *FileStore) Get(id string) (*model.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

// List returns all jobs in no particular order.
func (s *FileStore) List() []*model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

var _ Store = (*FileStore)(nil)

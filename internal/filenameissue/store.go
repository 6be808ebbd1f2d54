package filenameissue

import (
	"fmt"
	"os"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/lucidlink/syncd/internal/logging"
	"github.com/lucidlink/syncd/internal/model"
)

// document is the on-disk shape of the issue collection. Unlike the job
// store, issues are disposable scan output: a parse failure just starts
// the collection empty again on next scan, so no backup or corrupted
// sibling handling is needed here.
type document struct {
	Issues []*model.FilenameIssue `json:"issues"`
}

// Store is the persisted collection of filename issues across all jobs.
type Store struct {
	path string

	mu     sync.RWMutex
	issues map[string]*model.FilenameIssue
	log    zerolog.Logger
}

// NewStore creates a Store backed by path. Load must be called before use.
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		issues: make(map[string]*model.FilenameIssue),
		log:    logging.WithComponent("filenameissue"),
	}
}

// Load reads the persisted collection, starting empty if the file is
// missing or fails to parse.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Error().Err(err).Str("path", s.path).Msg("failed to read filename issues file")
		}
		s.issues = make(map[string]*model.FilenameIssue)
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to parse filename issues file, starting empty")
		s.issues = make(map[string]*model.FilenameIssue)
		return nil
	}

	s.issues = make(map[string]*model.FilenameIssue, len(doc.Issues))
	for _, issue := range doc.Issues {
		s.issues[issue.ID] = issue
	}
	return nil
}

// Save persists the entire collection.
func (s *Store) Save() error {
	s.mu.RLock()
	issues := make([]*model.FilenameIssue, 0, len(s.issues))
	for _, i := range s.issues {
		issues = append(issues, i)
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(document{Issues: issues}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode filename issues: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write filename issues file: %w", err)
	}
	return nil
}

// ReplaceForJob clears all issues previously recorded for jobID and
// replaces them with fresh, before a rescan's results are added.
func (s *Store) ReplaceForJob(jobID string, issues []*model.FilenameIssue) error {
	s.mu.Lock()
	for id, issue := range s.issues {
		if issue.JobID == jobID {
			delete(s.issues, id)
		}
	}
	for _, issue := range issues {
		s.issues[issue.ID] = issue
	}
	s.mu.Unlock()
	return s.Save()
}

// ForJob returns all issues recorded for one job.
func (s *Store) ForJob(jobID string) []*model.FilenameIssue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.FilenameIssue
	for _, issue := range s.issues {
		if issue.JobID == jobID {
			out = append(out, issue)
		}
	}
	return out
}

// AllPending returns all issues across all jobs still awaiting
// remediation.
func (s *Store) AllPending() []*model.FilenameIssue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.FilenameIssue
	for _, issue := range s.issues {
		if issue.Status == model.IssuePending {
			out = append(out, issue)
		}
	}
	return out
}

// Get returns an issue by id.
func (s *Store) Get(id string) (*model.FilenameIssue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issue, ok := s.issues[id]
	return issue, ok
}

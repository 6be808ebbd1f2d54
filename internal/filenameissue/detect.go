// Package filenameissue detects and remediates names that are valid on
// the FUSE-mounted filespace but would break on a destination filesystem
// with stricter naming rules, and persists them until a user resolves
// each one (rename, rename-to-suggestion, or skip).
package filenameissue

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/lucidlink/syncd/internal/model"
)

// problematicChars is checked in map iteration order in the original
// service; Go map iteration is randomized, so here it is an ordered slice
// to keep detection deterministic across runs.
var problematicChars = []struct {
	char      byte
	issueType model.IssueType
}{
	{'\\', model.IssueBackslash},
	{':', model.IssueColon},
	{'*', model.IssueAsterisk},
	{'?', model.IssueQuestionMark},
	{'"', model.IssueDoubleQuote},
	{'<', model.IssueLessThan},
	{'>', model.IssueGreaterThan},
	{'|', model.IssuePipe},
	{0x00, model.IssueNullByte},
}

// Detection is the outcome of checking a single name.
type Detection struct {
	IssueType model.IssueType
	IssueChar string
}

// Check inspects name for the first problem it finds, checked in the
// priority order: problematic characters, control characters, leading
// space, trailing space, trailing dot, then overlength. Returns ok=false
// if name has no detectable issue.
func Check(name string) (Detection, bool) {
	for _, pc := range problematicChars {
		if containsByte(name, pc.char) {
			return Detection{IssueType: pc.issueType, IssueChar: string(pc.char)}, true
		}
	}

	for _, r := range name {
		if r < 0x20 {
			return Detection{IssueType: model.IssueControlChar, IssueChar: string(r)}, true
		}
	}

	if len(name) > 0 && name[0] == ' ' {
		return Detection{IssueType: model.IssueLeadingSpace, IssueChar: " "}, true
	}
	if len(name) > 0 && name[len(name)-1] == ' ' {
		return Detection{IssueType: model.IssueTrailingSpace, IssueChar: " "}, true
	}

	if name != "." && name != ".." && len(name) > 0 && name[len(name)-1] == '.' {
		return Detection{IssueType: model.IssueTrailingDot, IssueChar: "."}, true
	}

	if len(name) > 255 {
		return Detection{IssueType: model.IssueTooLong}, true
	}

	return Detection{}, false
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Scan walks source and returns a FilenameIssue for every entry (file or
// directory) with a detectable naming problem, excluding subtrees that
// match one of the job's exclude patterns.
func Scan(jobID, jobName, source string, excludes []string) ([]*model.FilenameIssue, error) {
	var issues []*model.FilenameIssue

	var walk func(dir, relRoot string) error
	walk = func(dir, relRoot string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			name := entry.Name()
			if matchesAny(name, excludes) {
				continue
			}
			relPath := name
			if relRoot != "" {
				relPath = filepath.Join(relRoot, name)
			}
			if detection, ok := Check(name); ok {
				issues = append(issues, newIssue(jobID, jobName, source, relPath, name, entry.IsDir(), detection))
			}
			if entry.IsDir() {
				if err := walk(filepath.Join(dir, name), relPath); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(source, ""); err != nil {
		return nil, err
	}
	return issues, nil
}

func newIssue(jobID, jobName, source, relPath, name string, isDir bool, d Detection) *model.FilenameIssue {
	suggested := Normalize(name)
	if suggested == name {
		suggested = ""
	}
	return &model.FilenameIssue{
		ID:            uuid.NewString(),
		JobID:         jobID,
		JobName:       jobName,
		SourcePath:    filepath.Join(source, relPath),
		RelativePath:  relPath,
		Name:          name,
		IsDir:         isDir,
		IssueType:     d.IssueType,
		IssueChar:     d.IssueChar,
		SuggestedName: suggested,
		Status:        model.IssuePending,
		DetectedAt:    time.Now(),
	}
}

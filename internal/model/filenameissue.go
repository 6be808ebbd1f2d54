package model

import "time"

// IssueType is the closed set of filename problems the detector tags.
type IssueType string

const (
	IssueBackslash    IssueType = "backslash"
	IssueColon        IssueType = "colon"
	IssueAsterisk     IssueType = "asterisk"
	IssueQuestionMark IssueType = "question_mark"
	IssueDoubleQuote  IssueType = "double_quote"
	IssueLessThan     IssueType = "less_than"
	IssueGreaterThan  IssueType = "greater_than"
	IssuePipe         IssueType = "pipe"
	IssueNullByte     IssueType = "null_byte"
	IssueControlChar  IssueType = "control_char"
	IssueLeadingSpace IssueType = "leading_space"
	IssueTrailingSpace IssueType = "trailing_space"
	IssueTrailingDot  IssueType = "trailing_dot"
	IssueTooLong      IssueType = "too_long"
)

// IssueStatus tracks remediation progress for one FilenameIssue.
type IssueStatus string

const (
	IssuePending IssueStatus = "pending"
	IssueRenamed IssueStatus = "renamed"
	IssueSkipped IssueStatus = "skipped"
	IssueFailed  IssueStatus = "failed"
)

// FilenameIssue is one detected problematic name under a job's source
// tree, persisted independently of the job so it survives restarts. A
// re-scan of the job replaces all of that job's issues, resolved or not.
type FilenameIssue struct {
	ID             string      `json:"id"`
	JobID          string      `json:"job_id"`
	JobName        string      `json:"job_name"`
	SourcePath     string      `json:"source_path"`
	RelativePath   string      `json:"relative_path"`
	Name           string      `json:"name"`
	IsDir          bool        `json:"is_dir"`
	IssueType      IssueType   `json:"issue_type"`
	IssueChar      string      `json:"issue_char,omitempty"`
	SuggestedName  string      `json:"suggested_name,omitempty"`
	Status         IssueStatus `json:"status"`
	DetectedAt     time.Time   `json:"detected_at"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`
}

// RenameAllSummary is returned by rename-all-pending remediation.
type RenameAllSummary struct {
	Total   int      `json:"total"`
	Renamed int      `json:"renamed"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

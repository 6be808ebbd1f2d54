// Package transfer builds argument vectors for the external rsync
// process workers invoke, and parses the two text streams it produces:
// periodic progress lines during a real transfer, and itemized change
// lines during a dry-run.
package transfer

import (
	"regexp"
	"strconv"
	"strings"
)

// Tool is the external transfer binary. Its identity is otherwise
// implementation-defined; only its progress-line grammar and exit-code
// contract matter to the rest of the engine.
const Tool = "rsync"

// progressLineRe matches a periodic progress line:
// "<bytes>  <percent>%  <rate>/s  <eta>", eta optional.
var progressLineRe = regexp.MustCompile(`^\s*([\d,]+)\s+(\d+)%\s+([\d.]+\S*/s)(\s+\d+:\d+:\d+)?`)

// errorPrefixes mark a line as a transfer-tool error rather than routine
// output.
var errorPrefixes = []string{"rsync:", "rsync error:"}

// mountDeathSignatures appear in tool output when the FUSE transport has
// died mid-transfer; seeing one is a fatal, job-wide condition.
var mountDeathSignatures = []string{
	"Transport endpoint is not connected",
	"stale file handle",
	"Stale file handle",
}

// ProgressLine is a parsed periodic progress update.
type ProgressLine struct {
	BytesThisItem int64
	Percent       int
	Rate          string
	ETA           string
}

// ParseProgressLine attempts to parse line as a progress update.
func ParseProgressLine(line string) (ProgressLine, bool) {
	m := progressLineRe.FindStringSubmatch(line)
	if m == nil {
		return ProgressLine{}, false
	}
	bytesStr := strings.ReplaceAll(m[1], ",", "")
	bytesVal, err := strconv.ParseInt(bytesStr, 10, 64)
	if err != nil {
		return ProgressLine{}, false
	}
	percent, _ := strconv.Atoi(m[2])
	eta := strings.TrimSpace(m[4])
	return ProgressLine{BytesThisItem: bytesVal, Percent: percent, Rate: m[3], ETA: eta}, true
}

// IsErrorLine reports whether line carries one of the tool's error
// prefixes.
func IsErrorLine(line string) bool {
	for _, prefix := range errorPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// IsMountDeathSignature reports whether line contains the
// transport-disconnected or stale-handle signature the worker treats as
// a fatal, job-wide mount failure.
func IsMountDeathSignature(line string) bool {
	for _, sig := range mountDeathSignatures {
		if strings.Contains(line, sig) {
			return true
		}
	}
	return false
}

// BuildArgs assembles the arguments passed to Tool for one item transfer
// (the tool name itself is not included): [option tokens...,
// --exclude pairs..., progress flag, no-batch flag, source arg, dest
// arg]. Directory items use trailing-slash
// semantics so rsync copies the directory's contents into a
// same-named destination directory rather than nesting it one level
// deeper.
func BuildArgs(toolOptions string, excludes []string, sourceItemPath, destItemPath string, isDir bool) []string {
	var args []string
	for _, tok := range strings.Fields(toolOptions) {
		args = append(args, tok)
	}
	for _, pattern := range excludes {
		args = append(args, "--exclude", pattern)
	}
	args = append(args, "--info=progress2", "--no-inc-recursive")

	src, dst := sourceItemPath, destItemPath
	if isDir {
		src = strings.TrimRight(src, "/") + "/"
		dst = strings.TrimRight(dst, "/") + "/"
	}
	args = append(args, src, dst)
	return args
}

// StripProgressFlag removes a user-supplied --info=progress2 (or
// --progress) token from an option string, since per-worker invocations
// already append their own machine-readable progress flag and a second,
// differently-formatted one would be noisy across many concurrent
// workers.
func StripProgressFlag(toolOptions string) string {
	var kept []string
	for _, tok := range strings.Fields(toolOptions) {
		if tok == "--progress" || strings.HasPrefix(tok, "--info=progress") {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// ChangeLine is one parsed dry-run itemized change entry.
type ChangeLine struct {
	Action ChangeAction
	IsDir  bool
	Path   string
}

// ChangeAction classifies a dry-run change line.
type ChangeAction string

const (
	ChangeTransfer ChangeAction = "transfer"
	ChangeUpdate   ChangeAction = "update"
	ChangeDelete   ChangeAction = "delete"
	ChangeVerify   ChangeAction = "verify"
)

const deletingPrefix = "*deleting"

// ParseChangeLine parses one line of rsync's itemized change output: an
// 11-character action code at column 0, a space, then the path — except
// the deletion variant, which begins with the literal "*deleting"
// followed by spaces and the path.
func ParseChangeLine(line string) (ChangeLine, bool) {
	if strings.HasPrefix(line, deletingPrefix) {
		path := strings.TrimSpace(strings.TrimPrefix(line, deletingPrefix))
		return ChangeLine{Action: ChangeDelete, Path: path}, true
	}

	if len(line) < 13 || line[11] != ' ' {
		return ChangeLine{}, false
	}
	code := line[:11]
	path := line[12:]

	isDir := len(code) > 1 && code[1] == 'd'

	var action ChangeAction
	switch code[0] {
	case '>', '<':
		action = ChangeTransfer
	case 'c':
		action = ChangeUpdate
	case '.':
		action = ChangeVerify
	case '*':
		action = ChangeUpdate
	default:
		return ChangeLine{}, false
	}

	return ChangeLine{Action: action, IsDir: isDir, Path: path}, true
}

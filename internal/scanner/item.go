// Package scanner enumerates the top-level entries of a job's source tree
// and computes per-entry file/byte totals, which the distributor then
// bin-packs across workers.
package scanner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lucidlink/syncd/internal/logging"
)

// Item is one top-level source entry with its recursive totals.
type Item struct {
	Name  string
	IsDir bool
	Files int64
	Bytes int64
}

// Scanner walks a source tree to build the Item list the distributor
// consumes.
type Scanner struct{}

// New creates a Scanner.
func New() *Scanner {
	return &Scanner{}
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// TopLevelItems lists source non-recursively, drops entries matching any
// exclude glob, and for each surviving entry recursively sums files and
// bytes (applying the same excludes during descent). Files that cannot
// be stat'd add nothing to the totals rather than failing the whole scan;
// a top-level file that cannot be stat'd is still listed, with zero
// files and bytes. The
// result is sorted by byte count descending, which the distributor relies
// on for its greedy packing to behave well.
func (s *Scanner) TopLevelItems(source string, excludes []string) ([]Item, error) {
	entries, err := os.ReadDir(source)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if matchesAny(name, excludes) {
			continue
		}
		files, bytes := s.itemStats(filepath.Join(source, name), entry, excludes)
		items = append(items, Item{Name: name, IsDir: entry.IsDir(), Files: files, Bytes: bytes})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Bytes > items[j].Bytes })
	return items, nil
}

func (s *Scanner) itemStats(path string, entry os.DirEntry, excludes []string) (int64, int64) {
	if !entry.IsDir() {
		info, err := entry.Info()
		if err != nil {
			return 0, 0
		}
		return 1, info.Size()
	}
	files, bytes := s.SourceStats(path, excludes)
	return files, bytes
}

// SourceStats recursively sums the files and bytes under root, applying
// excludes to both directory and file names as it descends. It is the
// Source Scanner's recursive helper for directory items.
func (s *Scanner) SourceStats(root string, excludes []string) (files int64, bytes int64) {
	log := logging.WithComponent("scanner")

	entries, err := os.ReadDir(root)
	if err != nil {
		log.Debug().Err(err).Str("path", root).Msg("failed to read directory during scan")
		return 0, 0
	}

	for _, entry := range entries {
		name := entry.Name()
		if matchesAny(name, excludes) {
			continue
		}
		path := filepath.Join(root, name)
		if entry.IsDir() {
			subFiles, subBytes := s.SourceStats(path, excludes)
			files += subFiles
			bytes += subBytes
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files++
		bytes += info.Size()
	}
	return files, bytes
}

// Command syncd-fixture generates a sample source tree for manually
// exercising the Source Scanner and Filename Issue Detector: a mix of
// ordinary files, a few problematic names, and nested directories of
// varying sizes.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// problematicNames holds one example for each problematic-character rule
// except NUL, plus the leading-space, trailing-space, and trailing-dot
// rules, for manual verification of the Filename Issue Detector. There is
// no control-character example; an overlength name is written separately
// in run.
var problematicNames = []string{
	`back\slash.txt`,
	"colon:name.txt",
	"star*name.txt",
	"question?name.txt",
	`quoted"name.txt`,
	"less<than.txt",
	"greater>than.txt",
	"pipe|name.txt",
	" leading-space.txt",
	"trailing-space.txt ",
	"trailing-dot.txt.",
}

func main() {
	root := flag.String("root", "./fixture", "directory to populate")
	dirs := flag.Int("dirs", 5, "number of top-level directories to create")
	filesPerDir := flag.Int("files-per-dir", 20, "ordinary files per directory")
	seed := flag.Int64("seed", 1, "random seed for file sizes")
	flag.Parse()

	r := rand.New(rand.NewSource(*seed))

	if err := run(*root, *dirs, *filesPerDir, r); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(root string, dirs, filesPerDir int, r *rand.Rand) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create fixture root: %w", err)
	}

	for d := 0; d < dirs; d++ {
		dirPath := filepath.Join(root, fmt.Sprintf("dir-%02d", d))
		if err := os.MkdirAll(dirPath, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dirPath, err)
		}
		for f := 0; f < filesPerDir; f++ {
			name := fmt.Sprintf("file-%03d.bin", f)
			if err := writeRandomFile(filepath.Join(dirPath, name), randomSize(r), r); err != nil {
				return err
			}
		}
	}

	issuesDir := filepath.Join(root, "problematic-names")
	if err := os.MkdirAll(issuesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", issuesDir, err)
	}
	for _, name := range problematicNames {
		if err := writeRandomFile(filepath.Join(issuesDir, name), randomSize(r), r); err != nil {
			return err
		}
	}

	longName := make([]byte, 0, 300)
	for len(longName) < 300 {
		longName = append(longName, 'a')
	}
	if err := writeRandomFile(filepath.Join(issuesDir, string(longName)+".txt"), randomSize(r), r); err != nil {
		return err
	}

	fmt.Printf("fixture tree ready at %s (%d dirs, %d files each, %d problematic names)\n",
		root, dirs, filesPerDir, len(problematicNames)+1)
	return nil
}

func randomSize(r *rand.Rand) int {
	return 1 + r.Intn(4096)
}

func writeRandomFile(path string, size int, r *rand.Rand) error {
	data := make([]byte, size)
	r.Read(data)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Package scanner discovers generator inputs under a directory tree.
// It respects .wcetignore files with gitignore-style doublestar patterns and
// pairs every input with its optional matching and cuts companion files.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileInfo represents a discovered input.
type FileInfo struct {
	Path     string // Relative path from root, slash separated
	FullPath string // Absolute path
	Kind     Kind   // Detected from the file name
	Size     int64  // File size in bytes
	Matching string // Absolute path of the matching companion, if any
	Cuts     string // Absolute path of the cuts companion, if any
}

// Options configures the scanner behavior.
type Options struct {
	Include         []string // Doublestar patterns an input must match
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	DefaultExcludes []string // Directory names never entered
	IgnoreFileName  string   // Name of the ignore file (default: .wcetignore)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Include:        []string{"**/*.wcet", "**/*.wcet.gz", "**/*.wcet.zst"},
		SkipHidden:     true,
		IgnoreFileName: ".wcetignore",
		DefaultExcludes: []string{
			".git",
			".wcet",
			"node_modules",
			"vendor",
		},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks root and returns every input that matches an include pattern
// and no ignore pattern, sorted by path.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	for _, p := range s.opts.Include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	ignore, err := s.loadIgnorePatterns(absRoot, "")
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.isDefaultExcluded(d.Name()) || ignore.Match(rel+"/") {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnorePatterns(path, rel)
			if err == nil {
				ignore = append(ignore, nested...)
			}
			return nil
		}

		if !d.Type().IsRegular() || !s.included(rel) || ignore.Match(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		fi := FileInfo{
			Path:     rel,
			FullPath: path,
			Kind:     DetectKind(d.Name()),
			Size:     info.Size(),
		}
		fi.Matching, fi.Cuts = Companions(path)
		files = append(files, fi)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Scanner) included(rel string) bool {
	for _, p := range s.opts.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnorePatterns reads the ignore file of dir. Patterns are anchored at
// base, the slash separated path of dir relative to the scan root.
func (s *Scanner) loadIgnorePatterns(dir, base string) (IgnoreList, error) {
	if s.opts.IgnoreFileName == "" {
		return nil, nil
	}
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns IgnoreList
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p, err := ParseIgnorePattern(line, base)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, sc.Err()
}

// Companions returns the matching and cuts files stored next to an input:
// the input name with its kind suffix replaced by ".matching" and ".cuts".
// Missing companions are returned empty.
func Companions(path string) (matching, cuts string) {
	stem := strings.TrimSuffix(path, filepath.Base(path)) + Stem(filepath.Base(path))
	if fileExists(stem + ".matching") {
		matching = stem + ".matching"
	}
	if fileExists(stem + ".cuts") {
		cuts = stem + ".cuts"
	}
	return matching, cuts
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}

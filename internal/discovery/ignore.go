package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
)

// IgnoreFileName is the name of the ignore file trivet looks for.
const IgnoreFileName = ".trivetignore"

// IgnoreMatcher matches paths against the patterns of a .trivetignore file.
// Patterns use .gitignore-style syntax (via moby/patternmatcher) and are
// evaluated relative to the directory containing the ignore file.
//
// The zero value and a nil matcher ignore nothing.
type IgnoreMatcher struct {
	root    string
	matcher *patternmatcher.PatternMatcher
}

// LoadIgnore finds the closest .trivetignore at or above dir and compiles
// its patterns. Returns nil (ignore nothing) when no ignore file exists.
func LoadIgnore(dir string) (*IgnoreMatcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	for {
		ignorePath := filepath.Join(absDir, IgnoreFileName)
		patterns, err := loadIgnoreFile(ignorePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read %s: %w", ignorePath, err)
			}
		} else if len(patterns) > 0 {
			matcher, err := patternmatcher.New(patterns)
			if err != nil {
				return nil, fmt.Errorf("compile %s: %w", ignorePath, err)
			}
			return &IgnoreMatcher{root: absDir, matcher: matcher}, nil
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			// Reached filesystem root
			return nil, nil
		}
		absDir = parent
	}
}

// Ignored reports whether absPath is matched by the ignore patterns.
// Paths outside the ignore file's directory are never ignored.
func (m *IgnoreMatcher) Ignored(absPath string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	rel, err := filepath.Rel(m.root, absPath)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return false
	}

	matched, err := m.matcher.MatchesOrParentMatches(filepath.ToSlash(rel))
	return err == nil && matched
}

// loadIgnoreFile reads patterns from a single ignore file.
func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ignorefile.ReadAll(f)
}

// Package discovery expands CLI arguments into C# source files with glob
// pattern support and .trivetignore handling.
package discovery

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoveredFile is one source file produced by discovery.
type DiscoveredFile struct {
	// Path locates the source file. Explicit file inputs keep the path the
	// user typed (relative or absolute); files found through directories or
	// globs get absolute paths.
	Path string

	// ConfigRoot is where config file discovery starts for this file,
	// normally the file's own directory.
	ConfigRoot string
}

// Options configures file discovery behavior.
type Options struct {
	// Patterns are the doublestar globs to match inside directories,
	// e.g. "**/*.cs". Empty means DefaultPatterns().
	Patterns []string

	// ExcludePatterns drop matching files from the results.
	ExcludePatterns []string
}

// DefaultPatterns returns the default C# source file patterns.
func DefaultPatterns() []string {
	return []string{"*.cs"}
}

// Discover expands each input into source files. An input may be a file
// path, a directory (searched recursively with the configured patterns),
// or a doublestar glob.
//
// Files matched by a .trivetignore found at or above an input's base
// directory are dropped, including explicitly named files, so results stay
// consistent between `trivet lint .` and `trivet lint Foo.cs`.
//
// Results are deduplicated by absolute path and sorted.
func Discover(inputs []string, opts Options) ([]DiscoveredFile, error) {
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns()
	}

	seen := make(map[string]struct{})
	var results []DiscoveredFile

	for _, input := range inputs {
		ignore, err := LoadIgnore(inputBaseDir(input))
		if err != nil {
			return nil, err
		}

		discovered, err := discoverInput(input, opts, ignore, seen)
		if err != nil {
			return nil, err
		}
		results = append(results, discovered...)
	}

	slices.SortFunc(results, func(a, b DiscoveredFile) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return results, nil
}

// inputBaseDir returns the directory to start the .trivetignore search from.
func inputBaseDir(input string) string {
	if ContainsGlobChars(input) {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(input))
		return filepath.FromSlash(base)
	}
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		return input
	}
	return filepath.Dir(input)
}

// discoverInput expands one input. Inputs with glob characters never go
// through os.Stat: on Windows, stat on a path containing * fails outright.
func discoverInput(input string, opts Options, ignore *IgnoreMatcher, seen map[string]struct{}) ([]DiscoveredFile, error) {
	if ContainsGlobChars(input) {
		return globMatches(input, opts, ignore, seen)
	}

	info, err := os.Stat(input)
	switch {
	case err == nil && info.IsDir():
		return discoverDirectory(input, opts, ignore, seen)
	case err == nil:
		return discoverFile(input, opts, ignore, seen)
	case os.IsNotExist(err):
		// Not a literal path; let the glob engine have a try.
		return globMatches(input, opts, ignore, seen)
	default:
		return nil, err
	}
}

// ContainsGlobChars reports whether path uses glob special characters.
func ContainsGlobChars(path string) bool {
	return strings.ContainsAny(path, "*?[]")
}

// discoverFile handles an explicitly named file. The returned Path keeps
// the user's spelling; only ConfigRoot is absolute.
func discoverFile(path string, opts Options, ignore *IgnoreMatcher, seen map[string]struct{}) ([]DiscoveredFile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if _, dup := seen[absPath]; dup || isExcluded(absPath, opts.ExcludePatterns) || ignore.Ignored(absPath) {
		return nil, nil
	}
	seen[absPath] = struct{}{}

	return []DiscoveredFile{{
		Path:       path,
		ConfigRoot: filepath.Dir(absPath),
	}}, nil
}

// discoverDirectory searches a directory subtree for files matching the
// configured patterns.
func discoverDirectory(dir string, opts Options, ignore *IgnoreMatcher, seen map[string]struct{}) ([]DiscoveredFile, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var results []DiscoveredFile
	for _, pattern := range opts.Patterns {
		// Direct children plus the recursive subtree.
		globs := []string{
			filepath.Join(absDir, pattern),
			filepath.Join(absDir, "**", pattern),
		}
		for _, glob := range globs {
			discovered, err := globMatches(glob, opts, ignore, seen)
			if err != nil {
				return nil, err
			}
			results = append(results, discovered...)
		}
	}
	return results, nil
}

// globMatches expands a glob pattern into discovered files.
func globMatches(pattern string, opts Options, ignore *IgnoreMatcher, seen map[string]struct{}) ([]DiscoveredFile, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	var results []DiscoveredFile
	for _, match := range matches {
		absPath, err := filepath.Abs(match)
		if err != nil {
			return nil, err
		}

		if _, dup := seen[absPath]; dup || isExcluded(absPath, opts.ExcludePatterns) || ignore.Ignored(absPath) {
			continue
		}
		seen[absPath] = struct{}{}

		results = append(results, DiscoveredFile{
			Path:       absPath,
			ConfigRoot: filepath.Dir(absPath),
		})
	}
	return results, nil
}

// isExcluded matches absPath against the exclusion patterns. Each pattern
// is tried against the full path, the bare filename, and every suffix of
// the path components, so "*.designer.cs" works without a directory part,
// and "obj/*" matches direct children of any obj directory without also
// matching deeper descendants.
//
// doublestar matches on forward slashes regardless of OS, so every
// candidate string is normalized first.
func isExcluded(absPath string, excludePatterns []string) bool {
	if len(excludePatterns) == 0 {
		return false
	}

	candidates := []string{
		filepath.ToSlash(absPath),
		filepath.ToSlash(filepath.Base(absPath)),
	}
	parts := splitPath(absPath)
	for i := range parts {
		candidates = append(candidates, filepath.ToSlash(filepath.Join(parts[i:]...)))
	}

	for _, pattern := range excludePatterns {
		pattern = filepath.ToSlash(pattern)
		for _, candidate := range candidates {
			if ok, err := doublestar.Match(pattern, candidate); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// splitPath breaks a path into its components: "/home/user/obj/Program.cs"
// becomes ["home", "user", "obj", "Program.cs"]. Windows drive letters are
// dropped.
func splitPath(path string) []string {
	var parts []string
	for path != "" {
		dir, file := filepath.Split(path)
		if file != "" {
			parts = append(parts, file)
		}
		path = filepath.Clean(dir)

		if path == "/" || path == "." {
			break
		}
		// Windows volume roots ("C:", "C:\") end the walk.
		if vol := filepath.VolumeName(path); vol != "" && (path == vol || path == vol+string(filepath.Separator)) {
			break
		}
	}
	slices.Reverse(parts)
	return parts
}

// Package cache persists per-file lint results across runs.
//
// Entries are keyed by a digest of the file content plus a fingerprint of
// everything else that can change the outcome: the tool version, the set of
// enabled rules, and their options. A stale entry is therefore impossible by
// construction; the cache never needs invalidation logic beyond "key absent".
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wharflab/trivet/internal/rules"
)

// schemaVersion is bumped whenever the on-disk entry layout changes.
// Entries written under an older schema read back as misses.
const schemaVersion uint16 = 1

// entry is the on-disk representation of one cached lint result.
type entry struct {
	Schema     uint16
	Violations []rules.Violation
}

// Cache is a content-addressed store of lint results on disk. The zero
// value is not usable; obtain one via [Open]. A nil *Cache is valid and
// behaves as an always-miss store, which is how cache-disabled runs work.
type Cache struct {
	dir string
}

// DefaultDir returns the cache location used when the configuration does
// not name one.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "trivet"), nil
}

// Open prepares a cache rooted at dir, creating it if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Join(dir, "results"), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key derives the cache key for a file's content under the given
// fingerprint. Any change to either yields a different key.
func Key(content []byte, fingerprint string) string {
	h := sha256.New()
	h.Write(content)
	io.WriteString(h, "\x00")
	io.WriteString(h, fingerprint)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint digests the run parameters that affect lint results beyond
// file content: tool version, enabled rule codes, and per-rule options.
// The code order does not matter; option maps are rendered via fmt, which
// prints map keys sorted, so equal configurations digest equally.
func Fingerprint(version string, enabledCodes []string, ruleConfigs map[string]any) string {
	codes := slices.Clone(enabledCodes)
	slices.Sort(codes)

	h := sha256.New()
	io.WriteString(h, version)
	for _, code := range codes {
		io.WriteString(h, "\x00")
		io.WriteString(h, code)
		if opts, ok := ruleConfigs[code]; ok {
			fmt.Fprintf(h, "=%v", opts)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached violations for key. Missing, unreadable, or
// schema-mismatched entries are misses; undecodable files are removed so
// a corrupt entry cannot fail every subsequent run.
func (c *Cache) Get(key string) ([]rules.Violation, bool) {
	if c == nil {
		return nil, false
	}
	path := c.pathFor(key)
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var e entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil || e.Schema != schemaVersion {
		os.Remove(path)
		return nil, false
	}
	return e.Violations, true
}

// Put stores violations under key. The write goes through a temp file and
// an atomic rename, so concurrent lint runs never observe a partial entry.
// Callers must not store results from interrupted analyses.
func (c *Cache) Put(key string, violations []rules.Violation) error {
	if c == nil {
		return nil
	}
	path := c.pathFor(key)
	f, err := os.CreateTemp(filepath.Dir(path), "put-*")
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(entry{Schema: schemaVersion, Violations: violations}); err != nil {
		f.Close()
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, "results", key+".mp")
}

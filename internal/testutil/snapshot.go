package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MatchSourceSnapshot compares content byte-for-byte against a standalone
// snapshot stored next to the calling test:
//
//	__snapshots__/<TestName>_1.snap.cs
//
// go-snaps' own MatchStandaloneSnapshot runs content through pretty.Sprint,
// whose tabwriter expands tab bytes into spaces. Indentation fixtures test
// exactly that distinction, so they need the raw bytes, and the go-snaps
// path/diff helpers are unexported and cannot be reused selectively
// (https://github.com/gkampitakis/go-snaps/issues/153). This helper keeps
// the same file convention with exact-byte contents.
//
// UPDATE_SNAPS=true rewrites the snapshot instead of comparing.
func MatchSourceSnapshot(tb testing.TB, content string) {
	tb.Helper()

	_, callerFile, _, ok := runtime.Caller(1)
	if !ok {
		tb.Fatal("testutil.MatchSourceSnapshot: unable to determine caller")
	}

	name := strings.ReplaceAll(tb.Name(), "/", "_")
	snapFile := filepath.Join(filepath.Dir(callerFile), "__snapshots__", name+"_1.snap.cs")

	if os.Getenv("UPDATE_SNAPS") == "true" {
		writeSnapshot(tb, snapFile, content)
		return
	}

	prev, err := os.ReadFile(snapFile)
	if err != nil {
		tb.Fatalf("snapshot not found: %s\nRun with UPDATE_SNAPS=true to create", snapFile)
	}
	if string(prev) != content {
		tb.Errorf("snapshot mismatch: %s\n%s", snapFile, diffText(string(prev), content))
	}
}

func writeSnapshot(tb testing.TB, snapFile, content string) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(snapFile), 0o750); err != nil {
		tb.Fatalf("mkdir snapshot dir: %v", err)
	}
	if err := os.WriteFile(snapFile, []byte(content), 0o644); err != nil { //nolint:gosec // test-only snapshot
		tb.Fatalf("write snapshot: %v", err)
	}
}

// diffText renders the mismatch as a unified patch, which reads better than
// two full file dumps for long sources.
func diffText(prev, got string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prev, got, true)
	diffs = dmp.DiffCleanupSemanticLossless(diffs)
	return dmp.PatchToText(dmp.PatchMake(prev, diffs))
}

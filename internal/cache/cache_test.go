package cache

import (
	"os"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/syntax"
)

func sampleViolations() []rules.Violation {
	v := rules.NewViolation(
		rules.NewRangeLocation("Program.cs", 1, 10, 1, 11),
		"trivet/bracket-spacing",
		"opening bracket must not be preceded by a space",
		rules.SeverityWarning,
	).WithDetail("Spacing around brackets should be consistent.")
	v.SuggestedFix = &rules.SuggestedFix{
		Description: "Remove the space before '['",
		Safety:      rules.FixSafe,
		Priority:    10,
		IsPreferred: true,
		Edits:       []rules.TextEdit{{Span: syntax.Span{Start: 9, End: 10}}},
	}
	return []rules.Violation{v}
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	want := sampleViolations()
	key := Key([]byte("var y = x [0];\n"), "fp")

	if _, ok := c.Get(key); ok {
		t.Fatal("Get() hit before Put")
	}
	if err := c.Put(key, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get() miss after Put")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestCacheStoresEmptyResults(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	key := Key([]byte("var y = x[0];\n"), "fp")
	if err := c.Put(key, nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get() miss for clean-file entry")
	}
	if len(got) != 0 {
		t.Errorf("Get() = %+v, want no violations", got)
	}
}

func TestNilCacheIsAlwaysMiss(t *testing.T) {
	t.Parallel()

	var c *Cache
	if err := c.Put("key", sampleViolations()); err != nil {
		t.Errorf("nil Put() error = %v", err)
	}
	if _, ok := c.Get("key"); ok {
		t.Error("nil Get() reported a hit")
	}
}

func TestCacheRemovesCorruptEntry(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	key := Key([]byte("int x = 1;\n"), "fp")
	path := c.pathFor(key)
	if err := os.WriteFile(path, []byte("not msgpack"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, ok := c.Get(key); ok {
		t.Error("Get() decoded a corrupt entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("corrupt entry still on disk: stat err = %v", err)
	}
}

func TestCacheRejectsOldSchema(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	key := Key([]byte("int x = 1;\n"), "fp")
	old, err := msgpack.Marshal(entry{Schema: schemaVersion + 1, Violations: sampleViolations()})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := os.WriteFile(c.pathFor(key), old, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, ok := c.Get(key); ok {
		t.Error("Get() accepted an entry from a different schema version")
	}
}

func TestKeyChangesWithInputs(t *testing.T) {
	t.Parallel()

	base := Key([]byte("int x = 1;\n"), "fp")
	if got := Key([]byte("int x = 1;\n"), "fp"); got != base {
		t.Error("Key() not deterministic")
	}
	if got := Key([]byte("int x = 2;\n"), "fp"); got == base {
		t.Error("Key() ignored content change")
	}
	if got := Key([]byte("int x = 1;\n"), "fp2"); got == base {
		t.Error("Key() ignored fingerprint change")
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	codes := []string{"trivet/bracket-spacing", "trivet/max-lines"}
	opts := map[string]any{"trivet/max-lines": map[string]any{"max": 100}}

	base := Fingerprint("1.0.0", codes, opts)
	if got := Fingerprint("1.0.0", []string{"trivet/max-lines", "trivet/bracket-spacing"}, opts); got != base {
		t.Error("Fingerprint() sensitive to code order")
	}
	if got := Fingerprint("1.0.1", codes, opts); got == base {
		t.Error("Fingerprint() ignored version change")
	}
	if got := Fingerprint("1.0.0", codes[:1], opts); got == base {
		t.Error("Fingerprint() ignored enabled-rule change")
	}
	changed := map[string]any{"trivet/max-lines": map[string]any{"max": 200}}
	if got := Fingerprint("1.0.0", codes, changed); got == base {
		t.Error("Fingerprint() ignored option change")
	}
	if got := Fingerprint("1.0.0", codes, nil); got == base {
		t.Error("Fingerprint() ignored dropped options")
	}
}

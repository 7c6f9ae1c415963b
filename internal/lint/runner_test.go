package lint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wharflab/trivet/internal/cache"
	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/fileval"
	"github.com/wharflab/trivet/internal/processor"
	"github.com/wharflab/trivet/internal/rules"
)

func hermeticConfig() *config.Config {
	cfg := config.Default()
	cfg.EditorConfig = false
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
	return path
}

func violationsByCode(violations []rules.Violation) map[string]int {
	counts := make(map[string]int)
	for _, v := range violations {
		counts[v.RuleCode]++
	}
	return counts
}

func TestRun_MergesResultsAcrossFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clean := writeFile(t, dir, "Clean.cs", "var y = x[0];\n")
	dirty := writeFile(t, dir, "Dirty.cs", "var y = x [0];\n")

	summary, err := Run(context.Background(), []string{clean, dirty}, Options{Config: hermeticConfig()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.FilesLinted != 2 {
		t.Errorf("FilesLinted = %d, want 2", summary.FilesLinted)
	}
	if len(summary.Errors) != 0 {
		t.Errorf("Errors = %v, want none", summary.Errors)
	}
	if summary.Incomplete {
		t.Error("Incomplete = true for a finished run")
	}
	if len(summary.Violations) != 1 {
		t.Fatalf("Violations = %+v, want exactly one", summary.Violations)
	}
	v := summary.Violations[0]
	if v.RuleCode != "trivet/bracket-spacing" {
		t.Errorf("RuleCode = %q, want trivet/bracket-spacing", v.RuleCode)
	}
	if v.File() != dirty {
		t.Errorf("File() = %q, want %q", v.File(), dirty)
	}
	if len(summary.FileSources) != 2 || len(summary.FileConfigs) != 2 {
		t.Errorf("FileSources/FileConfigs sizes = %d/%d, want 2/2",
			len(summary.FileSources), len(summary.FileConfigs))
	}
}

func TestRun_SortsAcrossFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b := writeFile(t, dir, "B.cs", "var y = x [0];\n")
	a := writeFile(t, dir, "A.cs", "//no space\nvar y = x [0];\n")

	summary, err := Run(context.Background(), []string{b, a}, Options{Config: hermeticConfig()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(summary.Violations) != 3 {
		t.Fatalf("Violations = %+v, want three", summary.Violations)
	}
	if summary.Violations[0].File() != a || summary.Violations[2].File() != b {
		t.Errorf("violations not sorted by file: %q, %q, %q",
			summary.Violations[0].File(), summary.Violations[1].File(), summary.Violations[2].File())
	}
	if summary.Violations[0].Line() != 1 || summary.Violations[1].Line() != 2 {
		t.Errorf("violations within %q not sorted by line: %d then %d",
			a, summary.Violations[0].Line(), summary.Violations[1].Line())
	}
}

func TestRun_IsolatesPerFileFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeFile(t, dir, "Good.cs", "var y = x [0];\n")
	bad := filepath.Join(dir, "Bad.cs")
	if err := os.WriteFile(bad, []byte{0xff, 0xfe, 'i', 'n', 't'}, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	missing := filepath.Join(dir, "Missing.cs")

	summary, err := Run(context.Background(), []string{good, bad, missing}, Options{Config: hermeticConfig()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.FilesLinted != 1 {
		t.Errorf("FilesLinted = %d, want 1", summary.FilesLinted)
	}
	if len(summary.Violations) != 1 || summary.Violations[0].File() != good {
		t.Errorf("Violations = %+v, want one for %q", summary.Violations, good)
	}
	if len(summary.Errors) != 2 {
		t.Fatalf("Errors = %v, want two", summary.Errors)
	}
	byPath := make(map[string]error, len(summary.Errors))
	for _, fe := range summary.Errors {
		byPath[fe.Path] = fe
	}
	var notUTF8 *fileval.NotUTF8Error
	if !errors.As(byPath[bad], &notUTF8) {
		t.Errorf("error for %q = %v, want NotUTF8Error", bad, byPath[bad])
	}
	if !errors.Is(byPath[missing], os.ErrNotExist) {
		t.Errorf("error for %q = %v, want ErrNotExist", missing, byPath[missing])
	}
}

func TestRun_ServesFromCache(t *testing.T) {
	t.Parallel()

	c, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	dir := t.TempDir()
	file := writeFile(t, dir, "Program.cs", "var y = x [0];\n")
	opts := Options{Config: hermeticConfig(), Cache: c, Version: "test"}

	first, err := Run(context.Background(), []string{file}, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if first.CacheHits != 0 {
		t.Errorf("first run CacheHits = %d, want 0", first.CacheHits)
	}

	second, err := Run(context.Background(), []string{file}, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if second.CacheHits != 1 {
		t.Errorf("second run CacheHits = %d, want 1", second.CacheHits)
	}
	if second.FilesLinted != 1 {
		t.Errorf("second run FilesLinted = %d, want 1", second.FilesLinted)
	}
	if len(second.Violations) != len(first.Violations) {
		t.Fatalf("cached run reported %d violations, fresh run %d",
			len(second.Violations), len(first.Violations))
	}
	for i := range second.Violations {
		if second.Violations[i].Message != first.Violations[i].Message {
			t.Errorf("violation %d message diverged: %q vs %q",
				i, second.Violations[i].Message, first.Violations[i].Message)
		}
	}
}

func TestRun_CacheHitRestoresPath(t *testing.T) {
	t.Parallel()

	c, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	dir := t.TempDir()
	const content = "var y = x [0];\n"
	original := writeFile(t, dir, "Original.cs", content)
	copied := writeFile(t, dir, "Copy.cs", content)
	opts := Options{Config: hermeticConfig(), Cache: c, Version: "test"}

	if _, err := Run(context.Background(), []string{original}, opts); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	summary, err := Run(context.Background(), []string{copied}, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", summary.CacheHits)
	}
	if len(summary.Violations) != 1 {
		t.Fatalf("Violations = %+v, want one", summary.Violations)
	}
	if got := summary.Violations[0].File(); got != copied {
		t.Errorf("cached violation File() = %q, want %q", got, copied)
	}
}

func TestRun_ConfigChangeMissesCache(t *testing.T) {
	t.Parallel()

	c, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	dir := t.TempDir()
	file := writeFile(t, dir, "Program.cs", "line1\nline2\nline3\nline4\nline5\n")

	base := hermeticConfig()
	if _, err := Run(context.Background(), []string{file}, Options{Config: base, Cache: c, Version: "test"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	strict := hermeticConfig()
	strict.Rules.Set("trivet/max-lines", config.RuleConfig{Options: map[string]any{"max": 3}})
	summary, err := Run(context.Background(), []string{file}, Options{Config: strict, Cache: c, Version: "test"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.CacheHits != 0 {
		t.Errorf("CacheHits = %d after config change, want 0", summary.CacheHits)
	}
	if counts := violationsByCode(summary.Violations); counts["trivet/max-lines"] != 1 {
		t.Errorf("violations = %v, want one trivet/max-lines", counts)
	}
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "Program.cs", "var y = x [0];\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := Run(ctx, []string{file}, Options{Config: hermeticConfig()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if summary == nil {
		t.Fatal("Run() returned nil summary on cancellation")
	}
	if !summary.Incomplete {
		t.Error("Incomplete = false for a cancelled run")
	}
}

func TestRun_DiscoversConfigPerFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "Program.cs", "var y = x[0];\n")

	summary, err := Run(context.Background(), []string{file}, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	cfg := summary.FileConfigs[file]
	if cfg == nil {
		t.Fatal("FileConfigs missing discovered config")
	}
	if cfg.FileValidation.MaxFileSize != config.Default().FileValidation.MaxFileSize {
		t.Errorf("MaxFileSize = %d, want default", cfg.FileValidation.MaxFileSize)
	}
}

func TestRun_DiffFilterKeepsChangedLinesOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "Program.cs", "var a = x [0];\nvar b = x [1];\n")

	changed := processor.ChangedLines{file: {2: {}}}
	summary, err := Run(context.Background(), []string{file}, Options{
		Config:       hermeticConfig(),
		ChangedLines: changed,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(summary.Violations) != 1 {
		t.Fatalf("Violations = %+v, want one on the changed line", summary.Violations)
	}
	if got := summary.Violations[0].Line(); got != 2 {
		t.Errorf("kept violation on line %d, want 2", got)
	}
}

func TestRun_AttachesSnippets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "Program.cs", "var y = x [0];\n")

	summary, err := Run(context.Background(), []string{file}, Options{Config: hermeticConfig()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(summary.Violations) != 1 {
		t.Fatalf("Violations = %+v, want one", summary.Violations)
	}
	if summary.Violations[0].SourceCode == "" {
		t.Error("SourceCode not attached by the processor chain")
	}
}

func TestFileErrorUnwrap(t *testing.T) {
	t.Parallel()

	fe := FileError{Path: "Program.cs", Err: os.ErrNotExist}
	if !errors.Is(fe, os.ErrNotExist) {
		t.Error("FileError does not unwrap to its cause")
	}
	if fe.Error() != "Program.cs: file does not exist" {
		t.Errorf("Error() = %q", fe.Error())
	}
}

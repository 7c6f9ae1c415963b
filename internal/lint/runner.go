// Package lint fans the linter out across many files and merges the
// results into a single processed report.
//
// Each file is linted independently under a bounded worker pool. I/O,
// validation, and parse failures are isolated per file: one broken file
// never stops the rest of the run. Cancelling the context stops the run
// early and returns whatever completed so far.
package lint

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/wharflab/trivet/internal/cache"
	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/fileval"
	"github.com/wharflab/trivet/internal/linter"
	"github.com/wharflab/trivet/internal/processor"
	"github.com/wharflab/trivet/internal/rules"
)

// Options controls a lint run across a set of files.
type Options struct {
	// Config applies to every file when set. When nil, configuration is
	// discovered per file from its directory upwards.
	Config *config.Config

	// ConfigOverrides layers on top of each file's discovered configuration
	// (nested config-file shape, e.g. {"rules": {"exclude": [...]}}).
	// Ignored when Config is set.
	ConfigOverrides map[string]any

	// Cache stores and serves per-file results. Nil disables caching.
	Cache *cache.Cache

	// Version participates in the cache fingerprint so results from a
	// different build are never served.
	Version string

	// ChangedLines restricts the report to violations on these lines.
	// Nil reports everything.
	ChangedLines processor.ChangedLines

	// Jobs bounds how many files are linted concurrently. Zero or
	// negative means one worker per CPU.
	Jobs int

	// Channel receives progress and warnings. May be nil.
	Channel linter.Channel
}

// FileError records a per-file failure that did not stop the run.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e FileError) Unwrap() error { return e.Err }

// Summary is the merged outcome of a lint run.
type Summary struct {
	// Violations holds the processed, sorted violations across all files.
	Violations []rules.Violation

	// FileSources maps each successfully read file to its content.
	FileSources map[string][]byte

	// FileConfigs maps each file to the configuration it was linted under.
	FileConfigs map[string]*config.Config

	// Errors lists files that could not be linted.
	Errors []FileError

	// FilesLinted counts files that produced a result, cached or fresh.
	FilesLinted int

	// CacheHits counts files served from the result cache.
	CacheHits int

	// Incomplete reports that the run was cancelled before every file
	// finished. Violations then cover only the files that completed.
	Incomplete bool
}

// outcome is the per-file result collected by a worker. The started flag
// distinguishes a worker that ran from one cancelled before starting.
type outcome struct {
	started    bool
	linted     bool
	hit        bool
	incomplete bool
	cfg        *config.Config
	source     []byte
	violations []rules.Violation
	err        error
}

// Run lints files under the given options and returns the merged summary.
// On cancellation it returns the partial summary together with the
// context's error.
func Run(ctx context.Context, files []string, opts Options) (*Summary, error) {
	outcomes := make([]outcome, len(files))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(files), 1)))

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = lintOne(gctx, path, opts)
			return nil
		})
	}

	runErr := g.Wait()

	summary := &Summary{
		FileSources: make(map[string][]byte),
		FileConfigs: make(map[string]*config.Config),
	}
	if runErr != nil {
		summary.Incomplete = true
	}

	var raw []rules.Violation
	for i, path := range files {
		o := &outcomes[i]
		if !o.started {
			summary.Incomplete = true
			continue
		}
		summary.FileConfigs[path] = o.cfg
		if o.source != nil {
			summary.FileSources[path] = o.source
		}
		if o.err != nil {
			summary.Errors = append(summary.Errors, FileError{Path: path, Err: o.err})
			continue
		}
		raw = append(raw, o.violations...)
		if o.linted {
			summary.FilesLinted++
		}
		if o.hit {
			summary.CacheHits++
		}
		if o.incomplete {
			summary.Incomplete = true
		}
	}

	// Cancellation observed only inside a worker leaves g.Wait with no
	// error to report. The summary is still partial.
	if runErr == nil && summary.Incomplete {
		runErr = ctx.Err()
	}

	pctx := processor.NewContext(summary.FileConfigs, summaryConfig(opts, summary), summary.FileSources)
	summary.Violations = linter.CLIProcessors(opts.ChangedLines).Process(raw, pctx)

	return summary, runErr
}

// lintOne lints a single file: config, validation, cache probe, analysis,
// cache store. All failures land in the returned outcome.
func lintOne(ctx context.Context, path string, opts Options) outcome {
	out := outcome{started: true}

	cfg := opts.Config
	if cfg == nil {
		var err error
		if len(opts.ConfigOverrides) > 0 {
			cfg, err = config.LoadWithOverrides(path, opts.ConfigOverrides, config.ConfigurationPreferenceEditorFirst)
		} else {
			cfg, err = config.Load(path)
		}
		if err != nil {
			warn(opts.Channel, fmt.Sprintf("config load error for %s: %v", path, err))
			cfg = config.Default()
		}
	}
	out.cfg = cfg

	// ValidateFile checks the size from metadata, before the content is
	// ever buffered.
	if err := fileval.ValidateFile(path, cfg.FileValidation.MaxFileSize); err != nil {
		out.err = err
		return out
	}
	content, err := os.ReadFile(path)
	if err != nil {
		out.err = err
		return out
	}
	out.source = content

	var key string
	if opts.Cache != nil {
		key = cache.Key(content, fingerprintFor(cfg, opts.Version, path))
		if cached, ok := opts.Cache.Get(key); ok {
			// Entries are keyed by content, so an identical file at
			// another path serves the same entry. Restore the path.
			out.violations = slices.Clone(cached)
			for i := range out.violations {
				out.violations[i].Location.File = path
			}
			out.hit = true
			out.linted = true
			return out
		}
	}

	res, err := linter.LintFile(ctx, linter.Input{
		FilePath: path,
		Content:  content,
		Config:   cfg,
		Channel:  opts.Channel,
	})
	if err != nil {
		if res != nil && res.Incomplete {
			out.violations = res.Violations
			out.incomplete = true
			return out
		}
		out.err = err
		return out
	}

	out.violations = res.Violations
	out.linted = true

	if opts.Cache != nil && !res.Incomplete {
		if err := opts.Cache.Put(key, res.Violations); err != nil {
			warn(opts.Channel, fmt.Sprintf("cache write failed for %s: %v", path, err))
		}
	}
	return out
}

// fingerprintFor digests the parts of cfg that influence lint results for
// path. The file's editorconfig defaults are folded in because they gate
// and seed rules during analysis; a changed .editorconfig must miss.
func fingerprintFor(cfg *config.Config, version, path string) string {
	codes := linter.EnabledRuleCodes(cfg)
	configs := make(map[string]any, len(codes))
	for _, code := range codes {
		if opts := cfg.Rules.GetOptions(code); opts != nil {
			configs[code] = opts
		}
	}
	defaults := cfg.FileDefaultsFor(path)
	seed := fmt.Sprintf("%s\x00indent=%s trim=%s final=%s",
		version, defaults.IndentStyle,
		boolTag(defaults.TrimTrailingWhitespace), boolTag(defaults.InsertFinalNewline))
	return cache.Fingerprint(seed, codes, configs)
}

func boolTag(b *bool) string {
	if b == nil {
		return "unset"
	}
	return strconv.FormatBool(*b)
}

// summaryConfig picks the configuration the processor chain falls back to
// for files it has no per-file entry for.
func summaryConfig(opts Options, s *Summary) *config.Config {
	if opts.Config != nil {
		return opts.Config
	}
	for _, cfg := range s.FileConfigs {
		if cfg != nil {
			return cfg
		}
	}
	return config.Default()
}

func warn(ch linter.Channel, msg string) {
	if ch != nil {
		ch.Warn(msg)
	}
}

// Package processor post-processes linter violations before they reach a
// reporter or an editor.
//
// Violations flow through a chain of small single-purpose processors, each
// returning a fresh slice (the golangci-lint processor pattern). The
// standard CLI pipeline runs:
//
//  1. PathNormalization - forward slashes everywhere
//  2. SeverityOverride - config severities applied (before EnableFilter)
//  3. EnableFilter - drop disabled rules
//  4. PathExclusionFilter - drop per-rule excluded paths
//  5. DiffFilter - keep changed lines only (--diff mode)
//  6. Deduplication - collapse repeats
//  7. Sorting - deterministic order
//  8. SnippetAttachment - populate SourceCode
package processor

import (
	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/sourcemap"
)

// Processor is one stage of the pipeline. Implementations must treat the
// input slice as read-only and return a new slice when they filter or
// rewrite anything; shared state lives in Context, not the processor.
type Processor interface {
	// Name identifies the processor in logs.
	Name() string

	// Process applies the stage to violations.
	Process(violations []rules.Violation, ctx *Context) []rules.Violation
}

// Context carries the run-wide state processors share. It is built once
// per run and handed to every stage.
type Context struct {
	// Config is the fallback configuration for files absent from
	// FileConfigs.
	Config *config.Config

	// FileConfigs maps file paths to their resolved configuration.
	// Discovery walks up from each file, so files in different
	// directories may be governed by different configs in one run.
	FileConfigs map[string]*config.Config

	// FileSources maps file paths to raw source bytes, consumed by
	// SnippetAttachment.
	FileSources map[string][]byte

	// sourceMaps lazily caches one SourceMap per file.
	sourceMaps map[string]*sourcemap.SourceMap
}

// NewContext creates a processor context.
func NewContext(
	fileConfigs map[string]*config.Config,
	cfg *config.Config,
	fileSources map[string][]byte,
) *Context {
	return &Context{
		Config:      cfg,
		FileConfigs: fileConfigs,
		FileSources: fileSources,
		sourceMaps:  make(map[string]*sourcemap.SourceMap),
	}
}

// ConfigForFile returns the configuration governing file, falling back to
// the run-wide Config when there is no per-file entry.
func (ctx *Context) ConfigForFile(file string) *config.Config {
	if cfg, ok := ctx.FileConfigs[file]; ok && cfg != nil {
		return cfg
	}
	return ctx.Config
}

// GetSourceMap returns the cached SourceMap for file, building it on first
// use. Nil when the file's source is unknown.
func (ctx *Context) GetSourceMap(file string) *sourcemap.SourceMap {
	if sm, ok := ctx.sourceMaps[file]; ok {
		return sm
	}
	source, ok := ctx.FileSources[file]
	if !ok {
		return nil
	}
	sm := sourcemap.New(source)
	ctx.sourceMaps[file] = sm
	return sm
}

// Chain runs processors in sequence.
type Chain struct {
	processors []Processor
}

// NewChain creates a chain that runs the given processors in order.
func NewChain(processors ...Processor) *Chain {
	return &Chain{processors: processors}
}

// Process feeds violations through every stage and returns the final slice.
func (c *Chain) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	for _, p := range c.processors {
		violations = p.Process(violations, ctx)
	}
	return violations
}

// keepIf returns the violations for which keep reports true, in order.
func keepIf(violations []rules.Violation, keep func(v rules.Violation) bool) []rules.Violation {
	out := make([]rules.Violation, 0, len(violations))
	for _, v := range violations {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// mapViolations returns a new slice with fn applied to every violation.
func mapViolations(violations []rules.Violation, fn func(v rules.Violation) rules.Violation) []rules.Violation {
	out := make([]rules.Violation, len(violations))
	for i, v := range violations {
		out[i] = fn(v)
	}
	return out
}

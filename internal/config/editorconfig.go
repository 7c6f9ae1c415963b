package config

import (
	"github.com/editorconfig/editorconfig-core-go/v2"
)

// FileDefaults carries per-file editor settings resolved from .editorconfig
// files. Nil pointers mean the setting is not specified for the file.
//
// These settings gate rule defaults only: an explicit entry in the trivet
// config always wins over editorconfig.
type FileDefaults struct {
	// TrimTrailingWhitespace gates the trivet/no-trailing-spaces default.
	TrimTrailingWhitespace *bool

	// InsertFinalNewline gates the trivet/final-newline default.
	InsertFinalNewline *bool

	// IndentStyle is "tabs", "spaces", or "" when unset. It seeds the
	// trivet/consistent-indentation auto mode.
	IndentStyle string
}

// FileDefaultsFor resolves editorconfig-backed defaults for path.
// Returns the zero value when editorconfig support is disabled.
func (c *Config) FileDefaultsFor(path string) FileDefaults {
	if c == nil || !c.EditorConfig {
		return FileDefaults{}
	}
	return ResolveFileDefaults(path)
}

// ResolveFileDefaults reads the .editorconfig definition that applies to
// path. Resolution failures yield the zero value; a missing or malformed
// .editorconfig never fails a lint run.
func ResolveFileDefaults(path string) FileDefaults {
	def, err := editorconfig.GetDefinitionForFilename(path)
	if err != nil || def == nil {
		return FileDefaults{}
	}

	fd := FileDefaults{
		TrimTrailingWhitespace: def.TrimTrailingWhitespace,
		InsertFinalNewline:     def.InsertFinalNewline,
	}
	// EditorConfig spells the values "tab" and "space"; rule options use
	// the plural forms.
	switch def.IndentStyle {
	case "tab":
		fd.IndentStyle = "tabs"
	case "space":
		fd.IndentStyle = "spaces"
	}
	return fd
}
